package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hupe1980/bulkmeans"
	"github.com/hupe1980/bulkmeans/resource"
)

const usageLine = "usage: bulkmeans [flags] <input_file> <num_points> [<num_centroids>=5] [<num_iters>=20]"

// config is the full CLI configuration. Fields tagged for TOML can be set
// in the -config file; flags given on the command line win.
type config struct {
	Input      string `toml:"-"`
	NumPoints  int    `toml:"-"`
	K          int    `toml:"k"`
	Iterations int    `toml:"iterations"`

	Out         string `toml:"out"`
	Report      string `toml:"report"`
	Workers     int    `toml:"workers"`
	Mode        string `toml:"mode"`
	BlockSize   int    `toml:"block_size"`
	Seed        int64  `toml:"seed"`
	LogFormat   string `toml:"log_format"`
	LogLevel    string `toml:"log_level"`
	MetricsFile string `toml:"metrics_file"`
	MinioSecure bool   `toml:"minio_secure"`

	MemoryLimitBytes   int64 `toml:"memory_limit_bytes"`
	MaxConcurrentLoads int64 `toml:"max_concurrent_loads"`
	LoadBytesPerSec    int64 `toml:"load_bytes_per_sec"`
}

func defaultConfig() config {
	return config{
		K:          bulkmeans.DefaultK,
		Iterations: bulkmeans.DefaultIterations,
		Out:        "result.out",
		Mode:       bulkmeans.ModeBSP.String(),
		Seed:       bulkmeans.DefaultSeed,
		LogFormat:  "text",
		LogLevel:   "warn",
	}
}

// configPath finds the -config value without parsing the other flags, so
// the file can supply defaults for them.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	cfg := defaultConfig()
	if path := configPath(args); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%w: config %s: %w", bulkmeans.ErrInvalidArguments, path, err)
		}
	}

	fs := flag.NewFlagSet("bulkmeans", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}
	fs.String("config", "", "TOML file with defaults for the flags below")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "result location (local path, s3://bucket/key or minio://host/bucket/key); .zst and .lz4 suffixes compress")
	fs.StringVar(&cfg.Report, "report", cfg.Report, "optional JSON run report location")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of workers (0 = GOMAXPROCS)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "execution mode: bsp or data-parallel")
	fs.IntVar(&cfg.BlockSize, "block-size", cfg.BlockSize, "logical threads per block in data-parallel mode (0 = default)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the initial centroids")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this textfile when done")
	fs.BoolVar(&cfg.MinioSecure, "minio-secure", cfg.MinioSecure, "use TLS for minio:// locations")
	fs.Int64Var(&cfg.MemoryLimitBytes, "memory-limit", cfg.MemoryLimitBytes, "cap on loaded point memory in bytes (0 = unlimited)")
	fs.Int64Var(&cfg.MaxConcurrentLoads, "max-loads", cfg.MaxConcurrentLoads, "workers reading the input at once (0 = unlimited)")
	fs.Int64Var(&cfg.LoadBytesPerSec, "load-rate", cfg.LoadBytesPerSec, "input read throughput in bytes/s (0 = unlimited)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	pos := fs.Args()
	if len(pos) < 2 || len(pos) > 4 {
		return nil, fmt.Errorf("%w: expected 2 to 4 arguments, got %d", bulkmeans.ErrInvalidArguments, len(pos))
	}
	cfg.Input = pos[0]

	var err error
	if cfg.NumPoints, err = positiveInt("num_points", pos[1], 1); err != nil {
		return nil, err
	}
	if len(pos) > 2 {
		if cfg.K, err = positiveInt("num_centroids", pos[2], 1); err != nil {
			return nil, err
		}
	}
	if len(pos) > 3 {
		if cfg.Iterations, err = positiveInt("num_iters", pos[3], 0); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func positiveInt(name, s string, minimum int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", bulkmeans.ErrInvalidArguments, name, s)
	}
	if v < minimum {
		return 0, fmt.Errorf("%w: %s must be at least %d, got %d", bulkmeans.ErrInvalidArguments, name, minimum, v)
	}
	return v, nil
}

func (c *config) logger(w io.Writer) (*bulkmeans.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("%w: log level: %w", bulkmeans.ErrInvalidArguments, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.LogFormat {
	case "text", "":
		return bulkmeans.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return bulkmeans.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", bulkmeans.ErrInvalidArguments, c.LogFormat)
	}
}

func (c *config) options(logger *bulkmeans.Logger) ([]bulkmeans.Option, error) {
	mode, err := bulkmeans.ParseMode(c.Mode)
	if err != nil {
		return nil, errors.Join(bulkmeans.ErrInvalidArguments, err)
	}
	opts := []bulkmeans.Option{
		bulkmeans.WithK(c.K),
		bulkmeans.WithIterations(c.Iterations),
		bulkmeans.WithSeed(c.Seed),
		bulkmeans.WithMode(mode),
		bulkmeans.WithLogger(logger),
	}
	if c.Workers > 0 {
		opts = append(opts, bulkmeans.WithWorkers(c.Workers))
	}
	if c.BlockSize > 0 {
		opts = append(opts, bulkmeans.WithBlockSize(c.BlockSize))
	}
	if c.MemoryLimitBytes > 0 || c.MaxConcurrentLoads > 0 || c.LoadBytesPerSec > 0 {
		opts = append(opts, bulkmeans.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   c.MemoryLimitBytes,
			MaxConcurrentLoads: c.MaxConcurrentLoads,
			LoadBytesPerSec:    c.LoadBytesPerSec,
		})))
	}
	return opts, nil
}
