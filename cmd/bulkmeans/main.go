// Command bulkmeans clusters the first num_points "x y" pairs of an input
// file with k-means and writes every iteration's centroids to -out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/bulkmeans"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usageLine)
		return 1
	}

	if err := execute(ctx, cfg, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "bulkmeans:", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config, stdout, stderr io.Writer) error {
	logger, err := cfg.logger(stderr)
	if err != nil {
		return err
	}
	opts, err := cfg.options(logger)
	if err != nil {
		return err
	}

	inLoc, err := parseLocation(cfg.Input)
	if err != nil {
		return err
	}
	outLoc, err := parseLocation(cfg.Out)
	if err != nil {
		return err
	}
	var reportLoc location
	if cfg.Report != "" {
		if reportLoc, err = parseLocation(cfg.Report); err != nil {
			return err
		}
	}

	var prom *promCollector
	if cfg.MetricsFile != "" {
		prom = newPromCollector()
		opts = append(opts, bulkmeans.WithMetricsCollector(prom))
		defer func() {
			if err := prom.writeTo(cfg.MetricsFile); err != nil {
				logger.LogWrite(ctx, cfg.MetricsFile, err)
			}
		}()
	}

	inStore, inName, err := openStore(ctx, inLoc, cfg.MinioSecure)
	if err != nil {
		return err
	}

	res, err := bulkmeans.Run(ctx, bulkmeans.FromBlob(inStore, inName), cfg.NumPoints, opts...)
	if err != nil {
		return err
	}

	outStore, outName, err := openStore(ctx, outLoc, cfg.MinioSecure)
	if err != nil {
		return err
	}
	err = bulkmeans.WriteResult(ctx, outStore, outName, res)
	logger.LogWrite(ctx, cfg.Out, err)
	if err != nil {
		return err
	}

	if cfg.Report != "" {
		reportStore, reportName, err := openStore(ctx, reportLoc, cfg.MinioSecure)
		if err != nil {
			return err
		}
		err = bulkmeans.WriteReport(ctx, reportStore, reportName, res, nil)
		logger.LogWrite(ctx, cfg.Report, err)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Time Elapsed: %f s\n", res.ClusteringTime.Seconds())
	return nil
}
