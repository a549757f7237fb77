package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/bulkmeans"
	"github.com/hupe1980/bulkmeans/blobstore"
	"github.com/hupe1980/bulkmeans/internal/kmeans"
	"github.com/hupe1980/bulkmeans/internal/point"
	"github.com/hupe1980/bulkmeans/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_Positional(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantErr   bool
		k, iters  int
		numPoints int
	}{
		{"too few", []string{"in.txt"}, true, 0, 0, 0},
		{"too many", []string{"in.txt", "10", "3", "4", "5"}, true, 0, 0, 0},
		{"defaults", []string{"in.txt", "10"}, false, 5, 20, 10},
		{"k only", []string{"in.txt", "10", "3"}, false, 3, 20, 10},
		{"all", []string{"in.txt", "10", "3", "7"}, false, 3, 7, 10},
		{"zero iterations", []string{"in.txt", "10", "3", "0"}, false, 3, 0, 10},
		{"not a number", []string{"in.txt", "ten"}, true, 0, 0, 0},
		{"zero points", []string{"in.txt", "0"}, true, 0, 0, 0},
		{"zero k", []string{"in.txt", "10", "0"}, true, 0, 0, 0},
		{"negative iterations", []string{"in.txt", "10", "2", "-1"}, true, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				assert.ErrorIs(t, err, bulkmeans.ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "in.txt", cfg.Input)
			assert.Equal(t, tt.numPoints, cfg.NumPoints)
			assert.Equal(t, tt.k, cfg.K)
			assert.Equal(t, tt.iters, cfg.Iterations)
		})
	}
}

func TestParseArgs_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulkmeans.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers = 3
mode = "data-parallel"
out = "from-file.out"
k = 9
`), 0o644))

	cfg, err := parseArgs([]string{"-config", path, "-workers", "6", "in.txt", "10"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "data-parallel", cfg.Mode)
	assert.Equal(t, "from-file.out", cfg.Out)
	assert.Equal(t, 9, cfg.K)

	cfg, err = parseArgs([]string{"--config=" + path, "in.txt", "10", "2"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2, cfg.K)

	_, err = parseArgs([]string{"-config", filepath.Join(t.TempDir(), "missing.toml"), "in.txt", "10"}, io.Discard)
	assert.ErrorIs(t, err, bulkmeans.ErrInvalidArguments)
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    location
		wantErr bool
	}{
		{in: "data/points.txt", want: location{key: "data/points.txt"}},
		{in: "s3://bucket/dir/points.txt", want: location{scheme: "s3", bucket: "bucket", key: "dir/points.txt"}},
		{in: "minio://localhost:9000/bucket/points.txt", want: location{scheme: "minio", endpoint: "localhost:9000", bucket: "bucket", key: "points.txt"}},
		{in: "s3://bucket", wantErr: true},
		{in: "minio:///bucket/key", wantErr: true},
		{in: "gs://bucket/key", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLocation(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, bulkmeans.ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "points.txt")
	require.NoError(t, os.WriteFile(input, []byte("0 0\n0 1\n10 10\n10 11\n3 3\n"), 0o644))
	out := filepath.Join(dir, "result.out.zst")
	report := filepath.Join(dir, "report.json")
	metrics := filepath.Join(dir, "bulkmeans.prom")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-out", out, "-report", report, "-metrics-file", metrics, "-workers", "2",
		input, "4", "2", "6",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), "Time Elapsed: "))
	assert.True(t, strings.HasSuffix(stdout.String(), " s\n"))

	h, err := bulkmeans.ReadResult(context.Background(), blobstore.NewLocalStore(dir), "result.out.zst")
	require.NoError(t, err)
	assert.Equal(t, 2, h.K())
	assert.Equal(t, 7, h.Len())

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"points": 4`)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "bulkmeans_runs_total")
	assert.Contains(t, string(prom), "bulkmeans_points_loaded_total 4")
}

func TestRun_OutputMatchesReference(t *testing.T) {
	const n, k, iters = 60, 3, 10
	pts := testutil.NewRNG(5).ClusteredPoints(n, k, 100, 4)

	dir := t.TempDir()
	input := filepath.Join(dir, "points.txt")
	require.NoError(t, os.WriteFile(input, testutil.Text(pts), 0o644))
	out := filepath.Join(dir, "result.out")

	for _, mode := range []string{"bsp", "data-parallel"} {
		t.Run(mode, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(context.Background(), []string{"-out", out, "-workers", "4", "-mode", mode, input, "60", "3", "10"}, io.Discard, &stderr)
			require.Equal(t, 0, code, stderr.String())

			snaps, _ := testutil.ReferenceLloyd(pts, kmeans.RandomCentroids(k, bulkmeans.DefaultSeed), iters)
			for len(snaps) < iters+1 {
				snaps = append(snaps, []point.Point{point.Sentinel, point.Sentinel, point.Sentinel})
			}

			got, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, testutil.HistoryText(snaps), string(got))
		})
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "points.txt")
	require.NoError(t, os.WriteFile(input, []byte("0 0\n0 1\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"usage", []string{input}},
		{"input exhausted", []string{"-out", filepath.Join(dir, "r.out"), input, "3"}},
		{"missing input", []string{"-out", filepath.Join(dir, "r.out"), filepath.Join(dir, "nope.txt"), "2"}},
		{"bad mode", []string{"-mode", "mpi", input, "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, 1, run(context.Background(), tt.args, io.Discard, &stderr))
			assert.NotEmpty(t, stderr.String())
		})
	}

	_, err := os.Stat(filepath.Join(dir, "r.out"))
	assert.True(t, os.IsNotExist(err))
}
