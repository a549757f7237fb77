package testutil

import (
	"testing"

	"github.com/hupe1980/bulkmeans/internal/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridPoints(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.GridPoints(50, 10)
	require.Len(t, pts, 50)
	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.Less(t, p.X, 10.0)
		assert.Equal(t, p.Y, float64(int(p.Y)))
	}

	rng.Reset()
	assert.Equal(t, pts, rng.GridPoints(50, 10))
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestClusteredPoints(t *testing.T) {
	pts := NewRNG(1).ClusteredPoints(40, 4, 100, 2)
	require.Len(t, pts, 40)
	for _, p := range pts {
		assert.Equal(t, p.X, float64(int(p.X)))
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "0 1.5\n-2 3\n", string(Text([]point.Point{{X: 0, Y: 1.5}, {X: -2, Y: 3}})))
}

func TestHistoryText(t *testing.T) {
	got := HistoryText([][]point.Point{{{X: 1, Y: 2}}, {{X: 3, Y: 4}}})
	assert.Equal(t, "0 1 2\n1 3 4\n", got)
}

func TestReferenceLloyd(t *testing.T) {
	pts := []point.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 10, Y: 10}, {X: 10, Y: 11}}
	initial := []point.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 100, Y: 100}}

	snaps, converged := ReferenceLloyd(pts, initial, 10)
	assert.True(t, converged)
	require.Len(t, snaps, 3)
	assert.Equal(t, initial, snaps[0])
	assert.Equal(t, []point.Point{{X: 0, Y: 0.5}, {X: 10, Y: 10.5}, {X: 100, Y: 100}}, snaps[2])

	snaps, converged = ReferenceLloyd(pts, initial, 1)
	assert.False(t, converged)
	assert.Len(t, snaps, 2)
}
