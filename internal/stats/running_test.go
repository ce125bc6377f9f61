package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningEmpty(t *testing.T) {
	t.Parallel()

	var r Running
	assert.Equal(t, 0, r.N())
	assert.Equal(t, 0.0, r.Avg())
	assert.Equal(t, 0.0, r.Variance())
	assert.Equal(t, 0.0, r.Stdev())
	assert.Equal(t, 0.0, r.Sum())
	assert.Equal(t, 0.0, r.Min())
	assert.Equal(t, 0.0, r.Max())
	assert.Equal(t, 0.0, r.LastValue())
}

func TestRunningSingleValue(t *testing.T) {
	t.Parallel()

	r := NewRunning(0.7)
	assert.Equal(t, 1, r.N())
	assert.InDelta(t, 0.7, r.Avg(), 1e-12)
	assert.Equal(t, 0.0, r.Variance())
	assert.InDelta(t, 0.7, r.Min(), 1e-12)
	assert.InDelta(t, 0.7, r.Max(), 1e-12)
	assert.InDelta(t, 0.7, r.LastValue(), 1e-12)
}

func TestRunningMatchesDirectComputation(t *testing.T) {
	t.Parallel()

	values := []float64{0.9, 0.85, 0.6, 0.95, 0.7, 0.1, 0.33}

	var r Running
	for _, v := range values {
		r.AddValue(v)
	}

	var sum float64
	lo, hi := values[0], values[0]
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	var sumSqDev float64
	for _, v := range values {
		sumSqDev += (v - mean) * (v - mean)
	}
	variance := sumSqDev / float64(len(values)-1)

	require.Equal(t, len(values), r.N())
	assert.InDelta(t, mean, r.Avg(), 1e-12)
	assert.InDelta(t, sum, r.Sum(), 1e-12)
	assert.InDelta(t, variance, r.Variance(), 1e-12)
	assert.InDelta(t, math.Sqrt(variance), r.Stdev(), 1e-12)
	assert.Equal(t, lo, r.Min())
	assert.Equal(t, hi, r.Max())
	assert.Equal(t, values[len(values)-1], r.LastValue())
}

func TestRunningCopyIsIndependent(t *testing.T) {
	t.Parallel()

	r := NewRunning(0.5)
	snapshot := r.Copy()

	r.AddValue(0.9)

	assert.Equal(t, 1, snapshot.N())
	assert.InDelta(t, 0.5, snapshot.Avg(), 1e-12)
	assert.Equal(t, 2, r.N())
}
