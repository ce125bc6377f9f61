// Package stats provides streaming statistics over scalar values without
// retaining history.
package stats

import (
	"fmt"
	"math"
)

// Running accumulates mean, variance, min, max and sum over a stream of
// float64 values using Welford's online algorithm. The zero value is an
// empty accumulator ready for use. Running has value semantics: a plain
// copy is an independent snapshot.
type Running struct {
	lastValue float64
	sum       float64
	sumSqDev  float64
	count     int
	minVal    float64
	maxVal    float64
	avg       float64
}

// NewRunning returns an accumulator seeded with an initial value.
func NewRunning(value float64) Running {
	var r Running
	r.AddValue(value)
	return r
}

// AddValue folds one observation into the accumulator.
func (r *Running) AddValue(value float64) {
	r.lastValue = value
	r.count++

	if r.count == 1 {
		r.minVal = value
	}

	prevAvg := r.avg
	r.sum += value
	r.avg += (value - prevAvg) / float64(r.count)
	r.sumSqDev += (value - prevAvg) * (value - r.avg)

	if value < r.minVal {
		r.minVal = value
	}
	if value > r.maxVal {
		r.maxVal = value
	}
}

// Copy returns an independent snapshot of the accumulator.
func (r *Running) Copy() Running {
	return *r
}

// N returns the number of observations folded in so far.
func (r *Running) N() int { return r.count }

// LastValue returns the most recently added observation, or 0 if empty.
func (r *Running) LastValue() float64 { return r.lastValue }

// Sum returns the sum of all observations.
func (r *Running) Sum() float64 { return r.sum }

// Avg returns the running mean, or 0 if empty.
func (r *Running) Avg() float64 { return r.avg }

// Min returns the smallest observation seen, or 0 if empty.
func (r *Running) Min() float64 { return r.minVal }

// Max returns the largest observation seen, or 0 if empty.
func (r *Running) Max() float64 { return r.maxVal }

// Variance returns the sample variance (n-1 denominator), or 0 for fewer
// than two observations.
func (r *Running) Variance() float64 {
	if r.count > 1 {
		return r.sumSqDev / float64(r.count-1)
	}
	return 0.0
}

// Stdev returns the sample standard deviation.
func (r *Running) Stdev() float64 {
	return math.Sqrt(r.Variance())
}

// String renders the accumulator as "lo|avg|hi  Cnt: n" for debug logs.
func (r *Running) String() string {
	return fmt.Sprintf("%.4g|%.4g|%.4g   Cnt: %d", r.avg-r.Stdev(), r.avg, r.avg+r.Stdev(), r.count)
}
