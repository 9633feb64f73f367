// Package stats wraps the gonum routines the forecasting engine needs so the
// rest of the codebase never deals with gonum's weighted-data signatures directly.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CV returns the coefficient of variation (stddev / mean). A zero or negative
// mean yields 0 so callers can treat it as "no usable volatility signal".
func CV(data []float64) float64 {
	m := Mean(data)
	if m <= 0 {
		return 0
	}
	return StdDev(data) / m
}

// Quantile returns the p-quantile (0..1) of data using linear interpolation.
// The input is copied and sorted; empty input yields 0.
func Quantile(p float64, data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// EWMA computes an exponentially weighted moving average over data (oldest
// first) with the standard span-based smoothing factor alpha = 2/(span+1).
func EWMA(data []float64, span int) float64 {
	if len(data) == 0 {
		return 0
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1.0)
	ewma := data[0]
	for _, v := range data[1:] {
		ewma = alpha*v + (1-alpha)*ewma
	}
	return ewma
}

// WeightedMovingAverage computes a linearly weighted average where the most
// recent value (last element) carries the largest weight.
func WeightedMovingAverage(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum, weightSum float64
	for i, v := range data {
		w := float64(i + 1)
		sum += v * w
		weightSum += w
	}
	return sum / weightSum
}

// Min returns the smallest value in data, or 0 for empty input.
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := data[0]
	for _, v := range data[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Max returns the largest value in data, or 0 for empty input.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := data[0]
	for _, v := range data[1:] {
		m = math.Max(m, v)
	}
	return m
}
