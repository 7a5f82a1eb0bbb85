// Package stats computes posterior point estimates and equal-tailed credible
// intervals over retained MCMC samples.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/dravlex/internal/model"
)

// ErrInsufficientSamples is returned when a statistic is requested over an
// empty series.
var ErrInsufficientSamples = errors.New("insufficient samples")

// Interval bounds of the credible interval.
const (
	LowerQuantile = 0.025
	UpperQuantile = 0.975
)

// Summarize computes mean, median, sample standard deviation and the
// [2.5%, 97.5%] percentile interval of values. The input is not modified.
func Summarize(parameter string, values []float64) (model.Summary, error) {
	n := len(values)
	if n == 0 {
		return model.Summary{}, fmt.Errorf("%s: %w (0 post-burn-in samples)", parameter, ErrInsufficientSamples)
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return model.Summary{}, fmt.Errorf("%s: sample %d is NaN", parameter, i+1)
		}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := meanStdDev(values)
	lower := quantileSorted(sorted, LowerQuantile)
	upper := quantileSorted(sorted, UpperQuantile)

	return model.Summary{
		Parameter: parameter,
		Samples:   n,
		Mean:      mean,
		Median:    quantileSorted(sorted, 0.5),
		StdDev:    std,
		HPDLower:  lower,
		HPDUpper:  upper,
		HPDWidth:  upper - lower,
	}, nil
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientSamples
	}
	m, _ := meanStdDev(values)
	return m, nil
}

// Quantile returns the p-quantile of values using linear interpolation
// between closest ranks: with h = (n-1)p, the result is
// x[floor(h)] + (h - floor(h)) * (x[floor(h)+1] - x[floor(h)]).
func Quantile(p float64, values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientSamples
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("quantile %v out of [0,1]", p)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p), nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// meanStdDev shifts the series by its first value before handing it to gonum,
// so a constant series has a mean exactly equal to its value and zero spread.
// A single sample has zero standard deviation.
func meanStdDev(values []float64) (mean, std float64) {
	shift := values[0]
	shifted := make([]float64, len(values))
	copy(shifted, values)
	floats.AddConst(-shift, shifted)

	mean = shift + stat.Mean(shifted, nil)
	if len(values) > 1 {
		std = stat.StdDev(shifted, nil)
	}
	return mean, std
}

// MinMax returns the smallest and largest value.
func MinMax(values []float64) (min, max float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrInsufficientSamples
	}
	return floats.Min(values), floats.Max(values), nil
}
