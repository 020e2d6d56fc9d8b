// Package time provides time-domain summary statistics of sample series:
// level, dispersion and robust central values.
package time

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	gonumstat "gonum.org/v1/gonum/stat"
)

var errEmptyInput = errors.New("input must not be empty")

// Dispersion selects the spread statistic reported for a trend series.
type Dispersion int

const (
	// StdDev is the population standard deviation (ddof = 0).
	StdDev Dispersion = iota
	// Variance is the population variance (ddof = 0).
	Variance
)

// String returns the configuration name of d.
func (d Dispersion) String() string {
	switch d {
	case StdDev:
		return "std"
	case Variance:
		return "var"
	default:
		return fmt.Sprintf("Dispersion(%d)", int(d))
	}
}

// ParseDispersion maps "std"/"stddev" and "var"/"variance" to a Dispersion.
func ParseDispersion(name string) (Dispersion, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "std", "stddev", "std-dev":
		return StdDev, nil
	case "var", "variance":
		return Variance, nil
	default:
		return 0, fmt.Errorf("unknown dispersion %q", name)
	}
}

// Of returns the dispersion of x. Returns 0 for empty input.
func (d Dispersion) Of(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	v := gonumstat.PopVariance(x, nil)
	if v < 0 {
		// Rounding can leave a tiny negative value for constant input.
		v = 0
	}
	if d == Variance {
		return v
	}
	return math.Sqrt(v)
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// Mean returns the arithmetic mean of the signal.
func Mean(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Use Kahan summation for numerical stability.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// Median returns the median of x without modifying it.
func Median(x []float64) (float64, error) {
	if len(x) == 0 {
		return math.NaN(), errEmptyInput
	}
	return stats.Median(stats.Float64Data(x))
}

// Finite returns the NaN- and Inf-free values of x in order.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
