package emd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// ModeSet is an ordered set of equal-length modes, finest scale first. The
// last mode is the decomposition residue.
type ModeSet [][]float64

// Len returns the number of modes, residue included.
func (m ModeSet) Len() int {
	return len(m)
}

// Samples returns the common mode length.
func (m ModeSet) Samples() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Sum returns the element-wise sum of modes [from, to). An empty range
// yields a zero series of the mode length.
func (m ModeSet) Sum(from, to int) ([]float64, error) {
	if from < 0 || to > len(m) || from > to {
		return nil, fmt.Errorf("mode range [%d, %d) outside %d modes", from, to, len(m))
	}
	out := make([]float64, m.Samples())
	for _, mode := range m[from:to] {
		vecmath.AddBlockInPlace(out, mode)
	}
	return out, nil
}

// Reconstruct returns the sum of all modes, which equals the decomposed
// input up to rounding.
func (m ModeSet) Reconstruct() []float64 {
	out, _ := m.Sum(0, len(m))
	return out
}

// TimeIndex returns the millisecond time index for n samples at sampleRate,
// built like a half-open range [0, n/sampleRate*1000) with step
// 1000/sampleRate. Floating-point rounding can make it one element longer
// than n; see Reconcile.
func TimeIndex(n int, sampleRate float64) []float64 {
	if n <= 0 || sampleRate <= 0 {
		return nil
	}
	stop := float64(n) / sampleRate * 1000
	step := 1 / (sampleRate / 1000)
	count := int(math.Ceil(stop / step))
	t := make([]float64, count)
	for i := range t {
		t[i] = float64(i) * step
	}
	return t
}

// Reconcile truncates the longer of series and t so both have the length of
// the shorter one. The returned slices alias the inputs.
func Reconcile(series, t []float64) ([]float64, []float64) {
	n := min(len(series), len(t))
	return series[:n], t[:n]
}
