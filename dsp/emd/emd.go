// Package emd implements empirical mode decomposition (EMD).
//
// A series is split into intrinsic mode functions (IMFs) by repeated
// sifting: the mean of the upper and lower extrema envelopes is subtracted
// until the proto-IMF is symmetric, the IMF is removed from the residue, and
// the process repeats on what is left. Modes are ordered from the finest
// scale (index 0) to the coarsest; the final residue is appended as the last
// mode so the modes always sum back to the input.
//
// Sifting is bounded: every mode has a sift cap and the whole decomposition
// has an iteration budget, so Decompose always terminates.
package emd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// Decomposer runs empirical mode decomposition with a fixed configuration.
// It holds no mutable state and is safe for concurrent use.
type Decomposer struct {
	cfg Config
}

// New creates a Decomposer.
func New(opts ...Option) *Decomposer {
	return &Decomposer{cfg: ApplyOptions(opts...)}
}

// Config returns the decomposition configuration.
func (d *Decomposer) Config() Config {
	return d.cfg
}

// Decompose is a one-shot decomposition of series sampled at times t.
func Decompose(series, t []float64, opts ...Option) (ModeSet, error) {
	return New(opts...).Decompose(series, t)
}

// Decompose splits series, sampled at the strictly increasing times t, into
// an ordered ModeSet. series and t must have equal length (see Reconcile).
func (d *Decomposer) Decompose(series, t []float64) (ModeSet, error) {
	if len(series) != len(t) {
		return nil, fmt.Errorf("emd series and time index lengths differ: %d vs %d", len(series), len(t))
	}
	if len(series) < 3 {
		return nil, fmt.Errorf("%w: emd needs at least 3 samples, got %d", core.ErrDecomposition, len(series))
	}
	for i := 1; i < len(t); i++ {
		if !(t[i] > t[i-1]) {
			return nil, fmt.Errorf("emd time index must be strictly increasing at %d: %g <= %g", i, t[i], t[i-1])
		}
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite sample %v at %d", core.ErrDecomposition, v, i)
		}
	}

	maxModes := d.cfg.MaxModes
	if maxModes <= 0 || maxModes > maxModesLimit {
		maxModes = maxModesLimit
	}

	residue := make([]float64, len(series))
	copy(residue, series)

	budget := d.cfg.MaxIterations
	var modes ModeSet
	for len(modes) < maxModes && !d.exhausted(residue) {
		imf, err := d.sift(residue, t, &budget)
		if err != nil {
			return nil, fmt.Errorf("mode %d: %w", len(modes), err)
		}
		modes = append(modes, imf)
		floats.Sub(residue, imf)
	}

	return append(modes, residue), nil
}

// exhausted reports whether the residue carries no further oscillation worth
// extracting: it is (nearly) monotonic, flat, or negligible.
func (d *Decomposer) exhausted(residue []float64) bool {
	maxIdx, minIdx := extrema(residue)
	if len(maxIdx)+len(minIdx) < 3 {
		return true
	}
	if floats.Max(residue)-floats.Min(residue) < d.cfg.RangeThreshold {
		return true
	}
	return floats.Norm(residue, 1) < d.cfg.PowerThreshold
}

// sift extracts one IMF from x. budget is the remaining decomposition-wide
// iteration allowance.
func (d *Decomposer) sift(x, t []float64, budget *int) ([]float64, error) {
	h := make([]float64, len(x))
	copy(h, x)
	next := make([]float64, len(x))
	upper := make([]float64, len(x))
	lower := make([]float64, len(x))

	for iter := 0; iter < d.cfg.MaxSiftIterations; iter++ {
		if *budget <= 0 {
			return nil, fmt.Errorf("%w: sifting budget of %d iterations exhausted",
				core.ErrDecomposition, d.cfg.MaxIterations)
		}
		*budget--

		maxIdx, minIdx := extrema(h)
		if len(maxIdx) == 0 || len(minIdx) == 0 || len(maxIdx)+len(minIdx) < 3 {
			// Nothing left to sift: h is the final oscillation.
			return h, nil
		}

		d.envelope(upper, t, h, maxIdx)
		d.envelope(lower, t, h, minIdx)
		for i := range next {
			next[i] = h[i] - 0.5*(upper[i]+lower[i])
		}

		done := d.isIMF(next, h, maxIdx, minIdx)
		h, next = next, h
		if done {
			return h, nil
		}
	}

	return h, nil
}

// isIMF applies the proto-IMF acceptance tests to the sifted candidate next,
// produced from prev whose extrema are maxIdx/minIdx.
func (d *Decomposer) isIMF(next, prev []float64, maxIdx, minIdx []int) bool {
	for _, i := range maxIdx {
		if prev[i] < 0 {
			return false
		}
	}
	for _, i := range minIdx {
		if prev[i] > 0 {
			return false
		}
	}

	if floats.Dot(next, next) < 1e-10 {
		return false
	}

	var diffSq, std float64
	for i := range next {
		diff := next[i] - prev[i]
		diffSq += diff * diff
		if next[i] == 0 {
			std = math.Inf(1)
		} else {
			r := diff / next[i]
			std += r * r
		}
	}

	if span := floats.Max(prev) - floats.Min(prev); span > 0 && diffSq/span < d.cfg.ScaledVarThreshold {
		return true
	}
	if std < d.cfg.StdThreshold {
		return true
	}
	energy := floats.Dot(prev, prev)
	return energy > 0 && diffSq/energy < d.cfg.EnergyRatio
}

// envelope writes into dst the interpolant through the extrema of h at idx,
// extended with extrema mirrored about both boundaries.
func (d *Decomposer) envelope(dst, t, h []float64, idx []int) {
	xs, ys := mirroredKnots(t, h, idx, d.cfg.MirrorPoints)

	switch {
	case len(xs) == 1:
		for i := range dst {
			dst[i] = ys[0]
		}
		return
	case len(xs) < 4:
		// Too few knots for a cubic interpolant.
		fillPredicted(dst, t, SplineLinear, xs, ys)
	default:
		fillPredicted(dst, t, d.cfg.Spline, xs, ys)
	}
}

func fillPredicted(dst, t []float64, kind Spline, xs, ys []float64) {
	p := kind.predictor()
	if err := p.Fit(xs, ys); err != nil {
		// Fitting only fails for degenerate knots; fall back to linear.
		p = SplineLinear.predictor()
		_ = p.Fit(xs, ys)
	}
	for i, ti := range t {
		dst[i] = p.Predict(ti)
	}
}

// mirroredKnots returns strictly increasing knot positions and values made of
// the extrema at idx plus up to n extrema reflected about each end of t.
func mirroredKnots(t, h []float64, idx []int, n int) (xs, ys []float64) {
	n = min(n, len(idx))
	xs = make([]float64, 0, len(idx)+2*n)
	ys = make([]float64, 0, len(idx)+2*n)

	first, last := t[0], t[len(t)-1]
	for k := n - 1; k >= 0; k-- {
		x := 2*first - t[idx[k]]
		if x < t[idx[0]] && (len(xs) == 0 || x > xs[len(xs)-1]) {
			xs = append(xs, x)
			ys = append(ys, h[idx[k]])
		}
	}
	for _, i := range idx {
		xs = append(xs, t[i])
		ys = append(ys, h[i])
	}
	top := t[idx[len(idx)-1]]
	for k := 0; k < n; k++ {
		i := idx[len(idx)-1-k]
		x := 2*last - t[i]
		if x > top && x > xs[len(xs)-1] {
			xs = append(xs, x)
			ys = append(ys, h[i])
		}
	}
	return xs, ys
}

// extrema returns the indices of interior local maxima and minima of x.
// A flat run that peaks or dips is reported once, at its first sample; a
// flat run inside a monotonic stretch is not an extremum.
func extrema(x []float64) (maxIdx, minIdx []int) {
	n := len(x)
	for i := 1; i < n-1; i++ {
		if x[i] == x[i-1] {
			continue
		}
		j := i + 1
		for j < n && x[j] == x[i] {
			j++
		}
		if j == n {
			break
		}
		switch {
		case x[i] > x[i-1] && x[i] > x[j]:
			maxIdx = append(maxIdx, i)
		case x[i] < x[i-1] && x[i] < x[j]:
			minIdx = append(minIdx, i)
		}
	}
	return maxIdx, minIdx
}
