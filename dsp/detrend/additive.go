package detrend

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/dsp/signal"
)

// AdditiveResult holds the output of Additive. All series have the length of
// the reconciled time index.
type AdditiveResult struct {
	Residual []float64
	// Periodic is the band between residual and trend. It is nil when the
	// policy leaves no modes in between.
	Periodic []float64
	Trend    []float64
	Modes    emd.ModeSet
	// Dispersion is the spread of Trend, measured after re-normalization
	// when enabled.
	Dispersion float64
}

// Additive normalizes series to [-1, 1], decomposes it into empirical modes
// over a millisecond time index at sampleRate and assembles residual,
// periodic band and additive trend according to the configured Policy.
//
// A decomposition with fewer modes than the policy requires fails with
// core.ErrDecomposition.
func Additive(series []float64, sampleRate float64, opts ...AdditiveOption) (AdditiveResult, error) {
	cfg := applyAdditiveOptions(opts...)
	if sampleRate <= 0 {
		return AdditiveResult{}, fmt.Errorf("additive trend: sample rate must be > 0: %v", sampleRate)
	}

	norm, err := signal.NormalizeAmplitude(series)
	if err != nil {
		return AdditiveResult{}, fmt.Errorf("additive trend: %w", err)
	}

	norm, t := emd.Reconcile(norm, emd.TimeIndex(len(norm), sampleRate))
	modes, err := emd.Decompose(norm, t, cfg.EMD...)
	if err != nil {
		return AdditiveResult{}, fmt.Errorf("additive trend: %w", err)
	}

	p := cfg.Policy
	if modes.Len() < p.MinModes() {
		return AdditiveResult{}, fmt.Errorf("%w: policy %s needs %d modes, decomposition produced %d",
			core.ErrDecomposition, p, p.MinModes(), modes.Len())
	}

	res := AdditiveResult{Modes: modes}
	if res.Residual, err = modes.Sum(0, p.ResidualEnd()); err != nil {
		return AdditiveResult{}, err
	}
	if p.TrendStart() > p.ResidualEnd() {
		if res.Periodic, err = modes.Sum(p.ResidualEnd(), p.TrendStart()); err != nil {
			return AdditiveResult{}, err
		}
	}
	if res.Trend, err = modes.Sum(p.TrendStart(), modes.Len()); err != nil {
		return AdditiveResult{}, err
	}

	res.Dispersion, err = trendDispersion(res.Trend, cfg)
	if err != nil {
		return AdditiveResult{}, err
	}
	return res, nil
}

func trendDispersion(trend []float64, cfg AdditiveConfig) (float64, error) {
	if !cfg.NormalizeTrend {
		return cfg.Dispersion.Of(trend), nil
	}
	norm, err := signal.NormalizeAmplitude(trend)
	switch {
	case errors.Is(err, core.ErrDegenerateSignal):
		// A flat trend has no spread to normalize.
		return 0, nil
	case err != nil:
		return 0, err
	}
	return cfg.Dispersion.Of(norm), nil
}
