package detrend

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/window"
	"github.com/cwbudde/algo-fvdm/measure/level"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

// MultiplicativeResult holds the output of Multiplicative.
type MultiplicativeResult struct {
	// Detrended has length L + (k-1)*S for k full windows of L samples
	// advanced by S samples.
	Detrended core.Signal
	// Levels is the level of every window before adjustment, in dB.
	// Silent windows report -Inf.
	Levels []float64
	// Dispersion is the spread of the finite window levels.
	Dispersion float64
	// Window and Shift are the frame geometry in samples.
	Window int
	Shift  int
}

// Multiplicative removes the multiplicative (volume) trend of sig.
//
// Every window is gained so that its level matches the level of the whole
// signal. The first window contributes all of its samples, each later window
// only its last shift samples, so overlapping regions take the most recent
// window's gain. Samples after the last full window are dropped.
func Multiplicative(sig core.Signal, opts ...MultiplicativeOption) (MultiplicativeResult, error) {
	cfg := applyMultiplicativeOptions(opts...)

	length := core.MsToSamples(cfg.WindowMs, sig.SampleRate)
	shift := core.MsToSamples(cfg.ShiftMs, sig.SampleRate)
	frames, err := window.Frames(sig.Len(), length, shift)
	if err != nil {
		return MultiplicativeResult{}, fmt.Errorf("multiplicative trend: %w", err)
	}

	levelOf := cfg.Level
	if levelOf == nil {
		levelOf = level.ForSignal(sig)
	}

	target := levelOf(sig.Samples)
	if math.IsInf(target, 0) || math.IsNaN(target) {
		return MultiplicativeResult{}, fmt.Errorf("%w: signal level is %v", core.ErrDegenerateSignal, target)
	}

	fullScale := sig.Scale()
	out := make([]float64, window.Covered(sig.Len(), length, shift))
	gained := make([]float64, length)
	levels := make([]float64, len(frames))

	for i, f := range frames {
		src := sig.Samples[f.Start:f.End()]
		levels[i] = levelOf(src)
		level.ApplyGain(gained, src, level.GainTo(target, levels[i]), fullScale)

		start, end := f.Fresh()
		copy(out[start:end], gained[start-f.Start:end-f.Start])
	}

	return MultiplicativeResult{
		Detrended:  sig.WithSamples(out),
		Levels:     levels,
		Dispersion: cfg.Dispersion.Of(timestats.Finite(levels)),
		Window:     length,
		Shift:      shift,
	}, nil
}
