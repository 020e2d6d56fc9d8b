package core

import (
	"fmt"
	"math"
)

// Signal is a mono sample sequence with its sampling metadata.
//
// Stages treat a Signal as immutable and return new Signals.
type Signal struct {
	Samples    []float64
	SampleRate float64
	// FullScale is the amplitude of a full-scale sample. Zero is treated as 1.
	FullScale float64
}

// NewSignal wraps samples with the sampling metadata of cfg.
func NewSignal(samples []float64, opts ...ProcessorOption) Signal {
	cfg := ApplyProcessorOptions(opts...)
	return Signal{
		Samples:    samples,
		SampleRate: cfg.SampleRate,
		FullScale:  cfg.FullScale,
	}
}

// Len returns the number of samples.
func (s Signal) Len() int {
	return len(s.Samples)
}

// Scale returns the effective full-scale amplitude.
func (s Signal) Scale() float64 {
	if s.FullScale <= 0 {
		return 1
	}
	return s.FullScale
}

// DurationMs returns the signal duration in milliseconds.
func (s Signal) DurationMs() float64 {
	return SamplesToMs(len(s.Samples), s.SampleRate)
}

// WithSamples returns a Signal carrying samples and the metadata of s.
func (s Signal) WithSamples(samples []float64) Signal {
	return Signal{Samples: samples, SampleRate: s.SampleRate, FullScale: s.FullScale}
}

// Clone returns a deep copy of s.
func (s Signal) Clone() Signal {
	out := make([]float64, len(s.Samples))
	copy(out, s.Samples)
	return s.WithSamples(out)
}

// SliceMs returns a copy of the samples in [startMs, endMs). The end is
// clipped to the signal length.
func (s Signal) SliceMs(startMs, endMs float64) (Signal, error) {
	if s.SampleRate <= 0 {
		return Signal{}, fmt.Errorf("slice sample rate must be > 0: %f", s.SampleRate)
	}
	if startMs < 0 || endMs <= startMs || math.IsNaN(startMs) || math.IsNaN(endMs) {
		return Signal{}, fmt.Errorf("slice range must satisfy 0 <= start < end: [%f, %f)", startMs, endMs)
	}

	start := MsToSamples(startMs, s.SampleRate)
	end := min(MsToSamples(endMs, s.SampleRate), len(s.Samples))
	if start >= end {
		return Signal{}, fmt.Errorf("%w: slice [%f, %f) ms selects no samples of %d",
			ErrInsufficientSamples, startMs, endMs, len(s.Samples))
	}

	out := make([]float64, end-start)
	copy(out, s.Samples[start:end])
	return s.WithSamples(out), nil
}
