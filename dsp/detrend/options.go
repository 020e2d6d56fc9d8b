package detrend

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/measure/level"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

const (
	defaultWindowMs = 25.0
	defaultShiftMs  = 10.0
)

// Policy selects which modes of the decomposition form the residual and the
// additive trend.
type Policy int

const (
	// PolicyA takes mode 0 as residual, modes 1-4 as the periodic band and
	// modes 5 and above as trend.
	PolicyA Policy = iota
	// PolicyB takes modes 0-5 as residual and modes 6 and above as trend.
	PolicyB
)

// String returns the configuration name of p.
func (p Policy) String() string {
	switch p {
	case PolicyA:
		return "A"
	case PolicyB:
		return "B"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "A" or "B" (case-insensitive) to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "A":
		return PolicyA, nil
	case "B":
		return PolicyB, nil
	default:
		return 0, fmt.Errorf("unknown decomposition policy %q", name)
	}
}

// ResidualEnd is the exclusive index of the last residual mode.
func (p Policy) ResidualEnd() int {
	if p == PolicyB {
		return 6
	}
	return 1
}

// TrendStart is the index of the first additive-trend mode.
func (p Policy) TrendStart() int {
	if p == PolicyB {
		return 6
	}
	return 5
}

// MinModes is the number of modes (residue included) the policy needs so
// that the trend holds at least one mode.
func (p Policy) MinModes() int {
	return p.TrendStart() + 1
}

// MultiplicativeConfig configures Multiplicative.
type MultiplicativeConfig struct {
	WindowMs   float64
	ShiftMs    float64
	Level      level.Func
	Dispersion timestats.Dispersion
}

// MultiplicativeOption mutates a MultiplicativeConfig.
type MultiplicativeOption func(*MultiplicativeConfig)

// WithWindow sets the window length and shift in milliseconds.
func WithWindow(lengthMs, shiftMs float64) MultiplicativeOption {
	return func(cfg *MultiplicativeConfig) {
		if lengthMs > 0 {
			cfg.WindowMs = lengthMs
		}
		if shiftMs > 0 {
			cfg.ShiftMs = shiftMs
		}
	}
}

// WithLevelFunc replaces the dBFS level measurement. Nil keeps the default,
// which measures against the signal's full scale.
func WithLevelFunc(fn level.Func) MultiplicativeOption {
	return func(cfg *MultiplicativeConfig) {
		cfg.Level = fn
	}
}

// WithLevelDispersion selects the spread statistic of the window levels.
func WithLevelDispersion(d timestats.Dispersion) MultiplicativeOption {
	return func(cfg *MultiplicativeConfig) {
		cfg.Dispersion = d
	}
}

func applyMultiplicativeOptions(opts ...MultiplicativeOption) MultiplicativeConfig {
	cfg := MultiplicativeConfig{
		WindowMs:   defaultWindowMs,
		ShiftMs:    defaultShiftMs,
		Dispersion: timestats.StdDev,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// AdditiveConfig configures Additive.
type AdditiveConfig struct {
	Policy Policy
	// NormalizeTrend re-normalizes the trend to [-1, 1] before measuring
	// its dispersion, so the value does not depend on recording volume.
	NormalizeTrend bool
	Dispersion     timestats.Dispersion
	EMD            []emd.Option
}

// AdditiveOption mutates an AdditiveConfig.
type AdditiveOption func(*AdditiveConfig)

// WithPolicy selects the mode assembly policy.
func WithPolicy(p Policy) AdditiveOption {
	return func(cfg *AdditiveConfig) {
		cfg.Policy = p
	}
}

// WithTrendNormalization toggles trend re-normalization.
func WithTrendNormalization(enabled bool) AdditiveOption {
	return func(cfg *AdditiveConfig) {
		cfg.NormalizeTrend = enabled
	}
}

// WithTrendDispersion selects the spread statistic of the additive trend.
func WithTrendDispersion(d timestats.Dispersion) AdditiveOption {
	return func(cfg *AdditiveConfig) {
		cfg.Dispersion = d
	}
}

// WithEMDOptions passes options through to the mode decomposition.
func WithEMDOptions(opts ...emd.Option) AdditiveOption {
	return func(cfg *AdditiveConfig) {
		cfg.EMD = append(cfg.EMD, opts...)
	}
}

func applyAdditiveOptions(opts ...AdditiveOption) AdditiveConfig {
	cfg := AdditiveConfig{
		Policy:         PolicyA,
		NormalizeTrend: true,
		Dispersion:     timestats.StdDev,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
