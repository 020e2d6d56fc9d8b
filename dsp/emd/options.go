package emd

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/interp"
)

const (
	defaultMaxSiftIterations = 1000
	defaultMaxIterations     = 50000
	defaultMirrorPoints      = 2

	// Hard ceiling on extracted modes; each mode roughly halves the number
	// of extrema, so real inputs stop far below it.
	maxModesLimit = 64

	// Proto-IMF acceptance thresholds.
	defaultScaledVarThreshold = 0.001
	defaultStdThreshold       = 0.2
	defaultEnergyRatio        = 0.2

	// Residue end conditions.
	defaultRangeThreshold = 0.001
	defaultPowerThreshold = 0.005
)

// Spline selects the interpolant used for the extrema envelopes.
type Spline int

const (
	SplineNaturalCubic Spline = iota
	SplineAkima
	SplineLinear
)

// String returns the configuration name of s.
func (s Spline) String() string {
	switch s {
	case SplineNaturalCubic:
		return "cubic"
	case SplineAkima:
		return "akima"
	case SplineLinear:
		return "linear"
	default:
		return fmt.Sprintf("Spline(%d)", int(s))
	}
}

// ParseSpline maps a configuration name to a Spline.
func ParseSpline(name string) (Spline, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cubic", "natural-cubic":
		return SplineNaturalCubic, nil
	case "akima":
		return SplineAkima, nil
	case "linear":
		return SplineLinear, nil
	default:
		return 0, fmt.Errorf("unknown spline %q", name)
	}
}

func (s Spline) predictor() interp.FittablePredictor {
	switch s {
	case SplineAkima:
		return &interp.AkimaSpline{}
	case SplineLinear:
		return &interp.PiecewiseLinear{}
	default:
		return &interp.NaturalCubic{}
	}
}

// Config holds decomposition parameters.
type Config struct {
	// MaxModes caps the number of extracted IMFs (the residue is extra).
	// Zero means no cap beyond the internal limit.
	MaxModes int
	// MaxSiftIterations caps sifting per mode; the proto-IMF reached at the
	// cap is accepted.
	MaxSiftIterations int
	// MaxIterations caps sifting across the whole decomposition; exceeding
	// it fails with core.ErrDecomposition.
	MaxIterations int
	// MirrorPoints is the number of extrema reflected at each boundary.
	MirrorPoints int
	Spline       Spline

	ScaledVarThreshold float64
	StdThreshold       float64
	EnergyRatio        float64
	RangeThreshold     float64
	PowerThreshold     float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the default sifting configuration.
func DefaultConfig() Config {
	return Config{
		MaxSiftIterations:  defaultMaxSiftIterations,
		MaxIterations:      defaultMaxIterations,
		MirrorPoints:       defaultMirrorPoints,
		Spline:             SplineNaturalCubic,
		ScaledVarThreshold: defaultScaledVarThreshold,
		StdThreshold:       defaultStdThreshold,
		EnergyRatio:        defaultEnergyRatio,
		RangeThreshold:     defaultRangeThreshold,
		PowerThreshold:     defaultPowerThreshold,
	}
}

// WithMaxModes caps the number of extracted IMFs.
func WithMaxModes(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.MaxModes = n
		}
	}
}

// WithMaxSiftIterations caps sifting iterations per mode.
func WithMaxSiftIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxSiftIterations = n
		}
	}
}

// WithMaxIterations caps sifting iterations across the decomposition.
func WithMaxIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxIterations = n
		}
	}
}

// WithSpline selects the envelope interpolant.
func WithSpline(s Spline) Option {
	return func(cfg *Config) {
		cfg.Spline = s
	}
}

// WithMirrorPoints sets the number of boundary-reflected extrema.
func WithMirrorPoints(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.MirrorPoints = n
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
