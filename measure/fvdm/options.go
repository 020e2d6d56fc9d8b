package fvdm

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fvdm/dsp/detrend"
	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/measure/fractal"
	"github.com/cwbudde/algo-fvdm/measure/level"
	"github.com/cwbudde/algo-fvdm/stats/stationarity"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

// Estimator selects which scaling estimators characterise the residual.
type Estimator int

const (
	// EstimatorDFA reports detrended fluctuation analysis as Stability.
	EstimatorDFA Estimator = iota
	// EstimatorRS reports rescaled range analysis as Stability.
	EstimatorRS
	// EstimatorBoth reports R/S as Stability and DFA as SecondaryStability.
	EstimatorBoth
)

// String returns the configuration name of e.
func (e Estimator) String() string {
	switch e {
	case EstimatorDFA:
		return "dfa"
	case EstimatorRS:
		return "rs"
	case EstimatorBoth:
		return "both"
	default:
		return fmt.Sprintf("Estimator(%d)", int(e))
	}
}

// ParseEstimator maps "dfa", "rs" or "both" to an Estimator.
func ParseEstimator(name string) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dfa":
		return EstimatorDFA, nil
	case "rs", "r/s":
		return EstimatorRS, nil
	case "both":
		return EstimatorBoth, nil
	default:
		return 0, fmt.Errorf("unknown estimator %q", name)
	}
}

// methods returns the fractal methods in report order.
func (e Estimator) methods() []fractal.Method {
	switch e {
	case EstimatorRS:
		return []fractal.Method{fractal.MethodRS}
	case EstimatorBoth:
		return []fractal.Method{fractal.MethodRS, fractal.MethodDFA}
	default:
		return []fractal.Method{fractal.MethodDFA}
	}
}

// DebugHook receives every intermediate series. It must not retain or
// modify the slice.
type DebugHook func(stage Stage, series []float64)

// Config holds the pipeline configuration.
type Config struct {
	// WindowMs and ShiftMs are the multiplicative trend window geometry.
	WindowMs float64
	ShiftMs  float64
	// SampleRate overrides the signal rate for the mode decomposition time
	// index and the fractal window sizes. Zero uses the signal rate.
	SampleRate   float64
	Significance float64
	Policy       detrend.Policy
	Estimator    Estimator
	// Gate runs the stationarity gate before estimation.
	Gate           bool
	Dispersion     timestats.Dispersion
	NormalizeTrend bool
	Trials         int
	Seed           int64
	Fit            fractal.Fit
	Spline         emd.Spline
	Level          level.Func
	DebugHook      DebugHook
	Logger         logrus.FieldLogger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the default pipeline: 25/10 ms level windows,
// policy A, DFA over 10 trials with a least-squares fit, no stationarity
// gate, standard deviations, normalized trend.
func DefaultConfig() Config {
	return Config{
		WindowMs:       25,
		ShiftMs:        10,
		Significance:   stationarity.DefaultSignificance,
		Policy:         detrend.PolicyA,
		Estimator:      EstimatorDFA,
		Dispersion:     timestats.StdDev,
		NormalizeTrend: true,
		Trials:         10,
		Seed:           1,
		Fit:            fractal.FitPoly,
		Spline:         emd.SplineNaturalCubic,
	}
}

// WithWindow sets the multiplicative trend window length and shift in ms.
func WithWindow(lengthMs, shiftMs float64) Option {
	return func(cfg *Config) {
		if lengthMs > 0 {
			cfg.WindowMs = lengthMs
		}
		if shiftMs > 0 {
			cfg.ShiftMs = shiftMs
		}
	}
}

// WithSampleRate overrides the sample rate used after trend removal.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithSignificance sets the stationarity test level α.
func WithSignificance(alpha float64) Option {
	return func(cfg *Config) {
		if alpha > 0 && alpha < 1 {
			cfg.Significance = alpha
		}
	}
}

// WithPolicy selects the mode assembly policy.
func WithPolicy(p detrend.Policy) Option {
	return func(cfg *Config) {
		cfg.Policy = p
	}
}

// WithEstimator selects the scaling estimators.
func WithEstimator(e Estimator) Option {
	return func(cfg *Config) {
		cfg.Estimator = e
	}
}

// WithStationarityGate toggles the stationarity gate.
func WithStationarityGate(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Gate = enabled
	}
}

// WithDispersion selects the spread statistic of both trends.
func WithDispersion(d timestats.Dispersion) Option {
	return func(cfg *Config) {
		cfg.Dispersion = d
	}
}

// WithTrendNormalization toggles re-normalizing the additive trend before
// measuring its spread.
func WithTrendNormalization(enabled bool) Option {
	return func(cfg *Config) {
		cfg.NormalizeTrend = enabled
	}
}

// WithTrials sets the number of estimation trials.
func WithTrials(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Trials = n
		}
	}
}

// WithSeed sets the base seed of the estimation trials.
func WithSeed(seed int64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithFit selects the log-log line fit.
func WithFit(f fractal.Fit) Option {
	return func(cfg *Config) {
		cfg.Fit = f
	}
}

// WithSpline selects the mode decomposition envelope interpolant.
func WithSpline(s emd.Spline) Option {
	return func(cfg *Config) {
		cfg.Spline = s
	}
}

// WithLevelFunc replaces the dBFS level measurement.
func WithLevelFunc(fn level.Func) Option {
	return func(cfg *Config) {
		cfg.Level = fn
	}
}

// WithDebugHook installs a hook receiving every intermediate series.
func WithDebugHook(hook DebugHook) Option {
	return func(cfg *Config) {
		cfg.DebugHook = hook
	}
}

// WithLogger sets the logger for stage diagnostics. Nil keeps the pipeline
// silent.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *Config) {
		cfg.Logger = log
	}
}

// ApplyOptions applies opts to the default configuration.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
