package fractal

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

// Method selects the scaling estimator.
type Method int

const (
	// MethodRS is rescaled range analysis (HurstRS).
	MethodRS Method = iota
	// MethodDFA is detrended fluctuation analysis (DFA).
	MethodDFA
)

// String returns the configuration name of m.
func (m Method) String() string {
	switch m {
	case MethodRS:
		return "rs"
	case MethodDFA:
		return "dfa"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps "rs" or "dfa" to a Method.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rs", "r/s", "hurst":
		return MethodRS, nil
	case "dfa":
		return MethodDFA, nil
	default:
		return 0, fmt.Errorf("unknown fractal method %q", name)
	}
}

// Reason explains an invalid Estimate.
type Reason string

const (
	// ReasonPoorFit marks a log-log relation that is not linear enough to
	// be read as fractal scaling.
	ReasonPoorFit Reason = "poor log-log fit"
	// ReasonNonStationary marks a series rejected by the stationarity gate
	// before estimation.
	ReasonNonStationary Reason = "non-stationary"
)

// Estimate is the aggregated outcome of an Estimator.
type Estimate struct {
	Method Method
	// Value is the median exponent of the valid trials, NaN when invalid.
	Value float64
	// RSquared is the median R² of the log-log pairs over all trials.
	RSquared    float64
	Valid       bool
	Reason      Reason
	Trials      int
	ValidTrials int
}

// Rejected returns an invalid Estimate that was never computed.
func Rejected(m Method, reason Reason) Estimate {
	return Estimate{Method: m, Value: math.NaN(), RSquared: math.NaN(), Reason: reason}
}

const (
	defaultMinWindowMs = 2.0
	defaultMaxWindowMs = 10.0
	defaultRatio       = 1.05
	defaultTrials      = 10
	defaultMinRSquared = 0.99
)

// Config holds estimator parameters.
type Config struct {
	Method Method
	// MinWindowMs and MaxWindowMs bound the window sizes in milliseconds.
	MinWindowMs float64
	MaxWindowMs float64
	// WindowRatio is the growth factor between successive window sizes.
	WindowRatio float64
	Fit         Fit
	Trials      int
	Seed        int64
	MinRSquared float64
	// Corrected applies the Anis-Lloyd-Peters correction (MethodRS).
	Corrected bool
	// Order is the DFA detrending polynomial order (MethodDFA).
	Order int
}

// Option mutates a Config.
type Option func(*Config)

// WithMethod selects the estimator.
func WithMethod(m Method) Option {
	return func(cfg *Config) {
		cfg.Method = m
	}
}

// WithWindowRangeMs sets the smallest and largest window in milliseconds.
func WithWindowRangeMs(minMs, maxMs float64) Option {
	return func(cfg *Config) {
		if minMs > 0 && maxMs > minMs {
			cfg.MinWindowMs = minMs
			cfg.MaxWindowMs = maxMs
		}
	}
}

// WithWindowRatio sets the geometric growth factor of window sizes.
func WithWindowRatio(ratio float64) Option {
	return func(cfg *Config) {
		if ratio > 1 {
			cfg.WindowRatio = ratio
		}
	}
}

// WithFit selects the line fit.
func WithFit(f Fit) Option {
	return func(cfg *Config) {
		cfg.Fit = f
	}
}

// WithTrials sets the number of independent trials.
func WithTrials(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Trials = n
		}
	}
}

// WithSeed sets the base seed; trial i uses seed+i.
func WithSeed(seed int64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithMinRSquared sets the R² acceptance threshold.
func WithMinRSquared(r2 float64) Option {
	return func(cfg *Config) {
		if r2 >= 0 && r2 <= 1 {
			cfg.MinRSquared = r2
		}
	}
}

// WithCorrection toggles the R/S small-sample correction.
func WithCorrection(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Corrected = enabled
	}
}

// WithOrder sets the DFA detrending order.
func WithOrder(order int) Option {
	return func(cfg *Config) {
		if order >= 0 {
			cfg.Order = order
		}
	}
}

// DefaultConfig returns the default estimator configuration: DFA of order 0
// over 2-10 ms windows growing by 5%, least-squares fit, 10 trials.
func DefaultConfig() Config {
	return Config{
		Method:      MethodDFA,
		MinWindowMs: defaultMinWindowMs,
		MaxWindowMs: defaultMaxWindowMs,
		WindowRatio: defaultRatio,
		Fit:         FitPoly,
		Trials:      defaultTrials,
		Seed:        1,
		MinRSquared: defaultMinRSquared,
		Corrected:   true,
	}
}

// Estimator runs repeated scaling analyses and aggregates them.
// It is safe for concurrent use.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an Estimator.
func NewEstimator(opts ...Option) *Estimator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Estimator{cfg: cfg}
}

// Config returns the estimator configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Windows returns the window sizes in samples at sampleRate.
func (e *Estimator) Windows(sampleRate float64) ([]int, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("fractal sample rate must be > 0: %f", sampleRate)
	}
	return LogarithmicN(
		core.MsToSamples(e.cfg.MinWindowMs, sampleRate),
		core.MsToSamples(e.cfg.MaxWindowMs, sampleRate),
		e.cfg.WindowRatio,
	)
}

// Analyze runs a single analysis of x over nvals, drawing any randomness
// from rng.
func (e *Estimator) Analyze(x []float64, nvals []int, rng *rand.Rand) (Analysis, error) {
	fitter := e.cfg.Fit.Fitter(rng)
	if e.cfg.Method == MethodRS {
		return HurstRS(x, nvals, e.cfg.Corrected, fitter)
	}
	return DFA(x, nvals, e.cfg.Order, fitter)
}

type trialResult struct {
	analysis Analysis
	r2       float64
	err      error
}

// Estimate runs the configured number of trials on x in parallel and
// returns the median exponent. A series no longer than the largest window
// fails with core.ErrInsufficientData. When fewer than half of the trials
// pass the R² check the Estimate is invalid with ReasonPoorFit.
func (e *Estimator) Estimate(x []float64, sampleRate float64) (Estimate, error) {
	nvals, err := e.Windows(sampleRate)
	if err != nil {
		return Estimate{}, err
	}
	if hi := nvals[len(nvals)-1]; len(x) <= hi {
		return Estimate{}, fmt.Errorf("%w: %d samples do not exceed the largest window of %d",
			core.ErrInsufficientData, len(x), hi)
	}

	results := make([]trialResult, e.cfg.Trials)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(e.cfg.Seed + int64(i)))
			a, err := e.Analyze(x, nvals, rng)
			results[i] = trialResult{analysis: a, r2: a.LogLog.RSquared(), err: err}
		}()
	}
	wg.Wait()

	var values, r2s []float64
	for i, r := range results {
		if r.err != nil {
			return Estimate{}, fmt.Errorf("%s trial %d: %w", e.cfg.Method, i, r.err)
		}
		if !math.IsNaN(r.r2) {
			r2s = append(r2s, r.r2)
		}
		if r.r2 >= e.cfg.MinRSquared && !math.IsNaN(r.analysis.Exponent) && !math.IsInf(r.analysis.Exponent, 0) {
			values = append(values, r.analysis.Exponent)
		}
	}

	est := Estimate{
		Method:      e.cfg.Method,
		Value:       math.NaN(),
		RSquared:    math.NaN(),
		Trials:      len(results),
		ValidTrials: len(values),
	}
	if len(r2s) > 0 {
		est.RSquared, _ = timestats.Median(r2s)
	}
	if 2*len(values) < len(results) {
		est.Reason = ReasonPoorFit
		return est, nil
	}

	est.Value, err = timestats.Median(values)
	if err != nil {
		return Estimate{}, err
	}
	est.Valid = true
	return est, nil
}
