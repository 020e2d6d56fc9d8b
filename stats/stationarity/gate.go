package stationarity

import (
	"fmt"
)

// DefaultSignificance is the default test level α.
const DefaultSignificance = 0.05

// Decision is the outcome of Gate.Check.
type Decision struct {
	Stationary bool
	ADF        TestResult
	KPSS       TestResult
	Alpha      float64
}

// Reason describes why a series was rejected. It is empty when the series
// was accepted.
func (d Decision) Reason() string {
	adfFail := d.ADF.PValue > d.Alpha
	kpssFail := d.KPSS.PValue < d.Alpha
	switch {
	case adfFail && kpssFail:
		return "unit root not rejected and stationarity rejected"
	case adfFail:
		return "unit root not rejected"
	case kpssFail:
		return "stationarity rejected"
	default:
		return ""
	}
}

// Config holds the gate parameters.
type Config struct {
	Alpha      float64
	Regression Regression
	// KPSSLags is the KPSS bandwidth, AutoLags by default.
	KPSSLags int
}

// Option mutates a Config.
type Option func(*Config)

// WithSignificance sets α. Values outside (0, 1) are ignored.
func WithSignificance(alpha float64) Option {
	return func(cfg *Config) {
		if alpha > 0 && alpha < 1 {
			cfg.Alpha = alpha
		}
	}
}

// WithRegression selects the deterministic terms of both tests.
func WithRegression(r Regression) Option {
	return func(cfg *Config) {
		cfg.Regression = r
	}
}

// WithKPSSLags fixes the KPSS bandwidth. Negative values select AutoLags.
func WithKPSSLags(lags int) Option {
	return func(cfg *Config) {
		cfg.KPSSLags = max(lags, AutoLags)
	}
}

// Gate combines ADF and KPSS into a single accept/reject decision.
type Gate struct {
	cfg Config
}

// NewGate creates a Gate with α = 0.05, a constant-only regression and
// automatic KPSS bandwidth unless overridden.
func NewGate(opts ...Option) *Gate {
	cfg := Config{
		Alpha:      DefaultSignificance,
		Regression: Constant,
		KPSSLags:   AutoLags,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Gate{cfg: cfg}
}

// Config returns the gate configuration.
func (g *Gate) Config() Config {
	return g.cfg
}

// Check runs both tests on x. The series is rejected when the ADF p-value
// exceeds α (a unit root cannot be ruled out) or the KPSS p-value is below α
// (stationarity is rejected).
func (g *Gate) Check(x []float64) (Decision, error) {
	adf, err := ADF(x, g.cfg.Regression)
	if err != nil {
		return Decision{}, fmt.Errorf("stationarity gate: %w", err)
	}
	kpss, err := KPSS(x, g.cfg.Regression, g.cfg.KPSSLags)
	if err != nil {
		return Decision{}, fmt.Errorf("stationarity gate: %w", err)
	}

	alpha := g.cfg.Alpha
	return Decision{
		Stationary: !(adf.PValue > alpha || kpss.PValue < alpha),
		ADF:        adf,
		KPSS:       kpss,
		Alpha:      alpha,
	}, nil
}
