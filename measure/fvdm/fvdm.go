package fvdm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/detrend"
	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/measure/fractal"
	"github.com/cwbudde/algo-fvdm/stats/stationarity"
)

// Stage identifies an intermediate series passed to the DebugHook.
type Stage int

const (
	// StagePreTrend is the (segmented) input before trend removal.
	StagePreTrend Stage = iota
	// StageMultiplicativeTrend is the per-window level sequence in dB.
	StageMultiplicativeTrend
	// StageResidual is the fine-scale residual that is characterised.
	StageResidual
	// StagePeriodic is the band between residual and trend, when the
	// policy has one.
	StagePeriodic
	// StageAdditiveTrend is the slow additive trend.
	StageAdditiveTrend
)

// String returns a short stage name.
func (s Stage) String() string {
	switch s {
	case StagePreTrend:
		return "pre-trend"
	case StageMultiplicativeTrend:
		return "multiplicative-trend"
	case StageResidual:
		return "residual"
	case StagePeriodic:
		return "periodic"
	case StageAdditiveTrend:
		return "additive-trend"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Segment selects the vowel as a millisecond range [StartMs, EndMs) of the
// input signal.
type Segment struct {
	StartMs float64
	EndMs   float64
}

// StabilityResult is the characterisation of a residual.
type StabilityResult struct {
	// Stability is the primary scaling estimate: DFA, or R/S for
	// EstimatorRS and EstimatorBoth.
	Stability fractal.Estimate
	// SecondaryStability is the DFA estimate under EstimatorBoth, nil
	// otherwise.
	SecondaryStability *fractal.Estimate
	// Stationarity is the gate decision, nil when the gate is disabled.
	Stationarity *stationarity.Decision
}

// Result is the full feature record of one vowel.
type Result struct {
	StabilityResult
	AdditiveVariance       float64
	MultiplicativeVariance float64
	// Samples is the residual length; Modes the number of extracted modes
	// including the decomposition residue.
	Samples int
	Modes   int
}

// Extractor runs the feature pipeline. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	cfg        Config
	gate       *stationarity.Gate
	estimators []*fractal.Estimator
	log        logrus.FieldLogger
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	cfg := ApplyOptions(opts...)

	ex := &Extractor{
		cfg:  cfg,
		gate: stationarity.NewGate(stationarity.WithSignificance(cfg.Significance)),
		log:  cfg.Logger,
	}
	if ex.log == nil {
		ex.log = discardLogger()
	}
	for _, m := range cfg.Estimator.methods() {
		ex.estimators = append(ex.estimators, fractal.NewEstimator(
			fractal.WithMethod(m),
			fractal.WithFit(cfg.Fit),
			fractal.WithTrials(cfg.Trials),
			fractal.WithSeed(cfg.Seed),
		))
	}
	return ex
}

// Config returns the pipeline configuration.
func (ex *Extractor) Config() Config {
	return ex.cfg
}

// Extract computes the features of sig, restricted to seg when non-nil.
//
// Any stage failure aborts the extraction and is returned wrapped with the
// stage name; no partial Result is produced. An invalid Stability is not an
// error. ctx is checked between stages.
func (ex *Extractor) Extract(ctx context.Context, sig core.Signal, seg *Segment) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if seg != nil {
		var err error
		sig, err = sig.SliceMs(seg.StartMs, seg.EndMs)
		if err != nil {
			return Result{}, fmt.Errorf("fvdm segment: %w", err)
		}
	}
	ex.debug(StagePreTrend, sig.Samples)

	mult, err := detrend.Multiplicative(sig,
		detrend.WithWindow(ex.cfg.WindowMs, ex.cfg.ShiftMs),
		detrend.WithLevelFunc(ex.cfg.Level),
		detrend.WithLevelDispersion(ex.cfg.Dispersion),
	)
	if err != nil {
		return Result{}, fmt.Errorf("fvdm multiplicative trend: %w", err)
	}
	ex.debug(StageMultiplicativeTrend, mult.Levels)
	ex.log.WithFields(logrus.Fields{
		"stage":      "multiplicative",
		"samples":    mult.Detrended.Len(),
		"windows":    len(mult.Levels),
		"dispersion": mult.Dispersion,
	}).Debug("multiplicative trend removed")

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	rate := ex.sampleRate(sig)
	add, err := detrend.Additive(mult.Detrended.Samples, rate,
		detrend.WithPolicy(ex.cfg.Policy),
		detrend.WithTrendNormalization(ex.cfg.NormalizeTrend),
		detrend.WithTrendDispersion(ex.cfg.Dispersion),
		detrend.WithEMDOptions(emd.WithSpline(ex.cfg.Spline)),
	)
	if err != nil {
		return Result{}, fmt.Errorf("fvdm additive trend: %w", err)
	}
	ex.debug(StageResidual, add.Residual)
	if add.Periodic != nil {
		ex.debug(StagePeriodic, add.Periodic)
	}
	ex.debug(StageAdditiveTrend, add.Trend)
	ex.log.WithFields(logrus.Fields{
		"stage":      "additive",
		"samples":    len(add.Residual),
		"modes":      add.Modes.Len(),
		"policy":     ex.cfg.Policy.String(),
		"dispersion": add.Dispersion,
	}).Debug("additive trend removed")

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	stab, err := ex.Stability(add.Residual, rate)
	if err != nil {
		return Result{}, err
	}

	return Result{
		StabilityResult:        stab,
		AdditiveVariance:       add.Dispersion,
		MultiplicativeVariance: mult.Dispersion,
		Samples:                len(add.Residual),
		Modes:                  add.Modes.Len(),
	}, nil
}

// Stability runs the optional stationarity gate and the configured
// estimators on residual sampled at sampleRate. A rejected residual yields
// invalid estimates with fractal.ReasonNonStationary.
func (ex *Extractor) Stability(residual []float64, sampleRate float64) (StabilityResult, error) {
	var out StabilityResult

	if ex.cfg.Gate {
		d, err := ex.gate.Check(residual)
		if err != nil {
			return StabilityResult{}, fmt.Errorf("fvdm stationarity: %w", err)
		}
		out.Stationarity = &d
		ex.log.WithFields(logrus.Fields{
			"stage":      "stationarity",
			"stationary": d.Stationary,
			"adf_p":      d.ADF.PValue,
			"kpss_p":     d.KPSS.PValue,
		}).Debug("stationarity checked")
	}

	estimates := make([]fractal.Estimate, len(ex.estimators))
	for i, est := range ex.estimators {
		method := est.Config().Method
		if out.Stationarity != nil && !out.Stationarity.Stationary {
			estimates[i] = fractal.Rejected(method, fractal.ReasonNonStationary)
			continue
		}

		e, err := est.Estimate(residual, sampleRate)
		if err != nil {
			return StabilityResult{}, fmt.Errorf("fvdm stability: %w", err)
		}
		estimates[i] = e
		ex.log.WithFields(logrus.Fields{
			"stage":  "stability",
			"method": method.String(),
			"value":  e.Value,
			"r2":     e.RSquared,
			"valid":  e.Valid,
		}).Debug("stability estimated")
	}

	out.Stability = estimates[0]
	if len(estimates) > 1 {
		out.SecondaryStability = &estimates[1]
	}
	return out, nil
}

func (ex *Extractor) sampleRate(sig core.Signal) float64 {
	if ex.cfg.SampleRate > 0 {
		return ex.cfg.SampleRate
	}
	return sig.SampleRate
}

func (ex *Extractor) debug(stage Stage, series []float64) {
	if ex.cfg.DebugHook != nil {
		ex.cfg.DebugHook(stage, series)
	}
}
