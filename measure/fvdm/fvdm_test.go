package fvdm

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/detrend"
	"github.com/cwbudde/algo-fvdm/dsp/signal"
	"github.com/cwbudde/algo-fvdm/internal/testutil"
	"github.com/cwbudde/algo-fvdm/measure/fractal"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

func pinkSignal(t *testing.T, durationMs float64) core.Signal {
	t.Helper()
	g := signal.NewGeneratorWithOptions([]core.ProcessorOption{core.WithSampleRate(44100)}, signal.WithSeed(7))
	x, err := g.PinkNoise(0.5, g.Samples(durationMs))
	if err != nil {
		t.Fatalf("PinkNoise() error = %v", err)
	}
	return g.Signal(x)
}

func TestExtractPinkNoise(t *testing.T) {
	sig := pinkSignal(t, 500)

	stages := map[Stage]int{}
	ex := New(WithDebugHook(func(stage Stage, series []float64) {
		stages[stage] = len(series)
	}))

	res, err := ex.Extract(context.Background(), sig, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !res.Stability.Valid {
		t.Fatalf("stability invalid: %+v", res.Stability)
	}
	if res.Stability.Method != fractal.MethodDFA {
		t.Fatalf("method = %v, want dfa", res.Stability.Method)
	}
	testutil.RequireInRange(t, "stability", res.Stability.Value, 0.35, 0.65)
	if res.AdditiveVariance < 0 || res.MultiplicativeVariance < 0 {
		t.Fatalf("variances = %v, %v; want >= 0", res.AdditiveVariance, res.MultiplicativeVariance)
	}
	if res.SecondaryStability != nil || res.Stationarity != nil {
		t.Fatalf("unexpected optional results: %+v", res.StabilityResult)
	}
	if res.Modes < detrend.PolicyA.MinModes() {
		t.Fatalf("modes = %d", res.Modes)
	}

	// 22050 samples, 1103-sample windows advanced by 441.
	if want := 1103 + 47*441; res.Samples != want {
		t.Fatalf("samples = %d, want %d", res.Samples, want)
	}
	if stages[StagePreTrend] != 22050 || stages[StageMultiplicativeTrend] != 48 {
		t.Fatalf("stage lengths = %v", stages)
	}
	for _, s := range []Stage{StageResidual, StagePeriodic, StageAdditiveTrend} {
		if stages[s] != res.Samples {
			t.Fatalf("stage %s length = %d, want %d", s, stages[s], res.Samples)
		}
	}
}

func TestExtractBothEstimators(t *testing.T) {
	res, err := New(WithEstimator(EstimatorBoth)).Extract(context.Background(), pinkSignal(t, 500), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Stability.Method != fractal.MethodRS {
		t.Fatalf("primary method = %v, want rs", res.Stability.Method)
	}
	if res.SecondaryStability == nil || res.SecondaryStability.Method != fractal.MethodDFA {
		t.Fatalf("secondary = %+v, want dfa", res.SecondaryStability)
	}
	for _, e := range []fractal.Estimate{res.Stability, *res.SecondaryStability} {
		if e.Valid {
			testutil.RequireInRange(t, e.Method.String(), e.Value, 0, 1)
		}
		if e.Trials != 10 {
			t.Fatalf("%s trials = %d, want 10", e.Method, e.Trials)
		}
	}
}

func TestExtractPolicyB(t *testing.T) {
	var periodic bool
	ex := New(WithPolicy(detrend.PolicyB), WithDispersion(timestats.Variance), WithDebugHook(func(stage Stage, _ []float64) {
		if stage == StagePeriodic {
			periodic = true
		}
	}))

	res, err := ex.Extract(context.Background(), pinkSignal(t, 500), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if periodic {
		t.Fatal("policy B reported a periodic band")
	}
	if res.Modes < detrend.PolicyB.MinModes() {
		t.Fatalf("modes = %d", res.Modes)
	}
	if res.AdditiveVariance < 0 || res.MultiplicativeVariance < 0 {
		t.Fatalf("variances = %v, %v", res.AdditiveVariance, res.MultiplicativeVariance)
	}
}

func TestExtractShortSignal(t *testing.T) {
	sig := pinkSignal(t, 10)
	_, err := New().Extract(context.Background(), sig, nil)
	if !errors.Is(err, core.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}
}

func TestExtractSegment(t *testing.T) {
	sig := pinkSignal(t, 1000)

	var pre int
	ex := New(WithDebugHook(func(stage Stage, series []float64) {
		if stage == StagePreTrend {
			pre = len(series)
		}
	}))
	if _, err := ex.Extract(context.Background(), sig, &Segment{StartMs: 100, EndMs: 600}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if pre != 22050 {
		t.Fatalf("segment samples = %d, want 22050", pre)
	}

	if _, err := ex.Extract(context.Background(), sig, &Segment{StartMs: 600, EndMs: 100}); err == nil {
		t.Fatal("expected error for reversed segment")
	}
	_, err := ex.Extract(context.Background(), sig, &Segment{StartMs: 2000, EndMs: 3000})
	if !errors.Is(err, core.ErrInsufficientSamples) {
		t.Fatalf("segment past end err = %v, want ErrInsufficientSamples", err)
	}
}

func TestExtractSilentSignal(t *testing.T) {
	sig := core.NewSignal(testutil.DC(0, 22050), core.WithSampleRate(44100))
	_, err := New().Extract(context.Background(), sig, nil)
	if !errors.Is(err, core.ErrDegenerateSignal) {
		t.Fatalf("err = %v, want ErrDegenerateSignal", err)
	}
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, pinkSignal(t, 500), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestStabilityGateRejectsDrift(t *testing.T) {
	residual := testutil.Add(testutil.GaussianNoise(4, 0.1, 22050), testutil.Drift(1e-4, 22050))

	ex := New(WithStationarityGate(true), WithEstimator(EstimatorBoth))
	stab, err := ex.Stability(residual, 44100)
	if err != nil {
		t.Fatalf("Stability() error = %v", err)
	}
	if stab.Stationarity == nil || stab.Stationarity.Stationary {
		t.Fatalf("gate decision = %+v, want rejected", stab.Stationarity)
	}
	for _, e := range []fractal.Estimate{stab.Stability, *stab.SecondaryStability} {
		if e.Valid || e.Reason != fractal.ReasonNonStationary || !math.IsNaN(e.Value) {
			t.Fatalf("estimate = %+v, want non-stationary marker", e)
		}
	}

	// Without the gate the same residual is estimated.
	stab, err = New().Stability(residual, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if stab.Stability.Reason == fractal.ReasonNonStationary {
		t.Fatal("ungated estimate marked non-stationary")
	}
}

func TestExtractWithGate(t *testing.T) {
	res, err := New(WithStationarityGate(true), WithSignificance(0.01)).Extract(context.Background(), pinkSignal(t, 500), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Stationarity == nil || res.Stationarity.Alpha != 0.01 {
		t.Fatalf("stationarity = %+v", res.Stationarity)
	}
	if res.AdditiveVariance < 0 || res.MultiplicativeVariance < 0 {
		t.Fatalf("variances = %v, %v", res.AdditiveVariance, res.MultiplicativeVariance)
	}
	if !res.Stationarity.Stationary && res.Stability.Reason != fractal.ReasonNonStationary {
		t.Fatalf("rejected residual estimated anyway: %+v", res.Stability)
	}
}

func TestStabilityInsufficientData(t *testing.T) {
	_, err := New().Stability(testutil.GaussianNoise(1, 1, 400), 44100)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestExtractLogsStages(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	if _, err := New(WithLogger(logger)).Extract(context.Background(), pinkSignal(t, 500), nil); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	seen := map[string]bool{}
	for _, e := range hook.AllEntries() {
		if stage, ok := e.Data["stage"].(string); ok {
			seen[stage] = true
		}
	}
	for _, stage := range []string{"multiplicative", "additive", "stability"} {
		if !seen[stage] {
			t.Fatalf("no log entry for stage %q; got %v", stage, seen)
		}
	}
	if _, ok := hook.LastEntry().Data["r2"]; !ok {
		t.Fatalf("last entry lacks r2: %v", hook.LastEntry().Data)
	}
}

func TestExtractConcurrent(t *testing.T) {
	sig := pinkSignal(t, 500)
	ex := New(WithFit(fractal.FitRANSAC), WithSeed(9), WithTrials(4))

	results := make([]Result, 3)
	errs := make([]error, 3)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = ex.Extract(context.Background(), sig, nil)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	for i := 1; i < len(results); i++ {
		a, b := results[0], results[i]
		if a.AdditiveVariance != b.AdditiveVariance || a.MultiplicativeVariance != b.MultiplicativeVariance {
			t.Fatalf("run %d variances differ", i)
		}
		if a.Stability.Value != b.Stability.Value && !(math.IsNaN(a.Stability.Value) && math.IsNaN(b.Stability.Value)) {
			t.Fatalf("run %d stability %v != %v", i, b.Stability.Value, a.Stability.Value)
		}
	}
}

func TestParseEstimator(t *testing.T) {
	for _, e := range []Estimator{EstimatorDFA, EstimatorRS, EstimatorBoth} {
		got, err := ParseEstimator(e.String())
		if err != nil || got != e {
			t.Fatalf("ParseEstimator(%q) = %v, %v", e.String(), got, err)
		}
	}
	if _, err := ParseEstimator("higuchi"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOptions(t *testing.T) {
	cfg := New(
		WithWindow(30, 15),
		WithSampleRate(16000),
		WithSignificance(0.1),
		WithTrials(3),
		WithSeed(5),
		WithTrendNormalization(false),
	).Config()
	if cfg.WindowMs != 30 || cfg.ShiftMs != 15 || cfg.SampleRate != 16000 || cfg.Significance != 0.1 ||
		cfg.Trials != 3 || cfg.Seed != 5 || cfg.NormalizeTrend {
		t.Fatalf("config = %+v", cfg)
	}

	cfg = New(WithWindow(-1, 0), WithSampleRate(-5), WithSignificance(2), WithTrials(0)).Config()
	def := DefaultConfig()
	if cfg.WindowMs != def.WindowMs || cfg.ShiftMs != def.ShiftMs || cfg.SampleRate != 0 ||
		cfg.Significance != def.Significance || cfg.Trials != def.Trials {
		t.Fatalf("invalid options changed config: %+v", cfg)
	}
}
