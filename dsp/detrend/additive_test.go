package detrend

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/emd"
	"github.com/cwbudde/algo-fvdm/dsp/signal"
	"github.com/cwbudde/algo-fvdm/internal/testutil"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

// noisyDrift is noise riding on a slow oscillation.
func noisyDrift(n int, sampleRate float64) []float64 {
	slow := make([]float64, n)
	for i := range slow {
		slow[i] = 3 * math.Sin(2*math.Pi*3*float64(i)/sampleRate)
	}
	return testutil.Add(testutil.GaussianNoise(5, 1, n), slow)
}

func TestAdditiveReconstructs(t *testing.T) {
	series := noisyDrift(4410, 44100)

	for _, p := range []Policy{PolicyA, PolicyB} {
		t.Run(p.String(), func(t *testing.T) {
			res, err := Additive(series, 44100, WithPolicy(p))
			if err != nil {
				t.Fatalf("Additive() error = %v", err)
			}

			norm, err := signal.NormalizeAmplitude(series)
			if err != nil {
				t.Fatal(err)
			}
			norm = norm[:res.Modes.Samples()]

			diff, err := testutil.MaxAbsDiff(res.Modes.Reconstruct(), norm)
			if err != nil {
				t.Fatal(err)
			}
			if diff > 1e-6 {
				t.Fatalf("mode reconstruction error = %g", diff)
			}

			parts := [][]float64{res.Residual, res.Trend}
			if res.Periodic != nil {
				parts = append(parts, res.Periodic)
			}
			diff, _ = testutil.MaxAbsDiff(testutil.Add(parts...), norm)
			if diff > 1e-6 {
				t.Fatalf("component reconstruction error = %g", diff)
			}
			if res.Dispersion < 0 {
				t.Fatalf("dispersion = %v, want >= 0", res.Dispersion)
			}
		})
	}
}

func TestAdditivePolicyAssembly(t *testing.T) {
	series := noisyDrift(4410, 44100)

	a, err := Additive(series, 44100, WithPolicy(PolicyA))
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, a.Residual, a.Modes[0], 0)
	if a.Periodic == nil {
		t.Fatal("policy A periodic band is nil")
	}
	trend, _ := a.Modes.Sum(5, a.Modes.Len())
	testutil.RequireSliceNearlyEqual(t, a.Trend, trend, 0)

	b, err := Additive(series, 44100, WithPolicy(PolicyB))
	if err != nil {
		t.Fatal(err)
	}
	if b.Periodic != nil {
		t.Fatal("policy B periodic band should be nil")
	}
	residual, _ := b.Modes.Sum(0, 6)
	testutil.RequireSliceNearlyEqual(t, b.Residual, residual, 0)
	trend, _ = b.Modes.Sum(6, b.Modes.Len())
	testutil.RequireSliceNearlyEqual(t, b.Trend, trend, 0)
}

func TestAdditiveTrendNormalization(t *testing.T) {
	series := noisyDrift(4410, 44100)

	raw, err := Additive(series, 44100, WithTrendNormalization(false), WithTrendDispersion(timestats.Variance))
	if err != nil {
		t.Fatal(err)
	}
	if want := timestats.Variance.Of(raw.Trend); !core.NearlyEqual(raw.Dispersion, want, 1e-12) {
		t.Fatalf("raw dispersion = %v, want %v", raw.Dispersion, want)
	}

	normalized, err := Additive(series, 44100)
	if err != nil {
		t.Fatal(err)
	}
	renorm, err := signal.NormalizeAmplitude(normalized.Trend)
	if err != nil {
		t.Fatal(err)
	}
	if want := timestats.StdDev.Of(renorm); !core.NearlyEqual(normalized.Dispersion, want, 1e-12) {
		t.Fatalf("normalized dispersion = %v, want %v", normalized.Dispersion, want)
	}
	if normalized.Dispersion <= 0 || normalized.Dispersion > 1 {
		t.Fatalf("normalized dispersion = %v, want in (0, 1]", normalized.Dispersion)
	}
}

func TestAdditiveVolumeInvariant(t *testing.T) {
	series := noisyDrift(2048, 16000)
	loud := make([]float64, len(series))
	for i, v := range series {
		loud[i] = 4 * v
	}

	quiet, err := Additive(series, 16000)
	if err != nil {
		t.Fatal(err)
	}
	scaled, err := Additive(loud, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Dispersion != scaled.Dispersion {
		t.Fatalf("dispersion depends on volume: %v vs %v", quiet.Dispersion, scaled.Dispersion)
	}
}

func TestAdditiveErrors(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		opts   []AdditiveOption
		want   error
	}{
		{name: "constant", series: testutil.DC(0.3, 1000), want: core.ErrDegenerateSignal},
		{name: "empty", series: nil, want: core.ErrDegenerateSignal},
		{name: "monotonic", series: testutil.Drift(0.01, 1000), want: core.ErrDecomposition},
		{
			name:   "too few modes",
			series: testutil.GaussianNoise(6, 1, 2048),
			opts:   []AdditiveOption{WithEMDOptions(emd.WithMaxModes(2))},
			want:   core.ErrDecomposition,
		},
		{
			name:   "budget",
			series: testutil.GaussianNoise(6, 1, 2048),
			opts:   []AdditiveOption{WithEMDOptions(emd.WithMaxIterations(2))},
			want:   core.ErrDecomposition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Additive(tt.series, 44100, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Additive(noisyDrift(100, 1000), 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestPolicy(t *testing.T) {
	tests := []struct {
		name        string
		p           Policy
		residualEnd int
		trendStart  int
		minModes    int
	}{
		{name: "A", p: PolicyA, residualEnd: 1, trendStart: 5, minModes: 6},
		{name: "B", p: PolicyB, residualEnd: 6, trendStart: 6, minModes: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.p.ResidualEnd() != tt.residualEnd || tt.p.TrendStart() != tt.trendStart || tt.p.MinModes() != tt.minModes {
				t.Fatalf("policy %s = (%d, %d, %d)", tt.p, tt.p.ResidualEnd(), tt.p.TrendStart(), tt.p.MinModes())
			}
			got, err := ParsePolicy(tt.name)
			if err != nil || got != tt.p {
				t.Fatalf("ParsePolicy(%q) = %v, %v", tt.name, got, err)
			}
		})
	}
	if _, err := ParsePolicy("C"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
