package stationarity

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	"github.com/cwbudde/algo-fvdm/dsp/signal"
	"github.com/cwbudde/algo-fvdm/internal/testutil"
)

func ar1(t *testing.T, seed int64, phi float64, n int) []float64 {
	t.Helper()
	g := signal.NewGeneratorWithOptions(nil, signal.WithSeed(seed))
	x, err := g.AR1(phi, 1, n)
	if err != nil {
		t.Fatalf("AR1() error = %v", err)
	}
	return x
}

func TestMackinnonP(t *testing.T) {
	tests := []struct {
		name string
		stat float64
		reg  Regression
		want float64
		tol  float64
	}{
		{name: "c 5%", stat: -2.86, reg: Constant, want: 0.05, tol: 0.003},
		{name: "c 1%", stat: -3.43, reg: Constant, want: 0.01, tol: 0.002},
		{name: "ct 5%", stat: -3.41, reg: ConstantTrend, want: 0.05, tol: 0.005},
		{name: "above max", stat: 3, reg: Constant, want: 1, tol: 0},
		{name: "below min", stat: -20, reg: Constant, want: 0, tol: 0},
		{name: "ct above max", stat: 0.8, reg: ConstantTrend, want: 1, tol: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mackinnonP(tt.stat, tt.reg)
			if math.Abs(got-tt.want) > tt.tol {
				t.Fatalf("mackinnonP(%v) = %v, want %v ± %v", tt.stat, got, tt.want, tt.tol)
			}
		})
	}

	// p-values grow with the statistic.
	prev := -1.0
	for stat := -6.0; stat < 2.5; stat += 0.25 {
		p := mackinnonP(stat, Constant)
		if p < prev-0.02 {
			t.Fatalf("p-value fell from %v to %v at %v", prev, p, stat)
		}
		prev = p
	}
}

func TestMackinnonCrit(t *testing.T) {
	crit := mackinnonCrit(1000, Constant)
	testutil.RequireInRange(t, "1%", crit["1%"], -3.45, -3.43)
	testutil.RequireInRange(t, "5%", crit["5%"], -2.87, -2.86)
	testutil.RequireInRange(t, "10%", crit["10%"], -2.57, -2.56)
}

func TestInterpolateDescending(t *testing.T) {
	tests := []struct {
		stat float64
		want float64
	}{
		{stat: 0.1, want: 0.10},
		{stat: 0.347, want: 0.10},
		{stat: 0.405, want: 0.075},
		{stat: 0.463, want: 0.05},
		{stat: 0.739, want: 0.01},
		{stat: 5, want: 0.01},
	}
	for _, tt := range tests {
		got := interpolateDescending(tt.stat, kpssCritConstant, kpssPValues)
		if !core.NearlyEqual(got, tt.want, 1e-9) {
			t.Fatalf("interpolate(%v) = %v, want %v", tt.stat, got, tt.want)
		}
	}
}

func TestLongRunVariance(t *testing.T) {
	resid := []float64{1, -1, 1, -1}
	if got := longRunVariance(resid, 0); got != 1 {
		t.Fatalf("lag 0 = %v, want 1", got)
	}
	// 4 + 2*(1/2)*(-3) = 1, divided by 4.
	if got := longRunVariance(resid, 1); !core.NearlyEqual(got, 0.25, 1e-12) {
		t.Fatalf("lag 1 = %v, want 0.25", got)
	}
}

func TestADFWhiteNoise(t *testing.T) {
	x := testutil.GaussianNoise(11, 1, 1000)

	res, err := ADF(x, Constant)
	if err != nil {
		t.Fatalf("ADF() error = %v", err)
	}
	if res.PValue > 0.01 {
		t.Fatalf("p-value = %v, want < 0.01 for white noise", res.PValue)
	}
	if res.Statistic >= res.CriticalValues["1%"] {
		t.Fatalf("statistic %v not below 1%% critical value %v", res.Statistic, res.CriticalValues["1%"])
	}
	maxlag := int(math.Ceil(12 * math.Pow(10, 0.25)))
	if res.Lags < 0 || res.Lags > maxlag {
		t.Fatalf("lags = %d, want in [0, %d]", res.Lags, maxlag)
	}
	if res.NObs != len(x)-1-res.Lags {
		t.Fatalf("nobs = %d, want %d", res.NObs, len(x)-1-res.Lags)
	}
}

func TestADFRandomWalk(t *testing.T) {
	kept := 0
	for seed := int64(1); seed <= 20; seed++ {
		res, err := ADF(ar1(t, seed, 1, 1000), Constant)
		if err != nil {
			t.Fatalf("seed %d: ADF() error = %v", seed, err)
		}
		if res.PValue > DefaultSignificance {
			kept++
		}
	}
	if kept < 15 {
		t.Fatalf("unit root kept for %d of 20 random walks, want >= 15", kept)
	}
}

func TestADFConstantTrend(t *testing.T) {
	x := testutil.Add(testutil.GaussianNoise(12, 1, 800), testutil.Drift(0.05, 800))
	res, err := ADF(x, ConstantTrend)
	if err != nil {
		t.Fatalf("ADF() error = %v", err)
	}
	if res.PValue > 0.01 {
		t.Fatalf("p-value = %v, want < 0.01 for trend-stationary series", res.PValue)
	}
}

func TestKPSS(t *testing.T) {
	noise := testutil.GaussianNoise(13, 1, 1000)
	trend := testutil.Add(noise, testutil.Drift(0.01, 1000))

	level, err := KPSS(trend, Constant, AutoLags)
	if err != nil {
		t.Fatalf("KPSS() error = %v", err)
	}
	if level.PValue != 0.01 {
		t.Fatalf("level KPSS p = %v, want 0.01 for a trending series", level.PValue)
	}

	detrended, err := KPSS(trend, ConstantTrend, AutoLags)
	if err != nil {
		t.Fatalf("KPSS() error = %v", err)
	}
	if detrended.Statistic >= level.Statistic {
		t.Fatalf("ct statistic %v not below c statistic %v", detrended.Statistic, level.Statistic)
	}

	fixed, err := KPSS(noise, Constant, 4)
	if err != nil {
		t.Fatal(err)
	}
	if fixed.Lags != 4 || fixed.NObs != 1000 {
		t.Fatalf("fixed lags result = %+v", fixed)
	}
	testutil.RequireInRange(t, "p", fixed.PValue, 0.01, 0.10)
}

func TestKPSSAutoLags(t *testing.T) {
	walk := ar1(t, 3, 1, 1000)
	noise := testutil.GaussianNoise(3, 1, 1000)

	w, err := KPSS(walk, Constant, AutoLags)
	if err != nil {
		t.Fatal(err)
	}
	n, err := KPSS(noise, Constant, AutoLags)
	if err != nil {
		t.Fatal(err)
	}
	if w.Lags <= n.Lags {
		t.Fatalf("random walk lags %d not above white noise lags %d", w.Lags, n.Lags)
	}
}

func TestTestErrors(t *testing.T) {
	if _, err := ADF([]float64{1, 2, 3}, Constant); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("short ADF err = %v, want ErrInsufficientData", err)
	}
	if _, err := KPSS([]float64{1, 2}, Constant, AutoLags); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("short KPSS err = %v, want ErrInsufficientData", err)
	}
	if _, err := ADF(testutil.DC(2, 100), Constant); !errors.Is(err, core.ErrDegenerateSignal) {
		t.Fatalf("constant ADF err = %v, want ErrDegenerateSignal", err)
	}
	if _, err := KPSS(testutil.DC(2, 100), Constant, AutoLags); !errors.Is(err, core.ErrDegenerateSignal) {
		t.Fatalf("constant KPSS err = %v, want ErrDegenerateSignal", err)
	}
	if _, err := KPSS(testutil.GaussianNoise(1, 1, 10), Constant, 10); err == nil {
		t.Fatal("expected error for lags >= n")
	}
}

func TestParseRegression(t *testing.T) {
	for _, r := range []Regression{Constant, ConstantTrend} {
		got, err := ParseRegression(r.String())
		if err != nil || got != r {
			t.Fatalf("ParseRegression(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseRegression("ctt"); err == nil {
		t.Fatal("expected error for unknown regression")
	}
}
