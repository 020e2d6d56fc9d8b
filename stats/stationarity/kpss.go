package stationarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// AutoLags selects the KPSS bandwidth with the Hobijn et al. (1998)
// data-dependent rule.
const AutoLags = -1

var (
	kpssPValues      = []float64{0.10, 0.05, 0.025, 0.01}
	kpssCritConstant = []float64{0.347, 0.463, 0.574, 0.739}
	kpssCritTrend    = []float64{0.119, 0.146, 0.176, 0.216}
)

// KPSS runs the Kwiatkowski-Phillips-Schmidt-Shin stationarity test on x.
//
// lags is the Bartlett bandwidth of the long-run variance estimate; pass
// AutoLags for the automatic choice. The p-value is interpolated from the
// KPSS (1992) table and therefore clamped to [0.01, 0.10].
func KPSS(x []float64, reg Regression, lags int) (TestResult, error) {
	n := len(x)
	if n < 3 {
		return TestResult{}, fmt.Errorf("%w: kpss needs at least 3 samples, got %d", core.ErrInsufficientData, n)
	}
	if err := validateSeries(x); err != nil {
		return TestResult{}, fmt.Errorf("kpss: %w", err)
	}
	if lags >= n {
		return TestResult{}, fmt.Errorf("kpss lags must be < %d: %d", n, lags)
	}

	resid, crit := kpssResiduals(x, reg)
	if lags < 0 {
		lags = min(hobijnLags(resid), n-1)
	}

	var eta, cum float64
	for _, r := range resid {
		cum += r
		eta += cum * cum
	}
	eta /= float64(n) * float64(n)

	s2 := longRunVariance(resid, lags)
	if s2 <= 0 {
		return TestResult{}, fmt.Errorf("%w: kpss long-run variance is %v", core.ErrDegenerateSignal, s2)
	}
	stat := eta / s2

	return TestResult{
		Statistic: stat,
		PValue:    interpolateDescending(stat, crit, kpssPValues),
		Lags:      lags,
		NObs:      n,
		CriticalValues: map[string]float64{
			"10%": crit[0], "5%": crit[1], "2.5%": crit[2], "1%": crit[3],
		},
	}, nil
}

// kpssResiduals removes the mean (Constant) or an OLS line (ConstantTrend).
func kpssResiduals(x []float64, reg Regression) ([]float64, []float64) {
	resid := make([]float64, len(x))
	if reg == ConstantTrend {
		t := make([]float64, len(x))
		for i := range t {
			t[i] = float64(i + 1)
		}
		alpha, beta := stat.LinearRegression(t, x, nil, false)
		for i, v := range x {
			resid[i] = v - (alpha + beta*t[i])
		}
		return resid, kpssCritTrend
	}

	mean := stat.Mean(x, nil)
	for i, v := range x {
		resid[i] = v - mean
	}
	return resid, kpssCritConstant
}

// longRunVariance is the Newey-West estimate with Bartlett weights.
func longRunVariance(resid []float64, lags int) float64 {
	n := len(resid)
	s := floats.Dot(resid, resid)
	for i := 1; i <= lags; i++ {
		w := 1 - float64(i)/float64(lags+1)
		s += 2 * w * floats.Dot(resid[i:], resid[:n-i])
	}
	return s / float64(n)
}

func hobijnLags(resid []float64) int {
	n := len(resid)
	nf := float64(n)
	covlags := int(math.Pow(nf, 2.0/9.0))

	s0 := floats.Dot(resid, resid) / nf
	var s1 float64
	for i := 1; i <= covlags && i < n; i++ {
		prod := floats.Dot(resid[i:], resid[:n-i]) / (nf / 2)
		s0 += prod
		s1 += float64(i) * prod
	}
	if s0 == 0 {
		return 0
	}

	sHat := s1 / s0
	gamma := 1.1447 * math.Cbrt(sHat*sHat)
	return max(int(gamma*math.Cbrt(nf)), 0)
}

// interpolateDescending linearly interpolates p at stat over the increasing
// knots xs, clamping to the end values outside the table.
func interpolateDescending(v float64, xs, ps []float64) float64 {
	if v <= xs[0] {
		return ps[0]
	}
	last := len(xs) - 1
	if v >= xs[last] {
		return ps[last]
	}
	for i := 1; i <= last; i++ {
		if v <= xs[i] {
			frac := (v - xs[i-1]) / (xs[i] - xs[i-1])
			return ps[i-1] + frac*(ps[i]-ps[i-1])
		}
	}
	return ps[last]
}
