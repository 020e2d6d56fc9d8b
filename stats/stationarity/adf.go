package stationarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// TestResult is the outcome of a single stationarity test.
type TestResult struct {
	Statistic float64
	PValue    float64
	// Lags is the number of lagged differences (ADF) or the Bartlett
	// bandwidth (KPSS) used.
	Lags int
	// NObs is the number of observations entering the final regression.
	NObs int
	// CriticalValues maps "1%", "5%" and "10%" to the test statistic at
	// that level (2.5% is included for KPSS).
	CriticalValues map[string]float64
}

// ADF runs the augmented Dickey-Fuller unit-root test on x.
//
// The number of lagged differences is chosen by minimum AIC over
// 0..ceil(12*(n/100)^(1/4)) on a common sample, then the regression is refit
// at the chosen lag on all available observations. The statistic is the t
// value of the lagged level; the p-value is MacKinnon's (1994) approximation.
func ADF(x []float64, reg Regression) (TestResult, error) {
	n := len(x)
	ntrend := reg.terms()
	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	maxlag = min(n/2-ntrend-1, maxlag)
	if maxlag < 0 {
		return TestResult{}, fmt.Errorf("%w: adf needs more than %d samples for regression %s, got %d",
			core.ErrInsufficientData, 2*(ntrend+1), reg, n)
	}
	if err := validateSeries(x); err != nil {
		return TestResult{}, fmt.Errorf("adf: %w", err)
	}

	dx := make([]float64, n-1)
	for i := range dx {
		dx[i] = x[i+1] - x[i]
	}

	search := newNormalEquations(adfDesign(x, dx, maxlag, reg))
	bestLag, bestAIC := 0, math.Inf(1)
	for lag := 0; lag <= maxlag; lag++ {
		f, err := search.fit(ntrend+1+lag, false)
		if err != nil {
			return TestResult{}, fmt.Errorf("adf lag %d: %w", lag, err)
		}
		if aic := f.aic(); aic < bestAIC {
			bestLag, bestAIC = lag, aic
		}
	}

	final := newNormalEquations(adfDesign(x, dx, bestLag, reg))
	f, err := final.fit(ntrend+1+bestLag, true)
	if err != nil {
		return TestResult{}, fmt.Errorf("adf lag %d: %w", bestLag, err)
	}

	stat := f.tValue(ntrend)
	return TestResult{
		Statistic:      stat,
		PValue:         mackinnonP(stat, reg),
		Lags:           bestLag,
		NObs:           f.nobs,
		CriticalValues: mackinnonCrit(f.nobs, reg),
	}, nil
}

// adfDesign builds the regression of dx[j] on the deterministic terms, the
// level x[j] and the lagged differences dx[j-1..j-lags], for every j that has
// all lags available.
func adfDesign(x, dx []float64, lags int, reg Regression) (*mat.Dense, []float64) {
	ntrend := reg.terms()
	nobs := len(dx) - lags
	cols := ntrend + 1 + lags

	design := mat.NewDense(nobs, cols, nil)
	y := make([]float64, nobs)
	for r := range nobs {
		j := lags + r
		y[r] = dx[j]
		design.Set(r, 0, 1)
		if reg == ConstantTrend {
			design.Set(r, 1, float64(r+1))
		}
		design.Set(r, ntrend, x[j])
		for i := 1; i <= lags; i++ {
			design.Set(r, ntrend+i, dx[j-i])
		}
	}
	return design, y
}

// validateSeries rejects non-finite and constant series, for which neither
// test regression is identified.
func validateSeries(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite sample %v at %d", core.ErrDegenerateSignal, v, i)
		}
	}
	if floats.Max(x) == floats.Min(x) {
		return fmt.Errorf("%w: series is constant", core.ErrDegenerateSignal)
	}
	return nil
}
