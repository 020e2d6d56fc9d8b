// Package fractal estimates the scaling exponent of a noise-like series.
//
// Two estimators are provided, both evaluated over a set of window sizes
// and fitted as a line in log-log space:
//
//   - HurstRS: rescaled range (R/S) analysis with the Anis-Lloyd-Peters
//     small-sample correction
//   - DFA: detrended fluctuation analysis of the integrated profile with
//     polynomial detrending of overlapping windows
//
// An Estimator runs a fixed number of independent trials, rejects fits
// whose log-log relation is not linear enough (R² below 0.99) and reports
// the median exponent. Values near 1 indicate a smooth, persistent series,
// values near 0 a rough, anti-persistent one.
//
// # Usage
//
//	est := fractal.NewEstimator(fractal.WithMethod(fractal.MethodDFA))
//	e, err := est.Estimate(residual, 44100)
//	if err == nil && e.Valid {
//		fmt.Printf("stability = %.3f (R² %.4f)\n", e.Value, e.RSquared)
//	}
package fractal
