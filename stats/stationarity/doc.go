// Package stationarity tests whether a series is stationary enough for
// fractal scaling analysis.
//
// Two tests with opposite null hypotheses are combined. The augmented
// Dickey-Fuller test (ADF) has a unit root as its null, so a small p-value
// is evidence for stationarity. The KPSS test has (level or trend)
// stationarity as its null, so a small p-value is evidence against it. A
// Gate accepts a series only when both tests agree.
package stationarity
