package stationarity

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994) response-surface coefficients for a single series.
type mackinnonSurface struct {
	tauMax, tauMin, tauStar float64
	smallP                  []float64
	largeP                  []float64
	// crit holds MacKinnon (2010) critical value coefficients for 1%, 5%
	// and 10%: b0 + b1/n + b2/n^2 + b3/n^3.
	crit [3][4]float64
}

var surfaces = map[Regression]mackinnonSurface{
	Constant: {
		tauMax:  2.74,
		tauMin:  -18.83,
		tauStar: -1.61,
		smallP:  []float64{2.1659, 1.4412, 0.038269},
		largeP:  []float64{1.7339, 0.93202, -0.12745, -0.010368},
		crit: [3][4]float64{
			{-3.43035, -6.5393, -16.786, -79.433},
			{-2.86154, -2.8903, -4.234, -40.040},
			{-2.56677, -1.5384, -2.809, 0},
		},
	},
	ConstantTrend: {
		tauMax:  0.7,
		tauMin:  -16.18,
		tauStar: -2.89,
		smallP:  []float64{3.2512, 1.6047, 0.049588},
		largeP:  []float64{2.5261, 0.61654, -0.37956, -0.060285},
		crit: [3][4]float64{
			{-3.95877, -9.0531, -28.428, -134.155},
			{-3.41049, -4.3904, -9.036, -45.374},
			{-3.12705, -2.5856, -3.925, -22.380},
		},
	},
}

// mackinnonP returns the approximate p-value of an ADF statistic.
func mackinnonP(stat float64, reg Regression) float64 {
	s := surfaces[reg]
	switch {
	case stat > s.tauMax:
		return 1
	case stat < s.tauMin:
		return 0
	}

	coef := s.largeP
	if stat <= s.tauStar {
		coef = s.smallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// mackinnonCrit returns the finite-sample critical values for nobs.
func mackinnonCrit(nobs int, reg Regression) map[string]float64 {
	s := surfaces[reg]
	inv := 1 / float64(nobs)
	out := make(map[string]float64, 3)
	for i, level := range []string{"1%", "5%", "10%"} {
		b := s.crit[i]
		out[level] = b[0] + b[1]*inv + b[2]*inv*inv + b[3]*inv*inv*inv
	}
	return out
}

// polyval evaluates coef[0] + coef[1]*x + coef[2]*x^2 + ...
func polyval(coef []float64, x float64) float64 {
	var y float64
	for i := len(coef) - 1; i >= 0; i-- {
		y = y*x + coef[i]
	}
	return y
}
