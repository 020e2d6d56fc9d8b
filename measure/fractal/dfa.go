package fractal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// DFA estimates the scaling exponent of x by detrended fluctuation analysis
// over the window sizes nvals.
//
// The mean-removed series is integrated into a profile. For every size n the
// profile is cut into windows of n samples advancing by n/2, a polynomial of
// the given order is removed from every window, and the mean RMS of the
// remainders is the fluctuation at n. Order 0 removes the window mean only.
// The exponent is the slope of log fluctuation against log n.
func DFA(x []float64, nvals []int, order int, fitter Fitter) (Analysis, error) {
	if order < 0 {
		return Analysis{}, fmt.Errorf("dfa detrending order must be >= 0: %d", order)
	}
	if err := validateWindows(x, nvals, max(order+2, 2)); err != nil {
		return Analysis{}, fmt.Errorf("dfa: %w", err)
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	walk := make([]float64, len(x))
	var cum float64
	for i, v := range x {
		cum += v - mean
		walk[i] = cum
	}

	var ll LogLog
	for _, n := range nvals {
		f := fluctuation(walk, n, newTrend(n, order))
		if f == 0 || math.IsNaN(f) {
			continue
		}
		ll.X = append(ll.X, math.Log(float64(n)))
		ll.Y = append(ll.Y, math.Log(f))
	}
	if ll.Len() < 2 {
		return Analysis{}, fmt.Errorf("%w: dfa has %d usable window sizes", core.ErrDegenerateSignal, ll.Len())
	}

	slope, _, err := fitter.Fit(ll.X, ll.Y)
	if err != nil {
		return Analysis{}, fmt.Errorf("dfa: %w", err)
	}
	return Analysis{Exponent: slope, LogLog: ll}, nil
}

// fluctuation returns the mean detrended RMS of the half-overlapping windows
// of size n. The last window starts before len(walk)-n.
func fluctuation(walk []float64, n int, tr trend) float64 {
	step := max(n/2, 1)
	var sum float64
	var count int
	for start := 0; start < len(walk)-n; start += step {
		sum += tr.residualRMS(walk[start : start+n])
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

type trend interface {
	residualRMS(seg []float64) float64
}

func newTrend(n, order int) trend {
	if order == 0 {
		return meanTrend{}
	}
	return newPolyTrend(n, order)
}

type meanTrend struct{}

func (meanTrend) residualRMS(seg []float64) float64 {
	var mean float64
	for _, v := range seg {
		mean += v
	}
	mean /= float64(len(seg))

	var ss float64
	for _, v := range seg {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(seg)))
}

// polyTrend removes a least-squares polynomial in the sample index, solved
// through a QR factorization shared by all windows of the same size.
type polyTrend struct {
	v  *mat.Dense
	qr mat.QR
}

func newPolyTrend(n, order int) *polyTrend {
	v := mat.NewDense(n, order+1, nil)
	for i := range n {
		p := 1.0
		for j := 0; j <= order; j++ {
			v.Set(i, j, p)
			p *= float64(i)
		}
	}
	t := &polyTrend{v: v}
	t.qr.Factorize(v)
	return t
}

func (t *polyTrend) residualRMS(seg []float64) float64 {
	y := mat.NewVecDense(len(seg), seg)
	var coef, fit mat.VecDense
	if err := t.qr.SolveVecTo(&coef, false, y); err != nil {
		return math.NaN()
	}
	fit.MulVec(t.v, &coef)

	var ss float64
	for i, v := range seg {
		d := v - fit.AtVec(i)
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(seg)))
}
