package stationarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// normalEquations holds the cross products of a regression design so that
// regressions on any leading subset of its columns can be solved without
// touching the observations again.
type normalEquations struct {
	x   *mat.Dense
	y   []float64
	xtx *mat.SymDense
	xty []float64
	yty float64
}

func newNormalEquations(x *mat.Dense, y []float64) *normalEquations {
	_, k := x.Dims()
	xtx := mat.NewSymDense(k, nil)
	xtx.SymOuterK(1, x.T())

	xty := mat.NewVecDense(k, nil)
	xty.MulVec(x.T(), mat.NewVecDense(len(y), y))

	return &normalEquations{
		x:   x,
		y:   y,
		xtx: xtx,
		xty: xty.RawVector().Data,
		yty: floats.Dot(y, y),
	}
}

type olsFit struct {
	beta []float64
	se   []float64
	ssr  float64
	nobs int
}

// tValue returns the t statistic of coefficient j.
func (f olsFit) tValue(j int) float64 {
	return f.beta[j] / f.se[j]
}

// aic returns the Gaussian log-likelihood based Akaike criterion.
func (f olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
	return -2*llf + 2*float64(len(f.beta))
}

// fit regresses y on the first k columns. With exact set, residuals are
// recomputed from the observations; otherwise the sum of squares comes from
// the cross products alone.
func (ne *normalEquations) fit(k int, exact bool) (olsFit, error) {
	n, _ := ne.x.Dims()
	if n <= k {
		return olsFit{}, fmt.Errorf("%w: %d observations for %d regressors",
			core.ErrInsufficientData, n, k)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ne.xtx.SliceSym(0, k)); !ok {
		return olsFit{}, fmt.Errorf("%w: regression design is singular", core.ErrDegenerateSignal)
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, mat.NewVecDense(k, ne.xty[:k])); err != nil {
		return olsFit{}, fmt.Errorf("%w: %v", core.ErrDegenerateSignal, err)
	}
	b := make([]float64, k)
	for j := range b {
		b[j] = beta.AtVec(j)
	}

	var ssr float64
	if exact {
		var fitted mat.VecDense
		fitted.MulVec(ne.x.Slice(0, n, 0, k), &beta)
		for i, v := range ne.y {
			r := v - fitted.AtVec(i)
			ssr += r * r
		}
	} else {
		ssr = math.Max(ne.yty-floats.Dot(b, ne.xty[:k]), 0)
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return olsFit{}, fmt.Errorf("%w: %v", core.ErrDegenerateSignal, err)
	}
	sigma2 := ssr / float64(n-k)
	se := make([]float64, k)
	for j := range se {
		se[j] = math.Sqrt(sigma2 * inv.At(j, j))
	}

	return olsFit{beta: b, se: se, ssr: ssr, nobs: n}, nil
}
