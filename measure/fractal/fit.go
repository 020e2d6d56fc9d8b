package fractal

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

// Fit selects how the scaling line is fitted to the log-log pairs.
type Fit int

const (
	// FitPoly is an ordinary least-squares line.
	FitPoly Fit = iota
	// FitRANSAC is a random sample consensus line, robust to outlying
	// window sizes.
	FitRANSAC
)

// String returns the configuration name of f.
func (f Fit) String() string {
	switch f {
	case FitPoly:
		return "poly"
	case FitRANSAC:
		return "ransac"
	default:
		return fmt.Sprintf("Fit(%d)", int(f))
	}
}

// ParseFit maps "poly" or "ransac" to a Fit.
func ParseFit(name string) (Fit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "poly":
		return FitPoly, nil
	case "ransac":
		return FitRANSAC, nil
	default:
		return 0, fmt.Errorf("unknown fit %q", name)
	}
}

// Fitter fits a line y = intercept + slope*x.
type Fitter interface {
	Fit(x, y []float64) (slope, intercept float64, err error)
}

// Fitter returns the Fitter for f. rng drives the random consensus and may
// be nil for FitPoly.
func (f Fit) Fitter(rng *rand.Rand) Fitter {
	if f == FitRANSAC {
		return &RANSAC{Rand: rng}
	}
	return LeastSquares{}
}

// LeastSquares is an ordinary least-squares line fit.
type LeastSquares struct{}

// Fit implements Fitter.
func (LeastSquares) Fit(x, y []float64) (float64, float64, error) {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: line fit needs at least 2 paired points, got %d/%d",
			core.ErrInsufficientData, len(x), len(y))
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return beta, alpha, nil
}

const (
	defaultRANSACTrials = 100
	ransacStopProb      = 0.99
)

// RANSAC fits a line by random sample consensus: lines through random point
// pairs are scored by the number of points within the residual threshold,
// and the best consensus set is refit by least squares. The threshold is the
// median absolute deviation of y.
type RANSAC struct {
	Rand *rand.Rand
	// MaxTrials caps the number of sampled pairs. Zero selects 100.
	MaxTrials int
}

// Fit implements Fitter.
func (r *RANSAC) Fit(x, y []float64) (float64, float64, error) {
	n := len(x)
	if n < 2 || n != len(y) {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: line fit needs at least 2 paired points, got %d/%d",
			core.ErrInsufficientData, len(x), len(y))
	}
	rng := r.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	maxTrials := r.MaxTrials
	if maxTrials <= 0 {
		maxTrials = defaultRANSACTrials
	}

	threshold := medianAbsDeviation(y)
	var (
		best      []int
		bestScore = math.Inf(-1)
		inliers   = make([]int, 0, n)
	)

	for trial := 0; trial < maxTrials; trial++ {
		i := rng.Intn(n)
		j := rng.Intn(n - 1)
		if j >= i {
			j++
		}
		if x[i] == x[j] {
			continue
		}
		slope := (y[j] - y[i]) / (x[j] - x[i])
		intercept := y[i] - slope*x[i]

		inliers = inliers[:0]
		for k := range x {
			if math.Abs(y[k]-(intercept+slope*x[k])) <= threshold {
				inliers = append(inliers, k)
			}
		}
		if len(inliers) < len(best) || len(inliers) < 2 {
			continue
		}
		score := subsetRSquared(x, y, inliers, slope, intercept)
		if len(inliers) == len(best) && score <= bestScore {
			continue
		}
		best = append(best[:0], inliers...)
		bestScore = score
		maxTrials = min(maxTrials, dynamicTrials(len(best), n))
	}

	if len(best) < 2 {
		// No pair gathered a consensus; the least-squares line over all
		// points is the only estimate left.
		return LeastSquares{}.Fit(x, y)
	}
	bx := make([]float64, len(best))
	by := make([]float64, len(best))
	for k, idx := range best {
		bx[k], by[k] = x[idx], y[idx]
	}
	return LeastSquares{}.Fit(bx, by)
}

// dynamicTrials is the number of pair draws needed to hit an all-inlier pair
// with probability ransacStopProb at the current inlier ratio.
func dynamicTrials(inliers, n int) int {
	ratio := float64(inliers) / float64(n)
	denom := 1 - ratio*ratio
	switch {
	case denom <= 0:
		return 1
	case denom >= 1:
		return math.MaxInt
	}
	trials := math.Ceil(math.Log(1-ransacStopProb) / math.Log(denom))
	if trials > float64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(trials)
}

func subsetRSquared(x, y []float64, idx []int, slope, intercept float64) float64 {
	sx := make([]float64, len(idx))
	sy := make([]float64, len(idx))
	for k, i := range idx {
		sx[k], sy[k] = x[i], y[i]
	}
	return stat.RSquared(sx, sy, nil, intercept, slope)
}

func medianAbsDeviation(y []float64) float64 {
	med, err := timestats.Median(y)
	if err != nil {
		return 0
	}
	dev := make([]float64, len(y))
	for i, v := range y {
		dev[i] = math.Abs(v - med)
	}
	mad, err := timestats.Median(dev)
	if err != nil {
		return 0
	}
	return mad
}

// LogLog holds the log(window size) and log(fluctuation) pairs of a scaling
// analysis.
type LogLog struct {
	X, Y []float64
}

// Len returns the number of pairs.
func (l LogLog) Len() int {
	return len(l.X)
}

// RSquared returns the coefficient of determination of the least-squares
// line through the pairs. NaN when fewer than three pairs are available or
// Y is constant.
func (l LogLog) RSquared() float64 {
	if l.Len() < 3 || floats.Max(l.Y) == floats.Min(l.Y) {
		return math.NaN()
	}
	alpha, beta := stat.LinearRegression(l.X, l.Y, nil, false)
	return stat.RSquared(l.X, l.Y, nil, alpha, beta)
}
