package fractal

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// Analysis is the result of one scaling analysis.
type Analysis struct {
	Exponent float64
	// LogLog holds log(n) against the uncorrected log fluctuation of every
	// window size that produced a usable value.
	LogLog LogLog
}

// HurstRS estimates the Hurst exponent of x by rescaled range analysis over
// the window sizes nvals.
//
// For every size n the series is cut into len(x)/n non-overlapping segments;
// the mean R/S ratio of the segments is the fluctuation at n. With corrected
// set, the Anis-Lloyd-Peters expectation of R/S for white noise is divided
// out before fitting and the exponent is slope + 0.5, which removes the
// small-window bias of plain R/S.
func HurstRS(x []float64, nvals []int, corrected bool, fitter Fitter) (Analysis, error) {
	if err := validateWindows(x, nvals, 2); err != nil {
		return Analysis{}, fmt.Errorf("hurst r/s: %w", err)
	}

	var ll LogLog
	var fitY []float64
	for _, n := range nvals {
		rs := rescaledRange(x, n)
		if math.IsNaN(rs) {
			continue
		}
		logN, logRS := math.Log(float64(n)), math.Log(rs)
		ll.X = append(ll.X, logN)
		ll.Y = append(ll.Y, logRS)
		if corrected {
			logRS -= math.Log(expectedRS(n))
		}
		fitY = append(fitY, logRS)
	}
	if ll.Len() < 2 {
		return Analysis{}, fmt.Errorf("%w: hurst r/s has %d usable window sizes", core.ErrDegenerateSignal, ll.Len())
	}

	slope, _, err := fitter.Fit(ll.X, fitY)
	if err != nil {
		return Analysis{}, fmt.Errorf("hurst r/s: %w", err)
	}
	if corrected {
		slope += 0.5
	}
	return Analysis{Exponent: slope, LogLog: ll}, nil
}

// rescaledRange returns the mean R/S over the len(x)/n segments of size n.
// Segments without range are skipped; NaN means none was left.
func rescaledRange(x []float64, n int) float64 {
	m := len(x) / n

	var sum float64
	var count int
	for s := range m {
		seg := x[s*n : (s+1)*n]

		var mean float64
		for _, v := range seg {
			mean += v
		}
		mean /= float64(n)

		var cum, lo, hi, ss float64
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, v := range seg {
			d := v - mean
			ss += d * d
			cum += d
			lo = math.Min(lo, cum)
			hi = math.Max(hi, cum)
		}
		r := hi - lo
		if r == 0 {
			continue
		}
		sum += r / math.Sqrt(ss/float64(n-1))
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// expectedRS is the Anis-Lloyd-Peters expectation of R/S for n independent
// Gaussian samples. Above n = 340 the gamma ratio is replaced by its
// asymptotic form.
func expectedRS(n int) float64 {
	nf := float64(n)
	front := (nf - 0.5) / nf

	var back float64
	for i := 1; i < n; i++ {
		back += math.Sqrt((nf - float64(i)) / float64(i))
	}

	var middle float64
	if n <= 340 {
		a, _ := math.Lgamma((nf - 1) / 2)
		b, _ := math.Lgamma(nf / 2)
		middle = math.Exp(a-b) / math.Sqrt(math.Pi)
	} else {
		middle = 1 / math.Sqrt(nf*math.Pi/2)
	}
	return front * middle * back
}

// validateWindows checks that nvals is usable and that x is longer than the
// largest window.
func validateWindows(x []float64, nvals []int, minN int) error {
	if len(nvals) == 0 {
		return fmt.Errorf("window sizes must not be empty")
	}
	if lo := slices.Min(nvals); lo < minN {
		return fmt.Errorf("window sizes must be >= %d: %d", minN, lo)
	}
	if hi := slices.Max(nvals); len(x) <= hi {
		return fmt.Errorf("%w: %d samples do not exceed the largest window of %d",
			core.ErrInsufficientData, len(x), hi)
	}
	return nil
}
