package signal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

// NormalizeAmplitude linearly maps x onto [-1, 1] so that min(x) becomes -1
// and max(x) becomes +1:
//
//	y[i] = 2*(x[i]-min)/(max-min) - 1
//
// Ordering is preserved, and normalizing the result again reproduces it.
// Empty and constant inputs fail with [core.ErrDegenerateSignal].
func NormalizeAmplitude(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: normalize input must not be empty", core.ErrDegenerateSignal)
	}

	lo, hi := floats.Min(x), floats.Max(x)
	span := hi - lo
	if span == 0 || math.IsNaN(span) {
		return nil, fmt.Errorf("%w: normalize input is constant (min=max=%g)", core.ErrDegenerateSignal, lo)
	}

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 2*((v-lo)/span) - 1
	}
	return out, nil
}
