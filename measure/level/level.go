// Package level measures and adjusts signal level in dBFS.
//
// The level of a span is its RMS relative to the full-scale amplitude,
// 20*log10(rms/fullScale). A silent span has level -Inf.
package level

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fvdm/dsp/core"
	timestats "github.com/cwbudde/algo-fvdm/stats/time"
)

// Func measures the level of a contiguous span of samples in dB.
type Func func(samples []float64) float64

// DBFS returns the RMS level of samples relative to fullScale.
// Returns -Inf for empty or silent input. A non-positive fullScale is
// treated as 1.
func DBFS(samples []float64, fullScale float64) float64 {
	if fullScale <= 0 {
		fullScale = 1
	}
	return core.LinearToDB(timestats.RMS(samples) / fullScale)
}

// DBFSFunc returns a Func measuring dBFS against fullScale.
func DBFSFunc(fullScale float64) Func {
	return func(samples []float64) float64 {
		return DBFS(samples, fullScale)
	}
}

// ForSignal returns the dBFS Func matching the full scale of sig.
func ForSignal(sig core.Signal) Func {
	return DBFSFunc(sig.Scale())
}

// ApplyGain writes src scaled by gainDB into dst, clipping the result to
// ±fullScale like a fixed-point sample format would. dst and src must have
// equal length; they may alias.
func ApplyGain(dst, src []float64, gainDB, fullScale float64) {
	if fullScale <= 0 {
		fullScale = 1
	}

	factor := core.DBToLinear(gainDB)
	if math.IsInf(factor, 0) || math.IsNaN(factor) {
		copy(dst, src)
		return
	}

	vecmath.ScaleBlock(dst, src, factor)
	if factor <= 1 {
		return
	}
	for i, v := range dst {
		dst[i] = core.Clamp(v, -fullScale, fullScale)
	}
}

// GainTo returns the gain in dB that moves level current to target.
// Non-finite levels (silence) need no gain and return 0.
func GainTo(target, current float64) float64 {
	if math.IsInf(target, 0) || math.IsInf(current, 0) || math.IsNaN(target) || math.IsNaN(current) {
		return 0
	}
	return target - current
}
