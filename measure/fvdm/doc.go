// Package fvdm extracts Filtered Vowel Distortion Measures from a vowel
// segment.
//
// The pipeline removes the multiplicative (volume) trend with a sliding
// level window, splits the result into empirical modes, and characterises
// the fine-scale residual by its fractal scaling exponent:
//
//   - Stability: scaling exponent of the residual in [0, 1]; near 1 is
//     smooth and persistent, near 0 rough. Marked invalid when the residual
//     is not stationary (optional gate) or its log-log relation is not
//     linear.
//   - AdditiveVariance: spread of the slow additive trend.
//   - MultiplicativeVariance: spread of the per-window level in dB.
//
// # Usage
//
//	ex := fvdm.New(fvdm.WithEstimator(fvdm.EstimatorBoth))
//	res, err := ex.Extract(ctx, sig, &fvdm.Segment{StartMs: 120, EndMs: 620})
//	if err != nil {
//		return err
//	}
//	if res.Stability.Valid {
//		fmt.Printf("stability %.3f\n", res.Stability.Value)
//	}
package fvdm
