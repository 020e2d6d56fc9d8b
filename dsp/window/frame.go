// Package window generates the sliding analysis frames used by the trend
// removers.
//
// Frames start at 0 and advance by a fixed shift while the whole frame fits
// inside the signal. Samples after the last full frame are not covered: the
// tail is dropped, never padded.
package window

// Frame is a contiguous span of sample indices [Start, Start+Length).
// Shift is the distance to the next frame; Shift < Length implies overlap.
type Frame struct {
	Start  int
	Length int
	Shift  int
}

// End returns the exclusive end index.
func (f Frame) End() int {
	return f.Start + f.Length
}

// Fresh returns the sub-span of f not covered by the previous frame: the
// whole frame for the first one, the last Shift samples otherwise.
func (f Frame) Fresh() (start, end int) {
	if f.Start == 0 {
		return f.Start, f.End()
	}
	return f.End() - f.Shift, f.End()
}

// Count returns the number of full frames of length with step shift that fit
// in total samples. It returns 0 when no frame fits or the parameters are
// invalid.
func Count(total, length, shift int) int {
	if length <= 0 || shift <= 0 || total < length {
		return 0
	}
	return (total-length)/shift + 1
}

// Covered returns the number of samples spanned by Count(total, length, shift)
// frames: length + (k-1)*shift.
func Covered(total, length, shift int) int {
	k := Count(total, length, shift)
	if k == 0 {
		return 0
	}
	return length + (k-1)*shift
}

// Frames returns all full frames over total samples. It requires
// 0 < shift <= length <= total; a signal shorter than one frame fails with
// core.ErrInsufficientSamples.
func Frames(total, length, shift int) ([]Frame, error) {
	if err := validateFrames(total, length, shift); err != nil {
		return nil, err
	}

	frames := make([]Frame, 0, Count(total, length, shift))
	for start := 0; start+length <= total; start += shift {
		frames = append(frames, Frame{Start: start, Length: length, Shift: shift})
	}
	return frames, nil
}
