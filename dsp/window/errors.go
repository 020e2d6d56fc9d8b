package window

import (
	"fmt"

	"github.com/cwbudde/algo-fvdm/dsp/core"
)

func validateFrames(total, length, shift int) error {
	if length <= 0 {
		return fmt.Errorf("window length must be > 0: %d", length)
	}
	if shift <= 0 || shift > length {
		return fmt.Errorf("window shift must be in (0, %d]: %d", length, shift)
	}
	if total < length {
		return fmt.Errorf("%w: %d samples shorter than window length %d",
			core.ErrInsufficientSamples, total, length)
	}
	return nil
}
