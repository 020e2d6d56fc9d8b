package fractal

import (
	"fmt"
	"math"
)

// LogarithmicN returns window sizes growing geometrically by factor from
// minN up to at most maxN. Sizes that round down to a previous value are
// skipped, so the result is strictly increasing and starts at minN.
func LogarithmicN(minN, maxN int, factor float64) ([]int, error) {
	if minN < 2 || maxN <= minN {
		return nil, fmt.Errorf("window sizes must satisfy 2 <= min < max: [%d, %d]", minN, maxN)
	}
	if !(factor > 1) {
		return nil, fmt.Errorf("window growth factor must be > 1: %f", factor)
	}

	maxI := int(math.Floor(math.Log(float64(maxN)/float64(minN)) / math.Log(factor)))
	ns := []int{minN}
	for i := 0; i <= maxI; i++ {
		n := int(math.Floor(float64(minN) * math.Pow(factor, float64(i))))
		if n > ns[len(ns)-1] {
			ns = append(ns, n)
		}
	}
	return ns, nil
}
