package stationarity

import (
	"fmt"
	"strings"
)

// Regression selects the deterministic terms included in a test regression.
type Regression int

const (
	// Constant includes an intercept only.
	Constant Regression = iota
	// ConstantTrend includes an intercept and a linear time trend.
	ConstantTrend
)

// String returns the conventional short name ("c" or "ct").
func (r Regression) String() string {
	switch r {
	case Constant:
		return "c"
	case ConstantTrend:
		return "ct"
	default:
		return fmt.Sprintf("Regression(%d)", int(r))
	}
}

// ParseRegression maps "c" or "ct" to a Regression.
func ParseRegression(name string) (Regression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "c", "constant":
		return Constant, nil
	case "ct", "constant-trend":
		return ConstantTrend, nil
	default:
		return 0, fmt.Errorf("unknown regression %q", name)
	}
}

// terms returns the number of deterministic regressors.
func (r Regression) terms() int {
	if r == ConstantTrend {
		return 2
	}
	return 1
}
