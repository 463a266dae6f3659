package calibration

import (
	"fmt"
	"strings"
)

// Mode selects the construction method of a calibration.
type Mode int

const (
	// Bootstrap solves one pillar per instrument in strategy order.
	Bootstrap Mode = iota
	// SingleCurveRFR bootstraps an overnight curve that projects and
	// discounts its own OIS instruments.
	SingleCurveRFR
	// Differentiable fits all pillars jointly by quasi-Newton descent on
	// exact gradients.
	Differentiable
)

func (m Mode) String() string {
	switch m {
	case Bootstrap:
		return "bootstrap"
	case SingleCurveRFR:
		return "rfr"
	case Differentiable:
		return "differentiable"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the String form plus a few spellings used in session files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bootstrap":
		return Bootstrap, nil
	case "rfr", "single_curve_rfr", "singlecurverfr", "single-curve-rfr":
		return SingleCurveRFR, nil
	case "differentiable", "diff", "gradient":
		return Differentiable, nil
	}
	return 0, fmt.Errorf("unknown calibration mode %q", s)
}
