package calibration

import (
	"fmt"
	"strings"

	"github.com/meenmo/curvekit/definition"
)

// CalibrationError reports a calibration that could not produce a curve.
// InstrumentIndex is -1 when the failure is not tied to one instrument.
type CalibrationError struct {
	Curve           string
	Reason          string
	InstrumentIndex int
	Tenor           string
	// FinalLoss and GradientNorm are set by the differentiable calibrator.
	FinalLoss    float64
	GradientNorm float64
	Err          error
}

func (e *CalibrationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "calibration of %q failed: %s", e.Curve, e.Reason)
	if e.InstrumentIndex >= 0 {
		fmt.Fprintf(&b, " (instrument %d, tenor %s)", e.InstrumentIndex, e.Tenor)
	}
	if e.FinalLoss != 0 || e.GradientNorm != 0 {
		fmt.Fprintf(&b, " (loss=%.3g, |grad|=%.3g)", e.FinalLoss, e.GradientNorm)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CalibrationError) Unwrap() error { return e.Err }

// UnsupportedInstrumentError is returned for an instrument type no helper
// exists for. Such instruments are never skipped.
type UnsupportedInstrumentError struct {
	Index int
	Type  definition.InstrumentType
}

func (e *UnsupportedInstrumentError) Error() string {
	return fmt.Sprintf("unsupported instrument type %q at index %d", e.Type, e.Index)
}
