package calibration

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/meenmo/curvekit/config"
	"github.com/meenmo/curvekit/logging"
)

// Objective is a smooth scalar function with an exact gradient.
type Objective struct {
	Func func(x []float64) float64
	Grad func(grad, x []float64)
}

// Minimum is where an optimizer stopped.
type Minimum struct {
	X          []float64
	F          float64
	Iterations int
	// Converged is true when a stopping rule other than the iteration cap fired.
	Converged bool
	Status    string
}

// Optimizer minimises an Objective from x0.
type Optimizer interface {
	Minimize(obj Objective, x0 []float64) (Minimum, error)
}

// LBFGS is the gonum limited-memory BFGS optimizer, stopped by gradient
// threshold, function convergence or the iteration cap.
type LBFGS struct {
	Settings config.Optimizer
	Logger   *zap.Logger
}

func (o *LBFGS) Minimize(obj Objective, x0 []float64) (Minimum, error) {
	settings := &optimize.Settings{
		GradientThreshold: o.Settings.GradientThreshold,
		MajorIterations:   o.Settings.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Relative:   1e-12,
			Iterations: 25,
		},
		Recorder: &zapRecorder{logger: logging.OrNop(o.Logger)},
	}
	problem := optimize.Problem{Func: obj.Func, Grad: obj.Grad}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		if err == nil {
			err = fmt.Errorf("optimizer returned no result")
		}
		return Minimum{X: append([]float64(nil), x0...), F: math.Inf(1)}, err
	}

	m := Minimum{
		X:          result.X,
		F:          result.F,
		Iterations: result.MajorIterations,
		Status:     result.Status.String(),
	}
	switch result.Status {
	case optimize.GradientThreshold, optimize.FunctionConvergence, optimize.Success:
		m.Converged = true
	}
	return m, err
}

// zapRecorder emits one debug event per major iteration.
type zapRecorder struct {
	logger *zap.Logger
}

func (r *zapRecorder) Init() error { return nil }

func (r *zapRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	fields := []zap.Field{
		zap.Int("iteration", stats.MajorIterations),
		zap.Float64("loss", loc.F),
		zap.Int("evaluations", stats.FuncEvaluations),
	}
	if loc.Gradient != nil {
		fields = append(fields, zap.Float64("grad_max", maxAbs(loc.Gradient)))
	}
	r.logger.Debug("optimizer iteration", fields...)
	return nil
}

func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
