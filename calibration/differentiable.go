package calibration

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/curvekit/autodiff"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/valuation"
)

// differentiable fits one zero rate per instrument pillar by minimising the
// sum of squared par residuals. Instrument order does not matter. The
// optimizer works on z*t per pillar, which keeps short and long pillars on a
// comparable scale.
func (c *Calibrator) differentiable(req Request, logger *zap.Logger) (*Result, error) {
	if req.Strategy.Len() == 0 {
		return nil, noInstruments(req)
	}
	discount, err := c.resolveDiscount(req)
	if err != nil {
		return nil, err
	}
	a := c.resolveAnchor(req)
	helpers, err := buildHelpers(req, a, discount)
	if err != nil {
		return nil, err
	}

	// Parameters follow pillar order; helpers keep strategy order.
	times := pillarTimes(helpers, a)
	order := make([]int, len(helpers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return times[order[i]] < times[order[j]] })

	pillars := make([]float64, len(order))
	dates := make([]time.Time, len(order))
	x0 := make([]float64, len(order))
	for k, i := range order {
		pillars[k] = times[i]
		dates[k] = helpers[i].Latest
		x0[k] = helpers[i].Quote * times[i]
		if pillars[k] <= 0 || (k > 0 && pillars[k] <= pillars[k-1]) {
			return nil, &definition.ConfigurationError{
				InstrumentType: helpers[i].Type,
				Reason:         fmt.Sprintf("instrument %d (%s) shares its pillar with another instrument", i, helpers[i].Tenor),
			}
		}
	}

	interp := req.Target.Interpolation()
	fit := &lossFunction{
		interp:  interp,
		anchor:  a,
		helpers: helpers,
		pillars: pillars,
	}

	best, optErr := c.optimizer.Minimize(Objective{Func: fit.value, Grad: fit.gradient}, x0)
	zeros := fit.zeros(best.X)
	if len(best.X) != len(x0) {
		return nil, &CalibrationError{
			Curve:           req.Target.CurveName(),
			Reason:          fmt.Sprintf("optimizer returned %d parameters, want %d", len(best.X), len(x0)),
			InstrumentIndex: -1,
			Err:             optErr,
		}
	}
	loss, grad := fit.evaluate(zeros)
	if math.IsNaN(loss) {
		loss = math.Inf(1)
	}
	accepted := loss <= c.cfg.Optimizer.LossTolerance || (optErr == nil && best.Converged)
	if !accepted {
		reason := fmt.Sprintf("optimizer stopped without converging (%s after %d iterations)", best.Status, best.Iterations)
		return nil, &CalibrationError{
			Curve:           req.Target.CurveName(),
			Reason:          reason,
			InstrumentIndex: -1,
			FinalLoss:       loss,
			GradientNorm:    floats.Norm(grad, 2),
			Err:             optErr,
		}
	}
	if optErr != nil {
		logger.Warn("optimizer reported an error below loss tolerance", zap.Error(optErr), zap.Float64("loss", loss))
	}

	values := zeros
	curvePillars := pillars
	if interp.StoresDiscountFactors() {
		curvePillars = append([]float64{0}, pillars...)
		dates = append([]time.Time{a.spot}, dates...)
		values = make([]float64, len(pillars)+1)
		values[0] = 1
		for k, z := range zeros {
			values[k+1] = math.Exp(-z * pillars[k])
		}
	}

	out, err := curve.New(curve.Params{
		Name:          req.Target.CurveName(),
		Reference:     a.spot,
		DayCount:      a.dayCount,
		Interpolation: interp,
		Entity:        req.Target.Entity(),
		Index:         a.index,
		PillarDates:   dates,
		Pillars:       curvePillars,
		Values:        values,
		Extrapolate:   true,
	})
	if err != nil {
		return nil, &CalibrationError{Curve: req.Target.CurveName(), Reason: "invalid curve", InstrumentIndex: -1, Err: err}
	}

	residuals, _ := reprice(helpers, out)
	return &Result{
		Curve:      out,
		Residuals:  residuals,
		Helpers:    helpers,
		Loss:       loss,
		Gradient:   grad,
		Iterations: best.Iterations,
	}, nil
}

// lossFunction is the sum of squared residuals as a function of the pillar
// zero rates. The last evaluation is memoised since the optimizer asks for
// value and gradient at the same point separately.
type lossFunction struct {
	interp  curve.Interpolation
	anchor  anchor
	helpers []*valuation.Helper
	pillars []float64

	lastX    []float64
	lastLoss float64
	lastGrad []float64
}

// zeros maps optimizer coordinates y = z*t back to zero rates.
func (f *lossFunction) zeros(y []float64) []float64 {
	if len(y) != len(f.pillars) {
		return nil
	}
	z := make([]float64, len(y))
	for k := range y {
		z[k] = y[k] / f.pillars[k]
	}
	return z
}

func (f *lossFunction) value(y []float64) float64 {
	loss, _ := f.evaluate(f.zeros(y))
	return loss
}

func (f *lossFunction) gradient(grad, y []float64) {
	_, g := f.evaluate(f.zeros(y))
	for k := range grad {
		grad[k] = g[k] / f.pillars[k]
	}
}

func (f *lossFunction) evaluate(x []float64) (float64, []float64) {
	if f.lastX != nil && floats.Equal(f.lastX, x) {
		return f.lastLoss, append([]float64(nil), f.lastGrad...)
	}

	tape := autodiff.NewTape()
	zeros := tape.Variables(x)

	pillars, values := f.pillars, zeros
	if f.interp.StoresDiscountFactors() {
		pillars = append([]float64{0}, f.pillars...)
		values = make([]autodiff.Var, 0, len(zeros)+1)
		values = append(values, tape.Const(1))
		for k, z := range zeros {
			values = append(values, tape.Exp(tape.Scale(z, -f.pillars[k])))
		}
	}
	draft := &curve.Draft[autodiff.Var]{
		Ops:           tape,
		Interpolation: f.interp,
		Reference:     f.anchor.spot,
		DayCount:      f.anchor.dayCount,
		Pillars:       pillars,
		Values:        values,
	}

	squares := make([]autodiff.Var, len(f.helpers))
	for i, h := range f.helpers {
		r := valuation.Evaluate[autodiff.Var](tape, h, draft)
		squares[i] = tape.Mul(r, r)
	}
	loss := numeric.Sum[autodiff.Var](tape, squares)

	f.lastX = append(f.lastX[:0], x...)
	f.lastLoss = tape.Value(loss)
	f.lastGrad = tape.Gradient(loss, zeros)
	return f.lastLoss, append([]float64(nil), f.lastGrad...)
}
