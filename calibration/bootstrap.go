package calibration

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/curvekit/autodiff"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/valuation"
)

// zeroRateBracket bounds the unknown of a Linear bootstrap step.
var zeroRateBracket = numeric.Bracket{Lo: -1, Hi: 1}

// maxDiscountFactor is the upper edge of the discount factor bracket, wide
// enough for deeply negative rates at the short end.
const maxDiscountFactor = 2.0

// bootstrap solves one pillar per instrument, in strategy order. With rfr set
// the strategy must be a self-discounted overnight OIS strip.
func (c *Calibrator) bootstrap(req Request, rfr bool, logger *zap.Logger) (*Result, error) {
	if req.Strategy.Len() == 0 {
		return nil, noInstruments(req)
	}
	if rfr {
		if err := checkRFR(req); err != nil {
			return nil, err
		}
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
	times := pillarTimes(helpers, a)
	for i := range times {
		if times[i] <= 0 || (i > 0 && times[i] <= times[i-1]) {
			return nil, &definition.ConfigurationError{
				InstrumentType: helpers[i].Type,
				Reason: fmt.Sprintf("instrument %d (%s) does not extend the curve: maturities must be strictly increasing in strategy order",
					i, helpers[i].Tenor),
			}
		}
	}

	interp := req.Target.Interpolation()
	var (
		pillars []float64
		values  []float64
		dates   []time.Time
	)
	if interp.StoresDiscountFactors() {
		pillars, values, dates = []float64{0}, []float64{1}, []time.Time{a.spot}
	}

	settings := c.cfg.Solver.RootSettings()
	totalIterations := 0
	for i, h := range helpers {
		t := times[i]
		objective := c.pillarObjective(interp, a, h, pillars, values, t)

		guess, bracket := math.Exp(-h.Quote*t), numeric.Bracket{Lo: c.cfg.Solver.MinDiscountFactor, Hi: maxDiscountFactor}
		if !interp.StoresDiscountFactors() {
			guess, bracket = h.Quote, zeroRateBracket
		}

		root, err := c.solve(objective, guess, bracket, settings)
		if err != nil {
			return nil, &CalibrationError{
				Curve:           req.Target.CurveName(),
				Reason:          "root search failed",
				InstrumentIndex: i,
				Tenor:           h.Tenor,
				Err:             err,
			}
		}
		totalIterations += root.Iterations

		pillars = append(pillars, t)
		values = append(values, root.X)
		dates = append(dates, h.Latest)
		logger.Debug("pillar solved",
			zap.Int("instrument", i),
			zap.String("type", string(h.Type)),
			zap.String("tenor", h.Tenor),
			zap.Float64("t", t),
			zap.Float64("value", root.X),
			zap.Float64("residual", root.Residual),
			zap.Int("iterations", root.Iterations),
		)
	}

	out, err := curve.New(curve.Params{
		Name:          req.Target.CurveName(),
		Reference:     a.spot,
		DayCount:      a.dayCount,
		Interpolation: interp,
		Entity:        req.Target.Entity(),
		Index:         a.index,
		PillarDates:   dates,
		Pillars:       pillars,
		Values:        values,
		Extrapolate:   true,
	})
	if err != nil {
		return nil, &CalibrationError{Curve: req.Target.CurveName(), Reason: "invalid curve", InstrumentIndex: -1, Err: err}
	}

	residuals, loss := reprice(helpers, out)
	return &Result{
		Curve:      out,
		Residuals:  residuals,
		Helpers:    helpers,
		Loss:       loss,
		Iterations: totalIterations,
	}, nil
}

// pillarObjective returns the residual of h and its exact derivative as a
// function of the single unknown pillar value at t. Earlier pillars are fixed.
func (c *Calibrator) pillarObjective(interp curve.Interpolation, a anchor, h *valuation.Helper, pillars, values []float64, t float64) numeric.Objective {
	trialPillars := append(append([]float64(nil), pillars...), t)
	return func(x float64) (float64, float64) {
		tape := autodiff.NewTape()
		unknown := tape.Variable(x)
		trial := make([]autodiff.Var, 0, len(values)+1)
		for _, v := range values {
			trial = append(trial, tape.Const(v))
		}
		trial = append(trial, unknown)

		draft := &curve.Draft[autodiff.Var]{
			Ops:           tape,
			Interpolation: interp,
			Reference:     a.spot,
			DayCount:      a.dayCount,
			Pillars:       trialPillars,
			Values:        trial,
		}
		r := valuation.Evaluate[autodiff.Var](tape, h, draft)
		return tape.Value(r), tape.Gradient(r, []autodiff.Var{unknown})[0]
	}
}

// checkRFR enforces the single-curve RFR contract: OIS only, no exogenous
// discount, overnight index.
func checkRFR(req Request) error {
	if req.ExogenousDiscount != "" {
		return &definition.ConfigurationError{
			Reason: fmt.Sprintf("single-curve RFR discounts on itself; exogenous discount %q not allowed", req.ExogenousDiscount),
		}
	}
	for i, inst := range req.Strategy.Instruments() {
		if inst.Type != definition.OIS {
			return &definition.ConfigurationError{
				InstrumentType: inst.Type,
				Reason:         fmt.Sprintf("single-curve RFR accepts OIS only, instrument %d is %s", i, inst.Type),
			}
		}
	}
	idx, ok := req.Strategy.Conventions().Index()
	if !ok {
		return &definition.ConfigurationError{Key: definition.KeyIndex, InstrumentType: definition.OIS, Reason: "required convention missing"}
	}
	if !idx.IsOvernight() {
		return &definition.ConfigurationError{
			Key:            definition.KeyIndex,
			InstrumentType: definition.OIS,
			Reason:         fmt.Sprintf("%s is not an overnight index", idx.Name),
		}
	}
	if target, ok := req.Target.UnderlyingIndex(); ok && target.Name != idx.Name {
		return &definition.ConfigurationError{
			Key:    definition.KeyIndex,
			Reason: fmt.Sprintf("target index %s differs from strategy index %s", target.Name, idx.Name),
		}
	}
	return nil
}

// reprice evaluates every helper on a finished curve.
func reprice(helpers []*valuation.Helper, c *curve.Curve) ([]float64, float64) {
	residuals := make([]float64, len(helpers))
	loss := 0.0
	for i, h := range helpers {
		residuals[i] = valuation.Evaluate[float64](numeric.Float{}, h, c)
		loss += residuals[i] * residuals[i]
	}
	return residuals, loss
}
