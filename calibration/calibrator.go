// Package calibration builds curves from instrument strategies and links them
// into a registry. One entry point, Calibrator.Calibrate, dispatches on Mode.
package calibration

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/config"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/logging"
	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/metrics"
	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/registry"
	"github.com/meenmo/curvekit/utils"
	"github.com/meenmo/curvekit/valuation"
)

// RootSolver finds a root of fn inside b, starting from guess.
type RootSolver func(fn numeric.Objective, guess float64, b numeric.Bracket, s numeric.RootSettings) (numeric.Root, error)

// Calibrator owns the evaluation date and the registry curves are linked into.
// It is safe for concurrent use.
type Calibrator struct {
	registry  *registry.Registry
	asOf      time.Time
	cfg       config.Config
	logger    *zap.Logger
	solve     RootSolver
	optimizer Optimizer
}

type Option func(*Calibrator)

func WithLogger(l *zap.Logger) Option {
	return func(c *Calibrator) { c.logger = logging.OrNop(l) }
}

func WithConfig(cfg config.Config) Option {
	return func(c *Calibrator) { c.cfg = cfg }
}

// WithRootSolver replaces numeric.SolveRoot in the bootstrap.
func WithRootSolver(s RootSolver) Option {
	return func(c *Calibrator) { c.solve = s }
}

// WithOptimizer replaces the L-BFGS optimizer of the differentiable calibrator.
func WithOptimizer(o Optimizer) Option {
	return func(c *Calibrator) { c.optimizer = o }
}

// New returns a calibrator that values instruments as of asOf and links
// results into reg.
func New(reg *registry.Registry, asOf time.Time, opts ...Option) *Calibrator {
	c := &Calibrator{
		registry: reg,
		asOf:     asOf,
		cfg:      config.DefaultConfig,
		logger:   zap.NewNop(),
		solve:    numeric.SolveRoot,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.optimizer == nil {
		c.optimizer = &LBFGS{Settings: c.cfg.Optimizer, Logger: c.logger}
	}
	return c
}

func (c *Calibrator) AsOf() time.Time              { return c.asOf }
func (c *Calibrator) Registry() *registry.Registry { return c.registry }

// Request is one curve to calibrate.
type Request struct {
	Target   *definition.Target
	Strategy *definition.Strategy
	Mode     Mode
	// ExogenousDiscount names a registry curve that discounts every helper.
	// Empty means the curve discounts itself.
	ExogenousDiscount string
}

// Result is a calibrated and linked curve.
type Result struct {
	Curve *curve.Curve
	Slot  *registry.Slot
	// Residuals are the par residuals of the instruments, in strategy order,
	// repriced on the final curve.
	Residuals []float64
	// Loss is the sum of squared residuals.
	Loss float64
	// Gradient is d(Loss)/d(zero rate) per pillar; set by Differentiable only.
	Gradient   []float64
	Iterations int
	// Helpers are the valuation constraints, in strategy order.
	Helpers []*valuation.Helper
}

// Calibrate builds the curve described by req and links it under the target's
// curve name. Nothing is linked when an error is returned.
func (c *Calibrator) Calibrate(req Request) (res *Result, err error) {
	if req.Target == nil || req.Strategy == nil {
		return nil, &definition.ConfigurationError{Reason: "request needs a target and a strategy"}
	}
	name := req.Target.CurveName()
	logger := c.logger.With(zap.String("curve", name), zap.String("mode", req.Mode.String()))
	start := time.Now()
	logger.Info("calibration started",
		zap.String("strategy", req.Strategy.Name()),
		zap.Int("instruments", req.Strategy.Len()),
		zap.String("discount", req.ExogenousDiscount),
	)

	defer func() {
		iterations := 0
		if res != nil {
			iterations = res.Iterations
		}
		metrics.ObserveCalibration(req.Mode.String(), start, iterations, err)
		if err != nil {
			logger.Error("calibration failed", zap.Error(err))
			return
		}
		logger.Info("calibration finished",
			zap.Int("pillars", len(res.Curve.Pillars())),
			zap.Int("iterations", res.Iterations),
			zap.Float64("loss", res.Loss),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	switch req.Mode {
	case Bootstrap:
		res, err = c.bootstrap(req, false, logger)
	case SingleCurveRFR:
		res, err = c.bootstrap(req, true, logger)
	case Differentiable:
		res, err = c.differentiable(req, logger)
	default:
		return nil, &definition.ConfigurationError{Reason: fmt.Sprintf("unknown calibration mode %s", req.Mode)}
	}
	if err != nil {
		return nil, err
	}

	slot, err := c.registry.Link(name, res.Curve)
	if err != nil {
		return nil, fmt.Errorf("Calibrate %q: %w", name, err)
	}
	res.Slot = slot
	return res, nil
}

// anchor holds what every helper of one calibration shares.
type anchor struct {
	spot     time.Time
	calendar calendar.CalendarID
	dayCount utils.DayCount
	index    *market.Index
}

// resolveAnchor places the curve at spot = asOf + settlement business days.
// The calendar is the strategy calendar, else the index calendar; the time
// axis uses the strategy day count, else the index day count, else the
// configured default.
func (c *Calibrator) resolveAnchor(req Request) anchor {
	conv := req.Strategy.Conventions()

	var idx *market.Index
	if v, ok := req.Target.UnderlyingIndex(); ok {
		idx = &v
	} else if v, ok := conv.Index(); ok {
		idx = &v
	}

	a := anchor{calendar: calendar.NONE, dayCount: c.cfg.Curve.DayCount, index: idx}
	if cal, ok := conv.Calendar(); ok {
		a.calendar = cal
	} else if v, ok := conv.Index(); ok {
		a.calendar = v.Calendar
	} else if idx != nil {
		a.calendar = idx.Calendar
	}
	if dc, ok := conv.DayCount(); ok {
		a.dayCount = dc
	} else if idx != nil && idx.DayCount != "" {
		a.dayCount = idx.DayCount
	}
	if a.dayCount == "" {
		a.dayCount = utils.Act365F
	}

	lag, _ := conv.Settlement()
	a.spot = calendar.AddBusinessDays(a.calendar, c.asOf, lag)
	return a
}

// resolveDiscount reads the exogenous discount curve, if any. It must run
// before any helper is built.
func (c *Calibrator) resolveDiscount(req Request) (*curve.Curve, error) {
	if req.ExogenousDiscount == "" {
		return nil, nil
	}
	d, err := c.registry.Read(req.ExogenousDiscount)
	if err != nil {
		return nil, fmt.Errorf("curve %q: %w", req.Target.CurveName(), err)
	}
	return d, nil
}

// instrumentSet is what helper construction reads from a strategy.
type instrumentSet interface {
	Len() int
	Instrument(i int) (definition.Instrument, definition.Period)
	Conventions() definition.Conventions
}

// buildHelpers turns every instrument into a valuation helper, in strategy order.
func buildHelpers(req Request, a anchor, discount *curve.Curve) ([]*valuation.Helper, error) {
	return newHelpers(req.Target, req.Strategy, a, discount)
}

func newHelpers(target *definition.Target, instruments instrumentSet, a anchor, discount *curve.Curve) ([]*valuation.Helper, error) {
	conv := instruments.Conventions()
	setup := valuation.Setup{
		Spot:     a.spot,
		Calendar: a.calendar,
		Discount: discount,
	}
	setup.DayCount, _ = conv.DayCount()
	setup.FixedDayCount, _ = conv.FixedDayCount()

	helpers := make([]*valuation.Helper, 0, instruments.Len())
	for i := 0; i < instruments.Len(); i++ {
		inst, tenor := instruments.Instrument(i)
		s := setup

		var h *valuation.Helper
		switch inst.Type {
		case definition.Deposit:
			h = valuation.NewDeposit(tenor, inst.Rate, s)
		case definition.OIS:
			idx, ok := conv.Index()
			if !ok {
				return nil, &definition.ConfigurationError{Key: definition.KeyIndex, InstrumentType: inst.Type, Reason: "required convention missing"}
			}
			s.Index = idx
			h = valuation.NewOIS(tenor, inst.Rate, s)
		case definition.Swap:
			idx, err := swapIndex(target, conv)
			if err != nil {
				return nil, err
			}
			s.Index = idx
			sw, err := valuation.NewSwap(tenor, inst.Rate, s)
			if err != nil {
				return nil, fmt.Errorf("instrument %d: %w", i, err)
			}
			h = sw
		default:
			return nil, &UnsupportedInstrumentError{Index: i, Type: inst.Type}
		}
		helpers = append(helpers, h)
	}
	return helpers, nil
}

// swapIndex picks the floating index of a swap: the target's underlying
// index, else the strategy index.
func swapIndex(target *definition.Target, conv definition.Conventions) (market.Index, error) {
	if idx, ok := target.UnderlyingIndex(); ok {
		return idx, nil
	}
	if idx, ok := conv.Index(); ok {
		return idx, nil
	}
	return market.Index{}, &definition.ConfigurationError{
		Key:            definition.KeyIndex,
		InstrumentType: definition.Swap,
		Reason:         "swap needs a floating index on the target or in the conventions",
	}
}

// pillarTimes maps helpers to curve time on the anchor's day count.
func pillarTimes(helpers []*valuation.Helper, a anchor) []float64 {
	ts := make([]float64, len(helpers))
	for i, h := range helpers {
		ts[i] = utils.YearFraction(a.spot, h.Latest, a.dayCount)
	}
	return ts
}

func noInstruments(req Request) error {
	return &CalibrationError{
		Curve:           req.Target.CurveName(),
		Reason:          "no instruments",
		InstrumentIndex: -1,
	}
}
