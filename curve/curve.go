package curve

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/utils"
)

var (
	// ErrInvalidCurve is returned when curve data violates the pillar invariants.
	ErrInvalidCurve = errors.New("invalid curve")
	// ErrExtrapolationDisabled is returned by Discount beyond the last pillar of a
	// curve built without extrapolation.
	ErrExtrapolationDisabled = errors.New("extrapolation disabled")
)

// pillarEpsilon absorbs round-off when comparing a query time to the last pillar.
const pillarEpsilon = 1e-12

// Curve is an immutable, calibrated term structure. Pillars are year fractions
// from the reference date on the curve's day count basis.
type Curve struct {
	name          string
	reference     time.Time
	dayCount      utils.DayCount
	interpolation Interpolation
	entity        EntityType
	index         *market.Index
	pillarDates   []time.Time
	pillars       []float64
	values        []float64
	extrapolate   bool
}

// Params carries the inputs of New.
type Params struct {
	Name          string
	Reference     time.Time
	DayCount      utils.DayCount
	Interpolation Interpolation
	Entity        EntityType
	Index         *market.Index
	// PillarDates is optional; when set it must align with Pillars.
	PillarDates []time.Time
	Pillars     []float64
	Values      []float64
	Extrapolate bool
}

// New validates p and builds a curve. LogLinear curves store discount factors
// and must start with the pillar (0, 1.0); Linear curves store zero rates.
func New(p Params) (*Curve, error) {
	if !p.Interpolation.Valid() {
		return nil, fmt.Errorf("%w: interpolation %q", ErrInvalidCurve, p.Interpolation)
	}
	if !p.Entity.Valid() {
		return nil, fmt.Errorf("%w: entity type %q", ErrInvalidCurve, p.Entity)
	}
	if len(p.Pillars) == 0 {
		return nil, fmt.Errorf("%w: no pillars", ErrInvalidCurve)
	}
	if len(p.Pillars) != len(p.Values) {
		return nil, fmt.Errorf("%w: %d pillars but %d values", ErrInvalidCurve, len(p.Pillars), len(p.Values))
	}
	if p.PillarDates != nil && len(p.PillarDates) != len(p.Pillars) {
		return nil, fmt.Errorf("%w: %d pillar dates but %d pillars", ErrInvalidCurve, len(p.PillarDates), len(p.Pillars))
	}
	if p.Pillars[0] < 0 {
		return nil, fmt.Errorf("%w: negative first pillar %g", ErrInvalidCurve, p.Pillars[0])
	}
	for i := 1; i < len(p.Pillars); i++ {
		if !(p.Pillars[i] > p.Pillars[i-1]) {
			return nil, fmt.Errorf("%w: pillars not strictly increasing at %d (%g after %g)",
				ErrInvalidCurve, i, p.Pillars[i], p.Pillars[i-1])
		}
	}
	for i, v := range p.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is not finite", ErrInvalidCurve, i)
		}
		if p.Interpolation.StoresDiscountFactors() && v <= 0 {
			return nil, fmt.Errorf("%w: non-positive discount factor %g at pillar %d", ErrInvalidCurve, v, i)
		}
	}
	if p.Interpolation.StoresDiscountFactors() && (p.Pillars[0] != 0 || p.Values[0] != 1) {
		return nil, fmt.Errorf("%w: discount curve must start at (0, 1.0), got (%g, %g)",
			ErrInvalidCurve, p.Pillars[0], p.Values[0])
	}

	dc := p.DayCount
	if dc == "" {
		dc = utils.Act365F
	}
	c := &Curve{
		name:          p.Name,
		reference:     p.Reference,
		dayCount:      dc,
		interpolation: p.Interpolation,
		entity:        p.Entity,
		pillars:       append([]float64(nil), p.Pillars...),
		values:        append([]float64(nil), p.Values...),
		extrapolate:   p.Extrapolate,
	}
	if p.Index != nil {
		idx := *p.Index
		c.index = &idx
	}
	if p.PillarDates != nil {
		c.pillarDates = append([]time.Time(nil), p.PillarDates...)
	}
	return c, nil
}

// Name returns the curve name.
func (c *Curve) Name() string { return c.name }

// Reference returns the date at which t == 0.
func (c *Curve) Reference() time.Time { return c.reference }

// DayCount returns the curve's time-axis day count convention.
func (c *Curve) DayCount() utils.DayCount { return c.dayCount }

// Interpolation returns the interpolation law.
func (c *Curve) Interpolation() Interpolation { return c.interpolation }

// Entity returns the role of the curve.
func (c *Curve) Entity() EntityType { return c.entity }

// Index returns the rate index the curve projects, if any.
func (c *Curve) Index() (market.Index, bool) {
	if c.index == nil {
		return market.Index{}, false
	}
	return *c.index, true
}

// ExtrapolationEnabled reports whether queries past the last pillar are allowed.
func (c *Curve) ExtrapolationEnabled() bool { return c.extrapolate }

// Pillars returns a copy of the pillar times.
func (c *Curve) Pillars() []float64 { return append([]float64(nil), c.pillars...) }

// Values returns a copy of the pillar values (discount factors or zero rates).
func (c *Curve) Values() []float64 { return append([]float64(nil), c.values...) }

// PillarDates returns a copy of the pillar dates, or nil when the curve was
// built from times only.
func (c *Curve) PillarDates() []time.Time {
	if c.pillarDates == nil {
		return nil
	}
	return append([]time.Time(nil), c.pillarDates...)
}

// LastPillar returns the largest pillar time.
func (c *Curve) LastPillar() float64 { return c.pillars[len(c.pillars)-1] }

// TimeOf converts a date to curve time.
func (c *Curve) TimeOf(d time.Time) float64 {
	return utils.YearFraction(c.reference, d, c.dayCount)
}

// DiscountAt returns the discount factor at time t, extending the
// interpolation law past the last pillar.
func (c *Curve) DiscountAt(t float64) float64 {
	return DiscountAt[float64](numeric.Float{}, c.interpolation, c.pillars, c.values, t)
}

// Discount is DiscountAt with the extrapolation flag enforced.
func (c *Curve) Discount(t float64) (float64, error) {
	if !c.extrapolate && t > c.LastPillar()+pillarEpsilon {
		return 0, fmt.Errorf("Discount: t=%g beyond last pillar %g: %w", t, c.LastPillar(), ErrExtrapolationDisabled)
	}
	return c.DiscountAt(t), nil
}

// DF returns the discount factor at date d.
func (c *Curve) DF(d time.Time) float64 {
	return c.DiscountAt(c.TimeOf(d))
}

// ZeroRate returns the continuously-compounded zero rate at time t (decimal).
// At t <= 0 it returns the short-end limit.
func (c *Curve) ZeroRate(t float64) float64 {
	if t <= 0 {
		if !c.interpolation.StoresDiscountFactors() {
			return c.values[0]
		}
		if len(c.pillars) < 2 {
			return 0
		}
		return -math.Log(c.values[1]) / c.pillars[1]
	}
	return -math.Log(c.DiscountAt(t)) / t
}

// ZeroRateAt returns the zero rate at date d in percent, matching the quote convention.
func (c *Curve) ZeroRateAt(d time.Time) float64 {
	return c.ZeroRate(c.TimeOf(d)) * 100
}

// ForwardRate returns the continuously-compounded forward rate between t1 and t2.
func (c *Curve) ForwardRate(t1, t2 float64) float64 {
	if t2 <= t1 {
		return c.ZeroRate(t1)
	}
	return math.Log(c.DiscountAt(t1)/c.DiscountAt(t2)) / (t2 - t1)
}
