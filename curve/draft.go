package curve

import (
	"time"

	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/utils"
)

// Draft is a curve under construction whose pillar values live in an
// arbitrary arithmetic, typically a differentiation tape.
type Draft[V any] struct {
	Ops           numeric.Arithmetic[V]
	Interpolation Interpolation
	Reference     time.Time
	DayCount      utils.DayCount
	Pillars       []float64
	Values        []V
}

// DF returns the discount factor at date d under the draft's interpolation law.
func (d *Draft[V]) DF(date time.Time) V {
	t := utils.YearFraction(d.Reference, date, d.DayCount)
	return DiscountAt(d.Ops, d.Interpolation, d.Pillars, d.Values, t)
}
