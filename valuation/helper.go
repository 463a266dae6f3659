// Package valuation turns quoted instruments into par-residual constraints on
// a curve. Residuals are written once, generically over numeric.Arithmetic, so
// the bootstrap and the differentiable calibrator price with the same formulas.
package valuation

import (
	"fmt"
	"time"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/utils"
)

// Period is one accrual period of an instrument leg.
type Period struct {
	Start   time.Time
	End     time.Time
	Pay     time.Time
	Accrual float64
}

// Helper is a valuation constraint built from one quote.
type Helper struct {
	Type  definition.InstrumentType
	Tenor string
	Quote float64
	// Float holds the projected periods; a deposit has exactly one.
	Float []Period
	// Fixed holds the fixed-leg periods of OIS and swaps.
	Fixed []Period
	// Discount is the exogenous discount curve, nil when the curve under
	// construction discounts itself.
	Discount *curve.Curve
	// Latest is the last date the helper reads from the curve; its time is
	// the pillar the helper determines.
	Latest time.Time
}

// Setup carries the resolved conventions shared by every helper of a strategy.
type Setup struct {
	Spot          time.Time
	Calendar      calendar.CalendarID
	DayCount      utils.DayCount
	FixedDayCount utils.DayCount
	Index         market.Index
	Discount      *curve.Curve
}

// NewDeposit builds a deposit from spot to spot+tenor.
func NewDeposit(tenor definition.Period, quote float64, s Setup) *Helper {
	end := calendar.Adjust(s.Calendar, tenor.AddTo(s.Spot))
	p := Period{
		Start:   s.Spot,
		End:     end,
		Pay:     end,
		Accrual: utils.YearFraction(s.Spot, end, s.DayCount),
	}
	return &Helper{
		Type:     definition.Deposit,
		Tenor:    tenor.String(),
		Quote:    quote,
		Float:    []Period{p},
		Discount: s.Discount,
		Latest:   end,
	}
}

// NewOIS builds an overnight indexed swap with annual periods rolled backward
// from maturity. Both legs share the schedule; payments lag period ends by the
// index payment delay.
func NewOIS(tenor definition.Period, quote float64, s Setup) *Helper {
	cal := s.Calendar
	if cal == "" {
		cal = s.Index.Calendar
	}
	fixedDC := s.FixedDayCount
	if fixedDC == "" {
		fixedDC = s.Index.DayCount
	}
	periods := schedule(s.Spot, tenor, 12, cal, s.Index.PayDelayDays, fixedDC)
	return &Helper{
		Type:     definition.OIS,
		Tenor:    tenor.String(),
		Quote:    quote,
		Float:    periods,
		Fixed:    periods,
		Discount: s.Discount,
		Latest:   latest(periods),
	}
}

// NewSwap builds a fixed-vs-IBOR swap. The floating leg resets at the index
// tenor; the fixed leg pays annually.
func NewSwap(tenor definition.Period, quote float64, s Setup) (*Helper, error) {
	if s.Index.Name == "" {
		return nil, fmt.Errorf("NewSwap: %s swap has no floating index", tenor)
	}
	floatMonths := s.Index.TenorMonths
	if floatMonths == 0 {
		floatMonths = 12
	}
	floatDC := s.DayCount
	if floatDC == "" {
		floatDC = s.Index.DayCount
	}
	floating := schedule(s.Spot, tenor, floatMonths, s.Calendar, s.Index.PayDelayDays, floatDC)
	fixed := schedule(s.Spot, tenor, 12, s.Calendar, s.Index.PayDelayDays, s.FixedDayCount)

	last := latest(floating)
	if l := latest(fixed); l.After(last) {
		last = l
	}
	return &Helper{
		Type:     definition.Swap,
		Tenor:    tenor.String(),
		Quote:    quote,
		Float:    floating,
		Fixed:    fixed,
		Discount: s.Discount,
		Latest:   last,
	}, nil
}

// schedule generates periods from spot to spot+tenor, rolling backward from
// maturity every stepMonths so any stub sits at the front. Day and week
// tenors produce a single period.
func schedule(spot time.Time, tenor definition.Period, stepMonths int, cal calendar.CalendarID, payDelay int, dc utils.DayCount) []Period {
	var unadjusted []time.Time
	months := tenor.Months()
	if months == 0 || months <= stepMonths {
		unadjusted = []time.Time{tenor.AddTo(spot)}
	} else {
		for m := months; m > 0; m -= stepMonths {
			unadjusted = append(unadjusted, utils.AddMonth(spot, m))
		}
		// reverse into chronological order
		for i, j := 0, len(unadjusted)-1; i < j; i, j = i+1, j-1 {
			unadjusted[i], unadjusted[j] = unadjusted[j], unadjusted[i]
		}
	}

	periods := make([]Period, 0, len(unadjusted))
	start := spot
	for _, d := range unadjusted {
		end := calendar.Adjust(cal, d)
		pay := end
		if payDelay > 0 {
			pay = calendar.AddBusinessDays(cal, end, payDelay)
		}
		periods = append(periods, Period{
			Start:   start,
			End:     end,
			Pay:     pay,
			Accrual: utils.YearFraction(start, end, dc),
		})
		start = end
	}
	return periods
}

func latest(periods []Period) time.Time {
	var last time.Time
	for _, p := range periods {
		if p.End.After(last) {
			last = p.End
		}
		if p.Pay.After(last) {
			last = p.Pay
		}
	}
	return last
}
