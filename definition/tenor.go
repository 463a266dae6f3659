package definition

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/curvekit/utils"
)

// PeriodUnit is the unit of a tenor.
type PeriodUnit byte

const (
	Days   PeriodUnit = 'D'
	Weeks  PeriodUnit = 'W'
	Months PeriodUnit = 'M'
	Years  PeriodUnit = 'Y'
)

// Period is a parsed tenor such as 1W, 3M or 10Y.
type Period struct {
	N    int
	Unit PeriodUnit
}

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to a Period.
// "ON" is accepted as one day.
func ParseTenor(tenor string) (Period, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if s == "ON" {
		return Period{N: 1, Unit: Days}, nil
	}
	if len(s) < 2 {
		return Period{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	unit := PeriodUnit(s[len(s)-1])
	switch unit {
	case Days, Weeks, Months, Years:
	default:
		return Period{}, fmt.Errorf("invalid tenor %q: unknown unit %q", tenor, string(unit))
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Period{}, fmt.Errorf("invalid tenor %q: %w", tenor, err)
	}
	if n <= 0 {
		return Period{}, fmt.Errorf("invalid tenor %q: must be positive", tenor)
	}
	return Period{N: n, Unit: unit}, nil
}

// Normalize folds weeks into days and years into months, so 12M and 1Y compare equal.
func (p Period) Normalize() Period {
	switch p.Unit {
	case Weeks:
		return Period{N: p.N * 7, Unit: Days}
	case Years:
		return Period{N: p.N * 12, Unit: Months}
	}
	return p
}

// AddTo returns t shifted by the period. Month arithmetic follows EDATE.
func (p Period) AddTo(t time.Time) time.Time {
	switch p.Unit {
	case Days:
		return t.AddDate(0, 0, p.N)
	case Weeks:
		return t.AddDate(0, 0, 7*p.N)
	case Months:
		return utils.AddMonth(t, p.N)
	case Years:
		return utils.AddMonth(t, 12*p.N)
	}
	return t
}

// Months returns the period length in whole months, or 0 for day/week tenors.
func (p Period) Months() int {
	n := p.Normalize()
	if n.Unit == Months {
		return n.N
	}
	return 0
}

func (p Period) String() string {
	return strconv.Itoa(p.N) + string(p.Unit)
}
