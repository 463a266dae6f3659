package utils

import (
	"fmt"
	"strings"
	"time"
)

// DayCount names a day count convention.
type DayCount string

const (
	Act360     DayCount = "ACT/360"
	Act365F    DayCount = "ACT/365F"
	Thirty360  DayCount = "30/360"
	ThirtyE360 DayCount = "30E/360"
)

var dayCountAliases = map[string]DayCount{
	"ACT/360":        Act360,
	"ACTUAL360":      Act360,
	"ACTUAL/360":     Act360,
	"ACT/365F":       Act365F,
	"ACT/365":        Act365F,
	"ACTUAL365FIXED": Act365F,
	"30/360":         Thirty360,
	"THIRTY360":      Thirty360,
	"30E/360":        ThirtyE360,
}

// ParseDayCount accepts the canonical names plus the QuantLib-style spellings
// (Actual360, Actual365Fixed, Thirty360).
func ParseDayCount(s string) (DayCount, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if dc, ok := dayCountAliases[key]; ok {
		return dc, nil
	}
	return "", fmt.Errorf("unknown day count %q", s)
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention DayCount) float64 {
	switch convention {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case ThirtyE360, Thirty360:
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}
