package calendar

import (
	"fmt"
	"strings"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	USD    CalendarID = "USD"
	GBP    CalendarID = "GBP"
	JPN    CalendarID = "JPN"
	// NONE treats every weekday as a business day.
	NONE CalendarID = "NONE"
)

var calendarAliases = map[string]CalendarID{
	"TARGET":                  TARGET,
	"EUR":                     TARGET,
	"USD":                     USD,
	"US":                      USD,
	"UNITEDSTATES":            USD,
	"UNITEDSTATES.SETTLEMENT": USD,
	"GBP":                     GBP,
	"UK":                      GBP,
	"UNITEDKINGDOM":           GBP,
	"JPN":                     JPN,
	"JP":                      JPN,
	"JAPAN":                   JPN,
	"NONE":                    NONE,
	"WEEKENDSONLY":            NONE,
}

// Parse resolves a calendar name, accepting common aliases.
func Parse(name string) (CalendarID, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	if id, ok := calendarAliases[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown calendar %q", name)
}

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTargetHoliday(t)
	case USD:
		return isUSDHoliday(t)
	case GBP:
		return isGBPHoliday(t)
	case JPN:
		return isJPNHoliday(t)
	default:
		return false
	}
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
// With n == 0 a non-business day rolls forward to the next business day.
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	if n == 0 {
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, 1)
		}
		return t
	}
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
