package calendar

import "time"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

// nthWeekday returns the n-th weekday of the month (n < 0 counts from the end).
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	if n > 0 {
		first := date(year, month, 1)
		offset := (int(wd) - int(first.Weekday()) + 7) % 7
		return first.AddDate(0, 0, offset+7*(n-1))
	}
	last := date(year, month+1, 0)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset+7*(n+1))
}

// observedUS moves Saturday holidays to Friday and Sunday holidays to Monday.
func observedUS(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

func isTargetHoliday(t time.Time) bool {
	y, m, d := t.Date()
	easter := easterSunday(y)
	switch {
	case m == time.January && d == 1,
		m == time.May && d == 1,
		m == time.December && (d == 25 || d == 26):
		return true
	case sameDay(t, easter.AddDate(0, 0, -2)), sameDay(t, easter.AddDate(0, 0, 1)):
		return true
	}
	return false
}

func isUSDHoliday(t time.Time) bool {
	y := t.Year()
	fixed := []time.Time{
		observedUS(date(y, time.January, 1)),
		observedUS(date(y, time.July, 4)),
		observedUS(date(y, time.November, 11)),
		observedUS(date(y, time.December, 25)),
		// New Year's Day of the following year observed on Dec 31.
		observedUS(date(y+1, time.January, 1)),
	}
	if y >= 2022 {
		fixed = append(fixed, observedUS(date(y, time.June, 19)))
	}
	for _, h := range fixed {
		if sameDay(t, h) {
			return true
		}
	}
	floating := []time.Time{
		nthWeekday(y, time.January, time.Monday, 3),
		nthWeekday(y, time.February, time.Monday, 3),
		nthWeekday(y, time.May, time.Monday, -1),
		nthWeekday(y, time.September, time.Monday, 1),
		nthWeekday(y, time.October, time.Monday, 2),
		nthWeekday(y, time.November, time.Thursday, 4),
	}
	for _, h := range floating {
		if sameDay(t, h) {
			return true
		}
	}
	return false
}

func isGBPHoliday(t time.Time) bool {
	y := t.Year()
	easter := easterSunday(y)
	holidays := []time.Time{
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		nthWeekday(y, time.May, time.Monday, 1),
		nthWeekday(y, time.May, time.Monday, -1),
		nthWeekday(y, time.August, time.Monday, -1),
	}
	// New Year substitutes to the next Monday.
	ny := date(y, time.January, 1)
	for ny.Weekday() == time.Saturday || ny.Weekday() == time.Sunday {
		ny = ny.AddDate(0, 0, 1)
	}
	holidays = append(holidays, ny)
	// Christmas and Boxing Day substitute to the following weekdays.
	xmas := date(y, time.December, 25)
	boxing := date(y, time.December, 26)
	switch xmas.Weekday() {
	case time.Friday:
		boxing = date(y, time.December, 28)
	case time.Saturday:
		xmas = date(y, time.December, 27)
		boxing = date(y, time.December, 28)
	case time.Sunday:
		xmas = date(y, time.December, 27)
	}
	holidays = append(holidays, xmas, boxing)
	for _, h := range holidays {
		if sameDay(t, h) {
			return true
		}
	}
	return false
}

func isJPNHoliday(t time.Time) bool {
	_, m, d := t.Date()
	switch {
	case m == time.January && d <= 3:
		return true
	case m == time.December && d == 31:
		return true
	case m == time.May && d >= 3 && d <= 5:
		return true
	case m == time.February && d == 11,
		m == time.April && d == 29,
		m == time.November && (d == 3 || d == 23):
		return true
	}
	return false
}
