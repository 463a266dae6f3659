package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/utils"
)

// Index describes a floating-rate benchmark well enough to build curve
// instrument schedules against it.
type Index struct {
	Name     string
	Currency string
	// TenorMonths is the accrual period of a term index; 0 marks an overnight index.
	TenorMonths  int
	DayCount     utils.DayCount
	Calendar     calendar.CalendarID
	FixingDays   int
	PayDelayDays int
}

// IsOvernight reports whether the index is an overnight benchmark used in OIS discounting/projection.
func (i Index) IsOvernight() bool {
	return i.TenorMonths == 0
}

// Preset indices for USD, EUR, GBP and JPY.
var (
	SOFR = Index{
		Name:         "SOFR",
		Currency:     "USD",
		DayCount:     utils.Act360,
		Calendar:     calendar.USD,
		PayDelayDays: 2,
	}

	ESTR = Index{
		Name:         "ESTR",
		Currency:     "EUR",
		DayCount:     utils.Act360,
		Calendar:     calendar.TARGET,
		PayDelayDays: 1,
	}

	SONIA = Index{
		Name:     "SONIA",
		Currency: "GBP",
		DayCount: utils.Act365F,
		Calendar: calendar.GBP,
	}

	TONAR = Index{
		Name:         "TONAR",
		Currency:     "JPY",
		DayCount:     utils.Act365F,
		Calendar:     calendar.JPN,
		PayDelayDays: 2,
	}

	TermSOFR3M = Index{
		Name:        "TERMSOFR3M",
		Currency:    "USD",
		TenorMonths: 3,
		DayCount:    utils.Act360,
		Calendar:    calendar.USD,
		FixingDays:  2,
	}

	EURIBOR3M = Index{
		Name:        "EURIBOR3M",
		Currency:    "EUR",
		TenorMonths: 3,
		DayCount:    utils.Act360,
		Calendar:    calendar.TARGET,
		FixingDays:  2,
	}

	EURIBOR6M = Index{
		Name:        "EURIBOR6M",
		Currency:    "EUR",
		TenorMonths: 6,
		DayCount:    utils.Act360,
		Calendar:    calendar.TARGET,
		FixingDays:  2,
	}

	TIBOR3M = Index{
		Name:        "TIBOR3M",
		Currency:    "JPY",
		TenorMonths: 3,
		DayCount:    utils.Act365F,
		Calendar:    calendar.JPN,
		FixingDays:  2,
	}

	TIBOR6M = Index{
		Name:        "TIBOR6M",
		Currency:    "JPY",
		TenorMonths: 6,
		DayCount:    utils.Act365F,
		Calendar:    calendar.JPN,
		FixingDays:  2,
	}
)

var known = map[string]Index{}

func init() {
	for _, idx := range []Index{SOFR, ESTR, SONIA, TONAR, TermSOFR3M, EURIBOR3M, EURIBOR6M, TIBOR3M, TIBOR6M} {
		known[idx.Name] = idx
	}
}

// Lookup resolves an index by name. Matching is case-insensitive and ignores
// spaces, dashes and underscores; "€STR" resolves to ESTR.
func Lookup(name string) (Index, error) {
	key := strings.ToUpper(strings.NewReplacer(" ", "", "-", "", "_", "", "€", "E").Replace(name))
	if idx, ok := known[key]; ok {
		return idx, nil
	}
	return Index{}, fmt.Errorf("unknown rate index %q", name)
}

// Names lists the known index names in sorted order.
func Names() []string {
	out := make([]string, 0, len(known))
	for k := range known {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
