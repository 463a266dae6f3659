package definition

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/utils"
)

// InstrumentType is the closed set of quoted instruments a strategy may hold.
type InstrumentType string

const (
	Deposit InstrumentType = "Deposit"
	Swap    InstrumentType = "Swap"
	OIS     InstrumentType = "OIS"
)

// ParseInstrumentType accepts the canonical names case-insensitively.
func ParseInstrumentType(s string) (InstrumentType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEPOSIT", "DEPO":
		return Deposit, nil
	case "SWAP", "IRS":
		return Swap, nil
	case "OIS":
		return OIS, nil
	}
	return "", configError("", "", "unknown instrument type %q", s)
}

func (t InstrumentType) Valid() bool {
	return t == Deposit || t == Swap || t == OIS
}

// ConventionKey names a strategy convention parameter.
type ConventionKey string

const (
	KeySettlement    ConventionKey = "settlement"
	KeyCalendar      ConventionKey = "calendar"
	KeyDayCount      ConventionKey = "day_count"
	KeyFixedDayCount ConventionKey = "fixed_day_count"
	KeyIndex         ConventionKey = "index"
)

var knownKeys = map[ConventionKey]bool{
	KeySettlement:    true,
	KeyCalendar:      true,
	KeyDayCount:      true,
	KeyFixedDayCount: true,
	KeyIndex:         true,
}

var requiredKeys = map[InstrumentType][]ConventionKey{
	Deposit: {KeySettlement, KeyCalendar, KeyDayCount},
	Swap:    {KeySettlement, KeyCalendar, KeyDayCount, KeyFixedDayCount},
	OIS:     {KeySettlement, KeyIndex},
}

// RequiredKeys returns the convention keys an instrument type cannot do without.
func RequiredKeys(t InstrumentType) []ConventionKey {
	return append([]ConventionKey(nil), requiredKeys[t]...)
}

// Conventions is the parsed convention mapping of a strategy.
type Conventions struct {
	raw           map[ConventionKey]string
	settlement    int
	calendar      calendar.CalendarID
	dayCount      utils.DayCount
	fixedDayCount utils.DayCount
	index         market.Index
}

// ParseConventions validates keys and values. Missing keys are not an error
// here; requirements depend on the instruments.
func ParseConventions(raw map[ConventionKey]string) (Conventions, error) {
	c := Conventions{raw: make(map[ConventionKey]string, len(raw))}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, ks := range keys {
		k := ConventionKey(ks)
		v := strings.TrimSpace(raw[k])
		if !knownKeys[k] {
			return Conventions{}, configError(k, "", "unknown convention key")
		}
		var err error
		switch k {
		case KeySettlement:
			c.settlement, err = strconv.Atoi(v)
			if err == nil && c.settlement < 0 {
				return Conventions{}, configError(k, "", "settlement lag %d is negative", c.settlement)
			}
		case KeyCalendar:
			c.calendar, err = calendar.Parse(v)
		case KeyDayCount:
			c.dayCount, err = utils.ParseDayCount(v)
		case KeyFixedDayCount:
			c.fixedDayCount, err = utils.ParseDayCount(v)
		case KeyIndex:
			c.index, err = market.Lookup(v)
		}
		if err != nil {
			return Conventions{}, configError(k, "", "invalid value %q: %v", v, err)
		}
		c.raw[k] = v
	}
	return c, nil
}

// Has reports whether key was supplied.
func (c Conventions) Has(key ConventionKey) bool {
	_, ok := c.raw[key]
	return ok
}

// Raw returns a copy of the supplied key/value pairs.
func (c Conventions) Raw() map[ConventionKey]string {
	out := make(map[ConventionKey]string, len(c.raw))
	for k, v := range c.raw {
		out[k] = v
	}
	return out
}

func (c Conventions) Settlement() (int, bool)               { return c.settlement, c.Has(KeySettlement) }
func (c Conventions) Calendar() (calendar.CalendarID, bool) { return c.calendar, c.Has(KeyCalendar) }
func (c Conventions) DayCount() (utils.DayCount, bool)      { return c.dayCount, c.Has(KeyDayCount) }
func (c Conventions) FixedDayCount() (utils.DayCount, bool) {
	return c.fixedDayCount, c.Has(KeyFixedDayCount)
}
func (c Conventions) Index() (market.Index, bool) { return c.index, c.Has(KeyIndex) }

// Instrument is one quoted instrument. Rate is a decimal (0.05 is 5%).
type Instrument struct {
	Tenor string
	Rate  float64
	Type  InstrumentType
}

// Strategy is an ordered, validated set of instrument quotes plus the
// conventions needed to turn them into valuation constraints.
type Strategy struct {
	name        string
	instruments []Instrument
	periods     []Period
	conventions Conventions
}

// NewStrategy validates instruments and conventions. Instrument order is kept.
// An empty instrument list is accepted here and rejected by the calibrators.
func NewStrategy(name string, instruments []Instrument, conventions map[ConventionKey]string) (*Strategy, error) {
	conv, err := ParseConventions(conventions)
	if err != nil {
		return nil, err
	}

	s := &Strategy{
		name:        name,
		instruments: append([]Instrument(nil), instruments...),
		periods:     make([]Period, len(instruments)),
		conventions: conv,
	}

	seen := make(map[Period]string, len(instruments))
	for i, inst := range instruments {
		if !inst.Type.Valid() {
			return nil, configError("", inst.Type, "instrument %d: unknown instrument type %q", i, inst.Type)
		}
		p, err := ParseTenor(inst.Tenor)
		if err != nil {
			return nil, configError("", inst.Type, "instrument %d: %v", i, err)
		}
		if math.IsNaN(inst.Rate) || math.IsInf(inst.Rate, 0) {
			return nil, configError("", inst.Type, "instrument %d (%s): rate is not finite", i, inst.Tenor)
		}
		for _, key := range RequiredKeys(inst.Type) {
			if !conv.Has(key) {
				return nil, configError(key, inst.Type, "required convention missing")
			}
		}
		norm := p.Normalize()
		if prev, dup := seen[norm]; dup {
			return nil, configError("", inst.Type, "duplicate tenor %s (already quoted as %s)", inst.Tenor, prev)
		}
		seen[norm] = inst.Tenor
		s.periods[i] = p
	}
	return s, nil
}

func (s *Strategy) Name() string             { return s.name }
func (s *Strategy) Len() int                 { return len(s.instruments) }
func (s *Strategy) Conventions() Conventions { return s.conventions }

// Instruments returns a copy of the instruments in strategy order.
func (s *Strategy) Instruments() []Instrument {
	return append([]Instrument(nil), s.instruments...)
}

// Instrument returns the i-th instrument and its parsed tenor.
func (s *Strategy) Instrument(i int) (Instrument, Period) {
	return s.instruments[i], s.periods[i]
}
