package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/registry"
)

// Tuesday; USD spot is Thursday 2025-01-09.
var asOf = time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)

func usdConventions() map[definition.ConventionKey]string {
	return map[definition.ConventionKey]string{
		definition.KeySettlement: "2",
		definition.KeyCalendar:   "USD",
		definition.KeyDayCount:   "Actual360",
		definition.KeyIndex:      "SOFR",
	}
}

func mustTarget(t *testing.T, name string, interp curve.Interpolation, entity curve.EntityType, idx *market.Index) *definition.Target {
	t.Helper()
	tg, err := definition.NewTarget(name, interp, entity, idx)
	require.NoError(t, err)
	return tg
}

func mustStrategy(t *testing.T, instruments []definition.Instrument, conv map[definition.ConventionKey]string) *definition.Strategy {
	t.Helper()
	s, err := definition.NewStrategy("test", instruments, conv)
	require.NoError(t, err)
	return s
}

// depositOISRequest is the two-instrument scenario: a 3M deposit at 5% and a
// 1Y OIS at 5.2%, ACT/360, two-day settlement.
func depositOISRequest(t *testing.T, mode Mode) Request {
	t.Helper()
	return Request{
		Target: mustTarget(t, "USD_OIS", curve.LogLinear, curve.Discount, nil),
		Strategy: mustStrategy(t, []definition.Instrument{
			{Tenor: "3M", Rate: 0.05, Type: definition.Deposit},
			{Tenor: "1Y", Rate: 0.052, Type: definition.OIS},
		}, usdConventions()),
		Mode: mode,
	}
}

func sofrOISInstruments(shift float64) []definition.Instrument {
	quotes := []struct {
		tenor string
		rate  float64
	}{
		{"1M", 0.0433}, {"3M", 0.0431}, {"6M", 0.0425}, {"1Y", 0.0418},
		{"2Y", 0.0405}, {"3Y", 0.0398}, {"5Y", 0.0392}, {"10Y", 0.0395},
	}
	out := make([]definition.Instrument, len(quotes))
	for i, q := range quotes {
		out[i] = definition.Instrument{Tenor: q.tenor, Rate: q.rate + shift, Type: definition.OIS}
	}
	return out
}

func rfrRequest(t *testing.T, shift float64) Request {
	t.Helper()
	return Request{
		Target: mustTarget(t, "USD_OIS", curve.LogLinear, curve.Discount, &market.SOFR),
		Strategy: mustStrategy(t, sofrOISInstruments(shift), map[definition.ConventionKey]string{
			definition.KeySettlement: "2",
			definition.KeyIndex:      "SOFR",
		}),
		Mode: SingleCurveRFR,
	}
}

// termSOFRRequest is a 3M projection curve discounted on USD_OIS.
func termSOFRRequest(t *testing.T, mode Mode) Request {
	t.Helper()
	return Request{
		Target: mustTarget(t, "USD_3M", curve.LogLinear, curve.Forward, &market.TermSOFR3M),
		Strategy: mustStrategy(t, []definition.Instrument{
			{Tenor: "3M", Rate: 0.0435, Type: definition.Deposit},
			{Tenor: "1Y", Rate: 0.0428, Type: definition.Swap},
			{Tenor: "2Y", Rate: 0.0415, Type: definition.Swap},
			{Tenor: "3Y", Rate: 0.0408, Type: definition.Swap},
		}, map[definition.ConventionKey]string{
			definition.KeySettlement:    "2",
			definition.KeyCalendar:      "USD",
			definition.KeyDayCount:      "ACT/360",
			definition.KeyFixedDayCount: "30/360",
		}),
		Mode:              mode,
		ExogenousDiscount: "USD_OIS",
	}
}

func newCalibrator(opts ...Option) (*Calibrator, *registry.Registry) {
	reg := registry.New(nil)
	return New(reg, asOf, opts...), reg
}
