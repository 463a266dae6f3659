package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
	"github.com/meenmo/curvekit/utils"
)

type fixedInstruments struct {
	instruments []definition.Instrument
	periods     []definition.Period
	conventions definition.Conventions
}

func (f fixedInstruments) Len() int { return len(f.instruments) }

func (f fixedInstruments) Instrument(i int) (definition.Instrument, definition.Period) {
	return f.instruments[i], f.periods[i]
}

func (f fixedInstruments) Conventions() definition.Conventions { return f.conventions }

func TestNewHelpers_UnsupportedInstrument(t *testing.T) {
	t.Parallel()

	conv, err := definition.ParseConventions(usdConventions())
	require.NoError(t, err)
	p3m, err := definition.ParseTenor("3M")
	require.NoError(t, err)
	p1y, err := definition.ParseTenor("1Y")
	require.NoError(t, err)

	set := fixedInstruments{
		instruments: []definition.Instrument{
			{Tenor: "3M", Rate: 0.05, Type: definition.Deposit},
			{Tenor: "1Y", Rate: 0.05, Type: "FRA"},
		},
		periods:     []definition.Period{p3m, p1y},
		conventions: conv,
	}
	a := anchor{
		spot:     time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		calendar: calendar.USD,
		dayCount: utils.Act360,
	}

	_, err = newHelpers(mustTarget(t, "USD_OIS", curve.LogLinear, curve.Discount, nil), set, a, nil)
	var unsupported *UnsupportedInstrumentError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 1, unsupported.Index)
	assert.Equal(t, definition.InstrumentType("FRA"), unsupported.Type)
}
