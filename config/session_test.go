package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/definition"
)

const sessionYAML = `
as_of: "2025-01-07"
curves:
  - name: USD_OIS
    mode: bootstrap
    interpolation: LogLinear
    entity: Discount
    index: SOFR
    strategy:
      name: usd-ois
      unit: percent
      conventions:
        settlement: 2
        calendar: USD
        day_count: Actual360
        index: SOFR
      instruments:
        - {tenor: 3M, rate: 5.00, type: Deposit}
        - {tenor: 1Y, rate: 5.20, type: OIS}
        - {tenor: 2Y, rate: "498bp", type: OIS}
  - name: USD_3M
    mode: differentiable
    interpolation: Linear
    entity: Forward
    index: TERM SOFR 3M
    discount: USD_OIS
    stage: 1
    strategy:
      conventions:
        settlement: 2
        calendar: USD
        day_count: ACT/360
        fixed_day_count: 30/360
      instruments:
        - {tenor: 2Y, rate: 0.0505, type: Swap}
`

func TestParseSession(t *testing.T) {
	t.Parallel()

	s, err := ParseSession([]byte(sessionYAML))
	require.NoError(t, err)
	require.Len(t, s.Curves, 2)

	asOf, err := s.AsOfDate()
	require.NoError(t, err)
	assert.Equal(t, 2025, asOf.Year())

	stages := s.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "USD_OIS", stages[0][0].Name)
	assert.Equal(t, "USD_3M", stages[1][0].Name)

	target, err := s.Curves[0].Target()
	require.NoError(t, err)
	assert.Equal(t, curve.LogLinear, target.Interpolation())

	strat, err := s.Curves[0].BuildStrategy()
	require.NoError(t, err)
	assert.Equal(t, "usd-ois", strat.Name())
	insts := strat.Instruments()
	assert.InDelta(t, 0.05, insts[0].Rate, 1e-15)
	assert.InDelta(t, 0.052, insts[1].Rate, 1e-15)
	assert.InDelta(t, 0.0498, insts[2].Rate, 1e-15)
	assert.Equal(t, definition.OIS, insts[2].Type)

	target, err = s.Curves[1].Target()
	require.NoError(t, err)
	idx, ok := target.UnderlyingIndex()
	require.True(t, ok)
	assert.Equal(t, 3, idx.TenorMonths)

	strat, err = s.Curves[1].BuildStrategy()
	require.NoError(t, err)
	assert.Equal(t, "USD_3M", strat.Name())
	assert.InDelta(t, 0.0505, strat.Instruments()[0].Rate, 1e-15)
}

func TestParseSession_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing as_of":  "curves: [{name: A}]",
		"bad as_of":      "as_of: 2025-13-40\ncurves: [{name: A}]",
		"no curves":      "as_of: 2025-01-07\n",
		"duplicate name": "as_of: 2025-01-07\ncurves: [{name: A}, {name: A}]",
		"unknown field":  "as_of: 2025-01-07\ncurves: [{name: A, colour: red}]",
		"bad rate": `as_of: 2025-01-07
curves:
  - name: A
    strategy:
      instruments: [{tenor: 1Y, rate: "abc", type: OIS}]`,
	}
	for name, doc := range tests {
		_, err := ParseSession([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestQuote_Units(t *testing.T) {
	t.Parallel()

	var q Quote
	require.NoError(t, yaml.Unmarshal([]byte(`"4.125%"`), &q))
	v, err := q.Decimal("")
	require.NoError(t, err)
	assert.InDelta(t, 0.04125, v, 1e-16)

	require.NoError(t, yaml.Unmarshal([]byte(`12.5bp`), &q))
	v, err = q.Decimal("percent")
	require.NoError(t, err)
	assert.InDelta(t, 0.00125, v, 1e-16)

	require.NoError(t, yaml.Unmarshal([]byte(`3.5`), &q))
	v, err = q.Decimal("percent")
	require.NoError(t, err)
	assert.InDelta(t, 0.035, v, 1e-16)

	_, err = q.Decimal("furlongs")
	require.Error(t, err)
}

func TestCurveSpec_BadEnums(t *testing.T) {
	t.Parallel()

	_, err := CurveSpec{Name: "A", Interpolation: "cubic"}.Target()
	require.Error(t, err)
	_, err = CurveSpec{Name: "A", Index: "LIBOR"}.Target()
	require.Error(t, err)
	_, err = CurveSpec{Name: "A", Strategy: StrategySpec{
		Instruments: []InstrumentSpec{{Tenor: "1Y", Type: "FRA"}},
	}}.BuildStrategy()
	var cfgErr *definition.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
