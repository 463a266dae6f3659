package curve

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/numeric"
	"github.com/meenmo/curvekit/utils"
)

var ref = time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)

func logLinearCurve(t *testing.T, extrapolate bool) *Curve {
	t.Helper()
	c, err := New(Params{
		Name:          "USD_OIS",
		Reference:     ref,
		DayCount:      utils.Act365F,
		Interpolation: LogLinear,
		Entity:        Discount,
		Index:         &market.SOFR,
		Pillars:       []float64{0, 0.5, 1, 2},
		Values:        []float64{1, math.Exp(-0.02), math.Exp(-0.041), math.Exp(-0.085)},
		Extrapolate:   extrapolate,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	base := func() Params {
		return Params{
			Name:          "X",
			Reference:     ref,
			Interpolation: LogLinear,
			Entity:        Discount,
			Pillars:       []float64{0, 1},
			Values:        []float64{1, 0.97},
		}
	}

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"unknown interpolation", func(p *Params) { p.Interpolation = "Cubic" }},
		{"unknown entity", func(p *Params) { p.Entity = "Basis" }},
		{"no pillars", func(p *Params) { p.Pillars, p.Values = nil, nil }},
		{"misaligned", func(p *Params) { p.Values = []float64{1} }},
		{"not increasing", func(p *Params) { p.Pillars = []float64{0, 0} }},
		{"non-positive df", func(p *Params) { p.Values = []float64{1, 0} }},
		{"not normalised", func(p *Params) { p.Values = []float64{0.99, 0.97} }},
		{"first pillar not zero", func(p *Params) { p.Pillars = []float64{0.1, 1} }},
		{"nan", func(p *Params) { p.Values = []float64{1, math.NaN()} }},
		{"pillar dates misaligned", func(p *Params) { p.PillarDates = []time.Time{ref} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base()
			tc.mutate(&p)
			_, err := New(p)
			require.ErrorIs(t, err, ErrInvalidCurve)
		})
	}

	c, err := New(base())
	require.NoError(t, err)
	assert.Equal(t, utils.Act365F, c.DayCount())
}

func TestLogLinear_PillarsAndInterpolation(t *testing.T) {
	t.Parallel()
	c := logLinearCurve(t, true)

	assert.Equal(t, 1.0, c.DiscountAt(0))
	assert.InDelta(t, math.Exp(-0.041), c.DiscountAt(1), 1e-15)

	// halfway between 1y and 2y in log space
	want := math.Exp(-(0.041 + 0.085) / 2)
	assert.InDelta(t, want, c.DiscountAt(1.5), 1e-14)

	// flat forward after the last pillar
	fwd := 0.085 - 0.041
	assert.InDelta(t, math.Exp(-0.085-fwd), c.DiscountAt(3), 1e-14)
	assert.InDelta(t, fwd, c.ForwardRate(2, 3), 1e-12)
}

func TestDiscount_Extrapolation(t *testing.T) {
	t.Parallel()

	strict := logLinearCurve(t, false)
	_, err := strict.Discount(2.5)
	require.ErrorIs(t, err, ErrExtrapolationDisabled)
	df, err := strict.Discount(2)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.085), df, 1e-15)

	loose := logLinearCurve(t, true)
	_, err = loose.Discount(10)
	require.NoError(t, err)
}

func TestLinear_ZeroRates(t *testing.T) {
	t.Parallel()

	c, err := New(Params{
		Name:          "EUR_6M",
		Reference:     ref,
		Interpolation: Linear,
		Entity:        Forward,
		Pillars:       []float64{0.5, 1, 2},
		Values:        []float64{0.03, 0.032, 0.036},
		Extrapolate:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, c.DiscountAt(0))
	assert.InDelta(t, 0.03, c.ZeroRate(0.25), 1e-15)
	assert.InDelta(t, 0.034, c.ZeroRate(1.5), 1e-15)
	assert.InDelta(t, 0.036, c.ZeroRate(5), 1e-15)
	assert.InDelta(t, math.Exp(-0.034*1.5), c.DiscountAt(1.5), 1e-15)
	assert.InDelta(t, 0.03, c.ZeroRate(0), 1e-15)
}

func TestDF_UsesCurveDayCount(t *testing.T) {
	t.Parallel()
	c := logLinearCurve(t, true)

	d := ref.AddDate(0, 0, 365)
	assert.InDelta(t, 1.0, c.TimeOf(d), 1e-15)
	assert.InDelta(t, c.DiscountAt(1), c.DF(d), 1e-15)
	assert.InDelta(t, 4.1, c.ZeroRateAt(d), 1e-12)
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()
	c := logLinearCurve(t, true)

	p := c.Pillars()
	p[1] = 99
	v := c.Values()
	v[1] = 99
	assert.Equal(t, 0.5, c.Pillars()[1])
	assert.InDelta(t, math.Exp(-0.02), c.Values()[1], 1e-15)

	idx, ok := c.Index()
	require.True(t, ok)
	assert.Equal(t, "SOFR", idx.Name)
	assert.Nil(t, c.PillarDates())
}

func TestDiscountAt_GenericMatchesFloat(t *testing.T) {
	t.Parallel()

	pillars := []float64{0, 1, 3}
	values := []float64{1, 0.97, 0.9}
	for _, tt := range []float64{0, 0.3, 1, 2.2, 3, 4} {
		got := DiscountAt[float64](numeric.Float{}, LogLinear, pillars, values, tt)
		assert.Greater(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	i, err := ParseInterpolation("loglinear")
	require.NoError(t, err)
	assert.Equal(t, LogLinear, i)
	_, err = ParseInterpolation("cubic")
	require.Error(t, err)

	e, err := ParseEntityType("Forward")
	require.NoError(t, err)
	assert.Equal(t, Forward, e)
	_, err = ParseEntityType("basis")
	require.Error(t, err)
}
