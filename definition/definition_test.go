package definition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/market"
	"github.com/meenmo/curvekit/utils"
)

func usdConventions() map[ConventionKey]string {
	return map[ConventionKey]string{
		KeySettlement:    "2",
		KeyCalendar:      "USD",
		KeyDayCount:      "Actual360",
		KeyFixedDayCount: "Actual360",
		KeyIndex:         "SOFR",
	}
}

func TestParseTenor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Period
	}{
		{"1W", Period{1, Weeks}},
		{"3m", Period{3, Months}},
		{" 10Y ", Period{10, Years}},
		{"ON", Period{1, Days}},
		{"45D", Period{45, Days}},
	}
	for _, tc := range tests {
		got, err := ParseTenor(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "Y", "0M", "-3M", "3Q", "abcM"} {
		_, err := ParseTenor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPeriod_NormalizeAndAdd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Period{12, Months}.Normalize(), Period{1, Years}.Normalize())
	assert.Equal(t, Period{14, Days}, Period{2, Weeks}.Normalize())
	assert.Equal(t, 24, Period{2, Years}.Months())
	assert.Equal(t, 0, Period{2, Weeks}.Months())

	d := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), Period{1, Months}.AddTo(d))
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), Period{1, Years}.AddTo(d))
	assert.Equal(t, time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC), Period{1, Weeks}.AddTo(d))
	assert.Equal(t, "6M", Period{6, Months}.String())
}

func TestNewTarget(t *testing.T) {
	t.Parallel()

	tg, err := NewTarget("USD_OIS", curve.LogLinear, curve.Discount, &market.SOFR)
	require.NoError(t, err)
	assert.Equal(t, "USD_OIS", tg.CurveName())
	idx, ok := tg.UnderlyingIndex()
	require.True(t, ok)
	assert.Equal(t, "SOFR", idx.Name)

	var cfgErr *ConfigurationError
	_, err = NewTarget(" ", curve.LogLinear, curve.Discount, nil)
	require.ErrorAs(t, err, &cfgErr)
	_, err = NewTarget("X", "Spline", curve.Discount, nil)
	require.ErrorAs(t, err, &cfgErr)
	_, err = NewTarget("X", curve.Linear, "Basis", nil)
	require.ErrorAs(t, err, &cfgErr)

	tg, err = NewTarget("X", curve.Linear, curve.Forward, nil)
	require.NoError(t, err)
	_, ok = tg.UnderlyingIndex()
	assert.False(t, ok)
}

func TestNewStrategy_Valid(t *testing.T) {
	t.Parallel()

	s, err := NewStrategy("usd", []Instrument{
		{Tenor: "3M", Rate: 0.05, Type: Deposit},
		{Tenor: "1Y", Rate: 0.052, Type: OIS},
		{Tenor: "2Y", Rate: 0.051, Type: Swap},
	}, usdConventions())
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	inst, p := s.Instrument(1)
	assert.Equal(t, OIS, inst.Type)
	assert.Equal(t, Period{1, Years}, p)

	conv := s.Conventions()
	lag, ok := conv.Settlement()
	require.True(t, ok)
	assert.Equal(t, 2, lag)
	cal, _ := conv.Calendar()
	assert.Equal(t, calendar.USD, cal)
	dc, _ := conv.DayCount()
	assert.Equal(t, utils.Act360, dc)
	idx, _ := conv.Index()
	assert.Equal(t, "SOFR", idx.Name)
}

func TestNewStrategy_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		instruments []Instrument
		conventions map[ConventionKey]string
		wantKey     ConventionKey
	}{
		{
			name:        "unknown type",
			instruments: []Instrument{{Tenor: "1Y", Rate: 0.01, Type: "FRA"}},
			conventions: usdConventions(),
		},
		{
			name:        "bad tenor",
			instruments: []Instrument{{Tenor: "1X", Rate: 0.01, Type: OIS}},
			conventions: usdConventions(),
		},
		{
			name:        "unknown key",
			instruments: []Instrument{{Tenor: "1Y", Rate: 0.01, Type: OIS}},
			conventions: map[ConventionKey]string{KeySettlement: "2", KeyIndex: "SOFR", "fixed_frequency": "1Y"},
			wantKey:     "fixed_frequency",
		},
		{
			name:        "bad calendar",
			instruments: []Instrument{{Tenor: "3M", Rate: 0.01, Type: Deposit}},
			conventions: map[ConventionKey]string{KeySettlement: "2", KeyCalendar: "MARS", KeyDayCount: "ACT/360"},
			wantKey:     KeyCalendar,
		},
		{
			name:        "negative settlement",
			instruments: []Instrument{{Tenor: "1Y", Rate: 0.01, Type: OIS}},
			conventions: map[ConventionKey]string{KeySettlement: "-1", KeyIndex: "SOFR"},
			wantKey:     KeySettlement,
		},
		{
			name:        "missing index for OIS",
			instruments: []Instrument{{Tenor: "1Y", Rate: 0.01, Type: OIS}},
			conventions: map[ConventionKey]string{KeySettlement: "2"},
			wantKey:     KeyIndex,
		},
		{
			name:        "missing fixed day count for swap",
			instruments: []Instrument{{Tenor: "2Y", Rate: 0.01, Type: Swap}},
			conventions: map[ConventionKey]string{KeySettlement: "2", KeyCalendar: "TARGET", KeyDayCount: "ACT/360"},
			wantKey:     KeyFixedDayCount,
		},
		{
			name: "duplicate tenor",
			instruments: []Instrument{
				{Tenor: "12M", Rate: 0.01, Type: OIS},
				{Tenor: "1Y", Rate: 0.011, Type: OIS},
			},
			conventions: usdConventions(),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStrategy("s", tc.instruments, tc.conventions)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.wantKey, cfgErr.Key)
		})
	}
}

func TestNewStrategy_MissingKeyNamesInstrumentType(t *testing.T) {
	t.Parallel()

	_, err := NewStrategy("s", []Instrument{{Tenor: "3M", Rate: 0.05, Type: Deposit}},
		map[ConventionKey]string{KeySettlement: "2", KeyCalendar: "USD"})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, KeyDayCount, cfgErr.Key)
	assert.Equal(t, Deposit, cfgErr.InstrumentType)
	assert.Contains(t, err.Error(), "day_count")
}

func TestNewStrategy_EmptyIsAccepted(t *testing.T) {
	t.Parallel()

	s, err := NewStrategy("empty", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestRequiredKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []ConventionKey{KeySettlement, KeyIndex}, RequiredKeys(OIS))
	assert.Equal(t, []ConventionKey{KeySettlement, KeyCalendar, KeyDayCount, KeyFixedDayCount}, RequiredKeys(Swap))
	assert.Empty(t, RequiredKeys("FRA"))

	keys := RequiredKeys(Deposit)
	keys[0] = KeyIndex
	assert.Equal(t, KeySettlement, RequiredKeys(Deposit)[0])
}
