package units

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngle(t *testing.T) {
	cases := []struct {
		name string
		raw  float64
		unit Unit
		want float64
	}{
		{"semicircle max", 1 << 31, Semicircle, 180},
		{"semicircle quarter", 0x40000000, Semicircle, 90},
		{"semicircle negative", -(1 << 30), Semicircle, -90},
		{"degree passthrough", 47.123456, Degree, 47.123456},
		{"radian", 3.141592653589793, Radian, 180},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Angle(tc.raw, tc.unit)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestConvertCanonicalUnits(t *testing.T) {
	cases := []struct {
		raw  float64
		unit Unit
		want Quantity
	}{
		{1500, Centimeter, Quantity{Value: 15, Unit: Meter, Dimension: DimensionDistance}},
		{1, Mile, Quantity{Value: 1609.344, Unit: Meter, Dimension: DimensionDistance}},
		{3, Foot, Quantity{Value: 0.9144, Unit: Meter, Dimension: DimensionDistance}},
		{3600, MillimeterPerSecond, Quantity{Value: 3.6, Unit: MeterPerSecond, Dimension: DimensionSpeed}},
		{36, KilometerPerHour, Quantity{Value: 10, Unit: MeterPerSecond, Dimension: DimensionSpeed}},
		{212, Fahrenheit, Quantity{Value: 100, Unit: Celsius, Dimension: DimensionTemperature}},
		{273.15, Kelvin, Quantity{Value: 0, Unit: Celsius, Dimension: DimensionTemperature}},
		{2, BeatsPerSecond, Quantity{Value: 120, Unit: BeatsPerMinute, Dimension: DimensionHeartRate}},
		{1500, Millisecond, Quantity{Value: 1.5, Unit: Second, Dimension: DimensionDuration}},
		{2, Hour, Quantity{Value: 7200, Unit: Second, Dimension: DimensionDuration}},
	}
	for _, tc := range cases {
		got, err := Convert(tc.raw, tc.unit)
		require.NoError(t, err, tc.unit)
		assert.Equal(t, tc.want.Unit, got.Unit, tc.unit)
		assert.Equal(t, tc.want.Dimension, got.Dimension, tc.unit)
		assert.InDelta(t, tc.want.Value, got.Value, 1e-9, tc.unit)
	}
}

func TestUnknownUnit(t *testing.T) {
	_, err := Convert(1, Unit("furlong"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownUnit))

	_, err = Distance(1, BeatsPerMinute)
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, DimensionDistance, convErr.Want)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestFromEpoch(t *testing.T) {
	got, err := FromEpoch(1013412610, FITEpoch, Second)
	require.NoError(t, err)
	assert.True(t, time.Date(2022, 2, 10, 7, 30, 10, 0, time.UTC).Equal(got), "got %v", got)

	got, err = FromEpoch(1500, UnixEpoch, Millisecond)
	require.NoError(t, err)
	assert.True(t, time.Unix(1, 500_000_000).Equal(got), "got %v", got)

	_, err = FromEpoch(1, FITEpoch, Meter)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestParseInstant(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2022-02-10T06:50:10Z", time.Date(2022, 2, 10, 6, 50, 10, 0, time.UTC)},
		{"2022-02-10T06:50:10.250Z", time.Date(2022, 2, 10, 6, 50, 10, 250_000_000, time.UTC)},
		{"2022-02-10T06:50:10", time.Date(2022, 2, 10, 6, 50, 10, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseInstant(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: got %v", tc.in, got)
	}

	offset, err := ParseInstant(" 2022-02-10T08:50:10+02:00 ")
	require.NoError(t, err)
	_, secs := offset.Zone()
	assert.Equal(t, 7200, secs)

	_, err = ParseInstant("yesterday")
	assert.Error(t, err)
	_, err = ParseInstant("")
	assert.Error(t, err)
}
