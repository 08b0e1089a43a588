// Package units converts raw device values into the canonical unit of each
// physical dimension: meters, meters/second, Celsius, degrees, beats/minute
// and seconds.
package units

import (
	"errors"
	"fmt"
	"math"
)

// Dimension is the physical quantity a unit measures.
type Dimension int

const (
	DimensionUnknown Dimension = iota
	DimensionDistance
	DimensionSpeed
	DimensionTemperature
	DimensionAngle
	DimensionHeartRate
	DimensionDuration
)

func (d Dimension) String() string {
	switch d {
	case DimensionDistance:
		return "distance"
	case DimensionSpeed:
		return "speed"
	case DimensionTemperature:
		return "temperature"
	case DimensionAngle:
		return "angle"
	case DimensionHeartRate:
		return "heart rate"
	case DimensionDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Unit is a source unit tag.
type Unit string

const (
	Meter      Unit = "m"
	Kilometer  Unit = "km"
	Centimeter Unit = "cm"
	Foot       Unit = "ft"
	Mile       Unit = "mi"

	MeterPerSecond      Unit = "m/s"
	MillimeterPerSecond Unit = "mm/s"
	KilometerPerHour    Unit = "km/h"
	MilePerHour         Unit = "mph"

	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
	Kelvin     Unit = "K"

	Degree     Unit = "deg"
	Semicircle Unit = "semicircles"
	Radian     Unit = "rad"

	BeatsPerMinute Unit = "bpm"
	BeatsPerSecond Unit = "bps"

	Second      Unit = "s"
	Millisecond Unit = "ms"
	Minute      Unit = "min"
	Hour        Unit = "h"
)

// ErrUnknownUnit is returned for unrecognized unit tags and for tags that
// belong to a different dimension than the one requested.
var ErrUnknownUnit = errors.New("unknown unit")

// ConversionError reports a failed conversion.
type ConversionError struct {
	Unit Unit
	Want Dimension
}

func (e *ConversionError) Error() string {
	if e.Want == DimensionUnknown {
		return fmt.Sprintf("convert %q: unknown unit", e.Unit)
	}
	return fmt.Sprintf("convert %q to %s: unknown unit", e.Unit, e.Want)
}

func (e *ConversionError) Unwrap() error { return ErrUnknownUnit }

// Quantity is a value expressed in the canonical unit of its dimension.
type Quantity struct {
	Value     float64
	Unit      Unit
	Dimension Dimension
}

type conversion struct {
	dim     Dimension
	convert func(float64) float64
}

func scale(f float64) func(float64) float64 {
	return func(v float64) float64 { return v * f }
}

const semicircleToDegree = 180.0 / (1 << 31)

var conversions = map[Unit]conversion{
	Meter:      {DimensionDistance, scale(1)},
	Kilometer:  {DimensionDistance, scale(1000)},
	Centimeter: {DimensionDistance, scale(0.01)},
	Foot:       {DimensionDistance, scale(0.3048)},
	Mile:       {DimensionDistance, scale(1609.344)},

	MeterPerSecond:      {DimensionSpeed, scale(1)},
	MillimeterPerSecond: {DimensionSpeed, scale(0.001)},
	KilometerPerHour:    {DimensionSpeed, scale(1 / 3.6)},
	MilePerHour:         {DimensionSpeed, scale(0.44704)},

	Celsius:    {DimensionTemperature, scale(1)},
	Fahrenheit: {DimensionTemperature, func(v float64) float64 { return (v - 32) * 5 / 9 }},
	Kelvin:     {DimensionTemperature, func(v float64) float64 { return v - 273.15 }},

	Degree:     {DimensionAngle, scale(1)},
	Semicircle: {DimensionAngle, scale(semicircleToDegree)},
	Radian:     {DimensionAngle, scale(180 / math.Pi)},

	BeatsPerMinute: {DimensionHeartRate, scale(1)},
	BeatsPerSecond: {DimensionHeartRate, scale(60)},

	Second:      {DimensionDuration, scale(1)},
	Millisecond: {DimensionDuration, scale(0.001)},
	Minute:      {DimensionDuration, scale(60)},
	Hour:        {DimensionDuration, scale(3600)},
}

var canonical = map[Dimension]Unit{
	DimensionDistance:    Meter,
	DimensionSpeed:       MeterPerSecond,
	DimensionTemperature: Celsius,
	DimensionAngle:       Degree,
	DimensionHeartRate:   BeatsPerMinute,
	DimensionDuration:    Second,
}

// Convert turns value, measured in unit, into the canonical unit of the
// unit's dimension.
func Convert(value float64, unit Unit) (Quantity, error) {
	c, ok := conversions[unit]
	if !ok {
		return Quantity{}, &ConversionError{Unit: unit}
	}
	return Quantity{
		Value:     c.convert(value),
		Unit:      canonical[c.dim],
		Dimension: c.dim,
	}, nil
}

func convertAs(value float64, unit Unit, want Dimension) (float64, error) {
	c, ok := conversions[unit]
	if !ok || c.dim != want {
		return 0, &ConversionError{Unit: unit, Want: want}
	}
	return c.convert(value), nil
}

// Distance returns value in meters.
func Distance(value float64, unit Unit) (float64, error) {
	return convertAs(value, unit, DimensionDistance)
}

// Speed returns value in meters per second.
func Speed(value float64, unit Unit) (float64, error) {
	return convertAs(value, unit, DimensionSpeed)
}

// Temperature returns value in degrees Celsius.
func Temperature(value float64, unit Unit) (float64, error) {
	return convertAs(value, unit, DimensionTemperature)
}

// Angle returns value in degrees.
func Angle(value float64, unit Unit) (float64, error) {
	return convertAs(value, unit, DimensionAngle)
}

// HeartRate returns value in beats per minute.
func HeartRate(value float64, unit Unit) (float64, error) {
	return convertAs(value, unit, DimensionHeartRate)
}

// Duration returns value in seconds.
func Duration(value float64, unit Unit) (float64, error) {
	return convertAs(value, unit, DimensionDuration)
}
