package adapter

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/units"
)

const earthRadiusMeters = 6371000.0

type converter func(float64, units.Unit) (float64, error)

// measure normalizes one raw scalar. A failed conversion leaves the field
// absent and is reported against record.
func measure(b *activity.Builder, record int, field string, v float64, conv converter, unit units.Unit) *float64 {
	if !isFinite(v) {
		return nil
	}
	out, err := conv(v, unit)
	if err != nil {
		b.Warn(record, field, "%v", err)
		return nil
	}
	return &out
}

// measureText parses and normalizes one XML scalar. Empty text is absent.
func measureText(b *activity.Builder, record int, field, text string, conv converter, unit units.Unit) *float64 {
	v := parseText(b, record, field, text)
	if v == nil {
		return nil
	}
	return measure(b, record, field, *v, conv, unit)
}

// parseText parses one dimensionless XML scalar such as a cadence.
func parseText(b *activity.Builder, record int, field, text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || !isFinite(v) {
		b.Warn(record, field, "invalid value %q", text)
		return nil
	}
	return &v
}

func textPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func floatPtr(v float64) *float64 {
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// haversine returns the great-circle distance in meters between two points
// given in degrees.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// pathDistance sums the distance between consecutive positioned records.
// It returns nil when no record has a position.
func pathDistance(records []activity.Record) *float64 {
	var (
		total    float64
		prev     *activity.Record
		hasPoint bool
	)
	for i := range records {
		r := &records[i]
		if !r.HasPosition() {
			continue
		}
		hasPoint = true
		if prev != nil {
			total += haversine(*prev.Latitude, *prev.Longitude, *r.Latitude, *r.Longitude)
		}
		prev = r
	}
	if !hasPoint {
		return nil
	}
	return &total
}
