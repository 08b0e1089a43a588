package units

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// FITEpoch is the reference date of FIT date_time values.
	FITEpoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)
	// UnixEpoch is the reference date of Unix timestamps.
	UnixEpoch = time.Unix(0, 0).UTC()
)

// FromEpoch returns the instant raw units after ref.
func FromEpoch(raw float64, ref time.Time, unit Unit) (time.Time, error) {
	seconds, err := Duration(raw, unit)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, fmt.Errorf("epoch offset %v is not finite", raw)
	}
	whole, frac := math.Modf(seconds)
	return ref.Add(time.Duration(whole) * time.Second).Add(time.Duration(frac * float64(time.Second))), nil
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseInstant parses an XML encoded absolute instant. Values without a zone
// designator are taken as UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse instant: empty value")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse instant %q: unrecognized layout", s)
}
