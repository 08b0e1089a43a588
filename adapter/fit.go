package adapter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/units"
)

const (
	invalidSemicircles = math.MaxInt32
	invalidSint8       = math.MaxInt8
	altitudeScale      = 5.0
	altitudeOffset     = 500.0
)

// FITAdapter loads FIT activity files.
type FITAdapter struct{}

func (FITAdapter) Format() activity.Format { return activity.FormatFIT }

// Load decodes a FIT stream and maps it onto a Session.
func (FITAdapter) Load(r io.Reader, source string) (*activity.Session, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		var notSupported fit.NotSupportedError
		if errors.As(err, &notSupported) {
			return nil, unsupported(source, "decode FIT file", err)
		}
		return nil, malformed(source, "decode FIT file", err)
	}
	return FromFIT(decoded, source)
}

// FromFIT maps a decoded FIT file onto a Session. Only the first session
// message is used.
func FromFIT(f *fit.File, source string) (*activity.Session, error) {
	act, err := f.Activity()
	if err != nil {
		return nil, malformed(source, "activity FIT expected", err)
	}

	b := activity.NewBuilder(source, activity.FormatFIT)
	s := b.Session()
	fillDeviceIdentity(s, &f.FileId)

	var session *fit.SessionMsg
	for _, msg := range act.Sessions {
		if msg != nil {
			session = msg
			break
		}
	}
	if session != nil {
		s.StartTime = validTimeOrZero(session.StartTime)
		s.ActivityType, s.ActivityDetail = fitActivityType(session.Sport, session.SubSport)
		s.Duration = fitDuration(b, "duration", session.TotalElapsedTime, session.TotalTimerTime)
		if v := session.TotalDistance; v != math.MaxUint32 {
			s.Distance = measure(b, activity.SessionLevel, "distance", float64(v), units.Distance, units.Centimeter)
		}
		s.AvgHeartRate = fitHeartRate(b, activity.SessionLevel, session.AvgHeartRate)
		s.MaxHeartRate = fitHeartRate(b, activity.SessionLevel, session.MaxHeartRate)
		s.HRZoneSeconds = fitZones(b, session.TimeInHrZone)
	}

	for _, lap := range act.Laps {
		if lap == nil {
			continue
		}
		b.AddLap(fitLap(b, lap))
	}

	for _, rec := range act.Records {
		if rec == nil {
			continue
		}
		r := fitRecord(b, b.NumRecords(), rec)
		b.AddRecord(r)
		if s.StartTime.IsZero() && !r.Timestamp.IsZero() {
			s.StartTime = r.Timestamp
		}
	}

	return build(source, b)
}

func fillDeviceIdentity(s *activity.Session, id *fit.FileIdMsg) {
	if id.Manufacturer != fit.ManufacturerInvalid && id.Manufacturer != 0 {
		s.Manufacturer = textPtr(enumLabel(id.Manufacturer, "Manufacturer"))
	}
	if id.Product != math.MaxUint16 {
		s.Product = textPtr(enumLabel(id.GetProduct(), "GarminProduct"))
	}
	if id.SerialNumber != 0 && id.SerialNumber != math.MaxUint32 {
		serial := strconv.FormatUint(uint64(id.SerialNumber), 10)
		s.SerialNumber = &serial
	}
}

func fitActivityType(sport fit.Sport, sub fit.SubSport) (activity.ActivityType, *string) {
	var detail *string
	if sub != fit.SubSportInvalid {
		detail = textPtr(enumLabel(sub, "SubSport"))
	}
	if sub == fit.SubSportIndoorRowing {
		return activity.Type(activity.KindIndoorRowing), detail
	}
	switch sport {
	case fit.SportInvalid:
		return activity.ActivityType{}, detail
	case fit.SportRunning:
		return activity.Type(activity.KindRunning), detail
	case fit.SportCycling:
		return activity.Type(activity.KindCycling), detail
	case fit.SportRowing:
		return activity.Type(activity.KindRowing), detail
	case fit.SportSwimming:
		return activity.Type(activity.KindSwimming), detail
	case fit.SportWalking:
		return activity.Type(activity.KindWalking), detail
	case fit.SportHiking:
		return activity.Type(activity.KindHiking), detail
	default:
		return activity.Other(enumLabel(sport, "Sport")), detail
	}
}

// enumLabel renders a FIT profile enum without its Go type prefix.
func enumLabel(v any, prefix string) string {
	return strings.TrimPrefix(fmt.Sprint(v), prefix)
}

func fitLap(b *activity.Builder, lap *fit.LapMsg) activity.Lap {
	out := activity.Lap{
		StartTime: validTimeOrZero(lap.StartTime),
	}
	out.Duration = fitDuration(b, "lap duration", lap.TotalElapsedTime, lap.TotalTimerTime)
	if lap.TotalDistance != math.MaxUint32 {
		out.Distance = measure(b, activity.SessionLevel, "lap distance", float64(lap.TotalDistance), units.Distance, units.Centimeter)
	}
	if lap.AvgCadence != math.MaxUint8 {
		out.AvgCadence = floatPtr(float64(lap.AvgCadence))
	}
	if lap.MaxCadence != math.MaxUint8 {
		out.MaxCadence = floatPtr(float64(lap.MaxCadence))
	}
	out.AvgHeartRate = fitHeartRate(b, activity.SessionLevel, lap.AvgHeartRate)
	out.MaxHeartRate = fitHeartRate(b, activity.SessionLevel, lap.MaxHeartRate)
	out.HRZoneSeconds = fitZones(b, lap.TimeInHrZone)
	return out
}

func fitRecord(b *activity.Builder, idx int, rec *fit.RecordMsg) activity.Record {
	out := activity.Record{
		Timestamp: validTimeOrZero(rec.Timestamp),
	}
	out.HeartRate = fitHeartRate(b, idx, rec.HeartRate)
	if cadence, ok := extractCadence(rec); ok {
		out.Cadence = floatPtr(cadence)
	}
	switch {
	case rec.EnhancedSpeed != math.MaxUint32:
		out.Speed = measure(b, idx, "speed", float64(rec.EnhancedSpeed), units.Speed, units.MillimeterPerSecond)
	case rec.Speed != math.MaxUint16:
		out.Speed = measure(b, idx, "speed", float64(rec.Speed), units.Speed, units.MillimeterPerSecond)
	}
	switch {
	case rec.EnhancedAltitude != math.MaxUint32:
		out.Altitude = measure(b, idx, "altitude", float64(rec.EnhancedAltitude)/altitudeScale-altitudeOffset, units.Distance, units.Meter)
	case rec.Altitude != math.MaxUint16:
		out.Altitude = measure(b, idx, "altitude", float64(rec.Altitude)/altitudeScale-altitudeOffset, units.Distance, units.Meter)
	}
	if rec.Distance != math.MaxUint32 {
		out.Distance = measure(b, idx, "distance", float64(rec.Distance), units.Distance, units.Centimeter)
	}
	if rec.Temperature != invalidSint8 {
		out.Temperature = measure(b, idx, "temperature", float64(rec.Temperature), units.Temperature, units.Celsius)
	}

	lat, long := rec.PositionLat.Semicircles(), rec.PositionLong.Semicircles()
	switch {
	case lat != invalidSemicircles && long != invalidSemicircles:
		out.Latitude = measure(b, idx, "latitude", float64(lat), units.Angle, units.Semicircle)
		out.Longitude = measure(b, idx, "longitude", float64(long), units.Angle, units.Semicircle)
		if out.Latitude == nil || out.Longitude == nil || math.Abs(*out.Latitude) > 90 || math.Abs(*out.Longitude) > 180 {
			b.Warn(idx, "position", "position out of range, dropped")
			out.Latitude, out.Longitude = nil, nil
		}
	case lat != invalidSemicircles || long != invalidSemicircles:
		b.Warn(idx, "position", "incomplete position, dropped")
	}
	return out
}

// fitDuration prefers elapsed time over timer time, which excludes pauses.
func fitDuration(b *activity.Builder, field string, elapsed, timer uint32) float64 {
	raw := validUint32(elapsed)
	if raw == 0 {
		raw = validUint32(timer)
	}
	if raw == 0 {
		return 0
	}
	if v := measure(b, activity.SessionLevel, field, float64(raw), units.Duration, units.Millisecond); v != nil {
		return *v
	}
	return 0
}

func fitHeartRate(b *activity.Builder, idx int, v uint8) *float64 {
	if v == math.MaxUint8 {
		return nil
	}
	return measure(b, idx, "heart rate", float64(v), units.HeartRate, units.BeatsPerMinute)
}

func fitZones(b *activity.Builder, raw []uint32) [activity.NumHRZones]*float64 {
	var zones [activity.NumHRZones]*float64
	for i, v := range raw {
		if i >= activity.NumHRZones {
			break
		}
		if v == math.MaxUint32 {
			continue
		}
		zones[i] = measure(b, activity.SessionLevel, "hr zone", float64(v), units.Duration, units.Millisecond)
	}
	return zones
}

func extractCadence(rec *fit.RecordMsg) (float64, bool) {
	cad256 := rec.GetCadence256Scaled()
	if isFinite(cad256) && cad256 > 0 {
		return cad256, true
	}
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence), true
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint32(v uint32) uint32 {
	if v == math.MaxUint32 {
		return 0
	}
	return v
}
