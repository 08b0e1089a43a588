package adapter

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/units"
)

// TCXDocument is a decoded Garmin Training Center database.
type TCXDocument struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []TCXActivity `xml:"Activities>Activity"`
}

type TCXActivity struct {
	Sport   string      `xml:"Sport,attr"`
	ID      string      `xml:"Id"`
	Laps    []TCXLap    `xml:"Lap"`
	Creator *TCXCreator `xml:"Creator"`
}

type TCXCreator struct {
	Name      string `xml:"Name"`
	UnitID    string `xml:"UnitId"`
	ProductID string `xml:"ProductID"`
}

type TCXLap struct {
	StartTime        string           `xml:"StartTime,attr"`
	TotalTimeSeconds string           `xml:"TotalTimeSeconds"`
	DistanceMeters   string           `xml:"DistanceMeters"`
	MaximumSpeed     string           `xml:"MaximumSpeed"`
	AverageHeartRate string           `xml:"AverageHeartRateBpm>Value"`
	MaximumHeartRate string           `xml:"MaximumHeartRateBpm>Value"`
	Cadence          string           `xml:"Cadence"`
	Trackpoints      []TCXTrackpoint  `xml:"Track>Trackpoint"`
	Extensions       TCXLapExtensions `xml:"Extensions>LX"`
}

type TCXLapExtensions struct {
	AvgRunCadence  string `xml:"AvgRunCadence"`
	MaxRunCadence  string `xml:"MaxRunCadence"`
	MaxBikeCadence string `xml:"MaxBikeCadence"`
}

type TCXTrackpoint struct {
	Time       string                  `xml:"Time"`
	Latitude   string                  `xml:"Position>LatitudeDegrees"`
	Longitude  string                  `xml:"Position>LongitudeDegrees"`
	Altitude   string                  `xml:"AltitudeMeters"`
	Distance   string                  `xml:"DistanceMeters"`
	HeartRate  string                  `xml:"HeartRateBpm>Value"`
	Cadence    string                  `xml:"Cadence"`
	Extensions TCXTrackpointExtensions `xml:"Extensions>TPX"`
}

type TCXTrackpointExtensions struct {
	Speed      string `xml:"Speed"`
	RunCadence string `xml:"RunCadence"`
}

// TCXAdapter loads TCX files.
type TCXAdapter struct{}

func (TCXAdapter) Format() activity.Format { return activity.FormatTCX }

// Load decodes a TCX stream and maps it onto a Session.
func (TCXAdapter) Load(r io.Reader, source string) (*activity.Session, error) {
	var doc TCXDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, malformed(source, "decode TCX file", err)
	}
	return FromTCX(&doc, source)
}

// FromTCX maps the first activity of a decoded TCX document onto a Session.
func FromTCX(doc *TCXDocument, source string) (*activity.Session, error) {
	if len(doc.Activities) == 0 {
		return nil, malformed(source, "no activity in TCX file", nil)
	}
	act := doc.Activities[0]

	b := activity.NewBuilder(source, activity.FormatTCX)
	if len(doc.Activities) > 1 {
		b.Warn(activity.SessionLevel, "activity", "%d activities in file, only the first is read", len(doc.Activities))
	}
	s := b.Session()
	s.ActivityType = activity.ParseActivityType(act.Sport)
	if act.Creator != nil {
		s.Product = textPtr(act.Creator.Name)
		if serial := strings.TrimSpace(act.Creator.UnitID); serial != "" && serial != "0" {
			s.SerialNumber = &serial
		}
	}
	s.StartTime = tcxAnchor(b, act)

	var (
		duration    float64
		distance    float64
		hasDistance bool
		hrWeighted  float64
		hrWeight    float64
		maxHR       *float64
	)
	for _, l := range act.Laps {
		lap := tcxLap(b, l)
		for _, tp := range l.Trackpoints {
			b.AddRecord(tcxRecord(b, b.NumRecords(), tp))
		}

		duration += lap.Duration
		if lap.Distance != nil {
			distance += *lap.Distance
			hasDistance = true
		}
		if lap.AvgHeartRate != nil && lap.Duration > 0 {
			hrWeighted += *lap.AvgHeartRate * lap.Duration
			hrWeight += lap.Duration
		}
		if lap.MaxHeartRate != nil && (maxHR == nil || *lap.MaxHeartRate > *maxHR) {
			maxHR = floatPtr(*lap.MaxHeartRate)
		}
		b.AddLap(lap)
	}
	s.Duration = duration
	if hasDistance {
		s.Distance = floatPtr(distance)
	}
	if hrWeight > 0 {
		s.AvgHeartRate = floatPtr(hrWeighted / hrWeight)
	}
	s.MaxHeartRate = maxHR

	return build(source, b)
}

// tcxAnchor returns the activity Id instant, else the first lap start, else
// the first trackpoint time.
func tcxAnchor(b *activity.Builder, act TCXActivity) time.Time {
	candidates := []string{act.ID}
	for _, l := range act.Laps {
		candidates = append(candidates, l.StartTime)
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		t, err := units.ParseInstant(c)
		if err != nil {
			b.Warn(activity.SessionLevel, "time", "%v", err)
			continue
		}
		return t
	}
	for _, l := range act.Laps {
		for _, tp := range l.Trackpoints {
			if t, err := units.ParseInstant(tp.Time); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func tcxLap(b *activity.Builder, l TCXLap) activity.Lap {
	lap := activity.Lap{}
	if strings.TrimSpace(l.StartTime) != "" {
		if t, err := units.ParseInstant(l.StartTime); err == nil {
			lap.StartTime = t
		}
	}
	if d := measureText(b, activity.SessionLevel, "lap duration", l.TotalTimeSeconds, units.Duration, units.Second); d != nil && *d > 0 {
		lap.Duration = *d
	}
	lap.Distance = measureText(b, activity.SessionLevel, "lap distance", l.DistanceMeters, units.Distance, units.Meter)
	lap.AvgHeartRate = measureText(b, activity.SessionLevel, "lap heart rate", l.AverageHeartRate, units.HeartRate, units.BeatsPerMinute)
	lap.MaxHeartRate = measureText(b, activity.SessionLevel, "lap heart rate", l.MaximumHeartRate, units.HeartRate, units.BeatsPerMinute)

	lap.AvgCadence = parseText(b, activity.SessionLevel, "lap cadence", l.Cadence)
	if lap.AvgCadence == nil {
		lap.AvgCadence = parseText(b, activity.SessionLevel, "lap cadence", l.Extensions.AvgRunCadence)
	}
	lap.MaxCadence = parseText(b, activity.SessionLevel, "lap cadence", l.Extensions.MaxRunCadence)
	if lap.MaxCadence == nil {
		lap.MaxCadence = parseText(b, activity.SessionLevel, "lap cadence", l.Extensions.MaxBikeCadence)
	}
	return lap
}

func tcxRecord(b *activity.Builder, idx int, tp TCXTrackpoint) activity.Record {
	var r activity.Record
	if strings.TrimSpace(tp.Time) != "" {
		t, err := units.ParseInstant(tp.Time)
		if err != nil {
			b.Warn(idx, "time", "%v", err)
		} else {
			r.Timestamp = t
		}
	}
	r.Latitude, r.Longitude = degreePosition(b, idx, GPXPoint{Lat: tp.Latitude, Lon: tp.Longitude})
	r.Altitude = measureText(b, idx, "altitude", tp.Altitude, units.Distance, units.Meter)
	r.Distance = measureText(b, idx, "distance", tp.Distance, units.Distance, units.Meter)
	r.HeartRate = measureText(b, idx, "heart rate", tp.HeartRate, units.HeartRate, units.BeatsPerMinute)
	r.Cadence = parseText(b, idx, "cadence", tp.Cadence)
	if r.Cadence == nil {
		r.Cadence = parseText(b, idx, "cadence", tp.Extensions.RunCadence)
	}
	r.Speed = measureText(b, idx, "speed", tp.Extensions.Speed, units.Speed, units.MeterPerSecond)
	return r
}
