package adapter

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/units"
)

// GPXDocument is a decoded GPX 1.0 or 1.1 file. Numeric attributes are kept
// as text so one bad value does not void the whole document.
type GPXDocument struct {
	XMLName   xml.Name     `xml:"gpx"`
	Version   string       `xml:"version,attr"`
	Creator   string       `xml:"creator,attr"`
	Time      string       `xml:"time"`
	Metadata  *GPXMetadata `xml:"metadata"`
	Waypoints []GPXPoint   `xml:"wpt"`
	Routes    []GPXRoute   `xml:"rte"`
	Tracks    []GPXTrack   `xml:"trk"`
}

type GPXMetadata struct {
	Name string `xml:"name"`
	Desc string `xml:"desc"`
	Time string `xml:"time"`
}

// GPXRoute is an ordered list of turn points. Its points become waypoints.
type GPXRoute struct {
	Name   string     `xml:"name"`
	Points []GPXPoint `xml:"rtept"`
}

type GPXTrack struct {
	Name     string       `xml:"name"`
	Type     string       `xml:"type"`
	Segments []GPXSegment `xml:"trkseg"`
}

type GPXSegment struct {
	Points []GPXPoint `xml:"trkpt"`
}

type GPXPoint struct {
	Lat        string        `xml:"lat,attr"`
	Lon        string        `xml:"lon,attr"`
	Ele        string        `xml:"ele"`
	Time       string        `xml:"time"`
	Name       string        `xml:"name"`
	Cmt        string        `xml:"cmt"`
	Desc       string        `xml:"desc"`
	Sym        string        `xml:"sym"`
	Type       string        `xml:"type"`
	Speed      string        `xml:"speed"`
	Extensions GPXExtensions `xml:"extensions"`
}

// GPXExtensions holds the Garmin TrackPointExtension values.
type GPXExtensions struct {
	HR    string `xml:"TrackPointExtension>hr"`
	Cad   string `xml:"TrackPointExtension>cad"`
	ATemp string `xml:"TrackPointExtension>atemp"`
	Speed string `xml:"TrackPointExtension>speed"`
}

// GPXAdapter loads GPX files.
type GPXAdapter struct{}

func (GPXAdapter) Format() activity.Format { return activity.FormatGPX }

// Load decodes a GPX stream and maps it onto a Session.
func (GPXAdapter) Load(r io.Reader, source string) (*activity.Session, error) {
	var doc GPXDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, malformed(source, "decode GPX file", err)
	}
	return FromGPX(&doc, source)
}

// FromGPX maps a decoded GPX document onto a Session. Every track segment
// becomes a lap.
func FromGPX(doc *GPXDocument, source string) (*activity.Session, error) {
	switch strings.TrimSpace(doc.Version) {
	case "", "1.0", "1.1":
	default:
		return nil, unsupported(source, "GPX version "+doc.Version, nil)
	}

	b := activity.NewBuilder(source, activity.FormatGPX)
	s := b.Session()
	s.Product = textPtr(doc.Creator)
	s.StartTime = gpxAnchor(b, doc)

	var (
		all       []activity.Record
		duration  float64
		distance  float64
		hasLength bool
	)
	for _, trk := range doc.Tracks {
		if s.ActivityType.IsZero() {
			s.ActivityType = activity.ParseActivityType(trk.Type)
		}
		for _, seg := range trk.Segments {
			if len(seg.Points) == 0 {
				continue
			}
			first := b.NumRecords()
			records := make([]activity.Record, 0, len(seg.Points))
			for i, pt := range seg.Points {
				records = append(records, gpxRecord(b, first+i, pt))
			}
			for _, r := range records {
				b.AddRecord(r)
			}
			all = append(all, records...)

			lap := gpxLap(records)
			if lap.Distance != nil {
				distance += *lap.Distance
				hasLength = true
			}
			duration += lap.Duration
			b.AddLap(lap)
		}
	}
	s.Duration = duration
	if hasLength {
		s.Distance = floatPtr(distance)
	}
	s.AvgHeartRate, s.MaxHeartRate = avgMax(all, func(r activity.Record) *float64 { return r.HeartRate })

	for _, wpt := range doc.Waypoints {
		if w, ok := gpxWaypoint(b, wpt); ok {
			b.AddWaypoint(w)
		}
	}
	for _, rte := range doc.Routes {
		for i, pt := range rte.Points {
			if strings.TrimSpace(pt.Name) == "" && strings.TrimSpace(rte.Name) != "" {
				pt.Name = fmt.Sprintf("%s %d", strings.TrimSpace(rte.Name), i+1)
			}
			if w, ok := gpxWaypoint(b, pt); ok {
				b.AddWaypoint(w)
			}
		}
	}

	return build(source, b)
}

// gpxAnchor returns the metadata time when present, else the first track
// point time.
func gpxAnchor(b *activity.Builder, doc *GPXDocument) time.Time {
	var candidates []string
	if doc.Metadata != nil {
		candidates = append(candidates, doc.Metadata.Time)
	}
	candidates = append(candidates, doc.Time)
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
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				if t, err := units.ParseInstant(pt.Time); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}

func gpxRecord(b *activity.Builder, idx int, pt GPXPoint) activity.Record {
	var r activity.Record
	if strings.TrimSpace(pt.Time) != "" {
		t, err := units.ParseInstant(pt.Time)
		if err != nil {
			b.Warn(idx, "time", "%v", err)
		} else {
			r.Timestamp = t
		}
	}
	r.Latitude, r.Longitude = degreePosition(b, idx, pt)
	r.Altitude = measureText(b, idx, "elevation", pt.Ele, units.Distance, units.Meter)
	r.HeartRate = measureText(b, idx, "heart rate", pt.Extensions.HR, units.HeartRate, units.BeatsPerMinute)
	r.Cadence = parseText(b, idx, "cadence", pt.Extensions.Cad)
	r.Temperature = measureText(b, idx, "temperature", pt.Extensions.ATemp, units.Temperature, units.Celsius)
	speed := pt.Extensions.Speed
	if strings.TrimSpace(speed) == "" {
		speed = pt.Speed
	}
	r.Speed = measureText(b, idx, "speed", speed, units.Speed, units.MeterPerSecond)
	return r
}

func degreePosition(b *activity.Builder, idx int, pt GPXPoint) (*float64, *float64) {
	lat := measureText(b, idx, "latitude", pt.Lat, units.Angle, units.Degree)
	lon := measureText(b, idx, "longitude", pt.Lon, units.Angle, units.Degree)
	if lat == nil || lon == nil {
		if lat != nil || lon != nil {
			b.Warn(idx, "position", "incomplete position, dropped")
		}
		return nil, nil
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		b.Warn(idx, "position", "position %v,%v out of range, dropped", *lat, *lon)
		return nil, nil
	}
	return lat, lon
}

func gpxLap(records []activity.Record) activity.Lap {
	var lap activity.Lap
	var last time.Time
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if lap.StartTime.IsZero() || r.Timestamp.Before(lap.StartTime) {
			lap.StartTime = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	if !lap.StartTime.IsZero() {
		lap.Duration = last.Sub(lap.StartTime).Seconds()
	}
	lap.Distance = pathDistance(records)
	lap.AvgHeartRate, lap.MaxHeartRate = avgMax(records, func(r activity.Record) *float64 { return r.HeartRate })
	lap.AvgCadence, lap.MaxCadence = avgMax(records, func(r activity.Record) *float64 { return r.Cadence })
	return lap
}

func gpxWaypoint(b *activity.Builder, pt GPXPoint) (activity.Waypoint, bool) {
	lat, lon := degreePosition(b, activity.SessionLevel, pt)
	if lat == nil || lon == nil {
		b.Warn(activity.SessionLevel, "waypoint", "waypoint %q has no valid position, skipped", pt.Name)
		return activity.Waypoint{}, false
	}
	w := activity.Waypoint{
		Name:        textPtr(pt.Name),
		Latitude:    *lat,
		Longitude:   *lon,
		Elevation:   measureText(b, activity.SessionLevel, "waypoint elevation", pt.Ele, units.Distance, units.Meter),
		Comment:     textPtr(pt.Cmt),
		Description: textPtr(pt.Desc),
		Symbol:      textPtr(pt.Sym),
		Type:        textPtr(pt.Type),
	}
	if strings.TrimSpace(pt.Time) != "" {
		if t, err := units.ParseInstant(pt.Time); err == nil {
			w.Time = &t
		} else {
			b.Warn(activity.SessionLevel, "waypoint time", "%v", err)
		}
	}
	return w, true
}

// avgMax returns the mean and maximum of the present values of one field.
func avgMax(records []activity.Record, field func(activity.Record) *float64) (*float64, *float64) {
	var (
		sum   float64
		hi    float64
		count int
	)
	for _, r := range records {
		v := field(r)
		if v == nil {
			continue
		}
		if count == 0 || *v > hi {
			hi = *v
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil, nil
	}
	return floatPtr(sum / float64(count)), floatPtr(hi)
}
