// Package activity holds the canonical activity model shared by every source
// format: a Session owning its Laps, Records and Waypoints.
package activity

import (
	"encoding/json"
	"strings"
	"time"
)

// NumHRZones is the number of heart-rate zones tracked per session and lap.
const NumHRZones = 5

// Format identifies the source file format of a Session.
type Format string

const (
	FormatFIT Format = "fit"
	FormatGPX Format = "gpx"
	FormatTCX Format = "tcx"
)

// Kind enumerates the canonical activity types.
type Kind int

const (
	KindUnknown Kind = iota
	KindRunning
	KindCycling
	KindIndoorRowing
	KindRowing
	KindSwimming
	KindWalking
	KindHiking
	KindOther
)

var kindNames = map[Kind]string{
	KindRunning:      "Running",
	KindCycling:      "Cycling",
	KindIndoorRowing: "IndoorRowing",
	KindRowing:       "Rowing",
	KindSwimming:     "Swimming",
	KindWalking:      "Walking",
	KindHiking:       "Hiking",
}

// ActivityType is a canonical activity kind. Kind KindOther keeps the source
// label verbatim. The zero value means the source did not provide a type.
type ActivityType struct {
	Kind  Kind
	Label string
}

// Type returns the ActivityType of a known kind.
func Type(k Kind) ActivityType {
	return ActivityType{Kind: k}
}

// Other returns an ActivityType preserving an unmapped source label.
func Other(label string) ActivityType {
	return ActivityType{Kind: KindOther, Label: label}
}

// IsZero reports whether no activity type was provided.
func (a ActivityType) IsZero() bool {
	return a.Kind == KindUnknown
}

func (a ActivityType) String() string {
	if a.Kind == KindOther {
		return a.Label
	}
	return kindNames[a.Kind]
}

// MarshalJSON renders the type name, or null when absent.
func (a ActivityType) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(a.String())
}

var labelKinds = map[string]Kind{
	"running":       KindRunning,
	"run":           KindRunning,
	"trail_running": KindRunning,
	"treadmill":     KindRunning,
	"cycling":       KindCycling,
	"biking":        KindCycling,
	"bike":          KindCycling,
	"ride":          KindCycling,
	"road_biking":   KindCycling,
	"indoor_rowing": KindIndoorRowing,
	"rowing":        KindRowing,
	"swimming":      KindSwimming,
	"swim":          KindSwimming,
	"walking":       KindWalking,
	"walk":          KindWalking,
	"hiking":        KindHiking,
	"hike":          KindHiking,
}

// ParseActivityType maps a free-form source label onto a canonical type.
// Unknown labels are kept as Other. An empty label yields the zero value.
func ParseActivityType(label string) ActivityType {
	label = strings.TrimSpace(label)
	if label == "" {
		return ActivityType{}
	}
	key := strings.ToLower(label)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if k, ok := labelKinds[key]; ok {
		return Type(k)
	}
	return Other(label)
}

// Session is one recorded activity.
type Session struct {
	SourceFile     string               `json:"source_file"`
	Format         Format               `json:"format"`
	StartTime      time.Time            `json:"start_time"`
	Duration       float64              `json:"duration_s"`
	ActivityType   ActivityType         `json:"activity_type"`
	ActivityDetail *string              `json:"activity_detail"`
	Distance       *float64             `json:"distance_m"`
	AvgHeartRate   *float64             `json:"avg_heart_rate_bpm"`
	MaxHeartRate   *float64             `json:"max_heart_rate_bpm"`
	HRZoneSeconds  [NumHRZones]*float64 `json:"hr_zone_s"`
	Manufacturer   *string              `json:"manufacturer"`
	Product        *string              `json:"product"`
	SerialNumber   *string              `json:"serial_number"`
	Laps           []Lap                `json:"laps"`
	Records        []Record             `json:"records"`
	Waypoints      []Waypoint           `json:"waypoints"`
	Issues         []Issue              `json:"issues"`
}

// EndTime returns the start instant shifted by the session duration.
func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.Duration * float64(time.Second)))
}

// In returns a copy of the session with every instant converted to loc.
// Zero instants stay zero. The receiver is not modified.
func (s *Session) In(loc *time.Location) *Session {
	out := *s
	out.StartTime = inZone(s.StartTime, loc)
	out.Laps = append([]Lap(nil), s.Laps...)
	for i := range out.Laps {
		out.Laps[i].StartTime = inZone(out.Laps[i].StartTime, loc)
	}
	out.Records = append([]Record(nil), s.Records...)
	for i := range out.Records {
		out.Records[i].Timestamp = inZone(out.Records[i].Timestamp, loc)
	}
	out.Waypoints = append([]Waypoint(nil), s.Waypoints...)
	for i := range out.Waypoints {
		if t := out.Waypoints[i].Time; t != nil {
			local := inZone(*t, loc)
			out.Waypoints[i].Time = &local
		}
	}
	return &out
}

func inZone(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(loc)
}

// Lap is a sub-interval of a Session.
type Lap struct {
	Index         int                  `json:"index"`
	StartTime     time.Time            `json:"start_time"`
	StartOffset   float64              `json:"start_offset_s"`
	Duration      float64              `json:"duration_s"`
	Distance      *float64             `json:"distance_m"`
	AvgCadence    *float64             `json:"avg_cadence_rpm"`
	MaxCadence    *float64             `json:"max_cadence_rpm"`
	AvgHeartRate  *float64             `json:"avg_heart_rate_bpm"`
	MaxHeartRate  *float64             `json:"max_heart_rate_bpm"`
	HRZoneSeconds [NumHRZones]*float64 `json:"hr_zone_s"`
}

// EndOffset returns the lap end in seconds since session start.
func (l Lap) EndOffset() float64 {
	return l.StartOffset + l.Duration
}

// Record is one timestamped sample.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Elapsed     float64   `json:"elapsed_s"`
	Lap         int       `json:"lap"`
	HeartRate   *float64  `json:"heart_rate_bpm"`
	Cadence     *float64  `json:"cadence_rpm"`
	Speed       *float64  `json:"speed_mps"`
	Altitude    *float64  `json:"altitude_m"`
	Distance    *float64  `json:"distance_m"`
	Temperature *float64  `json:"temperature_c"`
	Latitude    *float64  `json:"latitude_deg"`
	Longitude   *float64  `json:"longitude_deg"`
	Anomalous   bool      `json:"anomalous"`
}

// HasPosition reports whether both coordinates are known.
func (r Record) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Waypoint is a named point of interest independent of the time series.
type Waypoint struct {
	Name        *string    `json:"name"`
	Latitude    float64    `json:"latitude_deg"`
	Longitude   float64    `json:"longitude_deg"`
	Elevation   *float64   `json:"elevation_m"`
	Time        *time.Time `json:"time"`
	Comment     *string    `json:"comment"`
	Description *string    `json:"description"`
	Symbol      *string    `json:"symbol"`
	Type        *string    `json:"type"`
}
