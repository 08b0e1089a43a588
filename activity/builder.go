package activity

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMissingTimestamp is returned when no start instant can be bound to a
// session.
var ErrMissingTimestamp = errors.New("missing session start timestamp")

// SessionLevel is the Issue.Record value for issues not tied to one record.
const SessionLevel = -1

// Issue is a recovered data-quality problem.
type Issue struct {
	Record  int    `json:"record"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Record == SessionLevel {
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	}
	return fmt.Sprintf("record %d %s: %s", i.Record, i.Field, i.Message)
}

// Builder assembles a Session and enforces the model invariants on Build.
// Adapters fill the header through Session and append laps, records and
// waypoints in source order.
type Builder struct {
	s       Session
	laps    []Lap
	records []Record
	issues  []Issue
}

// NewBuilder starts a session read from source.
func NewBuilder(source string, format Format) *Builder {
	return &Builder{s: Session{SourceFile: source, Format: format}}
}

// Session exposes the session header for the adapter to populate. Laps,
// records and issues set here are ignored.
func (b *Builder) Session() *Session {
	return &b.s
}

// AddLap appends a lap. Index and StartOffset are assigned by Build.
func (b *Builder) AddLap(l Lap) {
	b.laps = append(b.laps, l)
}

// AddRecord appends a record. Elapsed and Lap are assigned by Build.
func (b *Builder) AddRecord(r Record) int {
	b.records = append(b.records, r)
	return len(b.records) - 1
}

// AddWaypoint appends a waypoint.
func (b *Builder) AddWaypoint(w Waypoint) {
	b.s.Waypoints = append(b.s.Waypoints, w)
}

// Warn records a data-quality issue. Use SessionLevel for record when the
// issue does not concern a single record.
func (b *Builder) Warn(record int, field, format string, args ...any) {
	b.issues = append(b.issues, Issue{Record: record, Field: field, Message: fmt.Sprintf(format, args...)})
}

// NumRecords returns the number of records added so far.
func (b *Builder) NumRecords() int {
	return len(b.records)
}

// Build validates the draft and returns the finished session.
func (b *Builder) Build() (*Session, error) {
	s := b.s
	if s.StartTime.IsZero() {
		return nil, ErrMissingTimestamp
	}

	s.Laps = b.buildLaps(s.StartTime)
	s.Records = b.buildRecords(s.StartTime)
	b.assignLaps(s.Laps, s.Records)

	if s.Duration <= 0 {
		s.Duration = fallbackDuration(s.Laps, s.Records)
	}
	b.checkZones("hr_zone_s", s.HRZoneSeconds, s.Duration)
	for _, l := range s.Laps {
		b.checkZones(fmt.Sprintf("lap %d hr_zone_s", l.Index), l.HRZoneSeconds, l.Duration)
	}

	if s.Waypoints == nil {
		s.Waypoints = []Waypoint{}
	}
	s.Issues = append([]Issue{}, b.issues...)
	return &s, nil
}

func (b *Builder) buildLaps(start time.Time) []Lap {
	laps := append([]Lap{}, b.laps...)
	cursor := start
	for i := range laps {
		if laps[i].StartTime.IsZero() {
			laps[i].StartTime = cursor
		}
		if laps[i].Duration < 0 {
			b.Warn(SessionLevel, "lap duration", "lap %d has negative duration %.3f", i+1, laps[i].Duration)
			laps[i].Duration = 0
		}
		cursor = laps[i].StartTime.Add(seconds(laps[i].Duration))
	}
	sort.SliceStable(laps, func(i, j int) bool {
		return laps[i].StartTime.Before(laps[j].StartTime)
	})
	for i := range laps {
		laps[i].Index = i + 1
		offset := laps[i].StartTime.Sub(start).Seconds()
		if offset < 0 {
			b.Warn(SessionLevel, "lap start", "lap %d starts %.3fs before the session", i+1, -offset)
			offset = 0
		}
		laps[i].StartOffset = offset
	}
	return laps
}

func (b *Builder) buildRecords(start time.Time) []Record {
	records := append([]Record{}, b.records...)
	high := 0.0
	for i := range records {
		r := &records[i]
		r.Lap = 0
		if r.Timestamp.IsZero() {
			r.Anomalous = true
			r.Elapsed = high
			b.Warn(i, "timestamp", "missing timestamp")
			continue
		}
		elapsed := r.Timestamp.Sub(start).Seconds()
		switch {
		case elapsed < 0:
			r.Anomalous = true
			b.Warn(i, "timestamp", "%s is before session start", r.Timestamp.Format(time.RFC3339))
			elapsed = 0
		case elapsed < high:
			r.Anomalous = true
			b.Warn(i, "timestamp", "%s is earlier than a preceding record", r.Timestamp.Format(time.RFC3339))
		default:
			high = elapsed
		}
		r.Elapsed = elapsed
	}
	return records
}

// assignLaps links every record to the lap whose [start, end) range holds its
// elapsed time. The last lap is closed at its end. Records outside every lap
// are clamped to the nearest one and reported.
func (b *Builder) assignLaps(laps []Lap, records []Record) {
	if len(laps) == 0 {
		return
	}
	for i := range records {
		e := records[i].Elapsed
		idx := sort.Search(len(laps), func(j int) bool {
			return laps[j].StartOffset > e
		}) - 1

		if idx < 0 {
			records[i].Lap = laps[0].Index
			b.Warn(i, "lap", "elapsed %.3fs precedes lap 1, clamped", e)
			continue
		}
		lap := laps[idx]
		last := idx == len(laps)-1
		if e < lap.EndOffset() || (last && e == lap.EndOffset()) {
			records[i].Lap = lap.Index
			continue
		}
		if last {
			records[i].Lap = lap.Index
			b.Warn(i, "lap", "elapsed %.3fs follows lap %d, clamped", e, lap.Index)
			continue
		}
		next := laps[idx+1]
		if e-lap.EndOffset() <= next.StartOffset-e {
			records[i].Lap = lap.Index
		} else {
			records[i].Lap = next.Index
		}
		b.Warn(i, "lap", "elapsed %.3fs falls between laps %d and %d, clamped to lap %d", e, lap.Index, next.Index, records[i].Lap)
	}
}

func (b *Builder) checkZones(field string, zones [NumHRZones]*float64, duration float64) {
	total := 0.0
	present := false
	for _, z := range zones {
		if z != nil {
			total += *z
			present = true
		}
	}
	if present && duration > 0 && total > duration+1 {
		b.Warn(SessionLevel, field, "time in zones %.0fs exceeds duration %.0fs", total, duration)
	}
}

func fallbackDuration(laps []Lap, records []Record) float64 {
	d := 0.0
	for _, r := range records {
		if !r.Anomalous && r.Elapsed > d {
			d = r.Elapsed
		}
	}
	if d > 0 {
		return d
	}
	for _, l := range laps {
		if l.EndOffset() > d {
			d = l.EndOffset()
		}
	}
	return d
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
