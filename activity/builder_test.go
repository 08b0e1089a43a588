package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2022, 2, 10, 6, 50, 10, 0, time.UTC)

func f(v float64) *float64 { return &v }

func TestBuildRequiresStart(t *testing.T) {
	b := NewBuilder("a.gpx", FormatGPX)
	b.AddRecord(Record{Timestamp: start})
	_, err := b.Build()
	require.ErrorIs(t, err, ErrMissingTimestamp)
}

func TestBuildFlagsNonMonotonicRecords(t *testing.T) {
	b := NewBuilder("a.fit", FormatFIT)
	b.Session().StartTime = start
	b.AddRecord(Record{Timestamp: start.Add(10 * time.Second)})
	b.AddRecord(Record{Timestamp: start.Add(5 * time.Second)})
	b.AddRecord(Record{Timestamp: start.Add(20 * time.Second)})

	s, err := b.Build()
	require.NoError(t, err)
	require.Len(t, s.Records, 3)
	assert.False(t, s.Records[0].Anomalous)
	assert.True(t, s.Records[1].Anomalous)
	assert.False(t, s.Records[2].Anomalous)
	assert.Equal(t, 5.0, s.Records[1].Elapsed)
	require.Len(t, s.Issues, 1)
	assert.Equal(t, 1, s.Issues[0].Record)
	assert.Equal(t, 20.0, s.Duration)
}

func TestBuildRecordBeforeStart(t *testing.T) {
	b := NewBuilder("a.fit", FormatFIT)
	b.Session().StartTime = start
	b.AddRecord(Record{Timestamp: start})
	b.AddRecord(Record{Timestamp: start.Add(-3 * time.Second)})
	b.AddRecord(Record{})

	s, err := b.Build()
	require.NoError(t, err)
	require.Len(t, s.Records, 3)
	assert.True(t, s.Records[1].Anomalous)
	assert.Equal(t, 0.0, s.Records[1].Elapsed)
	assert.True(t, s.Records[2].Anomalous)
	for _, r := range s.Records {
		assert.GreaterOrEqual(t, r.Elapsed, 0.0)
	}
}

func TestBuildNumbersAndLinksLaps(t *testing.T) {
	b := NewBuilder("a.tcx", FormatTCX)
	b.Session().StartTime = start
	// Added out of order on purpose.
	b.AddLap(Lap{StartTime: start.Add(60 * time.Second), Duration: 60})
	b.AddLap(Lap{StartTime: start, Duration: 60})
	for _, sec := range []int{0, 30, 60, 90, 120} {
		b.AddRecord(Record{Timestamp: start.Add(time.Duration(sec) * time.Second)})
	}

	s, err := b.Build()
	require.NoError(t, err)
	require.Len(t, s.Laps, 2)
	assert.Equal(t, 1, s.Laps[0].Index)
	assert.Equal(t, 0.0, s.Laps[0].StartOffset)
	assert.Equal(t, 2, s.Laps[1].Index)
	assert.Equal(t, 60.0, s.Laps[1].StartOffset)

	var got []int
	for _, r := range s.Records {
		got = append(got, r.Lap)
	}
	// 60s belongs to the second lap, 120s closes the last lap.
	assert.Equal(t, []int{1, 1, 2, 2, 2}, got)
	assert.Empty(t, s.Issues)
}

func TestBuildClampsRecordsOutsideLaps(t *testing.T) {
	b := NewBuilder("a.fit", FormatFIT)
	b.Session().StartTime = start
	b.AddLap(Lap{StartTime: start.Add(10 * time.Second), Duration: 10})
	b.AddLap(Lap{StartTime: start.Add(40 * time.Second), Duration: 10})
	for _, sec := range []int{5, 22, 38, 60} {
		b.AddRecord(Record{Timestamp: start.Add(time.Duration(sec) * time.Second)})
	}

	s, err := b.Build()
	require.NoError(t, err)
	var got []int
	for _, r := range s.Records {
		got = append(got, r.Lap)
	}
	assert.Equal(t, []int{1, 1, 2, 2}, got)
	assert.Len(t, s.Issues, 4)
	for _, is := range s.Issues {
		assert.Equal(t, "lap", is.Field)
	}
}

func TestBuildWarnsOnZoneOverflow(t *testing.T) {
	b := NewBuilder("a.fit", FormatFIT)
	b.Session().StartTime = start
	b.Session().Duration = 100
	b.Session().HRZoneSeconds = [NumHRZones]*float64{f(50), f(50), f(50), nil, nil}

	s, err := b.Build()
	require.NoError(t, err)
	require.Len(t, s.Issues, 1)
	assert.Equal(t, SessionLevel, s.Issues[0].Record)
	assert.Equal(t, "hr_zone_s", s.Issues[0].Field)
	assert.Equal(t, 100.0, s.Duration)
}

func TestParseActivityType(t *testing.T) {
	assert.Equal(t, Type(KindRunning), ParseActivityType("running"))
	assert.Equal(t, Type(KindCycling), ParseActivityType("Biking"))
	assert.Equal(t, Type(KindIndoorRowing), ParseActivityType("indoor rowing"))
	assert.Equal(t, Other("Paragliding"), ParseActivityType("Paragliding"))
	assert.True(t, ParseActivityType("  ").IsZero())
	assert.Equal(t, "Paragliding", Other("Paragliding").String())
	assert.Equal(t, "", ActivityType{}.String())
}

func TestSessionJSONKeepsAbsentFields(t *testing.T) {
	b := NewBuilder("a.gpx", FormatGPX)
	b.Session().StartTime = start
	s, err := b.Build()
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"activity_type", "manufacturer", "product", "serial_number", "distance_m"} {
		v, ok := m[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
	assert.Equal(t, []any{}, m["laps"])
	assert.Equal(t, []any{}, m["records"])
}

func TestSessionIn(t *testing.T) {
	wpt := start.Add(time.Minute)
	s := &Session{
		StartTime: start,
		Laps:      []Lap{{StartTime: start}},
		Records:   []Record{{Timestamp: start}, {}},
		Waypoints: []Waypoint{{Time: &wpt}},
	}
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := s.In(zone)

	assert.Equal(t, 8, local.StartTime.Hour())
	assert.True(t, local.StartTime.Equal(start))
	assert.Equal(t, zone, local.Laps[0].StartTime.Location())
	assert.Equal(t, zone, local.Records[0].Timestamp.Location())
	assert.True(t, local.Records[1].Timestamp.IsZero())
	assert.Equal(t, 8, local.Waypoints[0].Time.Hour())

	// The source session keeps its instants.
	assert.Equal(t, time.UTC, s.StartTime.Location())
	assert.Equal(t, time.UTC, s.Laps[0].StartTime.Location())
	assert.Equal(t, time.UTC, s.Records[0].Timestamp.Location())
	assert.Equal(t, 6, s.Waypoints[0].Time.Hour())
	assert.Equal(t, 6, wpt.Hour())
}
