package fitkit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func TestBuildSummary(t *testing.T) {
	s := &activity.Session{
		SourceFile:     "run.fit",
		Format:         activity.FormatFIT,
		StartTime:      time.Date(2022, 2, 10, 6, 50, 10, 0, time.UTC),
		Duration:       1200,
		ActivityType:   activity.Type(activity.KindRunning),
		ActivityDetail: strPtr("Treadmill"),
		Distance:       floatPtr(3500),
		AvgHeartRate:   floatPtr(140),
		Manufacturer:   strPtr("Garmin"),
		SerialNumber:   strPtr("3990000000"),
		Laps: []activity.Lap{
			{Index: 1, Duration: 1200, Distance: floatPtr(3500), AvgHeartRate: floatPtr(140)},
		},
		Records: []activity.Record{
			{Latitude: floatPtr(47), Longitude: floatPtr(8)},
			{Anomalous: true},
		},
		Issues: []activity.Issue{{Record: 1, Field: "timestamp", Message: "missing timestamp"}},
	}
	s.HRZoneSeconds[1] = floatPtr(300)

	notes := BuildSummary(s)
	for _, want := range []string{
		"Session: Running (Treadmill)",
		"Source: run.fit (FIT)",
		"Start: 2022-02-10 06:50:10 UTC",
		"Duration 20m00s | Distance 3.50 km",
		"HR 140 avg / n/a max bpm",
		"Device: Garmin (serial 3990000000)",
		"- Z1: 5m00s (25.0%)",
		"- Lap 1: +0s, 20m00s, 3.50 km, HR 140 avg",
		"Records: 2 (1 with position, 1 anomalous)",
		"- record 1 timestamp: missing timestamp",
	} {
		if !strings.Contains(notes, want) {
			t.Errorf("summary missing %q:\n%s", want, notes)
		}
	}
}

func TestBuildSummaryMinimal(t *testing.T) {
	notes := BuildSummary(&activity.Session{SourceFile: "walk.gpx", Format: activity.FormatGPX})
	if !strings.HasPrefix(notes, "Session: Unknown activity\n") {
		t.Fatalf("unexpected header:\n%s", notes)
	}
	for _, absent := range []string{"Device:", "HR ", "Laps", "Issues"} {
		if strings.Contains(notes, absent) {
			t.Errorf("summary should not contain %q:\n%s", absent, notes)
		}
	}
	if BuildSummary(nil) != "" {
		t.Fatal("expected empty summary for nil session")
	}
}

func TestBuildSummaryCapsIssues(t *testing.T) {
	s := &activity.Session{SourceFile: "x.tcx", Format: activity.FormatTCX}
	for i := 0; i < maxListedIssues+5; i++ {
		s.Issues = append(s.Issues, activity.Issue{Record: i, Field: "heart rate", Message: fmt.Sprintf("bad %d", i)})
	}
	notes := BuildSummary(s)
	if !strings.Contains(notes, "- ... 5 more") {
		t.Fatalf("expected truncated issue list:\n%s", notes)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{0: "0s", 59.4: "59s", 61: "1m01s", 3725: "1h02m05s"}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
