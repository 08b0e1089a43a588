// Package fitkit renders human-readable summaries of canonical activity
// sessions.
package fitkit

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasjlepore/fitkit/activity"
)

// maxListedIssues caps the issues printed by BuildSummary.
const maxListedIssues = 20

// BuildSummary turns a session into a short text report.
func BuildSummary(s *activity.Session) string {
	if s == nil {
		return ""
	}

	var b strings.Builder

	activityName := s.ActivityType.String()
	if activityName == "" {
		activityName = "Unknown activity"
	}
	if s.ActivityDetail != nil {
		fmt.Fprintf(&b, "Session: %s (%s)\n", activityName, *s.ActivityDetail)
	} else {
		fmt.Fprintf(&b, "Session: %s\n", activityName)
	}
	fmt.Fprintf(&b, "Source: %s (%s)\n", s.SourceFile, strings.ToUpper(string(s.Format)))
	fmt.Fprintf(&b, "Start: %s\n", s.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %s\n",
		formatDuration(s.Duration),
		formatKilometers(s.Distance),
	)
	if s.AvgHeartRate != nil || s.MaxHeartRate != nil {
		fmt.Fprintf(
			&b,
			"HR %s avg / %s max bpm\n",
			formatOptional(s.AvgHeartRate, "%.0f"),
			formatOptional(s.MaxHeartRate, "%.0f"),
		)
	}
	if device := deviceLine(s); device != "" {
		fmt.Fprintf(&b, "Device: %s\n", device)
	}

	if zones := zoneLines(s); len(zones) > 0 {
		b.WriteString("\nHeart Rate Zones\n")
		for _, line := range zones {
			b.WriteString(line)
		}
	}

	if len(s.Laps) > 0 {
		b.WriteString("\nLaps\n")
		for _, l := range s.Laps {
			fmt.Fprintf(
				&b,
				"- Lap %d: +%s, %s, %s",
				l.Index,
				formatDuration(l.StartOffset),
				formatDuration(l.Duration),
				formatKilometers(l.Distance),
			)
			if l.AvgHeartRate != nil {
				fmt.Fprintf(&b, ", HR %.0f avg", *l.AvgHeartRate)
			}
			if l.AvgCadence != nil {
				fmt.Fprintf(&b, ", cadence %.0f avg", *l.AvgCadence)
			}
			b.WriteByte('\n')
		}
	}

	anomalous := 0
	positioned := 0
	for _, r := range s.Records {
		if r.Anomalous {
			anomalous++
		}
		if r.HasPosition() {
			positioned++
		}
	}
	fmt.Fprintf(&b, "\nRecords: %d (%d with position, %d anomalous)\n", len(s.Records), positioned, anomalous)
	if len(s.Waypoints) > 0 {
		fmt.Fprintf(&b, "Waypoints: %d\n", len(s.Waypoints))
	}

	if len(s.Issues) > 0 {
		fmt.Fprintf(&b, "\nIssues (%d)\n", len(s.Issues))
		for i, issue := range s.Issues {
			if i == maxListedIssues {
				fmt.Fprintf(&b, "- ... %d more\n", len(s.Issues)-maxListedIssues)
				break
			}
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}

	return strings.TrimSpace(b.String())
}

func deviceLine(s *activity.Session) string {
	var parts []string
	if s.Manufacturer != nil {
		parts = append(parts, *s.Manufacturer)
	}
	if s.Product != nil {
		parts = append(parts, *s.Product)
	}
	line := strings.Join(parts, " ")
	if s.SerialNumber != nil {
		if line != "" {
			line += " "
		}
		line += "(serial " + *s.SerialNumber + ")"
	}
	return line
}

func zoneLines(s *activity.Session) []string {
	var lines []string
	for i, z := range s.HRZoneSeconds {
		if z == nil || *z <= 0 {
			continue
		}
		pct := 0.0
		if s.Duration > 0 {
			pct = *z / s.Duration * 100.0
		}
		lines = append(lines, fmt.Sprintf("- Z%d: %s (%.1f%%)\n", i, formatDuration(*z), pct))
	}
	return lines
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func formatKilometers(meters *float64) string {
	if meters == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f km", *meters/1000.0)
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
