package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
)

// timeLayout is RFC 3339 with a numeric offset, also for UTC.
const timeLayout = "2006-01-02T15:04:05.999999999-07:00"

// Column orders of the three CSV tables. source_file joins them.
var (
	SessionHeader = []string{
		"source_file", "format", "start_time", "duration_s", "activity_type", "activity_detail",
		"distance_m", "avg_heart_rate_bpm", "max_heart_rate_bpm",
		"hr_zone_0_s", "hr_zone_1_s", "hr_zone_2_s", "hr_zone_3_s", "hr_zone_4_s",
		"manufacturer", "product", "serial_number",
		"lap_count", "record_count", "waypoint_count", "issue_count",
	}
	LapHeader = []string{
		"source_file", "lap", "start_time", "start_offset_s", "duration_s", "distance_m",
		"avg_cadence_rpm", "max_cadence_rpm", "avg_heart_rate_bpm", "max_heart_rate_bpm",
		"hr_zone_0_s", "hr_zone_1_s", "hr_zone_2_s", "hr_zone_3_s", "hr_zone_4_s",
	}
	RecordHeader = []string{
		"source_file", "record_index", "timestamp", "elapsed_s", "lap",
		"heart_rate_bpm", "cadence_rpm", "speed_mps", "altitude_m", "distance_m", "temperature_c",
		"latitude_deg", "longitude_deg", "anomalous",
	}
)

type table struct {
	suffix string
	header []string
	rows   [][]string
}

func tables(s *activity.Session) []table {
	return []table{
		{suffix: "_session.csv", header: SessionHeader, rows: [][]string{sessionRow(s)}},
		{suffix: "_laps.csv", header: LapHeader, rows: lapRows(s)},
		{suffix: "_records.csv", header: RecordHeader, rows: recordRows(s)},
	}
}

func writeCSVTables(prefix string, s *activity.Session) ([]string, error) {
	var paths []string
	for _, t := range tables(s) {
		path := prefix + t.suffix
		if err := writeCSV(path, t.header, t.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return ioError("create", path, err)
	}
	defer f.Close()

	if err := encodeCSV(f, header, rows); err != nil {
		return ioError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return ioError("close", path, err)
	}
	return nil
}

func encodeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sessionRow(s *activity.Session) []string {
	row := []string{
		s.SourceFile,
		string(s.Format),
		formatTime(s.StartTime),
		formatFloat(s.Duration),
		s.ActivityType.String(),
		formatString(s.ActivityDetail),
		formatFloatPtr(s.Distance),
		formatFloatPtr(s.AvgHeartRate),
		formatFloatPtr(s.MaxHeartRate),
	}
	row = append(row, zoneCells(s.HRZoneSeconds)...)
	return append(row,
		formatString(s.Manufacturer),
		formatString(s.Product),
		formatString(s.SerialNumber),
		strconv.Itoa(len(s.Laps)),
		strconv.Itoa(len(s.Records)),
		strconv.Itoa(len(s.Waypoints)),
		strconv.Itoa(len(s.Issues)),
	)
}

func lapRows(s *activity.Session) [][]string {
	rows := make([][]string, 0, len(s.Laps))
	for _, l := range s.Laps {
		row := []string{
			s.SourceFile,
			strconv.Itoa(l.Index),
			formatTime(l.StartTime),
			formatFloat(l.StartOffset),
			formatFloat(l.Duration),
			formatFloatPtr(l.Distance),
			formatFloatPtr(l.AvgCadence),
			formatFloatPtr(l.MaxCadence),
			formatFloatPtr(l.AvgHeartRate),
			formatFloatPtr(l.MaxHeartRate),
		}
		rows = append(rows, append(row, zoneCells(l.HRZoneSeconds)...))
	}
	return rows
}

func recordRows(s *activity.Session) [][]string {
	rows := make([][]string, 0, len(s.Records))
	for i, r := range s.Records {
		rows = append(rows, []string{
			s.SourceFile,
			strconv.Itoa(i),
			formatTime(r.Timestamp),
			formatFloat(r.Elapsed),
			strconv.Itoa(r.Lap),
			formatFloatPtr(r.HeartRate),
			formatFloatPtr(r.Cadence),
			formatFloatPtr(r.Speed),
			formatFloatPtr(r.Altitude),
			formatFloatPtr(r.Distance),
			formatFloatPtr(r.Temperature),
			formatFloatPtr(r.Latitude),
			formatFloatPtr(r.Longitude),
			strconv.FormatBool(r.Anomalous),
		})
	}
	return rows
}

func zoneCells(zones [activity.NumHRZones]*float64) []string {
	cells := make([]string, 0, len(zones))
	for _, z := range zones {
		cells = append(cells, formatFloatPtr(z))
	}
	return cells
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
