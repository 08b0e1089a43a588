package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/adapter"
	"github.com/lucasjlepore/fitkit/export"
	"github.com/lucasjlepore/fitkit/pattern"
	"github.com/lucasjlepore/fitkit/rename"
)

func gpxDoc(activityType string, times ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk>`)
	fmt.Fprintf(&b, "<type>%s</type><trkseg>", activityType)
	for i, ts := range times {
		fmt.Fprintf(&b, `<trkpt lat="47.%d" lon="8.0"><time>%s</time></trkpt>`, i, ts)
	}
	b.WriteString("</trkseg></trk></gpx>\n")
	return b.String()
}

func newTestLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunRenamesFromPattern(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "upload.gpx", gpxDoc("running", "2022-02-10T06:50:10Z", "2022-02-10T07:10:10Z"))

	report, err := Run(context.Background(), Options{
		Paths: []string{path},
		Rename: &rename.Renamer{
			Pattern: pattern.Parse("%year-%month-%day %hour.%minute.%second %activity %duration"),
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	f := report.Files[0]
	require.NoError(t, f.Err)
	assert.Equal(t, activity.FormatGPX, f.Format)
	assert.Equal(t, []string{"load", "rename"}, f.Actions)
	assert.Equal(t, filepath.Join(dir, "2022-02-10 06.50.10 Running 1200.gpx"), f.NewPath)
	assert.Equal(t, 0, report.ExitCode())
}

func TestSinglePointTrackResolvesStart(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "one.gpx", gpxDoc("running", "2022-02-10T06:50:10Z"))

	s, format, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, activity.FormatGPX, format)
	got, err := pattern.Resolve("%year-%month-%day %hour.%minute.%second %activity", s)
	require.NoError(t, err)
	assert.Equal(t, "2022-02-10 06.50.10 Running", got)
}

func TestRunContinuesPastBadFile(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.gpx", gpxDoc("cycling", "2022-02-10T06:50:10Z", "2022-02-10T07:00:10Z"))
	bad := writeInput(t, dir, "bad.gpx", "<gpx version=\"1.1\"><trk>")
	missing := filepath.Join(dir, "missing.tcx")

	var logs bytes.Buffer
	report, err := Run(context.Background(), Options{
		Paths:   []string{bad, good, missing},
		Workers: 2,
		Logger:  newTestLogger(&logs),
		Export:  &export.Exporter{Target: export.Target(filepath.Join(dir, "out") + "/"), Format: export.FormatCSV, Multi: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExitCode())

	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, bad, failed[0].Path)
	assert.ErrorIs(t, failed[0].Err, adapter.ErrMalformed)
	assert.Equal(t, missing, failed[1].Path)
	assert.ErrorIs(t, failed[1].Err, os.ErrNotExist)

	assert.True(t, report.Files[1].OK())
	assert.Len(t, report.Files[1].Outputs, 3)
	assert.Contains(t, logs.String(), bad)
	assert.Contains(t, report.Summary(), "1 ok, 2 failed")
}

func TestRunArrayFollowsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 9; i++ {
		ts := fmt.Sprintf("2022-02-%02dT06:50:10Z", i+1)
		paths = append(paths, writeInput(t, dir, fmt.Sprintf("in-%d.gpx", i), gpxDoc("walking", ts)))
	}

	var out bytes.Buffer
	report, err := Run(context.Background(), Options{
		Paths:   paths,
		Workers: 4,
		Export:  &export.Exporter{Target: export.Stdout, Format: export.FormatJSON, Array: true, Stdout: &out},
	})
	require.NoError(t, err)
	require.Equal(t, 0, report.ExitCode())

	var docs []struct {
		SourceFile string `json:"source_file"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &docs))
	require.Len(t, docs, len(paths))
	for i, doc := range docs {
		assert.Equal(t, paths[i], doc.SourceFile)
	}
}

func TestRunWithoutPaths(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.fit", "")
	b := writeInput(t, dir, "b.fit", "")
	writeInput(t, dir, "c.gpx", "")

	got, err := ExpandPaths([]string{filepath.Join(dir, "*.fit"), filepath.Join(dir, "none-*.tcx"), "plain.gpx"})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, filepath.Join(dir, "none-*.tcx"), "plain.gpx"}, got)
}

func TestLoadBytesDetectsByContent(t *testing.T) {
	s, format, err := LoadBytes("upload", []byte(gpxDoc("hiking", "2022-02-10T06:50:10Z", "2022-02-10T06:55:10Z")))
	require.NoError(t, err)
	assert.Equal(t, activity.FormatGPX, format)
	assert.Equal(t, "upload", s.SourceFile)
	assert.Equal(t, activity.Type(activity.KindHiking), s.ActivityType)
	assert.InDelta(t, 300, s.Duration, 1e-9)

	_, _, err = LoadBytes("upload", []byte("not an activity"))
	assert.ErrorIs(t, err, adapter.ErrUnknownFormat)

	_, _, err = LoadBytes("empty.gpx", nil)
	assert.Error(t, err)
}
