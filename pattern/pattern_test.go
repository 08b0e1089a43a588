package pattern

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitkit/activity"
)

func strPtr(s string) *string { return &s }

func testSession() *activity.Session {
	return &activity.Session{
		StartTime:      time.Date(2022, 2, 10, 6, 50, 10, 0, time.UTC),
		Duration:       1200.9,
		ActivityType:   activity.Type(activity.KindRunning),
		ActivityDetail: strPtr("Treadmill"),
		Manufacturer:   strPtr("Garmin"),
		Product:        strPtr("Forerunner 955"),
	}
}

func TestResolveTokens(t *testing.T) {
	s := testSession()
	tests := []struct {
		pattern string
		want    string
	}{
		{"%year-%month-%day %unknown", "2022-02-10 %unknown"},
		{"%year-%month-%day %hour.%minute.%second %activity %duration", "2022-02-10 06.50.10 Running 1200"},
		{"%wd %h12%ap", "Thu 06AM"},
		{"%hour24:%mi", "06:50"},
		{"%activity_detail|%activity_detailed|%ad", "Treadmill|Treadmill|Treadmill"},
		{"%activityX", "RunningX"},
		{"%mf %pr [%sn]", "Garmin Forerunner 955 []"},
		{"100% done", "100% done"},
		{"%", "%"},
		{"trailing %%yr", "trailing %2022"},
		{"a/b\\c\x00d", "abcd"},
		{"  %yr  ", "2022"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Parse(tt.pattern).Resolve(s, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLongAndShortFormsAgree(t *testing.T) {
	pairs := [][2]string{
		{"year", "yr"}, {"month", "mo"}, {"day", "dy"}, {"weekday", "wd"},
		{"hour", "hr"}, {"hour24", "h24"}, {"hour12", "h12"}, {"ampm", "ap"},
		{"minute", "mi"}, {"second", "se"}, {"activity", "ac"},
		{"activity_detail", "ad"}, {"duration", "du"}, {"manufacturer", "mf"},
		{"product", "pr"}, {"serial_number", "sn"},
	}
	sessions := []*activity.Session{
		testSession(),
		{StartTime: time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)},
		{StartTime: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC), ActivityType: activity.Other("Kitesurfing")},
	}
	for _, s := range sessions {
		for _, p := range pairs {
			long, err := Resolve("%"+p[0], s)
			require.NoError(t, err)
			short, err := Resolve("%"+p[1], s)
			require.NoError(t, err)
			assert.Equal(t, long, short, "%%%s vs %%%s", p[0], p[1])
		}
	}
}

func TestResolveAbsentFields(t *testing.T) {
	s := &activity.Session{StartTime: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)}
	got, err := Resolve("%ac-%ad-%mf-%pr-%sn-%du-%h12%ap", s)
	require.NoError(t, err)
	assert.Equal(t, "-----0-12PM", got)
}

func TestResolveLocation(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	got, err := Parse("%hour %day").Resolve(testSession(), Options{Location: zone})
	require.NoError(t, err)
	assert.Equal(t, "08 10", got)
}

func TestResolveNilSession(t *testing.T) {
	_, err := Resolve("%year", nil)
	var patternErr *PatternError
	require.ErrorAs(t, err, &patternErr)
	assert.Equal(t, "%year", patternErr.Pattern)
}

func TestResolveDir(t *testing.T) {
	got, err := ResolveDir("archive/%year/%month//../%activity", testSession(), Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("archive", "2022", "02", "Running"), got)

	got, err = ResolveDir("/data/%yr", testSession(), Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(string(filepath.Separator), "data", "2022"), got)
}

func TestSanitizeWindowsCharacters(t *testing.T) {
	assert.Equal(t, "a b c", sanitize(`a<>: b"|?* c`, true))
	assert.Equal(t, `a<b>`, sanitize("a<b>\t", false))
}
