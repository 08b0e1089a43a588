// Package pattern resolves %token rename patterns against an activity session.
package pattern

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
)

// PatternError is returned when a pattern cannot be resolved at all.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("resolve pattern %q: %s", e.Pattern, e.Reason)
}

// Options controls rendering.
type Options struct {
	// Location renders time tokens in this zone. Nil keeps the zone of the
	// session start.
	Location *time.Location
}

type field int

const (
	fieldYear field = iota
	fieldMonth
	fieldDay
	fieldWeekday
	fieldHour24
	fieldHour12
	fieldAmPm
	fieldMinute
	fieldSecond
	fieldActivity
	fieldActivityDetail
	fieldDuration
	fieldManufacturer
	fieldProduct
	fieldSerialNumber
)

var tokens = map[string]field{
	"year":              fieldYear,
	"yr":                fieldYear,
	"month":             fieldMonth,
	"mo":                fieldMonth,
	"day":               fieldDay,
	"dy":                fieldDay,
	"weekday":           fieldWeekday,
	"wd":                fieldWeekday,
	"hour":              fieldHour24,
	"hr":                fieldHour24,
	"hour24":            fieldHour24,
	"h24":               fieldHour24,
	"hour12":            fieldHour12,
	"h12":               fieldHour12,
	"ampm":              fieldAmPm,
	"ap":                fieldAmPm,
	"minute":            fieldMinute,
	"mi":                fieldMinute,
	"second":            fieldSecond,
	"se":                fieldSecond,
	"activity":          fieldActivity,
	"ac":                fieldActivity,
	"activity_detail":   fieldActivityDetail,
	"activity_detailed": fieldActivityDetail,
	"ad":                fieldActivityDetail,
	"duration":          fieldDuration,
	"du":                fieldDuration,
	"manufacturer":      fieldManufacturer,
	"mf":                fieldManufacturer,
	"product":           fieldProduct,
	"pr":                fieldProduct,
	"serial_number":     fieldSerialNumber,
	"sn":                fieldSerialNumber,
}

// tokenNames holds the token names longest first.
var tokenNames = func() []string {
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

type segment struct {
	literal string
	token   bool
	field   field
}

// Pattern is a compiled rename pattern.
type Pattern struct {
	source   string
	segments []segment
}

// Parse compiles pattern. Every string is a valid pattern: a % that does not
// start a known token is kept as literal text.
func Parse(pattern string) *Pattern {
	p := &Pattern{source: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		if pattern[i] != '%' {
			lit.WriteByte(pattern[i])
			i++
			continue
		}
		name, ok := matchToken(pattern[i+1:])
		if !ok {
			lit.WriteByte('%')
			i++
			continue
		}
		flush()
		p.segments = append(p.segments, segment{token: true, field: tokens[name]})
		i += 1 + len(name)
	}
	flush()
	return p
}

func matchToken(rest string) (string, bool) {
	for _, name := range tokenNames {
		if strings.HasPrefix(rest, name) {
			return name, true
		}
	}
	return "", false
}

// String returns the source text of the pattern.
func (p *Pattern) String() string {
	return p.source
}

// Resolve substitutes every token from s and returns a sanitised single path
// component.
func (p *Pattern) Resolve(s *activity.Session, opts Options) (string, error) {
	raw, err := p.render(s, opts)
	if err != nil {
		return "", err
	}
	return Sanitize(raw), nil
}

func (p *Pattern) render(s *activity.Session, opts Options) (string, error) {
	if s == nil {
		return "", &PatternError{Pattern: p.source, Reason: "no session"}
	}
	start := s.StartTime
	if opts.Location != nil {
		start = start.In(opts.Location)
	}

	var b strings.Builder
	for _, seg := range p.segments {
		if !seg.token {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString(value(seg.field, s, start))
	}
	return b.String(), nil
}

func value(f field, s *activity.Session, start time.Time) string {
	switch f {
	case fieldYear:
		return fmt.Sprintf("%04d", start.Year())
	case fieldMonth:
		return fmt.Sprintf("%02d", int(start.Month()))
	case fieldDay:
		return fmt.Sprintf("%02d", start.Day())
	case fieldWeekday:
		return start.Weekday().String()[:3]
	case fieldHour24:
		return fmt.Sprintf("%02d", start.Hour())
	case fieldHour12:
		h := start.Hour() % 12
		if h == 0 {
			h = 12
		}
		return fmt.Sprintf("%02d", h)
	case fieldAmPm:
		if start.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case fieldMinute:
		return fmt.Sprintf("%02d", start.Minute())
	case fieldSecond:
		return fmt.Sprintf("%02d", start.Second())
	case fieldActivity:
		return s.ActivityType.String()
	case fieldActivityDetail:
		return deref(s.ActivityDetail)
	case fieldDuration:
		return strconv.FormatInt(int64(s.Duration), 10)
	case fieldManufacturer:
		return deref(s.Manufacturer)
	case fieldProduct:
		return deref(s.Product)
	case fieldSerialNumber:
		return deref(s.SerialNumber)
	default:
		return ""
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Resolve is Parse(pattern).Resolve with default options.
func Resolve(pattern string, s *activity.Session) (string, error) {
	return Parse(pattern).Resolve(s, Options{})
}

// ResolveDir resolves a directory pattern whose components are separated by
// '/'. Each component is sanitised on its own. Empty and dot components are
// dropped.
func ResolveDir(pattern string, s *activity.Session, opts Options) (string, error) {
	var parts []string
	for i, comp := range strings.Split(pattern, "/") {
		if i == 0 && comp == "" {
			parts = append(parts, string(filepath.Separator))
			continue
		}
		resolved, err := Parse(comp).Resolve(s, opts)
		if err != nil {
			return "", err
		}
		switch resolved {
		case "", ".", "..":
		default:
			parts = append(parts, resolved)
		}
	}
	return filepath.Join(parts...), nil
}

var windowsReserved = runtime.GOOS == "windows"

// Sanitize removes characters that cannot appear in a file name: path
// separators, NUL and control characters, plus <>:"|?* on Windows.
func Sanitize(name string) string {
	return sanitize(name, windowsReserved)
}

func sanitize(name string, windows bool) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r < 0x20 || r == 0x7f:
			return -1
		case windows && strings.ContainsRune(`<>:"|?*`, r):
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
