// Package export writes canonical sessions as CSV tables, JSON documents or
// Parquet record tables.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/fitkit/activity"
)

// Format is an output format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected csv|json|parquet)", name)
	}
}

var (
	ErrIO            = errors.New("i/o failure")
	ErrSerialization = errors.New("serialization failure")
)

// Error is a file-scoped export failure.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}

func serializationError(op, path string, err error) error {
	return &Error{Kind: ErrSerialization, Op: op, Path: path, Err: err}
}

// Target is where exports go: Stdout, a directory, a file path prefix, or
// the empty string for next to each input file.
type Target string

// Stdout is the sentinel target for the standard output stream.
const Stdout Target = "-"

// IsStdout reports whether t is the stdout sentinel.
func (t Target) IsStdout() bool {
	return strings.TrimSpace(string(t)) == string(Stdout)
}

// isDir reports whether t names a directory: an existing one, or any path
// ending in a separator.
func (t Target) isDir() bool {
	s := string(t)
	if strings.HasSuffix(s, "/") || strings.HasSuffix(s, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(s)
	return err == nil && info.IsDir()
}

// prefix returns the output path prefix for s, without extension or table
// suffix. perFile forces a per-input name under a file prefix target.
func (t Target) prefix(s *activity.Session, format Format, perFile bool) string {
	base := baseName(s.SourceFile)
	switch {
	case t == "":
		return filepath.Join(filepath.Dir(s.SourceFile), base)
	case t.isDir():
		return filepath.Join(string(t), base)
	default:
		p := strings.TrimSuffix(string(t), "."+string(format))
		if perFile {
			return p + "_" + base
		}
		return p
	}
}

func baseName(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "activity"
	}
	return base
}

// Export writes s to target and returns the written paths. Stdout writes
// return no paths.
func Export(s *activity.Session, target Target, format Format) ([]string, error) {
	return export(s, target, format, os.Stdout, false)
}

func export(s *activity.Session, target Target, format Format, stdout io.Writer, perFile bool) ([]string, error) {
	if s == nil {
		return nil, serializationError("export", "", errors.New("no session"))
	}
	if target.IsStdout() {
		data, err := Render(s, format)
		if err != nil {
			return nil, err
		}
		if _, err := stdout.Write(data); err != nil {
			return nil, ioError("write", string(Stdout), err)
		}
		return nil, nil
	}

	prefix := target.prefix(s, format, perFile)
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, ioError("create directory", dir, err)
		}
	}
	switch format {
	case FormatCSV:
		return writeCSVTables(prefix, s)
	case FormatJSON:
		path := prefix + ".json"
		if err := writeJSON(path, s); err != nil {
			return nil, err
		}
		return []string{path}, nil
	case FormatParquet:
		path := prefix + "_records.parquet"
		if err := writeRecordsParquet(path, s); err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, serializationError("export", prefix, fmt.Errorf("unsupported format %q", format))
	}
}

// Render serialises s in format to memory. CSV renders the session, laps and
// records tables in that order separated by a blank line.
func Render(s *activity.Session, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		for i, table := range tables(s) {
			if i > 0 {
				buf.WriteByte('\n')
			}
			if err := encodeCSV(&buf, table.header, table.rows); err != nil {
				return nil, serializationError("render csv", s.SourceFile, err)
			}
		}
	case FormatJSON:
		if err := encodeJSON(&buf, s); err != nil {
			return nil, serializationError("render json", s.SourceFile, err)
		}
	case FormatParquet:
		data, err := marshalRecordsParquet(s)
		if err != nil {
			return nil, serializationError("render parquet", s.SourceFile, err)
		}
		buf.Write(data)
	default:
		return nil, serializationError("render", s.SourceFile, fmt.Errorf("unsupported format %q", format))
	}
	return buf.Bytes(), nil
}
