// Package adapter maps decoded FIT, GPX and TCX documents onto the canonical
// activity model.
package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/fitkit/activity"
)

var (
	// ErrMalformed marks a corrupt, truncated or structurally invalid document.
	ErrMalformed = errors.New("malformed document")
	// ErrUnsupportedVersion marks a well-formed document of an unsupported
	// protocol or schema version.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrMissingTimestamp marks a document with no usable session start.
	ErrMissingTimestamp = activity.ErrMissingTimestamp
	// ErrUnknownFormat is returned by Detect when neither the extension nor the
	// content identify a supported format.
	ErrUnknownFormat = errors.New("unknown file format")
)

// Error is a file-scoped adapter failure.
type Error struct {
	Source string
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func malformed(source, reason string, err error) error {
	return &Error{Source: source, Kind: ErrMalformed, Reason: reason, Err: err}
}

func unsupported(source, reason string, err error) error {
	return &Error{Source: source, Kind: ErrUnsupportedVersion, Reason: reason, Err: err}
}

func build(source string, b *activity.Builder) (*activity.Session, error) {
	s, err := b.Build()
	if errors.Is(err, activity.ErrMissingTimestamp) {
		return nil, &Error{Source: source, Kind: ErrMissingTimestamp}
	}
	if err != nil {
		return nil, malformed(source, "build session", err)
	}
	return s, nil
}

// Adapter loads one source format into a Session.
type Adapter interface {
	Format() activity.Format
	Load(r io.Reader, source string) (*activity.Session, error)
}

// For returns the adapter for format.
func For(format activity.Format) (Adapter, error) {
	switch format {
	case activity.FormatFIT:
		return FITAdapter{}, nil
	case activity.FormatGPX:
		return GPXAdapter{}, nil
	case activity.FormatTCX:
		return TCXAdapter{}, nil
	default:
		return nil, fmt.Errorf("adapter for %q: %w", format, ErrUnknownFormat)
	}
}

// SniffLen is the number of leading bytes Detect inspects.
const SniffLen = 512

// Detect identifies the format of path, by extension first and then by the
// leading bytes of its content.
func Detect(path string, head []byte) (activity.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fit":
		return activity.FormatFIT, nil
	case ".gpx":
		return activity.FormatGPX, nil
	case ".tcx":
		return activity.FormatTCX, nil
	}

	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	if len(head) >= 12 && string(head[8:12]) == ".FIT" {
		return activity.FormatFIT, nil
	}
	if bytes.Contains(head, []byte("<gpx")) || bytes.Contains(head, []byte("topografix.com/GPX")) {
		return activity.FormatGPX, nil
	}
	if bytes.Contains(head, []byte("TrainingCenterDatabase")) {
		return activity.FormatTCX, nil
	}
	return "", fmt.Errorf("detect %s: %w", path, ErrUnknownFormat)
}
