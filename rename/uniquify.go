// Package rename moves activity files to pattern-derived, collision-free names.
package rename

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxAttempts bounds the disambiguation counter.
const MaxAttempts = 10000

var (
	// ErrTargetExists is returned when no free name was found.
	ErrTargetExists = errors.New("target exists")
	// ErrEmptyName is returned when a pattern resolves to an empty name.
	ErrEmptyName = errors.New("empty file name")
)

// Error is a file-scoped rename failure.
type Error struct {
	Path   string
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("rename %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("rename %s -> %s: %v", e.Path, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Uniquify returns candidate when listing does not contain it. Otherwise it
// inserts " (n)" before the extension for n = 1, 2, ... and returns the first
// free name. It performs no I/O.
func Uniquify(candidate string, listing map[string]struct{}) (string, error) {
	if candidate == "" {
		return "", ErrEmptyName
	}
	if _, taken := listing[candidate]; !taken {
		return candidate, nil
	}
	ext := extension(candidate)
	stem := strings.TrimSuffix(candidate, ext)
	for n := 1; n <= MaxAttempts; n++ {
		name := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, taken := listing[name]; !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("uniquify %q after %d attempts: %w", candidate, MaxAttempts, ErrTargetExists)
}

// extension is filepath.Ext except that a leading dot does not start one.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}
