package rename

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/pattern"
)

// recheckRetries bounds how often a name taken between the listing snapshot
// and the rename is retried.
const recheckRetries = 5

// Result describes one rename.
type Result struct {
	From    string
	To      string
	Changed bool
	DryRun  bool
}

// Renamer renames files after their session. It is safe for concurrent use;
// renames into the same directory are serialised.
type Renamer struct {
	Pattern *pattern.Pattern
	// DryRun computes the final names without touching the filesystem.
	DryRun bool
	// MoveTo is an optional directory pattern. When set, files are moved into
	// the resolved directory instead of being renamed in place.
	MoveTo   string
	Location *time.Location
	Logger   *log.Logger

	mu   sync.Mutex
	dirs map[string]*dirState
}

type dirState struct {
	mu       sync.Mutex
	reserved map[string]string // name -> source path
}

func (r *Renamer) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Logger
}

func (r *Renamer) dir(path string) *dirState {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirs == nil {
		r.dirs = make(map[string]*dirState)
	}
	st, ok := r.dirs[key]
	if !ok {
		st = &dirState{reserved: make(map[string]string)}
		r.dirs[key] = st
	}
	return st
}

// Rename moves path to the name its session resolves to, keeping the file
// extension.
func (r *Renamer) Rename(ctx context.Context, path string, s *activity.Session) (Result, error) {
	res := Result{From: path, To: path, DryRun: r.DryRun}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if r.Pattern == nil {
		return res, &Error{Path: path, Err: errors.New("no pattern")}
	}

	opts := pattern.Options{Location: r.Location}
	name, err := r.Pattern.Resolve(s, opts)
	if err != nil {
		return res, &Error{Path: path, Err: err}
	}
	if name == "" {
		return res, &Error{Path: path, Err: ErrEmptyName}
	}
	candidate := name + filepath.Ext(path)

	dir := filepath.Dir(path)
	if r.MoveTo != "" {
		dir, err = pattern.ResolveDir(r.MoveTo, s, opts)
		if err != nil {
			return res, &Error{Path: path, Err: err}
		}
		if dir == "" {
			dir = "."
		}
	}

	st := r.dir(dir)
	st.mu.Lock()
	defer st.mu.Unlock()

	if samePath(filepath.Join(dir, candidate), path) {
		r.logger().Printf("%s already named, skipped", path)
		return res, nil
	}

	if r.MoveTo != "" && !r.DryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, &Error{Path: path, Target: dir, Err: fmt.Errorf("create directory: %w", err)}
		}
	}

	listing, err := snapshot(dir, st.reserved, r.DryRun)
	if err != nil {
		return res, &Error{Path: path, Target: dir, Err: err}
	}
	current := ""
	if samePath(dir, filepath.Dir(path)) {
		current = filepath.Base(path)
		if owner, taken := st.reserved[current]; !taken || owner == path {
			delete(listing, current)
		}
	}

	for attempt := 0; attempt <= recheckRetries; attempt++ {
		target, err := Uniquify(candidate, listing)
		if err != nil {
			return res, &Error{Path: path, Target: candidate, Err: err}
		}
		full := filepath.Join(dir, target)
		if target == current {
			st.reserved[target] = path
			r.logger().Printf("%s already named, skipped", path)
			return res, nil
		}

		if r.DryRun {
			st.reserved[target] = path
			res.To, res.Changed = full, true
			r.logger().Printf("would rename %s -> %s", path, full)
			return res, nil
		}

		if _, err := os.Lstat(full); err == nil {
			listing[target] = struct{}{}
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return res, &Error{Path: path, Target: full, Err: err}
		}

		if err := os.Rename(path, full); err != nil {
			return res, &Error{Path: path, Target: full, Err: err}
		}
		st.reserved[target] = path
		res.To, res.Changed = full, true
		r.logger().Printf("renamed %s -> %s", path, full)
		return res, nil
	}
	return res, &Error{Path: path, Target: candidate, Err: ErrTargetExists}
}

// snapshot lists dir and adds the names reserved earlier in this run. A
// missing directory is empty.
func snapshot(dir string, reserved map[string]string, dryRun bool) (map[string]struct{}, error) {
	listing := make(map[string]struct{}, len(reserved))
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil:
	case dryRun && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("list directory: %w", err)
	}
	for _, e := range entries {
		listing[e.Name()] = struct{}{}
	}
	for name := range reserved {
		listing[name] = struct{}{}
	}
	return listing, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
