package export

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lucasjlepore/fitkit/activity"
)

// ArrayFileName is the document name used for array mode under a directory
// target.
const ArrayFileName = "activities.json"

// Exporter exports a batch of sessions. It is safe for concurrent use:
// stdout writes never interleave, and in array mode the sessions are
// collected and written by Flush in input order.
type Exporter struct {
	Target Target
	Format Format
	// Array collects every session into one JSON array document.
	Array bool
	// Multi marks a batch of several inputs. A file prefix target then gets
	// one output set per input.
	Multi bool
	// Location, when set, is the zone timestamps are written in.
	Location *time.Location
	// Stdout defaults to os.Stdout.
	Stdout io.Writer

	mu      sync.Mutex
	pending []indexed
}

type indexed struct {
	index   int
	session *activity.Session
}

func (e *Exporter) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Exporter) arrayMode() bool {
	return e.Array && e.Format == FormatJSON
}

// Add exports the session of input index. In array mode the session is only
// collected.
func (e *Exporter) Add(index int, s *activity.Session) ([]string, error) {
	if s == nil {
		return nil, serializationError("export", "", errors.New("no session"))
	}
	if e.Location != nil {
		s = s.In(e.Location)
	}
	if e.arrayMode() {
		e.mu.Lock()
		e.pending = append(e.pending, indexed{index: index, session: s})
		e.mu.Unlock()
		return nil, nil
	}
	if e.Target.IsStdout() {
		data, err := Render(s, e.Format)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, err := e.stdout().Write(data); err != nil {
			return nil, ioError("write", string(Stdout), err)
		}
		return nil, nil
	}
	return export(s, e.Target, e.Format, e.stdout(), e.Multi)
}

// Flush writes the collected array document and returns its path, or "" for
// stdout. It does nothing outside array mode.
func (e *Exporter) Flush() (string, error) {
	if !e.arrayMode() {
		return "", nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sort.SliceStable(e.pending, func(i, j int) bool {
		return e.pending[i].index < e.pending[j].index
	})
	docs := make([]*activity.Session, 0, len(e.pending))
	for _, p := range e.pending {
		docs = append(docs, p.session)
	}
	e.pending = nil

	if e.Target.IsStdout() {
		if err := encodeJSON(e.stdout(), docs); err != nil {
			return "", serializationError("write json array", string(Stdout), err)
		}
		return "", nil
	}

	path := e.arrayPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", ioError("create directory", dir, err)
		}
	}
	if err := writeJSON(path, docs); err != nil {
		return "", err
	}
	return path, nil
}

func (e *Exporter) arrayPath() string {
	switch {
	case e.Target == "":
		return ArrayFileName
	case e.Target.isDir():
		return filepath.Join(string(e.Target), ArrayFileName)
	default:
		return strings.TrimSuffix(string(e.Target), ".json") + ".json"
	}
}
