package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/adapter"
)

// LoadFile detects the format of path and loads it into a Session.
func LoadFile(path string) (*activity.Session, activity.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return load(bufio.NewReaderSize(f, 64<<10), path)
}

// LoadBytes loads an in-memory document. name supplies the extension used
// for detection and the session source name.
func LoadBytes(name string, data []byte) (*activity.Session, activity.Format, error) {
	return load(bufio.NewReader(bytes.NewReader(data)), name)
}

func load(r *bufio.Reader, path string) (*activity.Session, activity.Format, error) {
	head, err := r.Peek(adapter.SniffLen)
	if err != nil && len(head) == 0 {
		return nil, "", fmt.Errorf("read input %s: %w", path, err)
	}
	format, err := adapter.Detect(path, head)
	if err != nil {
		return nil, "", err
	}
	a, err := adapter.For(format)
	if err != nil {
		return nil, format, err
	}
	s, err := a.Load(r, path)
	if err != nil {
		return nil, format, err
	}
	return s, format, nil
}

// ExpandPaths expands glob patterns the shell left unexpanded. Arguments
// without matches are kept so they are reported as failed inputs.
func ExpandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			out = append(out, arg)
			continue
		}
		if _, err := os.Stat(arg); err == nil {
			out = append(out, arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", arg, err)
		}
		if len(matches) == 0 {
			out = append(out, arg)
			continue
		}
		out = append(out, matches...)
	}
	return out, nil
}
