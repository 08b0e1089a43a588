// Package batch runs load, export and rename over a list of activity files
// with a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/export"
	"github.com/lucasjlepore/fitkit/rename"
)

// Options configures a batch run.
type Options struct {
	Paths   []string
	Workers int // defaults to runtime.NumCPU()
	Logger  *log.Logger

	// Export, when set, receives every loaded session.
	Export *export.Exporter
	// Rename, when set, renames every loaded file after export.
	Rename *rename.Renamer
	// Visit, when set, is called with every loaded session.
	Visit func(index int, s *activity.Session) error
}

// FileReport is the outcome for one input file.
type FileReport struct {
	Index   int
	Path    string
	Format  activity.Format
	Actions []string
	Outputs []string
	NewPath string
	Issues  []activity.Issue
	Err     error
}

// OK reports whether every step succeeded for the file.
func (f FileReport) OK() bool {
	return f.Err == nil
}

// Report is the outcome of a run. Files are in input order.
type Report struct {
	RunID       uuid.UUID
	Started     time.Time
	Finished    time.Time
	Files       []FileReport
	ArrayOutput string
}

// Failed returns the reports of the files that failed.
func (r *Report) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if !f.OK() {
			out = append(out, f)
		}
	}
	return out
}

// ExitCode is 0 when every file succeeded and 1 otherwise.
func (r *Report) ExitCode() int {
	if len(r.Failed()) > 0 {
		return 1
	}
	return 0
}

// Summary renders a short human-readable account of the run.
func (r *Report) Summary() string {
	issues := 0
	for _, f := range r.Files {
		issues += len(f.Issues)
	}
	failed := r.Failed()

	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d files, %d ok, %d failed, %d issues in %s\n",
		r.RunID, len(r.Files), len(r.Files)-len(failed), len(failed), issues,
		r.Finished.Sub(r.Started).Round(time.Millisecond))
	for _, f := range failed {
		fmt.Fprintf(&b, "  failed: %s: %v\n", f.Path, f.Err)
	}
	if r.ArrayOutput != "" {
		fmt.Fprintf(&b, "  output: %s\n", r.ArrayOutput)
	}
	return b.String()
}

// Run processes every path. A failing file is recorded in its FileReport and
// never stops the others. The returned error is reserved for failures that
// concern the whole run.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if len(opts.Paths) == 0 {
		return nil, errors.New("no input files")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	report := &Report{
		RunID:   uuid.New(),
		Started: time.Now(),
		Files:   make([]FileReport, len(opts.Paths)),
	}
	logger.Printf("run %s: %d files, %d workers", report.RunID, len(opts.Paths), workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range opts.Paths {
		g.Go(func() error {
			report.Files[i] = processFile(gctx, i, path, opts, logger)
			return nil
		})
	}
	_ = g.Wait()

	var runErr error
	if opts.Export != nil {
		out, err := opts.Export.Flush()
		if err != nil {
			runErr = fmt.Errorf("flush export: %w", err)
		}
		report.ArrayOutput = out
	}
	if err := ctx.Err(); err != nil && runErr == nil {
		runErr = err
	}
	report.Finished = time.Now()
	return report, runErr
}

func processFile(ctx context.Context, index int, path string, opts Options, logger *log.Logger) FileReport {
	fr := FileReport{Index: index, Path: path}
	fail := func(action string, err error) FileReport {
		fr.Err = fmt.Errorf("%s: %w", action, err)
		logger.Printf("error: %s: %v", path, fr.Err)
		return fr
	}
	if err := ctx.Err(); err != nil {
		return fail("load", err)
	}

	s, format, err := LoadFile(path)
	fr.Format = format
	if err != nil {
		return fail("load", err)
	}
	fr.Actions = append(fr.Actions, "load")
	fr.Issues = s.Issues
	for _, issue := range s.Issues {
		logger.Printf("warning: %s: %s", path, issue)
	}

	if opts.Visit != nil {
		if err := opts.Visit(index, s); err != nil {
			return fail("visit", err)
		}
	}
	if opts.Export != nil {
		outputs, err := opts.Export.Add(index, s)
		fr.Outputs = outputs
		if err != nil {
			return fail("export", err)
		}
		fr.Actions = append(fr.Actions, "export")
		for _, out := range outputs {
			logger.Printf("%s -> %s", path, out)
		}
	}
	if opts.Rename != nil {
		res, err := opts.Rename.Rename(ctx, path, s)
		if err != nil {
			return fail("rename", err)
		}
		fr.Actions = append(fr.Actions, "rename")
		if res.Changed {
			fr.NewPath = res.To
		}
	}
	return fr
}
