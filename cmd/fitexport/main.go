package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lucasjlepore/fitkit/batch"
	"github.com/lucasjlepore/fitkit/config"
	"github.com/lucasjlepore/fitkit/export"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitexport: %v\n", err)
		return 2
	}

	var (
		format  = flag.String("format", cfg.Format, "Output format: csv|json|parquet")
		out     = flag.String("out", cfg.Out, "Output target: - for stdout, a directory, or a path prefix (default: next to each input)")
		array   = flag.Bool("array", cfg.Array, "With -format json, write every input into one JSON array document")
		workers = flag.Int("workers", cfg.Workers, "Number of files processed in parallel")
		local   = flag.Bool("local", cfg.LocalTime, "Write timestamps in the local time zone")
		verbose = flag.Bool("v", false, "Verbose logging")
		quiet   = flag.Bool("q", false, "Only report failed files")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <activity files (.fit, .gpx, .tcx)>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return 2
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitexport: %v\n", err)
		flag.Usage()
		return 2
	}
	paths, err := batch.ExpandPaths(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitexport: %v\n", err)
		return 2
	}

	logger := log.New(os.Stderr, "fitexport: ", 0)
	switch {
	case *quiet:
		logger.SetOutput(io.Discard)
	case *verbose:
		logger.SetFlags(log.Lmicroseconds | log.Lshortfile)
	}

	exporter := &export.Exporter{
		Target: export.Target(*out),
		Format: f,
		Array:  *array,
		Multi:  len(paths) > 1,
	}
	if *local {
		exporter.Location = time.Local
	}
	opts := batch.Options{
		Paths:   paths,
		Workers: *workers,
		Logger:  logger,
		Export:  exporter,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := batch.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitexport failed: %v\n", err)
		return 1
	}
	for _, failed := range report.Failed() {
		fmt.Fprintf(os.Stderr, "fitexport: %s: %v\n", failed.Path, failed.Err)
	}
	if *verbose {
		fmt.Fprint(os.Stderr, report.Summary())
	}
	return report.ExitCode()
}
