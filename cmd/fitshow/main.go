package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lucasjlepore/fitkit"
	"github.com/lucasjlepore/fitkit/activity"
	"github.com/lucasjlepore/fitkit/batch"
)

func main() {
	var (
		jsonOut = flag.Bool("json", false, "Emit the full session model as JSON")
		workers = flag.Int("workers", 0, "Number of files processed in parallel (default: number of CPUs)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <activity files (.fit, .gpx, .tcx)>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	paths, err := batch.ExpandPaths(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitshow: %v\n", err)
		os.Exit(2)
	}

	sessions := make([]*activity.Session, len(paths))
	report, err := batch.Run(context.Background(), batch.Options{
		Paths:   paths,
		Workers: *workers,
		Logger:  log.New(os.Stderr, "fitshow: ", 0),
		Visit: func(index int, s *activity.Session) error {
			sessions[index] = s
			return nil
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitshow failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, s := range sessions {
			if s == nil {
				continue
			}
			if err := enc.Encode(s); err != nil {
				fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
				os.Exit(1)
			}
		}
	} else {
		first := true
		for _, s := range sessions {
			if s == nil {
				continue
			}
			if !first {
				fmt.Println()
			}
			first = false
			fmt.Println(fitkit.BuildSummary(s))
		}
	}

	for _, f := range report.Failed() {
		fmt.Fprintf(os.Stderr, "fitshow: %s: %v\n", f.Path, f.Err)
	}
	os.Exit(report.ExitCode())
}
