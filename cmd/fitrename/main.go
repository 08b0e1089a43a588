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
	"github.com/lucasjlepore/fitkit/pattern"
	"github.com/lucasjlepore/fitkit/rename"
)

const tokenHelp = `Pattern tokens (long / short):
  %year %yr  %month %mo  %day %dy  %weekday %wd
  %hour %hr  %hour24 %h24  %hour12 %h12  %ampm %ap  %minute %mi  %second %se
  %activity %ac  %activity_detail %ad  %duration %du
  %manufacturer %mf  %product %pr  %serial_number %sn
Unknown %tokens are kept as written.
`

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "Usage: %s [flags] <activity files (.fit, .gpx, .tcx)>\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
	fmt.Fprintln(w)
	io.WriteString(w, tokenHelp)
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitrename: %v\n", err)
		return 2
	}

	var (
		patternText = flag.String("pattern", cfg.Pattern, "File name pattern, without extension")
		dryRun      = flag.Bool("dry-run", false, "Print the new names without renaming")
		moveTo      = flag.String("move", cfg.MoveTo, "Directory pattern to move files into, e.g. archive/%year/%month")
		workers     = flag.Int("workers", cfg.Workers, "Number of files processed in parallel")
		local       = flag.Bool("local", cfg.LocalTime, "Resolve time tokens in the local time zone")
		verbose     = flag.Bool("v", false, "Verbose logging")
		quiet       = flag.Bool("q", false, "Only report failed files")
	)
	flag.Usage = func() { usage(flag.CommandLine) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return 2
	}
	paths, err := batch.ExpandPaths(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitrename: %v\n", err)
		return 2
	}

	logger := log.New(os.Stderr, "fitrename: ", 0)
	switch {
	case *quiet:
		logger.SetOutput(io.Discard)
	case *verbose:
		logger.SetFlags(log.Lmicroseconds | log.Lshortfile)
	}

	renamer := &rename.Renamer{
		Pattern: pattern.Parse(*patternText),
		DryRun:  *dryRun,
		MoveTo:  *moveTo,
		Logger:  logger,
	}
	if *local {
		renamer.Location = time.Local
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := batch.Run(ctx, batch.Options{
		Paths:   paths,
		Workers: *workers,
		Logger:  logger,
		Rename:  renamer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitrename failed: %v\n", err)
		return 1
	}

	for _, f := range report.Files {
		switch {
		case !f.OK():
			fmt.Fprintf(os.Stderr, "fitrename: %s: %v\n", f.Path, f.Err)
		case f.NewPath != "" && *dryRun:
			fmt.Printf("%s -> %s (dry run)\n", f.Path, f.NewPath)
		case f.NewPath != "" && !*quiet:
			fmt.Printf("%s -> %s\n", f.Path, f.NewPath)
		}
	}
	if *verbose {
		fmt.Fprint(os.Stderr, report.Summary())
	}
	return report.ExitCode()
}
