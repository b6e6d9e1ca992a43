/*
loadpulses augments a compare archive with per-base pulse and quality
metrics computed from a sequencer's raw basecall and pulse files.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/nucleobio/loadpulses/cmpfile"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/internal/engine"
	"github.com/nucleobio/loadpulses/internal/fofn"
	"github.com/nucleobio/loadpulses/metric"
	"github.com/nucleobio/loadpulses/movie"
)

var (
	metricsFlag = flag.String("metrics", "",
		"comma-separated metric names to compute, no spaces (default set used when empty)")
	byRead = flag.Bool("byread", false, "force row-major mode")
	byMetric = flag.Bool("bymetric", false,
		"force column-major mode (default when neither -byread nor -bymetric is set)")
	maxElements = flag.Int("maxElements", 0,
		"movie-wide element threshold above which column-major downgrades to row-major; 0 disables the fallback")
	failOnMissingData = flag.Bool("failOnMissingData", false,
		"treat missing source data for a requested metric as fatal instead of warn-and-drop")
	useCCS = flag.Bool("useccs", false, "deprecated, ignored")
)

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] movieFile cmpFile\n", os.Args[0])
	fmt.Printf("movieFile may be repeated, and each may be a .fofn listing one movie path per line.\n")
	flag.PrintDefaults()
}

// Sources opens the on-disk collaborators this system treats as external:
// the compare archive and one movie's basecall/pulse files. No concrete
// bas.h5/pls.h5/cmp.h5 codec ships in this repository; a deployment links
// one in by setting DefaultSources during program initialization, the way
// database/sql drivers or image codecs register themselves.
type Sources interface {
	OpenArchive(ctx context.Context, path string) (cmpfile.Reader, cmpfile.Writer, error)
	OpenMovie(ctx context.Context, path string) (movieID int64, base movie.BaseReader, pulse movie.PulseReader, err error)
}

// DefaultSources is nil in this repository. See the Sources doc comment.
var DefaultSources Sources

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *useCCS {
		log.Error.Printf("-useccs is deprecated and ignored")
	}
	if *byRead && *byMetric {
		log.Fatalf("-byread and -bymetric are mutually exclusive")
	}

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("missing positional arguments (movieFile and cmpFile required)")
	}
	cmpPath := args[len(args)-1]
	movieArgs := args[:len(args)-1]

	requested := metric.DefaultNames
	if *metricsFlag != "" {
		requested = strings.Split(*metricsFlag, ",")
	}

	if DefaultSources == nil {
		log.Fatalf("no archive/movie codec registered; loadpulses requires a build that links one in")
	}

	ctx := vcontext.Background()

	moviePaths, err := fofn.ExpandAll(ctx, movieArgs)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cmp, writer, err := DefaultSources.OpenArchive(ctx, cmpPath)
	if err != nil {
		log.Fatalf("opening archive %s: %v", cmpPath, err)
	}
	defer writer.Close() // nolint: errcheck

	eng := &engine.Engine{
		Cmp:    cmp,
		Writer: writer,
		Opts: engine.Options{
			ByRead:            *byRead,
			ByMetric:          *byMetric,
			MaxElements:       *maxElements,
			FailOnMissingData: *failOnMissingData,
		},
	}

	for _, moviePath := range moviePaths {
		movieID, base, pulse, err := DefaultSources.OpenMovie(ctx, moviePath)
		if err != nil {
			log.Fatalf("opening movie %s: %v", moviePath, err)
		}
		runMovie(eng, movieID, moviePath, requested, base, pulse)
	}
}

func runMovie(eng *engine.Engine, movieID int64, moviePath string, requested []string, base movie.BaseReader, pulse movie.PulseReader) {
	defer base.Close() // nolint: errcheck
	if pulse != nil {
		defer pulse.Close() // nolint: errcheck
	}

	stats, err := eng.ProcessMovie(movieID, requested, base, pulse)
	if err != nil {
		if kind, ok := errs.KindOf(err); ok && !kind.Fatal() {
			log.Error.Printf("movie %s: %v", moviePath, err)
			return
		}
		log.Fatalf("movie %s: %v", moviePath, err)
	}
	log.Debug.Printf("movie %s: computed %v (rowMajor=%v) over %d alignments (%d skipped)",
		moviePath, stats.Metrics, stats.RowMajor, stats.AlignmentsRun, stats.Skipped)
}
