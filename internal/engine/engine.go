// Package engine implements the writer loop: it drives the lookup
// builder, alignment-space mapper, field cache, and metric computers in
// either column-major or row-major order for a single movie, grouping by
// (ref-group, read-group) for locality.
package engine

import (
	"github.com/grailbio/base/log"

	"github.com/nucleobio/loadpulses/cmpfile"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/internal/fieldcache"
	"github.com/nucleobio/loadpulses/internal/lookup"
	"github.com/nucleobio/loadpulses/metric"
	"github.com/nucleobio/loadpulses/movie"
)

// Options controls mode selection and the missing-data policy.
type Options struct {
	ByRead            bool
	ByMetric          bool
	MaxElements       int // 0 disables the column-major->row-major fallback
	FailOnMissingData bool
}

// Engine owns the archive collaborator and drives one or more movies against
// it. It holds no per-movie state between ProcessMovie calls.
type Engine struct {
	Cmp    cmpfile.Reader
	Writer cmpfile.Writer
	Opts   Options
}

// Stats summarizes one ProcessMovie call, for the driver's per-movie log
// line.
type Stats struct {
	Metrics       []string
	RowMajor      bool
	AlignmentsRun int
	Skipped       int
}

// ProcessMovie resolves requested against the movie's field availability,
// writes the movie-level attributes, and then drives the per-alignment
// metric computation in the chosen mode.
func (e *Engine) ProcessMovie(movieID int64, requested []string, base movie.BaseReader, pulse movie.PulseReader) (Stats, error) {
	readType, err := e.Cmp.ReadType(movieID)
	if err != nil {
		return Stats{}, errs.Wrap(errs.IO, err, "resolving read type for movie %d", movieID)
	}

	av := metric.Availability{
		BaseAvailable:  base.FieldAvailable,
		PulseAvailable: pulseAvailability(pulse),
		HasPulseReader: pulse != nil,
		ReadType:       readType,
		FailOnMissing:  e.Opts.FailOnMissingData,
	}

	resolved, dropped, err := metric.Resolve(requested, av)
	if err != nil {
		return Stats{}, err
	}
	for _, name := range dropped {
		log.Error.Printf("movie %d: dropping metric %q, insufficient source data", movieID, name)
	}

	perAlignment, err := e.writeMovieAttributes(movieID, resolved, base)
	if err != nil {
		return Stats{}, err
	}
	if len(perAlignment) == 0 {
		return Stats{Metrics: metricNames(perAlignment)}, nil
	}

	records, err := e.Cmp.Alignments(movieID)
	if err != nil {
		return Stats{}, errs.Wrap(errs.IO, err, "enumerating alignments for movie %d", movieID)
	}
	if len(records) == 0 {
		log.Error.Printf("movie %d: archive has no alignments, nothing to do", movieID)
		return Stats{Metrics: metricNames(perAlignment)}, nil
	}

	entries, err := lookup.Build(records, e.Cmp, base)
	if err != nil {
		return Stats{}, err
	}

	rowMajor, err := e.chooseMode(perAlignment, base, pulse)
	if err != nil {
		return Stats{}, err
	}

	skipped := 0
	for _, en := range entries {
		if en.Skip {
			skipped++
		}
	}
	stats := Stats{Metrics: metricNames(perAlignment), RowMajor: rowMajor, AlignmentsRun: len(entries) - skipped, Skipped: skipped}

	if rowMajor {
		if err := e.runRowMajor(entries, perAlignment, base, pulse); err != nil {
			return stats, err
		}
		return stats, nil
	}
	if err := e.runColumnMajor(entries, perAlignment, base, pulse); err != nil {
		return stats, err
	}
	return stats, nil
}

// writeMovieAttributes handles the MovieAttribute-kind resolutions
// (WhenStarted), which are written once per movie outside the per-alignment
// loop, and returns the remaining per-alignment resolutions.
func (e *Engine) writeMovieAttributes(movieID int64, resolved []metric.Resolution, base movie.BaseReader) ([]metric.Resolution, error) {
	var perAlignment []metric.Resolution
	for _, r := range resolved {
		if r.Descriptor.Kind != metric.MovieAttribute {
			perAlignment = append(perAlignment, r)
			continue
		}
		if r.Descriptor.Name != "WhenStarted" {
			continue
		}
		when, ok := base.WhenStarted()
		if !ok {
			continue
		}
		if err := e.Writer.SetMovieAttribute(movieID, "WhenStarted", when); err != nil {
			return nil, errs.Wrap(errs.IO, err, "writing WhenStarted for movie %d", movieID)
		}
	}
	if metric.RequiresFrameRate(resolved) {
		if rate, ok := base.FrameRate(); ok {
			if err := e.Writer.SetFrameRate(movieID, rate); err != nil {
				return nil, errs.Wrap(errs.IO, err, "writing frame rate for movie %d", movieID)
			}
		} else {
			log.Error.Printf("movie %d: frame rate requested but not available in source", movieID)
		}
	}
	return perAlignment, nil
}

// chooseMode applies the -byread/-bymetric flags; whenever column-major mode
// is in effect (whether by explicit -bymetric or by default) and maxElements
// is configured, it downgrades to row-major if the movie-wide field estimate
// exceeds that threshold. It then enforces that StartFrameBase/StartFramePulse
// cannot run under row-major mode.
func (e *Engine) chooseMode(perAlignment []metric.Resolution, base movie.BaseReader, pulse movie.PulseReader) (rowMajor bool, err error) {
	rowMajor = e.Opts.ByRead

	if !rowMajor && e.Opts.MaxElements > 0 {
		estimate := fieldcache.EstimateElements(base, pulse)
		if estimate > e.Opts.MaxElements {
			rowMajor = true
		}
	}

	if rowMajor {
		for _, r := range perAlignment {
			if r.Descriptor.Name == "StartFrameBase" || r.Descriptor.Name == "StartFramePulse" {
				return false, errs.New(errs.Config,
					"metric %q cannot be computed under row-major mode", r.Descriptor.Name)
			}
		}
	}
	return rowMajor, nil
}

func pulseAvailability(pulse movie.PulseReader) func(movie.PulseField) bool {
	if pulse == nil {
		return func(movie.PulseField) bool { return false }
	}
	return pulse.FieldAvailable
}

func metricNames(resolved []metric.Resolution) []string {
	names := make([]string, len(resolved))
	for i, r := range resolved {
		names[i] = r.Descriptor.Name
	}
	return names
}
