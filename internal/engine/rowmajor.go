package engine

import (
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/internal/lookup"
	"github.com/nucleobio/loadpulses/metric"
	"github.com/nucleobio/loadpulses/movie"
)

// runRowMajor computes every resolved metric for one alignment before
// moving to the next, re-reading each read's bases and pulses fresh instead
// of holding a movie-wide cache.
func (e *Engine) runRowMajor(entries []lookup.Entry, resolved []metric.Resolution, base movie.BaseReader, pulse movie.PulseReader) error {
	src := &perReadSource{base: base, pulse: pulse}

	for _, en := range entries {
		if en.Skip {
			continue
		}

		readBases, err := base.ReadFieldRange(movie.FieldBases, en.ReadStart, en.ReadLength)
		if err != nil {
			return errs.Wrap(errs.IO, err, "reading basecalls for read %d", en.ReadIndex)
		}
		if err := lookup.VerifyOneBasecalls(en, readBases.U8); err != nil {
			return err
		}

		for _, res := range resolved {
			out, err := computeMetric(res, en, src)
			if err != nil {
				return err
			}
			buf, err := e.Writer.ColumnBuffer(en.Group(), res.Descriptor.Name, res.Descriptor.ElementKind)
			if err != nil {
				return errs.Wrap(errs.IO, err, "opening column buffer for metric %q", res.Descriptor.Name)
			}
			span := en.OffsetEnd - en.OffsetBegin
			if en.OffsetBegin < 0 || en.OffsetBegin+span+1 > buf.Len() {
				return errs.New(errs.Bounds,
					"alignment %d write range [%d,%d) exceeds group column length %d",
					en.AlignmentIndex, en.OffsetBegin, en.OffsetBegin+span+1, buf.Len())
			}
			if err := buf.WriteAt(en.OffsetBegin, out); err != nil {
				return errs.Wrap(errs.IO, err, "writing metric %q for alignment %d", res.Descriptor.Name, en.AlignmentIndex)
			}
		}
	}
	return nil
}
