package engine

import (
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/internal/fieldcache"
	"github.com/nucleobio/loadpulses/internal/lookup"
	"github.com/nucleobio/loadpulses/metric"
	"github.com/nucleobio/loadpulses/movie"
)

// runColumnMajor computes each resolved metric across every alignment of
// the movie before moving to the next, reusing the field cache across
// adjacent metrics that share required fields.
func (e *Engine) runColumnMajor(entries []lookup.Entry, resolved []metric.Resolution, base movie.BaseReader, pulse movie.PulseReader) error {
	bases, err := base.ReadField(movie.FieldBases)
	if err != nil {
		return errs.Wrap(errs.IO, err, "reading basecalls")
	}
	if err := lookup.VerifyBasecalls(entries, bases.U8); err != nil {
		return err
	}

	groups, err := lookup.GroupByRefReadGroup(entries)
	if err != nil {
		return err
	}

	cache := fieldcache.New(base, pulse)
	src := &movieWideSource{cache: cache, pulse: pulse}

	for i, res := range resolved {
		baseFields, pulseFields := fieldcache.RequiredFields(res)
		if err := cache.Ensure(baseFields, pulseFields); err != nil {
			return err
		}

		if err := e.writeMetricAcrossGroups(groups, res, src); err != nil {
			return err
		}

		var nextBase []movie.BaseField
		var nextPulse []movie.PulseField
		if i+1 < len(resolved) {
			nextBase, nextPulse = fieldcache.RequiredFields(resolved[i+1])
		}
		cache.EvictExcept(fieldcache.ToBaseSet(nextBase), fieldcache.ToPulseSet(nextPulse))
	}
	return nil
}

// writeMetricAcrossGroups computes res for every non-skipped entry of every
// group and writes the results into that group's destination buffer for
// res.Descriptor.Name.
func (e *Engine) writeMetricAcrossGroups(groups []lookup.Group, res metric.Resolution, src source) error {
	for _, g := range groups {
		buf, err := e.Writer.ColumnBuffer(g.Key, res.Descriptor.Name, res.Descriptor.ElementKind)
		if err != nil {
			return errs.Wrap(errs.IO, err, "opening column buffer for metric %q group %+v", res.Descriptor.Name, g.Key)
		}
		length, err := e.Cmp.GroupColumnLength(g.Key)
		if err != nil {
			return errs.Wrap(errs.IO, err, "reading group column length for %+v", g.Key)
		}
		if buf.Len() != length {
			return errs.New(errs.Bounds,
				"column buffer for metric %q group %+v has length %d, archive reports %d",
				res.Descriptor.Name, g.Key, buf.Len(), length)
		}

		for _, en := range g.Entries {
			if en.Skip {
				continue
			}
			out, err := computeMetric(res, en, src)
			if err != nil {
				return err
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
