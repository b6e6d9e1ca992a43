package engine

import (
	"github.com/nucleobio/loadpulses/column"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/internal/fieldcache"
	"github.com/nucleobio/loadpulses/internal/lookup"
	"github.com/nucleobio/loadpulses/movie"
)

// source hides the column-major/row-major addressing difference from the
// metric computers: every method returns values addressed relative to the
// read (base-space) or to the read's own pulse window (pulse-space),
// regardless of whether the underlying data is a whole-movie cached array or
// a freshly fetched per-read range.
type source interface {
	// BaseWindow returns f's values for [e.ReadStart, e.ReadStart+e.ReadLength).
	BaseWindow(f movie.BaseField, e lookup.Entry) (column.Array, error)

	// PulseWindow returns f's raw pulse-space values across the read's own
	// pulse window, [pulseStart, pulseStart+numEvents).
	PulseWindow(f movie.PulseField, e lookup.Entry) (column.Array, error)

	// PulseGather returns, for i in [0, e.ReadLength), f's pulse-space value
	// at the read's i-th base's pulse, via the base->pulse map.
	PulseGather(f movie.PulseField, e lookup.Entry) (column.Array, error)
}

// movieWideSource is the column-major source: base and pulse fields come
// from the whole-movie field cache and are addressed absolutely; per-read
// windows are cut out of the cached arrays.
type movieWideSource struct {
	cache *fieldcache.Cache
	pulse movie.PulseReader // nil if the movie has no pulse file
}

func (s *movieWideSource) BaseWindow(f movie.BaseField, e lookup.Entry) (column.Array, error) {
	a, ok := s.cache.Base(f)
	if !ok {
		return column.Array{}, errs.New(errs.Bounds, "base field %s is not resident in the field cache", f)
	}
	return sliceChecked(a, e.ReadStart, e.ReadLength)
}

func (s *movieWideSource) PulseWindow(f movie.PulseField, e lookup.Entry) (column.Array, error) {
	a, ok := s.cache.Pulse(f)
	if !ok {
		return column.Array{}, errs.New(errs.Bounds, "pulse field %s is not resident in the field cache", f)
	}
	pulseStart := s.pulse.PulseStart(e.ReadIndex)
	numEvents := s.pulse.NumEvents(e.ReadIndex)
	return sliceChecked(a, pulseStart, numEvents)
}

func (s *movieWideSource) PulseGather(f movie.PulseField, e lookup.Entry) (column.Array, error) {
	pulseIndex, err := s.BaseWindow(movie.FieldPulseIndex, e)
	if err != nil {
		return column.Array{}, err
	}
	window, err := s.PulseWindow(f, e)
	if err != nil {
		return column.Array{}, err
	}
	return gather(window, pulseIndex.U32)
}

// perReadSource is the row-major source: every field is fetched fresh, one
// read at a time, already windowed to the read (base-space) or the read's
// pulse range (pulse-space) at index 0.
type perReadSource struct {
	base  movie.BaseReader
	pulse movie.PulseReader
}

func (s *perReadSource) BaseWindow(f movie.BaseField, e lookup.Entry) (column.Array, error) {
	a, err := s.base.ReadFieldRange(f, e.ReadStart, e.ReadLength)
	if err != nil {
		return column.Array{}, errs.Wrap(errs.IO, err, "reading base field %s for read %d", f, e.ReadIndex)
	}
	return a, nil
}

func (s *perReadSource) PulseWindow(f movie.PulseField, e lookup.Entry) (column.Array, error) {
	pulseStart := s.pulse.PulseStart(e.ReadIndex)
	numEvents := s.pulse.NumEvents(e.ReadIndex)
	a, err := s.pulse.ReadFieldRange(f, pulseStart, numEvents)
	if err != nil {
		return column.Array{}, errs.Wrap(errs.IO, err, "reading pulse field %s for read %d", f, e.ReadIndex)
	}
	return a, nil
}

func (s *perReadSource) PulseGather(f movie.PulseField, e lookup.Entry) (column.Array, error) {
	pulseIndex, err := s.BaseWindow(movie.FieldPulseIndex, e)
	if err != nil {
		return column.Array{}, err
	}
	window, err := s.PulseWindow(f, e)
	if err != nil {
		return column.Array{}, err
	}
	return gather(window, pulseIndex.U32)
}

func sliceChecked(a column.Array, start, length int) (column.Array, error) {
	if start < 0 || length < 0 || start+length > a.Len() {
		return column.Array{}, errs.New(errs.Bounds,
			"window [%d,%d) exceeds field of length %d", start, start+length, a.Len())
	}
	return a.Slice(start, length), nil
}

// gather applies a per-base local pulse index against a
// pulse-space window of the same Kind as window, producing one output value
// per base.
func gather(window column.Array, localPulseIndex []uint32) (column.Array, error) {
	out := column.New(window.Kind, len(localPulseIndex))
	for i, p := range localPulseIndex {
		idx := int(p)
		if idx < 0 || idx >= window.Len() {
			return column.Array{}, errs.New(errs.Bounds,
				"pulse index %d out of range for window of length %d", idx, window.Len())
		}
		switch window.Kind {
		case column.Uint8:
			out.U8[i] = window.U8[idx]
		case column.Uint16:
			out.U16[i] = window.U16[idx]
		case column.Uint32:
			out.U32[i] = window.U32[idx]
		case column.Int8:
			out.I8[i] = window.I8[idx]
		case column.Float32:
			out.F32[i] = window.F32[idx]
		}
	}
	return out, nil
}
