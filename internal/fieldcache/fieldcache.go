// Package fieldcache implements the column-major field cache: it
// loads whole-movie source fields on demand, keeps them resident across
// adjacent metrics that share requirements, and evicts fields no longer
// needed once the next metric's requirements are known.
package fieldcache

import (
	"github.com/nucleobio/loadpulses/column"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/metric"
	"github.com/nucleobio/loadpulses/movie"
)

// Cache holds the currently-resident base-space and pulse-space fields for
// one movie.
type Cache struct {
	base  movie.BaseReader
	pulse movie.PulseReader // nil if the movie has no pulse file

	baseFields  map[movie.BaseField]column.Array
	pulseFields map[movie.PulseField]column.Array
}

// New creates an empty cache over the given readers. pulse may be nil.
func New(base movie.BaseReader, pulse movie.PulseReader) *Cache {
	return &Cache{
		base:        base,
		pulse:       pulse,
		baseFields:  map[movie.BaseField]column.Array{},
		pulseFields: map[movie.PulseField]column.Array{},
	}
}

// RequiredFields returns the source fields the resolution's chosen
// computation path needs.
func RequiredFields(r metric.Resolution) (baseFields []movie.BaseField, pulseFields []movie.PulseField) {
	d := r.Descriptor
	switch d.Kind {
	case metric.MovieAttribute:
		return nil, nil
	case metric.PerBaseFromBase, metric.DerivedStartFrameBase:
		return d.BaseFields, nil
	case metric.PerBaseFromPulse, metric.DerivedStartFramePulse, metric.DerivedLight:
		return d.BaseFields, d.PulseFields
	case metric.DerivedStartFrame, metric.DerivedWidthInFrames, metric.DerivedIPD:
		if r.UsePulsePath {
			return d.BaseFields, d.PulseFields
		}
		return d.FallbackBaseFields, nil
	default:
		return nil, nil
	}
}

// Ensure loads any of the requested fields that are not already resident.
func (c *Cache) Ensure(baseFields []movie.BaseField, pulseFields []movie.PulseField) error {
	for _, f := range baseFields {
		if _, ok := c.baseFields[f]; ok {
			continue
		}
		a, err := c.base.ReadField(f)
		if err != nil {
			return errs.Wrap(errs.IO, err, "reading base field %s", f)
		}
		c.baseFields[f] = a
	}
	for _, f := range pulseFields {
		if f == movie.FieldNumEvent {
			// NumEvent is a per-read scalar count, not a per-pulse column
			// (movie.PulseReader.NumEvents); nothing to cache.
			continue
		}
		if _, ok := c.pulseFields[f]; ok {
			continue
		}
		if c.pulse == nil {
			return errs.New(errs.DataAvailability, "pulse field %s requested but no pulse reader is open", f)
		}
		a, err := c.pulse.ReadField(f)
		if err != nil {
			return errs.Wrap(errs.IO, err, "reading pulse field %s", f)
		}
		c.pulseFields[f] = a
	}
	return nil
}

// Base returns a resident base field.
func (c *Cache) Base(f movie.BaseField) (column.Array, bool) {
	a, ok := c.baseFields[f]
	return a, ok
}

// Pulse returns a resident pulse field.
func (c *Cache) Pulse(f movie.PulseField) (column.Array, bool) {
	a, ok := c.pulseFields[f]
	return a, ok
}

// EvictExcept drops every resident field not named in keepBase/keepPulse.
// NumEvent pinning falls out for free, since NumEvent is never inserted
// into c.pulseFields in the first place (Ensure resolves it via
// movie.PulseReader.NumEvents instead of a cached column).
func (c *Cache) EvictExcept(keepBase map[movie.BaseField]bool, keepPulse map[movie.PulseField]bool) {
	for f := range c.baseFields {
		if !keepBase[f] {
			delete(c.baseFields, f)
		}
	}
	for f := range c.pulseFields {
		if !keepPulse[f] {
			delete(c.pulseFields, f)
		}
	}
}

// ResidentCount returns the number of resident base and pulse fields, for
// diagnostics and tests asserting the eviction bound.
func (c *Cache) ResidentCount() (base, pulse int) {
	return len(c.baseFields), len(c.pulseFields)
}

// ToBaseSet and ToPulseSet convert a field slice into a membership set, for
// building the keep-sets EvictExcept needs.
func ToBaseSet(fields []movie.BaseField) map[movie.BaseField]bool {
	s := make(map[movie.BaseField]bool, len(fields))
	for _, f := range fields {
		s[f] = true
	}
	return s
}

func ToPulseSet(fields []movie.PulseField) map[movie.PulseField]bool {
	s := make(map[movie.PulseField]bool, len(fields))
	for _, f := range fields {
		s[f] = true
	}
	return s
}

// EstimateElements estimates the movie-wide element count used to decide
// between row-major and column-major mode: the sum of base-space and
// pulse-space sizes the cache could end up holding resident at once.
func EstimateElements(base movie.BaseReader, pulse movie.PulseReader) int {
	total := 0
	for i := 0; i < base.NumReads(); i++ {
		total += base.ReadSlice(i).ReadLength
	}
	if pulse != nil {
		// The pulse-space size is approximated as equal to the base-space
		// size (one pulse per base), so the total is doubled; the per-read
		// PulseReader.NumEvents counts are not consulted.
		total *= 2
	}
	return total
}
