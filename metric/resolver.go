package metric

import (
	"github.com/nucleobio/loadpulses/cmpfile"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/movie"
)

// Availability reports which source fields a given movie's readers expose.
// A resolver that needs only base fields may be handed a PulseAvailable
// that always returns false and HasPulseReader false.
type Availability struct {
	BaseAvailable   func(movie.BaseField) bool
	PulseAvailable  func(movie.PulseField) bool
	HasPulseReader  bool
	ReadType        cmpfile.ReadType
	FailOnMissing   bool
}

// Resolution is one computable metric, with the computation path chosen
// for metrics that have both a pulse-derived and a base-derived path.
type Resolution struct {
	Descriptor   Descriptor
	UsePulsePath bool
}

// Resolve computes, in registry order, which of the requested metrics are
// computable given the movie's field availability. It returns the
// ordered resolutions, the names of the metrics it dropped, and an error if any requested metric is unknown (ConfigError, fatal
// regardless of FailOnMissing) or if a metric is missing data and
// av.FailOnMissing is set (also fatal). Otherwise, uncomputable metrics are
// silently dropped and a warning is logged by the caller from the returned
// dropped list.
func Resolve(requested []string, av Availability) (resolved []Resolution, dropped []string, err error) {
	ordered := NamesInOrder(requested)

	// Any name not recognized by NamesInOrder's filter is unknown; detect
	// that up front against the full requested set.
	known := make(map[string]bool, len(ordered))
	for _, n := range ordered {
		known[n] = true
	}
	for _, n := range requested {
		if !known[n] {
			if _, ok := Lookup(n); !ok {
				return nil, nil, errs.New(errs.Config, "unknown metric %q", n)
			}
			// NamesInOrder keeps every registry name, Disabled ones
			// included, so a name reaching this point is always unknown.
		}
	}

	for _, name := range ordered {
		d, _ := Lookup(name)

		if d.StandardOnly && av.ReadType == cmpfile.ReadTypeCCS {
			return nil, nil, errs.New(errs.Config,
				"metric %q cannot be loaded into de-novo CCS alignments", name)
		}

		if d.Disabled {
			if av.FailOnMissing {
				return nil, nil, errs.New(errs.DataAvailability, "metric %q is disabled", name)
			}
			dropped = append(dropped, name)
			continue
		}

		res, ok := computability(d, av)
		if !ok {
			if av.FailOnMissing {
				return nil, nil, errs.New(errs.DataAvailability,
					"insufficient data to compute metric %q", name)
			}
			dropped = append(dropped, name)
			continue
		}
		resolved = append(resolved, res)
	}
	return resolved, dropped, nil
}

// computability decides whether d can be computed, and via which path, in
// the same order the original tool checks: try the pulse-preferred path
// (when it has one), otherwise fall back to the base path.
func computability(d Descriptor, av Availability) (Resolution, bool) {
	switch d.Kind {
	case MovieAttribute:
		return Resolution{Descriptor: d}, true

	case PerBaseFromBase:
		if allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d}, true
		}
		return Resolution{}, false

	case PerBaseFromPulse:
		if av.HasPulseReader && allPulseAvailable(d.PulseFields, av.PulseAvailable) &&
			allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: true}, true
		}
		return Resolution{}, false

	case DerivedStartFrameBase:
		if allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d}, true
		}
		return Resolution{}, false

	case DerivedStartFramePulse:
		if av.HasPulseReader && allPulseAvailable(d.PulseFields, av.PulseAvailable) &&
			allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: true}, true
		}
		return Resolution{}, false

	case DerivedStartFrame, DerivedWidthInFrames:
		if av.HasPulseReader && allPulseAvailable(d.PulseFields, av.PulseAvailable) &&
			allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: true}, true
		}
		if allBaseAvailable(d.FallbackBaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: false}, true
		}
		return Resolution{}, false

	case DerivedIPD:
		// IPD's requirement is special: either PreBaseFrames alone,
		// or (pulse StartFrame AND pulse WidthInFrames).
		if av.HasPulseReader &&
			av.PulseAvailable(movie.FieldPulseStartFrame) &&
			av.PulseAvailable(movie.FieldPulseWidthInFrames) &&
			av.PulseAvailable(movie.FieldNumEvent) &&
			allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: true}, true
		}
		if allBaseAvailable(d.FallbackBaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: false}, true
		}
		return Resolution{}, false

	case DerivedLight:
		if av.HasPulseReader && allPulseAvailable(d.PulseFields, av.PulseAvailable) &&
			allBaseAvailable(d.BaseFields, av.BaseAvailable) {
			return Resolution{Descriptor: d, UsePulsePath: true}, true
		}
		return Resolution{}, false

	default:
		return Resolution{}, false
	}
}

func allBaseAvailable(fields []movie.BaseField, avail func(movie.BaseField) bool) bool {
	for _, f := range fields {
		if avail == nil || !avail(f) {
			return false
		}
	}
	return true
}

func allPulseAvailable(fields []movie.PulseField, avail func(movie.PulseField) bool) bool {
	for _, f := range fields {
		if avail == nil || !avail(f) {
			return false
		}
	}
	return true
}

// RequiresFrameRate reports whether any of the resolved metrics needs the
// movie's frame rate copied into the archive.
func RequiresFrameRate(resolved []Resolution) bool {
	for _, r := range resolved {
		switch r.Descriptor.Name {
		case "PulseWidth", "IPD", "Light", "StartTimeOffset", "StartFrame",
			"PreBaseFrames", "WidthInFrames", "StartFrameBase", "StartFramePulse":
			return true
		}
	}
	return false
}
