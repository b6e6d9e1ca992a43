// Package metric implements the metric registry and requirement resolver:
// the single source of truth for which per-column metrics this system
// knows how to compute, what source fields each one needs, and in what
// order they should be computed to maximize field-cache reuse.
package metric

import (
	"github.com/nucleobio/loadpulses/column"
	"github.com/nucleobio/loadpulses/movie"
)

// Kind is the projection strategy used to compute a metric's values.
type Kind int

const (
	// PerBaseFromBase gathers a per-base value directly from a base-space
	// field (QualityValue, DeletionTag, PreBaseFrames, PulseIndex, ...).
	PerBaseFromBase Kind = iota
	// PerBaseFromPulse gathers a per-base value via the base→pulse map
	// (pkmid, ClassifierQV).
	PerBaseFromPulse
	// DerivedStartFrameBase computes StartFrame from PreBaseFrames and
	// WidthInFrames alone.
	DerivedStartFrameBase
	// DerivedStartFramePulse gathers StartFrame via the base→pulse map.
	DerivedStartFramePulse
	// DerivedStartFrame prefers the pulse path, falling back to the base
	// path when pulse data is unavailable (StartFrame).
	DerivedStartFrame
	// DerivedIPD prefers pulse-derived inter-pulse durations, falling back
	// to PreBaseFrames.
	DerivedIPD
	// DerivedWidthInFrames prefers the pulse-space WidthInFrames, gathered
	// via the base->pulse map, falling back to the base-space WidthInFrames
	// (PulseWidth, WidthInFrames).
	DerivedWidthInFrames
	// DerivedLight computes MeanSignal x WidthInFrames via the base→pulse map.
	DerivedLight
	// MovieAttribute writes a movie-level scalar once, outside the
	// per-alignment column loop (WhenStarted).
	MovieAttribute
)

// Descriptor is one registry entry: a metric name, its output element type,
// its projection kind, and the source fields each computation path needs.
type Descriptor struct {
	Name        string
	ElementKind column.Kind
	Kind        Kind

	// PulseFields/BaseFields list the fields required by the preferred
	// (pulse, where applicable) computation path.
	BaseFields  []movie.BaseField
	PulseFields []movie.PulseField

	// FallbackBaseFields lists the fields required by the base-derived
	// fallback path, for metrics with two computation paths
	// (StartFrame, WidthInFrames/PulseWidth, IPD). Empty if there is no
	// fallback.
	FallbackBaseFields []movie.BaseField

	// Disabled metrics are recognized by name but never computable.
	Disabled bool

	// StandardOnly restricts a metric to ReadTypeStandard alignments.
	StandardOnly bool

	// Cap100 marks the quality-value family, whose projected values are
	// capped at 100 regardless of the source field's raw value.
	Cap100 bool
}

// registry holds every supported metric in canonical order,
// chosen so that adjacent metrics share required fields: PulseIndex stays resident across the pulse-derived
// run of metrics (NumEvent is read per read and never cached), and the base-QV metrics share nothing else so they don't
// need to be adjacent to anything but each other.
var registry = []Descriptor{
	{
		Name: "WhenStarted",
		Kind: MovieAttribute,
	},
	{
		Name:       "QualityValue",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldQualityValue},
		Cap100:     true,
	},
	{
		Name:       "InsertionQV",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldInsertionQV},
		Cap100:     true,
	},
	{
		Name:       "MergeQV",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldMergeQV},
		Cap100:     true,
	},
	{
		Name:       "DeletionQV",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldDeletionQV},
		Cap100:     true,
	},
	{
		Name:       "DeletionTag",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldDeletionTag},
	},
	{
		Name:       "SubstitutionTag",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldSubstitutionTag},
	},
	{
		Name:       "SubstitutionQV",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldSubstitutionQV},
		Cap100:     true,
	},
	{
		Name:       "PreBaseFrames",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldPreBaseFrames},
	},
	{
		// StartFrameBase is an internal-use ("sneaky") metric: it can only
		// be requested under column-major mode.
		Name:        "StartFrameBase",
		ElementKind: column.Uint32,
		Kind:        DerivedStartFrameBase,
		BaseFields:  []movie.BaseField{movie.FieldPreBaseFrames, movie.FieldBaseWidthInFrames},
	},
	{
		Name:               "IPD",
		ElementKind:        column.Uint16,
		Kind:               DerivedIPD,
		PulseFields:        []movie.PulseField{movie.FieldPulseStartFrame, movie.FieldPulseWidthInFrames, movie.FieldNumEvent},
		BaseFields:         []movie.BaseField{movie.FieldPulseIndex},
		FallbackBaseFields: []movie.BaseField{movie.FieldPreBaseFrames},
	},
	{
		Name:               "StartFrame",
		ElementKind:        column.Uint32,
		Kind:               DerivedStartFrame,
		PulseFields:        []movie.PulseField{movie.FieldPulseStartFrame, movie.FieldNumEvent},
		BaseFields:         []movie.BaseField{movie.FieldPulseIndex},
		FallbackBaseFields: []movie.BaseField{movie.FieldPreBaseFrames, movie.FieldBaseWidthInFrames},
	},
	{
		// StartFramePulse is the other internal-use metric, pulse-only.
		Name:        "StartFramePulse",
		ElementKind: column.Uint32,
		Kind:        DerivedStartFramePulse,
		PulseFields: []movie.PulseField{movie.FieldPulseStartFrame, movie.FieldNumEvent},
		BaseFields:  []movie.BaseField{movie.FieldPulseIndex},
	},
	{
		Name:               "PulseWidth",
		ElementKind:        column.Uint16,
		Kind:               DerivedWidthInFrames,
		PulseFields:        []movie.PulseField{movie.FieldPulseWidthInFrames, movie.FieldNumEvent},
		BaseFields:         []movie.BaseField{movie.FieldPulseIndex},
		FallbackBaseFields: []movie.BaseField{movie.FieldBaseWidthInFrames},
	},
	{
		Name:               "WidthInFrames",
		ElementKind:        column.Uint16,
		Kind:               DerivedWidthInFrames,
		PulseFields:        []movie.PulseField{movie.FieldPulseWidthInFrames, movie.FieldNumEvent},
		BaseFields:         []movie.BaseField{movie.FieldPulseIndex},
		FallbackBaseFields: []movie.BaseField{movie.FieldBaseWidthInFrames},
	},
	{
		Name:        "Light",
		ElementKind: column.Uint16,
		Kind:        DerivedLight,
		PulseFields: []movie.PulseField{movie.FieldMeanSignal, movie.FieldPulseWidthInFrames, movie.FieldNumEvent},
		BaseFields:  []movie.BaseField{movie.FieldPulseIndex},
	},
	{
		Name:        "pkmid",
		ElementKind: column.Float32,
		Kind:        PerBaseFromPulse,
		PulseFields: []movie.PulseField{movie.FieldMidSignal, movie.FieldNumEvent},
		BaseFields:  []movie.BaseField{movie.FieldPulseIndex},
	},
	{
		Name:        "ClassifierQV",
		ElementKind: column.Float32,
		Kind:        PerBaseFromPulse,
		PulseFields: []movie.PulseField{movie.FieldClassifierQV, movie.FieldNumEvent},
		BaseFields:  []movie.BaseField{movie.FieldPulseIndex},
	},
	{
		Name:       "PulseIndex",
		Kind:       PerBaseFromBase,
		BaseFields: []movie.BaseField{movie.FieldPulseIndex},
	},
	{
		// Reserved and disabled: cmp.h5-style archives require all datasets
		// at AlnArray's level to share length, and StartTimeOffset's
		// natural length is the pulse count, not the column count.
		Name:     "StartTimeOffset",
		Disabled: true,
	},
}

// DefaultNames is the metric set loaded when -metrics is not given.
var DefaultNames = []string{
	"QualityValue", "ClassifierQV", "StartFrame", "PulseWidth",
	"WidthInFrames", "pkmid", "IPD",
}

// standardOnlyAllowed is the metric set permitted on CCS (consensus)
// alignments: everything else is rejected.
var standardOnlyAllowed = map[string]bool{
	"QualityValue": true, "DeletionQV": true, "SubstitutionQV": true,
	"InsertionQV": true, "MergeQV": true, "DeletionTag": true, "SubstitutionTag": true,
}

func init() {
	for i := range registry {
		d := &registry[i]
		if d.Disabled {
			continue
		}
		d.StandardOnly = !standardOnlyAllowed[d.Name]

		// A PerBaseFromBase metric writes its single source field's values
		// through unchanged, so its element type is exactly that field's
		// declared kind. Derived metrics (StartFrame, IPD, ...) keep their
		// own literal ElementKind, since their output kind need not match
		// any one source field's kind.
		if d.Kind == PerBaseFromBase && len(d.BaseFields) == 1 {
			d.ElementKind = d.BaseFields[0].ElementKind()
		}
	}
}

// All returns the registry in canonical order.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a descriptor by name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// NamesInOrder filters requested (an arbitrary-order name set) down to the
// registry's canonical order, so callers preserve the field-reuse-friendly
// ordering policy regardless of what order the user listed metrics in.
func NamesInOrder(requested []string) []string {
	want := make(map[string]bool, len(requested))
	for _, n := range requested {
		want[n] = true
	}
	var out []string
	for _, d := range registry {
		if want[d.Name] {
			out = append(out, d.Name)
		}
	}
	return out
}
