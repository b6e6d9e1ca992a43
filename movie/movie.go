// Package movie defines the contract this system expects from a single
// instrument acquisition's basecall and pulse source files. The concrete
// reader that parses the on-disk container is an
// external collaborator; this package only fixes field names, element
// types, sentinels, and the read/hole indexing every reader must expose.
package movie

import "github.com/nucleobio/loadpulses/column"

// BaseField names one basecall-space column.
type BaseField string

// Supported basecall-space fields. Names match the archive's metric names
// where the metric and its source field coincide (QualityValue, InsertionQV,
// ...); PulseIndex additionally serves as the base→pulse map.
const (
	FieldBases             BaseField = "Basecall"
	FieldQualityValue      BaseField = "QualityValue"
	FieldInsertionQV       BaseField = "InsertionQV"
	FieldMergeQV           BaseField = "MergeQV"
	FieldDeletionQV        BaseField = "DeletionQV"
	FieldSubstitutionQV    BaseField = "SubstitutionQV"
	FieldDeletionTag       BaseField = "DeletionTag"
	FieldSubstitutionTag   BaseField = "SubstitutionTag"
	FieldPulseIndex        BaseField = "PulseIndex"
	FieldPreBaseFrames     BaseField = "PreBaseFrames"
	FieldBaseWidthInFrames BaseField = "WidthInFrames"
)

// PulseField names one pulse-space column.
type PulseField string

const (
	FieldPulseStartFrame    PulseField = "StartFrame"
	FieldPulseWidthInFrames PulseField = "WidthInFrames"
	FieldMidSignal          PulseField = "MidSignal"
	FieldMeanSignal         PulseField = "MeanSignal"
	FieldClassifierQV       PulseField = "ClassifierQV"
	// FieldNumEvent names the per-read pulse count that bounds a read's
	// pulse window. It is served by PulseReader.NumEvents and is never a
	// field-cache entry, so it stays available while pulse fields are in use.
	FieldNumEvent PulseField = "NumEvent"
)

// Sentinels written to alignment columns for which no per-base datum
// exists.
const (
	SentinelQualityValue uint8  = 255
	SentinelFrameRate    uint16 = 65535 // UINT16_MAX
	// SentinelUint32 is the missing-value marker for every 32-bit metric:
	// PulseIndex and the StartFrame family alike.
	SentinelUint32 uint32 = 4294967295 // UINT32_MAX
	// SentinelPulseIndex is SentinelUint32 under the name PulseIndex's own
	// projection uses.
	SentinelPulseIndex uint32 = SentinelUint32
	SentinelTag        int8  = '-'
	// Terminator is written to the final cell of every projected range,
	// overwriting whatever sentinel was there.
	Terminator = 0
)

// SentinelFloat32 is the missing-value marker for float32 metrics (pkmid,
// ClassifierQV): NaN, so callers must use math.IsNaN rather than ==.
func SentinelFloat32() float32 { return float32NaN }

// float32NaN avoids importing math just for one constant expression.
var float32NaN = negZeroDivZero()

func negZeroDivZero() float32 {
	var zero float32
	return zero / zero
}

// ReadSlice describes the contiguous run of basecall-space and pulse-space
// positions belonging to one read within a movie.
type ReadSlice struct {
	ReadStart  int
	ReadLength int
}

// BaseReader exposes basecall-space fields and the hole→read index for one
// movie or movie part. Implementations own their buffers; ReadField returns
// a bulk, movie-wide array, ReadFieldRange returns a per-read slice for
// row-major access.
type BaseReader interface {
	// Path returns the source file path, for diagnostics.
	Path() string

	// HoleNumbers returns every hole present in this movie part. A hole
	// absent from this set for a movie the archive otherwise expects is not
	// an error at this layer — that determination is the lookup builder's.
	HoleNumbers() map[uint32]struct{}

	// ReadIndex resolves a hole number to its read-index within the movie.
	ReadIndex(hole uint32) (readIndex int, ok bool)

	// ReadSlice returns the basecall-space extent of the given read-index.
	ReadSlice(readIndex int) ReadSlice

	// NumReads returns the number of reads in this movie part.
	NumReads() int

	// FieldAvailable reports whether a field is present in the source file.
	FieldAvailable(f BaseField) bool

	// ReadField bulk-reads a field for the entire movie part into an owned
	// buffer of the field's declared element type.
	ReadField(f BaseField) (column.Array, error)

	// ReadFieldRange reads the field values for [start, start+length) of the
	// basecall-space array, for one read at a time (row-major mode).
	ReadFieldRange(f BaseField, start, length int) (column.Array, error)

	// FrameRate returns the movie's frame rate attribute, if present.
	FrameRate() (rate float64, ok bool)

	// WhenStarted returns the movie-level acquisition-start attribute.
	WhenStarted() (when string, ok bool)

	// Close releases the reader's resources.
	Close() error
}

// PulseReader exposes pulse-space fields for one movie or movie part.
type PulseReader interface {
	// Path returns the source file path, for diagnostics.
	Path() string

	// PulseStart returns pulseStartPositions[readIndex], the offset of the
	// read's first pulse in pulse space.
	PulseStart(readIndex int) int

	// NumEvents returns the number of pulses belonging to a read. It bounds
	// how far a per-read pulse-space fetch may extend; unlike the five
	// pulse-space columns, NumEvent is inherently a per-read scalar rather
	// than a per-pulse column, so it is exposed as a direct accessor
	// instead of a bulk-loadable field.
	NumEvents(readIndex int) int

	// FieldAvailable reports whether a field is present in the source file.
	// FieldNumEvent's availability reflects whether the source file carries
	// per-read pulse counts at all.
	FieldAvailable(f PulseField) bool

	// ReadField bulk-reads a field for the entire movie part.
	ReadField(f PulseField) (column.Array, error)

	// ReadFieldRange reads pulse-space values for [start, start+length), for
	// row-major mode.
	ReadFieldRange(f PulseField, start, length int) (column.Array, error)

	// Close releases the reader's resources.
	Close() error
}

// ElementKind returns the element type an archive column for this field
// would use, when the field is written through directly (PulseIndex,
// PreBaseFrames, WidthInFrames, the QV fields, the tag fields).
func (f BaseField) ElementKind() column.Kind {
	switch f {
	case FieldQualityValue, FieldInsertionQV, FieldMergeQV, FieldDeletionQV, FieldSubstitutionQV:
		return column.Uint8
	case FieldDeletionTag, FieldSubstitutionTag:
		return column.Int8
	case FieldPulseIndex:
		return column.Uint32
	case FieldPreBaseFrames, FieldBaseWidthInFrames:
		return column.Uint16
	default:
		return column.Uint8
	}
}
