// Package cmpfile defines the contract this system expects from the
// pre-existing compare archive: a reference-anchored
// alignment index plus per-group column buffers that per-base metrics are
// written into. The concrete hierarchical-container reader/writer is an
// external collaborator; this package fixes the record shape, the
// group addressing scheme, and the read/write surface every archive
// implementation must expose.
package cmpfile

import "github.com/nucleobio/loadpulses/column"

// ReadType classifies how an alignment's query sequence was produced.
// Only ReadTypeStandard supports the full metric set.
type ReadType int

const (
	ReadTypeStandard ReadType = iota
	ReadTypeCCS
)

// AlignmentRecord is one row of the archive's alignment index. It is read-only from this system's perspective.
type AlignmentRecord struct {
	AlignmentIndex int // position within the archive's global alignment index
	MovieID        int64
	RefGroupID     int64
	AlnGroupID     int64
	HoleNumber     uint32

	OffsetBegin int64 // byte offset into the group's column-wise alignment buffer
	OffsetEnd   int64

	QueryStart int64 // offset into base space
	QueryEnd   int64
}

// GroupKey addresses one (reference-group, read-group) destination buffer.
type GroupKey struct {
	RefGroupIndex  int
	ReadGroupIndex int
}

// Reader enumerates alignments and resolves the group/read indices the
// lookup-table builder needs.
type Reader interface {
	// Movies returns every movie-id referenced by the archive.
	Movies() ([]int64, error)

	// Alignments returns every alignment record belonging to movieID, in
	// the archive's native index order.
	Alignments(movieID int64) ([]AlignmentRecord, error)

	// RefGroupIndex resolves a reference-group id to its array index.
	// ok is false if the id is not present.
	RefGroupIndex(refGroupID int64) (index int, ok bool)

	// ReadGroupIndex resolves an alignment-group id, within the given
	// reference-group, to a read-group index. ok is false if
	// the alignment-group is not registered under that reference group
	// (IntegrityError).
	ReadGroupIndex(refGroupIndex int, alnGroupID int64) (index int, ok bool)

	// GroupColumnLength returns the total column length of the group's
	// concatenated AlnArray.
	GroupColumnLength(key GroupKey) (int64, error)

	// ReadAlignedSequence reads the gapped alignment-space bytes for
	// [offsetBegin, offsetEnd) of the given group.
	ReadAlignedSequence(key GroupKey, offsetBegin, offsetEnd int64) ([]byte, error)

	// ReadType reports the read type governing the given movie's alignments.
	ReadType(movieID int64) (ReadType, error)
}

// ColumnBuffer is one metric's dense, column-indexed output array for one
// (ref-group, read-group) group. Cells not yet
// written carry whatever the Writer initialized them to;
// callers are responsible for filling sentinels before writing real data.
type ColumnBuffer interface {
	// Len returns the buffer's total column length.
	Len() int64

	// WriteAt writes data starting at the given column offset. offset+len(data)
	// must not exceed Len().
	WriteAt(offset int64, data column.Array) error
}

// Writer exposes lazily-initialized per-metric column buffers and
// movie-level attributes.
type Writer interface {
	// ColumnBuffer returns (creating if necessary) the output buffer for
	// the named metric within the given group, with the given element kind.
	ColumnBuffer(key GroupKey, metric string, kind column.Kind) (ColumnBuffer, error)

	// SetMovieAttribute records a movie-level scalar string attribute.
	SetMovieAttribute(movieID int64, name, value string) error

	// SetFrameRate records the movie's frame rate in the archive's
	// movie-info group.
	SetFrameRate(movieID int64, rate float64) error

	// Close flushes and releases the writer's resources.
	Close() error
}
