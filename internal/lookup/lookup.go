// Package lookup builds the per-movie lookup table: for each
// alignment, it resolves the reference-group/read-group/read indices,
// pulls the offsets and query range, and verifies the extracted basecalls
// against the archive's own aligned sequence.
package lookup

import (
	"bytes"

	"github.com/nucleobio/loadpulses/cmpfile"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/movie"
)

// Entry is one lookup-table row. It is immutable
// once built and scoped to the movie currently being processed.
type Entry struct {
	Skip bool

	MovieAlnIndex  int
	AlignmentIndex int
	RefGroupIndex  int
	ReadGroupIndex int
	HoleNumber     uint32

	OffsetBegin int64
	OffsetEnd   int64
	QueryStart  int64
	QueryEnd    int64

	ReadIndex  int
	ReadStart  int
	ReadLength int

	AlignedSequence []byte
}

// Group returns the (ref-group, read-group) key this entry writes into.
func (e Entry) Group() cmpfile.GroupKey {
	return cmpfile.GroupKey{RefGroupIndex: e.RefGroupIndex, ReadGroupIndex: e.ReadGroupIndex}
}

// Build resolves one lookup entry per alignment record of a movie. Records not present in this movie part's hole set are marked
// Skip and left without read/pulse indices; everything else is fatal
// (IntegrityError).
func Build(records []cmpfile.AlignmentRecord, cmp cmpfile.Reader, base movie.BaseReader) ([]Entry, error) {
	holes := base.HoleNumbers()
	entries := make([]Entry, len(records))

	for i, rec := range records {
		e := Entry{
			MovieAlnIndex:  i,
			AlignmentIndex: rec.AlignmentIndex,
			HoleNumber:     rec.HoleNumber,
			OffsetBegin:    rec.OffsetBegin,
			OffsetEnd:      rec.OffsetEnd,
			QueryStart:     rec.QueryStart,
			QueryEnd:       rec.QueryEnd,
		}

		refGroupIndex, ok := cmp.RefGroupIndex(rec.RefGroupID)
		if !ok {
			return nil, errs.New(errs.Integrity,
				"alignment %d specifies reference group %d that is not found as an alignment group",
				rec.AlignmentIndex, rec.RefGroupID)
		}
		e.RefGroupIndex = refGroupIndex

		readGroupIndex, ok := cmp.ReadGroupIndex(refGroupIndex, rec.AlnGroupID)
		if !ok {
			return nil, errs.New(errs.Integrity,
				"alignment %d specifies alignment group %d that is not found under reference group %d",
				rec.AlignmentIndex, rec.AlnGroupID, rec.RefGroupID)
		}
		e.ReadGroupIndex = readGroupIndex

		if e.OffsetEnd-e.OffsetBegin < e.QueryEnd-e.QueryStart {
			return nil, errs.New(errs.Integrity,
				"alignment %d has offset span %d shorter than query span %d",
				rec.AlignmentIndex, e.OffsetEnd-e.OffsetBegin, e.QueryEnd-e.QueryStart)
		}

		if _, present := holes[rec.HoleNumber]; !present {
			e.Skip = true
			entries[i] = e
			continue
		}

		readIndex, ok := base.ReadIndex(rec.HoleNumber)
		if !ok {
			return nil, errs.New(errs.Integrity,
				"hole %d is in the movie part's hole set but has no read index", rec.HoleNumber)
		}
		e.ReadIndex = readIndex
		slice := base.ReadSlice(readIndex)
		e.ReadStart = slice.ReadStart
		e.ReadLength = slice.ReadLength

		seq, err := cmp.ReadAlignedSequence(e.Group(), e.OffsetBegin, e.OffsetEnd)
		if err != nil {
			return nil, errs.Wrap(errs.IO, err, "reading aligned sequence for alignment %d", rec.AlignmentIndex)
		}
		e.AlignedSequence = seq

		entries[i] = e
	}
	return entries, nil
}

// GapRemove strips gap characters ('-') from a gapped alignment-space byte
// string, returning the ungapped basecalls it represents.
func GapRemove(aligned []byte) []byte {
	out := make([]byte, 0, len(aligned))
	for _, b := range aligned {
		if b != '-' {
			out = append(out, b)
		}
	}
	return out
}

// VerifyBasecalls checks that for every non-skipped entry, the basecalls at
// [read-start+query-start, read-start+query-end) equal the gap-removed
// aligned sequence. bases is the movie-wide Basecall array.
func VerifyBasecalls(entries []Entry, bases []byte) error {
	for _, e := range entries {
		if e.Skip {
			continue
		}
		start := e.ReadStart + int(e.QueryStart)
		length := int(e.QueryEnd - e.QueryStart)
		if start < 0 || start+length > len(bases) {
			return errs.New(errs.Bounds,
				"alignment %d basecall range [%d,%d) exceeds movie basecall array of length %d",
				e.AlignmentIndex, start, start+length, len(bases))
		}
		extracted := bases[start : start+length]
		expected := GapRemove(e.AlignedSequence)
		if !bytes.Equal(extracted, expected) {
			return errs.New(errs.Integrity,
				"alignment %d: basecalls %q do not match aligned sequence %q",
				e.AlignmentIndex, extracted, expected)
		}
	}
	return nil
}

// VerifyOneBasecalls checks the same basecall-consistency property for a single entry against a
// per-read basecall slice (row-major mode, where bases are read one read at
// a time instead of movie-wide).
func VerifyOneBasecalls(e Entry, readBases []byte) error {
	start := int(e.QueryStart)
	length := int(e.QueryEnd - e.QueryStart)
	if start < 0 || start+length > len(readBases) {
		return errs.New(errs.Bounds,
			"alignment %d basecall range [%d,%d) exceeds read of length %d",
			e.AlignmentIndex, start, start+length, len(readBases))
	}
	extracted := readBases[start : start+length]
	expected := GapRemove(e.AlignedSequence)
	if !bytes.Equal(extracted, expected) {
		return errs.New(errs.Integrity,
			"alignment %d: basecalls %q do not match aligned sequence %q",
			e.AlignmentIndex, extracted, expected)
	}
	return nil
}
