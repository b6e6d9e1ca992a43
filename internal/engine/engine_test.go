package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleobio/loadpulses/cmpfile"
	"github.com/nucleobio/loadpulses/column"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/movie"
)

// --- fakes ---

type fakeBaseReader struct {
	holes     map[uint32]struct{}
	holeIndex map[uint32]int
	slices    []movie.ReadSlice
	available map[movie.BaseField]bool
	bulk      map[movie.BaseField]column.Array
}

func (f *fakeBaseReader) Path() string                    { return "fake-base" }
func (f *fakeBaseReader) HoleNumbers() map[uint32]struct{} { return f.holes }
func (f *fakeBaseReader) ReadIndex(hole uint32) (int, bool) {
	i, ok := f.holeIndex[hole]
	return i, ok
}
func (f *fakeBaseReader) ReadSlice(i int) movie.ReadSlice     { return f.slices[i] }
func (f *fakeBaseReader) NumReads() int                       { return len(f.slices) }
func (f *fakeBaseReader) FieldAvailable(field movie.BaseField) bool { return f.available[field] }
func (f *fakeBaseReader) ReadField(field movie.BaseField) (column.Array, error) {
	return f.bulk[field], nil
}
func (f *fakeBaseReader) ReadFieldRange(field movie.BaseField, start, length int) (column.Array, error) {
	return f.bulk[field].Slice(start, length), nil
}
func (f *fakeBaseReader) FrameRate() (float64, bool)  { return 75.0, true }
func (f *fakeBaseReader) WhenStarted() (string, bool) { return "2020-01-01T00:00:00Z", true }
func (f *fakeBaseReader) Close() error                { return nil }

type fakePulseReader struct {
	pulseStart map[int]int
	numEvents  map[int]int
	available  map[movie.PulseField]bool
	bulk       map[movie.PulseField]column.Array
}

func (f *fakePulseReader) Path() string                       { return "fake-pulse" }
func (f *fakePulseReader) PulseStart(readIndex int) int        { return f.pulseStart[readIndex] }
func (f *fakePulseReader) NumEvents(readIndex int) int         { return f.numEvents[readIndex] }
func (f *fakePulseReader) FieldAvailable(field movie.PulseField) bool { return f.available[field] }
func (f *fakePulseReader) ReadField(field movie.PulseField) (column.Array, error) {
	return f.bulk[field], nil
}
func (f *fakePulseReader) ReadFieldRange(field movie.PulseField, start, length int) (column.Array, error) {
	return f.bulk[field].Slice(start, length), nil
}
func (f *fakePulseReader) Close() error { return nil }

type fakeCmpReader struct {
	readType   cmpfile.ReadType
	records    []cmpfile.AlignmentRecord
	refGroups  map[int64]int
	readGroups map[int]map[int64]int
	aligned    map[cmpfile.GroupKey][]byte
	groupLen   map[cmpfile.GroupKey]int64
}

func (f *fakeCmpReader) Movies() ([]int64, error) { return nil, nil }
func (f *fakeCmpReader) Alignments(int64) ([]cmpfile.AlignmentRecord, error) {
	return f.records, nil
}
func (f *fakeCmpReader) RefGroupIndex(id int64) (int, bool) {
	i, ok := f.refGroups[id]
	return i, ok
}
func (f *fakeCmpReader) ReadGroupIndex(refGroupIndex int, id int64) (int, bool) {
	i, ok := f.readGroups[refGroupIndex][id]
	return i, ok
}
func (f *fakeCmpReader) GroupColumnLength(key cmpfile.GroupKey) (int64, error) {
	return f.groupLen[key], nil
}
func (f *fakeCmpReader) ReadAlignedSequence(key cmpfile.GroupKey, begin, end int64) ([]byte, error) {
	return f.aligned[key][begin:end], nil
}
func (f *fakeCmpReader) ReadType(int64) (cmpfile.ReadType, error) { return f.readType, nil }

type fakeColumnBuffer struct {
	data column.Array
}

func (b *fakeColumnBuffer) Len() int64 { return int64(b.data.Len()) }
func (b *fakeColumnBuffer) WriteAt(offset int64, data column.Array) error {
	n := data.Len()
	start := int(offset)
	if start < 0 || start+n > b.data.Len() {
		return errs.New(errs.Bounds, "write [%d,%d) exceeds buffer of length %d", start, start+n, b.data.Len())
	}
	switch data.Kind {
	case column.Uint8:
		copy(b.data.U8[start:], data.U8)
	case column.Uint16:
		copy(b.data.U16[start:], data.U16)
	case column.Uint32:
		copy(b.data.U32[start:], data.U32)
	case column.Int8:
		copy(b.data.I8[start:], data.I8)
	case column.Float32:
		copy(b.data.F32[start:], data.F32)
	}
	return nil
}

type fakeWriter struct {
	buffers map[string]*fakeColumnBuffer
	attrs   map[string]string
	rate    map[int64]float64
}

func bufferKey(key cmpfile.GroupKey, metric string) string {
	return metric
}

func (w *fakeWriter) ColumnBuffer(key cmpfile.GroupKey, metric string, kind column.Kind) (cmpfile.ColumnBuffer, error) {
	k := bufferKey(key, metric)
	if b, ok := w.buffers[k]; ok {
		return b, nil
	}
	return nil, errs.New(errs.Config, "no fixture buffer registered for metric %q", metric)
}
func (w *fakeWriter) SetMovieAttribute(movieID int64, name, value string) error {
	if w.attrs == nil {
		w.attrs = map[string]string{}
	}
	w.attrs[name] = value
	return nil
}
func (w *fakeWriter) SetFrameRate(movieID int64, rate float64) error {
	if w.rate == nil {
		w.rate = map[int64]float64{}
	}
	w.rate[movieID] = rate
	return nil
}
func (w *fakeWriter) Close() error { return nil }

// --- fixture ---

const testMovieID = int64(1)

var testGroupKey = cmpfile.GroupKey{RefGroupIndex: 0, ReadGroupIndex: 0}

func newFixture(t *testing.T) (*fakeBaseReader, *fakePulseReader, *fakeCmpReader, *fakeWriter) {
	t.Helper()
	base := &fakeBaseReader{
		holes:     map[uint32]struct{}{1: {}},
		holeIndex: map[uint32]int{1: 0},
		slices:    []movie.ReadSlice{{ReadStart: 0, ReadLength: 4}},
		available: map[movie.BaseField]bool{
			movie.FieldQualityValue:      true,
			movie.FieldPulseIndex:        true,
			movie.FieldPreBaseFrames:     true,
			movie.FieldBaseWidthInFrames: true,
		},
		bulk: map[movie.BaseField]column.Array{
			movie.FieldBases:             {Kind: column.Uint8, U8: []byte("ACGT")},
			movie.FieldQualityValue:      {Kind: column.Uint8, U8: []uint8{40, 50, 60, 70}},
			movie.FieldPulseIndex:        {Kind: column.Uint32, U32: []uint32{0, 1, 2, 3}},
			movie.FieldPreBaseFrames:     {Kind: column.Uint16, U16: []uint16{0, 5, 3, 2}},
			movie.FieldBaseWidthInFrames: {Kind: column.Uint16, U16: []uint16{4, 3, 2, 3}},
		},
	}
	pulse := &fakePulseReader{
		pulseStart: map[int]int{0: 0},
		numEvents:  map[int]int{0: 4},
		available: map[movie.PulseField]bool{
			movie.FieldPulseStartFrame:    true,
			movie.FieldPulseWidthInFrames: true,
			movie.FieldNumEvent:           true,
		},
		bulk: map[movie.PulseField]column.Array{
			movie.FieldPulseStartFrame:    {Kind: column.Uint32, U32: []uint32{0, 9, 15, 19}},
			movie.FieldPulseWidthInFrames: {Kind: column.Uint16, U16: []uint16{4, 3, 2, 3}},
		},
	}
	cmp := &fakeCmpReader{
		readType: cmpfile.ReadTypeStandard,
		records: []cmpfile.AlignmentRecord{
			{AlignmentIndex: 0, MovieID: testMovieID, RefGroupID: 10, AlnGroupID: 20, HoleNumber: 1,
				OffsetBegin: 0, OffsetEnd: 4, QueryStart: 0, QueryEnd: 4},
		},
		refGroups:  map[int64]int{10: 0},
		readGroups: map[int]map[int64]int{0: {20: 0}},
		aligned:    map[cmpfile.GroupKey][]byte{testGroupKey: []byte("ACGT")},
		groupLen:   map[cmpfile.GroupKey]int64{testGroupKey: 5},
	}
	writer := &fakeWriter{buffers: map[string]*fakeColumnBuffer{}}
	return base, pulse, cmp, writer
}

func registerBuffer(w *fakeWriter, name string, kind column.Kind, length int) *fakeColumnBuffer {
	buf := &fakeColumnBuffer{data: column.New(kind, length)}
	w.buffers[name] = buf
	return buf
}

func TestProcessMovieColumnMajorWritesQualityValue(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	buf := registerBuffer(writer, "QualityValue", column.Uint8, 5)

	eng := &Engine{Cmp: cmp, Writer: writer}
	stats, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.NoError(t, err)
	assert.False(t, stats.RowMajor, "default mode")
	assert.Equal(t, 1, stats.AlignmentsRun)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, []uint8{40, 50, 60, 70, 0}, buf.data.U8)
}

func TestProcessMovieColumnMajorAndRowMajorAgree(t *testing.T) {
	requested := []string{"QualityValue", "PreBaseFrames", "StartFrame"}

	base1, pulse1, cmp1, writer1 := newFixture(t)
	registerBuffer(writer1, "QualityValue", column.Uint8, 5)
	registerBuffer(writer1, "PreBaseFrames", column.Uint16, 5)
	registerBuffer(writer1, "StartFrame", column.Uint32, 5)
	eng1 := &Engine{Cmp: cmp1, Writer: writer1}
	_, err := eng1.ProcessMovie(testMovieID, requested, base1, pulse1)
	require.NoError(t, err)

	base2, pulse2, cmp2, writer2 := newFixture(t)
	registerBuffer(writer2, "QualityValue", column.Uint8, 5)
	registerBuffer(writer2, "PreBaseFrames", column.Uint16, 5)
	registerBuffer(writer2, "StartFrame", column.Uint32, 5)
	eng2 := &Engine{Cmp: cmp2, Writer: writer2, Opts: Options{ByRead: true}}
	stats2, err := eng2.ProcessMovie(testMovieID, requested, base2, pulse2)
	require.NoError(t, err)
	assert.True(t, stats2.RowMajor)

	for _, name := range []string{"QualityValue", "PreBaseFrames", "StartFrame"} {
		assert.Equal(t, writer1.buffers[name].data, writer2.buffers[name].data, name)
	}
}

func TestProcessMovieSkipsHoleNotInMoviePart(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	// The alignment references a hole this movie part does not have.
	cmp.records[0].HoleNumber = 999
	registerBuffer(writer, "QualityValue", column.Uint8, 5)

	eng := &Engine{Cmp: cmp, Writer: writer}
	stats, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.AlignmentsRun)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []uint8{0, 0, 0, 0, 0}, writer.buffers["QualityValue"].data.U8, "untouched buffer")
}

func TestProcessMovieFailOnMissingDataReturnsError(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	base.available[movie.FieldQualityValue] = false

	eng := &Engine{Cmp: cmp, Writer: writer, Opts: Options{FailOnMissingData: true}}
	_, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, errs.DataAvailability, kind)
}

func TestProcessMovieDropsMissingDataByDefault(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	base.available[movie.FieldQualityValue] = false

	eng := &Engine{Cmp: cmp, Writer: writer}
	stats, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.NoError(t, err)
	assert.Empty(t, stats.Metrics, "QualityValue dropped")
}

func TestProcessMovieRejectsStartFrameBaseUnderRowMajor(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	registerBuffer(writer, "StartFrameBase", column.Uint32, 5)

	eng := &Engine{Cmp: cmp, Writer: writer, Opts: Options{ByRead: true}}
	_, err := eng.ProcessMovie(testMovieID, []string{"StartFrameBase"}, base, nil)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, errs.Config, kind)
}

func TestProcessMovieByMetricStillHonorsMaxElementsDowngrade(t *testing.T) {
	base, pulse, cmp, writer := newFixture(t)
	registerBuffer(writer, "QualityValue", column.Uint8, 5)

	eng := &Engine{Cmp: cmp, Writer: writer, Opts: Options{ByMetric: true, MaxElements: 1}}
	stats, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, pulse)
	require.NoError(t, err)
	assert.True(t, stats.RowMajor, "explicit ByMetric should not bypass the MaxElements downgrade")
}

func TestProcessMovieWritesWhenStartedAndFrameRate(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	registerBuffer(writer, "PreBaseFrames", column.Uint16, 5)

	eng := &Engine{Cmp: cmp, Writer: writer}
	_, err := eng.ProcessMovie(testMovieID, []string{"WhenStarted", "PreBaseFrames"}, base, nil)
	require.NoError(t, err)
	assert.Equal(t, "2020-01-01T00:00:00Z", writer.attrs["WhenStarted"])
	assert.Equal(t, 75.0, writer.rate[testMovieID], "PreBaseFrames requires the frame rate")
}

func TestProcessMovieEmptyArchiveIsANoop(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	cmp.records = nil
	registerBuffer(writer, "QualityValue", column.Uint8, 5)

	eng := &Engine{Cmp: cmp, Writer: writer}
	stats, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.AlignmentsRun)
	assert.Equal(t, 0, stats.Skipped)
}

func TestProcessMovieIsIdempotent(t *testing.T) {
	base, _, cmp, writer := newFixture(t)
	registerBuffer(writer, "QualityValue", column.Uint8, 5)

	eng := &Engine{Cmp: cmp, Writer: writer}
	_, err := eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.NoError(t, err)
	first := append([]uint8(nil), writer.buffers["QualityValue"].data.U8...)
	_, err = eng.ProcessMovie(testMovieID, []string{"QualityValue"}, base, nil)
	require.NoError(t, err)
	assert.Equal(t, first, writer.buffers["QualityValue"].data.U8, "re-running ProcessMovie changed the output")
}
