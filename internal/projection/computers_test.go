package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartFrameBaseCumulativeSum(t *testing.T) {
	pbf := []uint16{0, 5, 3, 2}
	wid := []uint16{4, 3, 2, 3}
	got := StartFrameBase(pbf, wid)
	assert.Equal(t, []uint32{0, 9, 15, 19}, got)
}

// Values above the cap are clamped to 100, and the terminator overwrites
// the final sentinel-or-value cell.
func TestProjectUint8CapsAndWritesTerminator(t *testing.T) {
	baseToAlnMap := []int32{0, 1, 2, 3}
	qual := []uint8{40, 101, 50, 255}
	out := ProjectUint8(4, baseToAlnMap, 255, true, qual)
	assert.Equal(t, []uint8{40, 100, 50, 100, 0}, out.U8)
}

// A gapped alignment retains the sentinel in the gap column; the terminator
// is written last, overwriting whatever the last index would hold.
func TestProjectUint16RetainsSentinelInGap(t *testing.T) {
	aligned := []byte("AC-GT")
	baseToAlnMap := BaseToAlignmentMap(aligned)
	require.Equal(t, []int32{0, 1, 3, 4}, baseToAlnMap)

	preBaseFrames := []uint16{0, 5, 3, 2}
	out := ProjectUint16(5, baseToAlnMap, 65535, preBaseFrames)
	assert.Equal(t, []uint16{0, 5, 65535, 3, 2, 0}, out.U16)
}

// The terminator cell is always 0 regardless of what sentinel would
// otherwise occupy the final column.
func TestProjectAlwaysWritesTerminatorLast(t *testing.T) {
	baseToAlnMap := []int32{2} // deliberately targets the terminator column itself
	out := ProjectUint8(2, baseToAlnMap, 255, false, []uint8{7})
	assert.Equal(t, []uint8{255, 255, 0}, out.U8)
}

// IPD's pulse-derived recurrence starts at zero for the first base.
func TestIPDPulseDerived(t *testing.T) {
	startFrame := []uint32{10, 25, 40}
	widthInFrames := []uint16{5, 5, 5}
	got := IPDPulseDerived(startFrame, widthInFrames)
	assert.Equal(t, []uint16{0, 10, 10}, got) // 25-10-5=10; 40-25-5=10
}

// A 16-bit-overflowing running sum would wrap if carried out in 16 bits,
// but both the 32-bit base-derived sum and the pulse-derived StartFrame
// stay exact.
func TestStartFrameBaseOverflowVsPulseDerived(t *testing.T) {
	// A read whose cumulative frame count crosses 65535 by base 3.
	pbf := []uint16{0, 40000, 40000, 100}
	wid := []uint16{0, 0, 0, 0}
	base := StartFrameBase(pbf, wid)
	want := []uint32{0, 40000, 80000, 80100}
	assert.Equal(t, want, base)

	pulseStartFrame := []uint32{0, 40000, 80000, 80100}
	baseToPulseMap := []uint32{0, 1, 2, 3}
	pulse := StartFramePulse(pulseStartFrame, baseToPulseMap)
	assert.Equal(t, want, pulse)
}

func TestLight(t *testing.T) {
	meanSignal := []float32{2, 3}
	widthInFrames := []uint16{4, 5}
	got := Light(meanSignal, widthInFrames)
	assert.Equal(t, []uint16{8, 15}, got)
}
