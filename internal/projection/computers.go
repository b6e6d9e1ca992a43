package projection

import (
	"github.com/nucleobio/loadpulses/column"
	"github.com/nucleobio/loadpulses/movie"
)

// project is the common per-base projection pattern: allocate a
// destination of length span+1, fill with sentinel, scatter ungapped values
// through baseToAlnMap, then overwrite the final cell with the terminator.
// The terminator is written last, so the final cell is 0 even when a map
// entry points at it.
func project[T any](span int64, baseToAlnMap []int32, sentinel T, values func(i int) T) []T {
	dst := make([]T, span+1)
	for i := range dst {
		dst[i] = sentinel
	}
	for i, pos := range baseToAlnMap {
		dst[pos] = values(i)
	}
	var terminator T
	dst[len(dst)-1] = terminator
	return dst
}

// ProjectUint8 projects a per-base uint8 metric (quality-value family).
// When cap100 is set, values above 100 are capped.
func ProjectUint8(span int64, baseToAlnMap []int32, sentinel uint8, cap100 bool, values []uint8) column.Array {
	data := project(span, baseToAlnMap, sentinel, func(i int) uint8 {
		v := values[i]
		if cap100 && v > 100 {
			return 100
		}
		return v
	})
	return column.Array{Kind: column.Uint8, U8: data}
}

// ProjectInt8 projects a per-base tag metric (DeletionTag, SubstitutionTag).
func ProjectInt8(span int64, baseToAlnMap []int32, sentinel int8, values []int8) column.Array {
	data := project(span, baseToAlnMap, sentinel, func(i int) int8 { return values[i] })
	return column.Array{Kind: column.Int8, I8: data}
}

// ProjectUint16 projects a per-base uint16 metric (PreBaseFrames, IPD,
// WidthInFrames/PulseWidth, Light).
func ProjectUint16(span int64, baseToAlnMap []int32, sentinel uint16, values []uint16) column.Array {
	data := project(span, baseToAlnMap, sentinel, func(i int) uint16 { return values[i] })
	return column.Array{Kind: column.Uint16, U16: data}
}

// ProjectUint32 projects a per-base uint32 metric (PulseIndex, StartFrame family).
func ProjectUint32(span int64, baseToAlnMap []int32, sentinel uint32, values []uint32) column.Array {
	data := project(span, baseToAlnMap, sentinel, func(i int) uint32 { return values[i] })
	return column.Array{Kind: column.Uint32, U32: data}
}

// ProjectFloat32 projects a per-base float32 metric (pkmid, ClassifierQV).
func ProjectFloat32(span int64, baseToAlnMap []int32, values []float32) column.Array {
	data := project(span, baseToAlnMap, movie.SentinelFloat32(), func(i int) float32 { return values[i] })
	return column.Array{Kind: column.Float32, F32: data}
}

// StartFrameBase computes the base-derived StartFrame for an entire read:
// sf[0] = x[0]; sf[i] = x[i] + y[i-1] for i>=1, followed by a
// running (prefix) sum. x and y (PreBaseFrames, WidthInFrames) are 16-bit
// source fields; the addition and the prefix sum are carried out in 32 bits
// so that a long read's cumulative frame count does not silently wrap the
// way the raw 16-bit counters would.
func StartFrameBase(preBaseFrames, widthInFrames []uint16) []uint32 {
	n := len(preBaseFrames)
	sf := make([]uint32, n)
	if n == 0 {
		return sf
	}
	sf[0] = uint32(preBaseFrames[0])
	for i := 1; i < n; i++ {
		sf[i] = uint32(preBaseFrames[i]) + uint32(widthInFrames[i-1])
	}
	var running uint32
	for i := range sf {
		running += sf[i]
		sf[i] = running
	}
	return sf
}

// StartFramePulse gathers the pulse-derived StartFrame for a read via its
// base->pulse map: exact, and preferred over StartFrameBase whenever pulse
// data is available.
func StartFramePulse(pulseStartFrame []uint32, baseToPulseMap []uint32) []uint32 {
	out := make([]uint32, len(baseToPulseMap))
	for i, p := range baseToPulseMap {
		out[i] = pulseStartFrame[p]
	}
	return out
}

// GatherUint16ViaPulseMap gathers a pulse-space uint16 field (WidthInFrames)
// for a read via its base->pulse map (PulseWidth, WidthInFrames, and the
// pulse-derived IPD's width term).
func GatherUint16ViaPulseMap(pulseValues []uint16, baseToPulseMap []uint32) []uint16 {
	out := make([]uint16, len(baseToPulseMap))
	for i, p := range baseToPulseMap {
		out[i] = pulseValues[p]
	}
	return out
}

// GatherFloat32ViaPulseMap gathers a pulse-space float32 field (MidSignal,
// ClassifierQV) for the aligned window via the base->pulse map.
func GatherFloat32ViaPulseMap(pulseValues []float32, baseToPulseMap []uint32) []float32 {
	out := make([]float32, len(baseToPulseMap))
	for i, p := range baseToPulseMap {
		out[i] = pulseValues[p]
	}
	return out
}

// IPDPulseDerived computes per-read inter-pulse durations from gathered
// pulse StartFrame/WidthInFrames arrays: IPD[0] = 0, IPD[i] =
// startFrame[i] - startFrame[i-1] - widthInFrames[i-1] for i>=1.
func IPDPulseDerived(startFrame []uint32, widthInFrames []uint16) []uint16 {
	n := len(startFrame)
	out := make([]uint16, n)
	for i := 1; i < n; i++ {
		out[i] = uint16(startFrame[i] - startFrame[i-1] - uint32(widthInFrames[i-1]))
	}
	return out
}

// Light computes MeanSignal x WidthInFrames element-wise, both gathered via
// the base->pulse map.
func Light(meanSignal []float32, widthInFrames []uint16) []uint16 {
	out := make([]uint16, len(meanSignal))
	for i := range meanSignal {
		out[i] = uint16(meanSignal[i] * float32(widthInFrames[i]))
	}
	return out
}
