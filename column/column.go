// Package column implements the tagged-variant element array shared by the
// source-field readers (package movie) and the archive's per-metric output
// buffers (package cmpfile). Every metric in this system produces one of a
// handful of fixed element types, so a single tagged union stands in for the
// per-metric-kind array types that would otherwise be needed.
package column

import "fmt"

// Kind identifies the element type backing an Array.
type Kind int

const (
	// Uint8 backs quality-value metrics, capped at 100.
	Uint8 Kind = iota
	// Uint16 backs frame-count metrics (PreBaseFrames, WidthInFrames, ...).
	Uint16
	// Uint32 backs pulse-index and 32-bit frame metrics.
	Uint32
	// Int8 backs single-character tag metrics (DeletionTag, SubstitutionTag).
	Int8
	// Float32 backs signal-derived metrics (pkmid, ClassifierQV).
	Float32
)

func (k Kind) String() string {
	switch k {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Int8:
		return "int8"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Array is an owned, homogeneously-typed buffer. Exactly one of the typed
// slices is non-nil, selected by Kind.
type Array struct {
	Kind Kind
	U8   []uint8
	U16  []uint16
	U32  []uint32
	I8   []int8
	F32  []float32
}

// NewUint8 allocates a length-n Uint8 array.
func NewUint8(n int) Array { return Array{Kind: Uint8, U8: make([]uint8, n)} }

// NewUint16 allocates a length-n Uint16 array.
func NewUint16(n int) Array { return Array{Kind: Uint16, U16: make([]uint16, n)} }

// NewUint32 allocates a length-n Uint32 array.
func NewUint32(n int) Array { return Array{Kind: Uint32, U32: make([]uint32, n)} }

// NewInt8 allocates a length-n Int8 array.
func NewInt8(n int) Array { return Array{Kind: Int8, I8: make([]int8, n)} }

// NewFloat32 allocates a length-n Float32 array.
func NewFloat32(n int) Array { return Array{Kind: Float32, F32: make([]float32, n)} }

// New allocates a length-n array of the given kind.
func New(k Kind, n int) Array {
	switch k {
	case Uint8:
		return NewUint8(n)
	case Uint16:
		return NewUint16(n)
	case Uint32:
		return NewUint32(n)
	case Int8:
		return NewInt8(n)
	case Float32:
		return NewFloat32(n)
	default:
		panic(fmt.Sprintf("column: unknown kind %v", k))
	}
}

// Len returns the number of elements in the array.
func (a Array) Len() int {
	switch a.Kind {
	case Uint8:
		return len(a.U8)
	case Uint16:
		return len(a.U16)
	case Uint32:
		return len(a.U32)
	case Int8:
		return len(a.I8)
	case Float32:
		return len(a.F32)
	default:
		return 0
	}
}

// Fill sets every element of the array to the given sentinel/fill value,
// which must match the array's Kind.
func (a Array) Fill(v interface{}) {
	switch a.Kind {
	case Uint8:
		fillU8(a.U8, v.(uint8))
	case Uint16:
		fillU16(a.U16, v.(uint16))
	case Uint32:
		fillU32(a.U32, v.(uint32))
	case Int8:
		fillI8(a.I8, v.(int8))
	case Float32:
		fillF32(a.F32, v.(float32))
	}
}

func fillU8(s []uint8, v uint8) {
	for i := range s {
		s[i] = v
	}
}

func fillU16(s []uint16, v uint16) {
	for i := range s {
		s[i] = v
	}
}

func fillU32(s []uint32, v uint32) {
	for i := range s {
		s[i] = v
	}
}

func fillI8(s []int8, v int8) {
	for i := range s {
		s[i] = v
	}
}

func fillF32(s []float32, v float32) {
	for i := range s {
		s[i] = v
	}
}

// Slice returns the sub-array [start:start+length), sharing storage with a.
func (a Array) Slice(start, length int) Array {
	end := start + length
	switch a.Kind {
	case Uint8:
		return Array{Kind: Uint8, U8: a.U8[start:end]}
	case Uint16:
		return Array{Kind: Uint16, U16: a.U16[start:end]}
	case Uint32:
		return Array{Kind: Uint32, U32: a.U32[start:end]}
	case Int8:
		return Array{Kind: Int8, I8: a.I8[start:end]}
	case Float32:
		return Array{Kind: Float32, F32: a.F32[start:end]}
	default:
		return Array{}
	}
}
