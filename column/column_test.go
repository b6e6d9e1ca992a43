package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndLen(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		n    int
	}{
		{Uint8, 3}, {Uint16, 4}, {Uint32, 5}, {Int8, 2}, {Float32, 6},
	} {
		a := New(tc.kind, tc.n)
		assert.Equal(t, tc.n, a.Len())
		assert.Equal(t, tc.kind, a.Kind)
	}
}

func TestFill(t *testing.T) {
	a := NewUint8(4)
	a.Fill(uint8(9))
	for _, v := range a.U8 {
		assert.Equal(t, uint8(9), v)
	}

	f := NewFloat32(3)
	f.Fill(float32(1.5))
	for _, v := range f.F32 {
		assert.Equal(t, float32(1.5), v)
	}
}

func TestSliceSharesStorage(t *testing.T) {
	a := NewUint16(5)
	for i := range a.U16 {
		a.U16[i] = uint16(i)
	}
	s := a.Slice(1, 3)
	assert.Equal(t, 3, s.Len())
	s.U16[0] = 100
	assert.Equal(t, uint16(100), a.U16[1], "Slice should share storage with its parent array")
}
