package bitstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadBits(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
		bits   []int
	}{
		{"single byte", []uint32{0xA5}, []int{8}},
		{"sub-byte values", []uint32{5, 3, 1}, []int{3, 2, 1}},
		{"crossing byte boundaries", []uint32{0x1FF, 0x7F}, []int{9, 7}},
		{"full words", []uint32{0xDEADBEEF, 0xCAFEBABE}, []int{32, 32}},
		{"mixed widths", []uint32{1, 0x3FFF, 0, 0xFFFFFFFF, 9}, []int{1, 14, 5, 32, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriteStream(64)
			for i := range tt.values {
				v := tt.values[i]
				require.NoError(t, w.SerializeBits(&v, tt.bits[i]))
			}

			r := NewReadStream(w.Data())
			for i := range tt.values {
				var v uint32
				require.NoError(t, r.SerializeBits(&v, tt.bits[i]))
				mask := uint32(0xFFFFFFFF)
				if tt.bits[i] < 32 {
					mask = 1<<uint(tt.bits[i]) - 1
				}
				assert.Equal(t, tt.values[i]&mask, v, "value %d", i)
			}
		})
	}
}

func TestWriteStreamOverflow(t *testing.T) {
	w := NewWriteStream(1)

	v := uint32(0xFF)
	require.NoError(t, w.SerializeBits(&v, 8))

	err := w.SerializeBits(&v, 1)
	assert.Equal(t, ErrOverflow, err)
}

func TestReadStreamOverflow(t *testing.T) {
	r := NewReadStream([]byte{0xAB})

	var v uint32
	require.NoError(t, r.SerializeBits(&v, 8))

	err := r.SerializeBits(&v, 1)
	assert.Equal(t, ErrOverflow, err)
}

func TestSerializeAlign(t *testing.T) {
	w := NewWriteStream(16)

	v := uint32(5)
	require.NoError(t, w.SerializeBits(&v, 3))
	require.NoError(t, w.SerializeAlign())
	assert.Equal(t, 8, w.BitsProcessed())

	v = 0xAA
	require.NoError(t, w.SerializeBits(&v, 8))

	r := NewReadStream(w.Data())
	var got uint32
	require.NoError(t, r.SerializeBits(&got, 3))
	assert.Equal(t, uint32(5), got)
	require.NoError(t, r.SerializeAlign())
	assert.Equal(t, 8, r.BitsProcessed())
	require.NoError(t, r.SerializeBits(&got, 8))
	assert.Equal(t, uint32(0xAA), got)
}

func TestSerializeAlignRejectsDirtyPadding(t *testing.T) {
	r := NewReadStream([]byte{0xFF})

	var v uint32
	require.NoError(t, r.SerializeBits(&v, 3))
	assert.Equal(t, uint32(7), v)

	err := r.SerializeAlign()
	assert.Equal(t, ErrAlignment, err)
}

func TestSerializeBytes(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0xFF}

	w := NewWriteStream(16)
	v := uint32(1)
	require.NoError(t, w.SerializeBits(&v, 1))
	require.NoError(t, w.SerializeBytes(payload))

	r := NewReadStream(w.Data())
	var got uint32
	require.NoError(t, r.SerializeBits(&got, 1))
	buf := make([]byte, len(payload))
	require.NoError(t, r.SerializeBytes(buf))
	assert.Equal(t, payload, buf)
}

func TestMeasureMatchesWrite(t *testing.T) {
	serialize := func(s Stream) error {
		v := uint32(3)
		if err := s.SerializeBits(&v, 5); err != nil {
			return err
		}
		if err := s.SerializeBytes([]byte{1, 2, 3}); err != nil {
			return err
		}
		v = 0x1234
		if err := s.SerializeBits(&v, 13); err != nil {
			return err
		}
		return s.SerializeAlign()
	}

	w := NewWriteStream(64)
	require.NoError(t, serialize(w))

	m := NewMeasureStream()
	require.NoError(t, serialize(m))

	assert.Equal(t, w.BitsProcessed(), m.BitsProcessed())
	assert.Equal(t, w.BytesProcessed(), m.BytesProcessed())
	assert.Len(t, w.Data(), w.BytesProcessed())
}

func TestBitsRequired(t *testing.T) {
	tests := []struct {
		max  uint32
		bits int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{255, 8},
		{256, 9},
		{65535, 16},
		{0xFFFFFFFF, 32},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bits, bitsRequired(tt.max), "max %d", tt.max)
	}
}

func TestInvalidBitCountPanics(t *testing.T) {
	w := NewWriteStream(8)
	v := uint32(0)

	assert.Panics(t, func() { _ = w.SerializeBits(&v, 0) })
	assert.Panics(t, func() { _ = w.SerializeBits(&v, 33) })
}
