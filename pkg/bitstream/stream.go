package bitstream

import (
	"errors"
	"math/bits"
)

var (
	ErrOverflow        = errors.New("serialization exceeds stream capacity")
	ErrAlignment       = errors.New("alignment padding bits were not zero")
	ErrValueOutOfRange = errors.New("value outside serializable range")
	ErrStringTooLong   = errors.New("string exceeds maximum length (65535 bytes)")
)

// Stream is the mode-polymorphic serialization surface. A message implements
// one Serialize method against this interface and the same code path drives
// writing, reading and measuring, which guarantees that write and read stay
// exact inverses and that a measure pass reports exactly the bit cost a write
// pass would produce.
type Stream interface {
	// SerializeBits transfers the low `bits` bits of *value. Writing streams
	// consume *value, reading streams assign it, measuring streams only count.
	// bits must be in [1, 32].
	SerializeBits(value *uint32, bits int) error

	// SerializeBytes transfers a byte slice. The stream is aligned to a byte
	// boundary first.
	SerializeBytes(data []byte) error

	// SerializeAlign pads the stream with zero bits up to the next byte
	// boundary. Reading streams verify the padding is zero.
	SerializeAlign() error

	// IsWriting reports true for write and measure streams.
	IsWriting() bool

	// IsReading reports true only for read streams.
	IsReading() bool

	// BitsProcessed returns the number of bits serialized so far.
	BitsProcessed() int
}

// bitsRequired returns the number of bits needed to represent values in
// [0, max]. Zero for max == 0.
func bitsRequired(max uint32) int {
	return bits.Len32(max)
}

func checkBitCount(n int) {
	if n < 1 || n > 32 {
		panic("bitstream: bit count must be in [1, 32]")
	}
}
