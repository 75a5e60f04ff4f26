package bitstream

// Typed serialization helpers. Each one drives a single value through
// whichever stream mode it is handed, the same way for write, read and
// measure.

// SerializeBool transfers a boolean as a single bit.
func SerializeBool(s Stream, v *bool) error {
	var u uint32
	if *v {
		u = 1
	}
	if err := s.SerializeBits(&u, 1); err != nil {
		return err
	}
	if s.IsReading() {
		*v = u != 0
	}
	return nil
}

// SerializeUint8 transfers an 8-bit unsigned integer.
func SerializeUint8(s Stream, v *uint8) error {
	u := uint32(*v)
	if err := s.SerializeBits(&u, 8); err != nil {
		return err
	}
	if s.IsReading() {
		*v = uint8(u)
	}
	return nil
}

// SerializeUint16 transfers a 16-bit unsigned integer.
func SerializeUint16(s Stream, v *uint16) error {
	u := uint32(*v)
	if err := s.SerializeBits(&u, 16); err != nil {
		return err
	}
	if s.IsReading() {
		*v = uint16(u)
	}
	return nil
}

// SerializeUint32 transfers a 32-bit unsigned integer.
func SerializeUint32(s Stream, v *uint32) error {
	return s.SerializeBits(v, 32)
}

// SerializeUint64 transfers a 64-bit unsigned integer as two 32-bit halves,
// low half first.
func SerializeUint64(s Stream, v *uint64) error {
	lo := uint32(*v)
	hi := uint32(*v >> 32)
	if err := s.SerializeBits(&lo, 32); err != nil {
		return err
	}
	if err := s.SerializeBits(&hi, 32); err != nil {
		return err
	}
	if s.IsReading() {
		*v = uint64(hi)<<32 | uint64(lo)
	}
	return nil
}

// SerializeIntRange transfers an integer known to lie in [min, max], packing
// it into the minimum number of bits the range requires. Values outside the
// range are rejected with ErrValueOutOfRange on the writing side.
func SerializeIntRange(s Stream, v *int32, min, max int32) error {
	if min >= max {
		panic("bitstream: min must be less than max")
	}
	if s.IsWriting() && (*v < min || *v > max) {
		return ErrValueOutOfRange
	}
	bits := bitsRequired(uint32(max - min))
	u := uint32(*v - min)
	if err := s.SerializeBits(&u, bits); err != nil {
		return err
	}
	if s.IsReading() {
		*v = int32(u) + min
		if *v < min || *v > max {
			return ErrValueOutOfRange
		}
	}
	return nil
}

// SerializeString transfers a length-prefixed UTF-8 string of at most
// maxLength bytes (capped at 65535). The bytes are byte-aligned.
func SerializeString(s Stream, v *string, maxLength int) error {
	if maxLength > 65535 {
		maxLength = 65535
	}
	length := uint32(len(*v))
	if s.IsWriting() && int(length) > maxLength {
		return ErrStringTooLong
	}
	if err := s.SerializeBits(&length, 16); err != nil {
		return err
	}
	if int(length) > maxLength {
		return ErrStringTooLong
	}
	if s.IsReading() {
		buf := make([]byte, length)
		if err := s.SerializeBytes(buf); err != nil {
			return err
		}
		*v = string(buf)
		return nil
	}
	return s.SerializeBytes([]byte(*v))
}
