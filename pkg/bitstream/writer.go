package bitstream

// WriteStream packs values into a bounded byte buffer, least significant bit
// first. Overrunning the buffer is reported as ErrOverflow rather than
// growing without bound, so a caller can serialize against a fixed packet
// budget.
type WriteStream struct {
	data         []byte
	capacityBits int
	scratch      uint64
	scratchBits  int
	bitsWritten  int
}

// NewWriteStream creates a write stream with the given capacity in bytes.
func NewWriteStream(capacityBytes int) *WriteStream {
	return &WriteStream{
		data:        make([]byte, 0, capacityBytes),
		capacityBits: capacityBytes * 8,
	}
}

func (s *WriteStream) SerializeBits(value *uint32, bits int) error {
	checkBitCount(bits)
	if s.bitsWritten+bits > s.capacityBits {
		return ErrOverflow
	}
	v := uint64(*value)
	if bits < 32 {
		v &= (1 << uint(bits)) - 1
	}
	s.scratch |= v << uint(s.scratchBits)
	s.scratchBits += bits
	s.bitsWritten += bits
	for s.scratchBits >= 8 {
		s.data = append(s.data, byte(s.scratch))
		s.scratch >>= 8
		s.scratchBits -= 8
	}
	return nil
}

func (s *WriteStream) SerializeBytes(data []byte) error {
	if err := s.SerializeAlign(); err != nil {
		return err
	}
	if s.bitsWritten+len(data)*8 > s.capacityBits {
		return ErrOverflow
	}
	// Aligned, so the scratch is empty and bytes can be appended directly.
	s.data = append(s.data, data...)
	s.bitsWritten += len(data) * 8
	return nil
}

func (s *WriteStream) SerializeAlign() error {
	pad := s.scratchBits
	if pad == 0 {
		return nil
	}
	if s.bitsWritten+(8-pad) > s.capacityBits {
		return ErrOverflow
	}
	s.bitsWritten += 8 - pad
	s.data = append(s.data, byte(s.scratch))
	s.scratch = 0
	s.scratchBits = 0
	return nil
}

// Flush writes any trailing partial byte, padding with zero bits. Call once
// after serialization completes, before reading Data.
func (s *WriteStream) Flush() {
	if s.scratchBits > 0 {
		s.data = append(s.data, byte(s.scratch))
		s.scratch = 0
		s.scratchBits = 0
	}
}

// Data returns the packed bytes written so far. Flushes the trailing partial
// byte first.
func (s *WriteStream) Data() []byte {
	s.Flush()
	return s.data
}

func (s *WriteStream) IsWriting() bool { return true }

func (s *WriteStream) IsReading() bool { return false }

func (s *WriteStream) BitsProcessed() int { return s.bitsWritten }

// BytesProcessed returns the number of bytes the stream occupies, rounding up
// a trailing partial byte.
func (s *WriteStream) BytesProcessed() int { return (s.bitsWritten + 7) / 8 }
