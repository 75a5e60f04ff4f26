package bitstream

// ReadStream consumes values from a packed byte buffer produced by a
// WriteStream. Reading past the end of the buffer is reported as ErrOverflow.
type ReadStream struct {
	data        []byte
	byteIndex   int
	scratch     uint64
	scratchBits int
	bitsRead    int
}

// NewReadStream creates a read stream over the given packed bytes. The slice
// is not copied; the caller must not mutate it while reading.
func NewReadStream(data []byte) *ReadStream {
	return &ReadStream{data: data}
}

func (s *ReadStream) SerializeBits(value *uint32, bits int) error {
	checkBitCount(bits)
	if s.bitsRead+bits > len(s.data)*8 {
		return ErrOverflow
	}
	for s.scratchBits < bits {
		s.scratch |= uint64(s.data[s.byteIndex]) << uint(s.scratchBits)
		s.byteIndex++
		s.scratchBits += 8
	}
	v := s.scratch
	if bits < 32 {
		v &= (1 << uint(bits)) - 1
	} else {
		v &= 0xFFFFFFFF
	}
	*value = uint32(v)
	s.scratch >>= uint(bits)
	s.scratchBits -= bits
	s.bitsRead += bits
	return nil
}

func (s *ReadStream) SerializeBytes(data []byte) error {
	if err := s.SerializeAlign(); err != nil {
		return err
	}
	if s.bitsRead+len(data)*8 > len(s.data)*8 {
		return ErrOverflow
	}
	// Aligned, so the scratch is empty and bytes can be copied directly.
	copy(data, s.data[s.byteIndex:s.byteIndex+len(data)])
	s.byteIndex += len(data)
	s.bitsRead += len(data) * 8
	return nil
}

func (s *ReadStream) SerializeAlign() error {
	if s.scratchBits == 0 {
		return nil
	}
	// Remaining bits in the current partial byte must be zero padding.
	pad := s.scratchBits
	if s.scratch&((1<<uint(pad))-1) != 0 {
		return ErrAlignment
	}
	s.scratch >>= uint(pad)
	s.scratchBits = 0
	s.bitsRead += pad
	return nil
}

func (s *ReadStream) IsWriting() bool { return false }

func (s *ReadStream) IsReading() bool { return true }

func (s *ReadStream) BitsProcessed() int { return s.bitsRead }

// BytesProcessed returns the number of bytes consumed, rounding up a trailing
// partial byte.
func (s *ReadStream) BytesProcessed() int { return (s.bitsRead + 7) / 8 }
