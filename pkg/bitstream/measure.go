package bitstream

// MeasureStream computes the exact bit cost a WriteStream would produce for
// the same serialization, without producing any output. Channels use this to
// decide whether a message fits the remaining packet budget before committing
// to a real write.
//
// IsWriting reports true so that shared serialize code takes the writing
// branch (validating values, not assigning them).
type MeasureStream struct {
	bitsMeasured int
}

// NewMeasureStream creates an empty measure stream.
func NewMeasureStream() *MeasureStream {
	return &MeasureStream{}
}

func (s *MeasureStream) SerializeBits(value *uint32, bits int) error {
	checkBitCount(bits)
	s.bitsMeasured += bits
	return nil
}

func (s *MeasureStream) SerializeBytes(data []byte) error {
	if err := s.SerializeAlign(); err != nil {
		return err
	}
	s.bitsMeasured += len(data) * 8
	return nil
}

func (s *MeasureStream) SerializeAlign() error {
	if pad := s.bitsMeasured % 8; pad != 0 {
		s.bitsMeasured += 8 - pad
	}
	return nil
}

func (s *MeasureStream) IsWriting() bool { return true }

func (s *MeasureStream) IsReading() bool { return false }

func (s *MeasureStream) BitsProcessed() int { return s.bitsMeasured }

// BytesProcessed returns the number of bytes the measured serialization would
// occupy, rounding up a trailing partial byte.
func (s *MeasureStream) BytesProcessed() int { return (s.bitsMeasured + 7) / 8 }
