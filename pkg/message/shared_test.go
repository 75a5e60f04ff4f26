package message_test

import (
	"github.com/aeolun/netmsg/pkg/alloc"
	"github.com/aeolun/netmsg/pkg/bitstream"
	"github.com/aeolun/netmsg/pkg/message"
)

// Test protocol: a small closed set of message types exercising plain and
// block-carrying messages.

const (
	typePing = iota
	typeChat
	typeData
	numTestTypes
)

type pingMessage struct {
	message.Base
	Sequence uint16
}

func (m *pingMessage) Serialize(s bitstream.Stream) error {
	return bitstream.SerializeUint16(s, &m.Sequence)
}

type chatMessage struct {
	message.Base
	Sender   string
	Content  string
	Priority int32
}

func (m *chatMessage) Serialize(s bitstream.Stream) error {
	if err := bitstream.SerializeString(s, &m.Sender, 64); err != nil {
		return err
	}
	if err := bitstream.SerializeString(s, &m.Content, 1024); err != nil {
		return err
	}
	return bitstream.SerializeIntRange(s, &m.Priority, 0, 15)
}

type dataMessage struct {
	message.BlockMessage
	Checksum uint32
}

func (m *dataMessage) Serialize(s bitstream.Stream) error {
	return bitstream.SerializeUint32(s, &m.Checksum)
}

var testTable = message.Table{
	typePing: func() message.Message { return &pingMessage{} },
	typeChat: func() message.Message { return &chatMessage{} },
	typeData: func() message.Message { return &dataMessage{} },
}

// recordingAllocator wraps a heap and records every freed buffer, so tests
// can assert a block was freed exactly once with the original slice.
type recordingAllocator struct {
	inner *alloc.Heap
	frees [][]byte
}

func newRecordingAllocator() *recordingAllocator {
	return &recordingAllocator{inner: alloc.NewHeap()}
}

func (a *recordingAllocator) Allocate(size int) []byte { return a.inner.Allocate(size) }

func (a *recordingAllocator) Free(buf []byte) {
	if buf != nil {
		a.frees = append(a.frees, buf)
	}
	a.inner.Free(buf)
}

func (a *recordingAllocator) BytesAllocated() int { return a.inner.BytesAllocated() }

// failingAllocator refuses every request, simulating an exhausted budget.
type failingAllocator struct{}

func (failingAllocator) Allocate(size int) []byte { return nil }

func (failingAllocator) Free(buf []byte) {}

func (failingAllocator) BytesAllocated() int { return 0 }
