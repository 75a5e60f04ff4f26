package message

import (
	"github.com/aeolun/netmsg/pkg/alloc"
	"github.com/aeolun/netmsg/pkg/bitstream"
)

// BlockMessage is a message that can have a block of data attached to it.
//
// Blocks are useful for payloads larger than a single packet: over a
// reliable-ordered channel the channel layer splits the block into fragments
// and reassembles it on the other side. The message object only carries the
// block and records which allocator owns it; it never serializes the block
// payload itself.
//
// Embed BlockMessage instead of Base to define an application message type
// that carries a block.
type BlockMessage struct {
	Base
	blockAllocator alloc.Allocator
	blockData      []byte
}

// IsBlockMessage reports true.
func (m *BlockMessage) IsBlockMessage() bool { return true }

func (m *BlockMessage) blockMessage() *BlockMessage { return m }

// AttachBlock attaches a block to this message, taking ownership of data
// under the given allocator. A message can hold at most one block; attaching
// while one is present is a contract violation and panics.
func (m *BlockMessage) AttachBlock(allocator alloc.Allocator, data []byte) {
	if allocator == nil {
		panic("message: attach block with nil allocator")
	}
	if len(data) == 0 {
		panic("message: attach block with empty data")
	}
	if m.blockData != nil {
		panic("message: block already attached")
	}
	m.blockAllocator = allocator
	m.blockData = data
}

// DetachBlock removes the block from the message without freeing it and
// returns the allocator/data pair. Ownership transfers to the caller, who is
// responsible for eventually passing data back to allocator.Free.
func (m *BlockMessage) DetachBlock() (alloc.Allocator, []byte) {
	allocator, data := m.blockAllocator, m.blockData
	m.blockAllocator = nil
	m.blockData = nil
	return allocator, data
}

// BlockAllocator returns the allocator that owns the attached block, or nil
// if no block is attached.
func (m *BlockMessage) BlockAllocator() alloc.Allocator { return m.blockAllocator }

// BlockData returns the attached block, or nil if no block is attached.
func (m *BlockMessage) BlockData() []byte { return m.blockData }

// BlockSize returns the size of the attached block in bytes, 0 if no block is
// attached.
func (m *BlockMessage) BlockSize() int { return len(m.blockData) }

// Serialize is a no-op: block payload transport (fragmentation, reassembly,
// inlining) is the channel layer's responsibility. Application types that
// embed BlockMessage override this to serialize their own header fields.
func (m *BlockMessage) Serialize(stream bitstream.Stream) error { return nil }

// freeBlock releases a still-attached block through its recorded allocator.
// Called exactly once, by the factory, when the message is destroyed.
func (m *BlockMessage) freeBlock() {
	if m.blockAllocator != nil {
		m.blockAllocator.Free(m.blockData)
		m.blockAllocator = nil
		m.blockData = nil
	}
}

// AsBlockMessage returns the block-carrying view of a message, or nil if the
// message is not a block message. This is the only way to reach the block
// operations from a plain Message, so a plain message can never be
// misinterpreted as carrying a block.
func AsBlockMessage(m Message) *BlockMessage {
	if bc, ok := m.(interface{ blockMessage() *BlockMessage }); ok {
		return bc.blockMessage()
	}
	return nil
}

var _ Message = (*BlockMessage)(nil)
