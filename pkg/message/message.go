// Package message implements the reference-counted message object model and
// the per-connection factory that creates and destroys messages.
//
// Applications define their own message structs by embedding Base (or
// BlockMessage for messages that carry a data block), implement Serialize
// once per type, and declare the closed set of types in a Table. A Factory is
// created per connection endpoint so that one peer exhausting its allocator
// budget never affects another peer's session.
package message

import (
	"github.com/aeolun/netmsg/pkg/bitstream"
)

// Serializable is implemented by anything that can drive its fields through a
// bitstream. The same Serialize method services write, read and measure
// streams, which keeps the three modes consistent by construction.
type Serializable interface {
	Serialize(stream bitstream.Stream) error
}

// Message is a reference counted object that knows how to serialize itself to
// and from a bitstream.
//
// Messages are created by a Factory, never directly. The creator holds the
// first reference; every additional holder (a send queue, a retransmit
// buffer) takes one with Factory.AddRef and gives it back with
// Factory.Release. The message is destroyed when the last reference is
// released.
type Message interface {
	Serializable

	// ID returns the message id. On a reliable-ordered channel this is the
	// send sequence number, wrapping 65535 -> 0; on an unreliable-unordered
	// channel it is the sequence number of the carrying packet.
	ID() uint16

	// SetID is called by the channel that sends the message, exactly once per
	// message instance. The value is stored verbatim; ordering is the
	// channel's concern.
	SetID(id uint16)

	// Type returns the type tag the message was created with. Assigned once
	// by the factory, immutable afterwards.
	Type() int

	// RefCount returns the current reference count.
	RefCount() int

	// IsBlockMessage reports whether this message can carry a data block.
	// Use AsBlockMessage to get at the block operations.
	IsBlockMessage() bool

	// base exposes factory-privileged state. Unexported so that reference
	// counts and type tags can only be touched from inside this package, and
	// so that every message implementation embeds Base.
	base() *messageState
}

// messageState is the factory-privileged portion of every message.
type messageState struct {
	refCount    int
	id          uint16
	messageType int
	reservation []byte // allocator charge taken at creation, refunded at destroy
}

// Base is embedded by every application message type. The zero value is
// ready to use; the factory initializes the reference count and type tag
// right after the registry constructs the message.
type Base struct {
	state messageState
}

// ID returns the message id.
func (b *Base) ID() uint16 { return b.state.id }

// SetID sets the message id. Only the channel that owns send sequencing for
// this message should call it.
func (b *Base) SetID(id uint16) { b.state.id = id }

// Type returns the type tag assigned by the factory.
func (b *Base) Type() int { return b.state.messageType }

// RefCount returns the current reference count.
func (b *Base) RefCount() int { return b.state.refCount }

// IsBlockMessage reports false; BlockMessage overrides it.
func (b *Base) IsBlockMessage() bool { return false }

func (b *Base) base() *messageState { return &b.state }

func (s *messageState) addRef() {
	s.refCount++
}

func (s *messageState) release() {
	if s.refCount <= 0 {
		panic("message: release with zero reference count")
	}
	s.refCount--
}
