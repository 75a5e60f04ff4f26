package main

import (
	"github.com/aeolun/netmsg/pkg/bitstream"
	"github.com/aeolun/netmsg/pkg/message"
)

// The soak protocol: a small message set shaped like a game protocol, with
// one block-carrying type.

const (
	typeKeepAlive = iota
	typeEntityState
	typeSnapshot
	numSoakTypes
)

// keepAliveMessage is the smallest possible message.
type keepAliveMessage struct {
	message.Base
	Sequence uint16
}

func (m *keepAliveMessage) Serialize(s bitstream.Stream) error {
	return bitstream.SerializeUint16(s, &m.Sequence)
}

// entityStateMessage carries a position update with range-packed coordinates.
type entityStateMessage struct {
	message.Base
	Entity uint32
	X, Y   int32
	Urgent bool
}

func (m *entityStateMessage) Serialize(s bitstream.Stream) error {
	if err := bitstream.SerializeUint32(s, &m.Entity); err != nil {
		return err
	}
	if err := bitstream.SerializeIntRange(s, &m.X, -32768, 32767); err != nil {
		return err
	}
	if err := bitstream.SerializeIntRange(s, &m.Y, -32768, 32767); err != nil {
		return err
	}
	return bitstream.SerializeBool(s, &m.Urgent)
}

// snapshotMessage carries a world snapshot as an attached block; only the
// tick header is serialized inline.
type snapshotMessage struct {
	message.BlockMessage
	Tick uint32
}

func (m *snapshotMessage) Serialize(s bitstream.Stream) error {
	return bitstream.SerializeUint32(s, &m.Tick)
}

var soakTable = message.Table{
	typeKeepAlive:   func() message.Message { return &keepAliveMessage{} },
	typeEntityState: func() message.Message { return &entityStateMessage{} },
	typeSnapshot:    func() message.Message { return &snapshotMessage{} },
}
