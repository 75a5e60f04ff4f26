package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolun/netmsg/pkg/bitstream"
	"github.com/aeolun/netmsg/pkg/message"
)

func TestIsBlockMessageDiscriminator(t *testing.T) {
	f := newTestFactory(t)

	plain := f.Create(typePing)
	require.NotNil(t, plain)
	assert.False(t, plain.IsBlockMessage())
	assert.Nil(t, message.AsBlockMessage(plain))

	carrier := f.Create(typeData)
	require.NotNil(t, carrier)
	assert.True(t, carrier.IsBlockMessage())
	assert.NotNil(t, message.AsBlockMessage(carrier))

	f.Release(plain)
	f.Release(carrier)
	require.NoError(t, f.Close())
}

func TestAttachAndDetachBlock(t *testing.T) {
	f := newTestFactory(t)
	blockAlloc := newRecordingAllocator()

	m := f.Create(typeData)
	require.NotNil(t, m)
	bm := message.AsBlockMessage(m)
	require.NotNil(t, bm)

	// Absent state before attach.
	assert.Nil(t, bm.BlockAllocator())
	assert.Nil(t, bm.BlockData())
	assert.Equal(t, 0, bm.BlockSize())

	data := blockAlloc.Allocate(64)
	require.NotNil(t, data)
	bm.AttachBlock(blockAlloc, data)

	assert.Equal(t, blockAlloc, bm.BlockAllocator())
	assert.Equal(t, data, bm.BlockData())
	assert.Equal(t, 64, bm.BlockSize())

	gotAlloc, gotData := bm.DetachBlock()
	assert.Equal(t, blockAlloc, gotAlloc)
	assert.Equal(t, data, gotData)

	// Detach cleared the attachment without freeing.
	assert.Nil(t, bm.BlockAllocator())
	assert.Nil(t, bm.BlockData())
	assert.Equal(t, 0, bm.BlockSize())
	assert.Empty(t, blockAlloc.frees)

	// Ownership transferred to the caller, who frees.
	gotAlloc.Free(gotData)
	assert.Len(t, blockAlloc.frees, 1)

	f.Release(m)
	require.NoError(t, f.Close())
}

func TestDestroyFreesAttachedBlock(t *testing.T) {
	f := newTestFactory(t)
	blockAlloc := newRecordingAllocator()

	m := f.Create(typeData)
	require.NotNil(t, m)
	data := blockAlloc.Allocate(128)
	require.NotNil(t, data)
	message.AsBlockMessage(m).AttachBlock(blockAlloc, data)

	// Extra reference: the block must survive until the last release.
	f.AddRef(m)
	f.Release(m)
	assert.Empty(t, blockAlloc.frees)

	f.Release(m)
	require.Len(t, blockAlloc.frees, 1)
	assert.Same(t, &data[0], &blockAlloc.frees[0][0])
	assert.Equal(t, 0, blockAlloc.BytesAllocated())

	require.NoError(t, f.Close())
}

func TestAttachContractViolationsPanic(t *testing.T) {
	f := newTestFactory(t)
	blockAlloc := newRecordingAllocator()

	m := f.Create(typeData)
	require.NotNil(t, m)
	bm := message.AsBlockMessage(m)

	assert.Panics(t, func() { bm.AttachBlock(nil, []byte{1}) })
	assert.Panics(t, func() { bm.AttachBlock(blockAlloc, nil) })
	assert.Panics(t, func() { bm.AttachBlock(blockAlloc, []byte{}) })

	data := blockAlloc.Allocate(16)
	bm.AttachBlock(blockAlloc, data)
	assert.Panics(t, func() { bm.AttachBlock(blockAlloc, blockAlloc.Allocate(16)) })

	f.Release(m)
	require.NoError(t, f.Close())
}

func TestBlockMessageSerializeIsNoop(t *testing.T) {
	// The base BlockMessage serializes nothing: block payload transport is
	// the channel layer's job.
	var bm message.BlockMessage
	m := bitstream.NewMeasureStream()
	require.NoError(t, bm.Serialize(m))
	assert.Equal(t, 0, m.BitsProcessed())
}
