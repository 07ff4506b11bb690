package pcapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePackets(t *testing.T) *Packets {
	t.Helper()
	return NewPackets([]*Packet{
		{Header: PacketHeader{Time: Timestamp{Sec: 10, Usec: 0}, InclLen: 2, OrigLen: 2}, Data: []byte{0x01, 0x02}},
		{Header: PacketHeader{Time: Timestamp{Sec: 11, Usec: 0}, InclLen: 2, OrigLen: 2}, Data: []byte{0x03, 0x04}},
	}, 1)
}

func TestPacketsOffsetTimestampsForward(t *testing.T) {
	p := samplePackets(t)
	require.NoError(t, p.OffsetTimestamps(1.5))

	assert.Equal(t, uint32(11), p.At(0).Header.Time.Sec)
	assert.Equal(t, uint32(500000), p.At(0).Header.Time.Usec)
	assert.Equal(t, uint32(12), p.At(1).Header.Time.Sec)
}

func TestPacketsOffsetTimestampsBackward(t *testing.T) {
	p := samplePackets(t)
	require.NoError(t, p.OffsetTimestamps(-1))

	assert.Equal(t, uint32(9), p.At(0).Header.Time.Sec)
	assert.Equal(t, uint32(10), p.At(1).Header.Time.Sec)
}

func TestPacketsOffsetTimestampsZeroIsNoOp(t *testing.T) {
	p := samplePackets(t)
	before := p.At(0).Header.Time
	require.NoError(t, p.OffsetTimestamps(0))
	assert.Equal(t, before, p.At(0).Header.Time)
}

func TestPacketsStartTime(t *testing.T) {
	p := samplePackets(t)
	start, err := p.StartTime()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), start.Sec)

	empty := NewPackets(nil, 1)
	_, err = empty.StartTime()
	assert.Error(t, err)
}

func TestPacketsMetadata(t *testing.T) {
	p := samplePackets(t)
	meta, err := p.Metadata()
	require.NoError(t, err)
	assert.Contains(t, meta, "Num packets:")
	assert.Contains(t, meta, "Link type:")

	empty := NewPackets(nil, 1)
	_, err = empty.Metadata()
	assert.Error(t, err)
}

func TestResolvedMate(t *testing.T) {
	a := samplePackets(t)
	b := samplePackets(t)

	a.At(0).Match = true
	a.At(0).Mate = &Mate{Collection: CollectionB, Index: 1}

	mate := a.At(0).ResolvedMate(a, b)
	assert.Same(t, b.At(1), mate)

	assert.Nil(t, a.At(1).ResolvedMate(a, b))
}
