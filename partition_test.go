// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrackObject(t *testing.T, id byte, trackID uint32) *MDObject {
	t.Helper()
	desc := trackDescriptor(t)
	uid := uuidFromByte(id)
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, trackID)
	return &MDObject{
		Type:           desc,
		UL:             desc.UL,
		InstanceUID:    uid,
		HasInstanceUID: true,
		Properties: []*Property{
			{Descriptor: mustProperty(t, desc, "InstanceUID"), Scalar: uid[:]},
			{Descriptor: mustProperty(t, desc, "TrackID"), Scalar: raw},
		},
	}
}

func TestPartitionWriteThenReadMetadata(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "partition-*.bin")
	require.NoError(t, err)
	defer f.Close()
	fc := NewFileCursor(f)

	p := NewPartition(PartitionHeader, DefaultRegistry, DefaultSink())
	p.AddMetadata(newTrackObject(t, 0x30, 42))
	p.AddMetadata(newTrackObject(t, 0x31, 43))

	require.NoError(t, p.WriteTo(fc, 0, 4))

	require.NoError(t, fc.Seek(0))
	readBack := NewPartition(PartitionHeader, DefaultRegistry, DefaultSink())
	require.NoError(t, readBack.ReadMetadata(fc, 0))
	require.NoError(t, readBack.Finalize())

	assert.Len(t, readBack.AllMetadata(), 2)
	top := readBack.TopLevelMetadata()
	assert.Len(t, top, 2)
}

func TestPartitionReadMetadataRejectsPrimerNotFirst(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "partition-*.bin")
	require.NoError(t, err)
	defer f.Close()
	fc := NewFileCursor(f)

	desc := trackDescriptor(t)
	primer := NewPrimer()
	obj := newTrackObject(t, 0x40, 1)
	value := obj.EncodeValue(primer)

	item := &KLVObject{UL: desc.UL, ValueLength: int64(len(value))}
	item.chunk = value
	item.SetDest(&IOInfo{Cursor: fc, Offset: 0})
	_, err = item.WriteKL(0, int64(len(value)))
	require.NoError(t, err)
	_, err = item.WriteDataFromTo(0, 0, int64(len(value)))
	require.NoError(t, err)

	require.NoError(t, fc.Seek(0))
	p := NewPartition(PartitionHeader, DefaultRegistry, DefaultSink())
	err = p.ReadMetadata(fc, 0)
	assert.ErrorIs(t, err, ErrPrimerNotFirst)
}

func TestPartitionEssenceIteration(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "partition-*.bin")
	require.NoError(t, err)
	defer f.Close()
	fc := NewFileCursor(f)

	p := NewPartition(PartitionHeader, DefaultRegistry, DefaultSink())
	p.AddMetadata(newTrackObject(t, 0x50, 1))
	require.NoError(t, p.WriteTo(fc, 0, 4))

	after, err := fc.Tell()
	require.NoError(t, err)

	essence1 := []byte("essence-element-one")
	essenceItem := &KLVObject{UL: UL{0x06, 0x0e, 0x2b, 0x34, 0x01, 0x02, 0x01, 0x01, 0x0d, 0x01, 0x03, 0x01, 0x00, 0x00, 0x00, 0x00}, ValueLength: int64(len(essence1))}
	essenceItem.chunk = essence1
	essenceItem.SetDest(&IOInfo{Cursor: fc, Offset: after})
	_, err = essenceItem.WriteKL(0, int64(len(essence1)))
	require.NoError(t, err)
	_, err = essenceItem.WriteDataFromTo(0, 0, int64(len(essence1)))
	require.NoError(t, err)

	footerStart, err := fc.Tell()
	require.NoError(t, err)
	footer := &KLVObject{UL: ULPartitionPackPrefix, ValueLength: 0}
	footer.chunk = nil
	footer.SetDest(&IOInfo{Cursor: fc, Offset: footerStart})
	_, err = footer.WriteKL(0, 0)
	require.NoError(t, err)

	require.NoError(t, fc.Seek(0))
	readBack := NewPartition(PartitionHeader, DefaultRegistry, DefaultSink())
	require.NoError(t, readBack.ReadMetadata(fc, 0))
	require.NoError(t, readBack.StartElements(fc))

	item, err := readBack.NextElement(fc)
	require.NoError(t, err)
	require.NotNil(t, item)
	n, err := item.ReadDataAll()
	require.NoError(t, err)
	assert.Equal(t, essence1, item.Chunk()[:n])

	next, err := readBack.NextElement(fc)
	require.NoError(t, err)
	assert.Nil(t, next)
}
