// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePartitionPackAt(t *testing.T, fc *FileCursor, at Position, pp *PartitionPack) {
	t.Helper()
	value := pp.EncodeValue()
	item := &KLVObject{UL: pp.KeyFor(), ValueLength: int64(len(value))}
	item.chunk = value
	item.SetDest(&IOInfo{Cursor: fc, Offset: at})
	_, err := item.WriteKL(0, int64(len(value)))
	require.NoError(t, err)
	_, err = item.WriteDataFromTo(0, 0, int64(len(value)))
	require.NoError(t, err)
}

func TestSessionRunInAndReadPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.mxf")
	f, err := os.Create(path)
	require.NoError(t, err)
	fc := NewFileCursor(f)

	runIn := []byte("this is a vendor-specific run-in blob")
	_, err = fc.Write(runIn)
	require.NoError(t, err)

	pp := &PartitionPack{Kind: PartitionHeader, KAGSize: 1, BodySID: 1, IndexSID: 0}
	pp.MarkClosed()
	pp.MarkComplete()
	writePartitionPackAt(t, fc, Position(len(runIn)), pp)

	footerStart, err := fc.Tell()
	require.NoError(t, err)
	writePartitionPackAt(t, fc, footerStart, &PartitionPack{Kind: PartitionFooter})
	require.NoError(t, f.Close())

	sess, err := Open(path, DefaultRegistry, nil)
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, runIn, sess.RunIn)

	part, err := sess.ReadPartition()
	require.NoError(t, err)
	assert.Equal(t, PartitionHeader, part.Pack.Kind)
	assert.True(t, part.Pack.IsClosed())
	assert.True(t, part.Pack.IsComplete())
}

func TestSessionResyncFindsNextPartitionPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resync.mxf")
	f, err := os.Create(path)
	require.NoError(t, err)
	fc := NewFileCursor(f)

	pp := &PartitionPack{Kind: PartitionHeader}
	writePartitionPackAt(t, fc, 0, pp)

	garbageStart, err := fc.Tell()
	require.NoError(t, err)
	_, err = fc.Write([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	require.NoError(t, err)

	footer := &PartitionPack{Kind: PartitionFooter}
	footerStart, err := fc.Tell()
	require.NoError(t, err)
	writePartitionPackAt(t, fc, footerStart, footer)
	require.NoError(t, f.Close())

	sess, err := Open(path, DefaultRegistry, nil)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.ReadPartition()
	require.NoError(t, err)

	require.NoError(t, sess.FileCursor().Seek(garbageStart))
	require.NoError(t, sess.Resync())

	pos, err := sess.FileCursor().Tell()
	require.NoError(t, err)
	assert.Equal(t, footerStart, pos)
}
