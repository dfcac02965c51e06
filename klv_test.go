// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFileCursor(t *testing.T) *FileCursor {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "klv-*.bin")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return NewFileCursor(f)
}

func TestKLVWriteReadRoundTrip(t *testing.T) {
	fc := tempFileCursor(t)

	value := []byte("hello, mxf")
	w := &KLVObject{UL: ULFill, ValueLength: int64(len(value))}
	w.chunk = value
	w.SetDest(&IOInfo{Cursor: fc, Offset: 0})
	klSize, err := w.WriteKL(0, int64(len(value)))
	require.NoError(t, err)
	_, err = w.WriteDataFromTo(0, 0, int64(len(value)))
	require.NoError(t, err)

	require.NoError(t, fc.Seek(0))
	r := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
	gotKLSize, err := r.ReadKL(fc)
	require.NoError(t, err)
	assert.Equal(t, klSize, gotKLSize)
	assert.Equal(t, ULFill, r.UL)
	assert.Equal(t, int64(len(value)), r.ValueLength)

	n, err := r.ReadDataAll()
	require.NoError(t, err)
	assert.Equal(t, value, r.Chunk()[:n])
}

func TestKLVReadKLTruncated(t *testing.T) {
	fc := tempFileCursor(t)
	// Only 4 bytes: not even a full 16-byte UL key.
	_, err := fc.Write([]byte{0x06, 0x0e, 0x2b, 0x34})
	require.NoError(t, err)
	require.NoError(t, fc.Seek(0))

	item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
	_, err = item.ReadKL(fc)
	assert.ErrorIs(t, err, ErrTruncatedKL)
}

func TestKLVFamilyRecognition(t *testing.T) {
	assert.True(t, IsFill(ULFill))
	assert.True(t, IsPrimerPack(ULPrimerPack))
	assert.True(t, IsIndexTableSegment(ULIndexTableSegment))

	header := ULPartitionPackPrefix
	header[13] = 0x02
	header[14] = 0x04
	assert.True(t, IsPartitionPack(header))
	assert.False(t, IsPartitionPack(ULFill))
}

func FuzzKLVCursor(f *testing.F) {
	f.Add(append(append([]byte{}, ULFill[:]...), 0x03, 'a', 'b', 'c'))
	f.Fuzz(func(t *testing.T, data []byte) {
		dir := t.TempDir()
		path := dir + "/fuzz.bin"
		tf, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		defer tf.Close()
		if _, err := tf.Write(data); err != nil {
			t.Fatal(err)
		}
		if _, err := tf.Seek(0, 0); err != nil {
			t.Fatal(err)
		}

		fc := NewFileCursor(tf)
		item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
		klSize, err := item.ReadKL(fc)
		if err != nil {
			return
		}
		if klSize <= 0 {
			t.Fatalf("non-positive klSize %d with nil error", klSize)
		}
		if item.ValueLength < 0 {
			t.Fatalf("negative ValueLength %d", item.ValueLength)
		}
	})
}
