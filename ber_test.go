// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBERLengthShortForm(t *testing.T) {
	length, consumed, err := DecodeBERLength([]byte{0x10, 0xaa})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10), length)
	assert.Equal(t, 1, consumed)
}

func TestDecodeBERLengthLongForm(t *testing.T) {
	// 0x83 -> 3 following length bytes, value 0x010203.
	length, consumed, err := DecodeBERLength([]byte{0x83, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x010203), length)
	assert.Equal(t, 4, consumed)
}

func TestDecodeBERLengthTruncated(t *testing.T) {
	_, _, err := DecodeBERLength([]byte{0x83, 0x01})
	assert.ErrorIs(t, err, ErrMalformedLength)
}

func TestDecodeBERLengthMalformed(t *testing.T) {
	// n == 0 in the long form is reserved/invalid.
	_, _, err := DecodeBERLength([]byte{0x80})
	assert.ErrorIs(t, err, ErrMalformedLength)
}

func TestReadBERLengthMatchesDecode(t *testing.T) {
	buf := []byte{0x84, 0x00, 0x01, 0x02, 0x03}
	wantLength, wantConsumed, err := DecodeBERLength(buf)
	require.NoError(t, err)

	gotLength, gotConsumed, err := ReadBERLength(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, wantLength, gotLength)
	assert.Equal(t, wantConsumed, gotConsumed)
}

func TestEncodeBERLengthMinWidthRoundTrip(t *testing.T) {
	for _, length := range []uint64{0, 1, 0x7f, 0x80, 0xff, 0x1234, 0x0102030405} {
		enc := EncodeBERLengthMinWidth(length)
		got, consumed, err := DecodeBERLength(enc)
		require.NoError(t, err)
		assert.Equal(t, length, got)
		assert.Equal(t, len(enc), consumed)
	}
}

func TestEncodeBERLengthFixedWidthPadsWithLeadingZeros(t *testing.T) {
	// spec.md allows padding a BER length with leading zero bytes.
	enc := EncodeBERLengthFixedWidth(1, 4)
	assert.Equal(t, []byte{0x84, 0x00, 0x00, 0x00, 0x01}, enc)

	got, consumed, err := DecodeBERLength(enc)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
	assert.Equal(t, 5, consumed)
}

func TestFixedLengthRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 4} {
		enc, err := EncodeFixedLength(0x2a, width)
		require.NoError(t, err)
		got, err := DecodeFixedLength(enc, width)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x2a), got)
	}
}

func TestEncodeFixedLengthOverflow(t *testing.T) {
	_, err := EncodeFixedLength(0x100, 1)
	assert.ErrorIs(t, err, ErrLengthOverflow)
}

func FuzzBER(f *testing.F) {
	f.Add([]byte{0x10})
	f.Add([]byte{0x83, 0x01, 0x02, 0x03})
	f.Add([]byte{0x80})
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, b []byte) {
		length, consumed, err := DecodeBERLength(b)
		if err != nil {
			return
		}
		if consumed <= 0 || consumed > len(b) {
			t.Fatalf("consumed %d out of bounds for input of length %d", consumed, len(b))
		}
		enc := EncodeBERLengthMinWidth(length)
		gotLength, _, err := DecodeBERLength(enc)
		if err != nil {
			t.Fatalf("re-decoding our own encoding failed: %v", err)
		}
		if gotLength != length {
			t.Fatalf("round trip mismatch: %d != %d", gotLength, length)
		}
	})
}
