// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexTableSegmentRoundTrip(t *testing.T) {
	seg := &IndexTableSegment{
		InstanceUID:        uuidFromByte(0x21),
		IndexEditRate:      EditRate{Numerator: 25, Denominator: 1},
		IndexStartPosition: 0,
		IndexDuration:      3,
		EditUnitByteCount:  0,
		IndexSID:           1,
		BodySID:            2,
		Entries: []IndexEntry{
			{TemporalOffset: 0, KeyFrameOffset: 0, Flags: 0x80, StreamOffset: 0},
			{TemporalOffset: 1, KeyFrameOffset: -1, Flags: 0x00, StreamOffset: 1024},
			{TemporalOffset: -1, KeyFrameOffset: -2, Flags: 0x00, StreamOffset: 2048},
		},
	}

	encoded := seg.EncodeValue()
	decoded, err := DecodeIndexTableSegment(encoded)
	require.NoError(t, err)

	assert.Equal(t, seg.InstanceUID, decoded.InstanceUID)
	assert.Equal(t, seg.IndexEditRate, decoded.IndexEditRate)
	assert.Equal(t, seg.IndexDuration, decoded.IndexDuration)
	assert.Equal(t, seg.IndexSID, decoded.IndexSID)
	assert.Equal(t, seg.BodySID, decoded.BodySID)
	require.Len(t, decoded.Entries, 3)
	if diff := cmp.Diff(seg.Entries, decoded.Entries); diff != "" {
		t.Errorf("index entries mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, decoded.Validate())
}

func TestIndexTableSegmentValidateRejectsDecreasingOffsets(t *testing.T) {
	seg := &IndexTableSegment{
		Entries: []IndexEntry{
			{StreamOffset: 100},
			{StreamOffset: 50},
		},
	}
	assert.ErrorIs(t, seg.Validate(), ErrMalformedLength)
}

func TestDecodeIndexTableSegmentTruncated(t *testing.T) {
	// Header claims a 16-byte value but only 2 bytes follow.
	value := []byte{0x3c, 0x0a, 0x00, 0x10, 0xaa, 0xbb}
	_, err := DecodeIndexTableSegment(value)
	assert.ErrorIs(t, err, ErrTruncatedValue)
}
