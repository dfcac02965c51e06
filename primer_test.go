// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimerAllocatesDeterministically(t *testing.T) {
	p := NewPrimer()
	tag1 := p.LookupByUL(ULFill)
	tag2 := p.LookupByUL(ULPrimerPack)
	assert.Equal(t, uint16(0x0001), tag1)
	assert.Equal(t, uint16(0x0002), tag2)

	// Looking up the same UL again must not allocate a new tag.
	assert.Equal(t, tag1, p.LookupByUL(ULFill))
	assert.Equal(t, 2, p.Len())
}

func TestPrimerFromSeedSkipsReservedTags(t *testing.T) {
	seed := map[uint16]UL{0x0001: ULFill, 0x0002: ULPrimerPack}
	p := NewPrimerFromSeed(seed)
	tag := p.LookupByUL(ULIndexTableSegment)
	assert.Equal(t, uint16(0x0003), tag)
}

func TestPrimerEncodeDecodeRoundTrip(t *testing.T) {
	p := NewPrimer()
	p.LookupByUL(ULFill)
	p.LookupByUL(ULPrimerPack)
	p.LookupByUL(ULIndexTableSegment)

	encoded := p.EncodeValue()
	decoded, err := DecodePrimerValue(encoded)
	require.NoError(t, err)
	assert.Equal(t, p.Len(), decoded.Len())

	for _, ul := range []UL{ULFill, ULPrimerPack, ULIndexTableSegment} {
		tag := p.LookupByUL(ul)
		gotUL, ok := decoded.LookupByTag(tag)
		require.True(t, ok)
		assert.Equal(t, ul, gotUL)
	}
}

func TestPrimerResolveTag(t *testing.T) {
	p := NewPrimer()
	tag := p.LookupByUL(ULFill)
	ul, ok := p.ResolveTag([]byte{byte(tag >> 8), byte(tag)})
	require.True(t, ok)
	assert.Equal(t, ULFill, ul)

	_, ok = p.ResolveTag([]byte{0x00})
	assert.False(t, ok)
}

func TestDecodePrimerValueRejectsWrongElementSize(t *testing.T) {
	bad := make([]byte, 8)
	putU32(bad[0:4], 0)
	putU32(bad[4:8], 4)
	_, err := DecodePrimerValue(bad)
	assert.ErrorIs(t, err, ErrMalformedLength)
}
