// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackDescriptor(t *testing.T) *TypeDescriptor {
	t.Helper()
	desc, ok := DefaultRegistry.LookupName("Track")
	require.True(t, ok)
	return desc
}

func TestParseSetRoundTrip(t *testing.T) {
	desc := trackDescriptor(t)
	primer := NewPrimer()
	resolver := NewResolver()
	sink := DefaultSink()

	instanceUID := uuidFromByte(0x11)
	trackIDRaw := make([]byte, 4)
	binary.BigEndian.PutUint32(trackIDRaw, 7)

	obj := &MDObject{
		Type:           desc,
		UL:             desc.UL,
		InstanceUID:    instanceUID,
		HasInstanceUID: true,
		Properties: []*Property{
			{Descriptor: mustProperty(t, desc, "InstanceUID"), Scalar: instanceUID[:]},
			{Descriptor: mustProperty(t, desc, "TrackID"), Scalar: trackIDRaw},
		},
	}

	value := obj.EncodeValue(primer)
	decoded, err := ParseSet(desc.UL, value, primer, DefaultRegistry, resolver, sink)
	require.NoError(t, err)

	assert.Equal(t, instanceUID, decoded.InstanceUID)
	assert.True(t, decoded.HasInstanceUID)

	prop, ok := decoded.PropertyByName("TrackID")
	require.True(t, ok)
	assert.Equal(t, uint32(7), binary.BigEndian.Uint32(prop.Scalar))
}

func mustProperty(t *testing.T, desc *TypeDescriptor, name string) PropertyDescriptor {
	t.Helper()
	for _, p := range desc.Properties {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no property %q on %s", name, desc.Name)
	return PropertyDescriptor{}
}

func TestParseSetUnknownUL(t *testing.T) {
	var unknownUL UL
	unknownUL[0] = 0xff
	sink := DefaultSink()
	obj, err := ParseSet(unknownUL, []byte{0x01, 0x02}, NewPrimer(), DefaultRegistry, NewResolver(), sink)
	require.NoError(t, err)
	assert.True(t, obj.Unknown)
	assert.Equal(t, []byte{0x01, 0x02}, obj.RawValue)
}

func TestParseSetUnknownTagPreserved(t *testing.T) {
	desc := trackDescriptor(t)
	primer := NewPrimer()
	// A tag the primer has never allocated.
	unknownTag := uint16(0x7fff)

	value := make([]byte, localSetHeaderSize+2)
	value[0] = byte(unknownTag >> 8)
	value[1] = byte(unknownTag)
	binary.BigEndian.PutUint16(value[2:4], 2)
	value[4], value[5] = 0xaa, 0xbb

	obj, err := ParseSet(desc.UL, value, primer, DefaultRegistry, NewResolver(), DefaultSink())
	require.NoError(t, err)
	require.Len(t, obj.Properties, 1)
	assert.True(t, obj.Properties[0].Unknown)
	assert.Equal(t, []byte{0xaa, 0xbb}, obj.Properties[0].RawValue)
}

func TestIsReferenceArray(t *testing.T) {
	seqDesc, ok := DefaultRegistry.LookupName("Sequence")
	require.True(t, ok)
	prop := mustProperty(t, seqDesc, "StructuralComponents")
	assert.True(t, isReferenceArray(prop))
}

func TestUTF16PropertyRoundTrip(t *testing.T) {
	encoded, err := EncodeUTF16String("Saferwall")
	require.NoError(t, err)
	prop := &Property{Scalar: encoded}
	text, err := prop.Text()
	require.NoError(t, err)
	assert.Equal(t, "Saferwall", text)
}

func TestTimestampPropertyRoundTrip(t *testing.T) {
	ts := Timestamp{Year: 2026, Month: 7, Day: 31, Hour: 10, Minute: 15, Second: 0, QFrame: 1}
	prop := &Property{Scalar: ts.EncodeValue()}
	got, err := prop.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, ts, got)
}
