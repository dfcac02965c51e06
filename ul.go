// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"bytes"
	"encoding/hex"
)

// UL is a 16-byte SMPTE Universal Label, the primary type identifier
// used throughout an MXF file: set keys, item keys, and the UL family
// used to recognise Fill, Partition Pack and Primer Pack items.
type UL [16]byte

// String renders a UL as dot-separated hex bytes, e.g.
// "06.0e.2b.34.02.53.01.01.0d.01.01.01.01.01.01.00".
func (u UL) String() string {
	var b bytes.Buffer
	for i, v := range u {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(hex.EncodeToString([]byte{v}))
	}
	return b.String()
}

// ULMask is a 16-byte bitmask: a 0 bit means "ignore this bit of the
// UL when comparing", used to implement the family-dependent
// effective equality spec.md §3 calls for (e.g. ignoring the registry
// version byte, byte 7, for many item ULs).
type ULMask [16]byte

// FullMask requires an exact, bytewise match.
var FullMask = ULMask{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// IgnoreVersionMask ignores byte 7 (the registry version byte in most
// SMPTE-377 item and set ULs), matching the "ignores byte 7" rule
// spec.md §3 names explicitly.
var IgnoreVersionMask = ULMask{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// ULEqual is the single canonical UL comparator every key comparison
// in this package goes through (design note §9: "define a single
// canonical ul_equal(a, b, family) and audit every call site"). There
// is no default mask: the zero value of ULMask is all-zero and would
// accept everything, so callers must pass a mask explicitly (FullMask
// for an exact match);
// helpers below cover the two masks this registry defines.
func ULEqual(a, b UL, mask ULMask) bool {
	for i := range a {
		if (a[i] & mask[i]) != (b[i] & mask[i]) {
			return false
		}
	}
	return true
}

// ULEqualExact compares two ULs bytewise, ignoring nothing.
func ULEqualExact(a, b UL) bool { return a == b }

// ULEqualIgnoringVersion compares two ULs ignoring byte 7, the
// convention most SMPTE-377 item-UL families use for the registry
// version byte.
func ULEqualIgnoringVersion(a, b UL) bool {
	return ULEqual(a, b, IgnoreVersionMask)
}

// UUID is a 16-byte identity used for inter-object reference
// (InstanceUID, strong/weak reference targets). Unlike UL, UUID
// equality is always plain bytewise comparison — it identifies one
// object instance, not a versioned type.
type UUID [16]byte

// IsZero reports whether u is the all-zero UUID, used as "no
// reference" / "not yet assigned an InstanceUID".
func (u UUID) IsZero() bool { return u == UUID{} }

func (u UUID) String() string {
	var b bytes.Buffer
	b.WriteString(hex.EncodeToString(u[0:4]))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(u[4:6]))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(u[6:8]))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(u[8:10]))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(u[10:16]))
	return b.String()
}

// Well-known UL families this package must recognise structurally in
// order to tell a Fill item, a Partition Pack, a Primer Pack, an Index
// Table Segment and an opaque essence element apart from one another.
// These follow the registered SMPTE-377 prefixes; the bytes that vary
// by partition-pack kind and status are masked out by
// FamilyPartitionPackMask below rather than enumerated. Fill, Primer
// Pack and Index Table Segment keys are matched exactly.
var (
	// ULFill is the KLV-Fill item key (SMPTE 336 Fill item).
	ULFill = UL{0x06, 0x0e, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x01,
		0x03, 0x01, 0x02, 0x10, 0x01, 0x00, 0x00, 0x00}

	// ULPrimerPack is the Primer Pack set key.
	ULPrimerPack = UL{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01,
		0x0d, 0x01, 0x02, 0x01, 0x01, 0x05, 0x01, 0x00}

	// ULPartitionPackPrefix is shared by all partition pack variants
	// (header/body/footer, open/closed, complete/incomplete); the kind
	// lives in byte 13 and the status in byte 14, both masked out by
	// FamilyPartitionPackMask below.
	ULPartitionPackPrefix = UL{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01,
		0x0d, 0x01, 0x02, 0x01, 0x01, 0x02, 0x01, 0x00}

	// ULIndexTableSegment is the Index Table Segment set key.
	ULIndexTableSegment = UL{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x53, 0x01, 0x01,
		0x0d, 0x01, 0x02, 0x01, 0x01, 0x10, 0x01, 0x00}
)

// FamilyPartitionPackMask ignores the kind byte (13) and the status
// byte (14): header/body/footer and
// open|closed/incomplete|complete variants all belong to one family
// for the purposes of "is this KLV a partition pack".
var FamilyPartitionPackMask = ULMask{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0xff,
}

// IsPartitionPack reports whether key belongs to the Partition Pack UL
// family, regardless of open/closed/complete/incomplete variant.
func IsPartitionPack(key UL) bool {
	return ULEqual(key, ULPartitionPackPrefix, FamilyPartitionPackMask)
}

// IsFill reports whether key is the KLV-Fill item UL.
func IsFill(key UL) bool { return ULEqualExact(key, ULFill) }

// IsPrimerPack reports whether key is the Primer Pack set UL.
func IsPrimerPack(key UL) bool { return ULEqualExact(key, ULPrimerPack) }

// IsIndexTableSegment reports whether key is the Index Table Segment
// set UL.
func IsIndexTableSegment(key UL) bool {
	return ULEqualExact(key, ULIndexTableSegment)
}

// ULMetadataSetPrefix is the shared prefix of every structural
// metadata set key (SMPTE-377 class 0x0253, registry 0x0d01), the UL
// family spec.md §4.7 calls ReadMetadata to recognise: "until ... the
// next KLV is not a header-metadata set (identified by UL family)".
// This family also covers the Index Table Segment key, so callers
// that need to tell the two apart (ReadMetadata does) must check
// IsIndexTableSegment first.
var ULMetadataSetPrefix = UL{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x53, 0x01, 0x01,
	0x0d, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// FamilyMetadataSetMask matches only the first 10 bytes of
// ULMetadataSetPrefix; the remaining bytes vary per set type.
var FamilyMetadataSetMask = ULMask{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// IsMetadataSetFamily reports whether key belongs to the structural
// metadata set family (this includes the Index Table Segment key;
// check IsIndexTableSegment first if that distinction matters).
func IsMetadataSetFamily(key UL) bool {
	return ULEqual(key, ULMetadataSetPrefix, FamilyMetadataSetMask)
}
