// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

// PropertyKind classifies how a property's value is decoded, driven
// entirely by its PropertyDescriptor (spec.md §4.6).
type PropertyKind int

// Property kinds.
const (
	PropertyScalar PropertyKind = iota
	PropertyArray
	PropertyStrongRef
	PropertyWeakRef
	PropertyNestedSet
)

// PropertyDescriptor describes one property of a set: the UL its
// local tag resolves to, its local name, and how to decode its value.
type PropertyDescriptor struct {
	UL   UL
	Name string
	Kind PropertyKind

	// ScalarSize is the fixed encoded size in bytes of one scalar
	// value (ignored for array/strong-ref/weak-ref/nested-set kinds,
	// where size is self-describing or always 16 bytes for a UUID).
	ScalarSize int
}

// TypeDescriptor is a type registry entry for one metadata set type:
// its UL, name, and ordered property list.
type TypeDescriptor struct {
	UL         UL
	Name       string
	Properties []PropertyDescriptor
}

// PropertyByUL finds a property descriptor by its UL, ignoring the
// registry version byte the way item-UL comparisons generally do
// (spec.md §3).
func (t *TypeDescriptor) PropertyByUL(ul UL) (PropertyDescriptor, bool) {
	for _, p := range t.Properties {
		if ULEqualIgnoringVersion(p.UL, ul) {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// TypeRegistry is a read-only lookup by UL and by name, supplied
// externally (spec.md §1: "the type-dictionary loader ... is not
// specified ... treated as a client of the two core interfaces"). This
// package only depends on the interface; StaticRegistry below is a
// minimal concrete implementation so the library is usable without an
// external XML dictionary.
type TypeRegistry interface {
	LookupUL(ul UL) (*TypeDescriptor, bool)
	LookupName(name string) (*TypeDescriptor, bool)
}

// StaticRegistry is an in-memory TypeRegistry built from a fixed Go
// literal table, in the same spirit as the teacher's constant tables
// (pe.go's ImageDirectoryEntry/language tables) but populated from the
// MXF metadata dictionary instead of the PE ABI.
type StaticRegistry struct {
	byUL   map[UL]*TypeDescriptor
	byName map[string]*TypeDescriptor
}

// NewStaticRegistry builds a registry from descs. Later entries with a
// UL already present overwrite earlier ones.
func NewStaticRegistry(descs []*TypeDescriptor) *StaticRegistry {
	r := &StaticRegistry{
		byUL:   make(map[UL]*TypeDescriptor, len(descs)),
		byName: make(map[string]*TypeDescriptor, len(descs)),
	}
	for _, d := range descs {
		r.byUL[d.UL] = d
		r.byName[d.Name] = d
	}
	return r
}

// LookupUL implements TypeRegistry.
func (r *StaticRegistry) LookupUL(ul UL) (*TypeDescriptor, bool) {
	d, ok := r.byUL[ul]
	return d, ok
}

// LookupName implements TypeRegistry.
func (r *StaticRegistry) LookupName(name string) (*TypeDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// instanceUIDUL is the well-known UL for the InstanceUID property that
// every metadata object may carry (spec.md §4.6: "InstanceUID
// handling").
var instanceUIDUL = UL{0x06, 0x0e, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x01,
	0x01, 0x01, 0x15, 0x02, 0x00, 0x00, 0x00, 0x00}

// ul builds a 16-byte UL literal: SMPTE-377's registered 10-byte
// prefix 06.0e.2b.34.02.53.01.01.0d.01 followed by b9..b14 (b8 and b15
// are not used); used only to keep DefaultRegistry's table readable.
func ul(b8, b9, b10, b11, b12, b13, b14, b15 byte) UL {
	return UL{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x53, 0x01, 0x01,
		0x0d, 0x01, b9, b10, b11, b12, b13, b14}
}

// DefaultRegistry is a StaticRegistry seeded with the well-known
// SMPTE-377 sets this library needs to recognise structurally to
// parse its own round-trip tests: Preface, Identification,
// ContentStorage, SourcePackage, MaterialPackage, Track, Sequence,
// SourceClip and EssenceContainerData. It is not a substitute for a
// full external dictionary — callers parsing real-world files should
// supply their own TypeRegistry loaded from the complete MXF
// dictionary.
var DefaultRegistry = NewStaticRegistry([]*TypeDescriptor{
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x2f, 0x00, 0x00),
		Name: "Preface",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x02, 0x01, 0x06, 0x00, 0x00), Name: "ContentStorage", Kind: PropertyStrongRef},
			{UL: ul(0x01, 0x01, 0x01, 0x02, 0x30, 0x06, 0x00, 0x00), Name: "Identifications", Kind: PropertyArray, ScalarSize: 16},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x30, 0x00, 0x00),
		Name: "Identification",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x02, 0x07, 0x01, 0x01, 0x00), Name: "CompanyName", Kind: PropertyScalar, ScalarSize: 0},
			{UL: ul(0x01, 0x01, 0x01, 0x02, 0x07, 0x02, 0x01, 0x00), Name: "ModificationDate", Kind: PropertyScalar, ScalarSize: 8},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x18, 0x00, 0x00),
		Name: "ContentStorage",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x02, 0x18, 0x01, 0x00, 0x00), Name: "Packages", Kind: PropertyArray, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x02, 0x18, 0x02, 0x00, 0x00), Name: "EssenceContainerData", Kind: PropertyArray, ScalarSize: 16},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x36, 0x00, 0x00),
		Name: "SourcePackage",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x01, 0x44, 0x01, 0x00, 0x00), Name: "PackageUID", Kind: PropertyScalar, ScalarSize: 32},
			{UL: ul(0x01, 0x01, 0x01, 0x06, 0x02, 0x01, 0x00, 0x00), Name: "PackageTracks", Kind: PropertyArray, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x04, 0x1a, 0x01, 0x00, 0x00), Name: "Descriptor", Kind: PropertyStrongRef},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x37, 0x00, 0x00),
		Name: "MaterialPackage",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x01, 0x44, 0x01, 0x00, 0x00), Name: "PackageUID", Kind: PropertyScalar, ScalarSize: 32},
			{UL: ul(0x01, 0x01, 0x01, 0x06, 0x02, 0x01, 0x00, 0x00), Name: "PackageTracks", Kind: PropertyArray, ScalarSize: 16},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x3b, 0x00, 0x00),
		Name: "Track",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x04, 0x06, 0x01, 0x00, 0x00), Name: "Sequence", Kind: PropertyStrongRef},
			{UL: ul(0x01, 0x01, 0x01, 0x04, 0x06, 0x02, 0x00, 0x00), Name: "TrackID", Kind: PropertyScalar, ScalarSize: 4},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x0f, 0x00, 0x00),
		Name: "Sequence",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x06, 0x03, 0x01, 0x00, 0x00), Name: "StructuralComponents", Kind: PropertyArray, ScalarSize: 16},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x11, 0x00, 0x00),
		Name: "SourceClip",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x06, 0x01, 0x03, 0x00, 0x00), Name: "SourcePackageID", Kind: PropertyWeakRef},
		},
	},
	{
		UL:   ul(0x01, 0x01, 0x01, 0x01, 0x01, 0x23, 0x00, 0x00),
		Name: "EssenceContainerData",
		Properties: []PropertyDescriptor{
			{UL: instanceUIDUL, Name: "InstanceUID", Kind: PropertyScalar, ScalarSize: 16},
			{UL: ul(0x01, 0x01, 0x01, 0x06, 0x01, 0x01, 0x00, 0x00), Name: "LinkedPackageUID", Kind: PropertyWeakRef},
		},
	},
})
