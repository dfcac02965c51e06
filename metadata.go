// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "encoding/binary"

// Property is one child of a MDObject: a scalar value, an array of
// scalars, a nested local set, or a strong/weak reference (spec.md
// §3). Exactly one of the value fields below is meaningful, selected
// by Descriptor.Kind (or by Unknown, for a property whose tag had no
// primer mapping).
type Property struct {
	Descriptor PropertyDescriptor

	Scalar []byte   // PropertyScalar
	Array  [][]byte // PropertyArray, one element per entry

	StrongUUID UUID      // PropertyStrongRef target
	Strong     *MDObject // resolved once the target has been parsed

	WeakUUID UUID      // PropertyWeakRef target
	Weak     *MDObject // resolved once the target has been parsed

	// ArrayTargets parallels Array for a reference-batch property
	// (isReferenceArray): ArrayTargets[i] is resolved once the object
	// identified by Array[i]'s UUID has been parsed.
	ArrayTargets []*MDObject

	Nested *MDObject // PropertyNestedSet

	// Unknown is set when the property's local tag had no primer
	// mapping (ErrUnknownTag, treated as UnknownUL on this property
	// per spec.md §7); RawTag/RawValue preserve the bytes verbatim.
	Unknown  bool
	RawTag   []byte
	RawValue []byte
}

// MDObject is one typed node in the metadata graph (spec.md §3): a
// type descriptor, a UL, an optional InstanceUID, and an ordered list
// of child properties. Strong references form the ownership forest;
// weak references may add arbitrary additional, possibly cyclic,
// edges.
type MDObject struct {
	Type           *TypeDescriptor
	UL             UL
	InstanceUID    UUID
	HasInstanceUID bool
	Properties     []*Property

	// Unknown is set when UL had no registry entry (ErrUnknownUL): the
	// object is preserved as an opaque KLV item, RawValue holding the
	// set's raw bytes, with no inner parse attempted.
	Unknown  bool
	RawValue []byte
}

// PropertyByName finds a property by its descriptor name.
func (o *MDObject) PropertyByName(name string) (*Property, bool) {
	for _, p := range o.Properties {
		if p.Descriptor.Name == name {
			return p, true
		}
	}
	return nil, false
}

// localSetHeaderSize is the size of one inner-item header within a
// local set's value: a 2-byte primer tag followed by a 2-byte
// big-endian length (spec.md §6: "fixed-width within local sets
// (2-byte BE)").
const localSetHeaderSize = 4

// ParseSet decodes one header-metadata set's KLV value into a MDObject
// and registers its references with resolver. setUL is the outer KLV
// key; value is the set's value bytes (the sequence of inner 2-byte-
// tag/2-byte-length items, spec.md §4.6).
func ParseSet(setUL UL, value []byte, primer *Primer, registry TypeRegistry, resolver *Resolver, sink *Sink) (*MDObject, error) {
	desc, ok := registry.LookupUL(setUL)
	if !ok {
		sink.Warnf(AnoUnknownUL+": %s", setUL)
		return &MDObject{UL: setUL, Unknown: true, RawValue: append([]byte(nil), value...)}, nil
	}

	obj := &MDObject{Type: desc, UL: setUL}

	off := 0
	for off+localSetHeaderSize <= len(value) {
		tag := uint16(value[off])<<8 | uint16(value[off+1])
		length := int(binary.BigEndian.Uint16(value[off+2 : off+4]))
		off += localSetHeaderSize
		if off+length > len(value) {
			return nil, ErrTruncatedValue
		}
		raw := value[off : off+length]
		off += length

		ul, ok := primer.LookupByTag(tag)
		if !ok {
			sink.Warnf(AnoUnknownTag+": tag 0x%04x", tag)
			obj.Properties = append(obj.Properties, &Property{
				Unknown:  true,
				RawTag:   []byte{byte(tag >> 8), byte(tag)},
				RawValue: append([]byte(nil), raw...),
			})
			continue
		}

		prop, err := decodeProperty(desc, ul, raw, registry, sink)
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, prop)

		if ULEqualIgnoringVersion(ul, instanceUIDUL) {
			var id UUID
			copy(id[:], raw)
			obj.InstanceUID = id
			obj.HasInstanceUID = true
			resolver.RegisterInstance(id, obj)
		}

		switch prop.Kind() {
		case PropertyStrongRef:
			resolver.RegisterReference(prop.StrongUUID, obj, prop)
		case PropertyWeakRef:
			resolver.RegisterReference(prop.WeakUUID, obj, prop)
		case PropertyArray:
			if isReferenceArray(prop.Descriptor) {
				prop.ArrayTargets = make([]*MDObject, len(prop.Array))
				for i := range prop.Array {
					resolver.RegisterArrayReference(prop, i, obj)
				}
			}
		}
	}

	return obj, nil
}

// isReferenceArray reports whether an array property holds a batch of
// UUID references (strong or weak) rather than scalar elements; the
// registry distinguishes these by ScalarSize == 16 combined with the
// descriptor living under a *ReferenceArray name convention. This
// library treats any 16-byte-element array whose descriptor kind is
// PropertyArray and whose name matches a known reference-batch
// property (Packages, Identifications, PackageTracks,
// StructuralComponents, EssenceContainerData) as such.
func isReferenceArray(d PropertyDescriptor) bool {
	switch d.Name {
	case "Packages", "Identifications", "PackageTracks", "StructuralComponents", "EssenceContainerData":
		return d.ScalarSize == 16
	}
	return false
}

// Kind returns the property's descriptor kind, or PropertyScalar
// (treated as opaque) for an Unknown property.
func (p *Property) Kind() PropertyKind { return p.Descriptor.Kind }

func decodeProperty(owner *TypeDescriptor, propUL UL, raw []byte, registry TypeRegistry, sink *Sink) (*Property, error) {
	desc, ok := owner.PropertyByUL(propUL)
	if !ok {
		return &Property{
			Unknown:  true,
			RawTag:   nil,
			RawValue: append([]byte(nil), raw...),
		}, nil
	}

	p := &Property{Descriptor: desc}
	switch desc.Kind {
	case PropertyScalar:
		p.Scalar = append([]byte(nil), raw...)
	case PropertyArray:
		elems, err := decodeBatch(raw)
		if err != nil {
			return nil, err
		}
		p.Array = elems
	case PropertyStrongRef:
		if len(raw) != 16 {
			return nil, ErrTruncatedValue
		}
		copy(p.StrongUUID[:], raw)
	case PropertyWeakRef:
		if len(raw) != 16 {
			return nil, ErrTruncatedValue
		}
		copy(p.WeakUUID[:], raw)
	case PropertyNestedSet:
		nested, err := ParseSet(desc.UL, raw, NewPrimer(), registry, NewResolver(), sink)
		if err != nil {
			return nil, err
		}
		p.Nested = nested
	}
	return p, nil
}

// decodeBatch decodes a batch/array value: two 4-byte big-endian
// headers (count, element size) followed by count elements (spec.md
// §4.6).
func decodeBatch(raw []byte) ([][]byte, error) {
	if len(raw) < 8 {
		return nil, ErrTruncatedValue
	}
	count := getU32(raw[0:4])
	elemSize := getU32(raw[4:8])
	need := 8 + uint64(count)*uint64(elemSize)
	if need > uint64(len(raw)) {
		return nil, ErrTruncatedValue
	}
	out := make([][]byte, 0, count)
	off := 8
	for i := uint32(0); i < count; i++ {
		out = append(out, raw[off:off+int(elemSize)])
		off += int(elemSize)
	}
	return out, nil
}

// EncodeValue serialises obj's properties into a set value, in
// type-descriptor order, using tags assigned (or reused) from primer
// (spec.md §4.6: "Each object serialises its properties in
// type-descriptor order"). Strong-ref properties encode only the
// child's InstanceUID here; the caller (Partition.WriteTo) is
// responsible for queuing the child object itself for later
// emission.
func (o *MDObject) EncodeValue(primer *Primer) []byte {
	if o.Unknown {
		return append([]byte(nil), o.RawValue...)
	}
	props := o.Properties
	if o.Type != nil {
		props = make([]*Property, 0, len(o.Properties))
		for _, d := range o.Type.Properties {
			for _, p := range o.Properties {
				if ULEqualIgnoringVersion(p.Descriptor.UL, d.UL) {
					props = append(props, p)
				}
			}
		}
		for _, p := range o.Properties {
			if _, known := o.Type.PropertyByUL(p.Descriptor.UL); !known {
				props = append(props, p)
			}
		}
	}
	var out []byte
	for _, p := range props {
		var raw []byte
		var ul UL
		if p.Unknown {
			// Unknown properties have no resolvable UL; they are
			// dropped on write rather than re-emitted under a
			// fabricated tag, since that tag cannot be trusted to
			// still be free across a resynthesised primer.
			continue
		}
		ul = p.Descriptor.UL
		switch p.Descriptor.Kind {
		case PropertyScalar:
			raw = p.Scalar
		case PropertyArray:
			raw = encodeBatch(p.Array)
		case PropertyStrongRef:
			raw = p.StrongUUID[:]
		case PropertyWeakRef:
			raw = p.WeakUUID[:]
		case PropertyNestedSet:
			if p.Nested != nil {
				raw = p.Nested.EncodeValue(primer)
			}
		}
		tag := primer.LookupByUL(ul)
		hdr := make([]byte, localSetHeaderSize)
		hdr[0] = byte(tag >> 8)
		hdr[1] = byte(tag)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(raw)))
		out = append(out, hdr...)
		out = append(out, raw...)
	}
	return out
}

func encodeBatch(elems [][]byte) []byte {
	elemSize := 0
	if len(elems) > 0 {
		elemSize = len(elems[0])
	}
	out := make([]byte, 8, 8+len(elems)*elemSize)
	putU32(out[0:4], uint32(len(elems)))
	putU32(out[4:8], uint32(elemSize))
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}
