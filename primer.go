// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "sort"

// firstAllocatableTag is where deterministic tag allocation starts,
// per spec.md §4.5.
const firstAllocatableTag uint16 = 0x0001

// Primer is the bidirectional map between 2-byte local tags and full
// ULs, scoped to one partition (spec.md §3, §4.5). It is itself
// serialised as a KLV set and always precedes any other header
// metadata in its partition.
type Primer struct {
	tagToUL map[uint16]UL
	ulToTag map[UL]uint16
	next    uint16
}

// NewPrimer returns an empty primer, tag allocation starting at
// 0x0001.
func NewPrimer() *Primer {
	return &Primer{
		tagToUL: make(map[uint16]UL),
		ulToTag: make(map[UL]uint16),
		next:    firstAllocatableTag,
	}
}

// NewPrimerFromSeed seeds a primer with a pre-existing bijective
// tag->UL map (e.g. the standard baseline primer some profiles fix in
// advance); subsequent allocation skips every tag already used by it.
func NewPrimerFromSeed(seed map[uint16]UL) *Primer {
	p := NewPrimer()
	for tag, ul := range seed {
		p.tagToUL[tag] = ul
		p.ulToTag[ul] = tag
	}
	p.advancePastSeed()
	return p
}

func (p *Primer) advancePastSeed() {
	for {
		if _, used := p.tagToUL[p.next]; !used {
			return
		}
		p.next++
	}
}

// LookupByTag returns the UL assigned to tag, if any.
func (p *Primer) LookupByTag(tag uint16) (UL, bool) {
	ul, ok := p.tagToUL[tag]
	return ul, ok
}

// ResolveTag implements PrimerResolver for KLVObject.ReadKL: tag is
// the raw 2-byte big-endian encoded local tag.
func (p *Primer) ResolveTag(tag []byte) (UL, bool) {
	if len(tag) != 2 {
		return UL{}, false
	}
	return p.LookupByTag(uint16(tag[0])<<8 | uint16(tag[1]))
}

// LookupByUL returns the tag assigned to ul, allocating a fresh one
// deterministically (monotonically increasing from 0x0001, skipping
// seed tags) if ul has not been seen by this primer before. This is
// the write-time half of spec.md §4.5: "creates and assigns a fresh
// 2-byte tag on write when the UL is new".
func (p *Primer) LookupByUL(ul UL) uint16 {
	if tag, ok := p.ulToTag[ul]; ok {
		return tag
	}
	for {
		if _, used := p.tagToUL[p.next]; !used {
			break
		}
		p.next++
	}
	tag := p.next
	p.next++
	p.tagToUL[tag] = ul
	p.ulToTag[ul] = tag
	return tag
}

// Len returns the number of tag<->UL entries.
func (p *Primer) Len() int { return len(p.tagToUL) }

// sortedTags returns this primer's tags in ascending order.
func (p *Primer) sortedTags() []uint16 {
	tags := make([]uint16, 0, len(p.tagToUL))
	for t := range p.tagToUL {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// primerRecordSize is the size in bytes of one (tag, UL) record: a
// 2-byte tag followed by a 16-byte UL, per the scenario in spec.md §8
// ("18-byte records").
const primerRecordSize = 2 + 16

// EncodeValue serialises the primer's entries, sorted by tag, as the
// value of a Primer Pack KLV set: a big-endian 4-byte count, a
// big-endian 4-byte element size, then count records of
// [tag(2) || ul(16)] in tag order (spec.md §8, scenario 2).
func (p *Primer) EncodeValue() []byte {
	tags := p.sortedTags()
	out := make([]byte, 8+len(tags)*primerRecordSize)
	putU32(out[0:4], uint32(len(tags)))
	putU32(out[4:8], primerRecordSize)
	off := 8
	for _, t := range tags {
		out[off] = byte(t >> 8)
		out[off+1] = byte(t)
		ul := p.tagToUL[t]
		copy(out[off+2:off+2+16], ul[:])
		off += primerRecordSize
	}
	return out
}

// DecodePrimerValue parses a Primer Pack KLV value back into a Primer.
func DecodePrimerValue(value []byte) (*Primer, error) {
	if len(value) < 8 {
		return nil, ErrTruncatedValue
	}
	count := getU32(value[0:4])
	elemSize := getU32(value[4:8])
	if elemSize != primerRecordSize {
		return nil, ErrMalformedLength
	}
	p := NewPrimer()
	p.next = firstAllocatableTag
	off := 8
	for i := uint32(0); i < count; i++ {
		if off+primerRecordSize > len(value) {
			return nil, ErrTruncatedValue
		}
		tag := uint16(value[off])<<8 | uint16(value[off+1])
		var ul UL
		copy(ul[:], value[off+2:off+2+16])
		p.tagToUL[tag] = ul
		p.ulToTag[ul] = tag
		off += primerRecordSize
	}
	p.advancePastSeed()
	return p, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
