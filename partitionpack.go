// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "encoding/binary"

// OperationalPattern is the 16-byte UL a partition pack carries
// identifying the file's operational pattern (SMPTE 378).
type OperationalPattern = UL

// partitionPackFixedSize is the size of a partition pack value up to,
// but not including, the trailing EssenceContainers batch: two
// version uint16s, KAGSize, three 8-byte partition offsets, two
// 8-byte byte counts, IndexSID, BodyOffset, BodySID, and a 16-byte
// OperationalPattern.
const partitionPackFixedSize = 2 + 2 + 4 + 8 + 8 + 8 + 8 + 8 + 4 + 8 + 4 + 16

// partitionKindAndStatus derives (Kind, closed, complete) from byte 13
// (partition position: header=0x02, body=0x03, footer=0x04)
// and byte 14 (status nibble) of a Partition Pack key, per SMPTE-377's
// convention of encoding both in the key itself rather than the
// value.
func partitionKindAndStatus(key UL) (kind PartitionKind, closed, complete bool) {
	switch key[13] {
	case 0x02:
		kind = PartitionHeader
	case 0x03:
		kind = PartitionBody
	case 0x04:
		kind = PartitionFooter
	default:
		kind = PartitionBody
	}
	switch key[14] {
	case 0x01: // open, incomplete
		closed, complete = false, false
	case 0x02: // closed, incomplete
		closed, complete = true, false
	case 0x03: // open, complete
		closed, complete = false, true
	case 0x04: // closed, complete
		closed, complete = true, true
	}
	return
}

// partitionKeyByte returns the (position, status) key bytes 13 and 14
// for kind/closed/complete, the inverse of partitionKindAndStatus.
func partitionKeyByte(kind PartitionKind, closed, complete bool) (pos, status byte) {
	switch kind {
	case PartitionHeader:
		pos = 0x02
	case PartitionBody:
		pos = 0x03
	case PartitionFooter:
		pos = 0x04
	}
	switch {
	case !closed && !complete:
		status = 0x01
	case closed && !complete:
		status = 0x02
	case !closed && complete:
		status = 0x03
	case closed && complete:
		status = 0x04
	}
	return
}

// KeyFor returns the 16-byte Partition Pack key for this pack's
// current Kind/closed/complete state.
func (p *PartitionPack) KeyFor() UL {
	key := ULPartitionPackPrefix
	pos, status := partitionKeyByte(p.Kind, p.closed, p.complete)
	key[13] = pos
	key[14] = status
	return key
}

// DecodePartitionPack parses a Partition Pack KLV's key and value into
// a PartitionPack. Unlike header metadata sets, a partition pack's
// value is a flat sequence of fixed-position fields, not a
// primer-tagged local set (SMPTE-377 §6).
func DecodePartitionPack(key UL, value []byte) (*PartitionPack, error) {
	if len(value) < partitionPackFixedSize {
		return nil, ErrTruncatedValue
	}
	kind, closed, complete := partitionKindAndStatus(key)
	pp := &PartitionPack{Kind: kind, closed: closed, complete: complete}

	off := 4 // skip MajorVersion, MinorVersion
	pp.KAGSize = binary.BigEndian.Uint32(value[off:])
	off += 4
	pp.ThisPartition = Position(binary.BigEndian.Uint64(value[off:]))
	off += 8
	pp.PreviousPartition = Position(binary.BigEndian.Uint64(value[off:]))
	off += 8
	pp.FooterPartition = Position(binary.BigEndian.Uint64(value[off:]))
	off += 8
	off += 8 // HeaderByteCount, not separately tracked
	off += 8 // IndexByteCount, not separately tracked
	pp.IndexSID = binary.BigEndian.Uint32(value[off:])
	off += 4
	off += 8 // BodyOffset, not separately tracked
	pp.BodySID = binary.BigEndian.Uint32(value[off:])
	off += 4
	off += 16 // OperationalPattern, not separately tracked

	rest := value[off:]
	if len(rest) >= 8 {
		count := getU32(rest[0:4])
		elemSize := getU32(rest[4:8])
		roff := 8
		for i := uint32(0); i < count && roff+int(elemSize) <= len(rest); i++ {
			var ul UL
			copy(ul[:], rest[roff:roff+int(elemSize)])
			pp.EssenceContainers = append(pp.EssenceContainers, ul)
			roff += int(elemSize)
		}
	}
	return pp, nil
}

// EncodeValue serialises pp's fixed fields and EssenceContainers batch
// back into a Partition Pack KLV value. HeaderByteCount, IndexByteCount
// and BodyOffset are not modelled by PartitionPack and are always
// written as zero; a writer that needs exact values recomputes them
// from the bytes it actually emits.
func (pp *PartitionPack) EncodeValue() []byte {
	out := make([]byte, partitionPackFixedSize)
	binary.BigEndian.PutUint16(out[0:2], 1) // MajorVersion
	binary.BigEndian.PutUint16(out[2:4], 2) // MinorVersion
	off := 4
	binary.BigEndian.PutUint32(out[off:], pp.KAGSize)
	off += 4
	binary.BigEndian.PutUint64(out[off:], uint64(pp.ThisPartition))
	off += 8
	binary.BigEndian.PutUint64(out[off:], uint64(pp.PreviousPartition))
	off += 8
	binary.BigEndian.PutUint64(out[off:], uint64(pp.FooterPartition))
	off += 8
	off += 8 // HeaderByteCount
	off += 8 // IndexByteCount
	binary.BigEndian.PutUint32(out[off:], pp.IndexSID)
	off += 4
	off += 8 // BodyOffset
	binary.BigEndian.PutUint32(out[off:], pp.BodySID)
	off += 4
	off += 16 // OperationalPattern (left zero; caller may patch)

	batch := make([]byte, 8, 8+len(pp.EssenceContainers)*16)
	putU32(batch[0:4], uint32(len(pp.EssenceContainers)))
	putU32(batch[4:8], 16)
	for _, ul := range pp.EssenceContainers {
		batch = append(batch, ul[:]...)
	}
	return append(out, batch...)
}
