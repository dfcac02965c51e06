// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "encoding/binary"

// IndexEntry is one edit-unit's worth of the index: temporal
// reordering offset, key-frame offset, coding flags, and its byte
// offset within the essence container (spec.md §4.8).
type IndexEntry struct {
	TemporalOffset  int8
	KeyFrameOffset  int8
	Flags           uint8
	StreamOffset    uint64
}

const indexEntrySize = 1 + 1 + 1 + 8

// EditRate is a rational edit rate (numerator/denominator), e.g.
// 25/1 for PAL or 30000/1001 for NTSC.
type EditRate struct {
	Numerator   int32
	Denominator int32
}

// IndexTableSegment is one KLV-encoded index segment (spec.md §4.8):
// edit-rate, index-start-position, duration, and either a fixed
// edit-unit byte count or (when 0) a variable-size stream whose
// per-edit-unit offsets live in Entries.
type IndexTableSegment struct {
	InstanceUID       UUID
	IndexEditRate     EditRate
	IndexStartPosition int64
	IndexDuration     int64
	EditUnitByteCount uint32 // 0 means variable-size (delta table)
	IndexSID          uint32
	BodySID           uint32
	Entries           []IndexEntry
}

// Well-known local tags for Index Table Segment properties. Real
// SMPTE-377 dictionaries assign these via the same primer mechanism
// header metadata sets use; this library fixes them as constants
// since index segments are a closed, specified set of properties
// rather than an open, registry-driven type.
const (
	tagIndexInstanceUID       uint16 = 0x3c0a
	tagIndexEditRate          uint16 = 0x3f0b
	tagIndexStartPosition     uint16 = 0x3f0c
	tagIndexDuration          uint16 = 0x3f0d
	tagIndexEditUnitByteCount uint16 = 0x3f05
	tagIndexSID               uint16 = 0x3f06
	tagBodySID                uint16 = 0x3f07
	tagIndexEntryArray        uint16 = 0x3f0a
)

// DecodeIndexTableSegment parses one Index Table Segment set value
// (the same 2-byte-tag/2-byte-length local-set framing header
// metadata sets use, spec.md §4.6) into an IndexTableSegment.
func DecodeIndexTableSegment(value []byte) (*IndexTableSegment, error) {
	seg := &IndexTableSegment{}
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

		switch tag {
		case tagIndexInstanceUID:
			if len(raw) == 16 {
				copy(seg.InstanceUID[:], raw)
			}
		case tagIndexEditRate:
			if len(raw) == 8 {
				seg.IndexEditRate.Numerator = int32(binary.BigEndian.Uint32(raw[0:4]))
				seg.IndexEditRate.Denominator = int32(binary.BigEndian.Uint32(raw[4:8]))
			}
		case tagIndexStartPosition:
			if len(raw) == 8 {
				seg.IndexStartPosition = int64(binary.BigEndian.Uint64(raw))
			}
		case tagIndexDuration:
			if len(raw) == 8 {
				seg.IndexDuration = int64(binary.BigEndian.Uint64(raw))
			}
		case tagIndexEditUnitByteCount:
			if len(raw) == 4 {
				seg.EditUnitByteCount = binary.BigEndian.Uint32(raw)
			}
		case tagIndexSID:
			if len(raw) == 4 {
				seg.IndexSID = binary.BigEndian.Uint32(raw)
			}
		case tagBodySID:
			if len(raw) == 4 {
				seg.BodySID = binary.BigEndian.Uint32(raw)
			}
		case tagIndexEntryArray:
			entries, err := decodeIndexEntries(raw)
			if err != nil {
				return nil, err
			}
			seg.Entries = entries
		}
	}
	return seg, nil
}

func decodeIndexEntries(raw []byte) ([]IndexEntry, error) {
	if len(raw) < 8 {
		return nil, ErrTruncatedValue
	}
	count := getU32(raw[0:4])
	elemSize := getU32(raw[4:8])
	if elemSize < indexEntrySize {
		return nil, ErrMalformedLength
	}
	need := 8 + uint64(count)*uint64(elemSize)
	if need > uint64(len(raw)) {
		return nil, ErrTruncatedValue
	}
	out := make([]IndexEntry, 0, count)
	off := 8
	for i := uint32(0); i < count; i++ {
		e := raw[off : off+int(elemSize)]
		out = append(out, IndexEntry{
			TemporalOffset: int8(e[0]),
			KeyFrameOffset: int8(e[1]),
			Flags:          e[2],
			StreamOffset:   binary.BigEndian.Uint64(e[3:11]),
		})
		off += int(elemSize)
	}
	return out, nil
}

// EncodeValue serialises seg back into an Index Table Segment set
// value.
func (seg *IndexTableSegment) EncodeValue() []byte {
	var out []byte
	writeItem := func(tag uint16, raw []byte) {
		hdr := make([]byte, localSetHeaderSize)
		hdr[0], hdr[1] = byte(tag>>8), byte(tag)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(raw)))
		out = append(out, hdr...)
		out = append(out, raw...)
	}

	writeItem(tagIndexInstanceUID, seg.InstanceUID[:])

	er := make([]byte, 8)
	binary.BigEndian.PutUint32(er[0:4], uint32(seg.IndexEditRate.Numerator))
	binary.BigEndian.PutUint32(er[4:8], uint32(seg.IndexEditRate.Denominator))
	writeItem(tagIndexEditRate, er)

	isp := make([]byte, 8)
	binary.BigEndian.PutUint64(isp, uint64(seg.IndexStartPosition))
	writeItem(tagIndexStartPosition, isp)

	dur := make([]byte, 8)
	binary.BigEndian.PutUint64(dur, uint64(seg.IndexDuration))
	writeItem(tagIndexDuration, dur)

	eubc := make([]byte, 4)
	binary.BigEndian.PutUint32(eubc, seg.EditUnitByteCount)
	writeItem(tagIndexEditUnitByteCount, eubc)

	sid := make([]byte, 4)
	binary.BigEndian.PutUint32(sid, seg.IndexSID)
	writeItem(tagIndexSID, sid)

	bsid := make([]byte, 4)
	binary.BigEndian.PutUint32(bsid, seg.BodySID)
	writeItem(tagBodySID, bsid)

	entries := make([]byte, 8, 8+len(seg.Entries)*indexEntrySize)
	putU32(entries[0:4], uint32(len(seg.Entries)))
	putU32(entries[4:8], indexEntrySize)
	for _, e := range seg.Entries {
		rec := make([]byte, indexEntrySize)
		rec[0] = byte(e.TemporalOffset)
		rec[1] = byte(e.KeyFrameOffset)
		rec[2] = e.Flags
		binary.BigEndian.PutUint64(rec[3:11], e.StreamOffset)
		entries = append(entries, rec...)
	}
	writeItem(tagIndexEntryArray, entries)

	return out
}

// Validate checks the invariant spec.md §4.8 requires of a single
// segment: stream-offsets are non-decreasing across Entries.
// Cross-segment gap/overlap checking against sibling segments of the
// same essence stream is the caller's responsibility (it needs the
// whole set of segments for a BodySID, which a single segment does
// not have).
func (seg *IndexTableSegment) Validate() error {
	for i := 1; i < len(seg.Entries); i++ {
		if seg.Entries[i].StreamOffset < seg.Entries[i-1].StreamOffset {
			return ErrMalformedLength
		}
	}
	return nil
}
