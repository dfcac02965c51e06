// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

// FillPlanner computes the KLV-Fill pad needed to align the next KLV
// to a partition's KAG (spec.md §6: "every KLV item in that
// partition's essence and metadata regions must start at a file
// offset ≡ 0 (mod k) relative to the partition start"). Fill items
// always use a 16-byte UL key and a long-form BER length padded to a
// fixed width (fillLenFieldWidth), so every Fill KLV this package
// writes is exactly minFillKL+pad bytes regardless of how large pad
// is — spec.md §4.1 explicitly allows padding a BER length with
// leading zero bytes, so the width never needs to grow with the value
// it's encoding the way a minimal-width encoding would.
type FillPlanner struct {
	PartitionStart Position
	KAG            uint32
}

// fillLenFieldWidth is the number of long-form length bytes a Fill
// item's length field always uses, however large or small its pad: a
// fixed width keeps the Fill KLV's total size independent of pad, so
// FillPlanner and the writer that emits the Fill agree on it without
// needing to solve the circular "length field width depends on pad,
// which depends on length field width" problem. 4 bytes covers any pad
// up to 4 GiB, far beyond any realistic KAG.
const fillLenFieldWidth = 4

// minFillKL is the smallest possible Fill KLV this package writes:
// 16-byte UL + 1-byte length-of-length header + fillLenFieldWidth
// length bytes + 0 value bytes.
const minFillKL = 16 + 1 + fillLenFieldWidth

// Plan returns the Fill item value length needed so that
// currentOffset + minFillKL + padValueLen is aligned to the KAG,
// relative to PartitionStart. It returns 0 if currentOffset is already
// aligned (no Fill item needed at all — the caller should emit
// nothing) or if KAG <= 1 (no alignment requirement).
func (fp FillPlanner) Plan(currentOffset Position) int64 {
	if !fp.NeedsFill(currentOffset) {
		return 0
	}
	rel := int64(currentOffset-fp.PartitionStart) + minFillKL
	rem := rel % int64(fp.KAG)
	if rem == 0 {
		// An empty-valued Fill would align, but 0 means "no Fill" to
		// callers, so pad by one whole grid instead.
		return int64(fp.KAG)
	}
	return int64(fp.KAG) - rem
}

// NeedsFill reports whether currentOffset (relative to PartitionStart)
// is not yet aligned to the KAG, i.e. whether a Fill item is needed.
func (fp FillPlanner) NeedsFill(currentOffset Position) bool {
	if fp.KAG <= 1 {
		return false
	}
	return int64(currentOffset-fp.PartitionStart)%int64(fp.KAG) != 0
}

// writeFillKLV writes a Fill KLV (16-byte UL key, long-form BER length
// fixed at fillLenFieldWidth bytes, pad zero value bytes) at fc's
// current position. The length field is deliberately not minimal-width
// so the Fill's total size always matches what FillPlanner.Plan
// assumed when it computed pad.
func writeFillKLV(fc *FileCursor, pad int64) error {
	if _, err := fc.Write(ULFill[:]); err != nil {
		return err
	}
	lenBytes := EncodeBERLengthFixedWidth(uint64(pad), fillLenFieldWidth)
	if _, err := fc.Write(lenBytes); err != nil {
		return err
	}
	if pad > 0 {
		if _, err := fc.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}
