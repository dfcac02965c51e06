// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "math"

// SentinelAll requests "materialise to end of value" from ReadData.
const SentinelAll int64 = -1

// IOInfo records one side (source or destination) of a KLVObject's
// file binding: the cursor it's bound to, the absolute offset of the
// Key field, and the combined size in bytes of the Key and Length
// fields (spec.md §4.3: "offset of the key" plus "KL-size").
type IOInfo struct {
	Cursor *FileCursor
	Offset Position
	KLSize int
}

// PrimerResolver resolves a raw local tag to a full UL, used by
// KLVObject.ReadKL when KeyFormat selects a tag width narrower than a
// full UL. A Primer implements this directly (see primer.go).
type PrimerResolver interface {
	ResolveTag(tag []byte) (UL, bool)
}

// KLVObject is the cursor over a single KLV triple: it decodes a key
// and length at the current file position and exposes the value as a
// lazily-materialised chunk (spec.md §4.3). Reads never implicitly
// pull the whole value into memory; only ReadData/ReadDataFrom do,
// and only as much as requested.
//
// The zero value is a usable, unbound cursor (no source/destination).
type KLVObject struct {
	UL          UL
	RawKey      []byte // the as-encoded key bytes, for tag widths < 16
	ValueLength int64
	KeyFormat   KeyFormat
	LenFormat   LenFormat

	source *IOInfo
	dest   *IOInfo

	chunk    []byte
	dataBase int64

	Handler  ReadHandler
	Resolver PrimerResolver
}

// Source returns the cursor's source binding, or nil if unbound.
func (o *KLVObject) Source() *IOInfo { return o.source }

// Dest returns the cursor's destination binding. If destination was
// never explicitly set, it aliases source — the common in-place
// rewrite pattern spec.md §4.3 describes.
func (o *KLVObject) Dest() *IOInfo {
	if o.dest != nil {
		return o.dest
	}
	return o.source
}

// SetDest explicitly binds a destination distinct from source.
func (o *KLVObject) SetDest(info *IOInfo) { o.dest = info }

// DataBase is the offset within the value field of the first byte
// currently held in the materialised chunk.
func (o *KLVObject) DataBase() int64 { return o.dataBase }

// Chunk returns the currently materialised bytes, DataBase bytes into
// the value.
func (o *KLVObject) Chunk() []byte { return o.chunk }

// resolveKeyWidth turns KeyFormatAuto into a concrete width by
// peeking: a 16-byte UL's first byte is always 0x06 (the SMPTE-
// registered UL prefix byte per SMPTE 298); anything else at this
// scope is a local tag, whose width the caller must have configured
// explicitly (Auto never guesses 1 vs 2 vs 4).
func resolveKeyWidth(kf KeyFormat, first byte) (int, error) {
	if kf != KeyFormatAuto {
		w := keyWidth(kf)
		if w == 0 {
			return 0, ErrTruncatedKL
		}
		return w, nil
	}
	if first == 0x06 {
		return 16, nil
	}
	return 0, ErrTruncatedKL
}

// ReadKL decodes a key and length at fc's current position, populates
// UL/RawKey/ValueLength, binds o.source, and leaves fc positioned at
// the first value byte. It returns the combined Key+Length size. It
// must never call any other exported method of o that a derived
// cursor type might override — everything it needs is inlined here so
// subclasses embedding KLVObject can safely call it without re-entry,
// per spec.md §4.3.
func (o *KLVObject) ReadKL(fc *FileCursor) (int, error) {
	start, err := fc.Tell()
	if err != nil {
		return 0, err
	}

	peek, err := fc.Read(1)
	if err != nil {
		return 0, err
	}
	if len(peek) < 1 {
		// Clean EOF: nothing has been read yet for this key, so this
		// is a legitimate end of stream, not a truncated KLV.
		return 0, ErrEndOfStream
	}
	width, err := resolveKeyWidth(o.KeyFormat, peek[0])
	if err != nil {
		return 0, err
	}
	rest, err := fc.Read(int64(width - 1))
	if err != nil || len(rest) < width-1 {
		return 0, ErrTruncatedKL
	}
	key := append(peek, rest...)

	if width == 16 {
		var ul UL
		copy(ul[:], key)
		o.UL = ul
		o.RawKey = nil
	} else {
		o.RawKey = key
		if o.Resolver != nil {
			if ul, ok := o.Resolver.ResolveTag(key); ok {
				o.UL = ul
			}
		}
	}

	lenFmt := o.LenFormat
	if lenFmt == LenFormatNone {
		lenFmt = LenFormatBER
	}

	var length uint64
	var lenConsumed int
	switch lenFmt {
	case LenFormatBER:
		lenHdr, rerr := fc.Read(1)
		if rerr != nil || len(lenHdr) < 1 {
			return 0, ErrTruncatedKL
		}
		if lenHdr[0] < 0x80 {
			length, lenConsumed = uint64(lenHdr[0]), 1
		} else {
			n := int(lenHdr[0] & 0x7f)
			if n == 0 || n > 8 {
				return 0, ErrMalformedLength
			}
			rest, rerr := fc.Read(int64(n))
			if rerr != nil || len(rest) < n {
				return 0, ErrTruncatedKL
			}
			for _, c := range rest {
				length = length<<8 | uint64(c)
			}
			if length > math.MaxInt64 {
				return 0, ErrMalformedLength
			}
			lenConsumed = 1 + n
		}
	case LenFormat1, LenFormat2, LenFormat4:
		w := map[LenFormat]int{LenFormat1: 1, LenFormat2: 2, LenFormat4: 4}[lenFmt]
		b, rerr := fc.Read(int64(w))
		if rerr != nil || len(b) < w {
			return 0, ErrTruncatedKL
		}
		length, err = DecodeFixedLength(b, w)
		if err != nil {
			return 0, err
		}
		lenConsumed = w
	default:
		return 0, ErrMalformedLength
	}

	o.ValueLength = int64(length)
	klSize := width + lenConsumed
	o.source = &IOInfo{Cursor: fc, Offset: start, KLSize: klSize}
	o.chunk = nil
	o.dataBase = 0
	return klSize, nil
}

// ReadData materialises up to size bytes starting at offset within the
// value field (SentinelAll means "to end of value"). If a ReadHandler
// is installed it is invoked and must replace the chunk wholly;
// otherwise the default behaviour seeks the source file and reads.
// Returns the number of bytes actually materialised. Post-condition:
// DataBase == offset and len(Chunk()) == returned count.
func (o *KLVObject) ReadData(offset, size int64) (int64, error) {
	if size == SentinelAll {
		size = o.ValueLength - offset
	}
	if size < 0 {
		size = 0
	}
	if size > math.MaxInt32 && (^uint(0)>>32) == 0 {
		// 32-bit platform size_t can't express this.
		return 0, ErrChunkTooLarge
	}

	buf := make([]byte, size)
	var n int64
	var err error
	if o.Handler != nil {
		n, err = o.Handler.ReadData(buf, o, offset, size)
	} else {
		n, err = fileReadHandler{}.ReadData(buf, o, offset, size)
	}
	if err != nil {
		return 0, err
	}
	o.chunk = buf[:n]
	o.dataBase = offset
	return n, nil
}

// ReadDataAll is shorthand for ReadData(0, SentinelAll).
func (o *KLVObject) ReadDataAll() (int64, error) {
	return o.ReadData(0, SentinelAll)
}

// WriteKL emits the key (full UL, or a primer-tagged local key when
// o.RawKey/o.Resolver set one up) and length to the destination at the
// destination offset. lenSize selects the length field width in bytes
// (0 means "match the KL size this cursor was configured with" — the
// BER minimum width for file-scope items, or the fixed local-set
// width). overrideLength, if >= 0, is written in place of
// o.ValueLength.
func (o *KLVObject) WriteKL(lenSize int, overrideLength int64) (int, error) {
	dest := o.Dest()
	if dest == nil || dest.Cursor == nil {
		return 0, ErrNoReadHandler
	}
	length := o.ValueLength
	if overrideLength >= 0 {
		length = overrideLength
	}

	var key []byte
	if o.RawKey != nil {
		key = o.RawKey
	} else {
		key = append([]byte(nil), o.UL[:]...)
	}

	var lenBytes []byte
	var err error
	switch {
	case lenSize == 0 && len(key) == 16:
		lenBytes = EncodeBERLengthMinWidth(uint64(length))
	case lenSize == 0:
		if w := map[LenFormat]int{LenFormat1: 1, LenFormat2: 2, LenFormat4: 4}[o.LenFormat]; w != 0 {
			lenBytes, err = EncodeFixedLength(uint64(length), w)
			if err != nil {
				return 0, err
			}
		} else {
			lenBytes = EncodeBERLengthMinWidth(uint64(length))
		}
	default:
		lenBytes, err = EncodeFixedLength(uint64(length), lenSize)
		if err != nil {
			return 0, err
		}
	}

	if err := dest.Cursor.Seek(dest.Offset); err != nil {
		return 0, err
	}
	if _, err := dest.Cursor.Write(key); err != nil {
		return 0, err
	}
	if _, err := dest.Cursor.Write(lenBytes); err != nil {
		return 0, err
	}
	dest.KLSize = len(key) + len(lenBytes)
	return dest.KLSize, nil
}

// WriteDataFromTo writes chunk[chunkStart:chunkStart+size] to the
// destination file at destination-value-start + dstOffset.
func (o *KLVObject) WriteDataFromTo(dstOffset, chunkStart, size int64) (int64, error) {
	if size > math.MaxInt32 && (^uint(0)>>32) == 0 {
		return 0, ErrChunkTooLarge
	}
	dest := o.Dest()
	if dest == nil || dest.Cursor == nil {
		return 0, ErrNoReadHandler
	}
	if chunkStart < 0 || size < 0 || chunkStart+size > int64(len(o.chunk)) {
		return 0, ErrChunkTooLarge
	}
	valueStart := dest.Offset + Position(dest.KLSize)
	if err := dest.Cursor.Seek(valueStart + Position(dstOffset)); err != nil {
		return 0, err
	}
	n, err := dest.Cursor.Write(o.chunk[chunkStart : chunkStart+size])
	return int64(n), err
}
