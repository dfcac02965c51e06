// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"encoding/binary"
	"io"
)

// LenFormat selects how a KLV length field is encoded, one of the
// configuration knobs spec.md §6 enumerates.
type LenFormat int

// Length field encodings. None means "not yet known / inferred from
// the stream"; the fixed widths are only legal within set-local items
// (spec.md §6: "fixed-width within local sets (2-byte BE)").
const (
	LenFormatNone LenFormat = iota
	LenFormat1
	LenFormat2
	LenFormat4
	LenFormatBER
)

// KeyFormat selects how a KLV key field is encoded.
type KeyFormat int

// Key field encodings. Auto infers the width from the first KLV read
// at a given scope, as spec.md §6 describes.
const (
	KeyFormatNone KeyFormat = iota
	KeyFormat1
	KeyFormat2
	KeyFormat4
	KeyFormatAuto
	KeyFormatUL
)

// DecodeBERLength decodes a BER length from the front of b, returning
// the decoded length and the number of bytes consumed. It implements
// exactly the rule spec.md §4.1 specifies: a first byte < 0x80 gives
// the length directly (short form); otherwise the low 7 bits give the
// count of following big-endian length bytes (long form), which must
// be in [1,8].
func DecodeBERLength(b []byte) (length uint64, consumed int, err error) {
	if len(b) < 1 {
		return 0, 0, ErrMalformedLength
	}
	first := b[0]
	if first < 0x80 {
		return uint64(first), 1, nil
	}
	n := int(first & 0x7f)
	if n == 0 || n > 8 {
		return 0, 0, ErrMalformedLength
	}
	if len(b) < 1+n {
		return 0, 0, ErrMalformedLength
	}
	var v uint64
	for _, c := range b[1 : 1+n] {
		v = v<<8 | uint64(c)
	}
	return v, 1 + n, nil
}

// ReadBERLength reads a BER length from r the same way DecodeBERLength
// decodes one from a buffer, but one byte at a time so callers that
// only have an io.Reader (a FileCursor) don't need to pre-buffer.
func ReadBERLength(r io.Reader) (length uint64, consumed int, err error) {
	var hdr [1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, ErrMalformedLength
	}
	first := hdr[0]
	if first < 0x80 {
		return uint64(first), 1, nil
	}
	n := int(first & 0x7f)
	if n == 0 || n > 8 {
		return 0, 0, ErrMalformedLength
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, 0, ErrMalformedLength
	}
	var v uint64
	for _, c := range buf {
		v = v<<8 | uint64(c)
	}
	return v, 1 + n, nil
}

// berMinWidth returns the minimum number of long-form length bytes
// needed to encode length, 0 if the short form suffices.
func berMinWidth(length uint64) int {
	if length < 0x80 {
		return 0
	}
	n := 1
	for v := length >> 8; v != 0; v >>= 8 {
		n++
	}
	return n
}

// EncodeBERLengthMinWidth encodes length using the shortest valid BER
// form.
func EncodeBERLengthMinWidth(length uint64) []byte {
	return EncodeBERLengthFixedWidth(length, berMinWidth(length))
}

// EncodeBERLengthFixedWidth encodes length using exactly width
// long-form bytes (width == 0 asks for the short form, and is only
// legal when length < 0x80). Callers may pad with leading zero bytes
// by requesting a width larger than the minimum; spec.md §4.1
// explicitly allows this ("padding with leading zero bytes is legal").
func EncodeBERLengthFixedWidth(length uint64, width int) []byte {
	if width == 0 {
		out := make([]byte, 1)
		out[0] = byte(length)
		return out
	}
	out := make([]byte, 1+width)
	out[0] = 0x80 | byte(width)
	for i := width - 1; i >= 0; i-- {
		out[1+i] = byte(length)
		length >>= 8
	}
	return out
}

// DecodeFixedLength decodes a big-endian unsigned length field of
// exactly width bytes (1, 2 or 4), used for set-local item lengths.
func DecodeFixedLength(b []byte, width int) (length uint64, err error) {
	if len(b) < width {
		return 0, ErrTruncatedKL
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	default:
		return 0, ErrMalformedLength
	}
}

// EncodeFixedLength encodes length as a big-endian field of exactly
// width bytes, failing with ErrLengthOverflow if it doesn't fit.
func EncodeFixedLength(length uint64, width int) ([]byte, error) {
	switch width {
	case 1:
		if length > 0xff {
			return nil, ErrLengthOverflow
		}
		return []byte{byte(length)}, nil
	case 2:
		if length > 0xffff {
			return nil, ErrLengthOverflow
		}
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, uint16(length))
		return out, nil
	case 4:
		if length > 0xffffffff {
			return nil, ErrLengthOverflow
		}
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(length))
		return out, nil
	default:
		return nil, ErrMalformedLength
	}
}

// keyWidth maps a KeyFormat to its byte width, 0 for None/Auto (the
// caller must resolve Auto before calling this).
func keyWidth(kf KeyFormat) int {
	switch kf {
	case KeyFormat1:
		return 1
	case KeyFormat2:
		return 2
	case KeyFormat4:
		return 4
	case KeyFormatUL:
		return 16
	default:
		return 0
	}
}
