// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "fmt"

// Timestamp is the 8-byte SMPTE-377 timestamp encoding used by several
// well-known properties (Identification's modification/creation dates):
// a big-endian uint16 year, then month, day, hour, minute, second and
// a quarter-frame count, one byte each.
type Timestamp struct {
	Year   int16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
	QFrame uint8 // quarter-frame count, 0-3
}

// timestampSize is the fixed encoded size of a Timestamp scalar.
const timestampSize = 8

// DecodeTimestamp parses an 8-byte scalar into a Timestamp.
func DecodeTimestamp(raw []byte) (Timestamp, error) {
	if len(raw) != timestampSize {
		return Timestamp{}, ErrTruncatedValue
	}
	return Timestamp{
		Year:   int16(uint16(raw[0])<<8 | uint16(raw[1])),
		Month:  raw[2],
		Day:    raw[3],
		Hour:   raw[4],
		Minute: raw[5],
		Second: raw[6],
		QFrame: raw[7],
	}, nil
}

// EncodeValue serialises t back into its 8-byte scalar form.
func (t Timestamp) EncodeValue() []byte {
	out := make([]byte, timestampSize)
	out[0] = byte(uint16(t.Year) >> 8)
	out[1] = byte(uint16(t.Year))
	out[2] = t.Month
	out[3] = t.Day
	out[4] = t.Hour
	out[5] = t.Minute
	out[6] = t.Second
	out[7] = t.QFrame
	return out
}

// String renders t as "YYYY-MM-DD HH:MM:SS.Q".
func (t Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.QFrame)
}

// Timestamp decodes p's scalar value as a Timestamp. It returns
// ErrTruncatedValue if p is not an 8-byte scalar property (e.g. it was
// decoded as Unknown, or its descriptor names a different property).
func (p *Property) Timestamp() (Timestamp, error) {
	return DecodeTimestamp(p.Scalar)
}
