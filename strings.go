// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"golang.org/x/text/encoding/unicode"
)

// utf16BE is the byte-order, no-BOM UTF-16 encoding SMPTE-377 strings
// use for every variable-length text property (CompanyName and
// friends): "UTF-16 big-endian, unterminated" per spec.md §4.6's note
// on ScalarSize 0 properties.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// DecodeUTF16String decodes raw (a whole-number of 2-byte UTF-16 code
// units, big-endian, with no trailing NUL) into a Go string.
func DecodeUTF16String(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	decoded, err := utf16BE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// EncodeUTF16String encodes s into big-endian UTF-16 bytes suitable
// for a variable-length (ScalarSize 0) string property's scalar.
func EncodeUTF16String(s string) ([]byte, error) {
	return utf16BE.NewEncoder().Bytes([]byte(s))
}

// Text decodes p's scalar value as a UTF-16 string, for properties
// such as Identification.CompanyName whose descriptor declares
// ScalarSize 0.
func (p *Property) Text() (string, error) {
	return DecodeUTF16String(p.Scalar)
}
