// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

// ReadHandler is a pluggable source that fulfils ranged reads of a KLV
// value on behalf of a KLVObject (spec.md §4.4). It is invoked only
// when a cursor's value is being materialised, never while parsing a
// KL. Its contract: consult only the cursor's immutable identity (UL,
// ValueLength, source offset) — never its already-materialised chunk
// — replace buf wholly (no append semantics), and it may return fewer
// bytes than requested only at end-of-source.
//
// Implementations may be shared across cursors (spec.md §5); they must
// not mutate shared file position state if they are meant to be used
// concurrently — see MMapReadHandler for a handler that never touches
// file position at all.
type ReadHandler interface {
	ReadData(buf []byte, cursor *KLVObject, start, size int64) (int64, error)
}

// fileReadHandler is the default behaviour used when a KLVObject has a
// source but no installed ReadHandler: seek the source file to
// value-start+start and read.
type fileReadHandler struct{}

func (fileReadHandler) ReadData(buf []byte, cursor *KLVObject, start, size int64) (int64, error) {
	if cursor.source == nil {
		return 0, ErrNoReadHandler
	}
	valueStart := cursor.source.Offset + Position(cursor.source.KLSize)
	if err := cursor.source.Cursor.Seek(valueStart + Position(start)); err != nil {
		return 0, err
	}
	data, err := cursor.source.Cursor.Read(size)
	if err != nil {
		return 0, err
	}
	n := copy(buf, data)
	return int64(n), nil
}
