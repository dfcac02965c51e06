// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MMapReadHandler is a ReadHandler backed by a read-only memory
// mapping of the underlying file (spec.md §5: a read handler "never
// touches file position at all", letting many KLVObject cursors
// resolve reads concurrently without contending on a single seek/read
// pair). It never mutates the FileCursor it's installed against.
type MMapReadHandler struct {
	data mmap.MMap
}

// NewMMapReadHandler maps f read-only for its current size. The
// caller remains responsible for closing f; Close unmaps but does not
// close the file descriptor, mirroring the teacher's own mmap-backed
// open path in file.go (Options.Fast / mmap.Map usage).
func NewMMapReadHandler(f *os.File) (*MMapReadHandler, error) {
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &MMapReadHandler{data: m}, nil
}

// Close unmaps the handler's memory mapping. Further ReadData calls
// after Close have undefined behaviour, same as any use-after-unmap.
func (h *MMapReadHandler) Close() error {
	return h.data.Unmap()
}

// ReadData copies size bytes starting at the cursor's value-relative
// start directly out of the mapping, never touching cursor.source's
// FileCursor (and so never racing a concurrent reader of the same
// file).
func (h *MMapReadHandler) ReadData(buf []byte, cursor *KLVObject, start, size int64) (int64, error) {
	if cursor.source == nil {
		return 0, ErrNoReadHandler
	}
	valueStart := int64(cursor.source.Offset) + int64(cursor.source.KLSize) + start
	if valueStart < 0 || valueStart > int64(len(h.data)) {
		return 0, io.EOF
	}
	end := valueStart + size
	if end > int64(len(h.data)) {
		end = int64(len(h.data))
	}
	n := copy(buf, h.data[valueStart:end])
	return int64(n), nil
}
