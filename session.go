// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"io"
	"os"

	kratoslog "github.com/go-kratos/kratos/v2/log"
)

// maxRunIn is the largest run-in SMPTE-377 allows before the first
// partition pack (spec.md §6).
const maxRunIn = 64 * 1024

// Default resource caps, mirroring the teacher's
// MaxDefaultCOFFSymbolsCount/MaxDefaultRelocEntriesCount pattern
// (helper.go) for the analogous MXF caps SPEC_FULL.md §2.3 names.
const (
	DefaultMaxMetadataSets = 1 << 20
	DefaultMaxIndexEntries = 1 << 24
)

// OpenOptions configures a Session, the MXF analogue of the teacher's
// pe.Options (file.go): the declared KeyFormat/LenFormat/KAGSize
// knobs from spec.md §6, resource caps, and an injected logger.
type OpenOptions struct {
	KeyFormat KeyFormat
	LenFormat LenFormat
	KAGSize   uint32

	MaxMetadataSets uint32
	MaxIndexEntries uint32

	Logger   kratoslog.Logger
	LogLevel kratoslog.Level
}

func (o *OpenOptions) normalized() *OpenOptions {
	out := OpenOptions{}
	if o != nil {
		out = *o
	}
	if out.KeyFormat == KeyFormatNone {
		out.KeyFormat = KeyFormatUL
	}
	if out.LenFormat == LenFormatNone {
		out.LenFormat = LenFormatBER
	}
	if out.MaxMetadataSets == 0 {
		out.MaxMetadataSets = DefaultMaxMetadataSets
	}
	if out.MaxIndexEntries == 0 {
		out.MaxIndexEntries = DefaultMaxIndexEntries
	}
	return &out
}

// Session is a file session: it owns the run-in bytes and the arena
// of partitions it has read (spec.md §3: "File sessions own
// partitions"; design note §9: "the file session owns an arena of
// partitions"). Session is the MXF analogue of the teacher's
// pe.File/New (file.go): it opens the underlying *os.File, wraps it in
// a FileCursor, and exposes Parse-equivalent operations.
type Session struct {
	f        *os.File
	fc       *FileCursor
	RunIn    []byte
	Registry TypeRegistry
	Sink     *Sink
	Options  *OpenOptions

	Partitions []*Partition
}

// Open opens name for reading and writing, captures the run-in
// (spec.md §6's "up to 64 KiB before the first partition pack") in
// RunIn, and returns a Session positioned at the first partition pack,
// mirroring pe.New's
// open-file-then-apply-Options shape.
func Open(name string, registry TypeRegistry, opts *OpenOptions) (*Session, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return newSession(f, registry, opts)
}

func newSession(f *os.File, registry TypeRegistry, opts *OpenOptions) (*Session, error) {
	o := opts.normalized()
	sink := NewSink(o.Logger, o.LogLevel)
	if registry == nil {
		registry = DefaultRegistry
	}
	s := &Session{
		f:        f,
		fc:       NewFileCursor(f),
		Registry: registry,
		Sink:     sink,
		Options:  o,
	}
	if err := s.readRunIn(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying file.
func (s *Session) Close() error { return s.f.Close() }

// readRunIn scans from file offset 0 for the first Partition Pack key,
// storing every byte before it as RunIn, then seeks back to the start
// of the partition pack so the caller's first ReadPartition reads it.
func (s *Session) readRunIn() error {
	if err := s.fc.Seek(0); err != nil {
		return err
	}
	var scanned []byte
	for int64(len(scanned)) <= maxRunIn {
		start, err := s.fc.Tell()
		if err != nil {
			return err
		}
		b, err := s.fc.Read(1)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			// EOF before any partition pack: treat whole file as
			// run-in (degenerate, but not itself an error here).
			s.RunIn = scanned
			return s.fc.Seek(Position(start))
		}
		if b[0] == 0x06 {
			// Candidate UL start; check whether the next 15 bytes plus
			// this one form a Partition Pack key.
			if err := s.fc.Seek(start); err != nil {
				return err
			}
			key, err := s.fc.Read(16)
			if err != nil {
				return err
			}
			if len(key) == 16 {
				var ul UL
				copy(ul[:], key)
				if IsPartitionPack(ul) {
					s.RunIn = scanned
					return s.fc.Seek(start)
				}
			}
			if err := s.fc.Seek(start + 1); err != nil {
				return err
			}
		}
		scanned = append(scanned, b[0])
	}
	return ErrNotAPartitionPack
}

// ReadPartition reads one partition starting at the current file
// position: its partition pack, primer and header metadata, then
// leaves the cursor positioned where index tables or essence would
// begin (SeekEssence/ReadIndex on the returned Partition continue from
// there). It appends the partition to s.Partitions.
func (s *Session) ReadPartition() (*Partition, error) {
	start, err := s.fc.Tell()
	if err != nil {
		return nil, err
	}
	item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
	if _, err := item.ReadKL(s.fc); err != nil {
		return nil, err
	}
	if !IsPartitionPack(item.UL) {
		return nil, ErrNotAPartitionPack
	}
	value, err := readValue(item)
	if err != nil {
		return nil, err
	}
	pack, err := DecodePartitionPack(item.UL, value)
	if err != nil {
		return nil, err
	}
	if pack.ThisPartition == 0 {
		pack.ThisPartition = start
	}

	part := NewPartition(pack.Kind, s.Registry, s.Sink)
	part.Pack = pack

	if err := part.ReadMetadata(s.fc, 0); err != nil {
		return nil, err
	}
	if err := part.Finalize(); err != nil {
		return nil, err
	}

	s.Partitions = append(s.Partitions, part)
	return part, nil
}

// Resync scans forward from the current position for the next
// Partition Pack key, the recovery spec.md §7 describes
// ("resynchronisation: scan forward for a partition-pack UL") after a
// structural decode error. It records AnoResynced on the session sink
// and leaves the cursor positioned at the found key, or returns
// io.EOF if none is found.
func (s *Session) Resync() error {
	for {
		start, err := s.fc.Tell()
		if err != nil {
			return err
		}
		b, err := s.fc.Read(1)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return io.EOF
		}
		if b[0] == 0x06 {
			if err := s.fc.Seek(start); err != nil {
				return err
			}
			key, err := s.fc.Read(16)
			if err != nil {
				return err
			}
			if len(key) == 16 {
				var ul UL
				copy(ul[:], key)
				if IsPartitionPack(ul) {
					s.Sink.Warnf(AnoResynced)
					return s.fc.Seek(start)
				}
			}
			if err := s.fc.Seek(start + 1); err != nil {
				return err
			}
			continue
		}
	}
}

// FileCursor exposes the session's underlying cursor, e.g. for a
// Partition's ReadIndex/SeekEssence/StartElements/NextElement calls,
// which all take a *FileCursor rather than owning one themselves.
func (s *Session) FileCursor() *FileCursor { return s.fc }
