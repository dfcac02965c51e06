// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import "errors"

// Sentinel errors for the structural decode failures a KLV/partition
// reader can hit. Fatal ones abort the current KLV or partition; the
// non-fatal ones (UnknownUL family) are recorded as anomalies instead.
var (
	// ErrTruncatedKL is returned when EOF is hit partway through
	// decoding a key or a length, after at least one byte of it has
	// already been read.
	ErrTruncatedKL = errors.New("mxf: truncated key or length")

	// ErrEndOfStream is returned by ReadKL when EOF is hit cleanly at
	// a KLV boundary: zero bytes available where a new key was
	// expected to start. Unlike ErrTruncatedKL this is not a
	// structural error — callers that scan a sequence of KLVs (
	// ReadMetadata, ReadIndex, SeekEssence, NextElement) treat it as
	// "nothing more here", not a decode failure.
	ErrEndOfStream = errors.New("mxf: end of stream at KLV boundary")

	// ErrTruncatedValue is returned when fewer bytes than the decoded
	// length remain in the source.
	ErrTruncatedValue = errors.New("mxf: truncated value")

	// ErrMalformedLength is returned by the BER codec on n=0, n>8, or
	// a truncated long-form length.
	ErrMalformedLength = errors.New("mxf: malformed BER length")

	// ErrLengthOverflow is returned by a fixed-width length codec when
	// the value does not fit the configured field width.
	ErrLengthOverflow = errors.New("mxf: length overflow for field width")

	// ErrDanglingStrongRef is returned at partition finalisation when a
	// strong reference's target UUID was never observed. The partition
	// is considered structurally invalid.
	ErrDanglingStrongRef = errors.New("mxf: dangling strong reference")

	// ErrChunkTooLarge is returned when a requested materialisation
	// exceeds what the platform's size type can express.
	ErrChunkTooLarge = errors.New("mxf: chunk too large for this platform")

	// ErrNoReadHandler is returned by ReadData when the cursor has no
	// source and no installed read handler.
	ErrNoReadHandler = errors.New("mxf: no source or read handler installed")

	// ErrNotAPartitionPack is returned when ReadPartition is asked to
	// decode a KLV whose key is not of the Partition Pack UL family, or
	// when Open finds no partition pack within the run-in limit.
	ErrNotAPartitionPack = errors.New("mxf: not a partition pack key")

	// ErrPrimerNotFirst is returned when ReadMetadata finds header
	// metadata sets before a primer pack in a partition that declares
	// local-tag keys.
	ErrPrimerNotFirst = errors.New("mxf: primer pack must precede other header metadata")

	// ErrUnknownTag names a 2-byte local tag with no entry in the
	// active primer. ParseSet does not return it: it logs AnoUnknownTag
	// and keeps the property as opaque bytes.
	ErrUnknownTag = errors.New("mxf: unknown local tag")

	// ErrInvalidSeek is returned when Seek is asked to move to the
	// sentinel position PositionUnknown.
	ErrInvalidSeek = errors.New("mxf: cannot seek to the unknown position")
)

// AnoUnknownUL is recorded when a KLV key has no entry in the type
// registry. The item is preserved as opaque bytes, not parsed further.
const AnoUnknownUL = "unrecognised UL, preserved as opaque KLV"

// AnoUnknownTag is recorded when a set property's local tag has no
// primer mapping; treated as AnoUnknownUL for that property.
const AnoUnknownTag = "unrecognised local tag, preserved as opaque property"

// AnoDanglingWeakRef is recorded when a weak reference's target UUID
// was never observed by partition finalisation.
const AnoDanglingWeakRef = "dangling weak reference"

// AnoResynced is recorded when the session had to scan forward for the
// next partition pack after a structural decode error.
const AnoResynced = "resynchronised at next partition pack after decode error"

// OffsetError wraps an I/O failure with the absolute file offset at
// which it occurred, per the WriteFailed/ReadFailed error kinds.
type OffsetError struct {
	Op     string
	Offset Position
	Err    error
}

func (e *OffsetError) Error() string {
	return "mxf: " + e.Op + " at offset " + e.Offset.String() + ": " + e.Err.Error()
}

func (e *OffsetError) Unwrap() error { return e.Err }
