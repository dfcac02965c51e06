// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

// PartitionKind distinguishes the three positions a partition pack can
// occupy in the file.
type PartitionKind int

// Partition kinds.
const (
	PartitionHeader PartitionKind = iota
	PartitionBody
	PartitionFooter
)

// PartitionPack is the fixed-field header every partition opens with:
// KAG size, essence container UL batch, previous/footer partition
// offsets, and the open|closed/incomplete|complete status flags
// (spec.md §3, §4.7).
type PartitionPack struct {
	Kind PartitionKind

	closed   bool
	complete bool

	KAGSize           uint32
	ThisPartition     Position
	PreviousPartition Position
	FooterPartition   Position
	BodySID           uint32
	IndexSID          uint32
	EssenceContainers []UL
}

// IsClosed reports the pack's closed/open status.
func (p *PartitionPack) IsClosed() bool { return p.closed }

// IsComplete reports the pack's complete/incomplete status.
func (p *PartitionPack) IsComplete() bool { return p.complete }

// MarkClosed transitions the pack to closed. Closed is sticky: once
// set it is never cleared during a write session (spec.md §4.7:
// "transitions are monotonic").
func (p *PartitionPack) MarkClosed() { p.closed = true }

// MarkComplete transitions the pack to complete. Complete is sticky,
// same as MarkClosed.
func (p *PartitionPack) MarkComplete() { p.complete = true }

// Partition is the ordered container spec.md §3 describes: a
// partition pack, an optional primer, the header metadata object
// graph, optional index-table segments, and (accessed via essence
// iteration) the partition's essence KLV items. A Partition owns its
// metadata objects — dropping it drops all of them.
type Partition struct {
	Pack     *PartitionPack
	Primer   *Primer
	Registry TypeRegistry

	allMetadata []*MDObject
	resolver    *Resolver
	Index       []*IndexTableSegment

	sink *Sink

	bodyLocation     Position
	nextBodyLocation Position
	essenceEnd       Position // exclusive upper bound: next partition pack's offset, or PositionUnknown if not known
}

// NewPartition returns an empty in-memory partition ready to accumulate
// metadata objects (e.g. for building a file to write), or to be
// populated by ReadMetadata.
func NewPartition(kind PartitionKind, registry TypeRegistry, sink *Sink) *Partition {
	if sink == nil {
		sink = DefaultSink()
	}
	return &Partition{
		Pack:             &PartitionPack{Kind: kind},
		Registry:         registry,
		resolver:         NewResolver(),
		bodyLocation:     PositionUnknown,
		nextBodyLocation: PositionUnknown,
		essenceEnd:       PositionUnknown,
		sink:             sink,
	}
}

// AllMetadata returns every metadata object this partition has parsed
// or been given, in parse/insertion order.
func (p *Partition) AllMetadata() []*MDObject { return p.allMetadata }

// AddMetadata registers obj with this partition, e.g. when building a
// file from scratch rather than reading one: WriteTo only emits
// objects that have been read (ReadMetadata) or added this way.
func (p *Partition) AddMetadata(obj *MDObject) {
	p.allMetadata = append(p.allMetadata, obj)
	if obj.HasInstanceUID {
		p.resolver.RegisterInstance(obj.InstanceUID, obj)
	}
}

// TopLevelMetadata returns the objects in AllMetadata that are not
// reachable as a strong-reference child from any other in-partition
// object — the complement of the set of strong-reference targets
// (spec.md §3, §8).
func (p *Partition) TopLevelMetadata() []*MDObject {
	targets := make(map[*MDObject]bool)
	for _, obj := range p.allMetadata {
		for _, prop := range obj.Properties {
			switch prop.Kind() {
			case PropertyStrongRef:
				if prop.Strong != nil {
					targets[prop.Strong] = true
				}
			case PropertyArray:
				if isReferenceArray(prop.Descriptor) {
					for _, t := range prop.ArrayTargets {
						if t != nil {
							targets[t] = true
						}
					}
				}
			}
		}
	}
	var top []*MDObject
	for _, obj := range p.allMetadata {
		if !targets[obj] {
			top = append(top, obj)
		}
	}
	return top
}

// Resolver exposes the partition's two-phase reference resolver, e.g.
// for callers that want to inspect Unresolved() before Finalize.
func (p *Partition) Resolver() *Resolver { return p.resolver }

// ReadMetadata reads KLV items at fc's current position until either
// sizeLimit bytes have been consumed or the next KLV is not a header
// metadata set (spec.md §4.7). If a primer is present it must be the
// first KLV read; every Fill item encountered is skipped transparently
// (spec.md §6). On return, fc is positioned just after the last
// consumed KLV (or, if the loop stopped because of a non-metadata
// KLV, just before that KLV's key so the caller can act on it).
func (p *Partition) ReadMetadata(fc *FileCursor, sizeLimit int64) error {
	var consumed int64
	sawPrimer := p.Primer != nil
	sawAnySet := false

	for sizeLimit <= 0 || consumed < sizeLimit {
		start, err := fc.Tell()
		if err != nil {
			return err
		}

		item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
		klSize, err := item.ReadKL(fc)
		if err == ErrEndOfStream {
			return fc.Seek(start)
		}
		if err != nil {
			return err
		}

		if IsFill(item.UL) {
			if err := skipValue(fc, item); err != nil {
				return err
			}
			consumed += int64(klSize) + item.ValueLength
			continue
		}

		if IsPrimerPack(item.UL) {
			if sawAnySet {
				return ErrPrimerNotFirst
			}
			value, err := readValue(item)
			if err != nil {
				return err
			}
			primer, err := DecodePrimerValue(value)
			if err != nil {
				return err
			}
			p.Primer = primer
			sawPrimer = true
			consumed += int64(klSize) + item.ValueLength
			continue
		}

		if IsIndexTableSegment(item.UL) || IsPartitionPack(item.UL) || !IsMetadataSetFamily(item.UL) {
			// Not header metadata: rewind to this KLV's key so the
			// caller (ReadIndex / SeekEssence) can re-decode it.
			return fc.Seek(start)
		}

		if !sawPrimer {
			return ErrPrimerNotFirst
		}

		value, err := readValue(item)
		if err != nil {
			return err
		}
		obj, err := ParseSet(item.UL, value, p.Primer, p.Registry, p.resolver, p.sink)
		if err != nil {
			return err
		}
		p.allMetadata = append(p.allMetadata, obj)
		sawAnySet = true
		consumed += int64(klSize) + item.ValueLength
	}
	return nil
}

// Finalize runs the resolver's second phase (spec.md §4.6): dangling
// strong references surface as ErrDanglingStrongRef; dangling weak
// references are warned about via the partition's sink.
func (p *Partition) Finalize() error {
	return p.resolver.Finalize(p.sink)
}

func readValue(item *KLVObject) ([]byte, error) {
	n, err := item.ReadDataAll()
	if err != nil {
		return nil, err
	}
	return item.Chunk()[:n], nil
}

func skipValue(fc *FileCursor, item *KLVObject) error {
	pos, err := fc.Tell()
	if err != nil {
		return err
	}
	return fc.Seek(pos + Position(item.ValueLength))
}

// ReadIndex scans forward from fc's current position for Index Table
// Segment KLVs, stopping at the next partition pack or once limit
// bytes have been consumed (limit <= 0 means no byte limit; stop only
// at the next partition pack). Individual Fill items are skipped.
func (p *Partition) ReadIndex(fc *FileCursor, limit int64) ([]*IndexTableSegment, error) {
	var segments []*IndexTableSegment
	var consumed int64
	for limit <= 0 || consumed < limit {
		start, err := fc.Tell()
		if err != nil {
			return segments, err
		}
		item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
		klSize, err := item.ReadKL(fc)
		if err == ErrEndOfStream {
			return segments, fc.Seek(start)
		}
		if err != nil {
			return segments, err
		}
		if IsFill(item.UL) {
			if err := skipValue(fc, item); err != nil {
				return segments, err
			}
			consumed += int64(klSize) + item.ValueLength
			continue
		}
		if IsPartitionPack(item.UL) {
			return segments, fc.Seek(start)
		}
		if !IsIndexTableSegment(item.UL) {
			return segments, fc.Seek(start)
		}
		value, err := readValue(item)
		if err != nil {
			return segments, err
		}
		seg, err := DecodeIndexTableSegment(value)
		if err != nil {
			return segments, err
		}
		segments = append(segments, seg)
		consumed += int64(klSize) + item.ValueLength
	}
	return segments, nil
}

// SeekEssence advances fc past primer, header metadata, and index
// tables, stopping at the first KLV whose UL is not in those families
// (spec.md §4.7). It returns false if no such KLV exists before the
// next partition pack.
func (p *Partition) SeekEssence(fc *FileCursor) (bool, error) {
	for {
		start, err := fc.Tell()
		if err != nil {
			return false, err
		}
		item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
		if _, err := item.ReadKL(fc); err != nil {
			if err == ErrEndOfStream {
				return false, fc.Seek(start)
			}
			return false, err
		}
		switch {
		case IsFill(item.UL):
			if err := skipValue(fc, item); err != nil {
				return false, err
			}
		case IsPrimerPack(item.UL), IsIndexTableSegment(item.UL), IsMetadataSetFamily(item.UL):
			if err := skipValue(fc, item); err != nil {
				return false, err
			}
		case IsPartitionPack(item.UL):
			return false, fc.Seek(start)
		default:
			return true, fc.Seek(start)
		}
	}
}

// StartElements positions the partition's internal essence cursor
// (_BodyLocation/_NextBodyLocation in spec.md §4.7) at the first
// essence KLV, as found by SeekEssence.
func (p *Partition) StartElements(fc *FileCursor) error {
	found, err := p.SeekEssence(fc)
	if err != nil {
		return err
	}
	pos, err := fc.Tell()
	if err != nil {
		return err
	}
	if !found {
		p.bodyLocation = PositionUnknown
		p.nextBodyLocation = PositionUnknown
		return nil
	}
	p.bodyLocation = pos
	p.nextBodyLocation = pos
	return nil
}

// NextElement returns a KLVObject cursor for the current essence
// element (its value is not materialised — read on demand via
// ReadData), then advances past interleaved KLV-Fill items (single
// fill only, per the open question in spec.md §9: this library
// matches the teacher's documented limitation rather than iterating
// through consecutive Fills) and the element's own value, computing
// the new next-body-location. Returns (nil, nil) when no more essence
// items precede the next partition pack.
func (p *Partition) NextElement(fc *FileCursor) (*KLVObject, error) {
	if p.nextBodyLocation == PositionUnknown {
		return nil, nil
	}
	if err := fc.Seek(p.nextBodyLocation); err != nil {
		return nil, err
	}

	item := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
	klSize, err := item.ReadKL(fc)
	if err == ErrEndOfStream {
		p.nextBodyLocation = PositionUnknown
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if IsPartitionPack(item.UL) {
		p.nextBodyLocation = PositionUnknown
		return nil, nil
	}

	p.bodyLocation = p.nextBodyLocation

	afterValue := p.nextBodyLocation + Position(klSize) + Position(item.ValueLength)
	if err := fc.Seek(afterValue); err != nil {
		return nil, err
	}

	// Tolerate (skip) a single interleaved Fill item before the next
	// element, per spec.md §4.7.
	peekStart, err := fc.Tell()
	if err != nil {
		return nil, err
	}
	fillProbe := &KLVObject{KeyFormat: KeyFormatUL, LenFormat: LenFormatBER}
	if _, ferr := fillProbe.ReadKL(fc); ferr == nil && IsFill(fillProbe.UL) {
		if err := skipValue(fc, fillProbe); err != nil {
			return nil, err
		}
		next, err := fc.Tell()
		if err != nil {
			return nil, err
		}
		p.nextBodyLocation = next
	} else {
		p.nextBodyLocation = peekStart
		if err := fc.Seek(peekStart); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// emission pairs a metadata object with its already-encoded value
// bytes, computed in a first pass so the primer is fully populated
// (every UL it will ever need a tag for has been observed) before any
// bytes are written to fc.
type emission struct {
	obj   *MDObject
	value []byte
}

// planEmissions walks the strong-reference forest breadth-first from
// TopLevelMetadata, encoding each object's properties (which also
// allocates primer tags along the way) and queuing owned children for
// later emission — "children are appended to a queue; emission is
// breadth-first to keep offsets predictable" (spec.md §4.6). Top-level
// roots are ordered by type UL then InstanceUID, the caller-specified
// deterministic order spec.md §4.6 requires.
func (p *Partition) planEmissions(primer *Primer) []emission {
	roots := append([]*MDObject(nil), p.TopLevelMetadata()...)
	sortObjects(roots)

	var order []emission
	seen := make(map[*MDObject]bool)
	queue := roots
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		if seen[obj] {
			continue
		}
		seen[obj] = true

		value := obj.EncodeValue(primer)
		order = append(order, emission{obj: obj, value: value})

		for _, prop := range obj.Properties {
			switch prop.Kind() {
			case PropertyStrongRef:
				if prop.Strong != nil {
					queue = append(queue, prop.Strong)
				}
			case PropertyArray:
				if isReferenceArray(prop.Descriptor) {
					for _, t := range prop.ArrayTargets {
						if t != nil {
							queue = append(queue, t)
						}
					}
				}
			}
		}
	}
	return order
}

func sortObjects(objs []*MDObject) {
	for i := 1; i < len(objs); i++ {
		for j := i; j > 0; j-- {
			if objectLess(objs[j], objs[j-1]) {
				objs[j], objs[j-1] = objs[j-1], objs[j]
			} else {
				break
			}
		}
	}
}

func objectLess(a, b *MDObject) bool {
	if a.UL != b.UL {
		return lessBytes(a.UL[:], b.UL[:])
	}
	return lessBytes(a.InstanceUID[:], b.InstanceUID[:])
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// WriteTo serialises this partition's primer and header metadata
// (spec.md §4.6 write path), followed by its index table segments, to
// fc starting at partitionStart, padding every KLV to kag using
// FillPlanner. It does not write the partition pack itself or any
// essence — those are Session's responsibility, since the partition
// pack must be known (ThisPartition etc.) before the metadata region's
// absolute offsets are, and essence is opaque to this package.
func (p *Partition) WriteTo(fc *FileCursor, partitionStart Position, kag uint32) error {
	primer := NewPrimer()
	order := p.planEmissions(primer)

	planner := FillPlanner{PartitionStart: partitionStart, KAG: kag}

	if err := writeSetAligned(fc, planner, ULPrimerPack, primer.EncodeValue()); err != nil {
		return err
	}
	for _, e := range order {
		if err := writeSetAligned(fc, planner, e.obj.UL, e.value); err != nil {
			return err
		}
	}
	for _, seg := range p.Index {
		if err := writeSetAligned(fc, planner, ULIndexTableSegment, seg.EncodeValue()); err != nil {
			return err
		}
	}
	return nil
}

// writeSetAligned writes one KLV (16-byte UL key, minimum-width BER
// length, value) at fc's current position, then pads with a single
// fixed-width-length Fill item (writeFillKLV) so the position that
// follows is KAG-aligned.
func writeSetAligned(fc *FileCursor, planner FillPlanner, ul UL, value []byte) error {
	pos, err := fc.Tell()
	if err != nil {
		return err
	}
	item := &KLVObject{UL: ul, ValueLength: int64(len(value))}
	item.chunk = value
	item.SetDest(&IOInfo{Cursor: fc, Offset: pos})
	if _, err := item.WriteKL(0, int64(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := item.WriteDataFromTo(0, 0, int64(len(value))); err != nil {
			return err
		}
	}

	after, err := fc.Tell()
	if err != nil {
		return err
	}
	pad := planner.Plan(after)
	if pad == 0 {
		return nil
	}
	if err := fc.Seek(after); err != nil {
		return err
	}
	return writeFillKLV(fc, pad)
}
