// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

// deferredLink is one entry of the append-only queue of references
// whose target had not yet been observed when the reference was
// parsed. Design note §9 is explicit that this must be a separate,
// append-only structure from the UUID->object map — not a single
// multimap that also carries reverse pointers.
type deferredLink struct {
	target   UUID
	referrer *MDObject
	prop     *Property
	index    int // >= 0 for a reference-array element, -1 otherwise
	weak     bool
}

// Resolver is the two-phase reference resolver spec.md §3 and §4.6
// describe: RefTargets maps a UUID to the object that carries it as
// InstanceUID (unique); UnmatchedRefs is the queue of references still
// waiting for their target's InstanceUID to show up. Draining happens
// both as each new InstanceUID is registered and again at
// finalisation.
type Resolver struct {
	RefTargets map[UUID]*MDObject
	pending    []deferredLink
}

// NewResolver returns an empty two-phase resolver.
func NewResolver() *Resolver {
	return &Resolver{RefTargets: make(map[UUID]*MDObject)}
}

// RegisterInstance records obj's InstanceUID and immediately drains
// any deferred references that were waiting on it (spec.md §4.6:
// "any entries in UnmatchedRefs with the same UUID are drained").
func (r *Resolver) RegisterInstance(id UUID, obj *MDObject) {
	r.RefTargets[id] = obj
	r.drain(id, obj)
}

func (r *Resolver) drain(id UUID, obj *MDObject) {
	kept := r.pending[:0]
	for _, d := range r.pending {
		if d.target == id {
			link(d, obj)
			continue
		}
		kept = append(kept, d)
	}
	r.pending = kept
}

func link(d deferredLink, target *MDObject) {
	if d.index >= 0 {
		d.prop.ArrayTargets[d.index] = target
		return
	}
	if d.weak {
		d.prop.Weak = target
	} else {
		d.prop.Strong = target
	}
}

// RegisterReference links prop's single strong/weak reference
// immediately if its target's InstanceUID has already been observed,
// or enqueues it as an UnmatchedRefs entry otherwise (spec.md §4.6).
func (r *Resolver) RegisterReference(target UUID, referrer *MDObject, prop *Property) {
	weak := prop.Kind() == PropertyWeakRef
	if obj, ok := r.RefTargets[target]; ok {
		link(deferredLink{index: -1, weak: weak, prop: prop}, obj)
		return
	}
	r.pending = append(r.pending, deferredLink{target: target, referrer: referrer, prop: prop, index: -1, weak: weak})
}

// RegisterArrayReference is RegisterReference for element index of a
// reference-batch array property; the element's UUID is read from
// prop.Array[index].
func (r *Resolver) RegisterArrayReference(prop *Property, index int, referrer *MDObject) {
	var target UUID
	copy(target[:], prop.Array[index])
	if obj, ok := r.RefTargets[target]; ok {
		prop.ArrayTargets[index] = obj
		return
	}
	r.pending = append(r.pending, deferredLink{target: target, referrer: referrer, prop: prop, index: index})
}

// Finalize runs phase two: every UnmatchedRefs entry whose UUID is
// still not a key of RefTargets is either surfaced as
// ErrDanglingStrongRef (strong) or recorded as a AnoDanglingWeakRef
// warning (weak), per spec.md §4.6 and §7. It returns the first
// dangling strong reference encountered, if any; sink receives a
// warning for every dangling weak reference.
func (r *Resolver) Finalize(sink *Sink) error {
	var firstErr error
	for _, d := range r.pending {
		if d.weak {
			sink.Warnf("%s: %s", AnoDanglingWeakRef, d.target)
			continue
		}
		if firstErr == nil {
			firstErr = ErrDanglingStrongRef
		}
	}
	return firstErr
}

// Unresolved returns the UUIDs still outstanding in UnmatchedRefs,
// i.e. the testable invariant in spec.md §8: "UnmatchedRefs contains
// only entries whose UUIDs are not keys of RefTargets".
func (r *Resolver) Unresolved() []UUID {
	out := make([]UUID, 0, len(r.pending))
	for _, d := range r.pending {
		if _, ok := r.RefTargets[d.target]; !ok {
			out = append(out, d.target)
		}
	}
	return out
}
