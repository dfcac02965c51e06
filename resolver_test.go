// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uuidFromByte(b byte) UUID {
	var u UUID
	u[0] = b
	return u
}

func TestResolverLinksAfterTargetSeen(t *testing.T) {
	r := NewResolver()
	target := uuidFromByte(0x01)

	referrer := &MDObject{}
	prop := &Property{Descriptor: PropertyDescriptor{Kind: PropertyStrongRef}, StrongUUID: target}
	r.RegisterReference(target, referrer, prop)
	assert.Len(t, r.Unresolved(), 1)

	obj := &MDObject{InstanceUID: target}
	r.RegisterInstance(target, obj)

	assert.Empty(t, r.Unresolved())
	assert.Same(t, obj, prop.Strong)
}

func TestResolverLinksWhenTargetAlreadySeen(t *testing.T) {
	r := NewResolver()
	target := uuidFromByte(0x02)
	obj := &MDObject{InstanceUID: target}
	r.RegisterInstance(target, obj)

	referrer := &MDObject{}
	prop := &Property{Descriptor: PropertyDescriptor{Kind: PropertyWeakRef}, WeakUUID: target}
	r.RegisterReference(target, referrer, prop)

	assert.Same(t, obj, prop.Weak)
	assert.Empty(t, r.Unresolved())
}

func TestResolverArrayReference(t *testing.T) {
	r := NewResolver()
	target := uuidFromByte(0x03)
	referrer := &MDObject{}
	prop := &Property{Array: [][]byte{target[:]}, ArrayTargets: make([]*MDObject, 1)}
	r.RegisterArrayReference(prop, 0, referrer)
	assert.Nil(t, prop.ArrayTargets[0])

	obj := &MDObject{InstanceUID: target}
	r.RegisterInstance(target, obj)
	assert.Same(t, obj, prop.ArrayTargets[0])
}

func TestResolverFinalizeDanglingStrongRef(t *testing.T) {
	r := NewResolver()
	prop := &Property{Descriptor: PropertyDescriptor{Kind: PropertyStrongRef}, StrongUUID: uuidFromByte(0x09)}
	r.RegisterReference(uuidFromByte(0x09), &MDObject{}, prop)

	err := r.Finalize(DefaultSink())
	assert.ErrorIs(t, err, ErrDanglingStrongRef)
}

func TestResolverFinalizeDanglingWeakRefIsOnlyAWarning(t *testing.T) {
	r := NewResolver()
	prop := &Property{Descriptor: PropertyDescriptor{Kind: PropertyWeakRef}, WeakUUID: uuidFromByte(0x0a)}
	r.RegisterReference(uuidFromByte(0x0a), &MDObject{}, prop)

	err := r.Finalize(DefaultSink())
	require.NoError(t, err)
	assert.Len(t, r.Unresolved(), 1)
}
