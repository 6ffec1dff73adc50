/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package capability implements unforgeable capability tokens and the
// per-principal capability space (CSpace) that holds them. Every access to
// a kernel resource outside this package is mediated by looking a
// capability up here first.
package capability

import "sync"

// Id is an opaque identifier, unique within one CSpace, monotonically
// assigned starting at 1. 0 is never a valid id.
type Id uint64

// Capability is an immutable value: { id, resource_type, resource_id,
// rights }. A capability is never mutated in place; revocation removes it
// from a space rather than changing it.
type Capability struct {
	Id           Id
	ResourceType ResourceType
	ResourceId   uint64
	Rights       Rights
}

// CSpace is a per-principal mapping from capability ids to capabilities.
// Keys are unique, next_id is strictly monotone, and removed ids are never
// reused within a space. All operations take the space's lock for their
// full duration; there is no lock-free fast path, matching the source.
type CSpace struct {
	mu      sync.Mutex
	mapping map[Id]Capability
	nextId  Id
}

// NewCSpace returns an empty capability space.
func NewCSpace() *CSpace {
	return &CSpace{
		mapping: make(map[Id]Capability),
		nextId:  1,
	}
}

// Create allocates the next id and inserts a new capability. It always
// succeeds when called from trusted kernel context; there is no exported
// syscall path that reaches this method directly (see package ksyscall),
// which is how unforgeability from a guest or user-mode caller is enforced.
func (cs *CSpace) Create(rt ResourceType, resourceId uint64, rights Rights) Id {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	id := cs.nextId
	cs.nextId++
	cs.mapping[id] = Capability{
		Id:           id,
		ResourceType: rt,
		ResourceId:   resourceId,
		Rights:       rights,
	}
	return id
}

// Get looks up a capability with no side effect.
func (cs *CSpace) Get(id Id) (Capability, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	c, ok := cs.mapping[id]
	return c, ok
}

// Derive fails if the source is absent or newRights is not a subset of the
// source's rights. On success it inserts a new capability sharing the
// source's type and resource id but carrying the requested, necessarily
// reduced, rights. The derived id is fresh: no parent/child link is stored,
// so revocation never cascades (see DESIGN.md for the Open Question this
// resolves).
func (cs *CSpace) Derive(sourceId Id, newRights Rights) (Id, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	src, ok := cs.mapping[sourceId]
	if !ok {
		return 0, false
	}
	derived, ok := src.Rights.Derive(newRights)
	if !ok {
		return 0, false
	}

	id := cs.nextId
	cs.nextId++
	cs.mapping[id] = Capability{
		Id:           id,
		ResourceType: src.ResourceType,
		ResourceId:   src.ResourceId,
		Rights:       derived,
	}
	return id, true
}

// Revoke removes and returns the capability. A subsequent Get for the same
// id returns nothing; because ids are never reused within a space, the id
// remains permanently invalid even though the underlying map slot is free.
func (cs *CSpace) Revoke(id Id) (Capability, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	c, ok := cs.mapping[id]
	if ok {
		delete(cs.mapping, id)
	}
	return c, ok
}
