/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package wasmhost is the bridge between the kernel and sandboxed Wasm
// tasks: it instantiates modules with wazero, exposes a fixed set of host
// functions under the "env" import name, and delivers kernel-originated
// IPC messages back into a guest's own linear memory through a
// guest-directed buffer protocol rather than ever writing to a
// kernel-chosen address.
package wasmhost

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"

	"github.com/jerichokernel/kernel/capability"
	"github.com/jerichokernel/kernel/ktask"
)

// MaxIpcMessageSize bounds a message a Wasm guest submits through
// sys_ipc_send. This is deliberately far smaller than ipc.MaxMessageSize:
// Wasm-originated traffic is untrusted and this bound is part of the
// guest's sandbox, not just a resource limit.
const MaxIpcMessageSize = 512

// MaxIpcQueueDepth bounds the global Wasm delivery queue, shared across
// every subscriber.
const MaxIpcQueueDepth = 64

// guestMemory is the subset of api.Memory this package depends on. wazero's
// api.Memory already satisfies it structurally; the indirection exists so
// the capability-check and bounds-check logic below can be exercised with
// a fake in tests without instantiating a real Wasm module.
type guestMemory interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// Instance is { module, store, instance, granted_capabilities } from the
// data model. granted_capabilities is append-only from the kernel side;
// there is no exported method that removes an entry, which is what keeps
// guest code from ever mutating its own grant set.
type Instance struct {
	Id       ktask.Id
	ModuleId uint64
	Module   api.Module

	mu      sync.RWMutex
	granted []capability.Capability
}

// NewInstance wraps an already-instantiated Wasm module. ModuleId is
// minted fresh per load from a random UUID rather than derived from the
// module bytes: the data model's ResourceType.WasmModule capability only
// needs a 64-bit handle that is unique per loaded instance, not a
// content-address, and a fresh UUID per load is simpler than hashing the
// module image. The kernel grants IPC/MQTT capabilities into the instance
// explicitly after construction; a freshly created Instance starts with an
// empty granted set, so a guest that is handed no capabilities can perform
// no IPC at all (see scenario 5 in the testable properties).
func NewInstance(id ktask.Id, mod api.Module) *Instance {
	return &Instance{Id: id, ModuleId: newModuleId(), Module: mod}
}

// newModuleId mints a fresh module handle from a random UUID's leading
// eight bytes.
func newModuleId() uint64 {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8])
}

// Grant appends cap to the instance's granted-capability set. Only kernel
// boot/wiring code should call this; nothing in the host-function table
// exposes a path to it.
func (inst *Instance) Grant(cap capability.Capability) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.granted = append(inst.granted, cap)
}

// findEndpointGrant returns the first granted capability naming resourceId
// as an Endpoint, and whether one was found.
func (inst *Instance) findEndpointGrant(resourceId uint64) (capability.Capability, bool) {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	for _, c := range inst.granted {
		if c.ResourceType == capability.ResourceEndpoint && c.ResourceId == resourceId {
			return c, true
		}
	}
	return capability.Capability{}, false
}

// sendResult is the host-function integer return code table from the
// bridge's capability check, kept as a named type so the four-layer check
// below reads as a decision table rather than a pile of bare literals.
type sendResult int32

const (
	sendOK           sendResult = 0
	sendPermission   sendResult = -1 // EACCES: no matching capability
	sendMissingRight sendResult = -2 // EPERM: capability present, write not held
	sendBadAddress   sendResult = -3 // EFAULT: pointer/length out of bounds
	sendTooLarge     sendResult = -4 // message exceeds MaxIpcMessageSize
	sendQueueFull    sendResult = -5
)

// checkIpcSend implements the four-layer check spec'd for sys_ipc_send, in
// order: capability presence, the write right, the memory-bounds/size
// check, then queue admission. Queue admission is checked last, and the
// guest memory is only actually copied after it passes -- a hostile guest
// that keeps submitting sends destined to fail the queue check can never
// force the kernel to allocate a copy of the message first.
func checkIpcSend(inst *Instance, mem guestMemory, dest uint64, ptr, length uint32, queueLen int, maxMessageSize, maxQueueDepth int) (sendResult, []byte) {
	cap, ok := inst.findEndpointGrant(dest)
	if !ok {
		return sendPermission, nil
	}
	if !cap.Rights.Write {
		return sendMissingRight, nil
	}
	if length > uint32(maxMessageSize) {
		return sendTooLarge, nil
	}
	end := uint64(ptr) + uint64(length)
	if end > uint64(mem.Size()) {
		return sendBadAddress, nil
	}
	if queueLen >= maxQueueDepth {
		return sendQueueFull, nil
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return sendBadAddress, nil
	}
	return sendOK, data
}
