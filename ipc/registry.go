/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package ipc

import (
	"sync"

	"github.com/jerichokernel/kernel/capability"
	"github.com/jerichokernel/kernel/kerr"
	"github.com/jerichokernel/kernel/ktask"
	"github.com/jerichokernel/kernel/sched"
)

// Registry is the process-wide endpoint registry: a map from a capability's
// resource id to its Endpoint, protected by a single lock. It is a
// singleton handed explicitly to whoever boots the kernel, alongside the
// Scheduler it uses to block and wake receivers.
type Registry struct {
	mu        sync.Mutex
	endpoints map[uint64]*Endpoint

	scheduler      *sched.Scheduler
	maxMessageSize int
}

// NewRegistry returns an empty Registry driven by scheduler, using the
// package's default MaxMessageSize.
func NewRegistry(scheduler *sched.Scheduler) *Registry {
	return NewRegistryWithLimits(scheduler, MaxMessageSize)
}

// NewRegistryWithLimits is NewRegistry with the per-message size bound
// taken from the kernel's boot config ([ipc] section) rather than this
// package's built-in default. A non-positive maxMessageSize falls back to
// MaxMessageSize.
func NewRegistryWithLimits(scheduler *sched.Scheduler, maxMessageSize int) *Registry {
	if maxMessageSize <= 0 {
		maxMessageSize = MaxMessageSize
	}
	return &Registry{
		endpoints:      make(map[uint64]*Endpoint),
		scheduler:      scheduler,
		maxMessageSize: maxMessageSize,
	}
}

// CreateEndpoint registers a new endpoint identified by resourceId, the
// resource id of an existing capability of type Endpoint. maxQueue <= 0
// uses DefaultMaxQueue.
func (r *Registry) CreateEndpoint(resourceId uint64, maxQueue int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[resourceId] = newEndpoint(resourceId, maxQueue)
}

// checkCapability performs the first three layers of the send/receive
// capability check shared by Send, TryReceive and the retry inside
// ReceiveBlocking: the capability must be present, of type Endpoint, and
// carry the required right.
func checkCapability(cspace *capability.CSpace, capId capability.Id, needWrite bool) (capability.Capability, error) {
	cap, ok := cspace.Get(capId)
	if !ok {
		return capability.Capability{}, kerr.New(kerr.KindPermissionDenied)
	}
	if cap.ResourceType != capability.ResourceEndpoint {
		return capability.Capability{}, kerr.New(kerr.KindPermissionDenied)
	}
	if needWrite && !cap.Rights.Write {
		return capability.Capability{}, kerr.New(kerr.KindPermissionDenied)
	}
	if !needWrite && !cap.Rights.Read {
		return capability.Capability{}, kerr.New(kerr.KindPermissionDenied)
	}
	return cap, nil
}

// Send implements the send operation: capability checks, endpoint lookup,
// queue-full, then message-size, enqueue, then wake every waiter. The
// queue-full check runs before the message-size check, matching §4.5's
// step ordering (step 5 QueueFull precedes step 6 MessageTooLarge).
func (r *Registry) Send(sender *ktask.Task, endpointCap capability.Id, data []byte) error {
	cap, err := checkCapability(sender.CSpace, endpointCap, true)
	if err != nil {
		return err
	}

	r.mu.Lock()
	ep, ok := r.endpoints[cap.ResourceId]
	if !ok {
		r.mu.Unlock()
		return kerr.New(kerr.KindEndpointNotFound)
	}
	if ep.Len() >= ep.MaxQueue() {
		r.mu.Unlock()
		return kerr.New(kerr.KindQueueFull)
	}
	if len(data) > r.maxMessageSize {
		r.mu.Unlock()
		return kerr.New(kerr.KindMessageTooLarge)
	}

	msg := Message{Sender: sender.Id, Data: append([]byte(nil), data...)}
	ep.queue = append(ep.queue, msg)

	waiters := ep.waiters
	ep.waiters = make(map[ktask.Id]struct{})
	r.mu.Unlock()

	for waiterId := range waiters {
		r.scheduler.Unblock(waiterId)
	}
	return nil
}

// TryReceive implements the non-blocking receive: same capability checks as
// Send but requiring read, popping the queue's front if non-empty.
func (r *Registry) TryReceive(receiver *ktask.Task, endpointCap capability.Id) (*Message, error) {
	cap, err := checkCapability(receiver.CSpace, endpointCap, false)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[cap.ResourceId]
	if !ok {
		return nil, kerr.New(kerr.KindEndpointNotFound)
	}
	if len(ep.queue) == 0 {
		return nil, nil
	}
	msg := ep.queue[0]
	ep.queue = ep.queue[1:]
	return &msg, nil
}

// ReceiveBlocking implements receive_blocking: attempt TryReceive; if a
// message comes back, or an error other than "no message", return
// immediately; otherwise join the endpoint's waiter set and block, then
// retry once woken. Retrying re-runs the full capability check, so a
// revoked capability surfaces as PermissionDenied instead of the task
// waking up to a message it no longer has rights to receive.
func (r *Registry) ReceiveBlocking(receiver *ktask.Task, endpointCap capability.Id) (*Message, error) {
	for {
		msg, err := r.TryReceive(receiver, endpointCap)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}

		cap, err := checkCapability(receiver.CSpace, endpointCap, false)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		ep, ok := r.endpoints[cap.ResourceId]
		if !ok {
			r.mu.Unlock()
			return nil, kerr.New(kerr.KindEndpointNotFound)
		}
		ep.waiters[receiver.Id] = struct{}{}
		r.mu.Unlock()

		if err := r.scheduler.BlockCurrent(receiver); err != nil {
			return nil, err
		}
		// Woken: loop back and re-check the capability before retrying.
	}
}
