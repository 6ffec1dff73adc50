/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package ipc

import "github.com/jerichokernel/kernel/ktask"

// Endpoint is { id, queue, waiters, max_queue }. It is only ever accessed
// through the owning Registry's lock; there is no per-endpoint lock, which
// is what makes the FIFO/ordering invariant straightforward to reason
// about -- the same single-lock-covers-everything shape the original
// source's endpoint registry uses.
type Endpoint struct {
	resourceId uint64
	maxQueue   int

	queue   []Message
	waiters map[ktask.Id]struct{}
}

func newEndpoint(resourceId uint64, maxQueue int) *Endpoint {
	if maxQueue <= 0 {
		maxQueue = DefaultMaxQueue
	}
	return &Endpoint{
		resourceId: resourceId,
		maxQueue:   maxQueue,
		waiters:    make(map[ktask.Id]struct{}),
	}
}

// Len returns the current queue depth. Callers must hold the owning
// Registry's lock.
func (e *Endpoint) Len() int { return len(e.queue) }

// MaxQueue returns the endpoint's configured bound.
func (e *Endpoint) MaxQueue() int { return e.maxQueue }
