/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package wasmhost

import (
	"sync"

	"github.com/jerichokernel/kernel/ktask"
)

// pendingMessage is one entry in the global Wasm delivery queue: a message
// addressed to a subscriber instance, waiting to be handed across the
// guest-directed buffer protocol.
type pendingMessage struct {
	dest ktask.Id
	data []byte
}

// deliveryQueue is the global Wasm IPC queue: bounded to MaxIpcQueueDepth,
// shared across every subscriber instance, and protected by its own lock
// rather than the registry-wide lock the kernel-level ipc package uses --
// this queue lives entirely below the wazero boundary and has no
// capability-cspace concept of its own. Unlike a plain bounded channel
// (the shape chancacher.ChanCacher wraps for its own buffering), delivery
// here needs to re-queue a message at the *front* when a subscriber
// declines it, which a channel cannot express; a slice guarded by a mutex
// is the straightforward fit.
type deliveryQueue struct {
	mu       sync.Mutex
	items    []pendingMessage
	maxDepth int
}

// newDeliveryQueue returns a queue bounded to maxDepth. A non-positive
// maxDepth falls back to MaxIpcQueueDepth.
func newDeliveryQueue(maxDepth int) *deliveryQueue {
	if maxDepth <= 0 {
		maxDepth = MaxIpcQueueDepth
	}
	return &deliveryQueue{maxDepth: maxDepth}
}

// Len reports the current depth.
func (q *deliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// enqueue appends msg at the tail if there is room, reporting whether it
// was admitted.
func (q *deliveryQueue) enqueue(msg pendingMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.maxDepth {
		return false
	}
	q.items = append(q.items, msg)
	return true
}

// dequeueFor pops the first queued message addressed to dest, if any.
func (q *deliveryQueue) dequeueFor(dest ktask.Id) (pendingMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.items {
		if m.dest == dest {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return m, true
		}
	}
	return pendingMessage{}, false
}

// requeueFront re-inserts msg at the head of the queue. Used when a
// subscriber instance does not export allocate_message_buffer: the
// message is not lost, delivery to that subscriber simply stops for now
// (see DeliverPending).
func (q *deliveryQueue) requeueFront(msg pendingMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]pendingMessage{msg}, q.items...)
}
