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

// subscriberRegistry is the process-wide MQTT-style subscriber list:
// sys_mqtt_subscribe adds an instance id to it, sys_mqtt_publish walks it
// to fan a message out. It is topic-blind: sys_mqtt_subscribe and
// sys_mqtt_publish both pass topic bytes, which the host functions only
// log, so every subscriber receives every publish.
type subscriberRegistry struct {
	mu   sync.Mutex
	subs map[ktask.Id]struct{}
}

func newSubscriberRegistry() *subscriberRegistry {
	return &subscriberRegistry{subs: make(map[ktask.Id]struct{})}
}

// Subscribe adds cid to the subscriber set. Subscribing twice is a no-op.
func (r *subscriberRegistry) Subscribe(cid ktask.Id) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[cid] = struct{}{}
}

// Publish enqueues one copy of data for every current subscriber, via q.
// It stops as soon as the queue refuses a copy and returns how many
// subscribers actually got one, matching the spec's "remaining
// subscribers miss this message" resource-limit behaviour.
func (r *subscriberRegistry) Publish(q *deliveryQueue, data []byte) int {
	r.mu.Lock()
	targets := make([]ktask.Id, 0, len(r.subs))
	for cid := range r.subs {
		targets = append(targets, cid)
	}
	r.mu.Unlock()

	delivered := 0
	for _, cid := range targets {
		cp := append([]byte(nil), data...)
		if !q.enqueue(pendingMessage{dest: cid, data: cp}) {
			break
		}
		delivered++
	}
	return delivered
}
