/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package wasmhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerichokernel/kernel/ktask"
)

func TestDeliveryQueueEnqueueDequeueOrder(t *testing.T) {
	q := newDeliveryQueue(MaxIpcQueueDepth)
	require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(1), data: []byte("a")}))
	require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(1), data: []byte("b")}))
	require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(2), data: []byte("c")}))
	assert.Equal(t, 3, q.Len())

	msg, ok := q.dequeueFor(ktask.Id(1))
	require.True(t, ok)
	assert.Equal(t, "a", string(msg.data))
	assert.Equal(t, 2, q.Len())

	msg, ok = q.dequeueFor(ktask.Id(1))
	require.True(t, ok)
	assert.Equal(t, "b", string(msg.data))

	_, ok = q.dequeueFor(ktask.Id(1))
	assert.False(t, ok)

	msg, ok = q.dequeueFor(ktask.Id(2))
	require.True(t, ok)
	assert.Equal(t, "c", string(msg.data))
}

func TestDeliveryQueueRejectsOverCapacity(t *testing.T) {
	q := newDeliveryQueue(MaxIpcQueueDepth)
	for i := 0; i < MaxIpcQueueDepth; i++ {
		require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(1), data: []byte("x")}))
	}
	assert.False(t, q.enqueue(pendingMessage{dest: ktask.Id(1), data: []byte("overflow")}))
	assert.Equal(t, MaxIpcQueueDepth, q.Len())
}

func TestDeliveryQueueRequeueFrontRestoresHeadPosition(t *testing.T) {
	q := newDeliveryQueue(MaxIpcQueueDepth)
	require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(1), data: []byte("first")}))
	require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(2), data: []byte("second")}))

	msg, ok := q.dequeueFor(ktask.Id(1))
	require.True(t, ok)
	q.requeueFront(msg)

	front, ok := q.dequeueFor(ktask.Id(1))
	require.True(t, ok)
	assert.Equal(t, "first", string(front.data))
}

func TestSubscriberRegistryPublishBroadcastsToAll(t *testing.T) {
	r := newSubscriberRegistry()
	q := newDeliveryQueue(MaxIpcQueueDepth)
	r.Subscribe(ktask.Id(1))
	r.Subscribe(ktask.Id(2))

	delivered := r.Publish(q, []byte("hi"))
	assert.Equal(t, 2, delivered)

	_, ok1 := q.dequeueFor(ktask.Id(1))
	_, ok2 := q.dequeueFor(ktask.Id(2))
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestSubscriberRegistryPublishStopsWhenQueueFull(t *testing.T) {
	r := newSubscriberRegistry()
	q := newDeliveryQueue(MaxIpcQueueDepth)
	r.Subscribe(ktask.Id(1))

	for i := 0; i < MaxIpcQueueDepth; i++ {
		require.True(t, q.enqueue(pendingMessage{dest: ktask.Id(99), data: []byte("filler")}))
	}

	delivered := r.Publish(q, []byte("late"))
	assert.Equal(t, 0, delivered)
}

func TestSubscriberRegistrySubscribeTwiceIsNoop(t *testing.T) {
	r := newSubscriberRegistry()
	q := newDeliveryQueue(MaxIpcQueueDepth)
	r.Subscribe(ktask.Id(1))
	r.Subscribe(ktask.Id(1))

	delivered := r.Publish(q, []byte("once"))
	assert.Equal(t, 1, delivered)
}
