/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package ktask

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskStartsReady(t *testing.T) {
	tk := New("probe", nil, 0)
	assert.Equal(t, Ready, tk.State())
	assert.NotZero(t, tk.Id)
	assert.NotNil(t, tk.CSpace)
	assert.Len(t, tk.Stack, DefaultStackSize)
}

func TestTaskIdsAreMonotoneAndUnique(t *testing.T) {
	a := New("a", nil, 0)
	b := New("b", nil, 0)
	c := New("c", nil, 0)
	assert.Less(t, uint64(a.Id), uint64(b.Id))
	assert.Less(t, uint64(b.Id), uint64(c.Id))
}

func TestInitialContextStackPointerWithinOwnedStack(t *testing.T) {
	tk := New("probe", nil, 0)
	sp := tk.Context.SP()
	base := uintptr(0)
	if len(tk.Stack) > 0 {
		base = uintptr(unsafe.Pointer(&tk.Stack[0]))
	}
	top := base + uintptr(len(tk.Stack))
	assert.GreaterOrEqual(t, sp, base)
	assert.LessOrEqual(t, sp, top)
}

func TestLegalStateTransitions(t *testing.T) {
	tk := New("probe", nil, 0)
	require.NoError(t, tk.ToRunning())
	assert.Equal(t, Running, tk.State())

	require.NoError(t, tk.ToReady())
	assert.Equal(t, Ready, tk.State())

	require.NoError(t, tk.ToRunning())
	require.NoError(t, tk.ToBlocked())
	assert.Equal(t, Blocked, tk.State())

	require.NoError(t, tk.ToUnblocked())
	assert.Equal(t, Ready, tk.State())

	require.NoError(t, tk.ToRunning())
	require.NoError(t, tk.ToTerminated())
	assert.Equal(t, Terminated, tk.State())
}

func TestIllegalStateTransitionsAreRejected(t *testing.T) {
	tk := New("probe", nil, 0)

	// Ready -> Blocked is not legal; only Running -> Blocked is.
	assert.Error(t, tk.ToBlocked())
	assert.Equal(t, Ready, tk.State())

	// Ready -> Terminated is not legal.
	assert.Error(t, tk.ToTerminated())
	assert.Equal(t, Ready, tk.State())

	require.NoError(t, tk.ToRunning())
	// Running -> Running (double-run) is not legal.
	assert.Error(t, tk.ToRunning())
	assert.Equal(t, Running, tk.State())

	require.NoError(t, tk.ToTerminated())
	// Terminated is a sink: nothing legally leaves it.
	assert.Error(t, tk.ToReady())
	assert.Error(t, tk.ToRunning())
	assert.Error(t, tk.ToBlocked())
	assert.Error(t, tk.ToUnblocked())
	assert.Equal(t, Terminated, tk.State())
}

func TestGrantAwaitTurnBaton(t *testing.T) {
	tk := New("probe", nil, 0)
	ran := make(chan struct{})
	go func() {
		tk.AwaitTurn()
		close(ran)
	}()
	tk.Grant()
	<-ran
}

func TestStartGoroutineRunsEntryThenOnTerminate(t *testing.T) {
	entryRan := make(chan struct{})
	terminated := make(chan struct{})

	tk := New("probe", func(arg uintptr) { close(entryRan) }, 0)
	tk.StartGoroutine(func() { close(terminated) })

	tk.Grant()
	<-entryRan
	<-terminated
}

func TestRequestPreemptIsConsumedOnce(t *testing.T) {
	tk := New("probe", nil, 0)
	assert.False(t, tk.ConsumePreemptRequest())

	tk.RequestPreempt()
	assert.True(t, tk.ConsumePreemptRequest())
	assert.False(t, tk.ConsumePreemptRequest())
}
