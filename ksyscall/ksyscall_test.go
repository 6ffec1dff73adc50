/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package ksyscall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerichokernel/kernel/capability"
	"github.com/jerichokernel/kernel/kerr"
	"github.com/jerichokernel/kernel/ktask"
)

func TestCapCreateAlwaysDenied(t *testing.T) {
	task := ktask.New("t", nil, 0)

	res := d(task).Syscall(uint64(CapCreate), 0, 1, capability.AllRights.Bits(), 0)
	require.True(t, res.Failed)
	assert.True(t, kerr.Is(res.Err, kerr.KindPermissionDenied))

	_, ok := task.CSpace.Get(1)
	assert.False(t, ok, "CapCreate must not have inserted anything into the task's own CSpace")
}

func TestCapDeriveSubsetSucceeds(t *testing.T) {
	task := ktask.New("t", nil, 0)
	src := task.CSpace.Create(capability.ResourceEndpoint, 7, capability.AllRights)

	res := d(task).Syscall(uint64(CapDerive), uint64(src), capability.Rights{Read: true}.Bits(), 0, 0)
	require.False(t, res.Failed)

	derived, ok := task.CSpace.Get(capability.Id(res.Ok))
	require.True(t, ok)
	assert.Equal(t, capability.Rights{Read: true}, derived.Rights)
}

func TestCapDeriveEscalationFails(t *testing.T) {
	task := ktask.New("t", nil, 0)
	src := task.CSpace.Create(capability.ResourceEndpoint, 7, capability.Rights{Read: true})

	res := d(task).Syscall(uint64(CapDerive), uint64(src), capability.Rights{Read: true, Write: true}.Bits(), 0, 0)
	require.True(t, res.Failed)
	assert.True(t, kerr.Is(res.Err, kerr.KindPermissionDenied))
}

func TestCapRevokeThenGetFails(t *testing.T) {
	task := ktask.New("t", nil, 0)
	id := task.CSpace.Create(capability.ResourceMemory, 1, capability.AllRights)

	res := d(task).Syscall(uint64(CapRevoke), uint64(id), 0, 0, 0)
	require.False(t, res.Failed)
	assert.Zero(t, res.Ok)

	_, ok := task.CSpace.Get(id)
	assert.False(t, ok)

	// revoking again is InvalidCapability, not a crash
	res2 := d(task).Syscall(uint64(CapRevoke), uint64(id), 0, 0, 0)
	assert.True(t, res2.Failed)
	assert.True(t, kerr.Is(res2.Err, kerr.KindInvalidCapability))
}

func TestCapInvokeStubReturnsOne(t *testing.T) {
	task := ktask.New("t", nil, 0)
	id := task.CSpace.Create(capability.ResourceThread, 99, capability.Rights{})

	res := d(task).Syscall(uint64(CapInvoke), uint64(id), 0, 0, 0)
	require.False(t, res.Failed)
	assert.EqualValues(t, 1, res.Ok)
}

func TestCapInvokeMissingCapability(t *testing.T) {
	task := ktask.New("t", nil, 0)
	res := d(task).Syscall(uint64(CapInvoke), 12345, 0, 0, 0)
	require.True(t, res.Failed)
	assert.True(t, kerr.Is(res.Err, kerr.KindInvalidCapability))
}

func TestPrintAlwaysSucceeds(t *testing.T) {
	task := ktask.New("t", nil, 0)
	res := d(task).Syscall(uint64(Print), 42, 0, 0, 0)
	require.False(t, res.Failed)
	assert.Zero(t, res.Ok)
}

func TestUnknownSyscallIsInvalidSyscall(t *testing.T) {
	task := ktask.New("t", nil, 0)
	res := d(task).Syscall(9999, 0, 0, 0, 0)
	require.True(t, res.Failed)
	assert.True(t, kerr.Is(res.Err, kerr.KindInvalidSyscall))
}

func d(task *ktask.Task) *Dispatcher { return NewDispatcher(task, nil) }
