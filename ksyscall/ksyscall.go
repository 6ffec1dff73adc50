/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package ksyscall dispatches the integer-tagged syscall surface from §6
// onto the capability package, using a Task's own CSpace for authorisation.
// Every operation returns a value-typed Result rather than panicking or
// unwinding, matching the error handling design's propagation policy.
package ksyscall

import (
	"github.com/jerichokernel/kernel/capability"
	"github.com/jerichokernel/kernel/kerr"
	"github.com/jerichokernel/kernel/kernlog"
	"github.com/jerichokernel/kernel/ktask"
)

// Number is one of the integer-tagged syscalls from §6's table.
type Number uint64

const (
	CapCreate Number = 0
	CapDerive Number = 1
	CapRevoke Number = 2
	CapInvoke Number = 3
	Print     Number = 100
)

func (n Number) String() string {
	switch n {
	case CapCreate:
		return "CapCreate"
	case CapDerive:
		return "CapDerive"
	case CapRevoke:
		return "CapRevoke"
	case CapInvoke:
		return "CapInvoke"
	case Print:
		return "Print"
	default:
		return "InvalidSyscall"
	}
}

// Result is the two-variant success/error value §6 specifies: exactly one
// of Ok or Err is meaningful, distinguished by Failed.
type Result struct {
	Ok     uint64
	Err    error
	Failed bool
}

func ok(v uint64) Result          { return Result{Ok: v} }
func fail(err error) Result       { return Result{Err: err, Failed: true} }
func failKind(k kerr.Kind) Result { return fail(kerr.New(k)) }

// Dispatcher binds syscall numbers to a calling task's own CSpace. One
// Dispatcher per task, constructed by whoever drives that task. The
// host-function table in package wasmhost is a separate surface and does
// not route through a Dispatcher.
type Dispatcher struct {
	task *ktask.Task
	lg   *kernlog.Logger
}

// NewDispatcher returns a Dispatcher authorising syscalls against task's
// own CSpace. lg may be nil.
func NewDispatcher(task *ktask.Task, lg *kernlog.Logger) *Dispatcher {
	return &Dispatcher{task: task, lg: lg}
}

// Syscall handles one syscall, routing on num. A syscall number outside
// the table below is InvalidSyscall rather than a panic, per the error
// handling design's "malformed user request" kind.
func (d *Dispatcher) Syscall(num uint64, a1, a2, a3, a4 uint64) Result {
	switch Number(num) {
	case CapCreate:
		return d.sysCapCreate(a1, a2, a3)
	case CapDerive:
		return d.sysCapDerive(a1, a2)
	case CapRevoke:
		return d.sysCapRevoke(a1)
	case CapInvoke:
		return d.sysCapInvoke(a1, a2, a3, a4)
	case Print:
		return d.sysPrint(a1)
	default:
		return failKind(kerr.KindInvalidSyscall)
	}
}

// sysCapCreate is always Denied: §6's table marks syscall 0 "Denied
// (security)" exactly because unforgeability requires that no non-kernel
// caller ever mint a capability out of thin air. Trusted kernel code that
// legitimately needs to create one calls capability.CSpace.Create
// directly; this syscall entry point exists only to occupy syscall number
// 0 and refuse it, never to forward the call.
func (d *Dispatcher) sysCapCreate(resourceType, resourceId, rightsBits uint64) Result {
	_ = resourceType
	_ = resourceId
	_ = rightsBits
	return failKind(kerr.KindPermissionDenied)
}

func (d *Dispatcher) sysCapDerive(sourceId, rightsBits uint64) Result {
	newId, ok2 := d.task.CSpace.Derive(capability.Id(sourceId), capability.RightsFromBits(rightsBits))
	if !ok2 {
		return failKind(kerr.KindPermissionDenied)
	}
	return ok(uint64(newId))
}

func (d *Dispatcher) sysCapRevoke(capId uint64) Result {
	if _, found := d.task.CSpace.Revoke(capability.Id(capId)); !found {
		return failKind(kerr.KindInvalidCapability)
	}
	return ok(0)
}

// sysCapInvoke is the stub §6 and the Open Questions section call for: it
// returns success(1) once the capability is confirmed present, regardless
// of ResourceType. A real per-resource-type dispatch is explicitly left
// undecided (see DESIGN.md); inventing one here would contradict that
// Open Question's recorded decision.
func (d *Dispatcher) sysCapInvoke(capId, a2, a3, a4 uint64) Result {
	_ = a2
	_ = a3
	_ = a4
	cap, found := d.task.CSpace.Get(capability.Id(capId))
	if !found {
		return failKind(kerr.KindInvalidCapability)
	}
	if d.lg != nil {
		d.lg.Debug("capability invoked",
			kernlog.KV("task", d.task.Name),
			kernlog.KV("cap", capId),
			kernlog.KV("resource_type", cap.ResourceType.String()),
			kernlog.KV("resource_id", cap.ResourceId))
	}
	return ok(1)
}

func (d *Dispatcher) sysPrint(value uint64) Result {
	if d.lg != nil {
		d.lg.Info("syscall print", kernlog.KV("task", d.task.Name), kernlog.KV("value", value))
	}
	return ok(0)
}
