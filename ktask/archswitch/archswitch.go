/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package archswitch holds the one audited unsafe boundary in the kernel:
// the architecture-specific register-save/restore primitive. The scheduler
// in this tree does not call it (tasks resume through the goroutine baton
// described on ktask.Task); the primitive is exercised only by this
// package's own tests. One file pair per GOARCH supplies the
// real assembly (switch_amd64.go/.s, switch_arm64.go/.s); every other
// architecture falls back to a pure-Go stand-in in switch_generic.go so the
// module still builds, but that fallback gives none of the bit-for-bit
// register guarantees this package exists to provide and is never the path
// exercised by the archswitch tests.
package archswitch

// Context is the saved register file for one task: every live
// callee-saved register, the stack pointer, the resumption instruction
// pointer, and the flags word. It is plain data — ownership is exclusive to
// the Task that embeds it, and nothing outside Switch and NewInitial reads
// or writes it while a switch is in flight.
type Context struct {
	raw rawContext
}

// SP returns the saved stack pointer.
func (c *Context) SP() uintptr { return uintptr(c.raw.sp()) }

// IP returns the saved resumption instruction pointer.
func (c *Context) IP() uintptr { return uintptr(c.raw.ip()) }

// Switch saves the live register file into out and resumes execution with
// the register file in in, transferring control to in's saved instruction
// pointer. It never returns to its caller in the usual sense: control
// returns to whichever call to Switch next names out as its destination.
//
// Correctness obligations (see the Context Switch component): the stack
// pointer is restored before any instruction that touches the stack; the
// incoming instruction pointer is the only defined resumption mechanism;
// the routine has an explicit clobber list covering the full standard ABI
// so the Go compiler never observes the intermediate state.
func Switch(out, in *Context) {
	rawSwitch(&out.raw, &in.raw)
}

// NewInitial builds the context for a task that has never run. When
// restored by Switch it begins execution at trampoline with entry and arg
// available to the trampoline in the architecture's designated argument
// registers, and with the stack pointer set to the top of stack (stack must
// point one past the end of the owned stack slice; the callee pushes down
// from there). The flags field has the interrupt-enable bit set.
func NewInitial(stack []byte, trampoline, entry, arg uintptr) Context {
	var c Context
	newInitialContext(&c.raw, stack, trampoline, entry, arg)
	return c
}
