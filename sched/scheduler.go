/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package sched implements the round-robin scheduler: task table, ready
// queue, and the yield_cpu/block_current/unblock/terminate_current
// operations that are the critical path of the kernel.
package sched

import (
	"sync"

	"github.com/jerichokernel/kernel/kerr"
	"github.com/jerichokernel/kernel/kernlog"
	"github.com/jerichokernel/kernel/ktask"
)

// Scheduler is { tasks, current, ready_queue } from the data model, plus
// the baton-passing machinery described in ktask.Task. There is exactly
// one Scheduler per running kernel; it is a process-wide singleton handed
// explicitly to whoever boots the system (see cmd/kerneld), never a
// package-level global.
type Scheduler struct {
	mu sync.Mutex

	tasks   map[ktask.Id]*ktask.Task
	readyQ  []ktask.Id
	current ktask.Id // 0 means "idle": no task is Running

	// idle is the boot goroutine's own baton. When the ready queue is
	// empty the outgoing task hands control back here instead of to a
	// task, and Run's loop regains control to wait for the next tick or
	// external wake.
	idle chan struct{}

	interruptsEnabled bool

	lg *kernlog.Logger
}

// New returns an empty Scheduler. lg may be nil, in which case the
// scheduler logs nothing.
func New(lg *kernlog.Logger) *Scheduler {
	return &Scheduler{
		tasks:             make(map[ktask.Id]*ktask.Task),
		idle:              make(chan struct{}),
		interruptsEnabled: true,
		lg:                lg,
	}
}

// Add inserts t into the task table and appends its id to the ready queue,
// starting its goroutine so it is ready to receive the baton.
func (s *Scheduler) Add(t *ktask.Task) ktask.Id {
	s.mu.Lock()
	s.tasks[t.Id] = t
	s.readyQ = append(s.readyQ, t.Id)
	s.mu.Unlock()

	t.StartGoroutine(func() { s.terminateGoroutine(t) })
	return t.Id
}

// Current returns the id of the Running task, if any.
func (s *Scheduler) Current() (ktask.Id, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == 0 {
		return 0, false
	}
	return s.current, true
}

// Get looks up a task by id.
func (s *Scheduler) Get(id ktask.Id) (*ktask.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// popReady pops the head of the ready queue. Caller must hold s.mu.
func (s *Scheduler) popReady() (ktask.Id, bool) {
	if len(s.readyQ) == 0 {
		return 0, false
	}
	id := s.readyQ[0]
	s.readyQ = s.readyQ[1:]
	return id, true
}

// pushReady appends to the tail of the ready queue. Caller must hold s.mu.
func (s *Scheduler) pushReady(id ktask.Id) {
	s.readyQ = append(s.readyQ, id)
}

// removeReady removes id from the ready queue wherever it sits. Caller
// must hold s.mu. Used by block_current/terminate_current, whose outgoing
// task is Running (and so never actually in the ready queue) -- kept for
// defence in depth against a future caller that races the invariant.
func (s *Scheduler) removeReady(id ktask.Id) {
	for i, rid := range s.readyQ {
		if rid == id {
			s.readyQ = append(s.readyQ[:i], s.readyQ[i+1:]...)
			return
		}
	}
}

// schedule pops the head of the ready queue, demotes the previously
// current task to Ready if it is still Running, promotes the new task to
// Running, and returns it. Caller must hold s.mu. Returns (nil, nil) if
// the ready queue is empty.
func (s *Scheduler) schedule() (*ktask.Task, error) {
	if s.current != 0 {
		if outgoing, ok := s.tasks[s.current]; ok && outgoing.State() == ktask.Running {
			if err := outgoing.ToReady(); err != nil {
				return nil, err
			}
			s.pushReady(outgoing.Id)
		}
	}

	id, ok := s.popReady()
	if !ok {
		s.current = 0
		return nil, nil
	}
	next, ok := s.tasks[id]
	if !ok {
		return nil, kerr.Wrap(kerr.KindInvalidArgument, errSchedulerInvariant("ready queue named unknown task"))
	}
	if err := next.ToRunning(); err != nil {
		return nil, err
	}
	s.current = next.Id
	return next, nil
}

type schedulerInvariantError string

func errSchedulerInvariant(msg string) error { return schedulerInvariantError(msg) }
func (e schedulerInvariantError) Error() string {
	return "scheduler invariant violation: " + string(e)
}

// Run is the boot entry point: it takes the very first schedule decision
// and grants the baton, then blocks as the kernel's idle context. It
// returns only when every task has terminated and the ready queue is
// permanently empty with no task Blocked -- i.e. there is nothing left to
// schedule. Callers that want a timer tick driving preemption should start
// a TickSource before calling Run.
func (s *Scheduler) Run() {
	for {
		s.mu.Lock()
		next, err := s.schedule()
		s.mu.Unlock()
		if err != nil {
			if s.lg != nil {
				s.lg.Error("scheduler invariant violation", kernlog.KVErr(err))
			}
			return
		}
		if next == nil {
			// Nothing ready. If every task is also not Blocked, we're done;
			// otherwise something will call Unblock and we should retry.
			if !s.hasBlocked() {
				return
			}
			<-s.idle
			continue
		}
		next.Grant()
		<-s.idle
	}
}

func (s *Scheduler) hasBlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.State() == ktask.Blocked {
			return true
		}
	}
	return false
}

// handoff performs the common second half of yield_cpu/block_current/
// terminate_current: pick the next task under the scheduler lock, release
// the lock, and pass the baton. If outgoingParks is true the caller's
// goroutine (which must be the outgoing task's own) blocks here until
// granted the baton again; terminate_current passes false since that
// goroutine is exiting.
func (s *Scheduler) handoff(outgoingParks bool, outgoing *ktask.Task) {
	s.mu.Lock()
	next, err := s.schedule()
	s.mu.Unlock()

	if err != nil {
		if s.lg != nil {
			s.lg.Error("scheduler invariant violation during handoff", kernlog.KVErr(err))
		}
		return
	}

	if next == nil {
		s.idle <- struct{}{}
	} else if next.Id == outgoingIdOrZero(outgoing) && outgoingParks {
		// schedule() put the same task straight back in Running -- the
		// ready queue was otherwise empty. Nothing to hand off.
		return
	} else {
		next.Grant()
	}

	if outgoingParks {
		outgoing.AwaitTurn()
	}
}

func outgoingIdOrZero(t *ktask.Task) ktask.Id {
	if t == nil {
		return 0
	}
	return t.Id
}

// YieldCPU is the public entry point described in the yield_cpu contract:
// disable interrupts, determine outgoing/incoming under the scheduler
// lock, release the lock, switch, and restore the interrupt-enable state
// on resumption. "Disable interrupts" and "restore" are modelled as a
// boolean flag rather than a real platform call, since real interrupt
// control belongs to the bring-up layer this core treats as an external
// collaborator (see §6); the sequencing they exist to protect --
// preventing a reentrant scheduler invocation mid critical-section -- is
// still enforced because the scheduler lock itself serialises every
// caller.
func (s *Scheduler) YieldCPU(self *ktask.Task) {
	prevEnabled := s.disableInterrupts()

	s.handoff(true, self)

	s.restoreInterrupts(prevEnabled)
}

func (s *Scheduler) disableInterrupts() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.interruptsEnabled
	s.interruptsEnabled = false
	return prev
}

func (s *Scheduler) restoreInterrupts(prev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interruptsEnabled = prev
}

// BlockCurrent sets self's state to Blocked, removes it from the ready
// queue (a no-op in practice since a Running task is never in the ready
// queue, kept for symmetry with the spec's operation list), and schedules
// the next task. It must be called from self's own goroutine; it returns
// once self is granted the baton again by a future Unblock-triggered
// schedule.
func (s *Scheduler) BlockCurrent(self *ktask.Task) error {
	s.mu.Lock()
	if err := self.ToBlocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.removeReady(self.Id)
	s.current = 0
	s.mu.Unlock()

	s.handoff(true, self)
	return nil
}

// Unblock sets a Blocked task to Ready and appends it to the ready queue
// tail. It does not transfer control immediately; the task is picked up by
// a later, ordinary schedule() the same as any other ready task.
func (s *Scheduler) Unblock(id ktask.Id) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return kerr.New(kerr.KindInvalidCapability)
	}
	if t.State() != ktask.Blocked {
		s.mu.Unlock()
		return nil
	}
	if err := t.ToUnblocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pushReady(id)
	wasIdle := s.current == 0
	s.mu.Unlock()

	// Wake the idle loop only if the kernel had nothing ready to run: if a
	// task is currently Running, Run is not parked on s.idle at all, and a
	// proactive send here would instead race the next real handoff --
	// Run would pull the scheduler lock concurrently with the running
	// task's own yield/block/terminate path and could hand the same task
	// its turn token twice.
	if wasIdle {
		select {
		case s.idle <- struct{}{}:
		default:
		}
	}
	return nil
}

// terminateGoroutine is installed as the onTerminate callback for every
// task added via Add. It runs on the terminating task's own goroutine
// after its Entry has returned.
func (s *Scheduler) terminateGoroutine(t *ktask.Task) {
	s.mu.Lock()
	if err := t.ToTerminated(); err != nil {
		s.mu.Unlock()
		if s.lg != nil {
			s.lg.Error("scheduler invariant violation terminating task", kernlog.KV("task", t.Name), kernlog.KVErr(err))
		}
		return
	}
	s.removeReady(t.Id)
	s.current = 0
	s.mu.Unlock()

	s.handoff(false, t)
}

// Tick drives one timer tick. It is called by a TickSource, not by tasks
// themselves.
func (s *Scheduler) Tick(ticksPerQuantum int, tickCount *uint64) {
	*tickCount++
	if ticksPerQuantum <= 0 || *tickCount%uint64(ticksPerQuantum) != 0 {
		return
	}
	s.preempt()
}

// preempt is the in-interrupt path described in the timer preemption
// design: rather than forcibly switching the current Running task's
// goroutine -- which the Go runtime gives no safe way to do to arbitrary
// code from the outside -- it marks the task as owing a yield. The task's
// own driver (see package wasmhost) checks ConsumePreemptRequest between
// guest host-function calls and, if set, calls YieldCPU voluntarily at
// that checkpoint. This is the cooperative reading of "timer-driven
// preemption" that a managed runtime can deliver honestly.
func (s *Scheduler) preempt() {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == 0 {
		return
	}
	t, ok := s.Get(cur)
	if !ok {
		return
	}
	t.RequestPreempt()
}
