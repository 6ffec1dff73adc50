/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package sched

import (
	"sync"
	"time"
)

// DefaultTickHz and DefaultTicksPerQuantum match the spec's recommended
// preemption cadence: 10 ticks at 100 Hz, i.e. roughly every 100ms.
const (
	DefaultTickHz          = 100
	DefaultTicksPerQuantum = 10
)

// TickSource drives Scheduler.Tick. GoTicker is the only production
// implementation; a bare-metal bring-up layer would implement this
// interface over a real hardware timer interrupt instead.
type TickSource interface {
	Start()
	Close() error
}

// GoTicker is the Go-native stand-in for a timer interrupt handler. It is
// built the way the examples build a supervised background goroutine: a
// die channel, a WaitGroup, and Start/Close methods, so the kernel's boot
// sequence can start and stop it exactly like any other long-running
// component.
type GoTicker struct {
	sched           *Scheduler
	period          time.Duration
	ticksPerQuantum int

	die chan struct{}
	wg  sync.WaitGroup

	tickCount uint64
}

// NewGoTicker returns a TickSource that calls sched.Tick once per period,
// preempting every ticksPerQuantum ticks.
func NewGoTicker(sched *Scheduler, hz int, ticksPerQuantum int) *GoTicker {
	if hz <= 0 {
		hz = DefaultTickHz
	}
	if ticksPerQuantum <= 0 {
		ticksPerQuantum = DefaultTicksPerQuantum
	}
	return &GoTicker{
		sched:           sched,
		period:          time.Second / time.Duration(hz),
		ticksPerQuantum: ticksPerQuantum,
		die:             make(chan struct{}),
	}
}

// Start launches the ticking goroutine. It is safe to call once.
func (g *GoTicker) Start() {
	g.wg.Add(1)
	go g.routine()
}

// Close signals the ticking goroutine to stop and waits for it to exit.
func (g *GoTicker) Close() error {
	close(g.die)
	g.wg.Wait()
	return nil
}

func (g *GoTicker) routine() {
	defer g.wg.Done()
	t := time.NewTicker(g.period)
	defer t.Stop()
	for {
		select {
		case <-g.die:
			return
		case <-t.C:
			g.sched.Tick(g.ticksPerQuantum, &g.tickCount)
		}
	}
}
