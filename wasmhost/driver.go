/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package wasmhost

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jerichokernel/kernel/ktask"
)

// CallExported drives one call into a Wasm task's exported function and is
// the concrete checkpoint where the cooperative preemption design in
// package sched actually takes effect: spec.md's timer tick can only ever
// mark self.Task.RequestPreempt, never force a running goroutine off the
// CPU, so a task's own driver loop must consult
// ConsumePreemptRequest between guest calls and yield voluntarily when it
// is set. A task body that calls CallExported in a loop -- once per guest
// turn of work -- gets exactly the "runs until it yields, blocks, or the
// timer says its quantum is up" behaviour spec.md describes, even though
// no signal ever reaches the guest mid-call.
func (b *Bridge) CallExported(ctx context.Context, t *ktask.Task, funcName string, args ...uint64) ([]uint64, error) {
	inst, ok := b.instance(t.Id)
	if !ok {
		return nil, errors.Errorf("wasmhost: no instance for task %d", t.Id)
	}
	fn := inst.Module.ExportedFunction(funcName)
	if fn == nil {
		return nil, errors.Errorf("wasmhost: task %d exports no function %q", t.Id, funcName)
	}

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "calling exported function %q", funcName)
	}

	if t.ConsumePreemptRequest() {
		b.scheduler.YieldCPU(t)
	}
	return results, nil
}

// DeliverAll attempts delivery of every currently-queued message across
// every live instance, one goroutine per instance, supervised by an
// errgroup so a delivery failure on one instance is reported without
// stopping delivery to the others. Intended to be called once per timer
// tick (or on demand after a send) from boot wiring, alongside the
// scheduler's own TickSource.
func (b *Bridge) DeliverAll(ctx context.Context) error {
	b.mu.Lock()
	ids := make([]ktask.Id, 0, len(b.instances))
	for id := range b.instances {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := b.DeliverPending(gctx, id)
			return err
		})
	}
	return g.Wait()
}
