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
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"

	"github.com/jerichokernel/kernel/kernlog"
	"github.com/jerichokernel/kernel/ktask"
	"github.com/jerichokernel/kernel/sched"
)

// Bridge owns the wazero runtime, the fixed "env" host module, and the
// process-wide state the spec calls out as singletons at this layer: the
// MQTT-style subscriber list and the global Wasm delivery queue. One
// Bridge serves every Wasm task in the kernel; it is handed explicitly to
// boot code the same way Scheduler and ipc.Registry are, never reached
// through a package-level global.
type Bridge struct {
	wz        wazero.Runtime
	scheduler *sched.Scheduler
	lg        *kernlog.Logger

	mqtt  *subscriberRegistry
	queue *deliveryQueue

	maxIpcMessageSize int
	maxIpcQueueDepth  int

	mu        sync.Mutex
	instances map[ktask.Id]*Instance
	byModule  map[string]ktask.Id
}

// NewBridge constructs a wazero runtime, registers the "env" host module
// against it, and returns a ready-to-use Bridge using the package's default
// Wasm IPC limits (MaxIpcMessageSize, MaxIpcQueueDepth). scheduler is used
// to skip delivery to a task that is currently Running and to let a task
// driver loop honour a pending preemption request between host calls; lg
// may be nil.
func NewBridge(ctx context.Context, scheduler *sched.Scheduler, lg *kernlog.Logger) (*Bridge, error) {
	return NewBridgeWithLimits(ctx, scheduler, lg, MaxIpcMessageSize, MaxIpcQueueDepth)
}

// NewBridgeWithLimits is NewBridge with the Wasm-level message size and
// delivery queue depth taken from the kernel's boot config ([wasm] section)
// rather than this package's built-in defaults. A non-positive value falls
// back to the corresponding default.
func NewBridgeWithLimits(ctx context.Context, scheduler *sched.Scheduler, lg *kernlog.Logger, maxMessageSize, maxQueueDepth int) (*Bridge, error) {
	if maxMessageSize <= 0 {
		maxMessageSize = MaxIpcMessageSize
	}
	if maxQueueDepth <= 0 {
		maxQueueDepth = MaxIpcQueueDepth
	}
	b := &Bridge{
		wz:                wazero.NewRuntime(ctx),
		scheduler:         scheduler,
		lg:                lg,
		mqtt:              newSubscriberRegistry(),
		queue:             newDeliveryQueue(maxQueueDepth),
		maxIpcMessageSize: maxMessageSize,
		maxIpcQueueDepth:  maxQueueDepth,
		instances:         make(map[ktask.Id]*Instance),
		byModule:          make(map[string]ktask.Id),
	}
	if err := b.registerHostModule(ctx); err != nil {
		b.wz.Close(ctx)
		return nil, errors.Wrap(err, "registering env host module")
	}
	return b, nil
}

// Close releases the wazero runtime and everything instantiated against
// it.
func (b *Bridge) Close(ctx context.Context) error {
	return b.wz.Close(ctx)
}

// Load compiles and instantiates wasmBytes as a new task's Wasm instance.
// The instance starts with an empty granted-capability set; callers grant
// capabilities explicitly afterwards via Instance.Grant before the task
// that owns it ever runs.
func (b *Bridge) Load(ctx context.Context, taskId ktask.Id, wasmBytes []byte) (*Instance, error) {
	compiled, err := b.wz.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrap(err, "compiling wasm module")
	}

	cfg := wazero.NewModuleConfig().WithName(instanceModuleName(taskId))
	mod, err := b.wz.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "instantiating wasm module")
	}

	inst := NewInstance(taskId, mod)
	name := instanceModuleName(taskId)
	b.mu.Lock()
	b.instances[taskId] = inst
	b.byModule[name] = taskId
	b.mu.Unlock()
	return inst, nil
}

// Unload closes the instance owned by taskId and forgets it. Called when
// the owning task terminates.
func (b *Bridge) Unload(ctx context.Context, taskId ktask.Id) error {
	b.mu.Lock()
	inst, ok := b.instances[taskId]
	delete(b.instances, taskId)
	delete(b.byModule, instanceModuleName(taskId))
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return inst.Module.Close(ctx)
}

func (b *Bridge) instance(taskId ktask.Id) (*Instance, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inst, ok := b.instances[taskId]
	return inst, ok
}

// instanceByModule resolves the Instance that owns the calling module, as
// seen from inside a host function (which only receives an api.Module, not
// a task id). Every module this bridge instantiates is named via
// instanceModuleName, so the reverse lookup is exact.
func (b *Bridge) instanceByModule(name string) (*Instance, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	taskId, ok := b.byModule[name]
	if !ok {
		return nil, false
	}
	inst, ok := b.instances[taskId]
	return inst, ok
}

// instanceModuleName gives each Wasm module instance a distinct wazero
// module name; wazero refuses to instantiate two modules under the same
// name concurrently.
func instanceModuleName(taskId ktask.Id) string {
	return "wasm-task-" + strconv.FormatUint(uint64(taskId), 10)
}

// DeliverPending attempts to deliver every message currently queued for
// taskId using the guest-directed buffer protocol described in deliverOne.
// It stops at the first message the instance declines (no
// allocate_message_buffer export), leaving it re-queued, since that
// signals the instance is not currently able to receive.
//
// It refuses to run while taskId's own task is Running: delivery calls
// back into the guest's exported functions on the same wazero module
// instance a task's own driver loop (CallExported) may be mid-call on via
// its own goroutine, and wazero does not guarantee a module instance is
// safe to call into from two goroutines at once. Skipping leaves the
// message queued for the next attempt rather than racing the call.
func (b *Bridge) DeliverPending(ctx context.Context, taskId ktask.Id) (delivered int, err error) {
	inst, ok := b.instance(taskId)
	if !ok {
		return 0, errors.Errorf("wasmhost: no instance for task %d", taskId)
	}
	if t, ok := b.scheduler.Get(taskId); ok && t.State() == ktask.Running {
		return 0, nil
	}
	for {
		msg, ok := b.queue.dequeueFor(taskId)
		if !ok {
			return delivered, nil
		}
		ok, derr := deliverOne(ctx, inst, msg.data)
		if derr != nil {
			return delivered, errors.Wrap(derr, "delivering wasm message")
		}
		if !ok {
			b.queue.requeueFront(msg)
			return delivered, nil
		}
		delivered++
	}
}

