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

	"github.com/tetratelabs/wazero/api"

	"github.com/jerichokernel/kernel/kernlog"
	"github.com/jerichokernel/kernel/ktask"
)

// registerHostModule installs the fixed "env" import table described in
// the host bridge's module expansion: print, sys_print, sys_mqtt_subscribe,
// sys_mqtt_publish and sys_ipc_send. Every handler is a raw
// api.GoModuleFunc operating on the wasm value stack directly rather than
// going through WithFunc's reflection path, so the parameter and result
// types registered with wazero are exactly the ones this table documents.
func (b *Bridge) registerHostModule(ctx context.Context) error {
	builder := b.wz.NewHostModuleBuilder("env")

	i32 := api.ValueTypeI32
	noResults := []api.ValueType{}
	oneI32Result := []api.ValueType{i32}

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.hostPrint), []api.ValueType{i32}, noResults).
		Export("print")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.hostSysPrint), []api.ValueType{i32, i32}, noResults).
		Export("sys_print")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.hostMqttSubscribe), []api.ValueType{i32, i32, i32}, noResults).
		Export("sys_mqtt_subscribe")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.hostMqttPublish), []api.ValueType{i32, i32, i32, i32}, oneI32Result).
		Export("sys_mqtt_publish")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.hostSysIpcSend), []api.ValueType{i32, i32, i32}, oneI32Result).
		Export("sys_ipc_send")

	_, err := builder.Instantiate(ctx)
	return err
}

// hostPrint implements the "print(i32)" debug import: log the raw integer.
func (b *Bridge) hostPrint(ctx context.Context, mod api.Module, stack []uint64) {
	v := int32(uint32(stack[0]))
	if b.lg != nil {
		b.lg.Debug("wasm print", kernlog.KV("value", v))
	}
}

// hostSysPrint implements "sys_print(ptr, len)": a bounds-checked view into
// guest memory, logged as UTF-8. Memory.Read itself performs the bounds
// check; an out-of-range request simply logs nothing rather than touching
// kernel memory on the guest's behalf.
func (b *Bridge) hostSysPrint(ctx context.Context, mod api.Module, stack []uint64) {
	ptr, length := uint32(stack[0]), uint32(stack[1])
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return
	}
	if b.lg != nil {
		b.lg.Info("wasm sys_print", kernlog.KV("msg", string(data)))
	}
}

// hostMqttSubscribe implements "sys_mqtt_subscribe(cid, ptr, len)". The
// guest-reported cid is logged for diagnostics but never used to decide
// who receives a publish: subscription is keyed on the calling module's
// own instance id, which the guest cannot forge, the same way an endpoint
// capability check never trusts a guest-supplied identity over the
// kernel's own record of who is calling.
func (b *Bridge) hostMqttSubscribe(ctx context.Context, mod api.Module, stack []uint64) {
	cid := stack[0]
	topicPtr, topicLen := uint32(stack[1]), uint32(stack[2])

	inst, ok := b.instanceByModule(mod.Name())
	if !ok {
		return
	}
	b.mqtt.Subscribe(inst.Id)

	if b.lg != nil {
		topic, _ := mod.Memory().Read(topicPtr, topicLen)
		b.lg.Debug("wasm sys_mqtt_subscribe", kernlog.KV("task", inst.Id), kernlog.KV("guest_cid", cid), kernlog.KV("topic", string(topic)))
	}
}

// hostMqttPublish implements "sys_mqtt_publish(topic_ptr, topic_len,
// msg_ptr, msg_len)": broadcast one copy of the message to every current
// subscriber via the global delivery queue, returning the count actually
// enqueued. The topic is read for logging only; this bridge keeps one flat
// subscriber list rather than per-topic routing (see subscriberRegistry).
func (b *Bridge) hostMqttPublish(ctx context.Context, mod api.Module, stack []uint64) {
	topicPtr, topicLen := uint32(stack[0]), uint32(stack[1])
	msgPtr, msgLen := uint32(stack[2]), uint32(stack[3])

	mem := mod.Memory()
	msg, ok := mem.Read(msgPtr, msgLen)
	if !ok {
		stack[0] = uint64(uint32(0))
		return
	}

	delivered := b.mqtt.Publish(b.queue, msg)

	if b.lg != nil {
		topic, _ := mem.Read(topicPtr, topicLen)
		b.lg.Debug("wasm sys_mqtt_publish", kernlog.KV("topic", string(topic)), kernlog.KV("delivered", delivered))
	}

	stack[0] = uint64(uint32(delivered))
}

// hostSysIpcSend implements "sys_ipc_send(dest, ptr, len)": the four-layer
// capability check from checkIpcSend, then (only once every layer passes)
// the real enqueue. There is no separate race between the check's queue-
// length read and the enqueue call: exactly one task's goroutine ever
// holds the scheduling baton at a time (see ktask.Task), so no other task's
// host-function call can be running concurrently with this one.
func (b *Bridge) hostSysIpcSend(ctx context.Context, mod api.Module, stack []uint64) {
	dest := stack[0]
	ptr, length := uint32(stack[1]), uint32(stack[2])

	inst, ok := b.instanceByModule(mod.Name())
	if !ok {
		stack[0] = uint64(uint32(int32(sendPermission)))
		return
	}

	result, data := checkIpcSend(inst, mod.Memory(), dest, ptr, length, b.queue.Len(), b.maxIpcMessageSize, b.maxIpcQueueDepth)
	if result == sendOK {
		if !b.queue.enqueue(pendingMessage{dest: ktask.Id(dest), data: data}) {
			result = sendQueueFull
		}
	}
	stack[0] = uint64(uint32(int32(result)))
}
