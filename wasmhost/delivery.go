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
)

// deliverOne implements the guest-directed delivery protocol: ask the
// guest for a buffer via its exported allocate_message_buffer, bounds-check
// the pointer it returns against current memory size, copy data into it,
// then invoke subscriber_receive. The kernel never chooses the destination
// address itself -- that is the load-bearing safety property this bridge
// exists to uphold, not an optimisation target. It reports (false, nil) if
// the instance does not export allocate_message_buffer, which tells the
// caller to re-queue rather than force a write.
func deliverOne(ctx context.Context, inst *Instance, data []byte) (bool, error) {
	alloc := inst.Module.ExportedFunction("allocate_message_buffer")
	if alloc == nil {
		return false, nil
	}
	receive := inst.Module.ExportedFunction("subscriber_receive")
	if receive == nil {
		return false, nil
	}

	results, err := alloc.Call(ctx, uint64(uint32(len(data))))
	if err != nil {
		return false, errors.Wrap(err, "calling allocate_message_buffer")
	}
	if len(results) == 0 {
		return false, errors.New("allocate_message_buffer returned no result")
	}

	ptr := int32(uint32(results[0]))
	if ptr <= 0 {
		// Guest declined the allocation; treat the same as "cannot receive
		// right now" rather than a bridge error.
		return false, nil
	}

	mem := inst.Module.Memory()
	if mem == nil {
		return false, nil
	}
	end := uint64(uint32(ptr)) + uint64(len(data))
	if end > uint64(mem.Size()) {
		return false, nil
	}
	if !mem.Write(uint32(ptr), data) {
		return false, nil
	}

	if _, err := receive.Call(ctx, uint64(uint32(ptr)), uint64(uint32(len(data)))); err != nil {
		return false, errors.Wrap(err, "calling subscriber_receive")
	}
	return true, nil
}
