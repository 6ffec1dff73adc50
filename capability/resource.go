/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package capability

// ResourceType is the closed enumeration of kernel resources a capability
// may name. Each capability is permanently bound to exactly one.
type ResourceType int

const (
	ResourceUnknown ResourceType = iota
	ResourceMemory
	ResourceInterrupt
	ResourceThread
	ResourceEndpoint
	ResourceWasmModule
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceMemory:
		return "Memory"
	case ResourceInterrupt:
		return "Interrupt"
	case ResourceThread:
		return "Thread"
	case ResourceEndpoint:
		return "Endpoint"
	case ResourceWasmModule:
		return "WasmModule"
	default:
		return "Unknown"
	}
}
