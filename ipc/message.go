/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package ipc implements bounded message-passing endpoints with
// capability-checked send/receive and blocking wait queues.
package ipc

import (
	"github.com/jerichokernel/kernel/capability"
	"github.com/jerichokernel/kernel/ktask"
)

// MaxMessageSize bounds a Message's data for kernel-level endpoints.
// Wasm-originated messages are bounded far tighter; see package wasmhost.
const MaxMessageSize = 4096

// DefaultMaxQueue is the recommended depth for a kernel endpoint.
const DefaultMaxQueue = 16

// Message is { sender, data, transferred_cap }.
type Message struct {
	Sender         ktask.Id
	Data           []byte
	TransferredCap *capability.Id
}
