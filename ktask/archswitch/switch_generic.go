/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

//go:build !amd64 && !arm64

package archswitch

// rawContext on an unsupported architecture carries only what Go itself can
// give us: a goroutine standing in for a "task" and channels standing in
// for the switch. This is provided purely so the module builds on any
// GOARCH; it gives none of the bit-for-bit register guarantees the amd64
// and arm64 implementations do, and nothing in this package's tests
// exercises it.
type rawContext struct {
	resume chan struct{}
	fn     func()
}

func (c *rawContext) sp() uintptr { return 0 }
func (c *rawContext) ip() uintptr { return 0 }

func rawSwitch(out, in *rawContext) {
	if in.resume == nil {
		in.resume = make(chan struct{}, 1)
	}
	if in.fn != nil {
		fn := in.fn
		in.fn = nil
		go fn()
	}
	in.resume <- struct{}{}
	if out.resume != nil {
		<-out.resume
	}
}

func newInitialContext(c *rawContext, stack []byte, trampoline, entry, arg uintptr) {
	c.resume = make(chan struct{}, 1)
}
