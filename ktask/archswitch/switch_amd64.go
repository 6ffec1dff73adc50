/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

//go:build amd64

package archswitch

import "unsafe"

// rawContext is the amd64 register file saved/restored by rawSwitch, in
// switch_amd64.s. The field order fixes the byte offsets the assembly
// indexes by; do not reorder without updating switch_amd64.s to match.
type rawContext struct {
	rbx    uint64
	rbp    uint64
	r12    uint64
	r13    uint64
	r14    uint64
	r15    uint64
	rsp    uint64
	rip    uint64
	rflags uint64
	rdi    uint64 // first trampoline argument register (entry)
	rsi    uint64 // second trampoline argument register (arg)
}

func (c *rawContext) sp() uintptr { return uintptr(c.rsp) }
func (c *rawContext) ip() uintptr { return uintptr(c.rip) }

// rawSwitch is implemented in switch_amd64.s.
//
//go:noescape
func rawSwitch(out, in *rawContext)

func newInitialContext(c *rawContext, stack []byte, trampoline, entry, arg uintptr) {
	var top uintptr
	if len(stack) > 0 {
		top = uintptr(unsafe.Pointer(&stack[len(stack)-1])) + 1
	}
	// Align down to 16 bytes, matching the System V AMD64 ABI requirement
	// on entry to a called function.
	sp := top &^ 0xF

	c.rip = uint64(trampoline)
	c.rsp = uint64(sp)
	c.rdi = uint64(entry)
	c.rsi = uint64(arg)
	c.rflags = 0x200 // IF (interrupt enable) set, all else clear
}
