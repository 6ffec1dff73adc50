/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

//go:build arm64

package archswitch

import "unsafe"

// rawContext is the arm64 register file saved/restored by rawSwitch, in
// switch_arm64.s. Unlike amd64, ARM64's RET instruction resumes execution
// at whatever address sits in the link register rather than popping the
// stack, so "place the instruction pointer on the stack and return to it"
// is realized here as "place it in the link register and RET" — the
// architecture-appropriate reading of the same resumption contract.
type rawContext struct {
	r19, r20, r21, r22, r23 uint64
	r24, r25, r26, r27, r28 uint64
	fp                      uint64 // R29
	lr                      uint64 // R30, doubles as the saved instruction pointer
	spReg                   uint64
	nzcv                    uint64 // condition flags
	r0                      uint64 // first trampoline argument register (entry)
	r1                      uint64 // second trampoline argument register (arg)
}

func (c *rawContext) sp() uintptr { return uintptr(c.spReg) }
func (c *rawContext) ip() uintptr { return uintptr(c.lr) }

//go:noescape
func rawSwitch(out, in *rawContext)

func newInitialContext(c *rawContext, stack []byte, trampoline, entry, arg uintptr) {
	var top uintptr
	if len(stack) > 0 {
		top = uintptr(unsafe.Pointer(&stack[len(stack)-1])) + 1
	}
	sp := top &^ 0xF // AAPCS64 requires 16-byte stack alignment

	c.lr = uint64(trampoline)
	c.spReg = uint64(sp)
	c.r0 = uint64(entry)
	c.r1 = uint64(arg)
	c.nzcv = 0
}
