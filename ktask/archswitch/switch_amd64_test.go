/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

//go:build amd64

package archswitch

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

// testTrampoline is implemented in switch_amd64_test.s. It runs entirely on
// the caller-supplied stack using only NOSPLIT assembly: it stashes the
// incoming entry register into trampolineCanary, then hands control
// straight back to trampolineIn via rawSwitch. It never calls into
// ordinary Go code, so it never trips the Go runtime's stack-growth
// machinery while executing on a stack the runtime doesn't know about.
func testTrampoline()

var (
	trampolineOut    *rawContext
	trampolineIn     *rawContext
	trampolineCanary uintptr
)

func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// TestSwitchRoundTrip exercises the amd64 rawSwitch primitive end to end:
// switch away from the calling goroutine's context onto a freshly
// constructed one, have that context immediately switch back, and confirm
// the entry register it observed matches what NewInitial wired up. This is
// the bit-for-bit round-trip property from the testable properties list,
// narrowed to the one register we can observe without executing arbitrary
// Go code on the borrowed stack.
func TestSwitchRoundTrip(t *testing.T) {
	stackB := make([]byte, 64*1024)

	var outerCtx, innerCtx rawContext
	newInitialContext(&innerCtx, stackB, funcPC(testTrampoline), 0xdead, 0)

	trampolineOut = &innerCtx
	trampolineIn = &outerCtx
	trampolineCanary = 0

	rawSwitch(&outerCtx, &innerCtx)

	assert.EqualValues(t, 0xdead, trampolineCanary)
}
