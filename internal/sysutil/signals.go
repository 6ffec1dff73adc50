/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package sysutil holds the small OS-facing helpers the kerneld binary
// needs that don't belong to any kernel subsystem.
package sysutil

import (
	"os"
	"os/signal"
	"syscall"
)

// GetQuitChannel returns a channel that receives the process's first
// shutdown-requesting signal.
func GetQuitChannel() chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	return quit
}

// WaitForQuit blocks until a shutdown-requesting signal arrives and
// returns it.
func WaitForQuit() os.Signal {
	return <-GetQuitChannel()
}
