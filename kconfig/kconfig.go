/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package kconfig loads the kernel's boot configuration from an INI-style
// file using gcfg, the same way the ambient config stack this kernel's
// style is drawn from does it.
package kconfig

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/gravwell/gcfg"

	"github.com/jerichokernel/kernel/kernlog"
)

const maxConfigSize int64 = 4 * 1024 * 1024

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead     = errors.New("failed to read entire config file")
)

// Global is the [global] section of the boot config.
type Global struct {
	LogLevel         string
	LogSyslog        bool
	TickHz           int
	TicksPerQuantum  int
	DefaultStackSize int
}

// Ipc is the [ipc] section: resource limits for kernel-level endpoints.
type Ipc struct {
	MaxQueueDepth  int
	MaxMessageSize int
}

// Wasm is the [wasm] section: resource limits for the Wasm host bridge.
type Wasm struct {
	MaxIpcMessageSize int
	MaxIpcQueueDepth  int
}

// Config is the top-level boot configuration document.
type Config struct {
	Global Global
	Ipc    Ipc
	Wasm   Wasm
}

// Default returns a Config populated with the spec's recommended defaults,
// used when no config file is supplied and as the base LoadFile merges
// onto.
func Default() *Config {
	return &Config{
		Global: Global{
			LogLevel:         "INFO",
			LogSyslog:        false,
			TickHz:           100,
			TicksPerQuantum:  10,
			DefaultStackSize: 64 * 1024,
		},
		Ipc: Ipc{
			MaxQueueDepth:  16,
			MaxMessageSize: 4096,
		},
		Wasm: Wasm{
			MaxIpcMessageSize: 512,
			MaxIpcQueueDepth:  64,
		},
	}
}

// LoadFile opens p, guards against an absurdly large file the same way the
// ambient config loader this is modelled on does, and parses it as gcfg
// INI onto a copy of Default().
func LoadFile(p string) (*Config, error) {
	fin, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}

	bb := bytes.NewBuffer(nil)
	n, err := io.Copy(bb, fin)
	if err != nil {
		return nil, err
	}
	if n != fi.Size() {
		return nil, ErrFailedFileRead
	}
	return LoadBytes(bb.Bytes())
}

// LoadBytes parses b onto a copy of Default().
func LoadBytes(b []byte) (*Config, error) {
	if int64(len(b)) > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}
	cfg := Default()
	if err := gcfg.ReadStringInto(cfg, string(b)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level parses the configured log level, defaulting to INFO on a parse
// failure rather than refusing to boot over a log setting.
func (c *Config) Level() kernlog.Level {
	lvl, err := kernlog.ParseLevel(c.Global.LogLevel)
	if err != nil {
		return kernlog.INFO
	}
	return lvl
}
