/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package kerr holds the kernel-wide error taxonomy. Every core operation
// returns one of these values rather than unwinding; nothing in this
// package panics.
package kerr

import "errors"

// Kind classifies a kernel error. Two syscall-layer kinds, InvalidSyscall
// and InvalidArgument, are kept distinct even though both describe a
// malformed request: the originating source data encodes them as separate
// numeric error codes and callers downstream (syscall dispatch logging)
// care which one fired.
type Kind int

const (
	_ Kind = iota
	KindPermissionDenied
	KindInvalidCapability
	KindInvalidSyscall
	KindInvalidArgument
	KindEndpointNotFound
	KindQueueFull
	KindMessageTooLarge
	KindNoMessage
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindInvalidCapability:
		return "invalid capability"
	case KindInvalidSyscall:
		return "invalid syscall"
	case KindInvalidArgument:
		return "invalid argument"
	case KindEndpointNotFound:
		return "endpoint not found"
	case KindQueueFull:
		return "queue full"
	case KindMessageTooLarge:
		return "message too large"
	case KindNoMessage:
		return "no message"
	default:
		return "unknown kernel error"
	}
}

// Error is a value-typed kernel error carrying its Kind alongside an
// optional wrapped cause. It implements the standard error interface so it
// composes with errors.Is/errors.As and github.com/pkg/errors.Wrap at
// subsystem boundaries.
type Error struct {
	Kind  Kind
	cause error
}

func New(k Kind) *Error {
	return &Error{Kind: k}
}

func Wrap(k Kind, cause error) *Error {
	return &Error{Kind: k, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Kind.String() + ": " + e.cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind == k
	}
	return false
}

var (
	ErrPermissionDenied  = New(KindPermissionDenied)
	ErrInvalidCapability = New(KindInvalidCapability)
	ErrInvalidSyscall    = New(KindInvalidSyscall)
	ErrInvalidArgument   = New(KindInvalidArgument)
	ErrEndpointNotFound  = New(KindEndpointNotFound)
	ErrQueueFull         = New(KindQueueFull)
	ErrMessageTooLarge   = New(KindMessageTooLarge)
	ErrNoMessage         = New(KindNoMessage)
)
