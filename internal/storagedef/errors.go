// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package storagedef

import (
	"errors"
	"fmt"
)

// ErrorKind classifies collection failures for logging and self metrics.
type ErrorKind string

const (
	// TransportError covers an unreachable API, a non-2xx status or an
	// error object returned by the remote API.
	TransportError ErrorKind = "TransportError"
	// GeneralError covers everything else: decode failures, missing
	// fields, unresolved joins and sink failures.
	GeneralError ErrorKind = "GeneralError"
)

// Error is a classified collection error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError for operation op.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: TransportError, Op: op, Err: err}
}

// General wraps err as a GeneralError for operation op.
func General(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: GeneralError, Op: op, Err: err}
}

// Generalf builds a GeneralError from a format string.
func Generalf(op, format string, args ...any) error {
	return &Error{Kind: GeneralError, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain.
// Unclassified errors are GeneralError.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return GeneralError
}

// Describe renders err as "<ErrorKind>: <message>".
func Describe(err error) string {
	return fmt.Sprintf("%s: %s", KindOf(err), err.Error())
}
