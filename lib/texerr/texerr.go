// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package texerr holds the error taxonomy shared by the OGLImage packages.
//
// Every error returned across a package boundary is, or wraps, an *Error whose
// Code classifies the failure. Conversion pipelines use the classification to
// decide whether a failure degrades to an empty image (bad input data, missing
// tools) or aborts (registry and configuration defects).
package texerr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Code classifies an Error.
type Code uint32

const (
	// OK is the code of a nil error.
	OK Code = 0

	// Format is an unknown or unsupported format in a size or property query.
	Format Code = 1

	// Container is a malformed container: bad magic bytes, a truncated
	// payload or a size that disagrees with the format registry.
	Container Code = 2

	// NotFound is a missing input file.
	NotFound Code = 3

	// ToolUnavailable is an external binary that cannot be resolved.
	ToolUnavailable Code = 4

	// ToolTimeout is an external process that outlived its deadline.
	ToolTimeout Code = 5

	// ToolFailed is an external process that exited unsuccessfully.
	ToolFailed Code = 6

	// NoConversionPath is a conversion request with no route in the graph.
	NoConversionPath Code = 7

	// BadArgument is a caller error, such as an image handed to a converter
	// for a different source format.
	BadArgument Code = 8
)

// String returns the taxonomy name of the code, or "" for unknown codes.
func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Format:
		return "FormatError"
	case Container:
		return "ContainerError"
	case NotFound:
		return "NotFoundError"
	case ToolUnavailable:
		return "ToolUnavailableError"
	case ToolTimeout:
		return "ToolTimeoutError"
	case ToolFailed:
		return "ToolFailedError"
	case NoConversionPath:
		return "NoConversionPathError"
	case BadArgument:
		return "BadArgumentError"
	}
	return ""
}

// Error is a classified error.
type Error struct {
	Code Code
	// Op names the operation that failed, e.g. "ktx.Decode".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	name := e.Code.String()
	if name == "" {
		name = fmt.Sprintf("error %d", uint32(e.Code))
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return e.Op + ": " + name + ": " + e.Err.Error()
	case e.Op != "":
		return e.Op + ": " + name
	case e.Err != nil:
		return name + ": " + e.Err.Error()
	}
	return name
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error with a formatted message as its cause.
func New(code Code, op string, format string, args ...any) error {
	return &Error{Code: code, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies err. It returns nil if err is nil. An err that already
// carries the same code is annotated with op instead of being nested again.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) && e.Code == code {
		if e.Op == "" {
			return &Error{Code: code, Op: op, Err: e.Err}
		}
		return &Error{Code: code, Op: op, Err: errors.WithMessage(e.Err, e.Op)}
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, OK for nil
// and BadArgument for unclassified errors.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return BadArgument
}

// Is reports whether err is classified as code.
func Is(err error, code Code) bool {
	return (err != nil) && (CodeOf(err) == code)
}

// Degradable reports whether a conversion pipeline should replace the failed
// stage's output with an empty image and carry on, rather than abort.
func Degradable(err error) bool {
	switch CodeOf(err) {
	case Container, NotFound, ToolUnavailable, ToolTimeout, ToolFailed, NoConversionPath:
		return true
	}
	return false
}
