// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"fmt"
	"reflect"
	"strings"
)

// CompileError reports malformed operation metadata: conflicting parameter
// roles, path placeholder mismatches, unresolved converters or adapters.
// It is raised once, at first compilation of an operation, and never retried.
type CompileError struct {
	// Method and Path identify the offending operation.
	Method string
	Path   string

	// Param is the zero-based position of the offending parameter, or -1
	// when the error concerns the operation itself.
	Param int

	Cause error
}

func (e *CompileError) Error() string {
	if e.Param < 0 {
		return fmt.Sprintf("compile %s %s: %v", e.Method, e.Path, e.Cause)
	}
	return fmt.Sprintf("compile %s %s: parameter %d: %v", e.Method, e.Path, e.Param, e.Cause)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// RequestBuildError reports a conversion failure while assembling a request
// from call arguments. It is surfaced as the immediate outcome of
// [Call.Execute] or [Call.Enqueue] and cached on the call, so repeated
// inspection returns the same value.
type RequestBuildError struct {
	Cause error
}

func (e *RequestBuildError) Error() string {
	return fmt.Sprintf("build request: %v", e.Cause)
}

func (e *RequestBuildError) Unwrap() error {
	return e.Cause
}

// TransportError reports an I/O or connection level failure from the
// transport collaborator. It is never conflated with decode failures and is
// never implicitly retried.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// DecodeError reports a 2xx response body which could not be converted into
// the declared success type. Non-2xx responses never attempt decoding.
type DecodeError struct {
	// Type is the declared success type.
	Type reflect.Type

	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response into %s: %v", e.Type, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// CanceledError is returned by a call whose execution was canceled.
type CanceledError struct{}

func (CanceledError) Error() string {
	return "call canceled"
}

// AlreadyExecutedError reports a second execute or enqueue on the same call
// instance. It is a usage error and is raised as a panic.
type AlreadyExecutedError struct{}

func (AlreadyExecutedError) Error() string {
	return "call already executed"
}

// UnresolvedConverterError reports that no registered converter factory
// claimed a declared type. It enumerates the factories which were skipped
// and tried, in registration order, for diagnostics.
type UnresolvedConverterError struct {
	// Kind is one of "request", "response" or "string".
	Kind string

	// Type is the declared type no factory claimed.
	Type reflect.Type

	// Skipped and Tried name the factories before and after the skip
	// point, in registration order.
	Skipped []string
	Tried   []string
}

func (e *UnresolvedConverterError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no %s converter for %s", e.Kind, e.Type)
	if len(e.Skipped) > 0 {
		fmt.Fprintf(&sb, " (skipped: %s)", strings.Join(e.Skipped, ", "))
	}
	fmt.Fprintf(&sb, " (tried: %s)", strings.Join(e.Tried, ", "))
	return sb.String()
}

// UnresolvedAdapterError reports that no registered call adapter factory
// claimed a declared return shape.
type UnresolvedAdapterError struct {
	Type reflect.Type

	Skipped []string
	Tried   []string
}

func (e *UnresolvedAdapterError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no call adapter for %s", e.Type)
	if len(e.Skipped) > 0 {
		fmt.Fprintf(&sb, " (skipped: %s)", strings.Join(e.Skipped, ", "))
	}
	fmt.Fprintf(&sb, " (tried: %s)", strings.Join(e.Tried, ", "))
	return sb.String()
}
