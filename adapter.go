// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"context"
	"net/http"
	"reflect"
)

// Call is one execution attempt of a compiled operation with concrete
// arguments. A Call executes at most once; a second Execute or Enqueue on
// the same instance panics with [AlreadyExecutedError]. Use [Call.Clone] to
// re-issue the same request.
type Call interface {
	// Request lazily builds the wire request and memoizes the outcome.
	// Subsequent access replays the same request or build failure.
	Request() (*http.Request, error)

	// Execute performs the transport call on the calling goroutine and
	// classifies the response. HTTP error statuses are returned as error
	// responses, not as errors; the error return is reserved for build
	// failures, transport faults, decode faults and cancellation.
	Execute(ctx context.Context) (*Response, error)

	// Enqueue performs the transport call without blocking and delivers
	// the outcome to cb on the client's completion executor. Panics
	// raised inside cb are contained and logged, never propagated into
	// the transport layer.
	Enqueue(ctx context.Context, cb Callback)

	// Cancel requests cooperative cancellation. Canceling before the
	// transport call exists suppresses it entirely; canceling after
	// best-effort-cancels the in-flight call. Cancel is idempotent.
	Cancel()

	// Canceled reports whether Cancel has been called. It is safe to
	// call concurrently with the goroutine executing the call.
	Canceled() bool

	// Executed reports whether Execute or Enqueue has been called.
	Executed() bool

	// Clone returns a fresh, unexecuted Call sharing the compiled
	// operation and the original argument snapshot.
	Clone() Call
}

// Callback receives the outcome of an enqueued [Call].
type Callback interface {
	OnResponse(c Call, resp *Response)
	OnFailure(c Call, err error)
}

type callbackFuncs struct {
	onResponse func(Call, *Response)
	onFailure  func(Call, error)
}

func (cb callbackFuncs) OnResponse(c Call, resp *Response) {
	if cb.onResponse != nil {
		cb.onResponse(c, resp)
	}
}

func (cb callbackFuncs) OnFailure(c Call, err error) {
	if cb.onFailure != nil {
		cb.onFailure(c, err)
	}
}

// OnResult adapts a pair of functions into a [Callback]. Either function
// may be nil.
func OnResult(onResponse func(Call, *Response), onFailure func(Call, error)) Callback {
	return callbackFuncs{
		onResponse: onResponse,
		onFailure:  onFailure,
	}
}

// CallAdapter wraps a raw [Call] into the caller's declared return shape.
type CallAdapter interface {
	// ResultType is the success type the response converter must
	// produce. Returning nil defers to [Operation.Result].
	ResultType() reflect.Type

	// Adapt wraps the raw call into the declared return shape.
	Adapt(c Call) any
}

// CallAdapterFactory resolves a [CallAdapter] for a declared return shape.
// Get returns nil when the factory does not claim the type, in which case
// resolution moves on to the next registered factory.
type CallAdapterFactory interface {
	Get(returnType reflect.Type, op *Operation) CallAdapter
}

func resolveCallAdapter(factories []CallAdapterFactory, skipPast CallAdapterFactory, returnType reflect.Type, op *Operation) (CallAdapter, error) {
	start := factoryIndex(factories, skipPast)
	for i := start; i < len(factories); i++ {
		adapter := factories[i].Get(returnType, op)
		if adapter != nil {
			return adapter, nil
		}
	}

	names := make([]string, len(factories))
	for i, f := range factories {
		names[i] = factoryName(f)
	}
	return nil, &UnresolvedAdapterError{
		Type:    returnType,
		Skipped: names[:start],
		Tried:   names[start:],
	}
}

// defaultCallAdapterFactory claims every return shape and yields the raw
// deferred call itself. It is always appended last so every operation has
// at least one viable success path.
type defaultCallAdapterFactory struct{}

type defaultCallAdapter struct{}

func (defaultCallAdapterFactory) Get(returnType reflect.Type, op *Operation) CallAdapter {
	return defaultCallAdapter{}
}

func (defaultCallAdapter) ResultType() reflect.Type {
	return nil
}

func (defaultCallAdapter) Adapt(c Call) any {
	return c
}
