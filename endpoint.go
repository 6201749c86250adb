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

// Endpoint is a strongly typed handle for one compiled operation. Its type
// parameter is the declared success type responses are decoded into.
//
// Example:
//
//	getUser := &courier.Operation{
//	    Method: http.MethodGet,
//	    Path:   courier.BasePath("/users").Param("id").String(),
//	    Params: []courier.Param{
//	        courier.PathParam[int]("id"),
//	    },
//	}
//
//	endpoint, err := courier.NewEndpoint[User](client, getUser)
//	if err != nil {
//	    return err
//	}
//
//	reply, err := endpoint.Invoke(ctx, 42)
type Endpoint[T any] struct {
	prepared *PreparedOperation
}

// NewEndpoint compiles op against c and binds it to the success type T.
// When [Operation.Result] is nil it is inferred from T and recorded on op,
// so repeated endpoints for the same operation share one compiled
// descriptor; when set, it must match T exactly. For raw or adapter-shaped
// calls use [Client.Prepare].
func NewEndpoint[T any](c *Client, op *Operation) (*Endpoint[T], error) {
	resultType := reflect.TypeFor[T]()
	if op.Result == nil {
		op.Result = resultType
	} else if op.Result != resultType {
		return nil, methodError(op, "declared result type %s does not match endpoint type %s", op.Result, resultType)
	}

	prepared, err := c.Prepare(op)
	if err != nil {
		return nil, err
	}
	return &Endpoint[T]{
		prepared: prepared,
	}, nil
}

// Call snapshots args and returns a fresh, unexecuted [TypedCall].
func (e *Endpoint[T]) Call(args ...any) *TypedCall[T] {
	return &TypedCall[T]{
		raw: e.prepared.Call(args...),
	}
}

// Invoke is shorthand for Call followed by [TypedCall.Execute].
func (e *Endpoint[T]) Invoke(ctx context.Context, args ...any) (*Reply[T], error) {
	return e.Call(args...).Execute(ctx)
}

// TypedCall wraps a raw [Call] with the endpoint's declared success type.
// It shares the raw call's execute-at-most-once semantics.
type TypedCall[T any] struct {
	raw Call
}

// Request lazily builds and memoizes the wire request.
func (tc *TypedCall[T]) Request() (*http.Request, error) {
	return tc.raw.Request()
}

// Execute performs the call on the calling goroutine.
func (tc *TypedCall[T]) Execute(ctx context.Context) (*Reply[T], error) {
	resp, err := tc.raw.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &Reply[T]{resp: resp}, nil
}

// Enqueue performs the call without blocking and delivers the outcome on
// the client's completion executor. Either function may be nil.
func (tc *TypedCall[T]) Enqueue(ctx context.Context, onReply func(*Reply[T]), onFailure func(error)) {
	tc.raw.Enqueue(ctx, OnResult(
		func(_ Call, resp *Response) {
			if onReply != nil {
				onReply(&Reply[T]{resp: resp})
			}
		},
		func(_ Call, err error) {
			if onFailure != nil {
				onFailure(err)
			}
		},
	))
}

// Cancel requests cooperative cancellation of the call.
func (tc *TypedCall[T]) Cancel() {
	tc.raw.Cancel()
}

// Canceled reports whether Cancel has been called.
func (tc *TypedCall[T]) Canceled() bool {
	return tc.raw.Canceled()
}

// Executed reports whether Execute or Enqueue has been called.
func (tc *TypedCall[T]) Executed() bool {
	return tc.raw.Executed()
}

// Clone returns a fresh, unexecuted call sharing the compiled operation
// and argument snapshot.
func (tc *TypedCall[T]) Clone() *TypedCall[T] {
	return &TypedCall[T]{
		raw: tc.raw.Clone(),
	}
}

// Reply is a classified response with a typed success value.
type Reply[T any] struct {
	resp *Response
}

// Value returns the decoded success value, or nil for error replies and
// replies with no body.
func (r *Reply[T]) Value() *T {
	if r.resp.value == nil {
		return nil
	}

	v, ok := r.resp.value.(T)
	if !ok {
		return nil
	}
	return &v
}

// StatusCode reports the HTTP status code.
func (r *Reply[T]) StatusCode() int {
	return r.resp.StatusCode()
}

// IsSuccess reports whether the status code is in [200, 300).
func (r *Reply[T]) IsSuccess() bool {
	return r.resp.IsSuccess()
}

// ErrorBody returns the fully buffered body of a non-2xx reply.
func (r *Reply[T]) ErrorBody() []byte {
	return r.resp.ErrorBody()
}

// Raw returns the underlying classified response.
func (r *Reply[T]) Raw() *Response {
	return r.resp
}
