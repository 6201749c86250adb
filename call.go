// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel"
)

// httpCall is the per-invocation state machine behind [Call]. It owns an
// exclusive request builder and executes at most once. The cancellation
// flag and memoized build outcome are safe to read concurrently with the
// goroutine performing execution.
type httpCall struct {
	client *Client
	desc   *descriptor
	args   []any

	mu       sync.Mutex
	executed bool
	req      *http.Request
	buildErr error

	canceled atomic.Bool

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func newHTTPCall(client *Client, desc *descriptor, args []any) *httpCall {
	return &httpCall{
		client: client,
		desc:   desc,
		args:   args,
	}
}

// Request implements the [Call] interface.
func (c *httpCall) Request() (*http.Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildRequest(context.Background())
}

// buildRequest memoizes both the built request and any build failure, so
// repeated inspection replays the same cached outcome. Callers must hold
// c.mu.
func (c *httpCall) buildRequest(ctx context.Context) (*http.Request, error) {
	if c.req != nil || c.buildErr != nil {
		return c.req, c.buildErr
	}

	spanCtx, span := otel.Tracer("github.com/z5labs/courier").Start(ctx, "call.buildRequest")
	defer span.End()

	req, err := c.build(spanCtx)
	if err != nil {
		span.RecordError(err)
		c.buildErr = &RequestBuildError{Cause: err}
		return nil, c.buildErr
	}
	c.req = req
	return c.req, nil
}

func (c *httpCall) build(ctx context.Context) (*http.Request, error) {
	if len(c.args) != len(c.desc.bindings) {
		return nil, fmt.Errorf("argument count (%d) does not match declared parameter count (%d)", len(c.args), len(c.desc.bindings))
	}

	rb := newRequestBuilder(c.desc, c.client.baseURL)
	for i, b := range c.desc.bindings {
		err := b.apply(rb, c.args[i])
		if err != nil {
			return nil, err
		}
	}

	req, err := rb.build(ctx)
	if err != nil {
		return nil, err
	}

	for _, interceptor := range c.client.interceptors {
		req, err = interceptor.Intercept(req)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Execute implements the [Call] interface.
func (c *httpCall) Execute(ctx context.Context) (*Response, error) {
	c.mu.Lock()
	if c.executed {
		c.mu.Unlock()
		panic(AlreadyExecutedError{})
	}
	c.executed = true

	req, err := c.buildRequest(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return c.perform(ctx, req)
}

// Enqueue implements the [Call] interface.
func (c *httpCall) Enqueue(ctx context.Context, cb Callback) {
	c.mu.Lock()
	if c.executed {
		c.mu.Unlock()
		panic(AlreadyExecutedError{})
	}
	c.executed = true

	req, err := c.buildRequest(ctx)
	c.mu.Unlock()
	if err != nil {
		c.deliver(func() {
			cb.OnFailure(c, err)
		})
		return
	}

	go func() {
		resp, err := c.perform(ctx, req)
		if err != nil {
			c.deliver(func() {
				cb.OnFailure(c, err)
			})
			return
		}
		c.deliver(func() {
			cb.OnResponse(c, resp)
		})
	}()
}

// deliver hands a completion notification to the client's executor. Panics
// raised inside user callbacks are contained here and logged; they never
// propagate into the transport layer.
func (c *httpCall) deliver(f func()) {
	c.client.callbackExecutor.Execute(func() {
		var err error
		defer func() {
			if err == nil {
				return
			}
			c.client.log.Error("contained panic raised by call completion callback", slog.Any("error", err))
		}()
		defer try.Recover(&err)

		f()
	})
}

func (c *httpCall) perform(ctx context.Context, req *http.Request) (*Response, error) {
	if c.canceled.Load() {
		return nil, CanceledError{}
	}

	callCtx, cancel := context.WithCancel(ctx)

	c.cancelMu.Lock()
	c.cancel = cancel
	c.cancelMu.Unlock()
	if c.canceled.Load() {
		cancel()
		return nil, CanceledError{}
	}

	resp, err := c.client.transport.Do(req.Clone(callCtx))
	if err != nil {
		cancel()
		if c.canceled.Load() {
			return nil, CanceledError{}
		}
		return nil, &TransportError{Cause: err}
	}

	result, err := c.classify(ctx, resp)

	// A streaming success hands the live body stream to the caller, so
	// its context must outlive this call. Cancel remains reachable via
	// [Call.Cancel] in that case.
	streamed := err == nil && result.stream != nil
	if !streamed {
		cancel()
	}
	return result, err
}

// classify buckets a raw transport response by status code. Every path
// fully buffers or fully closes the body exactly once; only streaming raw
// successes hand ownership of the body stream to the caller.
func (c *httpCall) classify(ctx context.Context, resp *http.Response) (*Response, error) {
	_, span := otel.Tracer("github.com/z5labs/courier").Start(ctx, "call.classify")
	defer span.End()

	code := resp.StatusCode
	if code < 200 || code >= 300 {
		errBody, err := readAndClose(resp.Body)
		if err != nil {
			span.RecordError(err)
			return nil, &TransportError{Cause: err}
		}
		return &Response{raw: resp, errBody: errBody}, nil
	}

	if code == http.StatusNoContent || code == http.StatusResetContent {
		_, err := readAndClose(resp.Body)
		if err != nil {
			span.RecordError(err)
			return nil, &TransportError{Cause: err}
		}
		return &Response{raw: resp}, nil
	}

	if c.desc.raw {
		if c.desc.streaming {
			return &Response{raw: resp, stream: resp.Body}, nil
		}

		body, err := readAndClose(resp.Body)
		if err != nil {
			span.RecordError(err)
			return nil, &TransportError{Cause: err}
		}
		return &Response{raw: resp, body: body}, nil
	}

	// Buffer before decoding so a fault in the body stream is surfaced
	// as the transport fault it is, instead of a decode failure.
	body, err := readAndClose(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Cause: err}
	}

	value, err := c.desc.respConverter.ConvertResponse(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return nil, &DecodeError{Type: c.desc.resultType(), Cause: err}
	}
	return &Response{raw: resp, value: value}, nil
}

// Cancel implements the [Call] interface.
func (c *httpCall) Cancel() {
	c.canceled.Store(true)

	c.cancelMu.Lock()
	cancel := c.cancel
	c.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Canceled implements the [Call] interface.
func (c *httpCall) Canceled() bool {
	return c.canceled.Load()
}

// Executed implements the [Call] interface.
func (c *httpCall) Executed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executed
}

// Clone implements the [Call] interface.
func (c *httpCall) Clone() Call {
	return newHTTPCall(c.client, c.desc, c.args)
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	b, err := io.ReadAll(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, err
	}
	return b, closeErr
}
