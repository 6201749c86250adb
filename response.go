// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"io"
	"net/http"
)

// Response is the classified outcome of one transport round trip.
//
// A status code in [200, 300) yields a success response whose decoded value
// is available via [Response.Value]. Any other status yields a structured
// error response carrying the fully buffered raw body via
// [Response.ErrorBody]; the success converter is never invoked for it.
type Response struct {
	raw     *http.Response
	value   any
	body    []byte
	stream  io.ReadCloser
	errBody []byte
}

// StatusCode reports the HTTP status code of the raw response.
func (r *Response) StatusCode() int {
	return r.raw.StatusCode
}

// Headers reports the raw response headers.
func (r *Response) Headers() http.Header {
	return r.raw.Header
}

// IsSuccess reports whether the status code is in [200, 300).
func (r *Response) IsSuccess() bool {
	return r.raw.StatusCode >= 200 && r.raw.StatusCode < 300
}

// Value returns the decoded success value, or nil for error responses and
// responses with no body (204, 205).
func (r *Response) Value() any {
	return r.value
}

// Body returns the fully buffered raw body of a success response whose
// declared result type is the raw [*Response]. It is nil for streaming
// operations; use [Response.Stream] instead.
func (r *Response) Body() []byte {
	return r.body
}

// Stream returns the raw body stream of a streaming operation. The caller
// owns the stream and must close it exactly once.
func (r *Response) Stream() io.ReadCloser {
	return r.stream
}

// ErrorBody returns the fully buffered body of a non-2xx response.
func (r *Response) ErrorBody() []byte {
	return r.errBody
}

// Raw returns the underlying transport response. Its body has already been
// fully consumed and closed, except for streaming operations.
func (r *Response) Raw() *http.Response {
	return r.raw
}
