// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient provides the default transport collaborator: an
// instrumented net/http client with transparent response decompression.
package httpclient

import (
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client performs wire requests over net/http. The zero value is not
// usable; initialize it with [New].
//
// Cancellation of in-flight calls is best-effort through the request
// context. Timeouts are owned here, not by the calling core.
type Client struct {
	base               http.RoundTripper
	timeout            time.Duration
	disableCompression bool

	http *http.Client
}

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// Base overrides the underlying [http.RoundTripper].
func Base(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// Timeout bounds each round trip, body read included. Zero means no
// timeout.
func Timeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// DisableCompression stops the client from advertising and transparently
// decoding zstd and gzip response encodings.
func DisableCompression() Option {
	return func(c *Client) {
		c.disableCompression = true
	}
}

// New initializes a [Client]. The round tripper is instrumented with
// OTel tracing via otelhttp.
func New(opts ...Option) *Client {
	c := &Client{
		base: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = &http.Client{
		Transport: otelhttp.NewTransport(c.base),
		Timeout:   c.timeout,
	}
	return c
}

// Do performs the request and returns the raw response, with any zstd or
// gzip content encoding already stripped from the body.
func (c *Client) Do(r *http.Request) (*http.Response, error) {
	if !c.disableCompression && r.Header.Get("Accept-Encoding") == "" {
		r.Header.Set("Accept-Encoding", "zstd, gzip")
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return nil, err
	}
	if c.disableCompression {
		return resp, nil
	}

	switch resp.Header.Get("Content-Encoding") {
	case "zstd":
		dec, err := zstd.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body = &decompressedBody{
			reader: dec.IOReadCloser(),
			inner:  resp.Body,
		}
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body = &decompressedBody{
			reader: zr,
			inner:  resp.Body,
		}
	default:
		return resp, nil
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

type decompressedBody struct {
	reader io.ReadCloser
	inner  io.ReadCloser
}

func (b *decompressedBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

func (b *decompressedBody) Close() error {
	err := b.reader.Close()
	innerErr := b.inner.Close()
	if err != nil {
		return err
	}
	return innerErr
}
