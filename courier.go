// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package courier compiles declaratively described remote operations into
// reusable, validated request templates and executes them against a
// pluggable transport.
//
// An [Operation] describes one remote call: HTTP verb, path template,
// parameter roles and body encoding. The [Client] compiles each operation
// once into an immutable descriptor, caches it, and every call then binds
// concrete arguments to a wire request through the compiled template.
package courier

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/z5labs/courier/concurrent"
	"github.com/z5labs/courier/executor"
	"github.com/z5labs/courier/httpclient"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] bridged to the OTel logging signal.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// Transport is the external collaborator performing the actual network
// call. It accepts an immutable wire request and returns a raw response or
// a transport fault. Cancellation of in-flight calls is best-effort,
// through the request context.
//
// Timeouts and retries are the transport's responsibility; the client core
// implements neither.
type Transport interface {
	Do(r *http.Request) (*http.Response, error)
}

// Executor is the completion scheduling collaborator for enqueued calls.
// It accepts a unit of work and executes it, either inline or by posting
// to another execution context.
type Executor interface {
	Execute(f func())
}

// Options holds configuration for a [Client].
type Options struct {
	transport          Transport
	converterFactories []ConverterFactory
	adapterFactories   []CallAdapterFactory
	interceptors       []Interceptor
	callbackExecutor   Executor
	log                *slog.Logger
}

// Option sets a value on [Options].
type Option interface {
	ApplyOption(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) ApplyOption(o *Options) {
	f(o)
}

// WithTransport overrides the transport collaborator. The default is an
// [httpclient.Client] with OTel instrumentation and transparent response
// decompression.
func WithTransport(t Transport) Option {
	return optionFunc(func(o *Options) {
		o.transport = t
	})
}

// WithConverterFactory registers converter factories. Resolution order is
// registration order and the first factory to claim a type wins; the
// built-in factory for pass-through wire types is always consulted first.
func WithConverterFactory(factories ...ConverterFactory) Option {
	return optionFunc(func(o *Options) {
		o.converterFactories = append(o.converterFactories, factories...)
	})
}

// WithCallAdapterFactory registers call adapter factories. The default
// adapter, which yields the raw [Call], is always consulted last.
func WithCallAdapterFactory(factories ...CallAdapterFactory) Option {
	return optionFunc(func(o *Options) {
		o.adapterFactories = append(o.adapterFactories, factories...)
	})
}

// WithInterceptor registers request interceptors, run in registration
// order while building each request.
func WithInterceptor(interceptors ...Interceptor) Option {
	return optionFunc(func(o *Options) {
		o.interceptors = append(o.interceptors, interceptors...)
	})
}

// WithCallbackExecutor overrides the completion scheduling collaborator
// used by [Call.Enqueue]. The default runs callbacks inline on the
// goroutine which performed the transport call.
func WithCallbackExecutor(e Executor) Option {
	return optionFunc(func(o *Options) {
		o.callbackExecutor = e
	})
}

// Client holds immutable configuration and a cache of compiled operation
// descriptors keyed by operation identity.
type Client struct {
	baseURL *url.URL

	transport          Transport
	converterFactories []ConverterFactory
	adapterFactories   []CallAdapterFactory
	interceptors       []Interceptor
	callbackExecutor   Executor
	log                *slog.Logger

	descriptors *concurrent.Cache[*Operation, *descriptor]
}

// New initializes a [Client]. The base address must be an absolute URL
// whose path ends in /, so relative path templates always resolve beneath
// it instead of silently replacing part of it.
//
// Example:
//
//	client, err := courier.New("https://api.example.com/v1/",
//	    courier.WithConverterFactory(courier.Json()),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base address: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base address must be absolute, got %q", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if !strings.HasSuffix(u.Path, "/") {
		return nil, fmt.Errorf("base address path must end in /, got %q", baseURL)
	}

	o := &Options{
		transport:        httpclient.New(),
		callbackExecutor: executor.Inline{},
		log:              Logger("courier"),
	}
	for _, opt := range opts {
		opt.ApplyOption(o)
	}

	converterFactories := make([]ConverterFactory, 0, len(o.converterFactories)+1)
	converterFactories = append(converterFactories, builtinConverterFactory{})
	converterFactories = append(converterFactories, o.converterFactories...)

	adapterFactories := make([]CallAdapterFactory, 0, len(o.adapterFactories)+1)
	adapterFactories = append(adapterFactories, o.adapterFactories...)
	adapterFactories = append(adapterFactories, defaultCallAdapterFactory{})

	return &Client{
		baseURL:            u,
		transport:          o.transport,
		converterFactories: converterFactories,
		adapterFactories:   adapterFactories,
		interceptors:       o.interceptors,
		callbackExecutor:   o.callbackExecutor,
		log:                o.log,
		descriptors:        concurrent.NewCache[*Operation, *descriptor](),
	}, nil
}

// BaseURL reports the configured base address.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

func (c *Client) compile(op *Operation) (*descriptor, error) {
	return c.descriptors.GetOr(op, func() (*descriptor, error) {
		return compileOperation(c, op)
	})
}

// Prepare compiles op, caching the result for the client's lifetime, and
// returns an invocable handle for it. The same *Operation value always
// yields the same compiled descriptor.
func (c *Client) Prepare(op *Operation) (*PreparedOperation, error) {
	desc, err := c.compile(op)
	if err != nil {
		return nil, err
	}
	return &PreparedOperation{
		client: c,
		desc:   desc,
	}, nil
}

// Precompile eagerly compiles every given operation, so malformed metadata
// fails at startup instead of at first call.
func (c *Client) Precompile(ops ...*Operation) error {
	for _, op := range ops {
		_, err := c.compile(op)
		if err != nil {
			return err
		}
	}
	return nil
}

// NextRequestConverter resolves a request converter using only the
// factories registered after skipPast. It allows one converter factory to
// delegate to the rest of the chain.
func (c *Client) NextRequestConverter(skipPast ConverterFactory, t reflect.Type, op *Operation) (RequestConverter, error) {
	return resolveRequestConverter(c.converterFactories, skipPast, t, op)
}

// NextResponseConverter resolves a response converter using only the
// factories registered after skipPast.
func (c *Client) NextResponseConverter(skipPast ConverterFactory, t reflect.Type, op *Operation) (ResponseConverter, error) {
	return resolveResponseConverter(c.converterFactories, skipPast, t, op)
}

// NextCallAdapter resolves a call adapter using only the factories
// registered after skipPast.
func (c *Client) NextCallAdapter(skipPast CallAdapterFactory, returnType reflect.Type, op *Operation) (CallAdapter, error) {
	return resolveCallAdapter(c.adapterFactories, skipPast, returnType, op)
}

// PreparedOperation is a compiled operation bound to its client. It is
// safe for concurrent use; every invocation creates an independent [Call].
type PreparedOperation struct {
	client *Client
	desc   *descriptor
}

// Operation reports the declarative metadata this operation was compiled
// from.
func (po *PreparedOperation) Operation() *Operation {
	return po.desc.op
}

// Call snapshots args and returns a fresh, unexecuted [Call]. The argument
// count and types must align with the operation's declared parameters.
func (po *PreparedOperation) Call(args ...any) Call {
	return newHTTPCall(po.client, po.desc, args)
}

// Adapted snapshots args and returns the call wrapped by the operation's
// resolved call adapter.
func (po *PreparedOperation) Adapted(args ...any) any {
	return po.desc.adapter.Adapt(po.Call(args...))
}
