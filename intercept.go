// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"net/http"

	"github.com/google/uuid"
)

// Interceptor mutates a built request before it is memoized and handed to
// the transport. Interceptors run in registration order inside the lazy
// build step, so their effect is part of the cached request.
type Interceptor interface {
	Intercept(r *http.Request) (*http.Request, error)
}

// InterceptorFunc is a function type that implements the [Interceptor]
// interface.
type InterceptorFunc func(r *http.Request) (*http.Request, error)

// Intercept calls the InterceptorFunc with the built request.
func (f InterceptorFunc) Intercept(r *http.Request) (*http.Request, error) {
	return f(r)
}

// RequestID returns an [Interceptor] which stamps every request with a
// freshly generated X-Request-Id header, unless one is already present.
//
// Example:
//
//	client, err := courier.New("https://api.example.com/",
//	    courier.WithInterceptor(courier.RequestID()),
//	)
func RequestID() Interceptor {
	return InterceptorFunc(func(r *http.Request) (*http.Request, error) {
		if r.Header.Get("X-Request-Id") != "" {
			return r, nil
		}

		id, err := uuid.NewRandom()
		if err != nil {
			return nil, err
		}
		r.Header.Set("X-Request-Id", id.String())
		return r, nil
	})
}
