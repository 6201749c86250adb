// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the base address is not absolute", func(t *testing.T) {
			_, err := New("/api/")
			require.Error(t, err)
		})

		t.Run("if the base address does not parse", func(t *testing.T) {
			_, err := New("http://example.com/%zz")
			require.Error(t, err)
		})

		t.Run("if the base address path does not end in a slash", func(t *testing.T) {
			_, err := New("http://example.com/api")
			require.ErrorContains(t, err, "must end in /")
		})
	})

	t.Run("will initialize a client", func(t *testing.T) {
		t.Run("with the given base address", func(t *testing.T) {
			c, err := New("http://example.com/api/")
			require.NoError(t, err)
			require.Equal(t, "http://example.com/api/", c.BaseURL().String())
		})

		t.Run("with a root path for a host-only base address", func(t *testing.T) {
			c, err := New("http://example.com")
			require.NoError(t, err)
			require.Equal(t, "http://example.com/", c.BaseURL().String())
		})
	})
}

func TestClient_Precompile(t *testing.T) {
	t.Run("will succeed", func(t *testing.T) {
		t.Run("if every operation compiles", func(t *testing.T) {
			c := newTestClient(t)

			err := c.Precompile(
				&Operation{
					Method: http.MethodGet,
					Path:   "widgets",
					Result: reflect.TypeFor[string](),
				},
				&Operation{
					Method: http.MethodGet,
					Path:   "widgets/{id}",
					Params: []Param{
						PathParam[int]("id"),
					},
					Result: reflect.TypeFor[string](),
				},
			)
			require.NoError(t, err)
			require.Equal(t, 2, c.descriptors.Len())
		})
	})

	t.Run("will fail fast", func(t *testing.T) {
		t.Run("on the first malformed operation", func(t *testing.T) {
			c := newTestClient(t)

			err := c.Precompile(
				&Operation{
					Method: http.MethodGet,
					Path:   "widgets/{id}",
					Result: reflect.TypeFor[string](),
				},
			)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
		})
	})
}
