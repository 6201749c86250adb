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

func TestClient_OpenAPI(t *testing.T) {
	t.Run("will describe every compiled operation", func(t *testing.T) {
		t.Run("keyed by its path template", func(t *testing.T) {
			c := newTestClient(t, WithConverterFactory(Json()))

			err := c.Precompile(
				&Operation{
					Method: http.MethodGet,
					Path:   "widgets/{id}",
					Params: []Param{
						PathParam[int]("id"),
						QueryParam[string]("expand"),
					},
					Result: reflect.TypeFor[widget](),
				},
				&Operation{
					Method: http.MethodPost,
					Path:   "widgets",
					Params: []Param{
						BodyParam[widget](),
					},
					Result: reflect.TypeFor[widget](),
				},
			)
			require.NoError(t, err)

			spec, err := c.OpenAPI("widget service", "v1.0.0")
			require.NoError(t, err)
			require.Equal(t, "widget service", spec.Info.Title)
			require.Equal(t, "v1.0.0", spec.Info.Version)

			require.Contains(t, spec.Paths.MapOfPathItemValues, "/widgets/{id}")
			require.Contains(t, spec.Paths.MapOfPathItemValues, "/widgets")

			getItem := spec.Paths.MapOfPathItemValues["/widgets/{id}"]
			require.Contains(t, getItem.MapOfOperationValues, "get")

			get := getItem.MapOfOperationValues["get"]
			require.Len(t, get.Parameters, 2)
			require.Equal(t, "id", get.Parameters[0].Parameter.Name)
			require.NotNil(t, get.Parameters[0].Parameter.Required)
			require.True(t, *get.Parameters[0].Parameter.Required)
			require.Equal(t, "expand", get.Parameters[1].Parameter.Name)
			require.Contains(t, get.Responses.MapOfResponseOrRefValues, "200")

			postItem := spec.Paths.MapOfPathItemValues["/widgets"]
			require.Contains(t, postItem.MapOfOperationValues, "post")

			post := postItem.MapOfOperationValues["post"]
			require.NotNil(t, post.RequestBody)
			require.Contains(t, post.RequestBody.RequestBody.Content, JsonContentType)
		})
	})

	t.Run("will omit operations", func(t *testing.T) {
		t.Run("addressed through a raw url parameter", func(t *testing.T) {
			c := newTestClient(t)

			err := c.Precompile(&Operation{
				Method: http.MethodGet,
				Params: []Param{
					RawURL(),
				},
				Result: reflect.TypeFor[string](),
			})
			require.NoError(t, err)

			spec, err := c.OpenAPI("widget service", "v1.0.0")
			require.NoError(t, err)
			require.Empty(t, spec.Paths.MapOfPathItemValues)
		})
	})

	t.Run("will split the static query string off the endpoint path", func(t *testing.T) {
		t.Run("so path keys never contain a query component", func(t *testing.T) {
			c := newTestClient(t)

			err := c.Precompile(&Operation{
				Method: http.MethodGet,
				Path:   "widgets?sort=asc",
				Result: reflect.TypeFor[string](),
			})
			require.NoError(t, err)

			spec, err := c.OpenAPI("widget service", "v1.0.0")
			require.NoError(t, err)
			require.Contains(t, spec.Paths.MapOfPathItemValues, "/widgets")
		})
	})
}
