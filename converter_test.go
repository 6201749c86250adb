// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type note struct {
	Text string
}

// claimResponseFactory claims response conversion for exactly one type and
// tags every decoded value so tests can tell which factory produced it.
type claimResponseFactory struct {
	claims reflect.Type
	tag    string
}

func (f *claimResponseFactory) RequestConverter(t reflect.Type, op *Operation) RequestConverter {
	return nil
}

func (f *claimResponseFactory) ResponseConverter(t reflect.Type, op *Operation) ResponseConverter {
	if t != f.claims {
		return nil
	}
	return responseConverterFunc(func(r io.Reader) (any, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return note{Text: f.tag + ":" + string(b)}, nil
	})
}

func (f *claimResponseFactory) StringConverter(t reflect.Type, op *Operation) StringConverter {
	return nil
}

// taggedNoteFactory carries a slice field, so its dynamic type is not
// comparable with ==.
type taggedNoteFactory struct {
	tags []string
}

func (f taggedNoteFactory) RequestConverter(t reflect.Type, op *Operation) RequestConverter {
	return nil
}

func (f taggedNoteFactory) ResponseConverter(t reflect.Type, op *Operation) ResponseConverter {
	if t != reflect.TypeFor[note]() {
		return nil
	}
	return responseConverterFunc(func(r io.Reader) (any, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return note{Text: strings.Join(f.tags, ",") + ":" + string(b)}, nil
	})
}

func (f taggedNoteFactory) StringConverter(t reflect.Type, op *Operation) StringConverter {
	return nil
}

func TestConverterResolution(t *testing.T) {
	t.Run("will pick the first factory claiming the type", func(t *testing.T) {
		t.Run("in registration order", func(t *testing.T) {
			first := &claimResponseFactory{claims: reflect.TypeFor[note](), tag: "first"}
			second := &claimResponseFactory{claims: reflect.TypeFor[note](), tag: "second"}

			c := newTestClient(t,
				WithConverterFactory(first),
				WithConverterFactory(second),
			)

			conv, err := c.NextResponseConverter(nil, reflect.TypeFor[note](), &Operation{})
			require.NoError(t, err)

			v, err := conv.ConvertResponse(strings.NewReader("hello"))
			require.NoError(t, err)
			require.Equal(t, note{Text: "first:hello"}, v)
		})

		t.Run("after the skipPast factory when one is given", func(t *testing.T) {
			first := &claimResponseFactory{claims: reflect.TypeFor[note](), tag: "first"}
			second := &claimResponseFactory{claims: reflect.TypeFor[note](), tag: "second"}

			c := newTestClient(t,
				WithConverterFactory(first),
				WithConverterFactory(second),
			)

			conv, err := c.NextResponseConverter(first, reflect.TypeFor[note](), &Operation{})
			require.NoError(t, err)

			v, err := conv.ConvertResponse(strings.NewReader("hello"))
			require.NoError(t, err)
			require.Equal(t, note{Text: "second:hello"}, v)
		})
	})

	t.Run("will match an uncomparable skipPast factory by its dynamic type", func(t *testing.T) {
		t.Run("without panicking", func(t *testing.T) {
			skipped := taggedNoteFactory{tags: []string{"skipped"}}
			after := &claimResponseFactory{claims: reflect.TypeFor[note](), tag: "after"}

			c := newTestClient(t,
				WithConverterFactory(skipped),
				WithConverterFactory(after),
			)

			var conv ResponseConverter
			require.NotPanics(t, func() {
				var err error
				conv, err = c.NextResponseConverter(taggedNoteFactory{tags: []string{"skipped"}}, reflect.TypeFor[note](), &Operation{})
				require.NoError(t, err)
			})

			v, err := conv.ConvertResponse(strings.NewReader("hello"))
			require.NoError(t, err)
			require.Equal(t, note{Text: "after:hello"}, v)
		})
	})

	t.Run("will return an UnresolvedConverterError", func(t *testing.T) {
		t.Run("naming the skipped and consulted factories", func(t *testing.T) {
			first := &claimResponseFactory{claims: reflect.TypeFor[note](), tag: "first"}

			c := newTestClient(t, WithConverterFactory(first))

			_, err := c.NextResponseConverter(first, reflect.TypeFor[note](), &Operation{})

			var ue *UnresolvedConverterError
			require.ErrorAs(t, err, &ue)
			require.Equal(t, "response", ue.Kind)
			require.Equal(t, reflect.TypeFor[note](), ue.Type)
			require.NotEmpty(t, ue.Skipped)
			require.Empty(t, ue.Tried)
		})
	})
}

func TestBuiltinConverters(t *testing.T) {
	t.Run("will pass through request bodies", func(t *testing.T) {
		t.Run("of type *Body verbatim", func(t *testing.T) {
			c := newTestClient(t)

			conv, err := c.NextRequestConverter(nil, reflect.TypeFor[*Body](), &Operation{})
			require.NoError(t, err)

			in := BytesBody("text/plain", []byte("hello"))
			out, err := conv.ConvertRequest(in)
			require.NoError(t, err)
			require.Same(t, in, out)
		})

		t.Run("of type []byte as an octet stream", func(t *testing.T) {
			c := newTestClient(t)

			conv, err := c.NextRequestConverter(nil, reflect.TypeFor[[]byte](), &Operation{})
			require.NoError(t, err)

			out, err := conv.ConvertRequest([]byte("hello"))
			require.NoError(t, err)
			require.Equal(t, "application/octet-stream", out.ContentType)
			require.Equal(t, []byte("hello"), out.Content)
		})

		t.Run("of any io.Reader implementation by draining it", func(t *testing.T) {
			c := newTestClient(t)

			conv, err := c.NextRequestConverter(nil, reflect.TypeFor[*strings.Reader](), &Operation{})
			require.NoError(t, err)

			out, err := conv.ConvertRequest(strings.NewReader("hello"))
			require.NoError(t, err)
			require.Equal(t, []byte("hello"), out.Content)
		})
	})

	t.Run("will decode response bodies", func(t *testing.T) {
		t.Run("of type string", func(t *testing.T) {
			c := newTestClient(t)

			conv, err := c.NextResponseConverter(nil, reflect.TypeFor[string](), &Operation{})
			require.NoError(t, err)

			v, err := conv.ConvertResponse(strings.NewReader("hello"))
			require.NoError(t, err)
			require.Equal(t, "hello", v)
		})

		t.Run("of type Empty by discarding the body", func(t *testing.T) {
			c := newTestClient(t)

			conv, err := c.NextResponseConverter(nil, reflect.TypeFor[Empty](), &Operation{})
			require.NoError(t, err)

			v, err := conv.ConvertResponse(strings.NewReader("ignored"))
			require.NoError(t, err)
			require.Equal(t, Empty{}, v)
		})
	})

	t.Run("will string scalar arguments", func(t *testing.T) {
		op := &Operation{
			Method: http.MethodGet,
			Path:   "widgets",
			Params: []Param{
				QueryParam[bool]("b"),
				QueryParam[int]("i"),
				QueryParam[uint]("u"),
				QueryParam[float64]("f"),
			},
			Result: reflect.TypeFor[string](),
		}

		c := newTestClient(t)

		req := buildRequest(t, c, op, true, -7, uint(7), 2.5)
		require.Equal(t, "b=true&i=-7&u=7&f=2.5", req.URL.RawQuery)
	})

	t.Run("will string arguments implementing fmt.Stringer", func(t *testing.T) {
		c := newTestClient(t)

		req := buildRequest(t, c, &Operation{
			Method: http.MethodGet,
			Path:   "widgets",
			Params: []Param{
				QueryParam[*strings.Builder]("s"),
			},
			Result: reflect.TypeFor[string](),
		}, newBuilder("hello"))

		require.Equal(t, "s=hello", req.URL.RawQuery)
	})
}

func newBuilder(s string) *strings.Builder {
	var sb strings.Builder
	sb.WriteString(s)
	return &sb
}
