// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// widgetFuture resolves a call into a channel carrying its outcome.
type widgetFuture struct {
	Responses chan *Response
	Failures  chan error
}

type futureAdapter struct{}

func (futureAdapter) ResultType() reflect.Type {
	return reflect.TypeFor[widget]()
}

func (futureAdapter) Adapt(c Call) any {
	f := &widgetFuture{
		Responses: make(chan *Response, 1),
		Failures:  make(chan error, 1),
	}
	c.Enqueue(context.Background(), OnResult(
		func(_ Call, resp *Response) {
			f.Responses <- resp
		},
		func(_ Call, err error) {
			f.Failures <- err
		},
	))
	return f
}

type futureAdapterFactory struct{}

func (futureAdapterFactory) Get(returnType reflect.Type, op *Operation) CallAdapter {
	if returnType != reflect.TypeFor[*widgetFuture]() {
		return nil
	}
	return futureAdapter{}
}

func TestCallAdapterResolution(t *testing.T) {
	t.Run("will fall back to the default adapter", func(t *testing.T) {
		t.Run("when no declared return shape is set", func(t *testing.T) {
			ts := newWidgetServer(t)

			c, err := New(ts.URL, WithConverterFactory(Json()))
			require.NoError(t, err)

			po, err := c.Prepare(getWidgetOperation())
			require.NoError(t, err)

			adapted := po.Adapted(42)

			call, ok := adapted.(Call)
			require.True(t, ok)
			require.False(t, call.Executed())
		})
	})

	t.Run("will pick a registered adapter factory", func(t *testing.T) {
		t.Run("when it claims the declared return shape", func(t *testing.T) {
			ts := newWidgetServer(t)

			c, err := New(ts.URL,
				WithConverterFactory(Json()),
				WithCallAdapterFactory(futureAdapterFactory{}),
			)
			require.NoError(t, err)

			op := getWidgetOperation()
			op.Result = nil
			op.Return = reflect.TypeFor[*widgetFuture]()

			po, err := c.Prepare(op)
			require.NoError(t, err)

			f, ok := po.Adapted(42).(*widgetFuture)
			require.True(t, ok)

			select {
			case resp := <-f.Responses:
				require.Equal(t, widget{ID: 42, Name: "sprocket"}, resp.Value())
			case err := <-f.Failures:
				t.Fatalf("unexpected failure: %v", err)
			}
		})
	})

	t.Run("will return an UnresolvedAdapterError", func(t *testing.T) {
		t.Run("when every remaining factory declines the return shape", func(t *testing.T) {
			factory := futureAdapterFactory{}

			_, err := resolveCallAdapter(
				[]CallAdapterFactory{factory},
				factory,
				reflect.TypeFor[*widgetFuture](),
				&Operation{},
			)

			var ue *UnresolvedAdapterError
			require.ErrorAs(t, err, &ue)
			require.NotEmpty(t, ue.Skipped)
			require.Empty(t, ue.Tried)
		})
	})
}
