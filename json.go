// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"encoding/json"
	"io"
	"reflect"
)

// JsonContentType is the content type emitted by the [Json] converter factory.
const JsonContentType = "application/json"

type jsonConverterFactory struct{}

// Json returns a [ConverterFactory] which marshals request bodies to JSON
// and decodes JSON response bodies into the declared success type. It claims
// every type, so factories registered after it are never consulted for body
// conversion.
//
// Example:
//
//	client, err := courier.New("https://api.example.com/",
//	    courier.WithConverterFactory(courier.Json()),
//	)
func Json() ConverterFactory {
	return jsonConverterFactory{}
}

func (jsonConverterFactory) RequestConverter(t reflect.Type, op *Operation) RequestConverter {
	return requestConverterFunc(func(v any) (*Body, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return BytesBody(JsonContentType, b), nil
	})
}

func (jsonConverterFactory) ResponseConverter(t reflect.Type, op *Operation) ResponseConverter {
	return responseConverterFunc(func(r io.Reader) (any, error) {
		v := reflect.New(t)
		err := json.NewDecoder(r).Decode(v.Interface())
		if err != nil {
			return nil, err
		}
		return v.Elem().Interface(), nil
	})
}

func (jsonConverterFactory) StringConverter(t reflect.Type, op *Operation) StringConverter {
	return nil
}
