// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"reflect"
	"strconv"
)

// Body is a wire-ready request body along with its content type.
type Body struct {
	ContentType string
	Content     []byte
}

// BytesBody initializes a [Body] from raw bytes.
func BytesBody(contentType string, b []byte) *Body {
	return &Body{
		ContentType: contentType,
		Content:     b,
	}
}

// Part is a pre-built multipart part. Passing a *Part argument to a
// [PartParam] bound parameter bypasses conversion entirely.
type Part struct {
	Name     string
	Filename string
	Headers  textproto.MIMEHeader
	Body     *Body
}

// Empty is a declared success type for operations whose responses carry no
// meaningful body. The response body is discarded without decoding.
type Empty struct{}

// RequestConverter turns a call argument into a wire-ready request body.
type RequestConverter interface {
	ConvertRequest(v any) (*Body, error)
}

// ResponseConverter turns a fully buffered response body into a value of
// the declared success type.
type ResponseConverter interface {
	ConvertResponse(r io.Reader) (any, error)
}

// StringConverter turns a call argument into its wire string form, used for
// path, query, header and form field values.
type StringConverter interface {
	ConvertString(v any) (string, error)
}

// ConverterFactory resolves converters for declared types. Each method
// returns nil when the factory does not claim the type, in which case
// resolution moves on to the next registered factory.
//
// A factory may delegate to the factories registered after itself through
// [Client.NextRequestConverter] and [Client.NextResponseConverter].
type ConverterFactory interface {
	RequestConverter(t reflect.Type, op *Operation) RequestConverter
	ResponseConverter(t reflect.Type, op *Operation) ResponseConverter
	StringConverter(t reflect.Type, op *Operation) StringConverter
}

var rawResponseType = reflect.TypeFor[*Response]()

var errRawResponseConverter = errors.New("the raw *courier.Response type cannot be handled by a response converter")

func factoryName(f any) string {
	return reflect.TypeOf(f).String()
}

func factoryIndex[T any](factories []T, skipPast T) int {
	skip := reflect.ValueOf(skipPast)
	if !skip.IsValid() {
		return 0
	}

	// Comparing interface values panics when the dynamic type is not
	// comparable, so such factories are matched by dynamic type alone.
	comparable := skip.Type().Comparable()
	for i, f := range factories {
		fv := reflect.ValueOf(f)
		if fv.Type() != skip.Type() {
			continue
		}
		if !comparable || fv.Interface() == skip.Interface() {
			return i + 1
		}
	}
	return 0
}

func factoryNames(factories []ConverterFactory, upto int) []string {
	names := make([]string, 0, upto)
	for _, f := range factories[:upto] {
		names = append(names, factoryName(f))
	}
	return names
}

func resolveRequestConverter(factories []ConverterFactory, skipPast ConverterFactory, t reflect.Type, op *Operation) (RequestConverter, error) {
	start := factoryIndex(factories, skipPast)
	for i := start; i < len(factories); i++ {
		conv := factories[i].RequestConverter(t, op)
		if conv != nil {
			return conv, nil
		}
	}
	return nil, &UnresolvedConverterError{
		Kind:    "request",
		Type:    t,
		Skipped: factoryNames(factories, start),
		Tried:   factoryNames(factories, len(factories))[start:],
	}
}

func resolveResponseConverter(factories []ConverterFactory, skipPast ConverterFactory, t reflect.Type, op *Operation) (ResponseConverter, error) {
	if t == rawResponseType {
		return nil, errRawResponseConverter
	}

	start := factoryIndex(factories, skipPast)
	for i := start; i < len(factories); i++ {
		conv := factories[i].ResponseConverter(t, op)
		if conv != nil {
			return conv, nil
		}
	}
	return nil, &UnresolvedConverterError{
		Kind:    "response",
		Type:    t,
		Skipped: factoryNames(factories, start),
		Tried:   factoryNames(factories, len(factories))[start:],
	}
}

func resolveStringConverter(factories []ConverterFactory, t reflect.Type, op *Operation) (StringConverter, error) {
	for _, f := range factories {
		conv := f.StringConverter(t, op)
		if conv != nil {
			return conv, nil
		}
	}
	return nil, &UnresolvedConverterError{
		Kind:  "string",
		Type:  t,
		Tried: factoryNames(factories, len(factories)),
	}
}

// builtinConverterFactory covers pass-through wire types and baseline
// stringing of scalars. It is always registered first.
type builtinConverterFactory struct{}

var (
	bodyType          = reflect.TypeFor[*Body]()
	bytesType         = reflect.TypeFor[[]byte]()
	stringType        = reflect.TypeFor[string]()
	emptyType         = reflect.TypeFor[Empty]()
	readerType        = reflect.TypeFor[io.Reader]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType      = reflect.TypeFor[fmt.Stringer]()
)

func (builtinConverterFactory) RequestConverter(t reflect.Type, op *Operation) RequestConverter {
	switch {
	case t == bodyType:
		return requestConverterFunc(func(v any) (*Body, error) {
			b, ok := v.(*Body)
			if !ok || b == nil {
				return nil, errors.New("nil *courier.Body")
			}
			return b, nil
		})
	case t == bytesType:
		return requestConverterFunc(func(v any) (*Body, error) {
			b, ok := v.([]byte)
			if !ok {
				return nil, fmt.Errorf("expected []byte, got %T", v)
			}
			return BytesBody("application/octet-stream", b), nil
		})
	case t.Implements(readerType):
		return requestConverterFunc(func(v any) (*Body, error) {
			r, ok := v.(io.Reader)
			if !ok || r == nil {
				return nil, errors.New("nil io.Reader")
			}
			b, err := io.ReadAll(r)
			if err != nil {
				return nil, err
			}
			return BytesBody("application/octet-stream", b), nil
		})
	default:
		return nil
	}
}

func (builtinConverterFactory) ResponseConverter(t reflect.Type, op *Operation) ResponseConverter {
	switch t {
	case bytesType:
		return responseConverterFunc(func(r io.Reader) (any, error) {
			return io.ReadAll(r)
		})
	case stringType:
		return responseConverterFunc(func(r io.Reader) (any, error) {
			b, err := io.ReadAll(r)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		})
	case emptyType:
		return responseConverterFunc(func(r io.Reader) (any, error) {
			_, err := io.Copy(io.Discard, r)
			if err != nil {
				return nil, err
			}
			return Empty{}, nil
		})
	default:
		return nil
	}
}

func (builtinConverterFactory) StringConverter(t reflect.Type, op *Operation) StringConverter {
	if t.Implements(textMarshalerType) {
		return stringConverterFunc(func(v any) (string, error) {
			b, err := v.(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return "", err
			}
			return string(b), nil
		})
	}
	if t.Implements(stringerType) {
		return stringConverterFunc(func(v any) (string, error) {
			return v.(fmt.Stringer).String(), nil
		})
	}

	switch t.Kind() {
	case reflect.String:
		return stringConverterFunc(func(v any) (string, error) {
			return reflect.ValueOf(v).String(), nil
		})
	case reflect.Bool:
		return stringConverterFunc(func(v any) (string, error) {
			return strconv.FormatBool(reflect.ValueOf(v).Bool()), nil
		})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return stringConverterFunc(func(v any) (string, error) {
			return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
		})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return stringConverterFunc(func(v any) (string, error) {
			return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), nil
		})
	case reflect.Float32, reflect.Float64:
		return stringConverterFunc(func(v any) (string, error) {
			return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'f', -1, 64), nil
		})
	default:
		return nil
	}
}

type requestConverterFunc func(v any) (*Body, error)

func (f requestConverterFunc) ConvertRequest(v any) (*Body, error) {
	return f(v)
}

type responseConverterFunc func(r io.Reader) (any, error)

func (f responseConverterFunc) ConvertResponse(r io.Reader) (any, error) {
	return f(r)
}

type stringConverterFunc func(v any) (string, error)

func (f stringConverterFunc) ConvertString(v any) (string, error) {
	return f(v)
}
