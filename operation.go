// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"path"
	"reflect"
)

// Encoding identifies how call arguments are encoded into the request body.
type Encoding int

const (
	// EncodingNone means the operation has no special body encoding. A single
	// RoleBody parameter, if declared, is converted directly into the wire body.
	EncodingNone Encoding = iota

	// EncodingForm encodes RoleField and RoleFieldMap parameters as an
	// application/x-www-form-urlencoded body.
	EncodingForm

	// EncodingMultipart encodes RolePart and RolePartMap parameters as a
	// multipart/form-data body.
	EncodingMultipart
)

func (e Encoding) String() string {
	switch e {
	case EncodingForm:
		return "form-urlencoded"
	case EncodingMultipart:
		return "multipart"
	default:
		return "none"
	}
}

// Role identifies which part of a request a call argument is bound to.
type Role int

const (
	RolePath Role = iota + 1
	RoleQuery
	RoleQueryMap
	RoleHeader
	RoleHeaderMap
	RoleField
	RoleFieldMap
	RolePart
	RolePartMap
	RoleBody
	RoleRawURL
)

func (r Role) String() string {
	switch r {
	case RolePath:
		return "path"
	case RoleQuery:
		return "query"
	case RoleQueryMap:
		return "query map"
	case RoleHeader:
		return "header"
	case RoleHeaderMap:
		return "header map"
	case RoleField:
		return "field"
	case RoleFieldMap:
		return "field map"
	case RolePart:
		return "part"
	case RolePartMap:
		return "part map"
	case RoleBody:
		return "body"
	case RoleRawURL:
		return "raw url"
	default:
		return "unknown"
	}
}

// Param declares how one call argument is bound to a request. Params are
// ordered and align one to one with the arguments passed to [Endpoint.Call].
//
// Params are typically constructed with the typed helpers, for example:
//
//	courier.PathParam[int]("id")
//	courier.QueryParam[string]("page")
//	courier.BodyParam[CreateUserRequest]()
type Param struct {
	// Role selects which part of the request the argument is bound to.
	Role Role

	// Name is the path placeholder, query key, header name, form field
	// name or part name, depending on Role. It is unused for RoleBody,
	// RoleRawURL and the map roles.
	Name string

	// Encoded marks the argument value as already URL encoded.
	Encoded bool

	// Type is the declared argument type. Converter resolution uses it to
	// pick a converter once, at compile time.
	Type reflect.Type
}

// ParamOption configures a [Param] created by one of the typed helpers.
type ParamOption func(*Param)

// Encoded marks a parameter value as already URL encoded. The binding
// pipeline will splice it into the request verbatim.
func Encoded() ParamOption {
	return func(p *Param) {
		p.Encoded = true
	}
}

func newParam[T any](role Role, name string, opts ...ParamOption) Param {
	p := Param{
		Role: role,
		Name: name,
		Type: reflect.TypeFor[T](),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// PathParam declares an argument which replaces the {name} placeholder in
// the operation's path template.
func PathParam[T any](name string, opts ...ParamOption) Param {
	return newParam[T](RolePath, name, opts...)
}

// QueryParam declares an argument which is appended to the request URL as a
// query parameter. Slice and array arguments emit one name=value pair per
// element. A nil argument is silently skipped.
func QueryParam[T any](name string, opts ...ParamOption) Param {
	return newParam[T](RoleQuery, name, opts...)
}

// QueryMap declares a map[string]T argument whose entries are appended to
// the request URL as query parameters. Nil map values are silently skipped.
func QueryMap[T any](opts ...ParamOption) Param {
	return newParam[map[string]T](RoleQueryMap, "", opts...)
}

// HeaderParam declares an argument which is set as a request header. Slice
// and array arguments emit one header entry per element.
func HeaderParam[T any](name string) Param {
	return newParam[T](RoleHeader, name)
}

// HeaderMap declares a map[string]T argument whose entries are set as
// request headers.
func HeaderMap[T any]() Param {
	return newParam[map[string]T](RoleHeaderMap, "")
}

// FieldParam declares a form field argument. Only valid on operations with
// [EncodingForm].
func FieldParam[T any](name string, opts ...ParamOption) Param {
	return newParam[T](RoleField, name, opts...)
}

// FieldMap declares a map[string]T argument of form fields. Only valid on
// operations with [EncodingForm].
func FieldMap[T any](opts ...ParamOption) Param {
	return newParam[map[string]T](RoleFieldMap, "", opts...)
}

// PartParam declares a multipart part argument. Only valid on operations
// with [EncodingMultipart]. A [*Part] argument bypasses conversion and is
// written verbatim.
func PartParam[T any](name string) Param {
	return newParam[T](RolePart, name)
}

// PartMap declares a map[string]T argument of multipart parts. Only valid
// on operations with [EncodingMultipart].
func PartMap[T any]() Param {
	return newParam[map[string]T](RolePartMap, "")
}

// BodyParam declares the argument which is converted directly into the
// request body. At most one may be declared per operation and it is invalid
// under [EncodingForm] and [EncodingMultipart].
func BodyParam[T any]() Param {
	return newParam[T](RoleBody, "")
}

// RawURL declares a string argument which replaces the operation's entire
// relative path. An absolute value overrides the client base address,
// scheme and host included.
func RawURL() Param {
	return newParam[string](RoleRawURL, "")
}

// Operation is the declarative metadata for one remote operation. It is the
// input to descriptor compilation and is never mutated by the client. The
// same Operation value must be reused across calls so compiled descriptors
// can be cached by identity.
type Operation struct {
	// Method is the HTTP verb, e.g. http.MethodGet.
	Method string

	// Path is the path template relative to the client base address. It
	// may contain {name} placeholders which must be bound, bijectively,
	// by RolePath parameters.
	Path string

	// Headers are static headers in "Name: Value" form. A Content-Type
	// entry overrides the default content type of the body converter.
	Headers []string

	// Encoding selects the request body encoding mode.
	Encoding Encoding

	// Streaming disables response body buffering when the declared result
	// type is the raw [*Response].
	Streaming bool

	// Params declare, in order, how each call argument is bound.
	Params []Param

	// Result is the declared success type the response body is decoded
	// into. [NewEndpoint] fills it from its type parameter when nil.
	Result reflect.Type

	// Return optionally selects a call adapter by declared return shape.
	// When nil the default adapter is used and calls yield a [Call].
	Return reflect.Type
}

// PathElement represents a component of a URL path template.
// It is either a static segment or a {name} placeholder.
type PathElement interface {
	pathElement() string
}

// PathSegment is a static component of a URL path template.
type PathSegment string

func (s PathSegment) pathElement() string {
	return string(s)
}

type pathPlaceholder string

func (p pathPlaceholder) pathElement() string {
	return "{" + string(p) + "}"
}

// Path is a URL path template composed of static segments and placeholders.
// It is a convenience for building [Operation.Path] values.
type Path []PathElement

// BasePath starts a new path template with the given static segment.
//
// Example:
//
//	courier.BasePath("/api/v1").Segment("widgets").Param("id").String()
//	// Results in: /api/v1/widgets/{id}
func BasePath(s string) Path {
	return []PathElement{PathSegment(s)}
}

// Segment appends a static segment to the path template.
func (p Path) Segment(s string) Path {
	return append(p, PathSegment(s))
}

// Param appends a {name} placeholder to the path template. The placeholder
// must be bound by a [PathParam] declared on the operation.
func (p Path) Param(name string) Path {
	return append(p, pathPlaceholder(name))
}

// String renders the template. Static segments are joined with slashes and
// placeholders are formatted as {name}.
func (p Path) String() string {
	ss := make([]string, len(p))
	for i, el := range p {
		ss[i] = el.pathElement()
	}
	return path.Join(ss...)
}
