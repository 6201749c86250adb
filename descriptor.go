// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
)

// descriptor is the compiled, immutable representation of one remote
// operation. It is built once per distinct [Operation], cached for the
// client's lifetime and reused without re-validation.
type descriptor struct {
	op *Operation

	method      string
	path        string
	headers     http.Header
	contentType string

	hasBody     bool
	isForm      bool
	isMultipart bool

	// raw marks operations whose declared result type is the raw
	// [*Response]; the response body passes through undecoded.
	raw       bool
	streaming bool

	pathParams map[string]struct{}
	bindings   []*binding

	respConverter ResponseConverter
	adapter       CallAdapter
}

// resultType reports the declared success type the response is decoded into.
func (desc *descriptor) resultType() reflect.Type {
	t := desc.adapter.ResultType()
	if t == nil {
		t = desc.op.Result
	}
	return t
}

// Placeholder names mirror the original template grammar: letters, digits,
// underscores and hyphens, starting with a letter.
var pathParamRegexp = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_-]*)\}`)

var (
	callType = reflect.TypeFor[Call]()
	partType = reflect.TypeFor[*Part]()
)

func methodError(op *Operation, format string, args ...any) *CompileError {
	return &CompileError{
		Method: op.Method,
		Path:   op.Path,
		Param:  -1,
		Cause:  fmt.Errorf(format, args...),
	}
}

func paramError(op *Operation, p int, format string, args ...any) *CompileError {
	return &CompileError{
		Method: op.Method,
		Path:   op.Path,
		Param:  p,
		Cause:  fmt.Errorf(format, args...),
	}
}

func bodyAllowed(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// compileOperation validates one operation's declarative metadata and
// compiles it into a descriptor. Compilation is fail-fast: the first
// violated constraint is reported, citing the offending parameter position.
func compileOperation(c *Client, op *Operation) (*descriptor, error) {
	if op.Method == "" {
		return nil, methodError(op, "an HTTP method is required")
	}

	desc := &descriptor{
		op:        op,
		method:    op.Method,
		hasBody:   bodyAllowed(op.Method),
		streaming: op.Streaming,
	}

	if !desc.hasBody && op.Encoding != EncodingNone {
		return nil, methodError(op, "%s encoding can only be used with HTTP methods which permit a request body", op.Encoding)
	}
	desc.isForm = op.Encoding == EncodingForm
	desc.isMultipart = op.Encoding == EncodingMultipart

	err := desc.compilePath(op)
	if err != nil {
		return nil, err
	}

	err = desc.compileHeaders(op)
	if err != nil {
		return nil, err
	}

	err = desc.resolveAdapterAndConverter(c, op)
	if err != nil {
		return nil, err
	}

	err = desc.compileParams(c, op)
	if err != nil {
		return nil, err
	}
	return desc, nil
}

func (desc *descriptor) compilePath(op *Operation) error {
	desc.pathParams = make(map[string]struct{})
	if op.Path == "" {
		return nil
	}

	pathPart, queryPart, found := strings.Cut(op.Path, "?")
	if found && pathParamRegexp.MatchString(queryPart) {
		return methodError(op, "static query string %q must not contain placeholders, use a query parameter instead", queryPart)
	}

	for _, match := range pathParamRegexp.FindAllStringSubmatch(pathPart, -1) {
		desc.pathParams[match[1]] = struct{}{}
	}

	desc.path = op.Path
	return nil
}

func (desc *descriptor) compileHeaders(op *Operation) error {
	desc.headers = make(http.Header, len(op.Headers))
	for _, h := range op.Headers {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !found || name == "" || value == "" {
			return methodError(op, "static header must be in \"Name: Value\" form, got %q", h)
		}

		if strings.EqualFold(name, "Content-Type") {
			desc.contentType = value
			continue
		}
		desc.headers.Add(name, value)
	}
	return nil
}

func (desc *descriptor) resolveAdapterAndConverter(c *Client, op *Operation) error {
	returnType := op.Return
	if returnType == nil {
		returnType = callType
	}

	adapter, err := resolveCallAdapter(c.adapterFactories, nil, returnType, op)
	if err != nil {
		return methodError(op, "%w", err)
	}
	desc.adapter = adapter

	resultType := adapter.ResultType()
	if resultType == nil {
		resultType = op.Result
	}
	if resultType == nil {
		return methodError(op, "a result type is required")
	}

	if op.Method == http.MethodHead && resultType != emptyType {
		return methodError(op, "HEAD operations must declare courier.Empty as their result type")
	}

	if resultType == rawResponseType {
		desc.raw = true
		return nil
	}
	if desc.streaming {
		return methodError(op, "streaming requires the raw *courier.Response result type")
	}

	conv, err := resolveResponseConverter(c.converterFactories, nil, resultType, op)
	if err != nil {
		return methodError(op, "%w", err)
	}
	desc.respConverter = conv
	return nil
}

func (desc *descriptor) compileParams(c *Client, op *Operation) error {
	var gotField, gotPart, gotBody, gotPath, gotQuery, gotURL bool
	boundPathParams := make(map[string]struct{})

	desc.bindings = make([]*binding, 0, len(op.Params))
	for p, param := range op.Params {
		if param.Type == nil {
			return paramError(op, p, "a declared type is required")
		}

		b := &binding{
			role:    param.Role,
			name:    param.Name,
			encoded: param.Encoded,
			pos:     p,
		}

		valueType := param.Type
		switch param.Role {
		case RoleQuery, RoleHeader, RoleField, RolePart:
			// Iterable arguments emit repeated wire entries; resolve the
			// element type instead.
			if valueType != bytesType && (valueType.Kind() == reflect.Slice || valueType.Kind() == reflect.Array) {
				b.repeated = true
				valueType = valueType.Elem()
			}
		case RoleQueryMap, RoleHeaderMap, RoleFieldMap, RolePartMap:
			if valueType.Kind() != reflect.Map || valueType.Key().Kind() != reflect.String {
				return paramError(op, p, "%s parameters must be maps with string keys, got %s", param.Role, valueType)
			}
			valueType = valueType.Elem()
		}

		switch param.Role {
		case RolePath:
			if gotURL {
				return paramError(op, p, "path parameters may not be used with a raw url parameter")
			}
			if gotQuery {
				return paramError(op, p, "a path parameter must not come after a query parameter")
			}
			if desc.path == "" {
				return paramError(op, p, "path parameters require a path template")
			}
			if param.Name == "" {
				return paramError(op, p, "path parameters require a placeholder name")
			}
			if !pathParamRegexp.MatchString("{" + param.Name + "}") {
				return paramError(op, p, "invalid path placeholder name %q", param.Name)
			}
			if _, ok := desc.pathParams[param.Name]; !ok {
				return paramError(op, p, "path template %q has no placeholder {%s}", desc.path, param.Name)
			}
			if _, ok := boundPathParams[param.Name]; ok {
				return paramError(op, p, "placeholder {%s} is already bound by an earlier path parameter", param.Name)
			}
			boundPathParams[param.Name] = struct{}{}
			gotPath = true

			err := b.resolveString(c, op, p, valueType)
			if err != nil {
				return err
			}
		case RoleQuery, RoleQueryMap:
			if gotURL {
				return paramError(op, p, "a query parameter must not come after a raw url parameter")
			}
			if param.Role == RoleQuery && param.Name == "" {
				return paramError(op, p, "query parameters require a name")
			}
			gotQuery = true

			err := b.resolveString(c, op, p, valueType)
			if err != nil {
				return err
			}
		case RoleHeader, RoleHeaderMap:
			if param.Role == RoleHeader && param.Name == "" {
				return paramError(op, p, "header parameters require a header name")
			}

			err := b.resolveString(c, op, p, valueType)
			if err != nil {
				return err
			}
		case RoleField, RoleFieldMap:
			if !desc.isForm {
				return paramError(op, p, "field parameters can only be used with form encoding")
			}
			if param.Role == RoleField && param.Name == "" {
				return paramError(op, p, "field parameters require a field name")
			}
			gotField = true

			err := b.resolveString(c, op, p, valueType)
			if err != nil {
				return err
			}
		case RolePart, RolePartMap:
			if !desc.isMultipart {
				return paramError(op, p, "part parameters can only be used with multipart encoding")
			}
			if param.Role == RolePart && param.Name == "" && valueType != partType {
				return paramError(op, p, "part parameters require a part name")
			}
			gotPart = true

			// Pre-built raw parts bypass conversion.
			if valueType != partType {
				err := b.resolveRequest(c, op, p, valueType)
				if err != nil {
					return err
				}
			}
		case RoleBody:
			if desc.isForm || desc.isMultipart {
				return paramError(op, p, "body parameters cannot be used with form or multipart encoding")
			}
			if gotBody {
				return paramError(op, p, "multiple body parameters declared, at most one is allowed")
			}
			if !desc.hasBody {
				return paramError(op, p, "%s operations cannot contain a body parameter", desc.method)
			}
			gotBody = true

			err := b.resolveRequest(c, op, p, valueType)
			if err != nil {
				return err
			}
		case RoleRawURL:
			if gotURL {
				return paramError(op, p, "multiple raw url parameters declared, at most one is allowed")
			}
			if gotQuery {
				return paramError(op, p, "a raw url parameter must not come after a query parameter")
			}
			if gotPath {
				return paramError(op, p, "path parameters may not be used with a raw url parameter")
			}
			if desc.path != "" {
				return paramError(op, p, "a raw url parameter cannot be used with a path template")
			}
			if valueType != stringType {
				return paramError(op, p, "raw url parameters must be strings, got %s", valueType)
			}
			gotURL = true
		default:
			return paramError(op, p, "a parameter role is required")
		}

		desc.bindings = append(desc.bindings, b)
	}

	if desc.path == "" && !gotURL {
		return methodError(op, "either a path template or a raw url parameter is required")
	}
	for name := range desc.pathParams {
		if _, ok := boundPathParams[name]; !ok {
			return methodError(op, "path placeholder {%s} is not bound by any path parameter", name)
		}
	}
	if desc.isForm && !gotField {
		return methodError(op, "form encoded operations must declare at least one field parameter")
	}
	if desc.isMultipart && !gotPart {
		return methodError(op, "multipart operations must declare at least one part parameter")
	}
	return nil
}

func (b *binding) resolveString(c *Client, op *Operation, p int, t reflect.Type) error {
	conv, err := resolveStringConverter(c.converterFactories, t, op)
	if err != nil {
		return paramError(op, p, "%w", err)
	}
	b.str = conv
	return nil
}

func (b *binding) resolveRequest(c *Client, op *Operation, p int, t reflect.Type) error {
	conv, err := resolveRequestConverter(c.converterFactories, nil, t, op)
	if err != nil {
		return paramError(op, p, "%w", err)
	}
	b.req = conv
	return nil
}
