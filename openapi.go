// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// OpenAPI assembles an OpenAPI 3.0 document describing every operation
// compiled by the client so far. Operations addressed through a raw url
// parameter have no path template and are omitted.
func (c *Client) OpenAPI(title, version string) (*openapi3.Spec, error) {
	spec := &openapi3.Spec{
		Openapi: "3.0",
		Info: openapi3.Info{
			Title:   title,
			Version: version,
		},
	}

	var specErr error
	c.descriptors.Range(func(op *Operation, desc *descriptor) bool {
		if desc.path == "" {
			return true
		}

		o, err := desc.openapiOperation()
		if err != nil {
			specErr = err
			return false
		}

		endpoint, _, _ := strings.Cut(desc.path, "?")
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}

		err = spec.AddOperation(desc.method, endpoint, o)
		if err != nil {
			specErr = err
			return false
		}
		return true
	})
	if specErr != nil {
		return nil, specErr
	}
	return spec, nil
}

func (desc *descriptor) openapiOperation() (openapi3.Operation, error) {
	var o openapi3.Operation

	for i, b := range desc.bindings {
		param := desc.op.Params[i]

		var in openapi3.ParameterIn
		switch b.role {
		case RolePath:
			in = openapi3.ParameterInPath
		case RoleQuery:
			in = openapi3.ParameterInQuery
		case RoleHeader:
			in = openapi3.ParameterInHeader
		default:
			continue
		}

		def := &openapi3.Parameter{
			Name: param.Name,
			In:   in,
		}
		if b.role == RolePath {
			def.Required = ptr.Ref(true)
		}
		o.Parameters = append(o.Parameters, openapi3.ParameterOrRef{
			Parameter: def,
		})
	}

	body, err := desc.openapiRequestBody()
	if err != nil {
		return o, err
	}
	o.RequestBody = body

	responses, err := desc.openapiResponses()
	if err != nil {
		return o, err
	}
	o.Responses = responses
	return o, nil
}

func (desc *descriptor) openapiRequestBody() (*openapi3.RequestBodyOrRef, error) {
	switch {
	case desc.isForm, desc.isMultipart:
		contentType := "application/x-www-form-urlencoded"
		if desc.isMultipart {
			contentType = "multipart/form-data"
		}

		schema := &openapi3.Schema{
			Type: ptr.Ref(openapi3.SchemaTypeObject),
		}
		return &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Required: ptr.Ref(true),
				Content: map[string]openapi3.MediaType{
					contentType: {
						Schema: &openapi3.SchemaOrRef{
							Schema: schema,
						},
					},
				},
			},
		}, nil
	default:
		for i, b := range desc.bindings {
			if b.role != RoleBody {
				continue
			}

			schemaOrRef, err := schemaFor(desc.op.Params[i].Type)
			if err != nil {
				return nil, err
			}

			contentType := desc.contentType
			if contentType == "" {
				contentType = JsonContentType
			}
			return &openapi3.RequestBodyOrRef{
				RequestBody: &openapi3.RequestBody{
					Required: ptr.Ref(true),
					Content: map[string]openapi3.MediaType{
						contentType: {
							Schema: schemaOrRef,
						},
					},
				},
			}, nil
		}
		return nil, nil
	}
}

func (desc *descriptor) openapiResponses() (openapi3.Responses, error) {
	responses := openapi3.Responses{
		MapOfResponseOrRefValues: make(map[string]openapi3.ResponseOrRef),
	}

	resultType := desc.resultType()
	if desc.raw || resultType == emptyType {
		responses.MapOfResponseOrRefValues[strconv.Itoa(http.StatusOK)] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{},
		}
		return responses, nil
	}

	schemaOrRef, err := schemaFor(resultType)
	if err != nil {
		return responses, err
	}
	responses.MapOfResponseOrRefValues[strconv.Itoa(http.StatusOK)] = openapi3.ResponseOrRef{
		Response: &openapi3.Response{
			Content: map[string]openapi3.MediaType{
				JsonContentType: {
					Schema: schemaOrRef,
				},
			},
		},
	}
	return responses, nil
}

func schemaFor(t reflect.Type) (*openapi3.SchemaOrRef, error) {
	var reflector jsonschema.Reflector

	jsonSchema, err := reflector.Reflect(reflect.New(t).Elem().Interface(), jsonschema.InlineRefs)
	if err != nil {
		return nil, err
	}

	var schemaOrRef openapi3.SchemaOrRef
	schemaOrRef.FromJSONSchema(jsonSchema.ToSchemaOrBool())
	return &schemaOrRef, nil
}
