// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// requestBuilder accumulates the mutable state of one request under
// construction. Each call owns its builder exclusively; no locking is
// required. Bindings mutate the builder in declaration order and build
// produces the immutable wire request.
type requestBuilder struct {
	method       string
	base         *url.URL
	relativePath string
	rawURL       string
	hasRawURL    bool

	query   strings.Builder
	headers http.Header

	contentType string
	isForm      bool
	isMultipart bool

	fields []string
	parts  []*Part
	body   *Body
}

func newRequestBuilder(desc *descriptor, base *url.URL) *requestBuilder {
	rb := &requestBuilder{
		method:       desc.method,
		base:         base,
		relativePath: desc.path,
		headers:      make(http.Header, len(desc.headers)),
		contentType:  desc.contentType,
		isForm:       desc.isForm,
		isMultipart:  desc.isMultipart,
	}
	for name, values := range desc.headers {
		for _, v := range values {
			rb.headers.Add(name, v)
		}
	}
	return rb
}

func (rb *requestBuilder) replacePathParam(name, value string, encoded bool) error {
	if !encoded {
		value = url.PathEscape(value)
	}

	placeholder := "{" + name + "}"
	if !strings.Contains(rb.relativePath, placeholder) {
		return fmt.Errorf("path template %q has no placeholder %q", rb.relativePath, placeholder)
	}

	rb.relativePath = strings.ReplaceAll(rb.relativePath, placeholder, value)
	return nil
}

func (rb *requestBuilder) addQueryParam(name, value string, encoded bool) {
	if !encoded {
		name = url.QueryEscape(name)
		value = url.QueryEscape(value)
	}

	if rb.query.Len() > 0 {
		rb.query.WriteByte('&')
	}
	rb.query.WriteString(name)
	rb.query.WriteByte('=')
	rb.query.WriteString(value)
}

func (rb *requestBuilder) addHeader(name, value string) {
	rb.headers.Add(name, value)
}

func (rb *requestBuilder) addFormField(name, value string, encoded bool) {
	if !encoded {
		name = url.QueryEscape(name)
		value = url.QueryEscape(value)
	}
	rb.fields = append(rb.fields, name+"="+value)
}

func (rb *requestBuilder) addPart(p *Part) {
	rb.parts = append(rb.parts, p)
}

func (rb *requestBuilder) setBody(b *Body) {
	rb.body = b
}

func (rb *requestBuilder) setRawURL(value string) {
	rb.rawURL = value
	rb.hasRawURL = true
	rb.relativePath = ""
}

func (rb *requestBuilder) resolveURL() (*url.URL, error) {
	var ref *url.URL
	var err error
	if rb.hasRawURL {
		ref, err = url.Parse(rb.rawURL)
	} else {
		ref, err = url.Parse(rb.relativePath)
	}
	if err != nil {
		return nil, err
	}

	u := rb.base.ResolveReference(ref)

	if q := rb.query.String(); q != "" {
		if u.RawQuery == "" {
			u.RawQuery = q
		} else {
			u.RawQuery += "&" + q
		}
	}
	return u, nil
}

func (rb *requestBuilder) buildBody() (*Body, error) {
	switch {
	case rb.isForm:
		return BytesBody("application/x-www-form-urlencoded", []byte(strings.Join(rb.fields, "&"))), nil
	case rb.isMultipart:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, p := range rb.parts {
			mh := make(map[string][]string, len(p.Headers)+2)
			for name, values := range p.Headers {
				mh[name] = values
			}
			if p.Name != "" {
				disposition := fmt.Sprintf("form-data; name=%q", p.Name)
				if p.Filename != "" {
					disposition += fmt.Sprintf("; filename=%q", p.Filename)
				}
				mh["Content-Disposition"] = []string{disposition}
			}
			if p.Body.ContentType != "" {
				mh["Content-Type"] = []string{p.Body.ContentType}
			}

			pw, err := w.CreatePart(mh)
			if err != nil {
				return nil, err
			}
			_, err = pw.Write(p.Body.Content)
			if err != nil {
				return nil, err
			}
		}
		err := w.Close()
		if err != nil {
			return nil, err
		}
		return BytesBody(w.FormDataContentType(), buf.Bytes()), nil
	default:
		return rb.body, nil
	}
}

// build merges the base address with the resolved relative path, attaches
// headers and body and produces the immutable wire request.
func (rb *requestBuilder) build(ctx context.Context) (*http.Request, error) {
	u, err := rb.resolveURL()
	if err != nil {
		return nil, err
	}

	body, err := rb.buildBody()
	if err != nil {
		return nil, err
	}

	var r *http.Request
	if body == nil {
		r, err = http.NewRequestWithContext(ctx, rb.method, u.String(), nil)
	} else {
		r, err = http.NewRequestWithContext(ctx, rb.method, u.String(), bytes.NewReader(body.Content))
	}
	if err != nil {
		return nil, err
	}

	for name, values := range rb.headers {
		for _, v := range values {
			r.Header.Add(name, v)
		}
	}

	// A static Content-Type on the operation overrides the converter's.
	contentType := rb.contentType
	if contentType == "" && body != nil {
		contentType = body.ContentType
	}
	if contentType != "" && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r, nil
}
