// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"fmt"
	"reflect"
)

// binding is the compiled rule mapping one call argument to part of a
// request. The role is decided once at compile time; apply never inspects
// argument types beyond what the role requires.
type binding struct {
	role    Role
	name    string
	encoded bool
	pos     int

	// repeated marks slice or array arguments which emit one wire entry
	// per element.
	repeated bool

	str StringConverter
	req RequestConverter
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func (b *binding) apply(rb *requestBuilder, arg any) error {
	switch b.role {
	case RolePath:
		return b.applyPath(rb, arg)
	case RoleQuery:
		return b.applyEach(arg, func(v any) error {
			s, err := b.str.ConvertString(v)
			if err != nil {
				return b.wrap(err)
			}
			rb.addQueryParam(b.name, s, b.encoded)
			return nil
		})
	case RoleQueryMap:
		return b.applyMap(arg, func(name string, v any) error {
			s, err := b.str.ConvertString(v)
			if err != nil {
				return b.wrap(err)
			}
			rb.addQueryParam(name, s, b.encoded)
			return nil
		})
	case RoleHeader:
		return b.applyEach(arg, func(v any) error {
			s, err := b.str.ConvertString(v)
			if err != nil {
				return b.wrap(err)
			}
			rb.addHeader(b.name, s)
			return nil
		})
	case RoleHeaderMap:
		return b.applyMap(arg, func(name string, v any) error {
			s, err := b.str.ConvertString(v)
			if err != nil {
				return b.wrap(err)
			}
			rb.addHeader(name, s)
			return nil
		})
	case RoleField:
		return b.applyEach(arg, func(v any) error {
			s, err := b.str.ConvertString(v)
			if err != nil {
				return b.wrap(err)
			}
			rb.addFormField(b.name, s, b.encoded)
			return nil
		})
	case RoleFieldMap:
		return b.applyMap(arg, func(name string, v any) error {
			s, err := b.str.ConvertString(v)
			if err != nil {
				return b.wrap(err)
			}
			rb.addFormField(name, s, b.encoded)
			return nil
		})
	case RolePart:
		return b.applyEach(arg, func(v any) error {
			return b.applyPart(rb, b.name, v)
		})
	case RolePartMap:
		return b.applyMap(arg, func(name string, v any) error {
			return b.applyPart(rb, name, v)
		})
	case RoleBody:
		if isNilValue(arg) {
			return b.wrap(fmt.Errorf("body value is nil"))
		}
		body, err := b.req.ConvertRequest(arg)
		if err != nil {
			return b.wrap(err)
		}
		rb.setBody(body)
		return nil
	case RoleRawURL:
		s, ok := arg.(string)
		if !ok || s == "" {
			return b.wrap(fmt.Errorf("raw url value must be a non-empty string, got %T", arg))
		}
		rb.setRawURL(s)
		return nil
	default:
		return b.wrap(fmt.Errorf("unknown role %d", b.role))
	}
}

func (b *binding) applyPath(rb *requestBuilder, arg any) error {
	if isNilValue(arg) {
		return b.wrap(fmt.Errorf("path parameter %q is nil", b.name))
	}
	s, err := b.str.ConvertString(arg)
	if err != nil {
		return b.wrap(err)
	}
	err = rb.replacePathParam(b.name, s, b.encoded)
	if err != nil {
		return b.wrap(err)
	}
	return nil
}

// applyEach invokes f once per element for repeated bindings, or once with
// the argument itself otherwise. Nil arguments and nil elements are
// silently skipped.
func (b *binding) applyEach(arg any, f func(any) error) error {
	if isNilValue(arg) {
		return nil
	}
	if !b.repeated {
		return f(arg)
	}

	rv := reflect.ValueOf(arg)
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		if isNilValue(el) {
			continue
		}
		err := f(el)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *binding) applyMap(arg any, f func(string, any) error) error {
	if isNilValue(arg) {
		return nil
	}

	rv := reflect.ValueOf(arg)
	iter := rv.MapRange()
	for iter.Next() {
		v := iter.Value().Interface()
		if isNilValue(v) {
			continue
		}
		err := f(iter.Key().String(), v)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *binding) applyPart(rb *requestBuilder, name string, v any) error {
	if p, ok := v.(*Part); ok {
		rb.addPart(p)
		return nil
	}

	body, err := b.req.ConvertRequest(v)
	if err != nil {
		return b.wrap(err)
	}
	rb.addPart(&Part{
		Name: name,
		Body: body,
	})
	return nil
}

func (b *binding) wrap(err error) error {
	return fmt.Errorf("parameter %d (%s): %w", b.pos, b.role, err)
}
