// Package compound provides a typed read/write view over one region of a tag
// tree, resolving serializers from a registry or from a specification.
package compound

import (
	"fmt"
	"reflect"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/spec"
	"github.com/Sokol111/tagdata/pkg/tag"
)

// View wraps a compound. Writes always replace the previous value of a key.
// A view with a specification only accepts declared keys, stores custom
// fields with the field's own serializer and enforces declared kinds.
type View struct {
	c    *tag.Compound
	reg  *serializer.Registry
	spec *spec.Specification
}

func New(c *tag.Compound, reg *serializer.Registry) *View {
	return &View{c: c, reg: reg}
}

// Specified returns a view bound to s. The compound is not validated here.
func Specified(c *tag.Compound, reg *serializer.Registry, s *spec.Specification) *View {
	return &View{c: c, reg: reg, spec: s}
}

// Compound exposes the underlying region.
func (v *View) Compound() *tag.Compound { return v.c }

func (v *View) Specification() *spec.Specification { return v.spec }

func (v *View) Has(key string) bool { return v.c.Has(key) }
func (v *View) Keys() []string      { return v.c.Keys() }
func (v *View) Len() int            { return v.c.Len() }
func (v *View) Remove(key string)   { v.c.Remove(key) }
func (v *View) Clear()              { v.c.Clear() }

// Child returns a view over the compound stored at key, creating it when
// absent. On a specified view the key must be a nested field and the child
// view carries the nested specification.
func (v *View) Child(key string) (*View, error) {
	var childSpec *spec.Specification
	if v.spec != nil {
		f, err := v.field(key)
		if err != nil {
			return nil, err
		}
		if f.Kind() != spec.FieldNested {
			return nil, fmt.Errorf("%w: %q is a %s field, not nested", tag.ErrTypeMismatch, key, f.Kind())
		}
		childSpec = f.Child()
	}
	child, err := v.c.GetOrCreateChild(key)
	if err != nil {
		return nil, err
	}
	return &View{c: child, reg: v.reg, spec: childSpec}, nil
}

// GetAny reads the value at key as type t.
func (v *View) GetAny(key string, t reflect.Type) (any, error) {
	s, _, err := v.resolve(key, t)
	if err != nil {
		return nil, err
	}
	if !v.c.Has(key) {
		return nil, fmt.Errorf("%w: %q", tag.ErrMissingKey, key)
	}
	return s.ReadAny(key, v.c)
}

// PutAny writes value at key using the serializer for its dynamic type.
func (v *View) PutAny(key string, value any) error {
	if value == nil {
		return fmt.Errorf("%w: cannot write nil at %q", tag.ErrTypeMismatch, key)
	}
	return v.put(key, reflect.TypeOf(value), value)
}

func (v *View) put(key string, t reflect.Type, value any) error {
	s, f, err := v.resolve(key, t)
	if err != nil {
		return err
	}

	written, err := serializer.Capture(key, func(scratch *tag.Compound) error {
		return s.WriteAny(key, scratch, value)
	})
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if f != nil {
		if err := checkDeclared(f, written); err != nil {
			return err
		}
	}
	v.c.Put(key, written)
	return nil
}

func checkDeclared(f *spec.Field, written tag.Tag) error {
	switch f.Kind() {
	case spec.FieldPrimitive, spec.FieldArray, spec.FieldNested:
		if written.Kind() != f.TagKind() {
			return fmt.Errorf("%w: %q declared %s, got %s", tag.ErrTypeMismatch, f.Name(), f.TagKind(), written.Kind())
		}
	}
	if f.Kind() == spec.FieldNested {
		if err := f.Child().Validate(written.(*tag.Compound)); err != nil {
			return fmt.Errorf("nested %q: %w", f.Name(), err)
		}
	}
	return nil
}

func (v *View) field(key string) (*spec.Field, error) {
	f, ok := v.spec.Field(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q not declared by %q", spec.ErrUndeclaredField, key, v.spec.Name())
	}
	return f, nil
}

func (v *View) resolve(key string, t reflect.Type) (serializer.Serializer, *spec.Field, error) {
	if v.spec == nil {
		s, err := v.reg.Lookup(t)
		return s, nil, err
	}
	f, err := v.field(key)
	if err != nil {
		return nil, nil, err
	}
	if f.Kind() == spec.FieldCustom {
		if f.Serializer().Type() != t {
			return nil, nil, fmt.Errorf("%w: %q is stored as %s, not %s", tag.ErrTypeMismatch, key, f.Serializer().Type(), t)
		}
		return f.Serializer(), f, nil
	}
	s, err := v.reg.Lookup(t)
	if err != nil {
		return nil, nil, err
	}
	return s, f, nil
}

// Get reads the value at key as T. An absent key fails with tag.ErrMissingKey.
func Get[T any](v *View, key string) (T, error) {
	var zero T
	raw, err := v.GetAny(key, serializer.TypeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := raw.(T)
	if !ok && raw != nil {
		return zero, fmt.Errorf("%w: %q decoded as %T", tag.ErrTypeMismatch, key, raw)
	}
	return typed, nil
}

// GetOr is Get that returns fallback when the key is absent.
func GetOr[T any](v *View, key string, fallback T) (T, error) {
	if _, _, err := v.resolve(key, serializer.TypeOf[T]()); err != nil {
		return fallback, err
	}
	if !v.Has(key) {
		return fallback, nil
	}
	return Get[T](v, key)
}

// Put writes value at key, replacing what was there.
func Put[T any](v *View, key string, value T) error {
	return v.put(key, serializer.TypeOf[T](), value)
}
