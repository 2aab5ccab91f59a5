// Package link binds the fields of a specification to the members of a Go
// struct type so regions can be hydrated into instances and written back.
package link

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/spec"
	"github.com/Sokol111/tagdata/pkg/tag"
)

// ErrLinkMismatch is returned when a field has no member or an incompatible one.
var ErrLinkMismatch = errors.New("link mismatch")

type member struct {
	field   *spec.Field
	index   int
	pointer bool
	nested  *Link
}

// Link is the resolved binding between a specification and a struct type.
// It is immutable and safe for concurrent use.
type Link struct {
	spec    *spec.Specification
	typ     reflect.Type
	members []member
}

func (l *Link) Specification() *spec.Specification { return l.spec }

// Type is the struct type the link targets.
func (l *Link) Type() reflect.Type { return l.typ }

// Create resolves every field of s to a member of t (a struct or pointer to
// struct). Members without a field are ignored.
func Create(s *spec.Specification, t reflect.Type) (*Link, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrLinkMismatch, t)
	}

	l := &Link{spec: s, typ: t}
	var errs []error
	for _, f := range s.Fields() {
		m, err := resolve(f, t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		l.members = append(l.members, m)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return l, nil
}

// CreateFor is Create for T.
func CreateFor[T any](s *spec.Specification) (*Link, error) {
	return Create(s, serializer.TypeOf[T]())
}

func resolve(f *spec.Field, t reflect.Type) (member, error) {
	idx, ok := findMember(f.Name(), t)
	if !ok {
		return member{}, fmt.Errorf("%w: %s has no member for field %q", ErrLinkMismatch, t, f.Name())
	}
	sf := t.Field(idx)
	m := member{field: f, index: idx}

	switch f.Kind() {
	case spec.FieldPrimitive, spec.FieldArray:
		if !serializer.Compatible(f.TagKind(), sf.Type) {
			return member{}, fmt.Errorf("%w: %s.%s (%s) cannot hold %s field %q", ErrLinkMismatch, t.Name(), sf.Name, sf.Type, f.TagKind(), f.Name())
		}
	case spec.FieldCustom:
		if sf.Type != f.Serializer().Type() {
			return member{}, fmt.Errorf("%w: %s.%s is %s, field %q is stored as %s", ErrLinkMismatch, t.Name(), sf.Name, sf.Type, f.Name(), f.Serializer().Type())
		}
	case spec.FieldNested:
		target := sf.Type
		if target.Kind() == reflect.Pointer {
			m.pointer = true
			target = target.Elem()
		}
		if target.Kind() != reflect.Struct {
			return member{}, fmt.Errorf("%w: %s.%s (%s) cannot hold nested field %q", ErrLinkMismatch, t.Name(), sf.Name, sf.Type, f.Name())
		}
		nested, err := Create(f.Child(), target)
		if err != nil {
			return member{}, fmt.Errorf("nested field %q: %w", f.Name(), err)
		}
		m.nested = nested
	}
	return m, nil
}

// findMember matches a field key to an exported member: explicit key tag or
// camel-cased name first, then a case-insensitive name match.
func findMember(key string, t reflect.Type) (int, bool) {
	fallback := -1
	for i := range t.NumField() {
		sf := t.Field(i)
		k, ok := spec.KeyFor(sf)
		if !ok {
			continue
		}
		if k == key {
			return i, true
		}
		if fallback < 0 && strings.EqualFold(sf.Name, key) {
			fallback = i
		}
	}
	return fallback, fallback >= 0
}

// HydrateInto populates the struct dst points to from region c. Members whose
// key is absent from c keep their current value.
func (l *Link) HydrateInto(c *tag.Compound, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != l.typ {
		return fmt.Errorf("%w: hydrate target must be a non-nil *%s, got %T", tag.ErrTypeMismatch, l.typ, dst)
	}
	return l.hydrate(c, rv.Elem())
}

func (l *Link) hydrate(c *tag.Compound, v reflect.Value) error {
	for _, m := range l.members {
		key := m.field.Name()
		stored, ok := c.Get(key)
		if !ok {
			continue
		}
		dst := v.Field(m.index)
		switch m.field.Kind() {
		case spec.FieldPrimitive, spec.FieldArray:
			if stored.Kind() != m.field.TagKind() {
				return fmt.Errorf("%w: %q holds %s, declared %s", tag.ErrTypeMismatch, key, stored.Kind(), m.field.TagKind())
			}
			if err := serializer.AssignTag(dst, stored); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
		case spec.FieldCustom:
			val, err := m.field.Serializer().ReadAny(key, c)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			if val == nil {
				dst.Set(reflect.Zero(dst.Type()))
			} else {
				dst.Set(reflect.ValueOf(val))
			}
		case spec.FieldNested:
			child, isCompound := stored.(*tag.Compound)
			if !isCompound {
				return fmt.Errorf("%w: %q holds %s, declared %s", tag.ErrTypeMismatch, key, stored.Kind(), tag.KindCompound)
			}
			target := dst
			if m.pointer {
				if dst.IsNil() {
					dst.Set(reflect.New(dst.Type().Elem()))
				}
				target = dst.Elem()
			}
			if err := m.nested.hydrate(child, target); err != nil {
				return fmt.Errorf("nested %q: %w", key, err)
			}
		}
	}
	return nil
}

// Dehydrate writes every linked member of src (a struct or pointer to one)
// into c, replacing the previous value of each key. A nil nested pointer
// removes its key.
func (l *Link) Dehydrate(src any, c *tag.Compound) error {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return fmt.Errorf("%w: cannot dehydrate nil *%s", tag.ErrTypeMismatch, l.typ)
		}
		rv = rv.Elem()
	}
	if rv.Type() != l.typ {
		return fmt.Errorf("%w: link targets %s, got %s", tag.ErrTypeMismatch, l.typ, rv.Type())
	}
	return l.dehydrate(rv, c)
}

func (l *Link) dehydrate(v reflect.Value, c *tag.Compound) error {
	for _, m := range l.members {
		key := m.field.Name()
		src := v.Field(m.index)
		switch m.field.Kind() {
		case spec.FieldPrimitive, spec.FieldArray:
			t, err := serializer.ToTag(m.field.TagKind(), src)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			c.Put(key, t)
		case spec.FieldCustom:
			written, err := serializer.Capture(key, func(scratch *tag.Compound) error {
				return m.field.Serializer().WriteAny(key, scratch, src.Interface())
			})
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			c.Put(key, written)
		case spec.FieldNested:
			if m.pointer {
				if src.IsNil() {
					c.Remove(key)
					continue
				}
				src = src.Elem()
			}
			child := tag.NewCompound()
			if err := m.nested.dehydrate(src, child); err != nil {
				return fmt.Errorf("nested %q: %w", key, err)
			}
			c.Put(key, child)
		}
	}
	return nil
}

// Hydrate allocates a zero T and populates it from c.
func Hydrate[T any](l *Link, c *tag.Compound) (T, error) {
	var out T
	err := l.HydrateInto(c, &out)
	return out, err
}
