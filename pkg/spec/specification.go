// Package spec declares the named, typed fields a region of a tag tree is
// expected to hold.
package spec

import (
	"errors"
	"fmt"

	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/samber/lo"
)

// Specification is an immutable, ordered set of uniquely named fields.
type Specification struct {
	name   string
	fields []*Field
	index  map[string]*Field
}

func (s *Specification) Name() string { return s.name }

// Fields returns the fields in declaration order.
func (s *Specification) Fields() []*Field {
	return append([]*Field(nil), s.fields...)
}

// Names returns the field names in declaration order.
func (s *Specification) Names() []string {
	return lo.Map(s.fields, func(f *Field, _ int) string { return f.name })
}

func (s *Specification) Len() int { return len(s.fields) }

func (s *Specification) Field(name string) (*Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

type validateOptions struct {
	allowUndeclared bool
}

// ValidateOption adjusts Validate.
type ValidateOption func(*validateOptions)

// AllowUndeclared accepts keys the specification does not declare.
func AllowUndeclared() ValidateOption {
	return func(o *validateOptions) {
		o.allowUndeclared = true
	}
}

// Validate checks that every present declared field holds a value of its
// declared kind and, unless AllowUndeclared is given, that c holds no other
// keys. Absent fields are fine. All problems are reported together.
func (s *Specification) Validate(c *tag.Compound, opts ...ValidateOption) error {
	o := &validateOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return errors.Join(s.validate(c, o, "")...)
}

func (s *Specification) validate(c *tag.Compound, o *validateOptions, path string) []error {
	var errs []error
	for _, key := range c.Keys() {
		t, _ := c.Get(key)
		f, ok := s.index[key]
		if !ok {
			if !o.allowUndeclared {
				errs = append(errs, fmt.Errorf("%w: %q", ErrUndeclaredField, path+key))
			}
			continue
		}
		switch f.kind {
		case FieldPrimitive, FieldArray:
			if t.Kind() != f.tagKind {
				errs = append(errs, fmt.Errorf("%w: %q holds %s, declared %s", tag.ErrTypeMismatch, path+key, t.Kind(), f.tagKind))
			}
		case FieldNested:
			child, isCompound := t.(*tag.Compound)
			if !isCompound {
				errs = append(errs, fmt.Errorf("%w: %q holds %s, declared %s", tag.ErrTypeMismatch, path+key, t.Kind(), tag.KindCompound))
				continue
			}
			errs = append(errs, f.child.validate(child, o, path+key+".")...)
		case FieldCustom:
			if _, err := f.serializer.ReadAny(key, c); err != nil {
				errs = append(errs, fmt.Errorf("%w: %q unreadable as %s: %w", tag.ErrTypeMismatch, path+key, f.serializer.Type(), err))
			}
		}
	}
	return errs
}
