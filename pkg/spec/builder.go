package spec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/tag"
)

// Builder accumulates fields for a Specification. Methods chain; problems are
// collected and reported by Build.
type Builder struct {
	name   string
	fields []*Field
	seen   map[string]struct{}
	errs   []error
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name, seen: make(map[string]struct{})}
}

func (b *Builder) add(f *Field) *Builder {
	if f.name == "" {
		b.errs = append(b.errs, fmt.Errorf("%w: empty field name in %q", ErrInvalidField, b.name))
		return b
	}
	if _, dup := b.seen[f.name]; dup {
		b.errs = append(b.errs, fmt.Errorf("%w: %q in %q", ErrDuplicateField, f.name, b.name))
		return b
	}
	b.seen[f.name] = struct{}{}
	b.fields = append(b.fields, f)
	return b
}

// Primitive declares a value field of kind k, which must be a primitive or array kind.
func (b *Builder) Primitive(name string, k tag.Kind) *Builder {
	switch {
	case k.IsPrimitive():
		return b.add(&Field{name: name, kind: FieldPrimitive, tagKind: k})
	case k.IsArray():
		return b.add(&Field{name: name, kind: FieldArray, tagKind: k})
	default:
		b.errs = append(b.errs, fmt.Errorf("%w: %q cannot be declared as %s", ErrInvalidField, name, k))
		return b
	}
}

func (b *Builder) Byte(name string) *Builder      { return b.Primitive(name, tag.KindByte) }
func (b *Builder) Short(name string) *Builder     { return b.Primitive(name, tag.KindShort) }
func (b *Builder) Int(name string) *Builder       { return b.Primitive(name, tag.KindInt) }
func (b *Builder) Long(name string) *Builder      { return b.Primitive(name, tag.KindLong) }
func (b *Builder) Float(name string) *Builder     { return b.Primitive(name, tag.KindFloat) }
func (b *Builder) Double(name string) *Builder    { return b.Primitive(name, tag.KindDouble) }
func (b *Builder) Bool(name string) *Builder      { return b.Primitive(name, tag.KindBool) }
func (b *Builder) String(name string) *Builder    { return b.Primitive(name, tag.KindString) }
func (b *Builder) UUID(name string) *Builder      { return b.Primitive(name, tag.KindUUID) }
func (b *Builder) ByteArray(name string) *Builder { return b.Primitive(name, tag.KindByteArray) }
func (b *Builder) IntArray(name string) *Builder  { return b.Primitive(name, tag.KindIntArray) }
func (b *Builder) LongArray(name string) *Builder { return b.Primitive(name, tag.KindLongArray) }

// Field declares a custom field stored by s.
func (b *Builder) Field(name string, s serializer.Serializer) *Builder {
	if s == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: custom field %q has no serializer", ErrInvalidField, name))
		return b
	}
	return b.add(&Field{name: name, kind: FieldCustom, serializer: s})
}

// Registered declares a custom field whose serializer is resolved from reg.
func (b *Builder) Registered(name string, reg *serializer.Registry, t reflect.Type) *Builder {
	s, err := reg.Lookup(t)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("field %q: %w", name, err))
		return b
	}
	return b.Field(name, s)
}

// Child declares a nested field described by the fields fn adds.
func (b *Builder) Child(name string, fn func(*Builder)) *Builder {
	cb := NewBuilder(name)
	if fn != nil {
		fn(cb)
	}
	child, err := cb.Build()
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("child %q: %w", name, err))
		return b
	}
	return b.Nested(name, child)
}

// Nested declares a nested field described by an existing specification.
func (b *Builder) Nested(name string, child *Specification) *Builder {
	if child == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: nested field %q has no specification", ErrInvalidField, name))
		return b
	}
	return b.add(&Field{name: name, kind: FieldNested, tagKind: tag.KindCompound, child: child})
}

// Build returns the immutable specification or every problem found while building.
func (b *Builder) Build() (*Specification, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid specification %q: %w", b.name, errors.Join(b.errs...))
	}
	s := &Specification{
		name:   b.name,
		fields: append([]*Field(nil), b.fields...),
		index:  make(map[string]*Field, len(b.fields)),
	}
	for _, f := range s.fields {
		s.index[f.name] = f
	}
	return s, nil
}

func (b *Builder) MustBuild() *Specification {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
