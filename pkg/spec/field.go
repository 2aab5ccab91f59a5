package spec

import (
	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/tag"
)

// FieldKind tells how a field is stored.
type FieldKind uint8

const (
	FieldPrimitive FieldKind = iota + 1
	FieldArray
	FieldCustom
	FieldNested
)

func (k FieldKind) String() string {
	switch k {
	case FieldPrimitive:
		return "primitive"
	case FieldArray:
		return "array"
	case FieldCustom:
		return "custom"
	case FieldNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Field is one named, typed slot of a Specification.
type Field struct {
	name       string
	kind       FieldKind
	tagKind    tag.Kind
	serializer serializer.Serializer
	child      *Specification
}

func (f *Field) Name() string    { return f.name }
func (f *Field) Kind() FieldKind { return f.kind }

// TagKind is the stored kind for primitive, array and nested fields.
// Custom fields report KindInvalid since their serializer decides.
func (f *Field) TagKind() tag.Kind { return f.tagKind }

// Serializer is set for custom fields only.
func (f *Field) Serializer() serializer.Serializer { return f.serializer }

// Child is set for nested fields only.
func (f *Field) Child() *Specification { return f.child }
