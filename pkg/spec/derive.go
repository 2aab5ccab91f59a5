package spec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/ettle/strcase"
)

// KeyTag is the struct tag that overrides a member's key. "-" excludes the member.
const KeyTag = "tag"

// KeyFor returns the key a struct member is stored under, or false when the
// member is excluded. Unexported members are always excluded.
func KeyFor(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	if name, ok := f.Tag.Lookup(KeyTag); ok {
		if name == "-" {
			return "", false
		}
		if name != "" {
			return name, true
		}
	}
	return strcase.ToCamel(f.Name), true
}

// Derive builds a specification from the exported members of a struct type.
// Value-kind members become primitive or array fields, types with a
// registered serializer become custom fields, and struct members become
// nested fields. Anything else fails with ErrUnsupportedFieldType.
func Derive(t reflect.Type, reg *serializer.Registry) (*Specification, error) {
	return derive(t, reg, map[reflect.Type]bool{})
}

// DeriveFor is Derive for T.
func DeriveFor[T any](reg *serializer.Registry) (*Specification, error) {
	return Derive(serializer.TypeOf[T](), reg)
}

func derive(t reflect.Type, reg *serializer.Registry, visiting map[reflect.Type]bool) (*Specification, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedFieldType, t)
	}
	if visiting[t] {
		return nil, fmt.Errorf("%w: %s is recursive", ErrUnsupportedFieldType, t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	b := NewBuilder(t.Name())
	var errs []error
	for i := range t.NumField() {
		sf := t.Field(i)
		key, ok := KeyFor(sf)
		if !ok {
			continue
		}
		if err := deriveField(b, key, sf.Type, reg, visiting); err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.Build()
}

func deriveField(b *Builder, key string, ft reflect.Type, reg *serializer.Registry, visiting map[reflect.Type]bool) error {
	if k, ok := serializer.KindOf(ft); ok {
		b.Primitive(key, k)
		return nil
	}
	if reg != nil && reg.Has(ft) {
		b.Registered(key, reg, ft)
		return nil
	}
	if isStruct(ft) {
		child, err := derive(ft, reg, visiting)
		if err != nil {
			return err
		}
		b.Nested(key, child)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFieldType, ft)
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
