package specgen

import (
	"errors"
	"fmt"
	"go/types"
	"reflect"

	"github.com/Sokol111/tagdata/pkg/spec"
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/ettle/strcase"
)

var errUnsupported = errors.New("unsupported field type")

type fieldClass int

const (
	classPrimitive fieldClass = iota
	// classCustom fields resolve their serializer from the registry.
	classCustom
	// classStruct fields use a registered serializer when one exists and a
	// nested specification otherwise, matching spec.Derive.
	classStruct
)

type fieldModel struct {
	key   string
	class fieldClass
	kind  tag.Kind
	typ   types.Type
	// nested is nil for recursive struct references.
	nested *structModel
	// anonymous struct literals have no type expression to look up.
	anonymous bool
}

type structModel struct {
	name   string
	fields []fieldModel
}

// keyFor mirrors spec.KeyFor for a go/types field.
func keyFor(v *types.Var, rawTag string) (string, bool) {
	if !v.Exported() {
		return "", false
	}
	if name, ok := reflect.StructTag(rawTag).Lookup(spec.KeyTag); ok {
		if name == "-" {
			return "", false
		}
		if name != "" {
			return name, true
		}
	}
	return strcase.ToCamel(v.Name()), true
}

func isUUID(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "github.com/google/uuid" && obj.Name() == "UUID"
}

// kindOf mirrors serializer.KindOf for a go/types type.
func kindOf(t types.Type) (tag.Kind, bool) {
	if isUUID(t) {
		return tag.KindUUID, true
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return basicKind(u.Kind())
	case *types.Slice:
		elem, ok := u.Elem().Underlying().(*types.Basic)
		if !ok {
			return tag.KindInvalid, false
		}
		switch elem.Kind() {
		case types.Int8, types.Uint8:
			return tag.KindByteArray, true
		case types.Int32:
			return tag.KindIntArray, true
		case types.Int64:
			return tag.KindLongArray, true
		}
	}
	return tag.KindInvalid, false
}

func basicKind(k types.BasicKind) (tag.Kind, bool) {
	switch k {
	case types.Int8, types.Uint8:
		return tag.KindByte, true
	case types.Int16, types.Uint16:
		return tag.KindShort, true
	case types.Int32, types.Uint32:
		return tag.KindInt, true
	case types.Int64, types.Uint64, types.Int, types.Uint:
		return tag.KindLong, true
	case types.Float32:
		return tag.KindFloat, true
	case types.Float64:
		return tag.KindDouble, true
	case types.Bool:
		return tag.KindBool, true
	case types.String:
		return tag.KindString, true
	}
	return tag.KindInvalid, false
}

func structOf(t types.Type) (*types.Struct, bool) {
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		t = p.Elem()
	}
	s, ok := t.Underlying().(*types.Struct)
	return s, ok
}

type classifier struct {
	visiting map[types.Type]bool
}

func newClassifier() *classifier {
	return &classifier{visiting: map[types.Type]bool{}}
}

func (c *classifier) structModel(name string, t types.Type) (*structModel, error) {
	st, ok := structOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a struct", errUnsupported, t)
	}
	c.visiting[t] = true
	defer delete(c.visiting, t)

	m := &structModel{name: name}
	var errs []error
	for i := range st.NumFields() {
		v := st.Field(i)
		key, ok := keyFor(v, st.Tag(i))
		if !ok {
			continue
		}
		f, err := c.field(key, v.Type())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", name, v.Name(), err))
			continue
		}
		m.fields = append(m.fields, f)
	}
	return m, errors.Join(errs...)
}

func (c *classifier) field(key string, t types.Type) (fieldModel, error) {
	if k, ok := kindOf(t); ok {
		return fieldModel{key: key, class: classPrimitive, kind: k, typ: t}, nil
	}
	if _, ok := structOf(t); ok {
		f := fieldModel{key: key, class: classStruct, typ: t}
		f.anonymous = checkExpressible(t) != nil
		if c.visiting[structTarget(t)] {
			return f, nil
		}
		nested, err := c.structModel(key, structTarget(t))
		if err != nil {
			return fieldModel{}, err
		}
		f.nested = nested
		return f, nil
	}
	if err := checkExpressible(t); err != nil {
		return fieldModel{}, err
	}
	return fieldModel{key: key, class: classCustom, typ: t}, nil
}

func structTarget(t types.Type) types.Type {
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}
