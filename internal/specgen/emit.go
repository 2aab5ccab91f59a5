package specgen

import (
	"fmt"
	"go/types"

	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/dave/jennifer/jen"
)

const (
	specImport       = "github.com/Sokol111/tagdata/pkg/spec"
	serializerImport = "github.com/Sokol111/tagdata/pkg/serializer"
)

var builderMethods = map[tag.Kind]string{
	tag.KindByte:      "Byte",
	tag.KindShort:     "Short",
	tag.KindInt:       "Int",
	tag.KindLong:      "Long",
	tag.KindFloat:     "Float",
	tag.KindDouble:    "Double",
	tag.KindBool:      "Bool",
	tag.KindString:    "String",
	tag.KindUUID:      "UUID",
	tag.KindByteArray: "ByteArray",
	tag.KindIntArray:  "IntArray",
	tag.KindLongArray: "LongArray",
}

// checkExpressible reports whether typeExpr can render t.
func checkExpressible(t types.Type) error {
	_, err := typeExpr(t)
	return err
}

// typeExpr renders t as Go source.
func typeExpr(t types.Type) (jen.Code, error) {
	switch x := t.(type) {
	case *types.Alias:
		return qualified(x.Obj(), x.TypeArgs())
	case *types.Named:
		return qualified(x.Obj(), x.TypeArgs())
	case *types.Basic:
		return jen.Id(x.Name()), nil
	case *types.Pointer:
		elem, err := typeExpr(x.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case *types.Slice:
		elem, err := typeExpr(x.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case *types.Array:
		elem, err := typeExpr(x.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(int(x.Len()))).Add(elem), nil
	case *types.Map:
		key, err := typeExpr(x.Key())
		if err != nil {
			return nil, err
		}
		elem, err := typeExpr(x.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	}
	return nil, fmt.Errorf("%w: %s", errUnsupported, t)
}

func qualified(obj *types.TypeName, args *types.TypeList) (jen.Code, error) {
	if obj.Pkg() == nil {
		// predeclared, e.g. error or any
		return nil, fmt.Errorf("%w: %s", errUnsupported, obj.Name())
	}
	if obj.Parent() != obj.Pkg().Scope() {
		return nil, fmt.Errorf("%w: local type %s", errUnsupported, obj.Name())
	}
	s := jen.Qual(obj.Pkg().Path(), obj.Name())
	if args.Len() == 0 {
		return s, nil
	}
	codes := make([]jen.Code, 0, args.Len())
	for t := range args.Types() {
		c, err := typeExpr(t)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return s.Types(codes...), nil
}

func reflectType(t types.Type) *jen.Statement {
	expr, _ := typeExpr(t)
	return jen.Qual("reflect", "TypeFor").Types(expr).Call()
}

// constructorName is the generated function for a struct type.
func constructorName(typeName string) string {
	return typeName + "Specification"
}

func emitConstructor(f *jen.File, m *structModel) {
	name := constructorName(m.name)
	f.Commentf("%s builds the %s specification with the same layout spec.Derive produces.", name, m.name)
	f.Func().Id(name).
		Params(jen.Id("reg").Op("*").Qual(serializerImport, "Registry")).
		Params(jen.Op("*").Qual(specImport, "Specification"), jen.Error()).
		BlockFunc(func(g *jen.Group) {
			g.Id("b").Op(":=").Qual(specImport, "NewBuilder").Call(jen.Lit(m.name))
			emitFields(g, m.fields)
			g.Return(jen.Id("b").Dot("Build").Call())
		})
	f.Line()
}

func emitFields(g *jen.Group, fields []fieldModel) {
	for _, f := range fields {
		switch f.class {
		case classPrimitive:
			g.Id("b").Dot(builderMethods[f.kind]).Call(jen.Lit(f.key))
		case classCustom:
			g.Add(registered(f))
		case classStruct:
			if f.nested == nil {
				g.Add(registered(f))
				continue
			}
			if f.anonymous {
				g.Add(child(f))
				continue
			}
			g.If(jen.Id("reg").Dot("Has").Call(reflectType(f.typ))).Block(
				registered(f),
			).Else().Block(
				child(f),
			)
		}
	}
}

func child(f fieldModel) *jen.Statement {
	return jen.Id("b").Dot("Child").Call(
		jen.Lit(f.key),
		jen.Func().Params(jen.Id("b").Op("*").Qual(specImport, "Builder")).BlockFunc(func(g *jen.Group) {
			emitFields(g, f.nested.fields)
		}),
	)
}

func registered(f fieldModel) *jen.Statement {
	return jen.Id("b").Dot("Registered").Call(jen.Lit(f.key), jen.Id("reg"), reflectType(f.typ))
}
