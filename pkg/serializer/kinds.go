package serializer

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/google/uuid"
)

var (
	uuidType     = reflect.TypeFor[uuid.UUID]()
	compoundType = reflect.TypeFor[*tag.Compound]()
)

// KindOf returns the primitive or array kind a Go type maps to. Named types
// classify by their underlying kind. Go int and uint map to long.
func KindOf(t reflect.Type) (tag.Kind, bool) {
	if t == uuidType {
		return tag.KindUUID, true
	}
	switch t.Kind() {
	case reflect.Int8, reflect.Uint8:
		return tag.KindByte, true
	case reflect.Int16, reflect.Uint16:
		return tag.KindShort, true
	case reflect.Int32, reflect.Uint32:
		return tag.KindInt, true
	case reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint:
		return tag.KindLong, true
	case reflect.Float32:
		return tag.KindFloat, true
	case reflect.Float64:
		return tag.KindDouble, true
	case reflect.Bool:
		return tag.KindBool, true
	case reflect.String:
		return tag.KindString, true
	case reflect.Slice:
		switch t.Elem().Kind() {
		case reflect.Int8, reflect.Uint8:
			return tag.KindByteArray, true
		case reflect.Int32:
			return tag.KindIntArray, true
		case reflect.Int64:
			return tag.KindLongArray, true
		}
	}
	return tag.KindInvalid, false
}

// Compatible reports whether values of t can be stored as kind k. This is
// KindOf plus the platform-sized integers, which also fit an int.
func Compatible(k tag.Kind, t reflect.Type) bool {
	got, ok := KindOf(t)
	if !ok {
		return false
	}
	if got == k {
		return true
	}
	return k == tag.KindInt && (t.Kind() == reflect.Int || t.Kind() == reflect.Uint)
}

// ToTag converts v into a tag of kind k. v must be Compatible with k.
func ToTag(k tag.Kind, v reflect.Value) (tag.Tag, error) {
	if !Compatible(k, v.Type()) {
		return nil, fmt.Errorf("%w: %s cannot be stored as %s", tag.ErrTypeMismatch, v.Type(), k)
	}
	switch k {
	case tag.KindByte:
		return tag.Byte(intOf(v)), nil
	case tag.KindShort:
		return tag.Short(intOf(v)), nil
	case tag.KindInt:
		if err := fitsInt(v); err != nil {
			return nil, err
		}
		return tag.Int(intOf(v)), nil
	case tag.KindLong:
		return tag.Long(intOf(v)), nil
	case tag.KindFloat:
		return tag.Float(v.Float()), nil
	case tag.KindDouble:
		return tag.Double(v.Float()), nil
	case tag.KindBool:
		return tag.Bool(v.Bool()), nil
	case tag.KindString:
		return tag.String(v.String()), nil
	case tag.KindUUID:
		return tag.UUID(v.Interface().(uuid.UUID)), nil
	case tag.KindByteArray:
		out := make(tag.ByteArray, v.Len())
		for i := range out {
			out[i] = byte(intOf(v.Index(i)))
		}
		return out, nil
	case tag.KindIntArray:
		out := make(tag.IntArray, v.Len())
		for i := range out {
			out[i] = int32(v.Index(i).Int())
		}
		return out, nil
	case tag.KindLongArray:
		out := make(tag.LongArray, v.Len())
		for i := range out {
			out[i] = v.Index(i).Int()
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s is not a value kind", tag.ErrTypeMismatch, k)
}

// fitsInt rejects platform-sized integers that an int tag cannot hold. uint
// values up to MaxUint32 round-trip through the int's bit pattern.
func fitsInt(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Int:
		if n := v.Int(); n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("%w: %d overflows %s", tag.ErrTypeMismatch, n, tag.KindInt)
		}
	case reflect.Uint:
		if n := v.Uint(); n > math.MaxUint32 {
			return fmt.Errorf("%w: %d overflows %s", tag.ErrTypeMismatch, n, tag.KindInt)
		}
	}
	return nil
}

func intOf(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return v.Int()
	}
}

// AssignTag stores t into dst, which must be settable and Compatible with t's kind.
func AssignTag(dst reflect.Value, t tag.Tag) error {
	if !Compatible(t.Kind(), dst.Type()) {
		return fmt.Errorf("%w: %s cannot be assigned to %s", tag.ErrTypeMismatch, t.Kind(), dst.Type())
	}
	switch val := t.(type) {
	case tag.Byte:
		setInt(dst, int64(val), uint64(uint8(val)))
	case tag.Short:
		setInt(dst, int64(val), uint64(uint16(val)))
	case tag.Int:
		setInt(dst, int64(val), uint64(uint32(val)))
	case tag.Long:
		setInt(dst, int64(val), uint64(val))
	case tag.Float:
		dst.SetFloat(float64(val))
	case tag.Double:
		dst.SetFloat(float64(val))
	case tag.Bool:
		dst.SetBool(bool(val))
	case tag.String:
		dst.SetString(string(val))
	case tag.UUID:
		dst.Set(reflect.ValueOf(uuid.UUID(val)))
	case tag.ByteArray:
		s := reflect.MakeSlice(dst.Type(), len(val), len(val))
		for i, e := range val {
			setInt(s.Index(i), int64(int8(e)), uint64(e))
		}
		dst.Set(s)
	case tag.IntArray:
		s := reflect.MakeSlice(dst.Type(), len(val), len(val))
		for i, e := range val {
			s.Index(i).SetInt(int64(e))
		}
		dst.Set(s)
	case tag.LongArray:
		s := reflect.MakeSlice(dst.Type(), len(val), len(val))
		for i, e := range val {
			s.Index(i).SetInt(e)
		}
		dst.Set(s)
	default:
		return fmt.Errorf("%w: cannot assign %s", tag.ErrTypeMismatch, t.Kind())
	}
	return nil
}

func setInt(dst reflect.Value, signed int64, unsigned uint64) {
	switch dst.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(unsigned)
	default:
		dst.SetInt(signed)
	}
}
