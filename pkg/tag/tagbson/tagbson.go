// Package tagbson maps tag trees onto BSON documents so they can be stored in
// MongoDB and inspected with ordinary tooling.
//
// Kinds with a native BSON counterpart (int, long, double, boolean, string,
// byte-array, UUID, compound) are stored natively. The remaining kinds are
// wrapped as {"@kind": <kind name>, "@v": <value>} so they survive a round trip.
package tagbson

import (
	"errors"
	"fmt"
	"math"

	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// KindKey is reserved and cannot be used as a compound key.
	KindKey  = "@kind"
	valueKey = "@v"
)

var (
	ErrReservedKey = errors.New("reserved compound key")
	ErrMalformed   = errors.New("malformed tag document")
)

// Codec encodes whole trees to BSON bytes.
type Codec struct{}

func (Codec) Name() string { return "bson" }

func (Codec) Encode(c *tag.Compound) ([]byte, error) { return Marshal(c) }

func (Codec) Decode(data []byte) (*tag.Compound, error) { return Unmarshal(data) }

func Marshal(c *tag.Compound) ([]byte, error) {
	doc, err := ToDocument(c)
	if err != nil {
		return nil, err
	}
	return bson.Marshal(doc)
}

func Unmarshal(data []byte) (*tag.Compound, error) {
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bson: %w", err)
	}
	return FromDocument(doc)
}

// ToDocument converts c into a bson.D with keys in sorted order.
func ToDocument(c *tag.Compound) (bson.D, error) {
	doc := make(bson.D, 0, c.Len())
	for _, k := range c.Keys() {
		if k == KindKey {
			return nil, fmt.Errorf("%w: %q", ErrReservedKey, k)
		}
		t, _ := c.Get(k)
		v, err := encodeValue(t)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		doc = append(doc, bson.E{Key: k, Value: v})
	}
	return doc, nil
}

func encodeValue(t tag.Tag) (any, error) {
	switch v := t.(type) {
	case tag.Int:
		return int32(v), nil
	case tag.Long:
		return int64(v), nil
	case tag.Double:
		return float64(v), nil
	case tag.Bool:
		return bool(v), nil
	case tag.String:
		return string(v), nil
	case tag.ByteArray:
		return bson.Binary{Subtype: bson.TypeBinaryGeneric, Data: []byte(v)}, nil
	case tag.UUID:
		id := uuid.UUID(v)
		return bson.Binary{Subtype: bson.TypeBinaryUUID, Data: id[:]}, nil
	case *tag.Compound:
		return ToDocument(v)
	case tag.Byte:
		return wrap(tag.KindByte, int32(v)), nil
	case tag.Short:
		return wrap(tag.KindShort, int32(v)), nil
	case tag.Float:
		return wrap(tag.KindFloat, float64(v)), nil
	case tag.IntArray:
		arr := make(bson.A, len(v))
		for i, e := range v {
			arr[i] = e
		}
		return wrap(tag.KindIntArray, arr), nil
	case tag.LongArray:
		arr := make(bson.A, len(v))
		for i, e := range v {
			arr[i] = e
		}
		return wrap(tag.KindLongArray, arr), nil
	default:
		return nil, fmt.Errorf("unsupported tag %T", t)
	}
}

func wrap(k tag.Kind, v any) bson.D {
	return bson.D{{Key: KindKey, Value: k.String()}, {Key: valueKey, Value: v}}
}

// FromDocument is the inverse of ToDocument.
func FromDocument(doc bson.D) (*tag.Compound, error) {
	c := tag.NewCompound()
	for _, e := range doc {
		t, err := decodeValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		c.Put(e.Key, t)
	}
	return c, nil
}

func decodeValue(v any) (tag.Tag, error) {
	switch val := v.(type) {
	case int32:
		return tag.Int(val), nil
	case int64:
		return tag.Long(val), nil
	case float64:
		return tag.Double(val), nil
	case bool:
		return tag.Bool(val), nil
	case string:
		return tag.String(val), nil
	case bson.Binary:
		if val.Subtype == bson.TypeBinaryUUID {
			id, err := uuid.FromBytes(val.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return tag.UUID(id), nil
		}
		return tag.ByteArray(val.Data), nil
	case bson.D:
		if k, inner, ok := unwrap(val); ok {
			return decodeWrapped(k, inner)
		}
		return FromDocument(val)
	case bson.M:
		return decodeValue(mapToD(val))
	case map[string]any:
		return decodeValue(mapToD(val))
	default:
		return nil, fmt.Errorf("%w: unsupported bson value %T", ErrMalformed, v)
	}
}

func mapToD(m map[string]any) bson.D {
	doc := make(bson.D, 0, len(m))
	for k, v := range m {
		doc = append(doc, bson.E{Key: k, Value: v})
	}
	return doc
}

func unwrap(doc bson.D) (string, any, bool) {
	if len(doc) != 2 {
		return "", nil, false
	}
	var kind string
	var value any
	var hasKind, hasValue bool
	for _, e := range doc {
		switch e.Key {
		case KindKey:
			kind, hasKind = e.Value.(string)
		case valueKey:
			value, hasValue = e.Value, true
		}
	}
	return kind, value, hasKind && hasValue
}

func decodeWrapped(kindName string, v any) (tag.Tag, error) {
	k, err := tag.ParseKind(kindName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch k {
	case tag.KindByte:
		n, err := asInt64(v, math.MinInt8, math.MaxInt8)
		return tag.Byte(n), err
	case tag.KindShort:
		n, err := asInt64(v, math.MinInt16, math.MaxInt16)
		return tag.Short(n), err
	case tag.KindFloat:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: float payload %T", ErrMalformed, v)
		}
		return tag.Float(float32(f)), nil
	case tag.KindIntArray:
		items, err := asArray(v)
		if err != nil {
			return nil, err
		}
		out := make(tag.IntArray, len(items))
		for i, e := range items {
			n, err := asInt64(e, math.MinInt32, math.MaxInt32)
			if err != nil {
				return nil, err
			}
			out[i] = int32(n)
		}
		return out, nil
	case tag.KindLongArray:
		items, err := asArray(v)
		if err != nil {
			return nil, err
		}
		out := make(tag.LongArray, len(items))
		for i, e := range items {
			n, err := asInt64(e, math.MinInt64, math.MaxInt64)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: kind %s is never wrapped", ErrMalformed, k)
	}
}

func asArray(v any) ([]any, error) {
	switch arr := v.(type) {
	case bson.A:
		return arr, nil
	case []any:
		return arr, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: array payload %T", ErrMalformed, v)
	}
}

func asInt64(v any, lo, hi int64) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int32:
		n = int64(x)
	case int64:
		n = x
	default:
		return 0, fmt.Errorf("%w: integer payload %T", ErrMalformed, v)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d out of range", ErrMalformed, n)
	}
	return n, nil
}
