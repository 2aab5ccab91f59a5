// Package tagavro encodes tag trees as Avro binary.
//
// Avro has no recursive union for heterogeneous maps, so a tree is flattened
// into a pre-order list of nodes. Every node points at its parent by index;
// children of the root use -1.
package tagavro

import (
	"errors"
	"fmt"
	"math"

	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/google/uuid"
	hambavro "github.com/hamba/avro/v2"
)

const schemaJSON = `{
  "type": "record",
  "name": "TagTree",
  "namespace": "io.tagdata",
  "fields": [
    {"name": "nodes", "type": {"type": "array", "items": {
      "type": "record",
      "name": "TagNode",
      "fields": [
        {"name": "parent", "type": "int"},
        {"name": "key", "type": "string"},
        {"name": "kind", "type": "int"},
        {"name": "i", "type": "long", "default": 0},
        {"name": "f", "type": "double", "default": 0},
        {"name": "s", "type": "string", "default": ""},
        {"name": "b", "type": "bytes", "default": ""},
        {"name": "a", "type": {"type": "array", "items": "long"}, "default": []}
      ]
    }}}
  ]
}`

var schema = hambavro.MustParse(schemaJSON)

var ErrMalformed = errors.New("malformed avro tag tree")

type node struct {
	Parent int32   `avro:"parent"`
	Key    string  `avro:"key"`
	Kind   int32   `avro:"kind"`
	I      int64   `avro:"i"`
	F      float64 `avro:"f"`
	S      string  `avro:"s"`
	B      []byte  `avro:"b"`
	A      []int64 `avro:"a"`
}

type tree struct {
	Nodes []node `avro:"nodes"`
}

// Schema returns the parsed Avro schema used for encoding.
func Schema() hambavro.Schema { return schema }

// Codec encodes whole trees to Avro bytes.
type Codec struct{}

func (Codec) Name() string { return "avro" }

func (Codec) Encode(c *tag.Compound) ([]byte, error) { return Marshal(c) }

func (Codec) Decode(data []byte) (*tag.Compound, error) { return Unmarshal(data) }

func Marshal(c *tag.Compound) ([]byte, error) {
	var t tree
	flatten(&t, c, -1)
	data, err := hambavro.Marshal(schema, t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal avro tag tree: %w", err)
	}
	return data, nil
}

func flatten(t *tree, c *tag.Compound, parent int32) {
	c.Range(func(key string, v tag.Tag) bool {
		n := node{Parent: parent, Key: key, Kind: int32(v.Kind()), B: []byte{}, A: []int64{}}
		switch val := v.(type) {
		case tag.Byte:
			n.I = int64(val)
		case tag.Short:
			n.I = int64(val)
		case tag.Int:
			n.I = int64(val)
		case tag.Long:
			n.I = int64(val)
		case tag.Float:
			n.F = float64(val)
		case tag.Double:
			n.F = float64(val)
		case tag.Bool:
			if val {
				n.I = 1
			}
		case tag.String:
			n.S = string(val)
		case tag.UUID:
			id := uuid.UUID(val)
			n.B = id[:]
		case tag.ByteArray:
			n.B = []byte(val)
		case tag.IntArray:
			for _, e := range val {
				n.A = append(n.A, int64(e))
			}
		case tag.LongArray:
			n.A = append(n.A, val...)
		}
		t.Nodes = append(t.Nodes, n)
		if child, ok := v.(*tag.Compound); ok {
			flatten(t, child, int32(len(t.Nodes)-1))
		}
		return true
	})
}

func Unmarshal(data []byte) (*tag.Compound, error) {
	var t tree
	if err := hambavro.Unmarshal(schema, data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal avro tag tree: %w", err)
	}

	root := tag.NewCompound()
	compounds := make(map[int32]*tag.Compound, len(t.Nodes))
	for i, n := range t.Nodes {
		parent := root
		if n.Parent >= 0 {
			p, ok := compounds[n.Parent]
			if !ok || n.Parent >= int32(i) {
				return nil, fmt.Errorf("%w: node %d references parent %d", ErrMalformed, i, n.Parent)
			}
			parent = p
		}
		v, err := decodeNode(n)
		if err != nil {
			return nil, fmt.Errorf("node %d (%q): %w", i, n.Key, err)
		}
		if c, ok := v.(*tag.Compound); ok {
			compounds[int32(i)] = c
		}
		parent.Put(n.Key, v)
	}
	return root, nil
}

func decodeNode(n node) (tag.Tag, error) {
	switch k := tag.Kind(n.Kind); k {
	case tag.KindByte:
		if n.I < math.MinInt8 || n.I > math.MaxInt8 {
			return nil, fmt.Errorf("%w: byte %d out of range", ErrMalformed, n.I)
		}
		return tag.Byte(n.I), nil
	case tag.KindShort:
		if n.I < math.MinInt16 || n.I > math.MaxInt16 {
			return nil, fmt.Errorf("%w: short %d out of range", ErrMalformed, n.I)
		}
		return tag.Short(n.I), nil
	case tag.KindInt:
		if n.I < math.MinInt32 || n.I > math.MaxInt32 {
			return nil, fmt.Errorf("%w: int %d out of range", ErrMalformed, n.I)
		}
		return tag.Int(n.I), nil
	case tag.KindLong:
		return tag.Long(n.I), nil
	case tag.KindFloat:
		return tag.Float(float32(n.F)), nil
	case tag.KindDouble:
		return tag.Double(n.F), nil
	case tag.KindBool:
		return tag.Bool(n.I != 0), nil
	case tag.KindString:
		return tag.String(n.S), nil
	case tag.KindUUID:
		id, err := uuid.FromBytes(n.B)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return tag.UUID(id), nil
	case tag.KindByteArray:
		return tag.ByteArray(n.B), nil
	case tag.KindIntArray:
		out := make(tag.IntArray, len(n.A))
		for i, e := range n.A {
			if e < math.MinInt32 || e > math.MaxInt32 {
				return nil, fmt.Errorf("%w: int-array element %d out of range", ErrMalformed, e)
			}
			out[i] = int32(e)
		}
		return out, nil
	case tag.KindLongArray:
		return tag.LongArray(n.A), nil
	case tag.KindCompound:
		return tag.NewCompound(), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, n.Kind)
	}
}
