package serializer

import (
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/google/uuid"
)

func builtins() []Serializer {
	return []Serializer{
		MustFunc(
			func(k string, c *tag.Compound) (int8, error) { return c.GetByte(k) },
			func(k string, c *tag.Compound, v int8) error { c.Put(k, tag.Byte(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (int16, error) { return c.GetShort(k) },
			func(k string, c *tag.Compound, v int16) error { c.Put(k, tag.Short(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (int32, error) { return c.GetInt(k) },
			func(k string, c *tag.Compound, v int32) error { c.Put(k, tag.Int(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (int64, error) { return c.GetLong(k) },
			func(k string, c *tag.Compound, v int64) error { c.Put(k, tag.Long(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (float32, error) { return c.GetFloat(k) },
			func(k string, c *tag.Compound, v float32) error { c.Put(k, tag.Float(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (float64, error) { return c.GetDouble(k) },
			func(k string, c *tag.Compound, v float64) error { c.Put(k, tag.Double(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (bool, error) { return c.GetBool(k) },
			func(k string, c *tag.Compound, v bool) error { c.Put(k, tag.Bool(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (string, error) { return c.GetString(k) },
			func(k string, c *tag.Compound, v string) error { c.Put(k, tag.String(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (uuid.UUID, error) { return c.GetUUID(k) },
			func(k string, c *tag.Compound, v uuid.UUID) error { c.Put(k, tag.UUID(v)); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) ([]byte, error) {
				v, err := c.GetByteArray(k)
				return clone(v), err
			},
			func(k string, c *tag.Compound, v []byte) error { c.Put(k, tag.ByteArray(clone(v))); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) ([]int32, error) {
				v, err := c.GetIntArray(k)
				return clone(v), err
			},
			func(k string, c *tag.Compound, v []int32) error { c.Put(k, tag.IntArray(clone(v))); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) ([]int64, error) {
				v, err := c.GetLongArray(k)
				return clone(v), err
			},
			func(k string, c *tag.Compound, v []int64) error { c.Put(k, tag.LongArray(clone(v))); return nil },
		),
		MustFunc(
			func(k string, c *tag.Compound) (*tag.Compound, error) { return c.Child(k) },
			func(k string, c *tag.Compound, v *tag.Compound) error {
				if v == nil {
					c.Put(k, tag.NewCompound())
					return nil
				}
				c.Put(k, v.Copy())
				return nil
			},
		),
	}
}

func clone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return append(S{}, s...)
}
