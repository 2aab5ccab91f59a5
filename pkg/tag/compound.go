package tag

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Compound is an unordered mapping from unique string keys to tags.
// The zero value is not usable; use NewCompound.
type Compound struct {
	entries map[string]Tag
}

// NewCompound returns an empty compound.
func NewCompound() *Compound {
	return &Compound{entries: make(map[string]Tag)}
}

func (c *Compound) Kind() Kind { return KindCompound }
func (*Compound) isTag()       {}

// Clone returns a deep copy of the compound and everything below it.
func (c *Compound) Clone() Tag { return c.Copy() }

// Copy is Clone with a concrete return type.
func (c *Compound) Copy() *Compound {
	out := &Compound{entries: make(map[string]Tag, len(c.entries))}
	for k, v := range c.entries {
		out.entries[k] = v.Clone()
	}
	return out
}

func (c *Compound) Len() int { return len(c.entries) }

func (c *Compound) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Get returns the tag stored at key, if any.
func (c *Compound) Get(key string) (Tag, bool) {
	t, ok := c.entries[key]
	return t, ok
}

// Put stores t at key, replacing any previous value. A nil tag removes the key.
func (c *Compound) Put(key string, t Tag) {
	if t == nil {
		delete(c.entries, key)
		return
	}
	c.entries[key] = t
}

func (c *Compound) Remove(key string) {
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Compound) Clear() {
	clear(c.entries)
}

// Keys returns the keys in sorted order.
func (c *Compound) Keys() []string {
	keys := lo.Keys(c.entries)
	slices.Sort(keys)
	return keys
}

// Range calls fn for every entry in key order until fn returns false.
func (c *Compound) Range(fn func(key string, t Tag) bool) {
	for _, k := range c.Keys() {
		if !fn(k, c.entries[k]) {
			return
		}
	}
}

// Merge copies every entry of other into c, replacing existing keys.
func (c *Compound) Merge(other *Compound) {
	for k, v := range other.entries {
		c.entries[k] = v.Clone()
	}
}

func (c *Compound) Equal(other *Compound) bool {
	if c == nil || other == nil {
		return c == other
	}
	return maps.EqualFunc(c.entries, other.entries, Equal)
}

// Child returns the compound stored at key.
func (c *Compound) Child(key string) (*Compound, error) {
	return getAs[*Compound](c, key)
}

// GetOrCreateChild returns the compound at key, creating and attaching an
// empty one when the key is absent. A non-compound value at key is an error.
func (c *Compound) GetOrCreateChild(key string) (*Compound, error) {
	t, ok := c.entries[key]
	if !ok {
		child := NewCompound()
		c.entries[key] = child
		return child, nil
	}
	child, ok := t.(*Compound)
	if !ok {
		return nil, fmt.Errorf("%w: key %q holds %s, want %s", ErrTypeMismatch, key, t.Kind(), KindCompound)
	}
	return child, nil
}

func getAs[T Tag](c *Compound, key string) (T, error) {
	var zero T
	t, ok := c.entries[key]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	v, ok := t.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %s, want %s", ErrTypeMismatch, key, t.Kind(), zero.Kind())
	}
	return v, nil
}

func (c *Compound) GetByte(key string) (int8, error) {
	v, err := getAs[Byte](c, key)
	return int8(v), err
}

func (c *Compound) GetShort(key string) (int16, error) {
	v, err := getAs[Short](c, key)
	return int16(v), err
}

func (c *Compound) GetInt(key string) (int32, error) {
	v, err := getAs[Int](c, key)
	return int32(v), err
}

func (c *Compound) GetLong(key string) (int64, error) {
	v, err := getAs[Long](c, key)
	return int64(v), err
}

func (c *Compound) GetFloat(key string) (float32, error) {
	v, err := getAs[Float](c, key)
	return float32(v), err
}

func (c *Compound) GetDouble(key string) (float64, error) {
	v, err := getAs[Double](c, key)
	return float64(v), err
}

func (c *Compound) GetBool(key string) (bool, error) {
	v, err := getAs[Bool](c, key)
	return bool(v), err
}

func (c *Compound) GetString(key string) (string, error) {
	v, err := getAs[String](c, key)
	return string(v), err
}

func (c *Compound) GetUUID(key string) (uuid.UUID, error) {
	v, err := getAs[UUID](c, key)
	return uuid.UUID(v), err
}

func (c *Compound) GetByteArray(key string) ([]byte, error) {
	v, err := getAs[ByteArray](c, key)
	return []byte(v), err
}

func (c *Compound) GetIntArray(key string) ([]int32, error) {
	v, err := getAs[IntArray](c, key)
	return []int32(v), err
}

func (c *Compound) GetLongArray(key string) ([]int64, error) {
	v, err := getAs[LongArray](c, key)
	return []int64(v), err
}
