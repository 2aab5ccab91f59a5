// Package tag implements the typed key-value tree that host objects expose
// as their persistent data root.
package tag

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// Tag is a single node of the tree. The set of implementations is closed:
// one type per Kind.
type Tag interface {
	Kind() Kind
	// Clone returns a deep copy. Scalars return themselves.
	Clone() Tag
	isTag()
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	Bool      bool
	String    string
	UUID      uuid.UUID
	ByteArray []byte
	IntArray  []int32
	LongArray []int64
)

func (Byte) Kind() Kind      { return KindByte }
func (Short) Kind() Kind     { return KindShort }
func (Int) Kind() Kind       { return KindInt }
func (Long) Kind() Kind      { return KindLong }
func (Float) Kind() Kind     { return KindFloat }
func (Double) Kind() Kind    { return KindDouble }
func (Bool) Kind() Kind      { return KindBool }
func (String) Kind() Kind    { return KindString }
func (UUID) Kind() Kind      { return KindUUID }
func (ByteArray) Kind() Kind { return KindByteArray }
func (IntArray) Kind() Kind  { return KindIntArray }
func (LongArray) Kind() Kind { return KindLongArray }

func (t Byte) Clone() Tag      { return t }
func (t Short) Clone() Tag     { return t }
func (t Int) Clone() Tag       { return t }
func (t Long) Clone() Tag      { return t }
func (t Float) Clone() Tag     { return t }
func (t Double) Clone() Tag    { return t }
func (t Bool) Clone() Tag      { return t }
func (t String) Clone() Tag    { return t }
func (t UUID) Clone() Tag      { return t }
func (t ByteArray) Clone() Tag { return ByteArray(bytes.Clone(t)) }
func (t IntArray) Clone() Tag  { return IntArray(slices.Clone(t)) }
func (t LongArray) Clone() Tag { return LongArray(slices.Clone(t)) }

func (Byte) isTag()      {}
func (Short) isTag()     {}
func (Int) isTag()       {}
func (Long) isTag()      {}
func (Float) isTag()     {}
func (Double) isTag()    {}
func (Bool) isTag()      {}
func (String) isTag()    {}
func (UUID) isTag()      {}
func (ByteArray) isTag() {}
func (IntArray) isTag()  {}
func (LongArray) isTag() {}

// Equal compares two tags deeply. Arrays compare element-wise; a nil array
// equals an empty one.
func Equal(a, b Tag) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case ByteArray:
		return bytes.Equal(av, b.(ByteArray))
	case IntArray:
		return slices.Equal(av, b.(IntArray))
	case LongArray:
		return slices.Equal(av, b.(LongArray))
	case *Compound:
		return av.Equal(b.(*Compound))
	default:
		return a == b
	}
}
