package tag

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a tag value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBool
	KindString
	KindUUID
	KindByteArray
	KindIntArray
	KindLongArray
	KindCompound
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindByte:      "byte",
	KindShort:     "short",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindBool:      "boolean",
	KindString:    "string",
	KindUUID:      "uuid",
	KindByteArray: "byte-array",
	KindIntArray:  "int-array",
	KindLongArray: "long-array",
	KindCompound:  "compound",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsPrimitive reports whether k is one of the scalar kinds (including UUID).
func (k Kind) IsPrimitive() bool {
	return k >= KindByte && k <= KindUUID
}

// IsArray reports whether k is one of the homogeneous numeric array kinds.
func (k Kind) IsArray() bool {
	return k >= KindByteArray && k <= KindLongArray
}

// Valid reports whether k names a real tag kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindCompound
}

// ParseKind is the inverse of Kind.String. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if k != int(KindInvalid) && name == s {
			return Kind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown tag kind %q", s)
}
