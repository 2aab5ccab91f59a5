package tag

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Format renders t in a compact stringified form with type suffixes, close to
// the textual notation game tooling uses for these trees. Keys are sorted.
func Format(t Tag) string {
	var sb strings.Builder
	writeTag(&sb, t)
	return sb.String()
}

func (c *Compound) String() string { return Format(c) }

func writeTag(sb *strings.Builder, t Tag) {
	switch v := t.(type) {
	case Byte:
		sb.WriteString(strconv.FormatInt(int64(v), 10) + "b")
	case Short:
		sb.WriteString(strconv.FormatInt(int64(v), 10) + "s")
	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Long:
		sb.WriteString(strconv.FormatInt(int64(v), 10) + "L")
	case Float:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32) + "f")
	case Double:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64) + "d")
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(v)))
	case String:
		sb.WriteString(strconv.Quote(string(v)))
	case UUID:
		sb.WriteString("uuid(" + uuid.UUID(v).String() + ")")
	case ByteArray:
		sb.WriteString("[B;")
		for i, e := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(int(int8(e))) + "b")
		}
		sb.WriteByte(']')
	case IntArray:
		sb.WriteString("[I;")
		for i, e := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(int64(e), 10))
		}
		sb.WriteByte(']')
	case LongArray:
		sb.WriteString("[L;")
		for i, e := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(e, 10) + "L")
		}
		sb.WriteByte(']')
	case *Compound:
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(formatKey(k))
			sb.WriteByte(':')
			writeTag(sb, v.entries[k])
		}
		sb.WriteByte('}')
	case nil:
		sb.WriteString("null")
	}
}

func formatKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, r := range k {
		if !(r == '_' || r == '-' || r == '.' || r == '+' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return strconv.Quote(k)
		}
	}
	return k
}
