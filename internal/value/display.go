package value

import (
	"strconv"
	"strings"
)

// String renders v in the textual form of internal/expr.Parse. Null,
// booleans, non-negative Ints and finite Floats, Text, and Lists and Dicts
// of those parse back to an equal Value. Negative numbers parse back as a
// unary minus Apply; UInt, Uuid, non-finite Float and Apply renderings
// have no literal form in the parser and do not parse back.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.tag {
	case TagNull:
		b.WriteString("null")
	case TagBoolFalse:
		b.WriteString("false")
	case TagBoolTrue:
		b.WriteString("true")
	case TagInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case TagFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0" // keep integral floats from reading back as Ints
		}
		b.WriteString(s)
	case TagUInt:
		b.WriteString(strconv.FormatUint(v.u, 10))
		b.WriteByte('u')
	case TagUuid:
		b.WriteString(v.id.String())
	case TagText:
		writeQuotedString(b, v.s)
	case TagList:
		b.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			e.write(b)
		}
		b.WriteByte(']')
	case TagDict:
		b.WriteByte('{')
		if v.dict != nil {
			first := true
			v.dict.Range(func(k string, sub Value) {
				if !first {
					b.WriteByte(',')
				}
				first = false
				writeQuotedString(b, k)
				b.WriteByte(':')
				sub.write(b)
			})
		}
		b.WriteByte('}')
	case TagVariable:
		b.WriteByte('?')
		b.WriteString(v.s)
	case TagApply:
		b.WriteByte('(')
		b.WriteString(v.s)
		for _, a := range v.args {
			b.WriteByte(' ')
			a.write(b)
		}
		b.WriteByte(')')
	case TagMaxTag:
		b.WriteString("<sentinel>")
	}
}

func writeQuotedString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
