// Package value implements the tagged, totally-ordered Value that underlies
// both expressions and stored tuples.
package value

// Tag is the byte used to lead a Value's sort-stable key encoding. The
// ordinals below are fixed by the on-disk format; never renumber them.
type Tag byte

const (
	TagBoolFalse Tag = 1
	TagNull      Tag = 2
	TagBoolTrue  Tag = 3
	TagInt       Tag = 4
	TagFloat     Tag = 5
	TagText      Tag = 6
	TagUuid      Tag = 7
	TagUInt      Tag = 8

	TagList Tag = 128
	TagDict Tag = 129

	TagVariable Tag = 253
	TagApply    Tag = 254
	TagMaxTag   Tag = 255
)

func (t Tag) String() string {
	switch t {
	case TagBoolFalse:
		return "BoolFalse"
	case TagNull:
		return "Null"
	case TagBoolTrue:
		return "BoolTrue"
	case TagInt:
		return "Int"
	case TagFloat:
		return "Float"
	case TagText:
		return "Text"
	case TagUuid:
		return "Uuid"
	case TagUInt:
		return "UInt"
	case TagList:
		return "List"
	case TagDict:
		return "Dict"
	case TagVariable:
		return "Variable"
	case TagApply:
		return "Apply"
	case TagMaxTag:
		return "MaxTag"
	default:
		return "Reserved"
	}
}
