package value

import (
	"sort"

	"github.com/google/uuid"
)

// Value is a tagged sum carrying primitives, collections, variables, and
// deferred applications. It doubles as an AST node: a Variable or Apply
// node is "unevaluated", every other node is "evaluated".
//
// Go has no tagged-union type, so one struct carries every variant's
// payload and `tag` says which field is live — a fixed-field layout over
// the full tag set rather than a separate concrete type per variant.
type Value struct {
	tag Tag

	i    int64
	u    uint64
	f    float64
	b    bool
	s    string // Text payload, or Variable name, or Apply operator symbol
	id   uuid.UUID
	list []Value
	dict *Dict
	args []Value // Apply arguments
}

// Dict is a string-keyed, key-ordered map ("Dict iteration
// order is key-sorted").
type Dict struct {
	keys   []string
	values []Value
}

// NewDict builds a Dict from a Go map, sorting keys once up front.
func NewDict(m map[string]Value) *Dict {
	d := &Dict{keys: make([]string, 0, len(m)), values: make([]Value, 0, len(m))}
	for k := range m {
		d.keys = append(d.keys, k)
	}
	sort.Strings(d.keys)
	for _, k := range d.keys {
		d.values = append(d.values, m[k])
	}
	return d
}

func (d *Dict) Len() int { return len(d.keys) }

// Range calls fn for each key/value pair in key order.
func (d *Dict) Range(fn func(key string, v Value)) {
	for i, k := range d.keys {
		fn(k, d.values[i])
	}
}

func (d *Dict) Get(key string) (Value, bool) {
	i := sort.SearchStrings(d.keys, key)
	if i < len(d.keys) && d.keys[i] == key {
		return d.values[i], true
	}
	return Value{}, false
}

// Constructors.

func Null() Value           { return Value{tag: TagNull} }
func Bool(b bool) Value {
	if b {
		return Value{tag: TagBoolTrue, b: true}
	}
	return Value{tag: TagBoolFalse}
}
func Int(i int64) Value       { return Value{tag: TagInt, i: i} }
func Float(f float64) Value   { return Value{tag: TagFloat, f: canonicalizeNaN(f)} }
func Text(s string) Value     { return Value{tag: TagText, s: s} }
func UUID(id uuid.UUID) Value { return Value{tag: TagUuid, id: id} }
func UInt(u uint64) Value     { return Value{tag: TagUInt, u: u} }
func List(items []Value) Value {
	return Value{tag: TagList, list: items}
}
func DictValue(d *Dict) Value { return Value{tag: TagDict, dict: d} }
func Var(name string) Value   { return Value{tag: TagVariable, s: name} }
func Apply(op string, args []Value) Value {
	return Value{tag: TagApply, s: op, args: args}
}

// MaxTag is the reserved sentinel used only as a range-scan upper bound; it
// MUST NOT appear in persisted data.
func MaxTagSentinel() Value { return Value{tag: TagMaxTag} }

// Tag returns the value's discriminant byte.
func (v Value) Tag() Tag { return v.tag }

func (v Value) AsInt() (int64, bool)     { return v.i, v.tag == TagInt }
func (v Value) AsFloat() (float64, bool) { return v.f, v.tag == TagFloat }
func (v Value) AsUInt() (uint64, bool)   { return v.u, v.tag == TagUInt }
func (v Value) AsBool() (bool, bool)     { return v.b, v.tag == TagBoolTrue || v.tag == TagBoolFalse }
func (v Value) AsText() (string, bool)   { return v.s, v.tag == TagText }
func (v Value) AsUUID() (uuid.UUID, bool) { return v.id, v.tag == TagUuid }
func (v Value) AsList() ([]Value, bool)  { return v.list, v.tag == TagList }
func (v Value) AsDict() (*Dict, bool)    { return v.dict, v.tag == TagDict }

// VarName returns the variable name and true iff v is a Variable node.
func (v Value) VarName() (string, bool) {
	if v.tag == TagVariable {
		return v.s, true
	}
	return "", false
}

// ApplyParts returns the operator symbol and argument list iff v is an
// Apply node.
func (v Value) ApplyParts() (string, []Value, bool) {
	if v.tag == TagApply {
		return v.s, v.args, true
	}
	return "", nil, false
}

// IsEvaluated reports whether v contains no unevaluated (Variable/Apply)
// subnode ("the predicate gating constant folding").
func (v Value) IsEvaluated() bool {
	switch v.tag {
	case TagVariable, TagApply:
		return false
	case TagList:
		for _, e := range v.list {
			if !e.IsEvaluated() {
				return false
			}
		}
		return true
	case TagDict:
		if v.dict == nil {
			return true
		}
		evaluated := true
		v.dict.Range(func(_ string, sub Value) {
			if !sub.IsEvaluated() {
				evaluated = false
			}
		})
		return evaluated
	default:
		return true
	}
}

// ToOwned detaches v from any shared backing storage (slices, dict
// entries) so it survives independent of whatever produced it. Go strings
// need no copy; slices and dict backing arrays do, since two Values can
// otherwise alias the same backing array.
func (v Value) ToOwned() Value {
	switch v.tag {
	case TagList:
		owned := make([]Value, len(v.list))
		for i, e := range v.list {
			owned[i] = e.ToOwned()
		}
		return Value{tag: TagList, list: owned}
	case TagDict:
		if v.dict == nil {
			return v
		}
		m := make(map[string]Value, v.dict.Len())
		v.dict.Range(func(k string, sub Value) { m[k] = sub.ToOwned() })
		return DictValue(NewDict(m))
	case TagApply:
		owned := make([]Value, len(v.args))
		for i, a := range v.args {
			owned[i] = a.ToOwned()
		}
		return Value{tag: TagApply, s: v.s, args: owned}
	default:
		return v
	}
}
