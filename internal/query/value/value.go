package value

import (
	"fmt"
	"strconv"
)

// Kind identifies the scalar type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Value is a scalar document value as seen by the optimizer: interval
// bounds, histogram bucket boundaries and predicate literals. It carries
// only the types the optimizer compares; everything else stays opaque to
// this core.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NewInt creates an integer value.
func NewInt(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// NewFloat creates a floating-point value.
func NewFloat(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// NewString creates a string value.
func NewString(s string) Value {
	return Value{kind: KindString, s: s}
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsBool returns the boolean payload. Valid only for KindBool.
func (v Value) AsBool() bool {
	return v.b
}

// AsInt returns the integer payload. Valid only for KindInt.
func (v Value) AsInt() int64 {
	return v.i
}

// AsFloat returns the numeric payload widened to float64.
// Valid for KindInt and KindFloat.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// AsString returns the string payload. Valid only for KindString.
func (v Value) AsString() string {
	return v.s
}

// isNumeric reports whether the value participates in cross-type numeric
// comparison.
func (v Value) isNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Compare defines a total order over values: -1 if v < other, 0 if equal,
// 1 if v > other. Int and Float compare numerically with each other; for
// all other kind mismatches the kind tag decides (null < bool < numbers <
// string).
func (v Value) Compare(other Value) int {
	if v.isNumeric() && other.isNumeric() {
		a, b := v.AsFloat(), other.AsFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if v.kind != other.kind {
		if v.kind < other.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		switch {
		case v.b == other.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	case KindString:
		switch {
		case v.s < other.s:
			return -1
		case v.s > other.s:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// Equal returns true if the two values compare equal.
func (v Value) Equal(other Value) bool {
	if v.isNumeric() != other.isNumeric() && v.kind != other.kind {
		return false
	}
	return v.Compare(other) == 0
}

// String returns a string representation of the value for plan output.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return fmt.Sprintf("Unknown(%d)", int(v.kind))
	}
}
