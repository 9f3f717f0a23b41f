package psr

import (
	"fmt"

	"github.com/dshills/CorvusDB/internal/query/value"
)

// Bound is one end of an interval: a value with inclusivity, or an
// infinity.
type Bound struct {
	value     value.Value
	inclusive bool
	infinite  bool
	positive  bool // sign of an infinite bound
}

// NegInfinity returns the -inf bound.
func NegInfinity() Bound {
	return Bound{infinite: true, positive: false}
}

// PosInfinity returns the +inf bound.
func PosInfinity() Bound {
	return Bound{infinite: true, positive: true}
}

// Inclusive returns a closed finite bound.
func Inclusive(v value.Value) Bound {
	return Bound{value: v, inclusive: true}
}

// Exclusive returns an open finite bound.
func Exclusive(v value.Value) Bound {
	return Bound{value: v}
}

// IsInfinite reports whether the bound is an infinity.
func (b Bound) IsInfinite() bool {
	return b.infinite
}

// IsInclusive reports whether a finite bound is closed.
func (b Bound) IsInclusive() bool {
	return b.inclusive
}

// Value returns the finite bound's value. Valid only when !IsInfinite().
func (b Bound) Value() value.Value {
	return b.value
}

// Equal reports bound equality.
func (b Bound) Equal(other Bound) bool {
	if b.infinite || other.infinite {
		return b.infinite == other.infinite && b.positive == other.positive
	}
	return b.inclusive == other.inclusive && b.value.Equal(other.value)
}

// Interval is a single contiguous range restriction on a path's value.
type Interval struct {
	Low  Bound
	High Bound
}

// FullOpenInterval is the unrestricted interval (-inf, +inf).
func FullOpenInterval() Interval {
	return Interval{Low: NegInfinity(), High: PosInfinity()}
}

// EqualityInterval restricts the path to exactly v: [v, v].
func EqualityInterval(v value.Value) Interval {
	return Interval{Low: Inclusive(v), High: Inclusive(v)}
}

// FullyOpen reports whether the interval admits every value.
func (i Interval) FullyOpen() bool {
	return i.Low.infinite && !i.Low.positive && i.High.infinite && i.High.positive
}

// IsEquality reports whether the interval pins the path to a single value.
func (i Interval) IsEquality() bool {
	return !i.Low.infinite && !i.High.infinite &&
		i.Low.inclusive && i.High.inclusive &&
		i.Low.value.Equal(i.High.value)
}

// IsEmpty reports whether no value can satisfy the interval.
func (i Interval) IsEmpty() bool {
	if i.Low.infinite || i.High.infinite {
		// An infinite bound with the wrong sign cannot be constructed
		// through this package's constructors.
		return false
	}
	cmp := i.Low.value.Compare(i.High.value)
	if cmp > 0 {
		return true
	}
	if cmp == 0 {
		return !(i.Low.inclusive && i.High.inclusive)
	}
	return false
}

// Equal reports interval equality.
func (i Interval) Equal(other Interval) bool {
	return i.Low.Equal(other.Low) && i.High.Equal(other.High)
}

// Intersect returns the intersection of two intervals. The result may be
// empty; callers check IsEmpty.
func (i Interval) Intersect(other Interval) Interval {
	return Interval{
		Low:  maxLow(i.Low, other.Low),
		High: minHigh(i.High, other.High),
	}
}

func maxLow(a, b Bound) Bound {
	if a.infinite {
		return b
	}
	if b.infinite {
		return a
	}
	cmp := a.value.Compare(b.value)
	switch {
	case cmp > 0:
		return a
	case cmp < 0:
		return b
	default:
		// Same value: exclusive is the tighter lower bound.
		if !a.inclusive {
			return a
		}
		return b
	}
}

func minHigh(a, b Bound) Bound {
	if a.infinite {
		return b
	}
	if b.infinite {
		return a
	}
	cmp := a.value.Compare(b.value)
	switch {
	case cmp < 0:
		return a
	case cmp > 0:
		return b
	default:
		if !a.inclusive {
			return a
		}
		return b
	}
}

// String renders the interval in bracket notation, e.g. "[3, 7)".
func (i Interval) String() string {
	var low, high string
	if i.Low.infinite {
		low = "(-inf"
	} else if i.Low.inclusive {
		low = "[" + i.Low.value.String()
	} else {
		low = "(" + i.Low.value.String()
	}
	if i.High.infinite {
		high = "+inf)"
	} else if i.High.inclusive {
		high = i.High.value.String() + "]"
	} else {
		high = i.High.value.String() + ")"
	}
	return fmt.Sprintf("%s, %s", low, high)
}
