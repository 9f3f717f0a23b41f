package psr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/CorvusDB/internal/query/value"
)

func TestIntervalPredicates(t *testing.T) {
	full := FullOpenInterval()
	assert.True(t, full.FullyOpen())
	assert.False(t, full.IsEmpty())
	assert.False(t, full.IsEquality())

	eq := EqualityInterval(value.NewInt(5))
	assert.True(t, eq.IsEquality())
	assert.False(t, eq.IsEmpty())
	assert.False(t, eq.FullyOpen())

	empty := Interval{Low: Inclusive(value.NewInt(7)), High: Inclusive(value.NewInt(3))}
	assert.True(t, empty.IsEmpty())

	halfOpenPoint := Interval{Low: Inclusive(value.NewInt(5)), High: Exclusive(value.NewInt(5))}
	assert.True(t, halfOpenPoint.IsEmpty())
}

func TestIntervalIntersect(t *testing.T) {
	i1 := Interval{Low: Inclusive(value.NewInt(1)), High: Inclusive(value.NewInt(10))}
	i2 := Interval{Low: Exclusive(value.NewInt(5)), High: PosInfinity()}

	got := i1.Intersect(i2)
	assert.True(t, got.Equal(Interval{Low: Exclusive(value.NewInt(5)), High: Inclusive(value.NewInt(10))}))

	// Disjoint ranges intersect to an empty interval.
	i3 := Interval{Low: Inclusive(value.NewInt(20)), High: Inclusive(value.NewInt(30))}
	assert.True(t, i1.Intersect(i3).IsEmpty())

	// Intersection with the full interval is the identity.
	assert.True(t, i1.Intersect(FullOpenInterval()).Equal(i1))
}

func TestIntervalString(t *testing.T) {
	i := Interval{Low: Inclusive(value.NewInt(3)), High: Exclusive(value.NewInt(7))}
	assert.Equal(t, "[3, 7)", i.String())
	assert.Equal(t, "(-inf, +inf)", FullOpenInterval().String())
}
