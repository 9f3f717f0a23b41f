package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/value"
)

func cmp(path string, op logical.CompareOp, v value.Value) *logical.PathCompare {
	return &logical.PathCompare{Path: paths.Get(path), Op: op, Value: v}
}

func TestConvertSimpleEquality(t *testing.T) {
	f := logical.NewFilter(logical.NewScan("orders", "orders"),
		cmp("qty", logical.OpEq, value.NewInt(5)))

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok, "expected Sargable, got %T", out)
	assert.Nil(t, s.Residual)
	assert.Equal(t, 1, s.Requirements.NumDisjuncts())

	conjuncts := s.Requirements.Conjuncts()
	require.Len(t, conjuncts, 1)
	assert.Equal(t, "qty", conjuncts[0].Key.Path.String())
	assert.True(t, conjuncts[0].Req.Interval.IsEquality())
}

func TestConvertConjunction(t *testing.T) {
	pred := &logical.And{Operands: []logical.Expression{
		cmp("qty", logical.OpGte, value.NewInt(5)),
		cmp("region", logical.OpEq, value.NewString("emea")),
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)
	assert.Nil(t, s.Residual)
	assert.Equal(t, 1, s.Requirements.NumDisjuncts())
	assert.Len(t, s.Requirements.Conjuncts(), 2)
}

func TestConvertDisjunction(t *testing.T) {
	pred := &logical.Or{Operands: []logical.Expression{
		cmp("qty", logical.OpEq, value.NewInt(1)),
		cmp("qty", logical.OpEq, value.NewInt(2)),
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)
	assert.Nil(t, s.Residual)
	assert.Equal(t, 2, s.Requirements.NumDisjuncts())
}

func TestConvertAndOverOrDistributes(t *testing.T) {
	pred := &logical.And{Operands: []logical.Expression{
		cmp("region", logical.OpEq, value.NewString("emea")),
		&logical.Or{Operands: []logical.Expression{
			cmp("qty", logical.OpEq, value.NewInt(1)),
			cmp("qty", logical.OpEq, value.NewInt(2)),
		}},
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)
	assert.Equal(t, 2, s.Requirements.NumDisjuncts())
	assert.Equal(t, 4, s.Requirements.NumLeaves(), "each disjunct carries both paths")
}

func TestConvertNegationStaysResidual(t *testing.T) {
	pred := &logical.And{Operands: []logical.Expression{
		cmp("qty", logical.OpEq, value.NewInt(5)),
		&logical.Not{Operand: cmp("void", logical.OpEq, value.NewBool(true))},
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)
	require.NotNil(t, s.Residual)
	_, ok = s.Residual.(*logical.Not)
	assert.True(t, ok)
	assert.Len(t, s.Requirements.Conjuncts(), 1)
}

func TestConvertInexpressibleOrBranchBlocksConversion(t *testing.T) {
	pred := &logical.Or{Operands: []logical.Expression{
		cmp("qty", logical.OpEq, value.NewInt(5)),
		&logical.Not{Operand: cmp("void", logical.OpEq, value.NewBool(true))},
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	_, ok := out.(*logical.Filter)
	assert.True(t, ok, "partially expressible OR must stay a filter, got %T", out)
}

func TestConvertPureNegationStaysFilter(t *testing.T) {
	f := logical.NewFilter(logical.NewScan("orders", "orders"),
		&logical.Not{Operand: cmp("qty", logical.OpEq, value.NewInt(5))})

	out := ConvertToSargable(f)
	_, ok := out.(*logical.Filter)
	assert.True(t, ok)
}

func TestConvertIntersectsRepeatedPath(t *testing.T) {
	pred := &logical.And{Operands: []logical.Expression{
		cmp("qty", logical.OpGte, value.NewInt(5)),
		cmp("qty", logical.OpLt, value.NewInt(10)),
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)

	conjuncts := s.Requirements.Conjuncts()
	require.Len(t, conjuncts, 1, "same non-multikey path merges into one interval")
	iv := conjuncts[0].Req.Interval
	assert.Equal(t, "[5, 10)", iv.String())
}

func TestConvertContradictionEmptiesRequirements(t *testing.T) {
	pred := &logical.And{Operands: []logical.Expression{
		cmp("qty", logical.OpLt, value.NewInt(5)),
		cmp("qty", logical.OpGt, value.NewInt(10)),
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), pred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)
	assert.Equal(t, 0, s.Requirements.NumDisjuncts())
}

func TestConvertMultikeyPathKeepsBothEntries(t *testing.T) {
	arrayElem := paths.Get("tags").Traversed()
	andPred := &logical.And{Operands: []logical.Expression{
		&logical.PathCompare{Path: arrayElem, Op: logical.OpGte, Value: value.NewInt(1)},
		&logical.PathCompare{Path: arrayElem, Op: logical.OpLte, Value: value.NewInt(9)},
	}}
	f := logical.NewFilter(logical.NewScan("orders", "orders"), andPred)

	out := ConvertToSargable(f)
	s, ok := out.(*logical.Sargable)
	require.True(t, ok)
	assert.Len(t, s.Requirements.Conjuncts(), 2,
		"array-traversing paths constrain different elements and never merge")
}

func TestConvertRewritesNestedFilters(t *testing.T) {
	inner := logical.NewFilter(logical.NewScan("orders", "orders"),
		cmp("qty", logical.OpEq, value.NewInt(5)))
	root := logical.NewLimit(inner, 10)

	out := ConvertToSargable(root)
	limit, ok := out.(*logical.Limit)
	require.True(t, ok)
	_, ok = limit.Children()[0].(*logical.Sargable)
	assert.True(t, ok, "filters below other operators are rewritten too")
}
