package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/errors"
	"github.com/dshills/CorvusDB/internal/query/ce"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/value"
)

const testDocCount = 100000

func testCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	_, err := cat.CreateCollection("orders", catalog.CollectionStats{DocCount: testDocCount})
	require.NoError(t, err)
	_, err = cat.CreateIndex(&catalog.Index{
		Name:       "orders_qty",
		Collection: "orders",
		KeyPattern: []catalog.IndexKey{{Path: paths.Get("qty"), Order: catalog.Ascending}},
	})
	require.NoError(t, err)
	return cat
}

func testOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	cat := testCatalog(t)
	return NewOptimizer(cat, ce.NewHeuristic(cat))
}

func eqFilter(path string, v value.Value) *logical.Filter {
	scan := logical.NewScan("orders", "orders")
	return logical.NewFilter(scan, &logical.PathCompare{
		Path:  paths.Get(path),
		Op:    logical.OpEq,
		Value: v,
	})
}

func TestOptimizeScanOnly(t *testing.T) {
	opt := testOptimizer(t)
	plan, err := opt.Optimize(logical.NewScan("orders", "orders"))
	require.NoError(t, err)

	scan, ok := plan.(*CollectionScan)
	require.True(t, ok, "expected CollectionScan, got %T", plan)
	assert.Equal(t, "orders", scan.Collection)
	assert.InDelta(t, testDocCount, float64(plan.EstimatedRows()), 0.01)
	assert.Greater(t, plan.EstimatedCost().TotalCost, 0.0)
}

func TestOptimizePicksIndexForEquality(t *testing.T) {
	opt := testOptimizer(t)
	plan, err := opt.Optimize(eqFilter("qty", value.NewInt(7)))
	require.NoError(t, err)

	scan, ok := plan.(*IndexScan)
	require.True(t, ok, "expected IndexScan, got %T", plan)
	assert.Equal(t, "orders_qty", scan.Index.Name)
	require.Len(t, scan.Bounds, 1)
	assert.True(t, scan.Bounds[0].Interval.IsEquality())
}

func TestOptimizeFallsBackToScanForUnindexedPath(t *testing.T) {
	opt := testOptimizer(t)
	plan, err := opt.Optimize(eqFilter("region", value.NewString("emea")))
	require.NoError(t, err)

	filter, ok := plan.(*FilterExec)
	require.True(t, ok, "expected FilterExec, got %T", plan)
	_, ok = filter.Children()[0].(*CollectionScan)
	assert.True(t, ok, "expected CollectionScan under the filter")
	require.Len(t, filter.Entries, 1)
	assert.Equal(t, "region", filter.Entries[0].Key.Path.String())
}

func TestOptimizeRangeUsesIndex(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	pred := &logical.PathCompare{Path: paths.Get("qty"), Op: logical.OpLt, Value: value.NewInt(50)}
	plan, err := opt.Optimize(logical.NewFilter(scan, pred))
	require.NoError(t, err)

	idx, ok := plan.(*IndexScan)
	require.True(t, ok, "expected IndexScan, got %T", plan)
	require.Len(t, idx.Bounds, 1)
	assert.False(t, idx.Bounds[0].Interval.IsEquality())
}

func TestOptimizeResidualStaysAboveIndexScan(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	pred := &logical.And{Operands: []logical.Expression{
		&logical.PathCompare{Path: paths.Get("qty"), Op: logical.OpEq, Value: value.NewInt(7)},
		&logical.Not{Operand: &logical.PathCompare{
			Path: paths.Get("void"), Op: logical.OpEq, Value: value.NewBool(true),
		}},
	}}
	plan, err := opt.Optimize(logical.NewFilter(scan, pred))
	require.NoError(t, err)

	filter, ok := plan.(*FilterExec)
	require.True(t, ok, "expected FilterExec, got %T", plan)
	require.NotNil(t, filter.Residual)
	_, ok = filter.Residual.(*logical.Not)
	assert.True(t, ok, "negation should stay residual")
	_, ok = filter.Children()[0].(*IndexScan)
	assert.True(t, ok, "indexable conjunct should still drive an index scan")
}

func TestOptimizeUnsatisfiablePredicate(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	pred := &logical.And{Operands: []logical.Expression{
		&logical.PathCompare{Path: paths.Get("qty"), Op: logical.OpLt, Value: value.NewInt(5)},
		&logical.PathCompare{Path: paths.Get("qty"), Op: logical.OpGt, Value: value.NewInt(10)},
	}}
	plan, err := opt.Optimize(logical.NewFilter(scan, pred))
	require.NoError(t, err)

	_, ok := plan.(*EmptyResult)
	assert.True(t, ok, "expected EmptyResult, got %T", plan)
	assert.Zero(t, float64(plan.EstimatedRows()))
}

func TestOptimizeDisjunctionFallsBackToScan(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	pred := &logical.Or{Operands: []logical.Expression{
		&logical.PathCompare{Path: paths.Get("qty"), Op: logical.OpEq, Value: value.NewInt(1)},
		&logical.PathCompare{Path: paths.Get("region"), Op: logical.OpEq, Value: value.NewString("emea")},
	}}
	plan, err := opt.Optimize(logical.NewFilter(scan, pred))
	require.NoError(t, err)

	filter, ok := plan.(*FilterExec)
	require.True(t, ok, "expected FilterExec, got %T", plan)
	_, ok = filter.Children()[0].(*CollectionScan)
	assert.True(t, ok, "multi-disjunct requirements do not use an index")
}

func TestOptimizeSortElision(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	filtered := logical.NewFilter(scan, &logical.PathCompare{
		Path: paths.Get("qty"), Op: logical.OpGt, Value: value.NewInt(10),
	})
	sorted := logical.NewCollation(filtered, []logical.SortKey{
		{Path: paths.Get("qty"), Order: catalog.Ascending},
	})

	plan, err := opt.Optimize(sorted)
	require.NoError(t, err)

	_, isSort := plan.(*Sort)
	assert.False(t, isSort, "index order should satisfy the collation")
	_, ok := plan.(*IndexScan)
	assert.True(t, ok, "expected the elided sort to surface the index scan, got %T", plan)
}

func TestOptimizeSortRequiredWithoutIndexOrder(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	sorted := logical.NewCollation(scan, []logical.SortKey{
		{Path: paths.Get("region"), Order: catalog.Ascending},
	})

	plan, err := opt.Optimize(sorted)
	require.NoError(t, err)

	sort, ok := plan.(*Sort)
	require.True(t, ok, "expected Sort, got %T", plan)
	assert.Greater(t, sort.EstimatedCost().StartupCost, 0.0, "sort is a blocking operator")
}

func TestOptimizePipelineShape(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	filtered := logical.NewFilter(scan, &logical.PathCompare{
		Path: paths.Get("qty"), Op: logical.OpEq, Value: value.NewInt(3),
	})
	limited := logical.NewLimit(logical.NewSkip(filtered, 10), 5)

	plan, err := opt.Optimize(limited)
	require.NoError(t, err)

	limit, ok := plan.(*LimitSkip)
	require.True(t, ok, "expected LimitSkip, got %T", plan)
	assert.True(t, limit.HasLimit)
	assert.EqualValues(t, 5, limit.Limit)
}

// unknownNode is a logical node the optimizer has no implementation for.
// It embeds a real node to satisfy the interface's unexported marker.
type unknownNode struct{ *logical.Union }

func (u *unknownNode) String() string { return "Unknown" }

func TestOptimizeUnimplementableNodeIsUnsupported(t *testing.T) {
	opt := testOptimizer(t)
	n := &unknownNode{Union: logical.NewUnion(logical.NewScan("orders", "orders"))}

	plan, err := opt.Optimize(n)
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.True(t, errors.HasCode(err, errors.FeatureNotSupported))
}

func TestLimitSkipRendering(t *testing.T) {
	both := &LimitSkip{Limit: 5, HasLimit: true, Skip: 10}
	assert.Equal(t, "LimitSkip(limit=5, skip=10)", both.String())

	limitOnly := &LimitSkip{Limit: 10, HasLimit: true}
	assert.Equal(t, "LimitSkip(limit=10)", limitOnly.String())

	skipOnly := &LimitSkip{Skip: 3}
	assert.Equal(t, "LimitSkip(skip=3)", skipOnly.String())
}

func TestExplainOutput(t *testing.T) {
	opt := testOptimizer(t)
	scan := logical.NewScan("orders", "orders")
	filtered := logical.NewFilter(scan, &logical.PathCompare{
		Path: paths.Get("region"), Op: logical.OpEq, Value: value.NewString("emea"),
	})
	plan, err := opt.Optimize(logical.NewLimit(filtered, 10))
	require.NoError(t, err)

	out := Explain(plan)
	assert.Contains(t, out, "LimitSkip")
	assert.Contains(t, out, "CollectionScan(orders)")
	assert.Contains(t, out, "rows=")
	assert.Contains(t, out, "cost=")
	assert.Equal(t, 3, strings.Count(out, "rows="), "one estimate line per node")
}

func TestMemoDeduplicatesSharedSubtrees(t *testing.T) {
	cat := testCatalog(t)
	est := ce.NewHeuristic(cat)

	branch := func() logical.Node {
		return logical.NewFilter(logical.NewScan("orders", "orders"), &logical.PathCompare{
			Path: paths.Get("qty"), Op: logical.OpEq, Value: value.NewInt(1),
		})
	}
	union := logical.NewUnion(branch(), branch())

	memo := NewMemo()
	root := memo.Insert(union, est)

	// Scan, filter, union: identical branches land in the same groups.
	assert.Equal(t, 3, memo.Len())
	require.Len(t, root.Children, 2)
	assert.Equal(t, root.Children[0], root.Children[1])
}
