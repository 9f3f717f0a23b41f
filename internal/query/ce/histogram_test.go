package ce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/psr"
	"github.com/dshills/CorvusDB/internal/query/value"
)

// histogramCatalog has a collection of 1000 docs with an equi-height
// histogram on "qty": values 0..99 uniform, 10 docs per value.
func histogramCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	_, err := cat.CreateCollection("orders", catalog.CollectionStats{DocCount: 1000})
	require.NoError(t, err)

	err = cat.SetPathStats("orders", paths.Get("qty"), &catalog.PathStats{
		DocCount:      1000,
		DistinctCount: 100,
		MinValue:      value.NewInt(0),
		MaxValue:      value.NewInt(99),
		Histogram: &catalog.Histogram{
			Type: catalog.EquiHeightHistogram,
			Buckets: []catalog.HistogramBucket{
				{LowerBound: value.NewInt(0), UpperBound: value.NewInt(49), Frequency: 500, DistinctCount: 50},
				{LowerBound: value.NewInt(50), UpperBound: value.NewInt(99), Frequency: 500, DistinctCount: 50},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

func qtyCompare(op logical.CompareOp, v int64) logical.Expression {
	return &logical.PathCompare{Path: paths.Get("qty"), Op: op, Value: value.NewInt(v)}
}

func TestHistogramEquality(t *testing.T) {
	cat := histogramCatalog(t)
	est := NewHistogram(cat)

	root := logical.NewFilter(logical.NewScan("orders", "s0"), qtyCompare(logical.OpEq, 7))
	got := float64(EstimatePlan(est, root))
	// 10 docs per distinct value: (500/50)/1000 * 1000 = 10.
	assert.InDelta(t, 10.0, got, 1e-9)

	// Value outside every bucket estimates to zero.
	miss := logical.NewFilter(logical.NewScan("orders", "s0"), qtyCompare(logical.OpEq, 500))
	assert.Equal(t, 0.0, float64(EstimatePlan(est, miss)))
}

func TestHistogramRange(t *testing.T) {
	cat := histogramCatalog(t)
	est := NewHistogram(cat)

	// qty < 50 covers the first bucket fully (plus a sliver of the
	// second bucket's boundary interpolation).
	root := logical.NewFilter(logical.NewScan("orders", "s0"), qtyCompare(logical.OpLt, 50))
	got := float64(EstimatePlan(est, root))
	assert.InDelta(t, 500.0, got, 15.0)

	// qty >= 75 covers about half of the second bucket.
	upper := logical.NewFilter(logical.NewScan("orders", "s0"), qtyCompare(logical.OpGte, 75))
	gotUpper := float64(EstimatePlan(est, upper))
	assert.InDelta(t, 250.0, gotUpper, 15.0)
}

func TestHistogramFallbackToHeuristic(t *testing.T) {
	cat := histogramCatalog(t)
	est := NewHistogram(cat)

	// No statistics on "status": heuristic sqrt curve applies.
	root := logical.NewFilter(logical.NewScan("orders", "s0"),
		&logical.PathCompare{Path: paths.Get("status"), Op: logical.OpEq, Value: value.NewString("open")})
	got := float64(EstimatePlan(est, root))
	assert.InDelta(t, math.Sqrt(1000), got, 1e-5)
}

func TestHistogramSargable(t *testing.T) {
	cat := histogramCatalog(t)
	est := NewHistogram(cat)

	reqs := psr.New()
	reqs.Add(psr.MakeKey("s0", paths.Get("qty")),
		psr.Requirement{Interval: psr.EqualityInterval(value.NewInt(7))})
	node := logical.NewSargable("orders", "s0", reqs, nil)

	got := float64(EstimatePlan(est, node))
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestHistogramNodeContractsUnchanged(t *testing.T) {
	// The histogram transport obeys the same per-node contracts as the
	// heuristic one for dataflow nodes.
	cat := histogramCatalog(t)
	est := NewHistogram(cat)
	scanNode := logical.NewScan("orders", "s0")

	assert.InDelta(t, 0.0, float64(EstimatePlan(est, logical.NewSkip(logical.NewLimit(scanNode, 1), 1))), 1e-9)
	assert.InDelta(t, 1.0, float64(EstimatePlan(est, logical.NewLimit(logical.NewSkip(scanNode, 1), 1))), 1e-9)
	assert.InDelta(t, 10000.0, float64(EstimatePlan(est, logical.NewUnwind(scanNode, paths.Get("tags"), false))), 1e-9)
}
