package ce

import (
	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/feature"
	"github.com/dshills/CorvusDB/internal/query/boolexpr"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/psr"
	"github.com/dshills/CorvusDB/internal/query/value"
)

// Default selectivities when a path has partial statistics: a distinct
// count but no histogram, or a histogram bucket without interpolatable
// bounds.
const (
	defaultEqualitySelectivity = 0.1
	defaultRangeSelectivity    = 0.3
	partialBucketFraction      = 0.5
)

// Histogram is the statistics-backed estimation transport. Where the
// catalog holds a value-distribution histogram for a constrained path it
// computes selectivity from the buckets; paths without statistics fall
// back to the heuristic curve. Node kinds without statistics-specific
// rules delegate entirely to the heuristic transport.
type Histogram struct {
	cat       catalog.Catalog
	heuristic *Heuristic
}

// NewHistogram creates a histogram estimator over a catalog snapshot.
func NewHistogram(cat catalog.Catalog) *Histogram {
	return &Histogram{cat: cat, heuristic: NewHeuristic(cat)}
}

// EstimateNode implements Estimator.
func (h *Histogram) EstimateNode(n logical.Node, inputs []Cardinality) Cardinality {
	switch t := n.(type) {
	case *logical.Sargable:
		return h.estimateSargable(t)

	case *logical.Filter:
		// A filter directly above a scan still knows its collection, so
		// statistics apply; anywhere deeper the binding is opaque and
		// the heuristic curve takes over.
		if len(t.Children()) == 1 {
			if scan, ok := t.Children()[0].(*logical.Scan); ok {
				input := inputs[0]
				return h.estimatePredicate(scan.Collection, input, t.Predicate)
			}
		}
		return h.heuristic.EstimateNode(n, inputs)

	default:
		return h.heuristic.EstimateNode(n, inputs)
	}
}

func (h *Histogram) estimateSargable(s *logical.Sargable) Cardinality {
	input := h.heuristic.collectionCard(s.Collection)
	reqs := &s.Requirements
	if reqs.NumDisjuncts() == 0 || input <= 0 {
		return 0
	}

	disj := reqs.Root().(*boolexpr.Disjunction[psr.Entry])
	sels := make([]Selectivity, 0, len(disj.Children))
	for _, child := range disj.Children {
		conj := child.(*boolexpr.Conjunction[psr.Entry])
		c := input
		for _, a := range conj.Children {
			entry := a.(*boolexpr.Atom[psr.Entry]).Expr
			if entry.Req.Interval.FullyOpen() {
				continue
			}
			if entry.Req.Interval.IsEmpty() {
				c = 0
				break
			}
			c = c * Cardinality(h.intervalSelectivity(s.Collection, entry.Key.Path, entry.Req.Interval, c))
		}
		sels = append(sels, Selectivity(c/input))
	}
	c := input * Cardinality(Combine(CombineOr, sels...))
	if s.Residual != nil {
		c = h.heuristic.estimatePredicate(c, s.Residual)
	}
	return c
}

func (h *Histogram) estimatePredicate(collection string, input Cardinality, expr logical.Expression) Cardinality {
	switch e := expr.(type) {
	case *logical.PathCompare:
		iv := compareInterval(e.Op, e.Value)
		return input * Cardinality(h.intervalSelectivity(collection, e.Path, iv, input))

	case *logical.And:
		c := input
		for _, op := range e.Operands {
			c = h.estimatePredicate(collection, c, op)
		}
		return c

	case *logical.Or:
		if input <= 0 {
			return 0
		}
		sels := make([]Selectivity, len(e.Operands))
		for i, op := range e.Operands {
			sels[i] = Selectivity(h.estimatePredicate(collection, input, op) / input)
		}
		return input * Cardinality(Combine(CombineOr, sels...))

	case *logical.Not:
		return input - h.estimatePredicate(collection, input, e.Operand)

	default:
		return h.heuristic.estimatePredicate(input, expr)
	}
}

// intervalSelectivity estimates the fraction of values at a path falling
// into the interval, from the path's statistics when present, otherwise
// from the heuristic curve on the running cardinality.
func (h *Histogram) intervalSelectivity(collection string, p paths.Path, iv psr.Interval, running Cardinality) Selectivity {
	if !feature.IsEnabled(feature.HistogramEstimation) {
		return sqrtSelectivity(running)
	}
	stats, err := h.cat.GetPathStats(collection, p)
	if err != nil || stats == nil {
		return sqrtSelectivity(running)
	}

	if iv.IsEquality() {
		return equalitySelectivity(stats, iv.Low.Value())
	}
	return rangeSelectivity(stats, iv)
}

func equalitySelectivity(stats *catalog.PathStats, v value.Value) Selectivity {
	if hist := stats.Histogram; hist != nil {
		total := hist.TotalFrequency()
		if total > 0 {
			for _, b := range hist.Buckets {
				if bucketContains(b, v) {
					if b.DistinctCount > 0 {
						return clampSel(Selectivity(float64(b.Frequency) / float64(b.DistinctCount) / float64(total)))
					}
					return clampSel(Selectivity(float64(b.Frequency) / float64(total)))
				}
			}
			// Value outside every bucket: nothing matches.
			return 0
		}
	}
	if stats.DistinctCount > 0 {
		return clampSel(Selectivity(1.0 / float64(stats.DistinctCount)))
	}
	return defaultEqualitySelectivity
}

func rangeSelectivity(stats *catalog.PathStats, iv psr.Interval) Selectivity {
	hist := stats.Histogram
	if hist == nil {
		return defaultRangeSelectivity
	}
	total := hist.TotalFrequency()
	if total <= 0 {
		return defaultRangeSelectivity
	}

	var matched float64
	for _, b := range hist.Buckets {
		matched += bucketOverlap(b, iv)
	}
	return clampSel(Selectivity(matched / float64(total)))
}

// bucketOverlap estimates how many of a bucket's values fall inside the
// interval: the full frequency for contained buckets, a linear
// interpolation for numeric partial overlaps, and a fixed fraction where
// interpolation is impossible.
func bucketOverlap(b catalog.HistogramBucket, iv psr.Interval) float64 {
	bucket := psr.Interval{Low: psr.Inclusive(b.LowerBound), High: psr.Inclusive(b.UpperBound)}
	overlap := bucket.Intersect(iv)
	if overlap.IsEmpty() {
		return 0
	}
	if overlap.Equal(bucket) {
		return float64(b.Frequency)
	}

	lo, hi := b.LowerBound, b.UpperBound
	if isNumeric(lo) && isNumeric(hi) && hi.AsFloat() > lo.AsFloat() {
		span := hi.AsFloat() - lo.AsFloat()
		oLo, oHi := overlap.Low, overlap.High
		if !oLo.IsInfinite() && !oHi.IsInfinite() && isNumeric(oLo.Value()) && isNumeric(oHi.Value()) {
			frac := (oHi.Value().AsFloat() - oLo.Value().AsFloat()) / span
			if frac < 0 {
				frac = 0
			}
			if frac > 1 {
				frac = 1
			}
			return float64(b.Frequency) * frac
		}
	}
	return float64(b.Frequency) * partialBucketFraction
}

func bucketContains(b catalog.HistogramBucket, v value.Value) bool {
	return b.LowerBound.Compare(v) <= 0 && b.UpperBound.Compare(v) >= 0
}

func isNumeric(v value.Value) bool {
	return v.Kind() == value.KindInt || v.Kind() == value.KindFloat
}

func clampSel(s Selectivity) Selectivity {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// compareInterval converts a comparison predicate into its interval form.
func compareInterval(op logical.CompareOp, v value.Value) psr.Interval {
	switch op {
	case logical.OpEq:
		return psr.EqualityInterval(v)
	case logical.OpLt:
		return psr.Interval{Low: psr.NegInfinity(), High: psr.Exclusive(v)}
	case logical.OpLte:
		return psr.Interval{Low: psr.NegInfinity(), High: psr.Inclusive(v)}
	case logical.OpGt:
		return psr.Interval{Low: psr.Exclusive(v), High: psr.PosInfinity()}
	case logical.OpGte:
		return psr.Interval{Low: psr.Inclusive(v), High: psr.PosInfinity()}
	default:
		return psr.FullOpenInterval()
	}
}
