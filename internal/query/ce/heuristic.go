package ce

import (
	"math"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/query/boolexpr"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/psr"
)

// Tuning constants for estimation without statistics. Empirical, not
// derived; they are policy behind the Estimator interface.
const (
	// averageArrayLength is the assumed element count of an unwound
	// array.
	averageArrayLength = 10.0
	// fallbackCollectionCard is used when the catalog has no row count
	// for a collection.
	fallbackCollectionCard = 1000.0
)

// Heuristic is the statistics-free estimation transport. Filter
// selectivity follows a square-root dampening curve: a predicate on c
// rows is assumed to keep sqrt(c) of them, reflecting diminishing
// confidence without value statistics.
type Heuristic struct {
	cat catalog.Catalog
}

// NewHeuristic creates a heuristic estimator over a catalog snapshot.
func NewHeuristic(cat catalog.Catalog) *Heuristic {
	return &Heuristic{cat: cat}
}

// EstimateNode implements Estimator.
func (h *Heuristic) EstimateNode(n logical.Node, inputs []Cardinality) Cardinality {
	input := Cardinality(0)
	if len(inputs) > 0 {
		input = inputs[0]
	}

	switch t := n.(type) {
	case *logical.Scan:
		return h.collectionCard(t.Collection)

	case *logical.Filter:
		return h.estimatePredicate(input, t.Predicate)

	case *logical.Sargable:
		return h.estimateSargable(t)

	case *logical.Evaluation, *logical.Collation, *logical.GroupBy:
		// Projections and sorts never change row count; grouping is
		// estimated pass-through at this layer.
		return input

	case *logical.Union:
		var sum Cardinality
		for _, c := range inputs {
			sum += c
		}
		return sum

	case *logical.Limit:
		return Cardinality(math.Min(float64(t.Count), float64(input)))

	case *logical.Skip:
		return Cardinality(math.Max(float64(input)-float64(t.Count), 0))

	case *logical.Unwind:
		return input * averageArrayLength

	default:
		return input
	}
}

func (h *Heuristic) collectionCard(name string) Cardinality {
	coll, err := h.cat.GetCollection(name)
	if err != nil || coll.Stats.DocCount <= 0 {
		return fallbackCollectionCard
	}
	return Cardinality(coll.Stats.DocCount)
}

// estimatePredicate applies a predicate's selectivity to the input
// cardinality. ANDed operands apply sequentially, each against the
// running reduced cardinality.
func (h *Heuristic) estimatePredicate(input Cardinality, expr logical.Expression) Cardinality {
	switch e := expr.(type) {
	case *logical.PathCompare:
		return input * Cardinality(sqrtSelectivity(input))

	case *logical.And:
		c := input
		for _, op := range e.Operands {
			c = h.estimatePredicate(c, op)
		}
		return c

	case *logical.Or:
		if input <= 0 {
			return 0
		}
		sels := make([]Selectivity, len(e.Operands))
		for i, op := range e.Operands {
			sels[i] = Selectivity(h.estimatePredicate(input, op) / input)
		}
		return input * Cardinality(Combine(CombineOr, sels...))

	case *logical.Not:
		return input - h.estimatePredicate(input, e.Operand)

	case *logical.Constant:
		if e.Value {
			return input
		}
		return 0

	default:
		return input * Cardinality(sqrtSelectivity(input))
	}
}

// estimateSargable treats each disjunct as a conjunction of interval
// constraints applied sequentially, then combines disjuncts by
// inclusion-exclusion. Fully-open entries (pure projection bindings)
// contribute no selectivity.
func (h *Heuristic) estimateSargable(s *logical.Sargable) Cardinality {
	input := h.collectionCard(s.Collection)
	c := h.estimateRequirements(input, &s.Requirements)
	if s.Residual != nil {
		c = h.estimatePredicate(c, s.Residual)
	}
	return c
}

func (h *Heuristic) estimateRequirements(input Cardinality, reqs *psr.Requirements) Cardinality {
	if reqs.NumDisjuncts() == 0 {
		// Simplification proved the requirements unsatisfiable.
		return 0
	}
	if input <= 0 {
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
			c = c * Cardinality(sqrtSelectivity(c))
		}
		sels = append(sels, Selectivity(c/input))
	}
	return input * Cardinality(Combine(CombineOr, sels...))
}

// sqrtSelectivity is the dampening curve: sqrt(c)/c, so a predicate on c
// rows keeps about sqrt(c) of them.
func sqrtSelectivity(c Cardinality) Selectivity {
	f := float64(c)
	if f <= 1 {
		return 1
	}
	return Selectivity(math.Sqrt(f) / f)
}
