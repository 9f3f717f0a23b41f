// Package ce implements cardinality estimation for logical plans. An
// Estimator is polymorphic over node kind and dispatches bottom-up:
// children are estimated first and a parent's estimate is a function of
// its own parameters and its children's estimates. Estimates are
// transient - they hold for one pass over one tree shape and must be
// recomputed after any structural change.
//
// Estimation never fails. Degenerate computations are clamped to zero,
// missing statistics fall back to heuristics, and the only possible
// outcome is a usable non-negative number.
package ce

import (
	"math"

	"github.com/dshills/CorvusDB/internal/query/logical"
)

// Cardinality is a non-negative row-count estimate.
type Cardinality float64

// Selectivity estimates the fraction of rows that match a predicate.
type Selectivity float64

// Estimator produces a cardinality estimate for a single node given its
// children's already-computed estimates, in child order.
type Estimator interface {
	EstimateNode(n logical.Node, inputs []Cardinality) Cardinality
}

// EstimatePlan drives an estimator bottom-up over the tree and returns
// the root estimate. Estimates are memoized per node for the duration of
// the single pass and discarded when it ends.
func EstimatePlan(est Estimator, root logical.Node) Cardinality {
	pass := make(map[logical.Node]Cardinality)
	return estimateNode(est, root, pass)
}

func estimateNode(est Estimator, n logical.Node, pass map[logical.Node]Cardinality) Cardinality {
	if c, ok := pass[n]; ok {
		return c
	}
	children := n.Children()
	inputs := make([]Cardinality, len(children))
	for i, child := range children {
		inputs[i] = estimateNode(est, child, pass)
	}
	c := clamp(est.EstimateNode(n, inputs))
	pass[n] = c
	return c
}

// clamp forces an estimate into the usable range: negative, NaN or
// infinite values collapse to zero.
func clamp(c Cardinality) Cardinality {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return c
}

// CombineOp selects how multiple selectivities compose.
type CombineOp int

const (
	// CombineAnd multiplies selectivities, assuming independence.
	CombineAnd CombineOp = iota
	// CombineOr composes by inclusion-exclusion.
	CombineOr
)

// Combine folds multiple selectivities under the given operator.
func Combine(op CombineOp, selectivities ...Selectivity) Selectivity {
	if len(selectivities) == 0 {
		return 1.0
	}
	result := selectivities[0]
	for _, s := range selectivities[1:] {
		switch op {
		case CombineAnd:
			result = result * s
		case CombineOr:
			result = result + s - (result * s)
		}
	}
	return result
}
