package planner

import (
	"github.com/dshills/CorvusDB/internal/query/boolexpr"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/psr"
	"github.com/dshills/CorvusDB/internal/query/value"
)

// ConvertToSargable rewrites Filter-over-Scan patterns into Sargable
// nodes carrying the index-answerable part of the predicate as DNF
// partial schema requirements. Predicate parts that cannot be expressed
// as requirements (NOT, constants, disjunctions with inexpressible
// branches) stay behind as a residual expression on the Sargable node.
// The rest of the tree is rebuilt around the rewritten scans.
func ConvertToSargable(n logical.Node) logical.Node {
	if f, ok := n.(*logical.Filter); ok {
		if scan, ok := f.Children()[0].(*logical.Scan); ok {
			if sargable := convertFilter(scan, f.Predicate); sargable != nil {
				return sargable
			}
			return n
		}
	}

	children := n.Children()
	for i, child := range children {
		children[i] = ConvertToSargable(child)
	}
	return n
}

// convertFilter builds a Sargable node, or nil when nothing in the
// predicate is expressible as a requirement.
func convertFilter(scan *logical.Scan, pred logical.Expression) *logical.Sargable {
	root, residual := convertExpression(scan.Binding, pred)
	if root == nil {
		return nil
	}

	reqs := psr.FromDNF(toDNF(root))
	sargable := logical.NewSargable(scan.Collection, scan.Binding, reqs, residual)

	// Drop conjunctions an empty interval proves always-false; entries
	// that simplify to fully-open contribute nothing and are elided. An
	// overall false result leaves zero disjuncts: the node produces no
	// rows, which the implementation phase turns into an EmptyResult.
	sargable.Requirements.Simplify(func(_ psr.Key, r *psr.Requirement) bool {
		return !r.Interval.IsEmpty()
	})
	return sargable
}

// convertExpression splits a predicate into a requirement tree and a
// residual. Either part may be nil. Negation is never pushed into
// requirement atoms (no-op negator policy): a NOT stays residual in its
// entirety.
func convertExpression(binding string, expr logical.Expression) (psr.Node, logical.Expression) {
	switch e := expr.(type) {
	case *logical.PathCompare:
		entry := psr.Entry{
			Key: psr.MakeKey(binding, e.Path),
			Req: psr.Requirement{Interval: operatorInterval(e.Op, e.Value)},
		}
		return boolexpr.MakeAtom(entry), nil

	case *logical.And:
		b := boolexpr.NewBuilder[psr.Entry](
			boolexpr.SimplifyEmptyOrSingular[psr.Entry](),
			boolexpr.RemoveDuplicates[psr.Entry](psr.EntryEqual),
		)
		var residuals []logical.Expression
		for _, op := range e.Operands {
			node, residual := convertExpression(binding, op)
			if node != nil {
				b.AddNode(node)
			}
			if residual != nil {
				residuals = append(residuals, residual)
			}
		}
		return b.FinishConjunction(), rebuildAnd(residuals)

	case *logical.Or:
		// A disjunction is expressible only when every branch is; a
		// partially-expressible OR would widen the requirement set.
		b := boolexpr.NewBuilder[psr.Entry](
			boolexpr.SimplifyEmptyOrSingular[psr.Entry](),
			boolexpr.RemoveDuplicates[psr.Entry](psr.EntryEqual),
		)
		for _, op := range e.Operands {
			node, residual := convertExpression(binding, op)
			if node == nil || residual != nil {
				return nil, expr
			}
			b.AddNode(node)
		}
		return b.FinishDisjunction(), nil

	default:
		// Not, Constant and anything newer stay residual.
		return nil, expr
	}
}

func rebuildAnd(residuals []logical.Expression) logical.Expression {
	switch len(residuals) {
	case 0:
		return nil
	case 1:
		return residuals[0]
	default:
		return &logical.And{Operands: residuals}
	}
}

// toDNF normalizes a requirement tree into a disjunction of conjunctions
// of atoms, distributing conjunctions over nested disjunctions. Within
// each result conjunction, repeated non-multikey keys are merged by
// interval intersection; repeated multikey keys are kept as independent
// constraints.
func toDNF(n psr.Node) psr.Node {
	conjs := distribute(n)
	disjuncts := make([]psr.Node, len(conjs))
	for i, entries := range conjs {
		merged := mergeConjunction(entries)
		atoms := make([]psr.Node, len(merged))
		for j, e := range merged {
			atoms[j] = boolexpr.MakeAtom(e)
		}
		disjuncts[i] = boolexpr.MakeConjunction(atoms...)
	}
	return boolexpr.MakeDisjunction(disjuncts...)
}

// distribute returns the tree's DNF as a list of entry conjunctions.
func distribute(n psr.Node) [][]psr.Entry {
	switch t := n.(type) {
	case *boolexpr.Atom[psr.Entry]:
		return [][]psr.Entry{{t.Expr}}

	case *boolexpr.Disjunction[psr.Entry]:
		var out [][]psr.Entry
		for _, c := range t.Children {
			out = append(out, distribute(c)...)
		}
		return out

	case *boolexpr.Conjunction[psr.Entry]:
		// Cross product of the children's disjuncts.
		out := [][]psr.Entry{{}}
		for _, c := range t.Children {
			childDisjuncts := distribute(c)
			next := make([][]psr.Entry, 0, len(out)*len(childDisjuncts))
			for _, prefix := range out {
				for _, d := range childDisjuncts {
					combined := make([]psr.Entry, 0, len(prefix)+len(d))
					combined = append(combined, prefix...)
					combined = append(combined, d...)
					next = append(next, combined)
				}
			}
			out = next
		}
		return out

	default:
		return nil
	}
}

// mergeConjunction intersects repeated non-multikey keys into a single
// entry, preserving multikey repetitions.
func mergeConjunction(entries []psr.Entry) []psr.Entry {
	out := make([]psr.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Key.Multikey() {
			out = append(out, e)
			continue
		}
		merged := false
		for i := range out {
			if !out[i].Key.Multikey() && out[i].Key.Equal(e.Key) {
				out[i].Req.Interval = out[i].Req.Interval.Intersect(e.Req.Interval)
				if out[i].Req.BoundProjection == "" {
					out[i].Req.BoundProjection = e.Req.BoundProjection
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, e)
		}
	}
	return out
}

func operatorInterval(op logical.CompareOp, v value.Value) psr.Interval {
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
