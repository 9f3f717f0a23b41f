// Package boolexpr provides a generic boolean expression tree over an
// arbitrary atom payload: conjunctions and disjunctions of atoms, with a
// builder that can optionally deduplicate children and collapse degenerate
// composites. The optimizer instantiates it with partial-schema entries to
// form DNF predicate requirements.
package boolexpr

// Node is a node of a boolean expression tree over payload type T. The
// closed set of implementations is *Atom, *Conjunction and *Disjunction;
// dispatch with a type switch. Trees are treated as immutable once built,
// except that owners may rewrite atom payloads in place through their own
// documented operations.
type Node[T any] interface {
	boolNode()
}

// Atom is a leaf carrying a single payload.
type Atom[T any] struct {
	Expr T
}

func (a *Atom[T]) boolNode() {}

// Conjunction is the AND of its children.
type Conjunction[T any] struct {
	Children []Node[T]
}

func (c *Conjunction[T]) boolNode() {}

// Disjunction is the OR of its children.
type Disjunction[T any] struct {
	Children []Node[T]
}

func (d *Disjunction[T]) boolNode() {}

// MakeAtom wraps a payload in a leaf node.
func MakeAtom[T any](expr T) *Atom[T] {
	return &Atom[T]{Expr: expr}
}

// MakeConjunction builds an AND node without any simplification.
func MakeConjunction[T any](children ...Node[T]) *Conjunction[T] {
	return &Conjunction[T]{Children: children}
}

// MakeDisjunction builds an OR node without any simplification.
func MakeDisjunction[T any](children ...Node[T]) *Disjunction[T] {
	return &Disjunction[T]{Children: children}
}

// Equal reports deep structural equality of two trees, comparing atom
// payloads with eq. Child order is significant; eq always receives the
// first tree's payload as its first argument.
func Equal[T any](a, b Node[T], eq func(x, y T) bool) bool {
	switch an := a.(type) {
	case *Atom[T]:
		bn, ok := b.(*Atom[T])
		return ok && eq(an.Expr, bn.Expr)
	case *Conjunction[T]:
		bn, ok := b.(*Conjunction[T])
		return ok && equalChildren(an.Children, bn.Children, eq)
	case *Disjunction[T]:
		bn, ok := b.(*Disjunction[T])
		return ok && equalChildren(an.Children, bn.Children, eq)
	default:
		return false
	}
}

func equalChildren[T any](a, b []Node[T], eq func(x, y T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i], eq) {
			return false
		}
	}
	return true
}

// CountAtoms returns the number of leaves in the tree.
func CountAtoms[T any](n Node[T]) int {
	count := 0
	VisitAtoms(n, func(*Atom[T]) {
		count++
	})
	return count
}

// VisitAtoms invokes fn on every leaf, left to right.
func VisitAtoms[T any](n Node[T], fn func(*Atom[T])) {
	switch t := n.(type) {
	case *Atom[T]:
		fn(t)
	case *Conjunction[T]:
		for _, c := range t.Children {
			VisitAtoms(c, fn)
		}
	case *Disjunction[T]:
		for _, c := range t.Children {
			VisitAtoms(c, fn)
		}
	}
}
