// Package psr implements partial schema requirements: the DNF-shaped
// collection of (path key, interval requirement) pairs the optimizer
// extracts from filter predicates and projections. It cannot represent
// every predicate - only those that can typically be answered with an
// index.
//
// A requirement set is a disjunction of conjunctions of atoms. Within one
// conjunction a key whose path has no array traversal may appear at most
// once; keys with traversals (multikey paths) may repeat, since each
// occurrence constrains an independent array element. Conjunction entries
// are kept sorted by key so structurally-equal requirement sets compare
// equal.
package psr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/CorvusDB/internal/errors"
	"github.com/dshills/CorvusDB/internal/query/boolexpr"
	"github.com/dshills/CorvusDB/internal/query/paths"
)

// Key identifies a field path reachable from a scan binding.
type Key struct {
	// Source is the binding the path is evaluated against, normally the
	// scan's document binding.
	Source string
	// Path is the field path, possibly with array traversals.
	Path paths.Path
}

// MakeKey builds a key over the given binding and path.
func MakeKey(source string, p paths.Path) Key {
	return Key{Source: source, Path: p}
}

// Multikey reports whether the key's path contains an array traversal.
func (k Key) Multikey() bool {
	return k.Path.IsMultikey()
}

// Equal reports key equality.
func (k Key) Equal(other Key) bool {
	return k.Source == other.Source && k.Path.Equal(other.Path)
}

// Compare orders keys by source binding, then by path.
func (k Key) Compare(other Key) int {
	switch {
	case k.Source < other.Source:
		return -1
	case k.Source > other.Source:
		return 1
	}
	return k.Path.Compare(other.Path)
}

func (k Key) String() string {
	if k.Source == "" {
		return k.Path.String()
	}
	return k.Source + "." + k.Path.String()
}

// Requirement is an interval restriction on a key's value, plus an
// optional output binding for that value.
type Requirement struct {
	Interval Interval
	// BoundProjection, when non-empty, names the binding the path's value
	// is made available under downstream.
	BoundProjection string
}

// FullOpenRequirement is the requirement that admits everything and binds
// nothing.
func FullOpenRequirement() Requirement {
	return Requirement{Interval: FullOpenInterval()}
}

// FullyOpen reports whether the requirement carries no information: a
// fully-open interval and no binding.
func (r Requirement) FullyOpen() bool {
	return r.Interval.FullyOpen() && r.BoundProjection == ""
}

// Equal reports requirement equality.
func (r Requirement) Equal(other Requirement) bool {
	return r.BoundProjection == other.BoundProjection && r.Interval.Equal(other.Interval)
}

func (r Requirement) String() string {
	if r.BoundProjection != "" {
		return fmt.Sprintf("%s =%s", r.Interval, r.BoundProjection)
	}
	return r.Interval.String()
}

// Entry is one (key, requirement) atom.
type Entry struct {
	Key Key
	Req Requirement
}

// EntryEqual is the payload equality used by boolexpr instantiations over
// entries.
func EntryEqual(a, b Entry) bool {
	return a.Key.Equal(b.Key) && a.Req.Equal(b.Req)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Req)
}

// Node is a boolean expression tree over entries.
type Node = boolexpr.Node[Entry]

// Requirements is a predicate/projection requirement set, always held in
// DNF: a disjunction of conjunctions of entry atoms. It is exclusively
// owned by the plan node carrying it.
//
// The default value is a single conjunction holding one fully-open unbound
// entry: always true, binds nothing.
type Requirements struct {
	root Node
}

// New returns the default requirement set.
func New() Requirements {
	return FromEntries([]Entry{{Key: Key{}, Req: FullOpenRequirement()}})
}

// FromEntries builds a singleton-disjunction requirement set conjoining
// the given entries, in canonical order.
func FromEntries(entries []Entry) Requirements {
	b := boolexpr.NewBuilder[Entry]()
	for _, e := range entries {
		b.AddAtom(e)
	}
	conj := b.FinishConjunction()
	r := Requirements{root: boolexpr.MakeDisjunction[Entry](conj)}
	r.Normalize()
	return r
}

// FromDNF wraps an already-built DNF tree. Panics with an internal error
// if the tree is not a disjunction of conjunctions of atoms.
func FromDNF(root Node) Requirements {
	disj, ok := root.(*boolexpr.Disjunction[Entry])
	if !ok {
		panic(errors.Internalf("partial schema requirements must be a disjunction, got %T", root))
	}
	for _, child := range disj.Children {
		conj, ok := child.(*boolexpr.Conjunction[Entry])
		if !ok {
			panic(errors.Internalf("partial schema disjunct must be a conjunction, got %T", child))
		}
		for _, atom := range conj.Children {
			if _, ok := atom.(*boolexpr.Atom[Entry]); !ok {
				panic(errors.Internalf("partial schema conjunct must be an atom, got %T", atom))
			}
		}
	}
	r := Requirements{root: root}
	r.Normalize()
	return r
}

// Root returns the underlying DNF tree.
func (r *Requirements) Root() Node {
	return r.root
}

func (r *Requirements) disjuncts() []*boolexpr.Conjunction[Entry] {
	disj := r.root.(*boolexpr.Disjunction[Entry])
	out := make([]*boolexpr.Conjunction[Entry], len(disj.Children))
	for i, c := range disj.Children {
		out[i] = c.(*boolexpr.Conjunction[Entry])
	}
	return out
}

// assertSingletonDisjunction fires on requirement sets whose DNF has
// branched: the singleton-shape accessors do not support them.
func (r *Requirements) assertSingletonDisjunction() *boolexpr.Conjunction[Entry] {
	disj := r.root.(*boolexpr.Disjunction[Entry])
	if len(disj.Children) != 1 {
		panic(errors.Internalf("requirement set has %d disjuncts, expected a singleton disjunction",
			len(disj.Children)))
	}
	return disj.Children[0].(*boolexpr.Conjunction[Entry])
}

// IsNoop reports whether the requirement set is always true and binds
// nothing: a single conjunction with zero atoms, or with one fully-open
// unbound atom.
func (r *Requirements) IsNoop() bool {
	disj := r.root.(*boolexpr.Disjunction[Entry])
	if len(disj.Children) != 1 {
		return false
	}
	conj := disj.Children[0].(*boolexpr.Conjunction[Entry])
	switch len(conj.Children) {
	case 0:
		return true
	case 1:
		atom := conj.Children[0].(*boolexpr.Atom[Entry])
		return atom.Expr.Req.FullyOpen()
	default:
		return false
	}
}

// NumLeaves returns the total entry count across all disjuncts.
func (r *Requirements) NumLeaves() int {
	return boolexpr.CountAtoms[Entry](r.root)
}

// NumDisjuncts returns the number of top-level disjuncts.
func (r *Requirements) NumDisjuncts() int {
	return len(r.root.(*boolexpr.Disjunction[Entry]).Children)
}

// Conjuncts returns a read-only view of the entries of the only
// conjunction. Panics with an internal error if the DNF has branched;
// callers invoke this only after confirming the singleton shape.
func (r *Requirements) Conjuncts() []Entry {
	conj := r.assertSingletonDisjunction()
	out := make([]Entry, len(conj.Children))
	for i, c := range conj.Children {
		out[i] = c.(*boolexpr.Atom[Entry]).Expr
	}
	return out
}

// FindProjection returns the bound projection name of the first conjunct
// matching the key. Panics on a branched DNF.
func (r *Requirements) FindProjection(key Key) (string, bool) {
	if _, req, ok := r.FindFirstConjunct(key); ok && req.BoundProjection != "" {
		return req.BoundProjection, true
	}
	return "", false
}

// FindFirstConjunct returns the index and requirement of the first
// conjunct matching the key. Panics on a branched DNF.
func (r *Requirements) FindFirstConjunct(key Key) (int, Requirement, bool) {
	conj := r.assertSingletonDisjunction()
	for i, c := range conj.Children {
		entry := c.(*boolexpr.Atom[Entry]).Expr
		if entry.Key.Equal(key) {
			return i, entry.Req, true
		}
	}
	return 0, Requirement{}, false
}

// Add appends an entry to the first conjunction under the top disjunction
// and restores canonical order. Panics on a branched DNF, and on a
// duplicate non-multikey key: several constraints on the same plain path
// must be intersected by the caller, not accumulated.
func (r *Requirements) Add(key Key, req Requirement) {
	conj := r.assertSingletonDisjunction()
	if !key.Multikey() {
		for _, c := range conj.Children {
			if c.(*boolexpr.Atom[Entry]).Expr.Key.Equal(key) {
				panic(errors.Internalf("duplicate non-multikey key %s in requirement conjunction", key))
			}
		}
	}
	conj.Children = append(conj.Children, boolexpr.MakeAtom(Entry{Key: key, Req: req}))
	r.Normalize()
}

// Simplify applies fn to every entry in every conjunction. The callback
// may rewrite the requirement in place; returning false marks the entry's
// conjunction always-false, which drops the conjunction from the
// disjunction. Entries that end up fully open and unbound are elided.
//
// Returns false iff every disjunct was eliminated: the requirement set is
// unsatisfiable and the plan branch it guards yields zero rows. That is a
// normal outcome, not an error.
func (r *Requirements) Simplify(fn func(Key, *Requirement) bool) bool {
	disj := r.root.(*boolexpr.Disjunction[Entry])
	kept := disj.Children[:0]

	for _, child := range disj.Children {
		conj := child.(*boolexpr.Conjunction[Entry])
		alwaysFalse := false
		entries := conj.Children[:0]

		for _, c := range conj.Children {
			atom := c.(*boolexpr.Atom[Entry])
			if !fn(atom.Expr.Key, &atom.Expr.Req) {
				alwaysFalse = true
				break
			}
			if atom.Expr.Req.FullyOpen() {
				continue // trivially true, contributes nothing
			}
			entries = append(entries, c)
		}
		if alwaysFalse {
			continue
		}
		conj.Children = entries
		kept = append(kept, conj)
	}

	disj.Children = kept
	return len(disj.Children) > 0
}

// Normalize restores the invariant that each conjunction's entries are
// sorted by key. The sort is stable, so repeated multikey entries keep
// their relative order.
func (r *Requirements) Normalize() {
	for _, conj := range r.disjuncts() {
		sort.SliceStable(conj.Children, func(i, j int) bool {
			a := conj.Children[i].(*boolexpr.Atom[Entry]).Expr.Key
			b := conj.Children[j].(*boolexpr.Atom[Entry]).Expr.Key
			return a.Compare(b) < 0
		})
	}
}

// Equal reports structural equality of two requirement sets.
func (r *Requirements) Equal(other *Requirements) bool {
	return boolexpr.Equal(r.root, other.root, EntryEqual)
}

// String renders the requirement set for plan output.
func (r *Requirements) String() string {
	disjuncts := r.disjuncts()
	parts := make([]string, len(disjuncts))
	for i, conj := range disjuncts {
		entries := make([]string, len(conj.Children))
		for j, c := range conj.Children {
			entries[j] = c.(*boolexpr.Atom[Entry]).Expr.String()
		}
		parts[i] = "{" + strings.Join(entries, " ^ ") + "}"
	}
	return strings.Join(parts, " v ")
}
