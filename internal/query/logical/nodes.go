package logical

import (
	"fmt"
	"strings"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/psr"
)

// Scan produces every document of a collection under a binding name.
type Scan struct {
	baseNode
	Collection string
	// Binding is the name downstream nodes use to refer to the scanned
	// document.
	Binding string
}

func (s *Scan) String() string {
	return fmt.Sprintf("Scan(%s as %s)", s.Collection, s.Binding)
}

// Filter keeps the documents satisfying its predicate.
type Filter struct {
	baseNode
	Predicate Expression
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter(%s)", f.Predicate)
}

// Evaluation binds the value at a path to a new projection name. A pure
// projection: row-count neutral.
type Evaluation struct {
	baseNode
	Binding string
	Path    paths.Path
}

func (e *Evaluation) String() string {
	return fmt.Sprintf("Evaluation(%s := %s)", e.Binding, e.Path)
}

// Union is the bag union of its children; no deduplication at this layer.
type Union struct {
	baseNode
}

func (u *Union) String() string {
	return fmt.Sprintf("Union(%d branches)", len(u.children))
}

// Limit caps the number of documents flowing through.
type Limit struct {
	baseNode
	Count int64
}

func (l *Limit) String() string {
	return fmt.Sprintf("Limit(%d)", l.Count)
}

// Skip discards a prefix of the documents flowing through.
type Skip struct {
	baseNode
	Count int64
}

func (s *Skip) String() string {
	return fmt.Sprintf("Skip(%d)", s.Count)
}

// Unwind replaces each document with one document per element of the
// array at Path.
type Unwind struct {
	baseNode
	Path paths.Path
	// PreserveNullAndEmptyArrays keeps documents whose path is null,
	// missing or an empty array.
	PreserveNullAndEmptyArrays bool
}

func (u *Unwind) String() string {
	return fmt.Sprintf("Unwind(%s)", u.Path)
}

// SortKey is one component of a collation.
type SortKey struct {
	Path  paths.Path
	Order catalog.SortOrder
}

func (k SortKey) String() string {
	return fmt.Sprintf("%s %s", k.Path, k.Order)
}

// Collation sorts its input; row-count neutral.
type Collation struct {
	baseNode
	Keys []SortKey
}

func (c *Collation) String() string {
	keys := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("Collation(%s)", strings.Join(keys, ", "))
}

// AggregateKind identifies a group accumulator.
type AggregateKind int

const (
	AggCount AggregateKind = iota
	AggSum
	AggMin
	AggMax
	AggAvg
)

func (k AggregateKind) String() string {
	switch k {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggAvg:
		return "avg"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Aggregate is one accumulator of a GroupBy.
type Aggregate struct {
	Binding string
	Kind    AggregateKind
	Path    paths.Path
}

func (a Aggregate) String() string {
	return fmt.Sprintf("%s := %s(%s)", a.Binding, a.Kind, a.Path)
}

// GroupBy groups documents by the values at its group paths and computes
// accumulators per group.
type GroupBy struct {
	baseNode
	GroupPaths []paths.Path
	Aggregates []Aggregate
}

func (g *GroupBy) String() string {
	groups := make([]string, len(g.GroupPaths))
	for i, p := range g.GroupPaths {
		groups[i] = p.String()
	}
	aggs := make([]string, len(g.Aggregates))
	for i, a := range g.Aggregates {
		aggs[i] = a.String()
	}
	return fmt.Sprintf("GroupBy(%s; %s)", strings.Join(groups, ", "), strings.Join(aggs, ", "))
}

// Sargable is a scan fused with the index-answerable part of a predicate,
// expressed as partial schema requirements. Produced by predicate
// conversion; the node exclusively owns its requirement set.
type Sargable struct {
	baseNode
	Collection string
	Binding    string
	// Requirements is the DNF requirement set extracted from the
	// predicate.
	Requirements psr.Requirements
	// Residual is the predicate part that could not be turned into
	// requirements, applied after the scan. May be nil.
	Residual Expression
}

func (s *Sargable) String() string {
	if s.Residual != nil {
		return fmt.Sprintf("Sargable(%s, %s, residual=%s)", s.Collection, s.Requirements.String(), s.Residual)
	}
	return fmt.Sprintf("Sargable(%s, %s)", s.Collection, s.Requirements.String())
}

// NewScan creates a new scan node.
func NewScan(collection, binding string) *Scan {
	return &Scan{Collection: collection, Binding: binding}
}

// NewFilter creates a new filter node.
func NewFilter(child Node, predicate Expression) *Filter {
	return &Filter{
		baseNode:  baseNode{children: []Node{child}},
		Predicate: predicate,
	}
}

// NewEvaluation creates a new projection node.
func NewEvaluation(child Node, binding string, path paths.Path) *Evaluation {
	return &Evaluation{
		baseNode: baseNode{children: []Node{child}},
		Binding:  binding,
		Path:     path,
	}
}

// NewUnion creates a new union node over the given branches.
func NewUnion(branches ...Node) *Union {
	return &Union{baseNode: baseNode{children: branches}}
}

// NewLimit creates a new limit node.
func NewLimit(child Node, count int64) *Limit {
	return &Limit{
		baseNode: baseNode{children: []Node{child}},
		Count:    count,
	}
}

// NewSkip creates a new skip node.
func NewSkip(child Node, count int64) *Skip {
	return &Skip{
		baseNode: baseNode{children: []Node{child}},
		Count:    count,
	}
}

// NewUnwind creates a new unwind node.
func NewUnwind(child Node, path paths.Path, preserve bool) *Unwind {
	return &Unwind{
		baseNode:                   baseNode{children: []Node{child}},
		Path:                       path,
		PreserveNullAndEmptyArrays: preserve,
	}
}

// NewCollation creates a new sort node.
func NewCollation(child Node, keys []SortKey) *Collation {
	return &Collation{
		baseNode: baseNode{children: []Node{child}},
		Keys:     keys,
	}
}

// NewGroupBy creates a new grouping node.
func NewGroupBy(child Node, groupPaths []paths.Path, aggregates []Aggregate) *GroupBy {
	return &GroupBy{
		baseNode:   baseNode{children: []Node{child}},
		GroupPaths: groupPaths,
		Aggregates: aggregates,
	}
}

// NewSargable creates a sargable node. It has no children: the scan is
// folded in.
func NewSargable(collection, binding string, reqs psr.Requirements, residual Expression) *Sargable {
	return &Sargable{
		Collection:   collection,
		Binding:      binding,
		Requirements: reqs,
		Residual:     residual,
	}
}
