package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/query/ce"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/psr"
)

// PhysicalPlan represents a physical plan node.
type PhysicalPlan interface {
	// Children returns the child plans.
	Children() []PhysicalPlan
	// EstimatedCost returns the estimated cost of this plan.
	EstimatedCost() Cost
	// EstimatedRows returns the estimated output row count.
	EstimatedRows() ce.Cardinality
	// String returns a string representation for explain output.
	String() string
	physicalNode()
}

// basePhysical provides common functionality for physical nodes.
type basePhysical struct {
	children []PhysicalPlan
	cost     Cost
	rows     ce.Cardinality
}

func (p *basePhysical) Children() []PhysicalPlan {
	return p.children
}

func (p *basePhysical) EstimatedCost() Cost {
	return p.cost
}

func (p *basePhysical) EstimatedRows() ce.Cardinality {
	return p.rows
}

func (p *basePhysical) physicalNode() {}

// CollectionScan reads every document of a collection.
type CollectionScan struct {
	basePhysical
	Collection string
	Binding    string
}

func (s *CollectionScan) String() string {
	return fmt.Sprintf("CollectionScan(%s)", s.Collection)
}

// IndexBound is the seek/scan bound for one index key column.
type IndexBound struct {
	Path     paths.Path
	Interval psr.Interval
}

// IndexScan seeks an index over the bounds generated from a requirement
// conjunction.
type IndexScan struct {
	basePhysical
	Collection string
	Index      *catalog.Index
	Bounds     []IndexBound
}

func (s *IndexScan) String() string {
	bounds := make([]string, len(s.Bounds))
	for i, b := range s.Bounds {
		bounds[i] = fmt.Sprintf("%s: %s", b.Path, b.Interval)
	}
	return fmt.Sprintf("IndexScan(%s.%s, %s)", s.Collection, s.Index.Name, strings.Join(bounds, ", "))
}

// FilterExec applies a residual predicate and/or requirement entries that
// the access path did not satisfy.
type FilterExec struct {
	basePhysical
	// Residual is the expression part of the filter; may be nil.
	Residual logical.Expression
	// Entries are requirement atoms evaluated conjunctively against each
	// document; may be empty.
	Entries []psr.Entry
	// Requirements holds a full DNF requirement set when the predicate has
	// branched and a flat entry list cannot express it; nil otherwise.
	Requirements *psr.Requirements
}

func (f *FilterExec) String() string {
	parts := make([]string, 0, len(f.Entries)+2)
	if f.Requirements != nil {
		parts = append(parts, f.Requirements.String())
	}
	for _, e := range f.Entries {
		parts = append(parts, e.String())
	}
	if f.Residual != nil {
		parts = append(parts, f.Residual.String())
	}
	return fmt.Sprintf("Filter(%s)", strings.Join(parts, " ^ "))
}

// Project binds a path's value to a projection name.
type Project struct {
	basePhysical
	Binding string
	Path    paths.Path
}

func (p *Project) String() string {
	return fmt.Sprintf("Project(%s := %s)", p.Binding, p.Path)
}

// Sort orders its input.
type Sort struct {
	basePhysical
	Keys []logical.SortKey
}

func (s *Sort) String() string {
	keys := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("Sort(%s)", strings.Join(keys, ", "))
}

// LimitSkip caps and/or offsets its input. Applied skip-first when both
// are set, mirroring a Skip node directly under a Limit node.
type LimitSkip struct {
	basePhysical
	Limit    int64
	HasLimit bool
	Skip     int64
}

func (l *LimitSkip) String() string {
	switch {
	case l.HasLimit && l.Skip > 0:
		return fmt.Sprintf("LimitSkip(limit=%d, skip=%d)", l.Limit, l.Skip)
	case l.HasLimit:
		return fmt.Sprintf("LimitSkip(limit=%d)", l.Limit)
	default:
		return fmt.Sprintf("LimitSkip(skip=%d)", l.Skip)
	}
}

// Merge concatenates its children (bag union).
type Merge struct {
	basePhysical
}

func (m *Merge) String() string {
	return fmt.Sprintf("Merge(%d branches)", len(m.children))
}

// UnwindExec expands array elements into separate documents.
type UnwindExec struct {
	basePhysical
	Path                       paths.Path
	PreserveNullAndEmptyArrays bool
}

func (u *UnwindExec) String() string {
	return fmt.Sprintf("Unwind(%s)", u.Path)
}

// HashGroup groups by hashing the group paths.
type HashGroup struct {
	basePhysical
	GroupPaths []paths.Path
	Aggregates []logical.Aggregate
}

func (g *HashGroup) String() string {
	groups := make([]string, len(g.GroupPaths))
	for i, p := range g.GroupPaths {
		groups[i] = p.String()
	}
	return fmt.Sprintf("HashGroup(%s)", strings.Join(groups, ", "))
}

// EmptyResult produces zero rows. Emitted when predicate simplification
// proves a plan branch unsatisfiable.
type EmptyResult struct {
	basePhysical
}

func (e *EmptyResult) String() string {
	return "EmptyResult"
}
