package planner

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/errors"
	"github.com/dshills/CorvusDB/internal/feature"
	"github.com/dshills/CorvusDB/internal/log"
	"github.com/dshills/CorvusDB/internal/query/ce"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/psr"
)

// Optimizer turns logical plans into physical plans: sargable rewrite,
// memoization with cardinality estimates, then bottom-up implementation
// choosing the cheapest alternative per group.
type Optimizer struct {
	catalog   catalog.Catalog
	estimator ce.Estimator
	cost      *costModel
	logger    log.Logger
}

// NewOptimizer creates an optimizer with the given estimator and
// default cost parameters.
func NewOptimizer(cat catalog.Catalog, est ce.Estimator) *Optimizer {
	return &Optimizer{
		catalog:   cat,
		estimator: est,
		cost:      newCostModel(DefaultCostParams()),
		logger:    log.Default(),
	}
}

// WithCostParams overrides the cost parameters.
func (o *Optimizer) WithCostParams(params *CostParams) *Optimizer {
	o.cost = newCostModel(params)
	return o
}

// WithLogger overrides the logger.
func (o *Optimizer) WithLogger(l log.Logger) *Optimizer {
	o.logger = l
	return o
}

// Optimize produces the cheapest physical plan for the logical tree.
// Internal invariant violations raised during the pass surface as
// errors rather than crashing the caller.
func (o *Optimizer) Optimize(plan logical.Node) (result PhysicalPlan, err error) {
	passID := uuid.New().String()
	logger := o.logger.With("pass_id", passID)

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*errors.Error); ok {
				logger.Error("optimization pass failed", "error", e.Message)
				result, err = nil, e
				return
			}
			panic(r)
		}
	}()

	logger.Debug("starting optimization pass", "plan", plan.String())

	rewritten := plan
	if feature.IsEnabled(feature.SargableRewrite) {
		rewritten = ConvertToSargable(plan)
	}

	memo := NewMemo()
	root := memo.Insert(rewritten, o.estimator)
	logger.Debug("memo built", "groups", memo.Len())

	best := o.implement(memo, root)
	logger.Debug("optimization pass complete",
		"cost", best.EstimatedCost().TotalCost,
		"rows", float64(best.EstimatedRows()))
	return best, nil
}

// implement finds the cheapest physical plan for a group, memoizing the
// winner on the group itself.
func (o *Optimizer) implement(memo *Memo, g *Group) PhysicalPlan {
	if g.Best != nil {
		return g.Best
	}

	children := make([]PhysicalPlan, len(g.Children))
	for i, id := range g.Children {
		children[i] = o.implement(memo, memo.Group(id))
	}

	alternatives := o.alternatives(g, children)
	if len(alternatives) == 0 {
		panic(errors.Unsupportedf("no implementation for %s", g.Logical.String()))
	}

	best := alternatives[0]
	for _, alt := range alternatives[1:] {
		if alt.EstimatedCost().TotalCost < best.EstimatedCost().TotalCost {
			best = alt
		}
	}
	g.Best = best
	return best
}

// alternatives enumerates the physical implementations of one logical
// operator over already-implemented children.
func (o *Optimizer) alternatives(g *Group, children []PhysicalPlan) []PhysicalPlan {
	rows := g.Cardinality

	switch n := g.Logical.(type) {
	case *logical.Scan:
		return []PhysicalPlan{o.collectionScan(n.Collection, n.Binding, rows)}

	case *logical.Sargable:
		return o.implementSargable(n, rows)

	case *logical.Filter:
		return []PhysicalPlan{o.filterExec(children[0], n.Predicate, nil, rows)}

	case *logical.Evaluation:
		child := children[0]
		return []PhysicalPlan{&Project{
			basePhysical: basePhysical{
				children: children,
				cost:     child.EstimatedCost().Add(o.cost.projectCost(rows)),
				rows:     rows,
			},
			Binding: n.Binding,
			Path:    n.Path,
		}}

	case *logical.Collation:
		return o.implementCollation(n, children[0], rows)

	case *logical.Limit:
		return []PhysicalPlan{o.limitSkip(children[0], n.Count, true, 0, rows)}

	case *logical.Skip:
		return []PhysicalPlan{o.limitSkip(children[0], 0, false, n.Count, rows)}

	case *logical.Union:
		cost := o.cost.mergeCost(rows)
		for _, c := range children {
			cost = cost.Add(c.EstimatedCost())
		}
		return []PhysicalPlan{&Merge{
			basePhysical: basePhysical{children: children, cost: cost, rows: rows},
		}}

	case *logical.Unwind:
		child := children[0]
		return []PhysicalPlan{&UnwindExec{
			basePhysical: basePhysical{
				children: children,
				cost:     child.EstimatedCost().Add(o.cost.unwindCost(rows)),
				rows:     rows,
			},
			Path:                       n.Path,
			PreserveNullAndEmptyArrays: n.PreserveNullAndEmptyArrays,
		}}

	case *logical.GroupBy:
		child := children[0]
		return []PhysicalPlan{&HashGroup{
			basePhysical: basePhysical{
				children: children,
				cost:     child.EstimatedCost().Add(o.cost.groupCost(child.EstimatedRows())),
				rows:     rows,
			},
			GroupPaths: n.GroupPaths,
			Aggregates: n.Aggregates,
		}}

	default:
		return nil
	}
}

func (o *Optimizer) collectionScan(collection, binding string, rows ce.Cardinality) *CollectionScan {
	docs := o.collectionDocs(collection)
	return &CollectionScan{
		basePhysical: basePhysical{
			cost: o.cost.collectionScanCost(ce.Cardinality(docs)),
			rows: rows,
		},
		Collection: collection,
		Binding:    binding,
	}
}

func (o *Optimizer) collectionDocs(collection string) float64 {
	coll, err := o.catalog.GetCollection(collection)
	if err != nil || coll.Stats.DocCount <= 0 {
		return fallbackDocCount
	}
	return float64(coll.Stats.DocCount)
}

const fallbackDocCount = 1000.0

// implementSargable enumerates a full-scan-plus-filter baseline and one
// index scan per applicable index. Index matching is attempted only for
// a single-conjunction requirement set; a genuine disjunction falls back
// to the scan baseline.
func (o *Optimizer) implementSargable(n *logical.Sargable, rows ce.Cardinality) []PhysicalPlan {
	if n.Requirements.NumDisjuncts() == 0 {
		// The predicate was proven unsatisfiable during simplification.
		return []PhysicalPlan{&EmptyResult{}}
	}

	var alts []PhysicalPlan

	scan := o.collectionScan(n.Collection, n.Binding, ce.Cardinality(o.collectionDocs(n.Collection)))
	alts = append(alts, o.residualFilter(scan, n, allEntries(&n.Requirements), rows))

	if n.Requirements.NumDisjuncts() != 1 || !feature.IsEnabled(feature.IndexScans) {
		return alts
	}

	indexes, err := o.catalog.ListIndexes(n.Collection)
	if err != nil {
		return alts
	}
	conjuncts := n.Requirements.Conjuncts()
	for _, idx := range indexes {
		if plan := o.tryIndexScan(n, idx, conjuncts, rows); plan != nil {
			alts = append(alts, plan)
		}
	}
	return alts
}

// tryIndexScan matches requirement entries against an index key pattern:
// an equality prefix followed by at most one range component. Entries
// the index cannot answer and the node's residual expression run as a
// filter above the scan. Returns nil when the index covers nothing.
func (o *Optimizer) tryIndexScan(n *logical.Sargable, idx *catalog.Index, conjuncts []psr.Entry, rows ce.Cardinality) PhysicalPlan {
	var bounds []IndexBound
	remaining := append([]psr.Entry(nil), conjuncts...)

	for _, key := range idx.KeyPattern {
		i := findEntry(remaining, n.Binding, key.Path.String())
		if i < 0 {
			break
		}
		e := remaining[i]
		if e.Req.Interval.FullyOpen() {
			break
		}
		bounds = append(bounds, IndexBound{Path: key.Path, Interval: e.Req.Interval})
		remaining = append(remaining[:i], remaining[i+1:]...)
		if !e.Req.Interval.IsEquality() {
			// Only the last bound may be a range.
			break
		}
	}
	if len(bounds) == 0 {
		return nil
	}

	docs := o.collectionDocs(n.Collection)
	matching := float64(rows)
	if math.IsNaN(matching) || matching > docs {
		matching = docs
	}

	scan := &IndexScan{
		basePhysical: basePhysical{
			cost: o.cost.indexScanCost(ce.Cardinality(docs), ce.Cardinality(matching), idx),
			rows: rows,
		},
		Collection: n.Collection,
		Index:      idx,
		Bounds:     bounds,
	}
	return o.residualFilter(scan, n, remaining, rows)
}

// residualFilter wraps a scan with the filter applying the given
// requirement entries plus the node's residual expression, or returns
// the scan unchanged when there is nothing left to apply. A requirement
// set with more than one disjunct cannot flatten into entries and is
// carried whole.
func (o *Optimizer) residualFilter(scan PhysicalPlan, n *logical.Sargable, entries []psr.Entry, rows ce.Cardinality) PhysicalPlan {
	entries = boundOnly(entries)
	var reqs *psr.Requirements
	terms := len(entries)
	if n.Requirements.NumDisjuncts() > 1 {
		reqs = &n.Requirements
		terms += n.Requirements.NumLeaves()
	}
	if n.Residual != nil {
		terms++
	}
	if terms == 0 {
		return withRows(scan, rows)
	}
	return &FilterExec{
		basePhysical: basePhysical{
			children: []PhysicalPlan{scan},
			cost:     scan.EstimatedCost().Add(o.cost.filterCost(scan.EstimatedRows(), terms)),
			rows:     rows,
		},
		Residual:     n.Residual,
		Entries:      entries,
		Requirements: reqs,
	}
}

func (o *Optimizer) filterExec(child PhysicalPlan, residual logical.Expression, entries []psr.Entry, rows ce.Cardinality) *FilterExec {
	terms := len(entries)
	if residual != nil {
		terms++
	}
	return &FilterExec{
		basePhysical: basePhysical{
			children: []PhysicalPlan{child},
			cost:     child.EstimatedCost().Add(o.cost.filterCost(child.EstimatedRows(), terms)),
			rows:     rows,
		},
		Residual: residual,
		Entries:  entries,
	}
}

func (o *Optimizer) limitSkip(child PhysicalPlan, limit int64, hasLimit bool, skip int64, rows ce.Cardinality) *LimitSkip {
	return &LimitSkip{
		basePhysical: basePhysical{
			children: []PhysicalPlan{child},
			cost:     child.EstimatedCost().Add(o.cost.limitSkipCost(rows)),
			rows:     rows,
		},
		Limit:    limit,
		HasLimit: hasLimit,
		Skip:     skip,
	}
}

// implementCollation produces an explicit sort, or elides it when the
// child is an index scan whose bound order already satisfies the keys.
func (o *Optimizer) implementCollation(n *logical.Collation, child PhysicalPlan, rows ce.Cardinality) []PhysicalPlan {
	if feature.IsEnabled(feature.SortElision) && indexSatisfiesOrder(child, n.Keys) {
		return []PhysicalPlan{withRows(child, rows)}
	}
	return []PhysicalPlan{&Sort{
		basePhysical: basePhysical{
			children: []PhysicalPlan{child},
			cost:     child.EstimatedCost().Add(o.cost.sortCost(child.EstimatedRows())),
			rows:     rows,
		},
		Keys: n.Keys,
	}}
}

// indexSatisfiesOrder reports whether the plan is an index scan (or a
// filter directly above one) whose index key pattern starts with the
// requested sort keys in the requested directions.
func indexSatisfiesOrder(p PhysicalPlan, keys []logical.SortKey) bool {
	if f, ok := p.(*FilterExec); ok {
		return indexSatisfiesOrder(f.Children()[0], keys)
	}
	scan, ok := p.(*IndexScan)
	if !ok {
		return false
	}
	if len(keys) > len(scan.Bounds) {
		return false
	}
	for i, k := range keys {
		if !scan.Bounds[i].Path.Equal(k.Path) {
			return false
		}
		if k.Order != catalog.Ascending {
			return false
		}
	}
	return true
}

// withRows copies a plan's identity with an updated row estimate. Used
// when a group adopts a child plan wholesale (sort elision, no-op
// filter).
func withRows(p PhysicalPlan, rows ce.Cardinality) PhysicalPlan {
	switch t := p.(type) {
	case *CollectionScan:
		cp := *t
		cp.rows = rows
		return &cp
	case *IndexScan:
		cp := *t
		cp.rows = rows
		return &cp
	case *FilterExec:
		cp := *t
		cp.rows = rows
		return &cp
	default:
		return p
	}
}

// allEntries flattens the singleton conjunction's entries, or for a
// multi-disjunct set returns nil so the whole predicate runs through
// the residual path.
func allEntries(r *psr.Requirements) []psr.Entry {
	if r.NumDisjuncts() != 1 {
		return nil
	}
	return r.Conjuncts()
}

// boundOnly drops fully-open entries, which constrain nothing.
func boundOnly(entries []psr.Entry) []psr.Entry {
	out := make([]psr.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Req.FullyOpen() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key.Compare(out[j].Key) < 0
	})
	return out
}

func findEntry(entries []psr.Entry, binding, path string) int {
	for i, e := range entries {
		if e.Key.Source == binding && e.Key.Path.String() == path {
			return i
		}
	}
	return -1
}
