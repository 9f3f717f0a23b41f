package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/CorvusDB/internal/query/ce"
	"github.com/dshills/CorvusDB/internal/query/logical"
)

// GroupID identifies a memo group.
type GroupID int

// Group collects logically equivalent expressions together with the
// shared properties every member has: the estimated output cardinality
// and, once implementation has run, the cheapest physical plan found.
type Group struct {
	ID          GroupID
	Logical     logical.Node
	Children    []GroupID
	Cardinality ce.Cardinality

	// Best is the winning physical plan for this group, nil until the
	// implementation phase completes.
	Best PhysicalPlan
}

// Memo stores the search space for one optimization pass. Groups are
// deduplicated by structural fingerprint so shared subtrees are
// estimated and implemented once.
type Memo struct {
	groups  []*Group
	byPrint map[string]GroupID
}

func NewMemo() *Memo {
	return &Memo{byPrint: make(map[string]GroupID)}
}

// Insert memoizes a logical tree bottom-up and returns the root group.
func (m *Memo) Insert(n logical.Node, est ce.Estimator) *Group {
	children := n.Children()
	childIDs := make([]GroupID, len(children))
	childCards := make([]ce.Cardinality, len(children))
	for i, c := range children {
		g := m.Insert(c, est)
		childIDs[i] = g.ID
		childCards[i] = g.Cardinality
	}

	fp := fingerprint(n, childIDs)
	if id, ok := m.byPrint[fp]; ok {
		return m.groups[id]
	}

	g := &Group{
		ID:          GroupID(len(m.groups)),
		Logical:     n,
		Children:    childIDs,
		Cardinality: est.EstimateNode(n, childCards),
	}
	m.groups = append(m.groups, g)
	m.byPrint[fp] = g.ID
	return g
}

// Group returns the group with the given ID.
func (m *Memo) Group(id GroupID) *Group {
	return m.groups[id]
}

// Len returns the number of groups.
func (m *Memo) Len() int {
	return len(m.groups)
}

// fingerprint builds a structural key for a node given its children's
// group IDs. Two nodes with equal fingerprints are the same operator
// with the same parameters over the same input groups.
func fingerprint(n logical.Node, children []GroupID) string {
	var sb strings.Builder
	sb.WriteString(n.String())
	sb.WriteByte('(')
	for i, id := range children {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", id)
	}
	sb.WriteByte(')')
	return sb.String()
}
