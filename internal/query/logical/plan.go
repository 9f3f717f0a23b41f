// Package logical defines the logical plan tree the optimizer consumes:
// the node vocabulary produced by the pipeline translator, plus the
// predicate expressions carried by filter nodes.
package logical

// Node represents a node in a logical query plan.
type Node interface {
	// Children returns the child nodes.
	Children() []Node
	// String returns a string representation for debugging.
	String() string
	logicalNode()
}

// baseNode provides common functionality for plan nodes.
type baseNode struct {
	children []Node
}

func (n *baseNode) Children() []Node {
	return n.children
}

func (n *baseNode) logicalNode() {}

// Walk invokes fn on every node of the tree, parents before children.
func Walk(n Node, fn func(Node)) {
	fn(n)
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
