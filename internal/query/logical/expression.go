package logical

import (
	"fmt"
	"strings"

	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/value"
)

// CompareOp is a comparison operator in a filter predicate.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpLt
	OpLte
	OpGt
	OpGte
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return fmt.Sprintf("Unknown(%d)", int(op))
	}
}

// Expression is a filter predicate over the scanned document. The closed
// set of implementations is *PathCompare, *And, *Or, *Not and *Constant.
type Expression interface {
	String() string
	exprNode()
}

// PathCompare compares a field path against a literal.
type PathCompare struct {
	Path  paths.Path
	Op    CompareOp
	Value value.Value
}

func (e *PathCompare) exprNode() {}

func (e *PathCompare) String() string {
	return fmt.Sprintf("%s %s %s", e.Path, e.Op, e.Value)
}

// And is the conjunction of its operands.
type And struct {
	Operands []Expression
}

func (e *And) exprNode() {}

func (e *And) String() string {
	return joinOperands(e.Operands, " AND ")
}

// Or is the disjunction of its operands.
type Or struct {
	Operands []Expression
}

func (e *Or) exprNode() {}

func (e *Or) String() string {
	return joinOperands(e.Operands, " OR ")
}

// Not negates its operand. Negation is not pushed into requirement atoms;
// a Not stays a residual filter around whatever it wraps.
type Not struct {
	Operand Expression
}

func (e *Not) exprNode() {}

func (e *Not) String() string {
	return fmt.Sprintf("NOT (%s)", e.Operand)
}

// Constant is a literal boolean predicate.
type Constant struct {
	Value bool
}

func (e *Constant) exprNode() {}

func (e *Constant) String() string {
	return fmt.Sprintf("%t", e.Value)
}

func joinOperands(operands []Expression, sep string) string {
	parts := make([]string, len(operands))
	for i, op := range operands {
		parts[i] = "(" + op.String() + ")"
	}
	return strings.Join(parts, sep)
}
