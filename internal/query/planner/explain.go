package planner

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Explain renders a physical plan as an indented tree with the row and
// cost estimates each node carries.
func Explain(plan PhysicalPlan) string {
	tree := treeprint.NewWithRoot(explainLabel(plan))
	for _, c := range plan.Children() {
		explainInto(tree, c)
	}
	return tree.String()
}

func explainInto(parent treeprint.Tree, plan PhysicalPlan) {
	branch := parent.AddBranch(explainLabel(plan))
	for _, c := range plan.Children() {
		explainInto(branch, c)
	}
}

func explainLabel(plan PhysicalPlan) string {
	cost := plan.EstimatedCost()
	return fmt.Sprintf("%s  (rows=%.2f cost=%.2f)", plan.String(), float64(plan.EstimatedRows()), cost.TotalCost)
}
