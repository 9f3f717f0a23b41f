package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/errors"
	"github.com/dshills/CorvusDB/internal/query/logical"
	"github.com/dshills/CorvusDB/internal/query/paths"
)

// pipelineFile is the YAML shape of a query pipeline.
type pipelineFile struct {
	Collection string      `yaml:"collection"`
	Binding    string      `yaml:"binding"`
	Stages     []stageSpec `yaml:"stages"`
}

// stageSpec is one pipeline stage; exactly one field may be set.
type stageSpec struct {
	Match   *exprSpec    `yaml:"match"`
	Project *projectSpec `yaml:"project"`
	Sort    []sortSpec   `yaml:"sort"`
	Limit   *int64       `yaml:"limit"`
	Skip    *int64       `yaml:"skip"`
	Unwind  *unwindSpec  `yaml:"unwind"`
	Group   *groupSpec   `yaml:"group"`
}

// exprSpec is a predicate tree: either a leaf comparison (path/op/value)
// or exactly one of and/or/not.
type exprSpec struct {
	Path  string `yaml:"path"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`

	And []exprSpec `yaml:"and"`
	Or  []exprSpec `yaml:"or"`
	Not *exprSpec  `yaml:"not"`
}

type projectSpec struct {
	Binding string `yaml:"binding"`
	Path    string `yaml:"path"`
}

type sortSpec struct {
	Path  string `yaml:"path"`
	Order string `yaml:"order"`
}

type unwindSpec struct {
	Path     string `yaml:"path"`
	Preserve bool   `yaml:"preserve_null_and_empty"`
}

type groupSpec struct {
	By         []string        `yaml:"by"`
	Aggregates []aggregateSpec `yaml:"aggregates"`
}

type aggregateSpec struct {
	Binding string `yaml:"binding"`
	Kind    string `yaml:"kind"`
	Path    string `yaml:"path"`
}

// LoadPipeline reads a YAML pipeline into a logical plan.
func LoadPipeline(path string) (logical.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline file: %w", err)
	}
	var file pipelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing pipeline file: %w", err)
	}
	if file.Collection == "" {
		return nil, errors.InvalidParameterf("pipeline file must name a collection")
	}
	binding := file.Binding
	if binding == "" {
		binding = file.Collection
	}

	plan := logical.Node(logical.NewScan(file.Collection, binding))
	for i, stage := range file.Stages {
		plan, err = applyStage(plan, binding, stage)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i+1, err)
		}
	}
	return plan, nil
}

func applyStage(plan logical.Node, binding string, stage stageSpec) (logical.Node, error) {
	switch {
	case stage.Match != nil:
		pred, err := buildExpression(*stage.Match)
		if err != nil {
			return nil, err
		}
		return logical.NewFilter(plan, pred), nil

	case stage.Project != nil:
		p, err := paths.Parse(stage.Project.Path)
		if err != nil {
			return nil, err
		}
		return logical.NewEvaluation(plan, stage.Project.Binding, p), nil

	case len(stage.Sort) > 0:
		keys := make([]logical.SortKey, len(stage.Sort))
		for i, s := range stage.Sort {
			p, err := paths.Parse(s.Path)
			if err != nil {
				return nil, err
			}
			order := catalog.Ascending
			if s.Order == "desc" {
				order = catalog.Descending
			}
			keys[i] = logical.SortKey{Path: p, Order: order}
		}
		return logical.NewCollation(plan, keys), nil

	case stage.Limit != nil:
		return logical.NewLimit(plan, *stage.Limit), nil

	case stage.Skip != nil:
		return logical.NewSkip(plan, *stage.Skip), nil

	case stage.Unwind != nil:
		p, err := paths.Parse(stage.Unwind.Path)
		if err != nil {
			return nil, err
		}
		return logical.NewUnwind(plan, p, stage.Unwind.Preserve), nil

	case stage.Group != nil:
		return buildGroup(plan, *stage.Group)

	default:
		return nil, errors.InvalidParameterf("empty stage")
	}
}

func buildGroup(plan logical.Node, spec groupSpec) (logical.Node, error) {
	groupPaths := make([]paths.Path, len(spec.By))
	for i, s := range spec.By {
		p, err := paths.Parse(s)
		if err != nil {
			return nil, err
		}
		groupPaths[i] = p
	}
	aggs := make([]logical.Aggregate, len(spec.Aggregates))
	for i, a := range spec.Aggregates {
		p, err := paths.Parse(a.Path)
		if err != nil {
			return nil, err
		}
		kind, err := aggregateKind(a.Kind)
		if err != nil {
			return nil, err
		}
		aggs[i] = logical.Aggregate{Binding: a.Binding, Kind: kind, Path: p}
	}
	return logical.NewGroupBy(plan, groupPaths, aggs), nil
}

func aggregateKind(s string) (logical.AggregateKind, error) {
	switch s {
	case "count":
		return logical.AggCount, nil
	case "sum":
		return logical.AggSum, nil
	case "min":
		return logical.AggMin, nil
	case "max":
		return logical.AggMax, nil
	case "avg":
		return logical.AggAvg, nil
	default:
		return 0, fmt.Errorf("unknown aggregate kind %q", s)
	}
}

func buildExpression(spec exprSpec) (logical.Expression, error) {
	switch {
	case len(spec.And) > 0:
		ops, err := buildExpressions(spec.And)
		if err != nil {
			return nil, err
		}
		return &logical.And{Operands: ops}, nil

	case len(spec.Or) > 0:
		ops, err := buildExpressions(spec.Or)
		if err != nil {
			return nil, err
		}
		return &logical.Or{Operands: ops}, nil

	case spec.Not != nil:
		inner, err := buildExpression(*spec.Not)
		if err != nil {
			return nil, err
		}
		return &logical.Not{Operand: inner}, nil

	case spec.Path != "":
		p, err := paths.Parse(spec.Path)
		if err != nil {
			return nil, err
		}
		op, err := compareOp(spec.Op)
		if err != nil {
			return nil, err
		}
		v, err := yamlValue(spec.Value)
		if err != nil {
			return nil, err
		}
		return &logical.PathCompare{Path: p, Op: op, Value: v}, nil

	default:
		return nil, fmt.Errorf("match expression must set path or one of and/or/not")
	}
}

func buildExpressions(specs []exprSpec) ([]logical.Expression, error) {
	out := make([]logical.Expression, len(specs))
	for i, s := range specs {
		expr, err := buildExpression(s)
		if err != nil {
			return nil, err
		}
		out[i] = expr
	}
	return out, nil
}

func compareOp(s string) (logical.CompareOp, error) {
	switch s {
	case "eq", "":
		return logical.OpEq, nil
	case "lt":
		return logical.OpLt, nil
	case "lte":
		return logical.OpLte, nil
	case "gt":
		return logical.OpGt, nil
	case "gte":
		return logical.OpGte, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", s)
	}
}
