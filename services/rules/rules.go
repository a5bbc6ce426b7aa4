// Package rules models how dynamic properties are computed and evaluates them.
package rules

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"
)

// ErrUnknownRule is returned for rule sources no Kind understands
var ErrUnknownRule = errors.New("unknown rule")

// Kind identifies how a dynamic property is computed
type Kind string

const (
	// KindSumChildren adds up the direct children of the property
	KindSumChildren Kind = "sum_children"
	// KindExpression evaluates a CEL expression over sibling values
	KindExpression Kind = "expression"
)

const (
	sumChildrenSource = "*children*"
	expressionPrefix  = "expr:"
)

// Rule is a parsed dynamic property definition
type Rule struct {
	Kind       Kind
	Expression string
}

// Parse turns the combo_of / dynamic source of a property into a Rule
func Parse(source string) (Rule, error) {
	src := strings.TrimSpace(source)
	switch {
	case src == sumChildrenSource:
		return Rule{Kind: KindSumChildren}, nil
	case strings.HasPrefix(src, expressionPrefix):
		expr := strings.TrimSpace(strings.TrimPrefix(src, expressionPrefix))
		if expr == "" {
			return Rule{}, fmt.Errorf("%w: empty expression", ErrUnknownRule)
		}
		return Rule{Kind: KindExpression, Expression: expr}, nil
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownRule, source)
	}
}

// Source returns the text form Parse accepts
func (r Rule) Source() string {
	if r.Kind == KindExpression {
		return expressionPrefix + r.Expression
	}
	return sumChildrenSource
}

// Input is what a rule sees for one authority in one year
type Input struct {
	// Children are the ids of the property's direct children
	Children []string
	// Values maps property id to value
	Values map[string]float64
	// Slugs maps property slug to value, exposed to expressions as v
	Slugs map[string]float64
}

// Interpreter evaluates rules, compiling each expression once
type Interpreter struct {
	env      *cel.Env
	prgCache map[string]cel.Program
	mu       sync.RWMutex
}

// NewInterpreter creates an interpreter whose expressions see v, a map of
// property slug to value
func NewInterpreter() (*Interpreter, error) {
	env, err := cel.NewEnv(
		cel.Variable("v", cel.MapType(cel.StringType, cel.DoubleType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Interpreter{env: env, prgCache: make(map[string]cel.Program)}, nil
}

// Check compiles the rule without evaluating it
func (in *Interpreter) Check(r Rule) error {
	switch r.Kind {
	case KindSumChildren:
		return nil
	case KindExpression:
		_, err := in.program(r.Expression)
		return err
	default:
		return fmt.Errorf("%w: kind %q", ErrUnknownRule, r.Kind)
	}
}

// Eval computes the rule for one input. Missing children count as 0.
func (in *Interpreter) Eval(r Rule, input Input) (float64, error) {
	switch r.Kind {
	case KindSumChildren:
		total := decimal.Zero
		for _, id := range input.Children {
			total = total.Add(decimal.NewFromFloat(input.Values[id]))
		}
		return total.InexactFloat64(), nil
	case KindExpression:
		return in.evalExpression(r.Expression, input.Slugs)
	default:
		return 0, fmt.Errorf("%w: kind %q", ErrUnknownRule, r.Kind)
	}
}

func (in *Interpreter) program(expr string) (cel.Program, error) {
	in.mu.RLock()
	prg, hit := in.prgCache[expr]
	in.mu.RUnlock()
	if hit {
		return prg, nil
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if prg, hit = in.prgCache[expr]; hit {
		return prg, nil
	}

	ast, issues := in.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := in.env.Program(ast, cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	in.prgCache[expr] = prg
	return prg, nil
}

func (in *Interpreter) evalExpression(expr string, slugs map[string]float64) (float64, error) {
	prg, err := in.program(expr)
	if err != nil {
		return 0, err
	}
	if slugs == nil {
		slugs = map[string]float64{}
	}

	out, _, err := prg.Eval(map[string]any{"v": slugs})
	if err != nil {
		return 0, fmt.Errorf("eval %q: %w", expr, err)
	}

	switch val := out.(type) {
	case types.Double:
		return float64(val), nil
	case types.Int:
		return float64(val), nil
	case types.Uint:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("eval %q: result is %s, not a number", expr, out.Type().TypeName())
	}
}
