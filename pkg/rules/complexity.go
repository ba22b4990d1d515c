package rules

import (
	"fmt"

	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/linter"
)

// DefaultMaxComplexity is used when the rule has no max option.
const DefaultMaxComplexity = 20

// Complexity enforces a maximum cyclomatic complexity per function, class
// field initializer and class static block.
//
// Options: a number, or {"max": number}.
type Complexity struct{}

func (Complexity) Meta() linter.Meta {
	return linter.Meta{
		Name:        "complexity",
		Description: "Enforce a maximum cyclomatic complexity allowed in a program",
		Type:        "suggestion",
	}
}

func maxOption(opts []any, def int) int {
	if len(opts) == 0 {
		return def
	}
	v := opts[0]
	if m, ok := v.(map[string]any); ok {
		v = m["max"]
		if v == nil {
			v = m["maximum"]
		}
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func (Complexity) Create(ctx *linter.Context) linter.Listeners {
	limit := maxOption(ctx.Options(), DefaultMaxComplexity)

	var counts []int
	increase := func(emitter.Event) {
		if len(counts) > 0 {
			counts[len(counts)-1]++
		}
	}

	return linter.Listeners{
		emitter.CodePathStart: func(emitter.Event) {
			counts = append(counts, 1)
		},
		emitter.CodePathEnd: func(ev emitter.Event) {
			n := counts[len(counts)-1]
			counts = counts[:len(counts)-1]
			if n <= limit {
				return
			}

			var name string
			switch ev.CodePath.Origin() {
			case codepath.OriginProgram:
				return
			case codepath.OriginClassFieldInitializer:
				name = "class field initializer"
			case codepath.OriginClassStaticBlock:
				name = "class static block"
			default:
				name = functionName(ev.Node)
			}

			ctx.Report(linter.Descriptor{
				Node:    ev.Node,
				Loc:     functionHeadLoc(ev.Node),
				Message: fmt.Sprintf("%s has a complexity of %d. Maximum allowed is %d.", upperFirst(name), n, limit),
			})
		},
		"CatchClause":           increase,
		"ConditionalExpression": increase,
		"LogicalExpression":     increase,
		"ForStatement":          increase,
		"ForInStatement":        increase,
		"ForOfStatement":        increase,
		"IfStatement":           increase,
		"WhileStatement":        increase,
		"DoWhileStatement":      increase,
		"SwitchCase[test]":      increase,
		"AssignmentExpression[operator=/^(?:&&|\\|\\||\\?\\?)=$/]": increase,
	}
}
