package rules

import (
	"fmt"
	"unicode"

	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
	"github.com/panbanda/jsflow/pkg/linter"
)

// ConsistentReturn requires every return in a function to either always or
// never specify a value, and a function that returns a value to not fall off
// its end.
//
// Options: {"treatUndefinedAsUnspecified": bool}.
type ConsistentReturn struct{}

func (ConsistentReturn) Meta() linter.Meta {
	return linter.Meta{
		Name:        "consistent-return",
		Description: "Require return statements to either always or never specify values",
		Type:        "suggestion",
	}
}

type returnInfo struct {
	path           *codepath.CodePath
	node           *estree.Node
	hasReturn      bool
	hasReturnValue bool
	name           string
}

func (ConsistentReturn) Create(ctx *linter.Context) linter.Listeners {
	var undefinedIsUnspecified bool
	if opts := objectOption(ctx.Options()); opts != nil {
		undefinedIsUnspecified, _ = opts["treatUndefinedAsUnspecified"].(bool)
	}

	var stack []*returnInfo
	top := func() *returnInfo { return stack[len(stack)-1] }

	checkEnd := func(ev emitter.Event) {
		info := top()
		node := ev.Node
		if !info.hasReturnValue || !anyReachable(info.path) || isConstructor(node) {
			return
		}
		ctx.Report(linter.Descriptor{
			Node:    node,
			Loc:     functionHeadLoc(node),
			Message: fmt.Sprintf("Expected to return a value at the end of %s.", describe(node)),
		})
	}

	return linter.Listeners{
		emitter.CodePathStart: func(ev emitter.Event) {
			stack = append(stack, &returnInfo{path: ev.CodePath, node: ev.Node})
		},
		emitter.CodePathEnd: func(emitter.Event) {
			stack = stack[:len(stack)-1]
		},
		"ReturnStatement": func(ev emitter.Event) {
			info := top()
			arg := ev.Node.Child("argument")
			hasValue := arg != nil
			if undefinedIsUnspecified && hasValue {
				hasValue = !(arg.Type == "Identifier" && arg.Name() == "undefined") &&
					!(arg.Type == "UnaryExpression" && arg.Str("operator") == "void")
			}

			if !info.hasReturn {
				info.hasReturn = true
				info.hasReturnValue = hasValue
				info.name = upperFirst(describe(info.node))
				return
			}
			if info.hasReturnValue == hasValue {
				return
			}

			msg := fmt.Sprintf("%s expected no return value.", info.name)
			if info.hasReturnValue {
				msg = fmt.Sprintf("%s expected a return value.", info.name)
			}
			ctx.Report(linter.Descriptor{Node: ev.Node, Message: msg})
		},
		"Program:exit":                 checkEnd,
		"FunctionDeclaration:exit":     checkEnd,
		"FunctionExpression:exit":      checkEnd,
		"ArrowFunctionExpression:exit": checkEnd,
	}
}

func describe(node *estree.Node) string {
	if node.Type == "Program" {
		return "program"
	}
	return functionName(node)
}

// isConstructor reports class constructors and ES5-style constructor
// functions, whose implicit return is the instance.
func isConstructor(node *estree.Node) bool {
	if p := node.Parent; p != nil && p.Type == "MethodDefinition" && p.Str("kind") == "constructor" {
		return true
	}
	if node.Type == "ArrowFunctionExpression" {
		return false
	}
	if id := node.Child("id"); id != nil {
		name := []rune(id.Name())
		return len(name) > 0 && unicode.IsUpper(name[0])
	}
	return false
}

// functionHeadLoc spans from the start of a function, or of the method that
// owns it, to the start of its body.
func functionHeadLoc(node *estree.Node) *estree.SourceLocation {
	if !node.IsFunction() {
		return nil
	}
	start := node.Loc.Start
	if p := node.Parent; p != nil {
		switch p.Type {
		case "MethodDefinition", "PropertyDefinition", "Property":
			start = p.Loc.Start
		}
	}
	end := node.Loc.End
	if body := node.Child("body"); body != nil {
		end = body.Loc.Start
	}
	return &estree.SourceLocation{Start: start, End: end}
}
