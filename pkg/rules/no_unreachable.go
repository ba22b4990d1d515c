package rules

import (
	"strings"

	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
	"github.com/panbanda/jsflow/pkg/linter"
)

// NoUnreachable reports statements after return, throw, break and continue.
// Consecutive unreachable statements are reported once.
type NoUnreachable struct{}

func (NoUnreachable) Meta() linter.Meta {
	return linter.Meta{
		Name:        "no-unreachable",
		Description: "Disallow unreachable code after return, throw, continue, and break statements",
		Type:        "problem",
	}
}

var unreachableCandidates = []string{
	"BlockStatement",
	"BreakStatement",
	"ClassDeclaration",
	"ContinueStatement",
	"DebuggerStatement",
	"DoWhileStatement",
	"ExportAllDeclaration",
	"ExportDefaultDeclaration",
	"ExportNamedDeclaration",
	"ExpressionStatement",
	"ForInStatement",
	"ForOfStatement",
	"ForStatement",
	"IfStatement",
	"ImportDeclaration",
	"LabeledStatement",
	"ReturnStatement",
	"SwitchStatement",
	"ThrowStatement",
	"TryStatement",
	"WhileStatement",
	"WithStatement",
}

func (NoUnreachable) Create(ctx *linter.Context) linter.Listeners {
	r := &unreachable{ctx: ctx, src: ctx.Source()}

	l := linter.Listeners{
		"VariableDeclaration": func(ev emitter.Event) {
			// Hoisted var declarations without initializers are harmless.
			if ev.Node.Str("kind") != "var" || hasInitializer(ev.Node) {
				r.check(ev.Node)
			}
		},
		"Program:exit": func(emitter.Event) { r.flush(nil) },
	}
	for _, t := range unreachableCandidates {
		l[t] = func(ev emitter.Event) { r.check(ev.Node) }
	}
	return r.paths.listeners(l)
}

type unreachable struct {
	ctx   *linter.Context
	src   string
	paths pathStack

	first, last *estree.Node
}

func (r *unreachable) check(node *estree.Node) {
	if anyReachable(r.paths.current()) {
		r.flush(nil)
		return
	}

	switch {
	case r.first == nil:
		r.first, r.last = node, node
	case r.contains(node):
	case r.consecutive(node):
		r.last = node
	default:
		r.flush(node)
	}
}

func (r *unreachable) contains(node *estree.Node) bool {
	return r.first.Range[0] <= node.Range[0] && node.Range[1] <= r.last.Range[1]
}

// consecutive reports whether only whitespace separates node from the
// current range.
func (r *unreachable) consecutive(node *estree.Node) bool {
	end, start := r.last.Range[1], node.Range[0]
	if end > start || start > len(r.src) {
		return false
	}
	return strings.TrimSpace(r.src[end:start]) == ""
}

// flush reports the pending range and starts a new one at next.
func (r *unreachable) flush(next *estree.Node) {
	if r.first != nil {
		r.ctx.Report(linter.Descriptor{
			Node:    r.first,
			Loc:     &estree.SourceLocation{Start: r.first.Loc.Start, End: r.last.Loc.End},
			Message: "Unreachable code.",
		})
	}
	r.first, r.last = next, next
}

func hasInitializer(decl *estree.Node) bool {
	for _, d := range decl.List("declarations") {
		if d.Child("init") != nil {
			return true
		}
	}
	return false
}
