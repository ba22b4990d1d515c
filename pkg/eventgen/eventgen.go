// Package eventgen turns an AST walk into node events: the bare node type on
// enter, "<Type>:exit" on leave, and the source string of every subscribed
// selector that matches.
package eventgen

import (
	"fmt"

	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
	"github.com/panbanda/jsflow/pkg/selector"
)

// Sink receives generated events.
type Sink interface {
	Emit(emitter.Event)
}

type entry struct {
	sel   *selector.Selector
	index int // registration order
}

// Generator implements estree.Visitor. A Generator holds per-walk state and
// must not be shared between concurrent walks.
type Generator struct {
	sink Sink

	enterByType map[string][]entry
	exitByType  map[string][]entry
	anyEnter    []entry
	anyExit     []entry

	// ancestry holds the ancestors of the current node, nearest first.
	ancestry []*estree.Node
	pending  map[*estree.Node][]*selector.Selector
}

// New compiles the selector subscriptions among names. Bare node types and
// code path event names need no compilation. An invalid selector is
// reported before any traversal happens.
func New(sink Sink, names []string) (*Generator, error) {
	g := &Generator{
		sink:        sink,
		enterByType: make(map[string][]entry),
		exitByType:  make(map[string][]entry),
		pending:     make(map[*estree.Node][]*selector.Selector),
	}

	for i, name := range names {
		if emitter.IsCodePathEvent(name) || selector.IsBareType(name) {
			continue
		}

		sel, err := selector.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", name, err)
		}

		e := entry{sel: sel, index: i}
		types, bounded := sel.PossibleTypes()
		if !bounded {
			if sel.IsExit {
				g.anyExit = append(g.anyExit, e)
			} else {
				g.anyEnter = append(g.anyEnter, e)
			}
			continue
		}

		byType := g.enterByType
		if sel.IsExit {
			byType = g.exitByType
		}
		for _, t := range types {
			byType[t] = append(byType[t], e)
		}
	}
	return g, nil
}

// EnterNode emits the node type, then every matching enter selector in
// registration order. Matching exit selectors are held until LeaveNode.
func (g *Generator) EnterNode(node *estree.Node) {
	g.sink.Emit(emitter.Event{Kind: emitter.KindNodeEnter, Name: node.Type, Node: node})

	g.apply(node, g.enterByType[node.Type], g.anyEnter, func(sel *selector.Selector) {
		g.sink.Emit(emitter.Event{Kind: emitter.KindSelector, Name: sel.Source, Node: node})
	})
	g.apply(node, g.exitByType[node.Type], g.anyExit, func(sel *selector.Selector) {
		g.pending[node] = append(g.pending[node], sel)
	})

	g.ancestry = append(g.ancestry, nil)
	copy(g.ancestry[1:], g.ancestry)
	g.ancestry[0] = node
}

// LeaveNode emits "<Type>:exit", then the exit selectors that matched node
// on enter, in the order they matched. Leaving a node other than the one
// entered last panics with a *codepath.InternalError.
func (g *Generator) LeaveNode(node *estree.Node) {
	if len(g.ancestry) == 0 || g.ancestry[0] != node {
		panic(&codepath.InternalError{Node: node, Message: "leaving a node that is not the current node"})
	}
	g.ancestry = g.ancestry[1:]

	g.sink.Emit(emitter.Event{Kind: emitter.KindNodeExit, Name: node.Type + ":exit", Node: node})

	if sels, ok := g.pending[node]; ok {
		delete(g.pending, node)
		for _, sel := range sels {
			g.sink.Emit(emitter.Event{Kind: emitter.KindSelector, Name: sel.Source, Node: node})
		}
	}
}

// apply merges the typed and any-type candidates by registration order and
// calls fire for each one that matches.
func (g *Generator) apply(node *estree.Node, typed, wild []entry, fire func(*selector.Selector)) {
	i, j := 0, 0
	for i < len(typed) || j < len(wild) {
		var e entry
		if j >= len(wild) || (i < len(typed) && typed[i].index < wild[j].index) {
			e = typed[i]
			i++
		} else {
			e = wild[j]
			j++
		}
		if e.sel.Match(node, g.ancestry) {
			fire(e.sel)
		}
	}
}

var _ estree.Visitor = (*Generator)(nil)
