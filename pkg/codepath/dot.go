package codepath

import (
	"strings"
)

// MakeDotArrows renders the edges of cp in DOT arrow form, starting with
// "initial->" and ending returned and thrown segments in "final" and
// "thrown".
func MakeDotArrows(cp *CodePath) string {
	text, _ := makeDotArrows(cp)
	return text
}

func makeDotArrows(cp *CodePath) (string, []*Segment) {
	type item struct {
		segment *Segment
		index   int
	}

	initial := cp.InitialSegment()
	stack := []item{{segment: initial}}
	done := make(map[*Segment]bool)
	var order []*Segment
	lastID := initial.id

	var b strings.Builder
	b.WriteString("initial->" + initial.id)

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seg := it.segment

		if done[seg] && it.index == 0 {
			continue
		}
		if !done[seg] {
			done[seg] = true
			order = append(order, seg)
		}

		if it.index >= len(seg.allNextSegments) {
			continue
		}
		next := seg.allNextSegments[it.index]

		if lastID == seg.id {
			b.WriteString("->" + next.id)
		} else {
			b.WriteString(";\n" + seg.id + "->" + next.id)
		}
		lastID = next.id

		// Sibling edges of seg are emitted after everything reachable
		// from next.
		stack = append([]item{{segment: seg, index: it.index + 1}}, stack...)
		stack = append(stack, item{segment: next})
	}

	for _, seg := range cp.ReturnedSegments() {
		if lastID == seg.id {
			b.WriteString("->final")
		} else {
			b.WriteString(";\n" + seg.id + "->final")
		}
		lastID = ""
	}
	for _, seg := range cp.ThrownSegments() {
		if lastID == seg.id {
			b.WriteString("->thrown")
		} else {
			b.WriteString(";\n" + seg.id + "->thrown")
		}
		lastID = ""
	}

	b.WriteString(";")
	return b.String(), order
}

// MakeDot renders cp as a Graphviz digraph. Segment labels list the traced
// nodes when the analyzer ran WithNodeTrace.
func MakeDot(cp *CodePath) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("node[shape=box,style=\"rounded,filled\",fillcolor=white];\n")
	b.WriteString("initial[label=\"\",shape=circle,style=filled,fillcolor=black,width=0.25,height=0.25];\n")
	if len(cp.ReturnedSegments()) > 0 {
		b.WriteString("final[label=\"\",shape=doublecircle,style=filled,fillcolor=black,width=0.25,height=0.25];\n")
	}
	if len(cp.ThrownSegments()) > 0 {
		b.WriteString("thrown[label=\"✘\",shape=circle,width=0.3,height=0.3,fixedsize=true];\n")
	}

	arrows, order := makeDotArrows(cp)
	for _, seg := range order {
		b.WriteString(seg.id + "[")
		if seg.reachable {
			b.WriteString("label=\"")
		} else {
			b.WriteString("style=\"rounded,dashed,filled\",fillcolor=\"#FF9800\",label=\"<<unreachable>>\\n")
		}
		if len(seg.nodes) > 0 {
			b.WriteString(escapeLabel(strings.Join(seg.nodes, "\n")))
		} else {
			b.WriteString("????")
		}
		b.WriteString("\"];\n")
	}

	b.WriteString(arrows + "\n")
	b.WriteString("}")
	return b.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
