package rules

import (
	"fmt"
	"regexp"

	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
	"github.com/panbanda/jsflow/pkg/linter"
)

// NoFallthrough reports switch cases that can be entered by falling through
// from the previous case. A comment matching the fallthrough pattern right
// before the case marks the fallthrough as intentional.
//
// Options: {"commentPattern": string, "allowEmptyCase": bool}.
type NoFallthrough struct{}

func (NoFallthrough) Meta() linter.Meta {
	return linter.Meta{
		Name:        "no-fallthrough",
		Description: "Disallow fallthrough of case statements",
		Type:        "problem",
	}
}

var (
	defaultFallthroughComment = regexp.MustCompile(`(?i)falls?\s?through`)
	commentRe                 = regexp.MustCompile(`(?s)//([^\n]*)|/\*(.*?)\*/`)
	blankLineRe               = regexp.MustCompile(`\n[ \t\r]*\n`)
)

func (NoFallthrough) Create(ctx *linter.Context) linter.Listeners {
	f := &fallthroughCheck{ctx: ctx, src: ctx.Source(), pattern: defaultFallthroughComment}
	if opts := objectOption(ctx.Options()); opts != nil {
		if p, ok := opts["commentPattern"].(string); ok && p != "" {
			if re, err := regexp.Compile("(?i)" + p); err == nil {
				f.pattern = re
			}
		}
		f.allowEmptyCase, _ = opts["allowEmptyCase"].(bool)
	}

	return f.paths.listeners(linter.Listeners{
		"SwitchCase":      func(ev emitter.Event) { f.enter(ev.Node) },
		"SwitchCase:exit": func(ev emitter.Event) { f.leave(ev.Node) },
	})
}

type fallthroughCheck struct {
	ctx            *linter.Context
	src            string
	pattern        *regexp.Regexp
	allowEmptyCase bool
	paths          pathStack

	// prev is the case that can fall through into the next one.
	prev *estree.Node
}

func (f *fallthroughCheck) enter(node *estree.Node) {
	if f.prev != nil && !f.commented(f.prev, node) {
		kind := "case"
		if node.Child("test") == nil {
			kind = "default"
		}
		f.ctx.Report(linter.Descriptor{
			Node:    node,
			Message: fmt.Sprintf("Expected a 'break' statement before '%s'.", kind),
		})
	}
	f.prev = nil
}

func (f *fallthroughCheck) leave(node *estree.Node) {
	if !anyReachable(f.paths.current()) {
		return
	}
	siblings := node.Siblings()
	if len(siblings) == 0 || siblings[len(siblings)-1] == node {
		return
	}
	if len(node.List("consequent")) > 0 || (!f.allowEmptyCase && f.blankLineAfter(node, siblings)) {
		f.prev = node
	}
}

// commented reports whether a fallthrough comment sits between the last
// statement of prev and next.
func (f *fallthroughCheck) commented(prev, next *estree.Node) bool {
	start := prev.Range[0]
	if body := prev.List("consequent"); len(body) > 0 {
		start = body[len(body)-1].Range[1]
	}
	if start > next.Range[0] || next.Range[0] > len(f.src) {
		return false
	}
	for _, m := range commentRe.FindAllStringSubmatch(f.src[start:next.Range[0]], -1) {
		if f.pattern.MatchString(m[1] + m[2]) {
			return true
		}
	}
	return false
}

func (f *fallthroughCheck) blankLineAfter(node *estree.Node, siblings []*estree.Node) bool {
	for i, s := range siblings[:len(siblings)-1] {
		if s == node {
			end, start := node.Range[1], siblings[i+1].Range[0]
			return end <= start && start <= len(f.src) && blankLineRe.MatchString(f.src[end:start])
		}
	}
	return false
}
