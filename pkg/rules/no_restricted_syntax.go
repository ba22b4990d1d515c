package rules

import (
	"fmt"

	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/linter"
)

// NoRestrictedSyntax reports every node matched by a configured selector.
//
// Options: each option is either a selector string or
// {"selector": string, "message": string}.
type NoRestrictedSyntax struct{}

func (NoRestrictedSyntax) Meta() linter.Meta {
	return linter.Meta{
		Name:        "no-restricted-syntax",
		Description: "Disallow specified syntax",
		Type:        "suggestion",
	}
}

func (NoRestrictedSyntax) Create(ctx *linter.Context) linter.Listeners {
	l := linter.Listeners{}

	for _, opt := range ctx.Options() {
		var sel, msg string
		switch o := opt.(type) {
		case string:
			sel = o
		case map[string]any:
			sel, _ = o["selector"].(string)
			msg, _ = o["message"].(string)
		}
		if sel == "" {
			continue
		}
		if msg == "" {
			msg = fmt.Sprintf("Using '%s' is not allowed.", sel)
		}

		prev := l[sel]
		l[sel] = func(ev emitter.Event) {
			if prev != nil {
				prev(ev)
			}
			ctx.Report(linter.Descriptor{Node: ev.Node, Message: msg})
		}
	}
	return l
}
