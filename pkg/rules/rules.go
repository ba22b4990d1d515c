// Package rules contains the built-in lint rules. Most of them are driven by
// code path events rather than by the shape of the tree alone.
package rules

import (
	"fmt"
	"strings"

	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/emitter"
	"github.com/panbanda/jsflow/pkg/estree"
	"github.com/panbanda/jsflow/pkg/linter"
)

// All returns every built-in rule.
func All() []linter.Rule {
	return []linter.Rule{
		Complexity{},
		ConsistentReturn{},
		NoFallthrough{},
		NoRestrictedSyntax{},
		NoUnreachable{},
	}
}

// Recommended is the configuration used when none is given.
func Recommended() map[string]linter.RuleConfig {
	return map[string]linter.RuleConfig{
		"no-fallthrough": {Severity: linter.SeverityError},
		"no-unreachable": {Severity: linter.SeverityError},
	}
}

// pathStack follows the code path that is current during the walk.
type pathStack []*codepath.CodePath

func (s *pathStack) listeners(l linter.Listeners) linter.Listeners {
	start, end := l[emitter.CodePathStart], l[emitter.CodePathEnd]
	l[emitter.CodePathStart] = func(ev emitter.Event) {
		*s = append(*s, ev.CodePath)
		if start != nil {
			start(ev)
		}
	}
	l[emitter.CodePathEnd] = func(ev emitter.Event) {
		if end != nil {
			end(ev)
		}
		*s = (*s)[:len(*s)-1]
	}
	return l
}

func (s pathStack) current() *codepath.CodePath {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// anyReachable reports whether some current segment of cp is reachable.
func anyReachable(cp *codepath.CodePath) bool {
	if cp == nil {
		return false
	}
	for _, seg := range cp.CurrentSegments() {
		if seg.Reachable() {
			return true
		}
	}
	return false
}

// functionName describes a function the way messages refer to it, for
// example "function 'foo'", "arrow function" or "static method 'bar'".
func functionName(node *estree.Node) string {
	var tokens []string
	parent := node.Parent

	isMember := parent != nil && (parent.Type == "MethodDefinition" || parent.Type == "PropertyDefinition")
	if isMember && parent.Bool("static") {
		tokens = append(tokens, "static")
	}
	if isMember && parent.Child("key") != nil && parent.Child("key").Type == "PrivateIdentifier" {
		tokens = append(tokens, "private")
	}
	if node.Bool("async") {
		tokens = append(tokens, "async")
	}
	if node.Bool("generator") {
		tokens = append(tokens, "generator")
	}

	switch {
	case parent != nil && parent.Type == "MethodDefinition":
		switch parent.Str("kind") {
		case "constructor":
			return "constructor"
		case "get":
			tokens = append(tokens, "getter")
		case "set":
			tokens = append(tokens, "setter")
		default:
			tokens = append(tokens, "method")
		}
	case parent != nil && parent.Type == "PropertyDefinition":
		tokens = append(tokens, "method")
	case parent != nil && parent.Type == "Property" && (parent.Bool("method") || parent.Str("kind") == "get" || parent.Str("kind") == "set"):
		switch parent.Str("kind") {
		case "get":
			tokens = append(tokens, "getter")
		case "set":
			tokens = append(tokens, "setter")
		default:
			tokens = append(tokens, "method")
		}
	case node.Type == "ArrowFunctionExpression":
		tokens = append(tokens, "arrow function")
	default:
		tokens = append(tokens, "function")
	}

	switch {
	case parent != nil && (parent.Type == "MethodDefinition" || parent.Type == "PropertyDefinition" || parent.Type == "Property"):
		if name := keyName(parent); name != "" {
			tokens = append(tokens, fmt.Sprintf("'%s'", name))
		}
	case node.Child("id") != nil:
		tokens = append(tokens, fmt.Sprintf("'%s'", node.Child("id").Name()))
	}
	return strings.Join(tokens, " ")
}

func keyName(prop *estree.Node) string {
	key := prop.Child("key")
	if key == nil {
		return ""
	}
	switch key.Type {
	case "PrivateIdentifier":
		return "#" + key.Name()
	case "Identifier":
		if !prop.Bool("computed") {
			return key.Name()
		}
	case "Literal":
		if v, ok := key.Attr("value"); ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// objectOption returns the first rule option as a map, or nil.
func objectOption(opts []any) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	m, _ := opts[0].(map[string]any)
	return m
}
