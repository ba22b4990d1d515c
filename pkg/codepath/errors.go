package codepath

import (
	"fmt"

	"github.com/panbanda/jsflow/pkg/estree"
)

// InternalError is the panic value raised when the analyzer is driven with a
// tree it cannot build a consistent graph for (a missing required child, an
// unbalanced enter/leave sequence). It signals a bug in the tree supplier,
// not in the analyzed program.
type InternalError struct {
	Node    *estree.Node
	Message string
}

func (e *InternalError) Error() string {
	if e.Node == nil {
		return "Internal Error: " + e.Message
	}
	return fmt.Sprintf("Internal Error: %s (at %s %d:%d)",
		e.Message, e.Node.Type, e.Node.Loc.Start.Line, e.Node.Loc.Start.Column)
}

func internalError(node *estree.Node, format string, args ...any) {
	panic(&InternalError{Node: node, Message: fmt.Sprintf(format, args...)})
}
