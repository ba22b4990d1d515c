// Package emitter routes analysis events to the handlers registered for
// them. Handlers for one name run synchronously in registration order.
package emitter

import (
	"github.com/panbanda/jsflow/pkg/codepath"
	"github.com/panbanda/jsflow/pkg/estree"
)

// Kind discriminates Event.
type Kind int

const (
	KindNodeEnter Kind = iota
	KindNodeExit
	KindSelector
	KindCodePathStart
	KindCodePathEnd
	KindSegmentStart
	KindSegmentEnd
	KindUnreachableSegmentStart
	KindUnreachableSegmentEnd
	KindSegmentLoop
)

var kindNames = [...]string{
	KindNodeEnter:               "node-enter",
	KindNodeExit:                "node-exit",
	KindSelector:                "selector",
	KindCodePathStart:           "code-path-start",
	KindCodePathEnd:             "code-path-end",
	KindSegmentStart:            "segment-start",
	KindSegmentEnd:              "segment-end",
	KindUnreachableSegmentStart: "unreachable-segment-start",
	KindUnreachableSegmentEnd:   "unreachable-segment-end",
	KindSegmentLoop:             "segment-loop",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Code path event names.
const (
	CodePathStart           = "onCodePathStart"
	CodePathEnd             = "onCodePathEnd"
	SegmentStart            = "onCodePathSegmentStart"
	SegmentEnd              = "onCodePathSegmentEnd"
	UnreachableSegmentStart = "onUnreachableCodePathSegmentStart"
	UnreachableSegmentEnd   = "onUnreachableCodePathSegmentEnd"
	SegmentLoop             = "onCodePathSegmentLoop"
)

// IsCodePathEvent reports whether name is one of the code path event names
// rather than a node type or selector.
func IsCodePathEvent(name string) bool {
	switch name {
	case CodePathStart, CodePathEnd, SegmentStart, SegmentEnd,
		UnreachableSegmentStart, UnreachableSegmentEnd, SegmentLoop:
		return true
	}
	return false
}

// Event is a single analysis event. Which fields are set depends on Kind:
// node events carry Node, path events CodePath and Node, segment events
// Segment and Node, and loop events From, To and Node.
type Event struct {
	Kind     Kind
	Name     string
	Node     *estree.Node
	CodePath *codepath.CodePath
	Segment  *codepath.Segment
	From     *codepath.Segment
	To       *codepath.Segment
}

// Handler receives events.
type Handler func(Event)

// Emitter is a registry of handlers keyed by event name.
type Emitter struct {
	handlers map[string][]Handler
	names    []string
}

// New creates an empty emitter.
func New() *Emitter {
	return &Emitter{handlers: make(map[string][]Handler)}
}

// On registers h for name.
func (e *Emitter) On(name string, h Handler) {
	if _, ok := e.handlers[name]; !ok {
		e.names = append(e.names, name)
	}
	e.handlers[name] = append(e.handlers[name], h)
}

// Emit calls every handler registered for ev.Name.
func (e *Emitter) Emit(ev Event) {
	for _, h := range e.handlers[ev.Name] {
		h(ev)
	}
}

// Has reports whether any handler is registered for name.
func (e *Emitter) Has(name string) bool {
	return len(e.handlers[name]) > 0
}

// EventNames returns the registered names in first-registration order.
func (e *Emitter) EventNames() []string {
	return append([]string(nil), e.names...)
}

func (e *Emitter) OnCodePathStart(cp *codepath.CodePath, node *estree.Node) {
	e.Emit(Event{Kind: KindCodePathStart, Name: CodePathStart, CodePath: cp, Node: node})
}

func (e *Emitter) OnCodePathEnd(cp *codepath.CodePath, node *estree.Node) {
	e.Emit(Event{Kind: KindCodePathEnd, Name: CodePathEnd, CodePath: cp, Node: node})
}

func (e *Emitter) OnSegmentStart(seg *codepath.Segment, node *estree.Node) {
	e.Emit(Event{Kind: KindSegmentStart, Name: SegmentStart, Segment: seg, Node: node})
}

func (e *Emitter) OnSegmentEnd(seg *codepath.Segment, node *estree.Node) {
	e.Emit(Event{Kind: KindSegmentEnd, Name: SegmentEnd, Segment: seg, Node: node})
}

func (e *Emitter) OnUnreachableSegmentStart(seg *codepath.Segment, node *estree.Node) {
	e.Emit(Event{Kind: KindUnreachableSegmentStart, Name: UnreachableSegmentStart, Segment: seg, Node: node})
}

func (e *Emitter) OnUnreachableSegmentEnd(seg *codepath.Segment, node *estree.Node) {
	e.Emit(Event{Kind: KindUnreachableSegmentEnd, Name: UnreachableSegmentEnd, Segment: seg, Node: node})
}

func (e *Emitter) OnSegmentLoop(from, to *codepath.Segment, node *estree.Node) {
	e.Emit(Event{Kind: KindSegmentLoop, Name: SegmentLoop, From: from, To: to, Node: node})
}

var _ codepath.Listener = (*Emitter)(nil)
