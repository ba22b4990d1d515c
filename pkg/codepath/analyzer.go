package codepath

import (
	"math"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/panbanda/jsflow/pkg/estree"
)

// Listener receives code path lifecycle events. Unreachable segments are
// reported through their own start/end callbacks.
type Listener interface {
	OnCodePathStart(cp *CodePath, node *estree.Node)
	OnCodePathEnd(cp *CodePath, node *estree.Node)
	OnSegmentStart(seg *Segment, node *estree.Node)
	OnSegmentEnd(seg *Segment, node *estree.Node)
	OnUnreachableSegmentStart(seg *Segment, node *estree.Node)
	OnUnreachableSegmentEnd(seg *Segment, node *estree.Node)
	OnSegmentLoop(from, to *Segment, node *estree.Node)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for debug tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithNodeTrace records, per segment, the nodes entered and left while the
// segment was current. The trace labels DOT output.
func WithNodeTrace(enabled bool) Option {
	return func(a *Analyzer) {
		a.trace = enabled
	}
}

// Analyzer builds code paths from the enter/leave callbacks of a tree walk
// and forwards every node to the wrapped visitor.
type Analyzer struct {
	next     estree.Visitor
	listener Listener
	logger   zerolog.Logger
	trace    bool

	ids         idGenerator
	codePath    *CodePath
	currentNode *estree.Node
	finished    []*CodePath
}

// NewAnalyzer creates an analyzer that forwards nodes to next. next may be
// nil when only code path events are of interest.
func NewAnalyzer(next estree.Visitor, listener Listener, opts ...Option) *Analyzer {
	a := &Analyzer{
		next:     next,
		listener: listener,
		logger:   zerolog.Nop(),
		ids:      idGenerator{prefix: "s"},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CodePaths returns the code paths finished so far, in the order they ended.
func (a *Analyzer) CodePaths() []*CodePath {
	return a.finished
}

// EnterNode updates the graph for node and forwards it.
func (a *Analyzer) EnterNode(node *estree.Node) {
	a.currentNode = node

	if node.Parent != nil {
		a.preprocess(node)
	}
	a.enterCodePath(node)
	if a.next != nil {
		a.next.EnterNode(node)
	}

	a.currentNode = nil
}

// LeaveNode updates the graph for node and forwards it. Path end events for
// node fire after the forwarded leave.
func (a *Analyzer) LeaveNode(node *estree.Node) {
	a.currentNode = node

	if a.codePath == nil {
		internalError(node, "leaving a node outside of any code path")
	}
	a.exitCodePath(node)
	if a.next != nil {
		a.next.LeaveNode(node)
	}
	a.postprocess(node)

	a.currentNode = nil
}

func (a *Analyzer) state() *state {
	if a.codePath == nil {
		internalError(a.currentNode, "no active code path")
	}
	return a.codePath.state
}

func (a *Analyzer) onLooped(from, to *Segment) {
	if from.reachable && to.reachable {
		a.logger.Debug().Str("from", from.id).Str("to", to.id).Msg("onCodePathSegmentLoop")
		a.listener.OnSegmentLoop(from, to, a.currentNode)
	}
}

// forwardCurrentToHead ends the current segments that are no longer heads
// and starts the new head segments.
func (a *Analyzer) forwardCurrentToHead(node *estree.Node) {
	st := a.codePath.state
	current := st.currentSegments
	head := st.headSegments()
	end := max(len(current), len(head))

	for i := range end {
		cur, hd := at(current, i), at(head, i)
		if cur != nil && cur != hd {
			a.endSegment(cur, node)
		}
	}

	st.currentSegments = head

	for i := range end {
		cur, hd := at(current, i), at(head, i)
		if hd != nil && cur != hd {
			hd.markUsed()
			if hd.reachable {
				a.logger.Debug().Str("segment", hd.id).Msg("onCodePathSegmentStart")
				a.listener.OnSegmentStart(hd, node)
			} else {
				a.logger.Debug().Str("segment", hd.id).Msg("onUnreachableCodePathSegmentStart")
				a.listener.OnUnreachableSegmentStart(hd, node)
			}
		}
	}
}

func (a *Analyzer) endSegment(seg *Segment, node *estree.Node) {
	if seg.reachable {
		a.logger.Debug().Str("segment", seg.id).Msg("onCodePathSegmentEnd")
		a.listener.OnSegmentEnd(seg, node)
	} else {
		a.logger.Debug().Str("segment", seg.id).Msg("onUnreachableCodePathSegmentEnd")
		a.listener.OnUnreachableSegmentEnd(seg, node)
	}
}

func (a *Analyzer) leaveFromCurrentSegment(node *estree.Node) {
	st := a.codePath.state
	for _, seg := range st.currentSegments {
		a.endSegment(seg, node)
	}
	st.currentSegments = nil
}

func at(segs []*Segment, i int) *Segment {
	if i < len(segs) {
		return segs[i]
	}
	return nil
}

// preprocess handles the transition into node as a particular child of its
// parent (the right operand, a branch, a loop clause).
func (a *Analyzer) preprocess(node *estree.Node) {
	if a.codePath == nil {
		internalError(node, "node entered outside of any code path")
	}
	st := a.codePath.state
	parent := node.Parent

	switch parent.Type {
	case "CallExpression":
		if args := parent.List("arguments"); parent.Bool("optional") && len(args) > 0 && args[0] == node {
			st.makeOptionalRight()
		}
	case "MemberExpression":
		if parent.Bool("optional") && parent.Child("property") == node {
			st.makeOptionalRight()
		}
	case "LogicalExpression":
		if parent.Child("right") == node && isHandledLogicalOperator(parent.Str("operator")) {
			st.makeLogicalRight()
		}
	case "AssignmentExpression":
		if parent.Child("right") == node && isLogicalAssignmentOperator(parent.Str("operator")) {
			st.makeLogicalRight()
		}
	case "ConditionalExpression", "IfStatement":
		switch node {
		case parent.Child("consequent"):
			st.makeIfConsequent()
		case parent.Child("alternate"):
			st.makeIfAlternate()
		}
	case "SwitchCase":
		if cons := parent.List("consequent"); len(cons) > 0 && cons[0] == node {
			st.makeSwitchCaseBody(false, parent.Child("test") == nil)
		}
	case "TryStatement":
		switch node {
		case parent.Child("handler"):
			st.makeCatchBlock()
		case parent.Child("finalizer"):
			st.makeFinallyBlock()
		}
	case "WhileStatement":
		switch node {
		case parent.Child("test"):
			st.makeWhileTest(isTruthyLiteral(node))
		case parent.Child("body"):
			st.makeWhileBody()
		default:
			internalError(node, "unexpected child of WhileStatement")
		}
	case "DoWhileStatement":
		switch node {
		case parent.Child("body"):
			st.makeDoWhileBody()
		case parent.Child("test"):
			st.makeDoWhileTest(isTruthyLiteral(node))
		default:
			internalError(node, "unexpected child of DoWhileStatement")
		}
	case "ForStatement":
		switch node {
		case parent.Child("test"):
			st.makeForTest(isTruthyLiteral(node))
		case parent.Child("update"):
			st.makeForUpdate()
		case parent.Child("body"):
			st.makeForBody()
		}
	case "ForInStatement", "ForOfStatement":
		switch node {
		case parent.Child("left"):
			st.makeForInOfLeft()
		case parent.Child("right"):
			st.makeForInOfRight()
		case parent.Child("body"):
			st.makeForInOfBody()
		default:
			internalError(node, "unexpected child of %s", parent.Type)
		}
	case "AssignmentPattern":
		// A default value is only evaluated when the argument is undefined.
		if parent.Child("right") == node {
			st.pushForkContext(false)
			st.forkBypassPath()
			st.forkPath()
		}
	}
}

func (a *Analyzer) startCodePath(node *estree.Node, origin Origin) {
	if a.codePath != nil {
		a.forwardCurrentToHead(node)
	}
	a.codePath = newCodePath(a.ids.next(), origin, a.codePath, node, a.onLooped)

	a.logger.Debug().Str("path", a.codePath.id).Str("origin", string(origin)).Msg("onCodePathStart")
	a.listener.OnCodePathStart(a.codePath, node)
}

func (a *Analyzer) enterCodePath(node *estree.Node) {
	if isPropertyDefinitionValue(node) {
		a.startCodePath(node, OriginClassFieldInitializer)
	}

	switch node.Type {
	case "Program":
		a.startCodePath(node, OriginProgram)
	case "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression":
		a.startCodePath(node, OriginFunction)
	case "StaticBlock":
		a.startCodePath(node, OriginClassStaticBlock)
	}

	st := a.state()

	switch node.Type {
	case "ChainExpression":
		st.pushChainContext()
	case "CallExpression", "MemberExpression":
		if node.Bool("optional") {
			st.makeOptionalNode()
		}
	case "LogicalExpression":
		if op := node.Str("operator"); isHandledLogicalOperator(op) {
			st.pushChoiceContext(choiceKind(op), isForkingByTrueOrFalse(node))
		}
	case "AssignmentExpression":
		if op := node.Str("operator"); isLogicalAssignmentOperator(op) {
			st.pushChoiceContext(choiceKind(op[:len(op)-1]), isForkingByTrueOrFalse(node))
		}
	case "ConditionalExpression", "IfStatement":
		st.pushChoiceContext(choiceTest, false)
	case "SwitchStatement":
		hasCase := false
		for _, c := range node.List("cases") {
			if c.Child("test") != nil {
				hasCase = true
				break
			}
		}
		st.pushSwitchContext(hasCase, labelOf(node))
	case "TryStatement":
		st.pushTryContext(node.Child("finalizer") != nil)
	case "SwitchCase":
		// Every case after the first forks from the discriminant.
		if parent := node.Parent; parent != nil {
			if cases := parent.List("cases"); len(cases) > 0 && cases[0] != node {
				st.forkPath()
			}
		}
	case "WhileStatement", "DoWhileStatement", "ForStatement", "ForInStatement", "ForOfStatement":
		st.pushLoopContext(node.Type, labelOf(node))
	case "LabeledStatement":
		if !breakableType.MatchString(bodyType(node)) {
			st.pushBreakContext(false, node.Child("label").Name())
		}
	}

	a.forwardCurrentToHead(node)
	a.traceNode(node, false)
}

func (a *Analyzer) exitCodePath(node *estree.Node) {
	st := a.state()
	dontForward := false

	switch node.Type {
	case "ChainExpression":
		st.popChainContext()
	case "IfStatement", "ConditionalExpression":
		st.popChoiceContext()
	case "LogicalExpression":
		if isHandledLogicalOperator(node.Str("operator")) {
			st.popChoiceContext()
		}
	case "AssignmentExpression":
		if isLogicalAssignmentOperator(node.Str("operator")) {
			st.popChoiceContext()
		}
	case "SwitchStatement":
		st.popSwitchContext()
	case "SwitchCase":
		if len(node.List("consequent")) == 0 {
			st.makeSwitchCaseBody(true, node.Child("test") == nil)
		}
		if st.forkContext.reachable() {
			dontForward = true
		}
	case "TryStatement":
		st.popTryContext()
	case "BreakStatement":
		a.forwardCurrentToHead(node)
		st.makeBreak(node.Child("label").Name())
		dontForward = true
	case "ContinueStatement":
		a.forwardCurrentToHead(node)
		st.makeContinue(node.Child("label").Name())
		dontForward = true
	case "ReturnStatement":
		a.forwardCurrentToHead(node)
		st.makeReturn()
		dontForward = true
	case "ThrowStatement":
		a.forwardCurrentToHead(node)
		st.makeThrow()
		dontForward = true
	case "Identifier":
		if isIdentifierReference(node) {
			st.makeFirstThrowablePathInTryBlock()
			dontForward = true
		}
	case "CallExpression", "ImportExpression", "MemberExpression", "NewExpression", "YieldExpression":
		st.makeFirstThrowablePathInTryBlock()
	case "WhileStatement", "DoWhileStatement", "ForStatement", "ForInStatement", "ForOfStatement":
		st.popLoopContext()
	case "AssignmentPattern":
		st.popForkContext()
	case "LabeledStatement":
		if !breakableType.MatchString(bodyType(node)) {
			st.popBreakContext()
		}
	}

	if !dontForward {
		a.forwardCurrentToHead(node)
	}
	a.traceNode(node, true)
}

func (a *Analyzer) postprocess(node *estree.Node) {
	switch node.Type {
	case "Program", "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression", "StaticBlock":
		a.endCodePath(node)
	case "CallExpression":
		if node.Bool("optional") && len(node.List("arguments")) == 0 {
			a.state().makeOptionalRight()
		}
	}

	if isPropertyDefinitionValue(node) {
		a.endCodePath(node)
	}
}

func (a *Analyzer) endCodePath(node *estree.Node) {
	cp := a.codePath
	if cp == nil {
		internalError(node, "ending a code path that was never started")
	}

	cp.state.makeFinal()
	a.leaveFromCurrentSegment(node)

	a.logger.Debug().Str("path", cp.id).Msg("onCodePathEnd")
	a.listener.OnCodePathEnd(cp, node)
	if a.trace {
		a.logger.Debug().Str("path", cp.id).Msg(MakeDot(cp))
	}

	a.finished = append(a.finished, cp)
	a.codePath = cp.upper
}

// traceNode appends node to the trace of every current segment.
func (a *Analyzer) traceNode(node *estree.Node, leaving bool) {
	if !a.trace {
		return
	}
	label := nodeLabel(node)
	if leaving {
		label += ":exit"
	}
	for _, seg := range a.codePath.state.currentSegments {
		seg.nodes = append(seg.nodes, label)
	}
}

var breakableType = regexp.MustCompile(`^(?:(?:Do)?While|For(?:In|Of)?|Switch)Statement$`)

func bodyType(labeled *estree.Node) string {
	if body := labeled.Child("body"); body != nil {
		return body.Type
	}
	return ""
}

func labelOf(node *estree.Node) string {
	if p := node.Parent; p != nil && p.Type == "LabeledStatement" {
		return p.Child("label").Name()
	}
	return ""
}

func isHandledLogicalOperator(op string) bool {
	return op == "&&" || op == "||" || op == "??"
}

func isLogicalAssignmentOperator(op string) bool {
	return op == "&&=" || op == "||=" || op == "??="
}

func isPropertyDefinitionValue(node *estree.Node) bool {
	p := node.Parent
	return p != nil && p.Type == "PropertyDefinition" && p.Child("value") == node
}

// isForkingByTrueOrFalse reports whether the value of node decides a branch
// of its parent.
func isForkingByTrueOrFalse(node *estree.Node) bool {
	p := node.Parent
	if p == nil {
		return false
	}
	switch p.Type {
	case "ConditionalExpression", "IfStatement", "WhileStatement", "DoWhileStatement", "ForStatement":
		return p.Child("test") == node
	case "LogicalExpression":
		return isHandledLogicalOperator(p.Str("operator"))
	case "AssignmentExpression":
		return isLogicalAssignmentOperator(p.Str("operator"))
	}
	return false
}

// isTruthyLiteral reports whether node is a literal whose value is truthy.
func isTruthyLiteral(node *estree.Node) bool {
	if node.Type != "Literal" {
		return false
	}
	if node.Has("bigint") {
		return node.Str("bigint") != "0"
	}
	v, _ := node.Attr("value")
	switch v := v.(type) {
	case nil:
		// regex literals carry no scalar value but are objects
		return node.Has("regex")
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	}
	return true
}

// isIdentifierReference reports whether an identifier reads a variable,
// as opposed to declaring one or naming a label or property.
func isIdentifierReference(node *estree.Node) bool {
	p := node.Parent
	if p == nil {
		return true
	}
	switch p.Type {
	case "LabeledStatement", "BreakStatement", "ContinueStatement", "ArrayPattern", "RestElement",
		"ImportSpecifier", "ImportDefaultSpecifier", "ImportNamespaceSpecifier", "CatchClause":
		return false
	case "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression",
		"ClassDeclaration", "ClassExpression", "VariableDeclarator":
		return p.Child("id") != node
	case "Property", "PropertyDefinition", "MethodDefinition":
		return p.Child("key") != node || p.Bool("computed") || p.Bool("shorthand")
	case "AssignmentPattern":
		return p.Child("key") != node
	}
	return true
}

func nodeLabel(node *estree.Node) string {
	switch node.Type {
	case "Identifier":
		return node.Type + " (" + node.Name() + ")"
	case "Literal":
		if raw := node.Str("raw"); raw != "" {
			return node.Type + " (" + raw + ")"
		}
	}
	return node.Type
}
