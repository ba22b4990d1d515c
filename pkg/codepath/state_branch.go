package codepath

// choiceKind identifies what a choice context forks on.
type choiceKind string

const (
	choiceAnd     choiceKind = "&&"
	choiceOr      choiceKind = "||"
	choiceNullish choiceKind = "??"
	choiceTest    choiceKind = "test"
	choiceLoop    choiceKind = "loop"
)

// choiceContext tracks the true/false/nullish exits of a condition.
type choiceContext struct {
	upper             *choiceContext
	kind              choiceKind
	isForkingAsResult bool
	trueFork          *forkContext
	falseFork         *forkContext
	nullishFork       *forkContext
	processed         bool
}

type chainContext struct {
	upper        *chainContext
	countChoices int
}

type switchContext struct {
	upper               *switchContext
	hasCase             bool
	defaultSegments     []*Segment
	defaultBodySegments []*Segment
	foundEmptyDefault   bool
	lastIsDefault       bool
	countForks          int
}

type tryPosition int

const (
	positionTry tryPosition = iota
	positionCatch
	positionFinally
)

type tryContext struct {
	upper                  *tryContext
	position               tryPosition
	hasFinalizer           bool
	returned               *forkContext
	thrown                 *forkContext
	lastOfTryIsReachable   bool
	lastOfCatchIsReachable bool
}

func (s *state) pushChoiceContext(kind choiceKind, isForkingAsResult bool) {
	s.choiceContext = &choiceContext{
		upper:             s.choiceContext,
		kind:              kind,
		isForkingAsResult: isForkingAsResult,
		trueFork:          newEmptyForkContext(s.forkContext, false),
		falseFork:         newEmptyForkContext(s.forkContext, false),
		nullishFork:       newEmptyForkContext(s.forkContext, false),
	}
}

func (s *state) popChoiceContext() *choiceContext {
	ctx := s.choiceContext
	s.choiceContext = ctx.upper
	fc := s.forkContext
	head := fc.head()

	switch ctx.kind {
	case choiceAnd, choiceOr, choiceNullish:
		if !ctx.processed {
			ctx.trueFork.add(head)
			ctx.falseFork.add(head)
			ctx.nullishFork.add(head)
		}
		// The result of this expression is the test of an enclosing
		// choice, so its exits belong to the parent.
		if ctx.isForkingAsResult {
			parent := s.choiceContext
			parent.trueFork.addAll(ctx.trueFork)
			parent.falseFork.addAll(ctx.falseFork)
			parent.nullishFork.addAll(ctx.nullishFork)
			parent.processed = true
			return ctx
		}
	case choiceTest:
		if !ctx.processed {
			ctx.trueFork.clear()
			ctx.trueFork.add(head)
		} else {
			ctx.falseFork.clear()
			ctx.falseFork.add(head)
		}
	case choiceLoop:
		return ctx
	default:
		internalError(nil, "unknown choice kind %q", ctx.kind)
	}

	merged := ctx.trueFork
	merged.addAll(ctx.falseFork)
	fc.replaceHead(merged.makeNext(0, -1))
	return ctx
}

// makeLogicalRight starts the right operand of a logical expression.
func (s *state) makeLogicalRight() {
	ctx := s.choiceContext
	fc := s.forkContext

	if ctx.processed {
		// The left operand was itself a logical expression that already
		// recorded its exits.
		var prev *forkContext
		switch ctx.kind {
		case choiceAnd:
			prev = ctx.trueFork
		case choiceOr:
			prev = ctx.falseFork
		case choiceNullish:
			prev = ctx.nullishFork
		default:
			internalError(nil, "unexpected choice kind %q for logical right", ctx.kind)
		}
		fc.replaceHead(prev.makeNext(0, -1))
		prev.clear()
		ctx.processed = false
		return
	}

	switch ctx.kind {
	case choiceAnd:
		ctx.falseFork.add(fc.head())
	case choiceOr:
		ctx.trueFork.add(fc.head())
	case choiceNullish:
		ctx.trueFork.add(fc.head())
		ctx.falseFork.add(fc.head())
	default:
		internalError(nil, "unexpected choice kind %q for logical right", ctx.kind)
	}
	fc.replaceHead(fc.makeNext(-1, -1))
}

func (s *state) makeIfConsequent() {
	ctx := s.choiceContext
	fc := s.forkContext

	if !ctx.processed {
		ctx.trueFork.add(fc.head())
		ctx.falseFork.add(fc.head())
		ctx.nullishFork.add(fc.head())
	}
	ctx.processed = false
	fc.replaceHead(ctx.trueFork.makeNext(0, -1))
}

func (s *state) makeIfAlternate() {
	ctx := s.choiceContext
	fc := s.forkContext

	ctx.trueFork.clear()
	ctx.trueFork.add(fc.head())
	ctx.processed = true
	fc.replaceHead(ctx.falseFork.makeNext(0, -1))
}

func (s *state) pushChainContext() {
	s.chainContext = &chainContext{upper: s.chainContext}
}

func (s *state) popChainContext() {
	ctx := s.chainContext
	s.chainContext = ctx.upper
	for i := ctx.countChoices; i > 0; i-- {
		s.popChoiceContext()
	}
}

// makeOptionalNode forks at an optional call or member access (a?.b).
func (s *state) makeOptionalNode() {
	if s.chainContext != nil {
		s.chainContext.countChoices++
		s.pushChoiceContext(choiceNullish, false)
	}
}

func (s *state) makeOptionalRight() {
	if s.chainContext != nil {
		s.makeLogicalRight()
	}
}

func (s *state) pushSwitchContext(hasCase bool, label string) {
	s.switchContext = &switchContext{upper: s.switchContext, hasCase: hasCase}
	s.pushBreakContext(true, label)
}

func (s *state) popSwitchContext() {
	ctx := s.switchContext
	s.switchContext = ctx.upper
	fc := s.forkContext
	broken := s.popBreakContext().broken

	if ctx.countForks == 0 {
		if !broken.empty() {
			broken.add(fc.makeNext(-1, -1))
			fc.replaceHead(broken.makeNext(0, -1))
		}
		return
	}

	lastSegments := fc.head()
	s.forkBypassPath()
	lastCaseSegments := fc.head()

	broken.add(lastSegments)

	// A default clause that is not last is entered when no case matches,
	// so the last case's fallthrough is redirected to it.
	if !ctx.lastIsDefault {
		if ctx.defaultBodySegments != nil {
			removeConnection(ctx.defaultSegments, ctx.defaultBodySegments)
			s.makeLooped(lastCaseSegments, ctx.defaultBodySegments)
		} else {
			broken.add(lastCaseSegments)
		}
	}

	for range ctx.countForks {
		s.forkContext = s.forkContext.upper
	}
	s.forkContext.replaceHead(broken.makeNext(0, -1))
}

func (s *state) makeSwitchCaseBody(isEmpty, isDefault bool) {
	ctx := s.switchContext
	if !ctx.hasCase {
		return
	}

	parent := s.forkContext
	fc := s.pushForkContext(false)
	fc.add(parent.makeNext(0, -1))

	if isDefault {
		ctx.defaultSegments = parent.head()
		if isEmpty {
			ctx.foundEmptyDefault = true
		} else {
			ctx.defaultBodySegments = fc.head()
		}
	} else if !isEmpty && ctx.foundEmptyDefault {
		ctx.foundEmptyDefault = false
		ctx.defaultBodySegments = fc.head()
	}

	ctx.lastIsDefault = isDefault
	ctx.countForks++
}

func (s *state) pushTryContext(hasFinalizer bool) {
	ctx := &tryContext{
		upper:        s.tryContext,
		position:     positionTry,
		hasFinalizer: hasFinalizer,
		thrown:       newEmptyForkContext(s.forkContext, false),
	}
	if hasFinalizer {
		ctx.returned = newEmptyForkContext(s.forkContext, false)
	}
	s.tryContext = ctx
}

func (s *state) popTryContext() {
	ctx := s.tryContext
	s.tryContext = ctx.upper

	if ctx.position == positionCatch {
		s.popForkContext()
		return
	}

	if ctx.returned.empty() && ctx.thrown.empty() {
		return
	}

	// The finally block ran on doubled paths: the first half continues
	// normally, the second half leaves through return or throw.
	head := s.forkContext.head()
	s.forkContext = s.forkContext.upper
	half := len(head) / 2
	normal, leaving := head[:half], head[half:]

	if !ctx.returned.empty() {
		if outer := s.returnTryContext(); outer != nil {
			outer.returned.add(leaving)
		} else {
			s.addReturned(leaving)
		}
	}
	if !ctx.thrown.empty() {
		if outer := s.throwTryContext(); outer != nil {
			outer.thrown.add(leaving)
		} else {
			s.addThrown(leaving)
		}
	}

	s.forkContext.replaceHead(normal)

	if !ctx.lastOfTryIsReachable && !ctx.lastOfCatchIsReachable {
		s.forkContext.replaceHead(s.forkContext.makeDetachedUnreachable())
	}
}

func (s *state) makeCatchBlock() {
	ctx := s.tryContext
	fc := s.forkContext
	thrown := ctx.thrown

	ctx.position = positionCatch
	ctx.thrown = newEmptyForkContext(fc, false)
	ctx.lastOfTryIsReachable = fc.reachable()

	thrown.add(fc.head())
	thrownSegments := thrown.makeNext(0, -1)

	s.pushForkContext(false)
	s.forkBypassPath()
	s.forkContext.add(thrownSegments)
}

func (s *state) makeFinallyBlock() {
	ctx := s.tryContext
	fc := s.forkContext
	returned := ctx.returned
	thrown := ctx.thrown
	headOfLeaving := fc.head()

	if ctx.position == positionCatch {
		s.popForkContext()
		fc = s.forkContext
		ctx.lastOfCatchIsReachable = fc.reachable()
	} else {
		ctx.lastOfTryIsReachable = fc.reachable()
	}
	ctx.position = positionFinally

	if returned.empty() && thrown.empty() {
		return
	}

	segments := fc.makeNext(-1, -1)
	for i := range fc.count {
		prev := []*Segment{headOfLeaving[i]}
		for _, list := range returned.segmentsList {
			prev = append(prev, list[i])
		}
		for _, list := range thrown.segmentsList {
			prev = append(prev, list[i])
		}
		segments = append(segments, s.alloc.next(prev))
	}

	s.pushForkContext(true)
	s.forkContext.add(segments)
}

// makeFirstThrowablePathInTryBlock forks to the catch clause at the first
// expression in a try block that may throw.
func (s *state) makeFirstThrowablePathInTryBlock() {
	fc := s.forkContext
	if !fc.reachable() {
		return
	}

	ctx := s.throwTryContext()
	if ctx == nil || ctx.position != positionTry || !ctx.thrown.empty() {
		return
	}

	ctx.thrown.add(fc.head())
	fc.replaceHead(fc.makeNext(-1, -1))
}

// returnTryContext returns the try statement whose finalizer a return
// statement passes through, or nil when it leaves the path directly.
func (s *state) returnTryContext() *tryContext {
	for ctx := s.tryContext; ctx != nil; ctx = ctx.upper {
		if ctx.hasFinalizer && ctx.position != positionFinally {
			return ctx
		}
	}
	return nil
}

func (s *state) throwTryContext() *tryContext {
	for ctx := s.tryContext; ctx != nil; ctx = ctx.upper {
		if ctx.position == positionTry || (ctx.hasFinalizer && ctx.position == positionCatch) {
			return ctx
		}
	}
	return nil
}
