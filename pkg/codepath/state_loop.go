package codepath

type breakContext struct {
	upper     *breakContext
	breakable bool
	label     string
	broken    *forkContext
}

// loopContext carries the segment roles of all five loop kinds; each kind
// only uses the fields for its own clauses.
type loopContext struct {
	upper  *loopContext
	kind   string
	label  string
	broken *forkContext

	// testIsTrue is set when the test is a truthy literal, so the false
	// branch never leaves the loop.
	testIsTrue bool

	continueDestSegments []*Segment

	// do-while
	entrySegments []*Segment
	continueFork  *forkContext

	// for
	endOfInitSegments   []*Segment
	testSegments        []*Segment
	endOfTestSegments   []*Segment
	updateSegments      []*Segment
	endOfUpdateSegments []*Segment

	// for-in, for-of
	prevSegments      []*Segment
	leftSegments      []*Segment
	endOfLeftSegments []*Segment
}

func (s *state) pushBreakContext(breakable bool, label string) *breakContext {
	s.breakContext = &breakContext{
		upper:     s.breakContext,
		breakable: breakable,
		label:     label,
		broken:    newEmptyForkContext(s.forkContext, false),
	}
	return s.breakContext
}

func (s *state) popBreakContext() *breakContext {
	ctx := s.breakContext
	fc := s.forkContext
	s.breakContext = ctx.upper

	// Labeled blocks merge their breaks here; loops and switches do it
	// themselves.
	if !ctx.breakable && !ctx.broken.empty() {
		ctx.broken.add(fc.head())
		fc.replaceHead(ctx.broken.makeNext(0, -1))
	}
	return ctx
}

func (s *state) makeBreak(label string) {
	fc := s.forkContext
	if !fc.reachable() {
		return
	}
	if ctx := s.findBreakContext(label); ctx != nil {
		ctx.broken.add(fc.head())
	}
	fc.replaceHead(fc.makeUnreachable(-1, -1))
}

func (s *state) makeContinue(label string) {
	fc := s.forkContext
	if !fc.reachable() {
		return
	}

	if ctx := s.findContinueContext(label); ctx != nil {
		if ctx.continueDestSegments != nil {
			s.makeLooped(fc.head(), ctx.continueDestSegments)

			// The left side of for-in/of may end the loop.
			if ctx.kind == "ForInStatement" || ctx.kind == "ForOfStatement" {
				ctx.broken.add(fc.head())
			}
		} else {
			ctx.continueFork.add(fc.head())
		}
	}
	fc.replaceHead(fc.makeUnreachable(-1, -1))
}

func (s *state) findBreakContext(label string) *breakContext {
	for ctx := s.breakContext; ctx != nil; ctx = ctx.upper {
		if label != "" && ctx.label == label {
			return ctx
		}
		if label == "" && ctx.breakable {
			return ctx
		}
	}
	return nil
}

func (s *state) findContinueContext(label string) *loopContext {
	if label == "" {
		return s.loopContext
	}
	for ctx := s.loopContext; ctx != nil; ctx = ctx.upper {
		if ctx.label == label {
			return ctx
		}
	}
	return nil
}

func (s *state) pushLoopContext(kind, label string) {
	broken := s.pushBreakContext(true, label).broken
	ctx := &loopContext{
		upper:  s.loopContext,
		kind:   kind,
		label:  label,
		broken: broken,
	}

	switch kind {
	case "WhileStatement", "ForStatement":
		s.pushChoiceContext(choiceLoop, false)
	case "DoWhileStatement":
		s.pushChoiceContext(choiceLoop, false)
		ctx.continueFork = newEmptyForkContext(s.forkContext, false)
	case "ForInStatement", "ForOfStatement":
	default:
		internalError(nil, "unknown loop type %q", kind)
	}
	s.loopContext = ctx
}

func (s *state) popLoopContext() {
	ctx := s.loopContext
	s.loopContext = ctx.upper
	fc := s.forkContext
	broken := s.popBreakContext().broken

	switch ctx.kind {
	case "WhileStatement", "ForStatement":
		s.popChoiceContext()
		s.makeLooped(fc.head(), ctx.continueDestSegments)

	case "DoWhileStatement":
		choice := s.popChoiceContext()
		if !choice.processed {
			choice.trueFork.add(fc.head())
			choice.falseFork.add(fc.head())
		}
		if !ctx.testIsTrue {
			broken.addAll(choice.falseFork)
		}
		for _, segs := range choice.trueFork.segmentsList {
			s.makeLooped(segs, ctx.entrySegments)
		}

	case "ForInStatement", "ForOfStatement":
		broken.add(fc.head())
		s.makeLooped(fc.head(), ctx.leftSegments)
	}

	if broken.empty() {
		fc.replaceHead(fc.makeUnreachable(-1, -1))
	} else {
		fc.replaceHead(broken.makeNext(0, -1))
	}
}

func (s *state) makeWhileTest(testIsTrue bool) {
	ctx := s.loopContext
	fc := s.forkContext
	testSegments := fc.makeNext(0, -1)

	ctx.testIsTrue = testIsTrue
	ctx.continueDestSegments = testSegments
	fc.replaceHead(testSegments)
}

func (s *state) makeWhileBody() {
	ctx := s.loopContext
	choice := s.choiceContext
	fc := s.forkContext

	if !choice.processed {
		choice.trueFork.add(fc.head())
		choice.falseFork.add(fc.head())
	}
	if !ctx.testIsTrue {
		ctx.broken.addAll(choice.falseFork)
	}
	fc.replaceHead(choice.trueFork.makeNext(0, -1))
}

func (s *state) makeDoWhileBody() {
	ctx := s.loopContext
	fc := s.forkContext
	bodySegments := fc.makeNext(-1, -1)

	ctx.entrySegments = bodySegments
	fc.replaceHead(bodySegments)
}

func (s *state) makeDoWhileTest(testIsTrue bool) {
	ctx := s.loopContext
	fc := s.forkContext

	ctx.testIsTrue = testIsTrue

	// Continue statements in the body jump to the test.
	if !ctx.continueFork.empty() {
		ctx.continueFork.add(fc.head())
		fc.replaceHead(ctx.continueFork.makeNext(0, -1))
	}
}

func (s *state) makeForTest(testIsTrue bool) {
	ctx := s.loopContext
	fc := s.forkContext
	endOfInit := fc.head()
	testSegments := fc.makeNext(-1, -1)

	ctx.testIsTrue = testIsTrue
	ctx.endOfInitSegments = endOfInit
	ctx.testSegments = testSegments
	ctx.continueDestSegments = testSegments
	fc.replaceHead(testSegments)
}

func (s *state) makeForUpdate() {
	ctx := s.loopContext
	fc := s.forkContext

	if ctx.testSegments != nil {
		s.finalizeTestSegmentsOfFor(ctx, fc.head())
	} else {
		ctx.endOfInitSegments = fc.head()
	}

	// The update is entered from the end of the body, which is wired later.
	updateSegments := fc.makeDisconnected(-1, -1)
	ctx.updateSegments = updateSegments
	ctx.continueDestSegments = updateSegments
	fc.replaceHead(updateSegments)
}

func (s *state) makeForBody() {
	ctx := s.loopContext
	fc := s.forkContext

	switch {
	case ctx.updateSegments != nil:
		ctx.endOfUpdateSegments = fc.head()
		if ctx.testSegments != nil {
			s.makeLooped(ctx.endOfUpdateSegments, ctx.testSegments)
		}
	case ctx.testSegments != nil:
		s.finalizeTestSegmentsOfFor(ctx, fc.head())
	default:
		ctx.endOfInitSegments = fc.head()
	}

	bodySegments := ctx.endOfTestSegments
	if bodySegments == nil {
		// No test: the body follows the init and, from the second
		// iteration on, the update.
		prev := newEmptyForkContext(fc, false)
		prev.add(ctx.endOfInitSegments)
		if ctx.endOfUpdateSegments != nil {
			prev.add(ctx.endOfUpdateSegments)
		}
		bodySegments = prev.makeNext(0, -1)
	}
	if ctx.continueDestSegments == nil {
		ctx.continueDestSegments = bodySegments
	}
	fc.replaceHead(bodySegments)
}

func (s *state) finalizeTestSegmentsOfFor(ctx *loopContext, head []*Segment) {
	choice := s.choiceContext
	if !choice.processed {
		choice.trueFork.add(head)
		choice.falseFork.add(head)
		choice.nullishFork.add(head)
	}
	if !ctx.testIsTrue {
		ctx.broken.addAll(choice.falseFork)
	}
	ctx.endOfTestSegments = choice.trueFork.makeNext(0, -1)
}

func (s *state) makeForInOfLeft() {
	ctx := s.loopContext
	fc := s.forkContext
	leftSegments := fc.makeDisconnected(-1, -1)

	ctx.prevSegments = fc.head()
	ctx.leftSegments = leftSegments
	ctx.continueDestSegments = leftSegments
	fc.replaceHead(leftSegments)
}

func (s *state) makeForInOfRight() {
	ctx := s.loopContext
	fc := s.forkContext
	temp := newEmptyForkContext(fc, false)

	temp.add(ctx.prevSegments)
	rightSegments := temp.makeNext(-1, -1)

	ctx.endOfLeftSegments = fc.head()
	fc.replaceHead(rightSegments)
}

func (s *state) makeForInOfBody() {
	ctx := s.loopContext
	fc := s.forkContext
	temp := newEmptyForkContext(fc, false)

	temp.add(ctx.endOfLeftSegments)
	bodySegments := temp.makeNext(-1, -1)

	// The right side is evaluated once, then control enters left.
	s.makeLooped(fc.head(), ctx.leftSegments)
	ctx.broken.add(fc.head())
	fc.replaceHead(bodySegments)
}
