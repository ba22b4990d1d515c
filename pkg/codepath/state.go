package codepath

import (
	"slices"
)

// state is the construction scratchpad of one in-progress code path.
type state struct {
	alloc    *segmentAllocator
	onLooped func(from, to *Segment)

	forkContext   *forkContext
	choiceContext *choiceContext
	switchContext *switchContext
	tryContext    *tryContext
	loopContext   *loopContext
	breakContext  *breakContext
	chainContext  *chainContext

	currentSegments []*Segment
	initialSegment  *Segment

	finalSegments    []*Segment
	returnedSegments []*Segment
	thrownSegments   []*Segment
}

func newState(alloc *segmentAllocator, onLooped func(from, to *Segment)) *state {
	s := &state{
		alloc:       alloc,
		onLooped:    onLooped,
		forkContext: newRootForkContext(alloc),
	}
	s.initialSegment = s.forkContext.head()[0]
	return s
}

func (s *state) headSegments() []*Segment {
	return s.forkContext.head()
}

func (s *state) parentForkContext() *forkContext {
	return s.forkContext.upper
}

func (s *state) pushForkContext(forkLeavingPath bool) *forkContext {
	s.forkContext = newEmptyForkContext(s.forkContext, forkLeavingPath)
	return s.forkContext
}

func (s *state) popForkContext() *forkContext {
	last := s.forkContext
	s.forkContext = last.upper
	s.forkContext.replaceHead(last.makeNext(0, -1))
	return last
}

func (s *state) forkPath() {
	s.forkContext.add(s.parentForkContext().makeNext(-1, -1))
}

func (s *state) forkBypassPath() {
	s.forkContext.add(s.parentForkContext().head())
}

// addReturned records path exits through return or falling off the end.
func (s *state) addReturned(segments []*Segment) {
	for _, seg := range segments {
		s.returnedSegments = append(s.returnedSegments, seg)
		if !slices.Contains(s.thrownSegments, seg) {
			s.finalSegments = append(s.finalSegments, seg)
		}
	}
}

func (s *state) addThrown(segments []*Segment) {
	for _, seg := range segments {
		s.thrownSegments = append(s.thrownSegments, seg)
		if !slices.Contains(s.returnedSegments, seg) {
			s.finalSegments = append(s.finalSegments, seg)
		}
	}
}

// makeReturn routes the head to the innermost finalizer, or to the path's
// returned segments, and continues with unreachable code.
func (s *state) makeReturn() {
	fc := s.forkContext
	if !fc.reachable() {
		return
	}
	if ctx := s.returnTryContext(); ctx != nil {
		ctx.returned.add(fc.head())
	} else {
		s.addReturned(fc.head())
	}
	fc.replaceHead(fc.makeUnreachable(-1, -1))
}

func (s *state) makeThrow() {
	fc := s.forkContext
	if !fc.reachable() {
		return
	}
	if ctx := s.throwTryContext(); ctx != nil {
		ctx.thrown.add(fc.head())
	} else {
		s.addThrown(fc.head())
	}
	fc.replaceHead(fc.makeUnreachable(-1, -1))
}

// makeFinal records the segments that fall off the end of the path.
func (s *state) makeFinal() {
	segs := s.currentSegments
	if len(segs) > 0 && segs[0].reachable {
		s.addReturned(segs)
	}
}

// makeLooped adds back-edges from each of from to the matching segment of
// to and reports them.
func (s *state) makeLooped(unflattenedFrom, unflattenedTo []*Segment) {
	from := flattenUnused(unflattenedFrom)
	to := flattenUnused(unflattenedTo)

	for i := range min(len(from), len(to)) {
		f, t := from[i], to[i]
		if t.reachable {
			f.nextSegments = append(f.nextSegments, t)
		}
		if f.reachable {
			t.prevSegments = append(t.prevSegments, f)
		}
		f.allNextSegments = append(f.allNextSegments, t)
		t.allPrevSegments = append(t.allPrevSegments, f)

		if len(t.allPrevSegments) >= 2 {
			t.markPrevAsLooped(f)
		}
		s.onLooped(f, t)
	}
}

// removeConnection drops the edges between prev[i] and next[i].
func removeConnection(prev, next []*Segment) {
	for i, p := range prev {
		n := next[i]
		p.nextSegments = remove(p.nextSegments, n)
		p.allNextSegments = remove(p.allNextSegments, n)
		n.prevSegments = remove(n.prevSegments, p)
		n.allPrevSegments = remove(n.allPrevSegments, p)
	}
}

func remove(xs []*Segment, x *Segment) []*Segment {
	if i := slices.Index(xs, x); i >= 0 {
		return slices.Delete(xs, i, i+1)
	}
	return xs
}
