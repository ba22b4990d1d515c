package codepath

import (
	"slices"
	"strconv"
)

// Segment is a basic block of a code path.
//
// NextSegments and PrevSegments only hold edges between reachable segments.
// AllNextSegments and AllPrevSegments additionally hold edges to and from
// unreachable segments.
type Segment struct {
	id              string
	nextSegments    []*Segment
	prevSegments    []*Segment
	allNextSegments []*Segment
	allPrevSegments []*Segment
	reachable       bool

	// construction state
	used               bool
	loopedPrevSegments []*Segment
	nodes              []string
}

func (s *Segment) ID() string                   { return s.id }
func (s *Segment) Reachable() bool              { return s.reachable }
func (s *Segment) NextSegments() []*Segment     { return s.nextSegments }
func (s *Segment) PrevSegments() []*Segment     { return s.prevSegments }
func (s *Segment) AllNextSegments() []*Segment  { return s.allNextSegments }
func (s *Segment) AllPrevSegments() []*Segment  { return s.allPrevSegments }
func (s *Segment) String() string               { return s.id }
func (s *Segment) isLoopedPrev(p *Segment) bool { return slices.Contains(s.loopedPrevSegments, p) }

func newSegment(id string, allPrev []*Segment, reachable bool) *Segment {
	s := &Segment{
		id:              id,
		allPrevSegments: allPrev,
		reachable:       reachable,
	}
	for _, p := range allPrev {
		if p.reachable {
			s.prevSegments = append(s.prevSegments, p)
		}
	}
	return s
}

// markUsed links s into its predecessors the first time control enters it.
func (s *Segment) markUsed() {
	if s.used {
		return
	}
	s.used = true

	for _, p := range s.allPrevSegments {
		p.allNextSegments = append(p.allNextSegments, s)
		if s.reachable {
			p.nextSegments = append(p.nextSegments, s)
		}
	}
}

func (s *Segment) markPrevAsLooped(p *Segment) {
	s.loopedPrevSegments = append(s.loopedPrevSegments, p)
}

func anyReachable(segments []*Segment) bool {
	return slices.ContainsFunc(segments, (*Segment).Reachable)
}

// flattenUnused replaces every segment control never entered with its own
// predecessors, dropping duplicates.
func flattenUnused(segments []*Segment) []*Segment {
	done := make(map[*Segment]bool, len(segments))
	out := make([]*Segment, 0, len(segments))

	for _, s := range segments {
		if done[s] {
			continue
		}
		if s.used {
			done[s] = true
			out = append(out, s)
			continue
		}
		for _, p := range s.allPrevSegments {
			if !done[p] {
				done[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// segmentAllocator hands out segment ids for one code path and keeps every
// segment it created.
type segmentAllocator struct {
	prefix   string
	n        int
	segments []*Segment
}

func newSegmentAllocator(pathID string) *segmentAllocator {
	return &segmentAllocator{prefix: pathID + "_"}
}

func (a *segmentAllocator) nextID() string {
	a.n++
	return a.prefix + strconv.Itoa(a.n)
}

func (a *segmentAllocator) track(s *Segment) *Segment {
	a.segments = append(a.segments, s)
	return s
}

func (a *segmentAllocator) root() *Segment {
	return a.track(newSegment(a.nextID(), nil, true))
}

// next creates a segment that follows allPrev.
func (a *segmentAllocator) next(allPrev []*Segment) *Segment {
	return a.track(newSegment(a.nextID(), flattenUnused(allPrev), anyReachable(allPrev)))
}

// unreachable creates an unreachable segment after allPrev. It counts as
// used right away since control never enters it.
func (a *segmentAllocator) unreachable(allPrev []*Segment) *Segment {
	s := a.track(newSegment(a.nextID(), flattenUnused(allPrev), false))
	s.markUsed()
	return s
}

// disconnected creates a segment with no predecessors whose reachability
// still follows allPrev. It is wired later by a loop-back.
func (a *segmentAllocator) disconnected(allPrev []*Segment) *Segment {
	return a.track(newSegment(a.nextID(), nil, anyReachable(allPrev)))
}

// idGenerator produces code path ids.
type idGenerator struct {
	prefix string
	n      int
}

func (g *idGenerator) next() string {
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}
