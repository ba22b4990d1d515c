// Package codepath builds the intraprocedural control-flow graph of a
// JavaScript program while its syntax tree is walked once.
//
// Every Program, function, class field initializer and class static block
// gets its own CodePath made of Segments (basic blocks). The Analyzer is
// driven by the enter/leave callbacks of the tree walk and reports path and
// segment lifecycle events to a Listener.
package codepath

import "github.com/panbanda/jsflow/pkg/estree"

// Origin tells which construct started a code path.
type Origin string

const (
	OriginProgram               Origin = "program"
	OriginFunction              Origin = "function"
	OriginClassFieldInitializer Origin = "class-field-initializer"
	OriginClassStaticBlock      Origin = "class-static-block"
)

// CodePath is the control-flow graph of one program, function, class field
// initializer or class static block.
type CodePath struct {
	id       string
	origin   Origin
	upper    *CodePath
	children []*CodePath
	node     *estree.Node
	state    *state
}

func newCodePath(id string, origin Origin, upper *CodePath, node *estree.Node, onLooped func(from, to *Segment)) *CodePath {
	cp := &CodePath{
		id:     id,
		origin: origin,
		upper:  upper,
		node:   node,
		state:  newState(newSegmentAllocator(id), onLooped),
	}
	if upper != nil {
		upper.children = append(upper.children, cp)
	}
	return cp
}

func (cp *CodePath) ID() string                  { return cp.id }
func (cp *CodePath) Origin() Origin              { return cp.origin }
func (cp *CodePath) Upper() *CodePath            { return cp.upper }
func (cp *CodePath) ChildCodePaths() []*CodePath { return cp.children }

// Node returns the syntax node that started the path.
func (cp *CodePath) Node() *estree.Node { return cp.node }

// InitialSegment is the only segment without predecessors.
func (cp *CodePath) InitialSegment() *Segment { return cp.state.initialSegment }

// FinalSegments holds the returned and thrown segments in discovery order.
func (cp *CodePath) FinalSegments() []*Segment { return cp.state.finalSegments }

// ReturnedSegments holds the segments that end in a return statement or by
// falling off the end.
func (cp *CodePath) ReturnedSegments() []*Segment { return cp.state.returnedSegments }

// ThrownSegments holds the segments that end in an uncaught throw.
func (cp *CodePath) ThrownSegments() []*Segment { return cp.state.thrownSegments }

// CurrentSegments returns the segments control is in at the current point of
// the traversal. It is empty once the path has ended.
func (cp *CodePath) CurrentSegments() []*Segment { return cp.state.currentSegments }

// Segments returns every segment control entered, in creation order.
func (cp *CodePath) Segments() []*Segment {
	out := make([]*Segment, 0, len(cp.state.alloc.segments))
	for _, s := range cp.state.alloc.segments {
		if s.used {
			out = append(out, s)
		}
	}
	return out
}

// TraverseOptions bounds TraverseSegments. A nil First starts at the initial
// segment; a nil Last walks to the ends of the path.
type TraverseOptions struct {
	First *Segment
	Last  *Segment
}

// Controller lets a traversal visitor prune or stop the walk.
type Controller struct {
	skip   bool
	broken bool
}

// Skip stops following the current segment's successors. Segments that are
// also reachable another way are still visited.
func (c *Controller) Skip() { c.skip = true }

// Break stops the traversal.
func (c *Controller) Break() { c.broken = true }

type traverseItem struct {
	segment *Segment
	index   int
}

// TraverseSegments walks the reachable segments of cp depth-first along
// NextSegments, visiting a segment only after all its non-looping
// predecessors. Each segment is visited at most once.
func (cp *CodePath) TraverseSegments(opts TraverseOptions, visit func(*Segment, *Controller)) {
	start := opts.First
	if start == nil {
		start = cp.InitialSegment()
	}
	last := opts.Last

	visited := make(map[*Segment]bool)
	// live marks segments whose successors are still followed.
	live := make(map[*Segment]bool)
	ctrl := &Controller{}
	stack := []*traverseItem{{segment: start}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		seg := item.segment

		if item.index == 0 {
			if visited[seg] {
				stack = stack[:len(stack)-1]
				continue
			}
			if seg != start && !prevSegmentsDone(seg, visited) {
				stack = stack[:len(stack)-1]
				continue
			}
			visited[seg] = true

			if seg == start || anyLive(seg, live) {
				ctrl.skip = false
				visit(seg, ctrl)
				if seg == last {
					ctrl.skip = true
				}
				if ctrl.broken {
					return
				}
				live[seg] = !ctrl.skip
			}
		}

		end := len(seg.nextSegments) - 1
		switch {
		case item.index < end:
			item.index++
			stack = append(stack, &traverseItem{segment: seg.nextSegments[item.index-1]})
		case item.index == end:
			item.segment = seg.nextSegments[item.index]
			item.index = 0
		default:
			stack = stack[:len(stack)-1]
		}
	}
}

func prevSegmentsDone(seg *Segment, visited map[*Segment]bool) bool {
	for _, p := range seg.prevSegments {
		if !visited[p] && !seg.isLoopedPrev(p) {
			return false
		}
	}
	return true
}

func anyLive(seg *Segment, live map[*Segment]bool) bool {
	for _, p := range seg.prevSegments {
		if live[p] {
			return true
		}
	}
	return false
}
