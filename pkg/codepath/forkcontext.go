package codepath

// forkContext holds the parallel segment lists of one fork level. count is
// the number of parallel paths (more than one while leaving a finally block).
type forkContext struct {
	alloc        *segmentAllocator
	upper        *forkContext
	count        int
	segmentsList [][]*Segment
}

func newRootForkContext(alloc *segmentAllocator) *forkContext {
	f := &forkContext{alloc: alloc, count: 1}
	f.add([]*Segment{alloc.root()})
	return f
}

func newEmptyForkContext(parent *forkContext, forkLeavingPath bool) *forkContext {
	count := parent.count
	if forkLeavingPath {
		count *= 2
	}
	return &forkContext{alloc: parent.alloc, upper: parent, count: count}
}

func (f *forkContext) head() []*Segment {
	if len(f.segmentsList) == 0 {
		return nil
	}
	return f.segmentsList[len(f.segmentsList)-1]
}

func (f *forkContext) empty() bool {
	return f == nil || len(f.segmentsList) == 0
}

func (f *forkContext) reachable() bool {
	h := f.head()
	return len(h) > 0 && anyReachable(h)
}

func (f *forkContext) makeNext(begin, end int) []*Segment {
	return f.makeSegments(begin, end, f.alloc.next)
}

func (f *forkContext) makeUnreachable(begin, end int) []*Segment {
	return f.makeSegments(begin, end, f.alloc.unreachable)
}

// makeDetachedUnreachable creates count unreachable segments that follow
// nothing.
func (f *forkContext) makeDetachedUnreachable() []*Segment {
	segments := make([]*Segment, 0, f.count)
	for range f.count {
		segments = append(segments, f.alloc.unreachable(nil))
	}
	return segments
}

func (f *forkContext) makeDisconnected(begin, end int) []*Segment {
	return f.makeSegments(begin, end, f.alloc.disconnected)
}

// makeSegments creates count segments, the i-th one following the i-th
// segment of every list in [begin, end]. Negative indices count from the end.
func (f *forkContext) makeSegments(begin, end int, create func([]*Segment) *Segment) []*Segment {
	list := f.segmentsList
	if begin < 0 {
		begin += len(list)
	}
	if end < 0 {
		end += len(list)
	}
	if begin < 0 || end >= len(list) {
		internalError(nil, "fork context range [%d, %d] out of bounds (%d lists)", begin, end, len(list))
	}

	segments := make([]*Segment, 0, f.count)
	for i := 0; i < f.count; i++ {
		allPrev := make([]*Segment, 0, end-begin+1)
		for j := begin; j <= end; j++ {
			allPrev = append(allPrev, list[j][i])
		}
		segments = append(segments, create(allPrev))
	}
	return segments
}

// mergeExtra merges pairs of segments until no more than count remain.
func (f *forkContext) mergeExtra(segments []*Segment) []*Segment {
	current := segments
	for len(current) > f.count {
		half := len(current) / 2
		merged := make([]*Segment, 0, half)
		for i := 0; i < half; i++ {
			merged = append(merged, f.alloc.next([]*Segment{current[i], current[i+half]}))
		}
		current = merged
	}
	return current
}

func (f *forkContext) add(segments []*Segment) {
	if len(segments) < f.count {
		internalError(nil, "fork context expects %d segments, got %d", f.count, len(segments))
	}
	f.segmentsList = append(f.segmentsList, f.mergeExtra(segments))
}

func (f *forkContext) replaceHead(segments []*Segment) {
	if len(segments) < f.count {
		internalError(nil, "fork context expects %d segments, got %d", f.count, len(segments))
	}
	if len(f.segmentsList) == 0 {
		f.segmentsList = append(f.segmentsList, f.mergeExtra(segments))
		return
	}
	f.segmentsList[len(f.segmentsList)-1] = f.mergeExtra(segments)
}

func (f *forkContext) addAll(other *forkContext) {
	if other.count != f.count {
		internalError(nil, "fork context count mismatch: %d != %d", other.count, f.count)
	}
	f.segmentsList = append(f.segmentsList, other.segmentsList...)
}

func (f *forkContext) clear() {
	f.segmentsList = nil
}
