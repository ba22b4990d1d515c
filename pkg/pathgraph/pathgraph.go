// Package pathgraph derives graph metrics from finished code paths: the
// reachable segment set, loops, cyclomatic number and path depth.
package pathgraph

import (
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/jsflow/pkg/codepath"
)

// Graph is a code path as a gonum directed graph. Node ids are the positions
// of the segments in CodePath.Segments().
type Graph struct {
	Path *codepath.CodePath

	directed  *simple.DirectedGraph
	segments  []*codepath.Segment
	index     map[*codepath.Segment]int64
	selfLoops []int64
	edges     int
}

// Build converts cp. Only edges between reachable segments are kept, which
// is the graph control can actually follow.
func Build(cp *codepath.CodePath) *Graph {
	g := &Graph{
		Path:     cp,
		directed: simple.NewDirectedGraph(),
		segments: cp.Segments(),
		index:    make(map[*codepath.Segment]int64),
	}

	for i, seg := range g.segments {
		id := int64(i)
		g.index[seg] = id
		g.directed.AddNode(simple.Node(id))
	}

	for _, seg := range g.segments {
		from := g.index[seg]
		for _, next := range seg.NextSegments() {
			to, ok := g.index[next]
			if !ok {
				continue
			}
			g.edges++
			// simple graphs do not support self edges
			if from == to {
				g.selfLoops = append(g.selfLoops, from)
				continue
			}
			g.directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return g
}

// Segment returns the segment with the given node id.
func (g *Graph) Segment(id int64) *codepath.Segment {
	return g.segments[id]
}

// Reachable returns the ids of the segments reachable from the initial
// segment.
func (g *Graph) Reachable() *roaring.Bitmap {
	seen := roaring.New()
	start, ok := g.index[g.Path.InitialSegment()]
	if !ok {
		return seen
	}

	stack := []int64{start}
	seen.Add(uint32(start))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range g.segments[id].NextSegments() {
			n, ok := g.index[next]
			if !ok || !seen.CheckedAdd(uint32(n)) {
				continue
			}
			stack = append(stack, n)
		}
	}
	return seen
}

// Unreachable returns the segments that are not reachable, in creation
// order.
func (g *Graph) Unreachable() []*codepath.Segment {
	reachable := g.Reachable()
	var out []*codepath.Segment
	for i, seg := range g.segments {
		if !reachable.Contains(uint32(i)) {
			out = append(out, seg)
		}
	}
	return out
}

// Loops returns the strongly connected components that form cycles, each as
// segments in creation order.
func (g *Graph) Loops() [][]*codepath.Segment {
	var loops [][]*codepath.Segment
	for _, scc := range topo.TarjanSCC(g.directed) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, n.ID())
		}
		loops = append(loops, g.collect(ids))
	}
	for _, id := range g.selfLoops {
		loops = append(loops, g.collect([]int64{id}))
	}

	slices.SortFunc(loops, func(a, b []*codepath.Segment) int {
		return int(g.index[a[0]] - g.index[b[0]])
	})
	return loops
}

func (g *Graph) collect(ids []int64) []*codepath.Segment {
	slices.Sort(ids)
	out := make([]*codepath.Segment, len(ids))
	for i, id := range ids {
		out[i] = g.segments[id]
	}
	return out
}

// Cyclomatic returns E - N + 2 over the reachable graph with a virtual exit
// node that every final segment flows into.
func (g *Graph) Cyclomatic() int {
	reachable := g.Reachable()
	nodes := int(reachable.GetCardinality())
	if nodes == 0 {
		return 0
	}

	edges := 0
	for i, seg := range g.segments {
		if !reachable.Contains(uint32(i)) {
			continue
		}
		edges += len(seg.NextSegments())
	}

	exits := 0
	for _, seg := range g.Path.FinalSegments() {
		if seg.Reachable() {
			exits++
		}
	}
	if exits == 0 {
		// Infinite loop without exit: treat the looping segment as the exit.
		exits = 1
	}
	return edges + exits - (nodes + 1) + 2
}

// Depth returns the number of segments on the shortest path from the
// initial segment to the nearest and to the farthest reachable final
// segment. Both are zero when no final segment is reachable.
func (g *Graph) Depth() (shortest, longest int) {
	start, ok := g.index[g.Path.InitialSegment()]
	if !ok {
		return 0, 0
	}
	tree := path.DijkstraFrom(simple.Node(start), g.directed)

	shortest = math.MaxInt
	for _, seg := range g.Path.FinalSegments() {
		id, ok := g.index[seg]
		if !ok {
			continue
		}
		w := tree.WeightTo(id)
		if math.IsInf(w, 1) {
			continue
		}
		d := int(w) + 1
		shortest = min(shortest, d)
		longest = max(longest, d)
	}
	if longest == 0 {
		return 0, 0
	}
	return shortest, longest
}

// Stats summarizes one code path.
type Stats struct {
	ID          string `json:"id" yaml:"id" toon:"id"`
	Origin      string `json:"origin" yaml:"origin" toon:"origin"`
	Node        string `json:"node" yaml:"node" toon:"node"`
	Line        int    `json:"line" yaml:"line" toon:"line"`
	Segments    int    `json:"segments" yaml:"segments" toon:"segments"`
	Edges       int    `json:"edges" yaml:"edges" toon:"edges"`
	Unreachable int    `json:"unreachable" yaml:"unreachable" toon:"unreachable"`
	Loops       int    `json:"loops" yaml:"loops" toon:"loops"`
	Cyclomatic  int    `json:"cyclomatic" yaml:"cyclomatic" toon:"cyclomatic"`
	Returned    int    `json:"returned" yaml:"returned" toon:"returned"`
	Thrown      int    `json:"thrown" yaml:"thrown" toon:"thrown"`
	MinDepth    int    `json:"minDepth" yaml:"minDepth" toon:"minDepth"`
	MaxDepth    int    `json:"maxDepth" yaml:"maxDepth" toon:"maxDepth"`
}

// Stats computes the summary of the graph.
func (g *Graph) Stats() Stats {
	shortest, longest := g.Depth()
	s := Stats{
		ID:          g.Path.ID(),
		Origin:      string(g.Path.Origin()),
		Segments:    len(g.segments),
		Edges:       g.edges,
		Unreachable: len(g.Unreachable()),
		Loops:       len(g.Loops()),
		Cyclomatic:  g.Cyclomatic(),
		Returned:    len(g.Path.ReturnedSegments()),
		Thrown:      len(g.Path.ThrownSegments()),
		MinDepth:    shortest,
		MaxDepth:    longest,
	}
	if n := g.Path.Node(); n != nil {
		s.Node = n.Type
		s.Line = n.Loc.Start.Line
	}
	return s
}

// Summary aggregates cyclomatic numbers over many code paths.
type Summary struct {
	Paths          int     `json:"paths" yaml:"paths" toon:"paths"`
	MeanCyclomatic float64 `json:"meanCyclomatic" yaml:"meanCyclomatic" toon:"meanCyclomatic"`
	StdCyclomatic  float64 `json:"stdCyclomatic" yaml:"stdCyclomatic" toon:"stdCyclomatic"`
	MaxCyclomatic  int     `json:"maxCyclomatic" yaml:"maxCyclomatic" toon:"maxCyclomatic"`
	Unreachable    int     `json:"unreachable" yaml:"unreachable" toon:"unreachable"`
	Loops          int     `json:"loops" yaml:"loops" toon:"loops"`
}

// Summarize aggregates stats.
func Summarize(stats []Stats) Summary {
	s := Summary{Paths: len(stats)}
	if len(stats) == 0 {
		return s
	}

	values := make([]float64, len(stats))
	for i, st := range stats {
		values[i] = float64(st.Cyclomatic)
		s.MaxCyclomatic = max(s.MaxCyclomatic, st.Cyclomatic)
		s.Unreachable += st.Unreachable
		s.Loops += st.Loops
	}
	s.MeanCyclomatic = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdCyclomatic = stat.StdDev(values, nil)
	}
	return s
}
