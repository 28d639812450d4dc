package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/2x3systems/gokn/gokn"
)

// VtxID is a zero-based vertex index (0..NumVerts-1)
type VtxID uint8

// Edge connects two distinct vertices where A < B.
type Edge struct {
	A VtxID
	B VtxID
}

// FormEdge returns the canonic edge joining va and vb (the lower index first).
func FormEdge(va, vb VtxID) Edge {
	if va < vb {
		return Edge{va, vb}
	}
	return Edge{vb, va}
}

func (e Edge) Less(other Edge) bool {
	if e.A != other.A {
		return e.A < other.A
	}
	return e.B < other.B
}

func (e Edge) String() string {
	return fmt.Sprintf("%d-%d", e.A, e.B)
}

// EdgeList is an ordered sequence of edges.
//
// Edge position is significant: surgery operators address an edge by its index in this list, not by its endpoints.
type EdgeList []Edge

func (E EdgeList) Len() int           { return len(E) }
func (E EdgeList) Less(i, j int) bool { return E[i].Less(E[j]) }
func (E EdgeList) Swap(i, j int)      { E[i], E[j] = E[j], E[i] }

// Graph is a simple undirected graph with at most gokn.MaxVerts vertices and an ordered edge list.
type Graph struct {
	vtxCount int32
	edges    EdgeList
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return &Graph{
			edges: make(EdgeList, 0, 48),
		}
	},
}

// NewGraph returns an edgeless graph with the given number of vertices.
func NewGraph(numVerts int) *Graph {
	checkVtxCount(numVerts)
	X := graphPool.Get().(*Graph)
	X.vtxCount = int32(numVerts)
	X.edges = X.edges[:0]
	return X
}

// NewGraphFrom returns a graph with the given vertex count and a copy of the given edges (in the given order).
func NewGraphFrom(numVerts int, edges []Edge) *Graph {
	X := NewGraph(numVerts)
	for _, e := range edges {
		X.AddEdge(e.A, e.B)
	}
	return X
}

func checkVtxCount(numVerts int) {
	if numVerts < 0 || numVerts > gokn.MaxVerts {
		panic(fmt.Sprintf("graph vertex count %d out of range [0,%d]", numVerts, gokn.MaxVerts))
	}
}

// Reclaim recycles this Graph into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (X *Graph) Reclaim() {
	if X != nil {
		graphPool.Put(X)
	}
}

// Init assigns this graph to a copy of Xsrc (or to the empty graph if Xsrc is nil).
func (X *Graph) Init(Xsrc *Graph) {
	if X == Xsrc {
		return
	}
	if Xsrc == nil {
		X.vtxCount = 0
		X.edges = X.edges[:0]
		return
	}
	X.vtxCount = Xsrc.vtxCount
	X.edges = append(X.edges[:0], Xsrc.edges...)
}

// Clone returns a new copy of this graph with the same edge order.
func (X *Graph) Clone() *Graph {
	Xc := NewGraph(X.NumVerts())
	Xc.edges = append(Xc.edges, X.edges...)
	return Xc
}

func (X *Graph) NumVerts() int {
	return int(X.vtxCount)
}

func (X *Graph) NumEdges() int {
	return len(X.edges)
}

// Edges returns this graph's edge list.  The slice should be considered read-only.
func (X *Graph) Edges() EdgeList {
	return X.edges
}

// Edge returns the edge at the given position.
func (X *Graph) Edge(idx int) Edge {
	return X.edges[idx]
}

// AddEdge appends the edge {min(va,vb), max(va,vb)}.
// No duplicate check is made; callers that need a simple graph must not add a pair twice.
func (X *Graph) AddEdge(va, vb VtxID) {
	if va == vb {
		panic(fmt.Sprintf("self-loop at vertex %d", va))
	}
	if int32(va) >= X.vtxCount || int32(vb) >= X.vtxCount {
		panic(fmt.Sprintf("edge %d-%d exceeds vertex count %d", va, vb, X.vtxCount))
	}
	X.edges = append(X.edges, FormEdge(va, vb))
}

// SortEdges sorts this graph's edges by endpoint pair.
//
// This is NOT a neutral operation: since surgery operators address edges by position,
// a sorted graph generally yields different operator results than the graph it came from.
func (X *Graph) SortEdges() {
	sort.Sort(X.edges)
}

// SortedEdges returns a sorted copy of this graph's edge list.
func (X *Graph) SortedEdges() EdgeList {
	E := append(EdgeList(nil), X.edges...)
	sort.Sort(E)
	return E
}

// HasDupes returns true if any vertex pair appears more than once in the edge list.
func (X *Graph) HasDupes() bool {
	var adj [gokn.MaxVerts]uint64
	for _, e := range X.edges {
		bit := uint64(1) << e.B
		if adj[e.A]&bit != 0 {
			return true
		}
		adj[e.A] |= bit
	}
	return false
}

// SameEdgeSet returns true if X and Y have the same vertex count and the same set of edges (order is ignored).
func (X *Graph) SameEdgeSet(Y *Graph) bool {
	if X.vtxCount != Y.vtxCount || len(X.edges) != len(Y.edges) {
		return false
	}
	Ex := X.SortedEdges()
	Ey := Y.SortedEdges()
	for i := range Ex {
		if Ex[i] != Ey[i] {
			return false
		}
	}
	return true
}

// AdjRows returns the adjacency matrix of this graph as one bit row per vertex.
func (X *Graph) AdjRows(dst []uint64) []uint64 {
	Nv := int(X.vtxCount)
	if cap(dst) < Nv {
		dst = make([]uint64, Nv)
	}
	dst = dst[:Nv]
	for i := range dst {
		dst[i] = 0
	}
	for _, e := range X.edges {
		dst[e.A] |= uint64(1) << e.B
		dst[e.B] |= uint64(1) << e.A
	}
	return dst
}

// Degrees returns the number of edges incident to each vertex.
func (X *Graph) Degrees() []int {
	deg := make([]int, X.vtxCount)
	for _, e := range X.edges {
		deg[e.A]++
		deg[e.B]++
	}
	return deg
}

// IsRegular returns true if every vertex has exactly k incident edges.
func (X *Graph) IsRegular(k int) bool {
	for _, d := range X.Degrees() {
		if d != k {
			return false
		}
	}
	return true
}

var (
	space = []byte(" ")
	comma = []byte(",")
)

func (X *Graph) WriteAsString(out io.Writer, opts gokn.PrintOpts) {
	if len(opts.Label) > 0 {
		out.Write([]byte(opts.Label))
		out.Write(comma)
	}
	fmt.Fprintf(out, "v=%d,e=%d,", X.vtxCount, len(X.edges))
	if opts.G6 {
		if g6, err := X.AppendG6(nil); err == nil {
			fmt.Fprintf(out, "%q,", g6)
		}
	}
	if opts.Edges {
		X.WriteAsGraphExprStr(out)
	}
}

// WriteAsGraphExprStr writes this graph in the form accepted by ParseGraph, e.g. "4: 0-1 0-2 1-2"
func (X *Graph) WriteAsGraphExprStr(out io.Writer) {
	fmt.Fprintf(out, "\"%d:", X.vtxCount)
	for _, e := range X.edges {
		out.Write(space)
		fmt.Fprintf(out, "%d-%d", e.A, e.B)
	}
	out.Write([]byte("\""))
}

func (X *Graph) String() string {
	b := strings.Builder{}
	b.Grow(128)
	X.WriteAsGraphExprStr(&b)
	return b.String()
}
