package graph

import (
	"fmt"
	"sort"
)

// Surgery operators never modify their inputs; each returns a newly allocated Graph (see Reclaim).
//
// Operators that take an edge index address the edge at that position of the input's edge list.
// Two graphs with the same edge set but a different edge order are therefore NOT interchangeable inputs.

// Union returns the disjoint union of A and B.
// A's edges are copied unchanged and followed by B's edges, with B's vertices shifted by A.NumVerts().
func Union(A, B *Graph) *Graph {
	v0 := VtxID(A.vtxCount)
	X := NewGraph(int(A.vtxCount + B.vtxCount))
	X.edges = append(X.edges, A.edges...)
	for _, e := range B.edges {
		X.edges = append(X.edges, Edge{e.A + v0, e.B + v0})
	}
	return X
}

// AddEdgeAcross subdivides the edges at positions ei and ej and joins the two new vertices with a bridge edge.
//
// With v1 = Nv and v2 = Nv+1, the edge (u,v) at ei becomes (u,v1), (v,v1) and the bridge (v1,v2) is added;
// the edge (u,v) at ej becomes (u,v2), (v,v2).  The returned graph has Nv+2 vertices and Ne+3 edges, sorted by endpoint pair.
func AddEdgeAcross(X *Graph, ei, ej int) *Graph {
	if ei == ej {
		panic(fmt.Sprintf("AddEdgeAcross: edge indices must be distinct (got %d twice)", ei))
	}
	Ne := len(X.edges)
	if ei < 0 || ei >= Ne || ej < 0 || ej >= Ne {
		panic(fmt.Sprintf("AddEdgeAcross: edge index out of range (%d, %d of %d)", ei, ej, Ne))
	}

	v1 := VtxID(X.vtxCount)
	v2 := v1 + 1
	Xn := NewGraph(int(X.vtxCount) + 2)

	for i, e := range X.edges {
		switch i {
		case ei:
			Xn.edges = append(Xn.edges,
				FormEdge(e.A, v1),
				FormEdge(e.B, v1),
				Edge{v1, v2},
			)
		case ej:
			Xn.edges = append(Xn.edges,
				FormEdge(e.A, v2),
				FormEdge(e.B, v2),
			)
		default:
			Xn.edges = append(Xn.edges, e)
		}
	}

	sort.Sort(Xn.edges)
	return Xn
}

// ContractEdge contracts the edge (u,v) at position ei, merging v into u.
//
// Every remaining endpoint x is relabeled: x < v keeps x, x == v becomes u, and x > v becomes x-1.
// The contracted edge, any resulting loop, and any resulting duplicate pair are dropped,
// so the returned graph has NumVerts()-1 vertices and its edges sorted by endpoint pair.
func ContractEdge(X *Graph, ei int) *Graph {
	if X.vtxCount < 2 {
		panic("ContractEdge: not enough vertices to contract")
	}
	ec := X.edges[ei]
	u, v := ec.A, ec.B
	if u >= v {
		panic(fmt.Sprintf("ContractEdge: edge %d is not canonic (%d >= %d)", ei, u, v))
	}

	relabel := func(x VtxID) VtxID {
		switch {
		case x < v:
			return x
		case x == v:
			return u
		default:
			return x - 1
		}
	}

	Xn := NewGraph(int(X.vtxCount) - 1)
	for i, e := range X.edges {
		if i == ei {
			continue
		}
		a, b := relabel(e.A), relabel(e.B)
		if a == b {
			continue
		}
		Xn.edges = append(Xn.edges, FormEdge(a, b))
	}

	// Collapse parallel copies (set semantics)
	E := Xn.edges
	sort.Sort(E)
	D := 0
	for i, e := range E {
		if i > 0 && e == E[D-1] {
			continue
		}
		E[D] = e
		D++
	}
	Xn.edges = E[:D]

	return Xn
}

// ContractEdgeOpt is ContractEdge but only succeeds if exactly one edge was lost, i.e. the contraction
// merged no pair of previously distinct edges.  For a simple graph this rejects every edge lying on a triangle.
func ContractEdgeOpt(X *Graph, ei int) (*Graph, bool) {
	Xn := ContractEdge(X, ei)
	if len(Xn.edges) != len(X.edges)-1 {
		Xn.Reclaim()
		return nil, false
	}
	return Xn, true
}

// ReplaceEdgeByTetra replaces the edge (u,v) at position ei by a 4-vertex gadget (a tetrahedron with one edge removed),
// wired as u-v1, v1-v2, v1-v3, v2-v4, v3-v4, v2-v3, v4-v.  The result has Nv+4 vertices and Ne+6 edges, sorted by endpoint pair.
func ReplaceEdgeByTetra(X *Graph, ei int) *Graph {
	ec := X.edges[ei]
	if ec.A >= ec.B {
		panic(fmt.Sprintf("ReplaceEdgeByTetra: edge %d is not canonic", ei))
	}

	Xn := NewGraph(int(X.vtxCount) + 4)
	v1 := VtxID(X.vtxCount)
	v2, v3, v4 := v1+1, v1+2, v1+3

	for i, e := range X.edges {
		if i != ei {
			Xn.edges = append(Xn.edges, e)
			continue
		}
		Xn.edges = append(Xn.edges,
			FormEdge(ec.A, v1),
			Edge{v1, v2},
			Edge{v1, v3},
			Edge{v2, v4},
			Edge{v3, v4},
			Edge{v2, v3},
			FormEdge(ec.B, v4),
		)
	}

	sort.Sort(Xn.edges)
	return Xn
}
