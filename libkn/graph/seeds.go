package graph

import (
	"fmt"

	"github.com/2x3systems/gokn/gokn"
)

// Tetrahedron returns the complete graph on 4 vertices, the seed of the genus 3 family.
func Tetrahedron() *Graph {
	return NewGraphFrom(4, []Edge{
		{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
	})
}

// Tetrastring returns numBlocks tetrahedra (each missing one edge) linked in a cycle.
//
// Block i occupies vertices 4i..4i+3 with edges (4i,4i+1), (4i,4i+2), (4i+1,4i+2), (4i+1,4i+3), (4i+2,4i+3),
// and vertex 4i+3 links to vertex 4((i+1) mod numBlocks) of the next block.  Every vertex is trivalent and
// Tetrastring(1) is the tetrahedron.
func Tetrastring(numBlocks int) *Graph {
	if numBlocks < 1 || 4*numBlocks > gokn.MaxVerts {
		panic(fmt.Sprintf("Tetrastring: block count %d out of range", numBlocks))
	}

	X := NewGraph(4 * numBlocks)
	for i := 0; i < numBlocks; i++ {
		v := VtxID(4 * i)
		next := VtxID(4 * ((i + 1) % numBlocks))
		X.AddEdge(v, v+1)
		X.AddEdge(v, v+2)
		X.AddEdge(v+1, v+2)
		X.AddEdge(v+1, v+3)
		X.AddEdge(v+2, v+3)
		X.AddEdge(v+3, next)
	}
	return X
}
