// Package canon computes canonical labelings of simple graphs by individualization and refinement.
//
// Vertex partitions are refined to equitable form, the first non-singleton cell is individualized vertex
// by vertex, and every discrete leaf of the resulting search tree yields a certificate: the graph6 encoding
// of the graph relabeled by the leaf's cell order.  The canonical form is the leaf with the greatest certificate.
// Automorphisms found along the way (two leaves with equal certificates) prune children that lie in the same
// orbit of the stabilizer of the current individualization sequence.
package canon

import (
	"bytes"
	"math/bits"
	"sort"

	"github.com/2x3systems/gokn/libkn/graph"
)

// Result is the outcome of a canonical labeling run.
type Result struct {
	Labeling   []graph.VtxID   // Labeling[v] is the canonical index of vertex v
	Generators [][]graph.VtxID // automorphisms found during the search (not necessarily a full generating set)
	NumNodes   int             // search tree nodes visited
	Cert       string          // graph6 encoding of the canonical form
}

// Label runs the canonical labeling search over X.
func Label(X *graph.Graph) Result {
	s := searcher{
		n:   X.NumVerts(),
		adj: X.AdjRows(nil),
	}

	var cells [][]int
	if s.n > 0 {
		all := make([]int, s.n)
		for v := range all {
			all[v] = v
		}
		cells = append(cells, all)
	}
	s.search(s.refine(cells), nil)

	res := Result{
		Labeling: make([]graph.VtxID, s.n),
		NumNodes: s.nodes,
		Cert:     string(s.best.cert),
	}
	for pos, v := range s.best.order {
		res.Labeling[v] = graph.VtxID(pos)
	}
	for _, gamma := range s.autos {
		perm := make([]graph.VtxID, s.n)
		for v, w := range gamma {
			perm[v] = graph.VtxID(w)
		}
		res.Generators = append(res.Generators, perm)
	}
	return res
}

// CanonicalG6 returns the graph6 encoding of the canonical form of X.
// Two graphs are isomorphic iff their CanonicalG6 strings are equal.
func CanonicalG6(X *graph.Graph) string {
	return Label(X).Cert
}

// Canonize returns a new graph that is X relabeled into canonical form (edges sorted).
func Canonize(X *graph.Graph) *graph.Graph {
	res := Label(X)
	return relabel(X, res.Labeling)
}

func relabel(X *graph.Graph, labeling []graph.VtxID) *graph.Graph {
	Xc := graph.NewGraph(X.NumVerts())
	for _, e := range X.Edges() {
		Xc.AddEdge(labeling[e.A], labeling[e.B])
	}
	Xc.SortEdges()
	return Xc
}

type leaf struct {
	cert  []byte
	order []int // order[pos] is the vertex placed at pos
}

type searcher struct {
	n      int
	adj    []uint64
	first  leaf
	best   leaf
	moved  bool // set once best is no longer the first leaf
	autos  [][]int
	levels []*orbits // one per search node on the current path
	nodes  int
}

// orbits is the orbit partition of the automorphisms found so far that fix every vertex of prefix.
type orbits struct {
	prefix []int
	parent []int
}

func newOrbits(n int, prefix []int) *orbits {
	orb := &orbits{
		prefix: prefix,
		parent: make([]int, n),
	}
	for i := range orb.parent {
		orb.parent[i] = i
	}
	return orb
}

func (orb *orbits) find(x int) int {
	for orb.parent[x] != x {
		orb.parent[x] = orb.parent[orb.parent[x]]
		x = orb.parent[x]
	}
	return x
}

// merge joins the cycles of gamma into the partition if gamma fixes the prefix.
func (orb *orbits) merge(gamma []int) {
	for _, p := range orb.prefix {
		if gamma[p] != p {
			return
		}
	}
	for x, y := range gamma {
		if rx, ry := orb.find(x), orb.find(y); rx != ry {
			orb.parent[rx] = ry
		}
	}
}

// sameOrbit reports if v shares an orbit with any explored vertex.
func (orb *orbits) sameOrbit(v int, explored []int) bool {
	rv := orb.find(v)
	for _, u := range explored {
		if orb.find(u) == rv {
			return true
		}
	}
	return false
}

// refine splits cells until the partition is equitable: every vertex in a cell has the same number of
// neighbors in each cell.  Cells split in place, ordered by neighbor count signature, which keeps the
// result independent of vertex numbering.
func (s *searcher) refine(cells [][]int) [][]int {
	for {
		masks := make([]uint64, len(cells))
		for ci, cell := range cells {
			for _, v := range cell {
				masks[ci] |= uint64(1) << v
			}
		}

		next := make([][]int, 0, s.n)
		for _, cell := range cells {
			if len(cell) == 1 {
				next = append(next, cell)
				continue
			}

			sigs := make(map[int][]uint8, len(cell))
			for _, v := range cell {
				sig := make([]uint8, len(masks))
				for ci, mask := range masks {
					sig[ci] = uint8(bits.OnesCount64(s.adj[v] & mask))
				}
				sigs[v] = sig
			}

			sorted := append([]int(nil), cell...)
			sort.SliceStable(sorted, func(i, j int) bool {
				return bytes.Compare(sigs[sorted[i]], sigs[sorted[j]]) < 0
			})

			start := 0
			for i := 1; i <= len(sorted); i++ {
				if i == len(sorted) || !bytes.Equal(sigs[sorted[i]], sigs[sorted[start]]) {
					next = append(next, sorted[start:i])
					start = i
				}
			}
		}

		if len(next) == len(cells) {
			return next
		}
		cells = next
	}
}

func individualize(cells [][]int, target, v int) [][]int {
	out := make([][]int, 0, len(cells)+1)
	out = append(out, cells[:target]...)
	out = append(out, []int{v})
	rest := make([]int, 0, len(cells[target])-1)
	for _, w := range cells[target] {
		if w != v {
			rest = append(rest, w)
		}
	}
	out = append(out, rest)
	out = append(out, cells[target+1:]...)
	return out
}

func (s *searcher) search(cells [][]int, prefix []int) {
	s.nodes++

	target := -1
	for ci, cell := range cells {
		if len(cell) > 1 {
			target = ci
			break
		}
	}
	if target < 0 {
		s.visitLeaf(cells)
		return
	}

	orb := newOrbits(s.n, prefix)
	for _, gamma := range s.autos {
		orb.merge(gamma)
	}
	s.levels = append(s.levels, orb)

	var explored []int
	for _, v := range cells[target] {
		if orb.sameOrbit(v, explored) {
			continue
		}
		explored = append(explored, v)
		child := individualize(cells, target, v)
		s.search(s.refine(child), append(prefix[:len(prefix):len(prefix)], v))
	}

	s.levels = s.levels[:len(s.levels)-1]
}

func (s *searcher) visitLeaf(cells [][]int) {
	order := make([]int, len(cells))
	labeling := make([]graph.VtxID, s.n)
	for pos, cell := range cells {
		order[pos] = cell[0]
		labeling[cell[0]] = graph.VtxID(pos)
	}

	Xc := graph.NewGraph(s.n)
	for u := 0; u < s.n; u++ {
		row := s.adj[u] >> (u + 1)
		for row != 0 {
			w := u + 1 + bits.TrailingZeros64(row)
			row &= row - 1
			Xc.AddEdge(labeling[u], labeling[w])
		}
	}
	cert, err := Xc.AppendG6(nil)
	Xc.Reclaim()
	if err != nil {
		panic(err)
	}

	cur := leaf{cert: cert, order: order}
	if s.first.cert == nil {
		s.first = cur
		s.best = cur
		return
	}

	if bytes.Equal(cert, s.first.cert) {
		s.addAuto(cur, s.first)
	}
	switch c := bytes.Compare(cert, s.best.cert); {
	case c > 0:
		s.best = cur
		s.moved = true
	case c == 0 && s.moved:
		s.addAuto(cur, s.best)
	}
}

// addAuto records the automorphism taking each vertex of leaf a to the vertex at the same position in leaf b.
func (s *searcher) addAuto(a, b leaf) {
	gamma := make([]int, s.n)
	identity := true
	for pos, v := range a.order {
		gamma[v] = b.order[pos]
		if gamma[v] != v {
			identity = false
		}
	}
	if !identity {
		s.autos = append(s.autos, gamma)
		for _, orb := range s.levels {
			orb.merge(gamma)
		}
	}
}
