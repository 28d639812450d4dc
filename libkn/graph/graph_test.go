package graph_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGraph(rng *rand.Rand, Nv int, density float64) *graph.Graph {
	X := graph.NewGraph(Nv)
	for u := 0; u < Nv; u++ {
		for v := u + 1; v < Nv; v++ {
			if rng.Float64() < density {
				X.AddEdge(graph.VtxID(u), graph.VtxID(v))
			}
		}
	}
	// Scramble the edge order so that encoding is shown to be order independent
	E := X.Edges()
	rng.Shuffle(len(E), func(i, j int) { E[i], E[j] = E[j], E[i] })
	return X
}

func countTriangles(X *graph.Graph) int {
	adj := X.AdjRows(nil)
	count := 0
	for _, e := range X.Edges() {
		common := adj[e.A] & adj[e.B]
		for common != 0 {
			common &= common - 1
			count++
		}
	}
	return count / 3
}

func TestG6RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2022))

	for trial := 0; trial < 200; trial++ {
		Nv := 1 + rng.Intn(20)
		X := randomGraph(rng, Nv, 0.5)

		g6 := X.G6()
		Y, err := graph.DecodeG6(g6)
		require.NoError(t, err, "decode %q", g6)

		require.True(t, X.SameEdgeSet(Y), "edge sets differ: %v vs %v", X, Y)
		require.Equal(t, g6, Y.G6())

		X.Reclaim()
		Y.Reclaim()
	}
}

func TestG6Boundaries(t *testing.T) {
	for _, Nv := range []int{0, 1, 2, 61, 62} {
		X := graph.NewGraph(Nv)
		for u := 0; u < Nv; u++ {
			for v := u + 1; v < Nv; v++ {
				X.AddEdge(graph.VtxID(u), graph.VtxID(v))
			}
		}
		g6 := X.G6()
		require.Equal(t, byte(Nv+63), g6[0])
		require.Len(t, g6, 1+(Nv*(Nv-1)/2+5)/6)

		Y, err := graph.DecodeG6(g6)
		require.NoError(t, err)
		require.Equal(t, Nv, Y.NumVerts())
		require.True(t, X.SameEdgeSet(Y))
	}

	require.Equal(t, "?", graph.NewGraph(0).G6())
	require.Equal(t, "@", graph.NewGraph(1).G6())
	require.Equal(t, "C~", graph.Tetrahedron().G6())
}

func TestG6KnownStrings(t *testing.T) {
	X, err := graph.DecodeG6("D??")
	require.NoError(t, err)
	assert.Equal(t, 5, X.NumVerts())
	assert.Equal(t, 0, X.NumEdges())

	// A set padding bit does not add an edge
	X, err = graph.DecodeG6("D_@")
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeList{{0, 1}}, X.Edges())
	assert.Equal(t, "D_?", X.G6())

	X, err = graph.DecodeG6("D`?")
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeList{{0, 1}, {2, 3}}, X.Edges())

	X, err = graph.DecodeG6("D?@")
	require.NoError(t, err)
	assert.Equal(t, 0, X.NumEdges())
}

func TestG6Errors(t *testing.T) {
	for _, bad := range []string{
		"",       // empty
		" ",      // header below 63
		"\x7f",   // header above 126
		"D?",     // too few data bytes
		"D? ",    // data byte below 63
		"D???",   // trailing data
		"C\x7f",  // data byte above 126
		"D?\xff", // data byte above 126
	} {
		_, err := graph.DecodeG6(bad)
		require.ErrorIs(t, err, gokn.ErrBadG6, "input %q", bad)
	}

	_, err := graph.DecodeG6("~")
	require.ErrorIs(t, err, gokn.ErrTooManyVerts)
}

func TestAddEdgeAcross(t *testing.T) {
	X := graph.Tetrahedron()
	Ne := X.NumEdges()

	for i := 0; i < Ne; i++ {
		for j := 0; j < Ne; j++ {
			if i == j {
				continue
			}
			Xn := graph.AddEdgeAcross(X, i, j)
			require.Equal(t, X.NumVerts()+2, Xn.NumVerts())
			require.Equal(t, Ne+3, Xn.NumEdges())
			require.Equal(t, Xn.SortedEdges(), Xn.Edges(), "output must be sorted")
			require.False(t, Xn.HasDupes())
			require.True(t, Xn.IsRegular(3))
			Xn.Reclaim()
		}
	}

	// The input is untouched
	require.Equal(t, "C~", X.G6())

	require.Panics(t, func() { graph.AddEdgeAcross(X, 2, 2) })
}

func TestAddEdgeAcrossRule(t *testing.T) {
	X := graph.MustParseGraph("4: 0-1 1-2 2-3")
	Xn := graph.AddEdgeAcross(X, 2, 0)

	// (2,3) at index 2 hosts v1=4 plus the bridge; (0,1) at index 0 hosts v2=5
	want := graph.EdgeList{{0, 5}, {1, 2}, {1, 5}, {2, 4}, {3, 4}, {4, 5}}
	require.Equal(t, want, Xn.Edges())
}

func TestEdgePositionMatters(t *testing.T) {
	// Same edge set (K4), different order
	A := graph.MustParseGraph("0-1 0-2 0-3 1-2 1-3 2-3")
	B := graph.MustParseGraph("0-1 2-3 0-2 1-3 0-3 1-2")
	require.True(t, A.SameEdgeSet(B))

	// Bridging two adjacent edges gives the prism (2 triangles); two disjoint edges give K3,3 (none)
	Xa := graph.AddEdgeAcross(A, 0, 1)
	Xb := graph.AddEdgeAcross(B, 0, 1)
	assert.Equal(t, 2, countTriangles(Xa))
	assert.Equal(t, 0, countTriangles(Xb))
	assert.False(t, Xa.SameEdgeSet(Xb))
}

func TestUnion(t *testing.T) {
	A := graph.MustParseGraph("3: 0-1 1-2")
	B := graph.MustParseGraph("4: 2-3 0-1")

	U := graph.Union(A, B)
	require.Equal(t, A.NumVerts()+B.NumVerts(), U.NumVerts())
	require.Equal(t, A.NumEdges()+B.NumEdges(), U.NumEdges())
	require.Equal(t, graph.EdgeList{{0, 1}, {1, 2}, {5, 6}, {3, 4}}, U.Edges())

	require.Panics(t, func() {
		graph.Union(graph.NewGraph(40), graph.NewGraph(40))
	})
}

func TestContractEdge(t *testing.T) {
	K4 := graph.Tetrahedron()

	// Any K4 edge lies on two triangles, so contraction collapses 2 parallel pairs
	C := graph.ContractEdge(K4, 0)
	require.Equal(t, 3, C.NumVerts())
	require.Equal(t, graph.EdgeList{{0, 1}, {0, 2}, {1, 2}}, C.Edges())

	_, ok := graph.ContractEdgeOpt(K4, 0)
	require.False(t, ok)

	// A 5-cycle has no triangles: every contraction is safe
	C5 := graph.MustParseGraph("0-1-2-3-4-0")
	for ei := 0; ei < C5.NumEdges(); ei++ {
		Xn, ok := graph.ContractEdgeOpt(C5, ei)
		require.True(t, ok)
		require.Equal(t, 4, Xn.NumVerts())
		require.Equal(t, 4, Xn.NumEdges())
		require.True(t, Xn.IsRegular(2))
	}

	// Relabeling: contracting 1-3 maps 3 to 1 and 4 to 3
	X := graph.MustParseGraph("5: 1-3 0-3 3-4 2-4")
	Xn := graph.ContractEdge(X, 0)
	require.Equal(t, graph.EdgeList{{0, 1}, {1, 3}, {2, 3}}, Xn.Edges())

	require.Panics(t, func() {
		graph.ContractEdge(graph.NewGraph(1), 0)
	})
}

func TestContractEdgeOptMatchesTriangles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		X := randomGraph(rng, 3+rng.Intn(10), 0.4)
		adj := X.AdjRows(nil)
		for ei, e := range X.Edges() {
			hasCommon := adj[e.A]&adj[e.B] != 0
			Xn, ok := graph.ContractEdgeOpt(X, ei)
			require.Equal(t, !hasCommon, ok, "edge %v of %v", e, X)
			if ok {
				require.Equal(t, X.NumVerts()-1, Xn.NumVerts())
				require.Equal(t, X.NumEdges()-1, Xn.NumEdges())
				require.False(t, Xn.HasDupes())
				Xn.Reclaim()
			}
		}
		X.Reclaim()
	}
}

func TestReplaceEdgeByTetra(t *testing.T) {
	X := graph.Tetrahedron()
	Xn := graph.ReplaceEdgeByTetra(X, 3)
	require.Equal(t, 8, Xn.NumVerts())
	require.Equal(t, 12, Xn.NumEdges())
	require.True(t, Xn.IsRegular(3))
	require.False(t, Xn.HasDupes())
}

func TestSeeds(t *testing.T) {
	K4 := graph.Tetrahedron()
	require.Equal(t, 4, K4.NumVerts())
	require.Equal(t, 6, K4.NumEdges())
	require.True(t, K4.IsRegular(3))

	require.True(t, graph.Tetrastring(1).SameEdgeSet(K4))

	for n := 1; n <= 15; n++ {
		X := graph.Tetrastring(n)
		require.Equal(t, 4*n, X.NumVerts())
		require.Equal(t, 6*n, X.NumEdges())
		require.True(t, X.IsRegular(3), "n=%d", n)
		require.False(t, X.HasDupes())
	}

	require.Panics(t, func() { graph.Tetrastring(0) })
	require.Panics(t, func() { graph.Tetrastring(16) })
}

func TestParseGraph(t *testing.T) {
	X, err := graph.ParseGraph("6: 0-1-2-0, 3-4-5-3 0-3")
	require.NoError(t, err)
	require.Equal(t, 6, X.NumVerts())
	require.Equal(t, graph.EdgeList{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}, {0, 3}}, X.Edges())

	X, err = graph.ParseGraph("2-1")
	require.NoError(t, err)
	require.Equal(t, 3, X.NumVerts())
	require.Equal(t, graph.EdgeList{{1, 2}}, X.Edges())

	X, err = graph.ParseGraph("5:")
	require.NoError(t, err)
	require.Equal(t, 5, X.NumVerts())
	require.Equal(t, 0, X.NumEdges())

	// Printing yields a parsable expression
	Y, err := graph.ParseGraph(X.String()[1 : len(X.String())-1])
	require.NoError(t, err)
	require.True(t, X.SameEdgeSet(Y))

	for _, bad := range []string{"1-1", "2: 0-3", "0-", "0-99", "a-b"} {
		_, err := graph.ParseGraph(bad)
		require.ErrorIs(t, err, gokn.ErrBadGraphExpr, "input %q", bad)
	}
}

func TestWriteAsString(t *testing.T) {
	X := graph.MustParseGraph("4: 0-1 0-2 0-3 1-2 1-3 2-3")

	var b strings.Builder
	opts := gokn.DefaultPrintOpts
	opts.Label = "K4"
	X.WriteAsString(&b, opts)
	require.Equal(t, `K4,v=4,e=6,"C~","4: 0-1 0-2 0-3 1-2 1-3 2-3"`, b.String())

	b.Reset()
	X.WriteAsString(&b, gokn.PrintOpts{})
	require.Equal(t, "v=4,e=6,", b.String())
}
