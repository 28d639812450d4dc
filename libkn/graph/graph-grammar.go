package graph

import (
	"github.com/2x3systems/gokn/gokn"
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// GraphExpr is an edge-list expression such as "6: 0-1-2-0, 3-4-5-3, 0-3 1-4 2-5".
//
// The optional "N:" prefix sets the vertex count (otherwise it is one more than the largest vertex index).
// Each run "a-b-c" adds the edges (a,b), (b,c) in the order written; runs are separated by whitespace or commas.
type GraphExpr struct {
	Header *ExprHeader `parser:"( @@ \":\" )?"`
	Runs   []*EdgeRun  `parser:"( @@ ( \",\"? @@ )* )?"`
}

type ExprHeader struct {
	NumVerts int `parser:"@Int"`
}

type EdgeRun struct {
	Start int   `parser:"@Int"`
	Next  []int `parser:"( \"-\" @Int )+"`
}

var parseGraphExpr = participle.MustBuild[GraphExpr](participle.UseLookahead(2))

// ParseGraph returns a new graph built from the given edge-list expression.
func ParseGraph(graphExpr string) (*Graph, error) {
	X := NewGraph(0)
	if err := X.InitFromString(graphExpr); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}

// MustParseGraph is ParseGraph for expressions known to be valid.
func MustParseGraph(graphExpr string) *Graph {
	X, err := ParseGraph(graphExpr)
	if err != nil {
		panic(err)
	}
	return X
}

func (X *Graph) InitFromString(graphExpr string) error {
	X.Init(nil)

	Xexpr, err := parseGraphExpr.ParseString("", graphExpr)
	if err != nil {
		return errors.Wrap(gokn.ErrBadGraphExpr, err.Error())
	}

	maxID := -1
	for _, run := range Xexpr.Runs {
		for _, vi := range append([]int{run.Start}, run.Next...) {
			if vi < 0 || vi >= gokn.MaxVerts {
				return errors.Wrapf(gokn.ErrBadGraphExpr, "vertex %d out of range", vi)
			}
			if vi > maxID {
				maxID = vi
			}
		}
	}

	Nv := maxID + 1
	if Xexpr.Header != nil {
		if Xexpr.Header.NumVerts < Nv || Xexpr.Header.NumVerts > gokn.MaxVerts {
			return errors.Wrapf(gokn.ErrBadGraphExpr, "vertex count %d does not fit the edges given", Xexpr.Header.NumVerts)
		}
		Nv = Xexpr.Header.NumVerts
	}
	X.vtxCount = int32(Nv)

	for _, run := range Xexpr.Runs {
		onVtx := run.Start
		for _, nextVtx := range run.Next {
			if onVtx == nextVtx {
				return errors.Wrapf(gokn.ErrBadGraphExpr, "self-loop at vertex %d", onVtx)
			}
			X.edges = append(X.edges, FormEdge(VtxID(onVtx), VtxID(nextVtx)))
			onVtx = nextVtx
		}
	}

	return nil
}
