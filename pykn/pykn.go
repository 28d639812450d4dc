package pykn

import (
	"context"
	"strings"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/canon"
	"github.com/2x3systems/gokn/libkn/config"
	"github.com/2x3systems/gokn/libkn/engine"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/2x3systems/gokn/libkn/workspace"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2025.1"
)

var (
	pyGraphType     = py.NewType("Graph", "a simple graph with an ordered edge list")
	pyWorkspaceType = py.NewType("Workspace", "a family store and canonical form oracle opened from a config")
)

const kWorkspaceAttr = "_Workspace"

type pyGraph struct {
	*graph.Graph
}

func (X pyGraph) Type() *py.Type {
	return pyGraphType
}

func (X pyGraph) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	X.WriteAsString(&writer, gokn.DefaultPrintOpts)
	return py.String(writer.String()), nil
}

func (X pyGraph) M__repr__() (py.Object, error) {
	return X.M__str__()
}

func getGraph(obj py.Object) (pyGraph, error) {
	X, ok := obj.(pyGraph)
	if !ok {
		return pyGraph{}, py.ExceptionNewf(py.TypeError, "expected Graph object (got %v)", obj.Type().Name)
	}
	return X, nil
}

func loadInts(args py.Tuple, vals ...*int) error {
	if len(args) != len(vals) {
		return py.ExceptionNewf(py.TypeError, "expected %d arguments (got %d)", len(vals), len(args))
	}
	for i, arg := range args {
		v, err := py.GetInt(arg)
		if err != nil {
			return err
		}
		*vals[i] = int(v)
	}
	return nil
}

func py_ParseGraph(module py.Object, args py.Tuple) (py.Object, error) {
	var expr string
	if err := py.LoadTuple(args, []interface{}{&expr}); err != nil {
		return nil, err
	}
	X, err := graph.ParseGraph(expr)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return pyGraph{X}, nil
}

func py_DecodeG6(module py.Object, args py.Tuple) (py.Object, error) {
	var g6 string
	if err := py.LoadTuple(args, []interface{}{&g6}); err != nil {
		return nil, err
	}
	X, err := graph.DecodeG6(g6)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return pyGraph{X}, nil
}

func py_Tetrahedron(module py.Object, args py.Tuple) (py.Object, error) {
	return pyGraph{graph.Tetrahedron()}, nil
}

func py_Tetrastring(module py.Object, args py.Tuple) (py.Object, error) {
	var n int
	if err := loadInts(args, &n); err != nil {
		return nil, err
	}
	if n < 1 || 4*n > gokn.MaxVerts {
		return nil, py.ExceptionNewf(py.ValueError, "block count %d out of range", n)
	}
	return pyGraph{graph.Tetrastring(n)}, nil
}

func py_Graph_G6(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.String(X.G6()), nil
}

func py_Graph_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(X.NumVerts()), nil
}

func py_Graph_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(X.NumEdges()), nil
}

func py_Graph_Edges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	edges := make(py.Tuple, X.NumEdges())
	for i, e := range X.Edges() {
		edges[i] = py.Tuple{py.Int(e.A), py.Int(e.B)}
	}
	return edges, nil
}

func py_Graph_AddEdgeAcross(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	var ei, ej int
	if err := loadInts(args, &ei, &ej); err != nil {
		return nil, err
	}
	Ne := X.NumEdges()
	if ei == ej || ei < 0 || ei >= Ne || ej < 0 || ej >= Ne {
		return nil, py.ExceptionNewf(py.IndexError, "edge indices (%d, %d) must be distinct and in [0,%d)", ei, ej, Ne)
	}
	if X.NumVerts()+2 > gokn.MaxVerts {
		return nil, py.ExceptionNewf(py.ValueError, "%v", gokn.ErrTooManyVerts)
	}
	return pyGraph{graph.AddEdgeAcross(X.Graph, ei, ej)}, nil
}

// Contract returns the contracted graph, or None if the contraction merged parallel edges.
func py_Graph_Contract(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	var ei int
	if err := loadInts(args, &ei); err != nil {
		return nil, err
	}
	if ei < 0 || ei >= X.NumEdges() {
		return nil, py.ExceptionNewf(py.IndexError, "edge index %d out of range", ei)
	}
	Xn, ok := graph.ContractEdgeOpt(X.Graph, ei)
	if !ok {
		return py.None, nil
	}
	return pyGraph{Xn}, nil
}

func py_Graph_Union(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	if len(args) != 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Union expects one Graph")
	}
	Y, err := getGraph(args[0])
	if err != nil {
		return nil, err
	}
	if X.NumVerts()+Y.NumVerts() > gokn.MaxVerts {
		return nil, py.ExceptionNewf(py.ValueError, "%v", gokn.ErrTooManyVerts)
	}
	return pyGraph{graph.Union(X.Graph, Y.Graph)}, nil
}

func py_Graph_Canonize(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return pyGraph{canon.Canonize(X.Graph)}, nil
}

type Workspace struct {
	*workspace.Workspace
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

// OpenWorkspace([config_pathname]) opens (once per context) the workspace described by the given config file.
func py_OpenWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj != nil {
		return wsObj, nil
	}

	var pathname string
	if len(args) > 0 {
		if err := py.LoadTuple(args, []interface{}{&pathname}); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(pathname)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	inner, err := workspace.Open(cfg, nil)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	ws := &Workspace{inner}
	py.SetAttrString(module, kWorkspaceAttr, ws)
	return ws, nil
}

func reportTuple(rep engine.Report) py.Tuple {
	return py.Tuple{
		py.String(rep.Status.String()),
		py.Int(rep.NumClasses),
	}
}

// Compute(g, d) returns (status, num_classes)
func py_Workspace_Compute(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)
	var g, d int
	if err := loadInts(args, &g, &d); err != nil {
		return nil, err
	}
	rep, err := ws.Engine.ComputeFamily(context.Background(), gokn.ParamKey{G: g, D: d})
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return reportTuple(rep), nil
}

// Build(g, d) returns a tuple of (status, num_classes), one per family in the plan
func py_Workspace_Build(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)
	var g, d int
	if err := loadInts(args, &g, &d); err != nil {
		return nil, err
	}
	reports, err := ws.Engine.Build(context.Background(), gokn.ParamKey{G: g, D: d})
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	out := make(py.Tuple, len(reports))
	for i, rep := range reports {
		out[i] = reportTuple(rep)
	}
	return out, nil
}

// Load(g, d) returns the persisted family as a tuple of graph6 strings
func py_Workspace_Load(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)
	var g, d int
	if err := loadInts(args, &g, &d); err != nil {
		return nil, err
	}
	fam, err := ws.Store.Load(gokn.ParamKey{G: g, D: d})
	if err != nil {
		return nil, py.ExceptionNewf(py.KeyError, "%v", err)
	}
	out := make(py.Tuple, len(fam))
	for i, g6 := range fam {
		out[i] = py.String(g6)
	}
	return out, nil
}

func py_Workspace_Plan(self py.Object, args py.Tuple) (py.Object, error) {
	var g, d int
	if err := loadInts(args, &g, &d); err != nil {
		return nil, err
	}
	plan := engine.Plan(gokn.ParamKey{G: g, D: d})
	out := make(py.Tuple, len(plan))
	for i, key := range plan {
		out[i] = py.Tuple{py.Int(key.G), py.Int(key.D)}
	}
	return out, nil
}

func py_Workspace_Close(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)
	ws.Close()
	return py.None, nil
}

func init() {

	/////////////////////////////////
	// Graph
	{
		pyGraphType.Dict["G6"] = py.MustNewMethod("G6", py_Graph_G6, 0, "returns the graph6 encoding of this Graph")
		pyGraphType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Graph_NumVerts, 0, "")
		pyGraphType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_Graph_NumEdges, 0, "")
		pyGraphType.Dict["Edges"] = py.MustNewMethod("Edges", py_Graph_Edges, 0, "returns the edge list as a tuple of (a, b) pairs, in order")
		pyGraphType.Dict["AddEdgeAcross"] = py.MustNewMethod("AddEdgeAcross", py_Graph_AddEdgeAcross, 0, "bridges the edges at the two given positions")
		pyGraphType.Dict["Contract"] = py.MustNewMethod("Contract", py_Graph_Contract, 0, "contracts the edge at the given position (None if edges merged)")
		pyGraphType.Dict["Union"] = py.MustNewMethod("Union", py_Graph_Union, 0, "returns the disjoint union with another Graph")
		pyGraphType.Dict["Canonize"] = py.MustNewMethod("Canonize", py_Graph_Canonize, 0, "returns this Graph relabeled into canonical form")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["Compute"] = py.MustNewMethod("Compute", py_Workspace_Compute, 0, "")
		pyWorkspaceType.Dict["Build"] = py.MustNewMethod("Build", py_Workspace_Build, 0, "")
		pyWorkspaceType.Dict["Load"] = py.MustNewMethod("Load", py_Workspace_Load, 0, "")
		pyWorkspaceType.Dict["Plan"] = py.MustNewMethod("Plan", py_Workspace_Plan, 0, "")
		pyWorkspaceType.Dict["Close"] = py.MustNewMethod("Close", py_Workspace_Close, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("ParseGraph", py_ParseGraph, 0, "builds a Graph from an edge-list expression such as \"4: 0-1 0-2 1-2\""),
			py.MustNewMethod("DecodeG6", py_DecodeG6, 0, "builds a Graph from a graph6 string"),
			py.MustNewMethod("Tetrahedron", py_Tetrahedron, 0, ""),
			py.MustNewMethod("Tetrastring", py_Tetrastring, 0, ""),
			py.MustNewMethod("OpenWorkspace", py_OpenWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"MAX_VERTS":   py.Int(gokn.MaxVerts),
			"MIN_GENUS":   py.Int(gokn.MinGenus),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_gokn",
				Doc:  "gokn graph family enumeration module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
