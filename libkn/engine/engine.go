// Package engine walks the (g,d) lattice, building each family from its prerequisites by graph surgery
// and reducing the candidates to isomorphism classes through a canonical form oracle.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/2x3systems/gokn/libkn/oracle"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
)

// Status is the outcome of a family computation.
type Status int

const (
	Computed   Status = iota // family generated and persisted
	Seeded                   // seed family materialized and persisted
	Exists                   // family already persisted; nothing done
	Infeasible               // (g,d) fails the feasibility gate; nothing done
	Failed                   // computation aborted; nothing persisted
)

func (s Status) String() string {
	switch s {
	case Computed:
		return "computed"
	case Seeded:
		return "seeded"
	case Exists:
		return "exists"
	case Infeasible:
		return "infeasible"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Report summarizes one ComputeFamily (or Seed) call.
type Report struct {
	Key           gokn.ParamKey
	Status        Status
	NumCandidates int           // graphs generated by surgery
	NumUnique     int           // candidates left after dropping exact repeats
	NumClasses    int           // isomorphism classes returned by the oracle
	Elapsed       time.Duration // total time spent
}

func (rep Report) String() string {
	return fmt.Sprintf("%v %s: %d candidates, %d unique, %d classes in %v",
		rep.Key, rep.Status, rep.NumCandidates, rep.NumUnique, rep.NumClasses, rep.Elapsed.Round(time.Millisecond))
}

type Opts struct {
	Overwrite  bool                  // recompute families that are already persisted
	Registerer prometheus.Registerer // if set, engine metrics are registered here
}

// Engine computes families one key at a time.  It runs in the calling goroutine and is not safe for concurrent use.
type Engine struct {
	store   gokn.FamilyStore
	oracle  gokn.Oracle
	opts    Opts
	Metrics *Metrics
}

func New(store gokn.FamilyStore, orc gokn.Oracle, opts Opts) *Engine {
	return &Engine{
		store:   store,
		oracle:  orc,
		opts:    opts,
		Metrics: NewMetrics(opts.Registerer),
	}
}

// Seed materializes the genus 3 family: the canonical form of the tetrahedron.
func (eng *Engine) Seed(ctx context.Context) (Report, error) {
	rep := Report{
		Key: gokn.SeedKey,
	}
	t0 := time.Now()

	has, err := eng.store.Has(gokn.SeedKey)
	if err != nil {
		return eng.fail(rep, err)
	}
	if has && !eng.opts.Overwrite {
		rep.Status = Exists
		eng.Metrics.observe(rep)
		return rep, nil
	}

	K4 := graph.Tetrahedron()
	batch := []string{K4.G6()}
	K4.Reclaim()

	rep.NumCandidates, rep.NumUnique = 1, 1
	if err = eng.reduceAndSave(ctx, &rep, batch); err != nil {
		return eng.fail(rep, err)
	}
	rep.Status = Seeded
	rep.Elapsed = time.Since(t0)
	eng.Metrics.observe(rep)
	return rep, nil
}

// ComputeFamily generates every candidate graph for key, reduces them through the oracle in a single batch,
// and persists the resulting family.  Prerequisite families must already be persisted (the seed family
// is materialized on demand).
//
// An infeasible key is a no-op: a diagnostic is logged and Status is Infeasible.
// On error nothing is persisted.
func (eng *Engine) ComputeFamily(ctx context.Context, key gokn.ParamKey) (Report, error) {
	rep := Report{
		Key: key,
	}
	t0 := time.Now()

	if !key.IsFeasible() {
		klog.Infof("skipping %v: infeasible (need g >= %d, d >= 0, d+8 <= 2g, g <= %d)", key, gokn.MinGenus, gokn.MaxGenus)
		rep.Status = Infeasible
		eng.Metrics.observe(rep)
		return rep, nil
	}

	Nv, Ne := key.NumVerts(), key.NumEdges()
	if Nv*(Nv-1)/2 < Ne {
		panic(fmt.Sprintf("%v: %d edges cannot fit on %d vertices", key, Ne, Nv))
	}

	has, err := eng.store.Has(key)
	if err != nil {
		return eng.fail(rep, err)
	}
	if has && !eng.opts.Overwrite {
		klog.V(1).Infof("%v already persisted", key)
		rep.Status = Exists
		eng.Metrics.observe(rep)
		return rep, nil
	}

	klog.Infof("computing %v (%d vertices, %d edges)", key, Nv, Ne)

	gen := newCandidates()
	if key.D > 0 {
		err = eng.contractAll(ctx, key, gen)
	} else {
		err = eng.bridgeAll(ctx, key, gen)
	}
	if err != nil {
		return eng.fail(rep, err)
	}

	rep.NumCandidates = gen.numGenerated
	rep.NumUnique = len(gen.batch)
	if err = eng.reduceAndSave(ctx, &rep, gen.batch); err != nil {
		return eng.fail(rep, err)
	}

	rep.Status = Computed
	rep.Elapsed = time.Since(t0)
	eng.Metrics.observe(rep)
	klog.Infof("%v", rep)
	return rep, nil
}

func (eng *Engine) fail(rep Report, err error) (Report, error) {
	rep.Status = Failed
	eng.Metrics.observe(rep)
	return rep, errors.Wrapf(err, "computing %v", rep.Key)
}

func (eng *Engine) reduceAndSave(ctx context.Context, rep *Report, batch []string) error {
	t0 := time.Now()
	fam, err := eng.oracle.Canonize(ctx, batch)
	eng.Metrics.OracleDuration.WithLabelValues(eng.oracle.Backend()).Observe(time.Since(t0).Seconds())
	if err != nil {
		return err
	}
	rep.NumClasses = len(fam)
	return eng.store.Save(rep.Key, fam)
}

// candidates collects graph6 encodings, dropping exact repeats as they arrive.
type candidates struct {
	dd           *oracle.DropDupes
	batch        []string
	numGenerated int
	buf          []byte
}

func newCandidates() *candidates {
	return &candidates{
		dd: oracle.NewDropDupes(0),
	}
}

// add encodes and reclaims X.
func (gen *candidates) add(X *graph.Graph) error {
	var err error
	gen.buf, err = X.AppendG6(gen.buf[:0])
	X.Reclaim()
	if err != nil {
		return err
	}
	gen.numGenerated++
	if g6, isNew := gen.dd.TryAdd(gen.buf); isNew {
		gen.batch = append(gen.batch, g6)
	}
	return nil
}

// loadFamily loads a prerequisite family, decoding each member and checking its shape.
func (eng *Engine) loadFamily(ctx context.Context, key gokn.ParamKey) ([]*graph.Graph, error) {
	if key == gokn.SeedKey {
		has, err := eng.store.Has(key)
		if err != nil {
			return nil, err
		}
		if !has {
			klog.V(1).Infof("seeding %v", key)
			if _, err = eng.Seed(ctx); err != nil {
				return nil, err
			}
		}
	}

	fam, err := eng.store.Load(key)
	if err != nil {
		return nil, err
	}

	graphs := make([]*graph.Graph, 0, len(fam))
	for _, g6 := range fam {
		X, err := graph.DecodeG6(g6)
		if err == nil && (X.NumVerts() != key.NumVerts() || X.NumEdges() != key.NumEdges()) {
			err = errors.Wrapf(gokn.ErrBadFamily, "%q has %d vertices, %d edges", g6, X.NumVerts(), X.NumEdges())
		}
		if err != nil {
			reclaimAll(graphs)
			return nil, errors.Wrapf(err, "family %v", key)
		}
		graphs = append(graphs, X)
	}
	return graphs, nil
}

func reclaimAll(graphs []*graph.Graph) {
	for _, X := range graphs {
		X.Reclaim()
	}
}

// contractAll contracts every edge of every member of family(g,d-1) that does not lie on a triangle.
func (eng *Engine) contractAll(ctx context.Context, key gokn.ParamKey, gen *candidates) error {
	prev, err := eng.loadFamily(ctx, gokn.ParamKey{G: key.G, D: key.D - 1})
	if err != nil {
		return err
	}
	defer reclaimAll(prev)

	// Members of family(g,d-1) have exactly NumEdges(g,d)+1 edges
	for _, X := range prev {
		for ei := 0; ei <= key.NumEdges(); ei++ {
			if Xn, ok := graph.ContractEdgeOpt(X, ei); ok {
				if err = gen.add(Xn); err != nil {
					return err
				}
			}
		}
		if err = ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// bridgeAll generates the trivalent (d = 0) candidates for genus g.
func (eng *Engine) bridgeAll(ctx context.Context, key gokn.ParamKey, gen *candidates) error {
	g := key.G

	// Odd genus: the tetrastring of (g-1)/2 blocks
	if g%2 == 1 {
		if err := gen.add(graph.Tetrastring((g - 1) / 2)); err != nil {
			return err
		}
	}

	// Bridges joining two smaller trivalent graphs
	for _, part := range Partitions(g) {
		fam1, err := eng.loadFamily(ctx, gokn.ParamKey{G: part[0]})
		if err != nil {
			return err
		}
		fam2, err := eng.loadFamily(ctx, gokn.ParamKey{G: part[1]})
		if err != nil {
			reclaimAll(fam1)
			return err
		}
		err = bridgeUnions(ctx, fam1, fam2, gen)
		reclaimAll(fam1)
		reclaimAll(fam2)
		if err != nil {
			return err
		}
	}

	// Bridges within a graph of genus g-1
	if g > gokn.MinGenus {
		prevKey := gokn.ParamKey{G: g - 1}
		prev, err := eng.loadFamily(ctx, prevKey)
		if err != nil {
			return err
		}
		defer reclaimAll(prev)

		ee := key.NumEdges() - 3
		for _, X := range prev {
			for j := 0; j < ee; j++ {
				for k := j + 1; k < ee; k++ {
					if err = gen.add(graph.AddEdgeAcross(X, j, k)); err != nil {
						return err
					}
				}
			}
			if err = ctx.Err(); err != nil {
				return err
			}
		}
	}

	return nil
}

func bridgeUnions(ctx context.Context, fam1, fam2 []*graph.Graph, gen *candidates) error {
	for _, g1 := range fam1 {
		for _, g2 := range fam2 {
			U := graph.Union(g1, g2)
			e1, e2 := g1.NumEdges(), g2.NumEdges()
			for i := 0; i < e1; i++ {
				for j := 0; j < e2; j++ {
					if err := gen.add(graph.AddEdgeAcross(U, i, e1+j)); err != nil {
						U.Reclaim()
						return err
					}
				}
			}
			U.Reclaim()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Partitions returns the genus splits g = l1 + l2 whose families are bridged together: 3 <= l1 < g-3 and l1 >= l2.
func Partitions(g int) [][2]int {
	var parts [][2]int
	for l1 := gokn.MinGenus; l1 < g-3; l1++ {
		if l2 := g - l1; l1 >= l2 {
			parts = append(parts, [2]int{l1, l2})
		}
	}
	return parts
}

// Prerequisites returns the keys whose families ComputeFamily(key) reads.
func Prerequisites(key gokn.ParamKey) []gokn.ParamKey {
	if key.D > 0 {
		return []gokn.ParamKey{{G: key.G, D: key.D - 1}}
	}
	var deps []gokn.ParamKey
	for _, part := range Partitions(key.G) {
		deps = append(deps, gokn.ParamKey{G: part[0]})
		if part[1] != part[0] {
			deps = append(deps, gokn.ParamKey{G: part[1]})
		}
	}
	if key.G > gokn.MinGenus {
		deps = append(deps, gokn.ParamKey{G: key.G - 1})
	}
	return deps
}

// Plan returns key and its transitive prerequisites, each listed after everything it depends on.
func Plan(key gokn.ParamKey) []gokn.ParamKey {
	var plan []gokn.ParamKey
	visited := make(map[gokn.ParamKey]bool)

	var visit func(k gokn.ParamKey)
	visit = func(k gokn.ParamKey) {
		if visited[k] {
			return
		}
		visited[k] = true
		if k != gokn.SeedKey {
			for _, dep := range Prerequisites(k) {
				visit(dep)
			}
		}
		plan = append(plan, k)
	}
	visit(key)
	return plan
}

// Build computes every family in Plan(key) that is not yet persisted (or all of them with Opts.Overwrite).
func (eng *Engine) Build(ctx context.Context, key gokn.ParamKey) ([]Report, error) {
	if !key.IsFeasible() && key != gokn.SeedKey {
		return nil, errors.Wrapf(gokn.ErrBadParamKey, "%v is infeasible", key)
	}

	var reports []Report
	for _, k := range Plan(key) {
		var rep Report
		var err error
		if k == gokn.SeedKey {
			rep, err = eng.Seed(ctx)
		} else {
			rep, err = eng.ComputeFamily(ctx, k)
		}
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
