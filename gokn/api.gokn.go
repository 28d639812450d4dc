package gokn

import (
	"context"
	"fmt"
	"time"
)

const (

	// MaxVerts is the largest vertex count a graph6 header byte can express in a single byte.
	MaxVerts = 62

	// MinGenus is the smallest genus with a non-empty family (the tetrahedron).
	MinGenus = 3

	// MaxGenus is the largest genus whose graphs still fit within MaxVerts.
	MaxGenus = (MaxVerts + 2) / 2
)

// ParamKey identifies one persisted graph family: genus G and defect D.
type ParamKey struct {
	G int
	D int
}

// SeedKey is the family that is materialized directly from the tetrahedron rather than computed.
var SeedKey = ParamKey{G: MinGenus, D: 0}

func (key ParamKey) String() string {
	return fmt.Sprintf("(g=%d,d=%d)", key.G, key.D)
}

// NumVerts is the vertex count of every graph in this family: 2g-2-d.
func (key ParamKey) NumVerts() int {
	return 2*key.G - 2 - key.D
}

// NumEdges is the edge count of every graph in this family: 3g-3-d.
func (key ParamKey) NumEdges() int {
	return 3*key.G - 3 - key.D
}

// IsFeasible reports if a family for this key can be computed by the enumeration engine.
// The seed family (3,0) is not feasible in this sense; it is materialized from the tetrahedron.
func (key ParamKey) IsFeasible() bool {
	if key.G < MinGenus || key.D < 0 || key.D+8 > 2*key.G {
		return false
	}
	return key.G <= MaxGenus
}

// Family is the sorted set of canonical graph6 strings for a ParamKey, one per isomorphism class.
// A Family is never mutated once it has been persisted.
type Family []string

// Oracle reduces a batch of graph6 encoded graphs to one canonical representative per isomorphism class.
//
// Isomorphic inputs map to the identical output string and non-isomorphic inputs map to distinct strings.
// The batch may contain duplicates and isomorphic copies.
type Oracle interface {

	// Canonize blocks until the entire batch has been reduced or the backend fails.
	// The returned Family is sorted.
	Canonize(ctx context.Context, batch []string) (Family, error)

	// Backend returns the registered name of this oracle's backend.
	Backend() string

	Close() error
}

// OracleOpts specifies which canonical form backend to open and how to run it.
type OracleOpts struct {
	Backend    string        // "labelg", "inproc", or "nauty" (requires the nauty build tag)
	LabelgPath string        // executable for the labelg backend; defaults to "labelg" on PATH
	Timeout    time.Duration // per-batch deadline; zero means no deadline
}

// FamilyStore persists families keyed by ParamKey.
//
// A single writer per key is assumed; prerequisite keys must be fully persisted before they are read.
type FamilyStore interface {

	// Has returns true if a family for the given key has been persisted.
	Has(key ParamKey) (bool, error)

	// Load returns the persisted family for key or ErrFamilyNotFound.
	Load(key ParamKey) (Family, error)

	// Save persists fam for key.  Either the complete family is written or nothing is.
	Save(key ParamKey, fam Family) error

	// Keys returns the keys of all persisted families, ordered by G then D.
	Keys() ([]ParamKey, error)

	Close() error
}

// StoreOpts specifies params for opening a FamilyStore.
type StoreOpts struct {
	Kind     string // "text" or "badger"
	Root     string // directory holding the store; empty with "badger" denotes an in-memory store
	ReadOnly bool   // open in read-only mode
}

// PrintOpts specifies what is printed when printing a graph
type PrintOpts struct {
	Label string // Prefix label
	Edges bool   // If set, prints the edge list
	G6    bool   // If set, prints the graph6 encoding
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{
	Edges: true,
	G6:    true,
}
