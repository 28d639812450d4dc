// Package oracle adapts canonical form backends to gokn.Oracle.
//
// Backends register themselves by name and are opened through Open.  Every backend reduces a batch of
// graph6 strings to the sorted set of canonical representatives present in the batch.
package oracle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/2x3systems/gokn/gokn"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
)

// Ops reported in an Error
const (
	OpStart  = "start"  // backend could not be launched
	OpWrite  = "write"  // batch could not be delivered to the backend
	OpExit   = "exit"   // backend exited abnormally
	OpOutput = "output" // backend output is unusable
	OpInput  = "input"  // batch contains a malformed graph
)

// Error describes a failed round trip to a canonical form backend.
// Every Error unwraps to gokn.ErrOracle as well as to the underlying cause.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (err *Error) Error() string {
	return fmt.Sprintf("oracle %s: %s: %v", err.Backend, err.Op, err.Err)
}

func (err *Error) Unwrap() []error {
	return []error{gokn.ErrOracle, err.Err}
}

func newError(backend, op string, cause error) *Error {
	return &Error{
		Backend: backend,
		Op:      op,
		Err:     cause,
	}
}

// OpenFunc opens a backend instance from the given options.
type OpenFunc func(opts gokn.OracleOpts) (gokn.Oracle, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

// Register makes a backend available by name to Open.
func Register(backend string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[backend]; exists {
		panic("oracle: backend registered twice: " + backend)
	}
	registry[backend] = open
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the backend named by opts.Backend.
func Open(opts gokn.OracleOpts) (gokn.Oracle, error) {
	registryMu.RLock()
	open := registry[opts.Backend]
	registryMu.RUnlock()

	if open == nil {
		return nil, errors.Wrapf(gokn.ErrUnknownBackend, "%q (available: %v)", opts.Backend, Backends())
	}
	return open(opts)
}

// canonSet accumulates canonical strings in ascending order, dropping repeats.
type canonSet struct {
	tree *redblacktree.Tree
}

func newCanonSet() canonSet {
	return canonSet{
		tree: redblacktree.NewWith(utils.StringComparator),
	}
}

func (set canonSet) Add(g6 string) {
	set.tree.Put(g6, nil)
}

func (set canonSet) Family() gokn.Family {
	fam := make(gokn.Family, 0, set.tree.Size())
	for _, key := range set.tree.Keys() {
		fam = append(fam, key.(string))
	}
	return fam
}
