package gokn

import (
	"io"
	"sort"
	"sync"
)

// Less orders keys by G then D, which is also a valid computation order for d > 0 chains.
func (key ParamKey) Less(other ParamKey) bool {
	if key.G != other.G {
		return key.G < other.G
	}
	return key.D < other.D
}

// SortKeys sorts the given keys in place (see ParamKey.Less).
func SortKeys(keys []ParamKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
}

// Contains returns true if g6 is a member of this (sorted) Family.
func (fam Family) Contains(g6 string) bool {
	i := sort.SearchStrings(fam, g6)
	return i < len(fam) && fam[i] == g6
}

// IsSorted returns true if this Family is strictly ascending (sorted and free of duplicates).
func (fam Family) IsSorted() bool {
	for i := 1; i < len(fam); i++ {
		if fam[i-1] >= fam[i] {
			return false
		}
	}
	return true
}

// Context is a container for open resources (stores, oracles) that are closed together.
type Context interface {

	// Attaches the given resource to this context.
	Attach(res io.Closer)

	// Detaches the given resource from this context without closing it.
	Detach(res io.Closer)

	// Closes all attached resources then closes.
	Close()

	// Signals when Close() completed and all attached resources have been closed
	Done() <-chan struct{}
}

func NewContext() Context {
	ctx := &resourceContext{
		attached: make(map[io.Closer]struct{}),
		closing:  make(chan struct{}),
		closed:   make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.closing
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type resourceContext struct {
	mu        sync.Mutex
	openCount sync.WaitGroup
	attached  map[io.Closer]struct{}
	closing   chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func (ctx *resourceContext) Attach(res io.Closer) {
	ctx.mu.Lock()
	if _, exists := ctx.attached[res]; !exists {
		ctx.attached[res] = struct{}{}
		ctx.openCount.Add(1)
	}
	ctx.mu.Unlock()
}

func (ctx *resourceContext) Detach(res io.Closer) {
	ctx.mu.Lock()
	if _, exists := ctx.attached[res]; exists {
		delete(ctx.attached, res)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *resourceContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *resourceContext) Close() {
	ctx.closeOnce.Do(func() {
		ctx.mu.Lock()
		toClose := make([]io.Closer, 0, len(ctx.attached))
		for res := range ctx.attached {
			toClose = append(toClose, res)
		}
		ctx.mu.Unlock()

		for _, res := range toClose {
			res.Close()
			ctx.Detach(res)
		}
		close(ctx.closing)
	})
}
