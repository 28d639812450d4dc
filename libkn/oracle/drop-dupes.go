package oracle

import (
	"hash/maphash"
	"unsafe"
)

const DefaultPoolSz = 32 * 1024

// DropDupes filters exact repeats out of a stream of graph6 strings before they reach a backend.
// Isomorphic copies with different encodings pass through; only the oracle can collapse those.
type DropDupes struct {
	hashMap   map[uint64]string
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	poolSz    int
}

// NewDropDupes returns an empty filter.  A poolSz of 0 denotes DefaultPoolSz.
func NewDropDupes(poolSz int) *DropDupes {
	if poolSz <= 0 {
		poolSz = DefaultPoolSz
	}
	return &DropDupes{
		hashMap: make(map[uint64]string),
		poolSz:  poolSz,
	}
}

// Reset empties the filter.  Strings returned earlier remain valid since a new pool is started.
func (dd *DropDupes) Reset() {
	dd.bufPool = nil
	dd.bufPoolSz = 0
	for k := range dd.hashMap {
		delete(dd.hashMap, k)
	}
}

// Len returns the number of distinct strings added since the last Reset.
func (dd *DropDupes) Len() int {
	return len(dd.hashMap)
}

// TryAdd returns the pooled copy of g6 and true if g6 has not been seen since the last Reset.
func (dd *DropDupes) TryAdd(g6 []byte) (string, bool) {
	dd.hasher.Reset()
	dd.hasher.Write(g6)
	hash := dd.hasher.Sum64()

	existing, found := dd.hashMap[hash]
	for found {
		if existing == string(g6) {
			return existing, false
		}
		hash++
		existing, found = dd.hashMap[hash]
	}

	// New entry: copy into the current pool, starting a new pool when this one is full.
	pos := dd.bufPoolSz
	itemLen := len(g6)
	if pos+itemLen > cap(dd.bufPool) {
		allocSz := max(dd.poolSz, itemLen)
		dd.bufPool = make([]byte, allocSz)
		dd.bufPoolSz = 0
		pos = 0
	}

	dd.bufPool = append(dd.bufPool[:pos], g6...)
	entry := ""
	if itemLen > 0 {
		// Pool bytes are never rewritten once handed out
		entry = unsafe.String(&dd.bufPool[pos], itemLen)
	}
	dd.hashMap[hash] = entry
	dd.bufPoolSz += itemLen
	return entry, true
}

// Filter returns the distinct strings of batch in first-seen order.
func Filter(batch []string) []string {
	dd := NewDropDupes(0)
	out := make([]string, 0, len(batch))
	for _, g6 := range batch {
		if _, isNew := dd.TryAdd([]byte(g6)); isNew {
			out = append(out, g6)
		}
	}
	return out
}
