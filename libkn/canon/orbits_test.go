package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrbitsFollowNewAutomorphisms(t *testing.T) {
	s := searcher{n: 5}
	root := newOrbits(s.n, nil)
	fix0 := newOrbits(s.n, []int{0})
	s.levels = []*orbits{root, fix0}

	// (1 2) fixes 0 and reaches both levels
	s.addAuto(leaf{order: []int{0, 1, 2, 3, 4}}, leaf{order: []int{0, 2, 1, 3, 4}})
	require.True(t, root.sameOrbit(2, []int{1}))
	require.True(t, fix0.sameOrbit(2, []int{1}))

	// (0 3) moves 0, so only the root level takes it
	s.addAuto(leaf{order: []int{0, 1, 2, 3, 4}}, leaf{order: []int{3, 1, 2, 0, 4}})
	require.True(t, root.sameOrbit(3, []int{0}))
	require.False(t, fix0.sameOrbit(3, []int{0}))

	// (2 4) chains into the orbit of 1
	s.addAuto(leaf{order: []int{0, 1, 2, 3, 4}}, leaf{order: []int{0, 1, 4, 3, 2}})
	require.True(t, fix0.sameOrbit(4, []int{1}))
	require.False(t, fix0.sameOrbit(4, []int{0, 3}))

	// the identity is never recorded
	s.addAuto(leaf{order: []int{0, 1, 2, 3, 4}}, leaf{order: []int{0, 1, 2, 3, 4}})
	require.Len(t, s.autos, 3)
}

func TestSearchUnwindsLevels(t *testing.T) {
	s := searcher{n: 6, adj: make([]uint64, 6)}
	all := []int{0, 1, 2, 3, 4, 5}
	s.search(s.refine([][]int{all}), nil)
	require.Empty(t, s.levels)
	require.NotEmpty(t, s.autos)
}
