package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func xorHash(a, b Hash) Hash {
	var out Hash
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func leaf(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestTreeRootOfEmptyIsZero(t *testing.T) {
	tr := New(4, 4, xorHash)
	require.Equal(t, Zero, tr.Root())
	require.Equal(t, uint64(0), tr.Size())
}

func TestTreeAddAccumulatesSize(t *testing.T) {
	tr := New(4, 4, xorHash)
	for i := byte(1); i <= 10; i++ {
		tr.Add(leaf(i))
	}
	require.Equal(t, uint64(10), tr.Size())
	require.NotEqual(t, Zero, tr.Root())
}

func TestTreeSeedReproducesRootWithoutRehash(t *testing.T) {
	tr := New(4, 8, xorHash)
	for i := byte(1); i <= 9; i++ {
		tr.Add(leaf(i))
	}
	root := tr.Root()
	level0 := tr.Level0()

	replay := New(4, 8, xorHash)
	seeded := replay.Seed(level0)
	require.Equal(t, root, seeded)
	require.Equal(t, tr.Size(), replay.Size())
}

func TestTreeDropMonotone(t *testing.T) {
	tr := New(4, 16, xorHash)
	for i := byte(1); i <= 20; i++ {
		tr.Add(leaf(i))
	}

	n, err := tr.Drop(12)
	require.NoError(t, err)
	require.LessOrEqual(t, n, uint64(12))

	_, err = tr.Drop(n - 1)
	require.Error(t, err, "dropping below a previously accepted bound must fail")
}

func TestTreeDropToZeroResetsRoot(t *testing.T) {
	tr := New(4, 16, xorHash)
	for i := byte(1); i <= 5; i++ {
		tr.Add(leaf(i))
	}
	n, err := tr.Drop(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), n)
	require.Equal(t, Zero, tr.Root())
}

func TestTreeFanoutTwoCascades(t *testing.T) {
	tr := New(2, 2, xorHash)
	for i := byte(1); i <= 8; i++ {
		tr.Add(leaf(i))
	}
	// 8 leaves at fanout 2 should have built up to level 3 (8 = 2^3).
	require.Equal(t, uint64(8), tr.Size())
	require.Len(t, tr.levels, 4)
}
