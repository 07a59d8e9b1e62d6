// Package merkle implements the narrow (capped) append-only Merkle
// accumulator used by the transaction log: a vector of capacity-bounded
// rings, one per level, where level 0 holds one chained hash per
// transaction and each level above checkpoints every k-th hash of the
// level below. Because level 0's hash already folds the entire prior
// history (H(root, leaf)), a level-j entry "covers" k^j leaves without
// any additional hashing — pushing it upward is pure checkpointing, which
// is what keeps Add and Drop at O(log_k N) instead of O(N).
package merkle

import "fmt"

// Hash is the fixed-size digest type the tree operates on.
type Hash [32]byte

// HashFunc combines a running root with the next leaf; the first leaf is
// folded as H(Zero, leaf). The tree itself never relies on
// H(t, Zero) == t (right-identity).
type HashFunc func(a, b Hash) Hash

// Zero is the identity root before any leaf has been added.
var Zero Hash

// Tree is a narrow, append-only Merkle accumulator with bounded memory
// and a monotone drop-cursor.
type Tree struct {
	k       int
	h       HashFunc
	levels  []*Ring[Hash]
	counts  []uint64 // total pushes ever made to each level (not ring.Len())
	size    uint64   // total leaves added since last reset
	dropped uint64   // last accepted Drop argument, for monotonicity
	hasDrop bool
}

// New creates a tree with fan-out/per-level capacity k and a larger
// capacity for level 0 (the raw per-transaction level).
func New(k int, baseCapacity int, h HashFunc) *Tree {
	if k < 1 {
		k = 1
	}
	if baseCapacity < k {
		baseCapacity = k
	}
	t := &Tree{k: k, h: h}
	t.levels = []*Ring[Hash]{NewRing[Hash](baseCapacity)}
	t.counts = []uint64{0}
	return t
}

// Size returns the number of leaves added since the tree was created or
// last reset to 0 via Drop(0).
func (t *Tree) Size() uint64 { return t.size }

// Root returns the back element of the highest non-empty level, or Zero
// if no leaf has ever been added.
func (t *Tree) Root() Hash {
	for j := len(t.levels) - 1; j >= 0; j-- {
		if t.levels[j].Len() > 0 {
			return t.levels[j].Back()
		}
	}
	return Zero
}

// Add folds leaf into the current root (H(root, leaf)), pushes the
// result onto level 0, and propagates checkpoints upward through every
// level whose k-group the new entry completes. It returns the new root.
func (t *Tree) Add(leaf Hash) Hash {
	next := t.h(t.Root(), leaf)
	t.size++
	return t.pushLevel0(next)
}

// Seed resets the tree and replays a sequence of precomputed level-0
// values (as persisted by the transaction log's merkle_tree map) without
// rehashing, rebuilding every level above by the same cascade Add uses.
// It is used on startup to reconstruct in-memory Merkle state from disk.
func (t *Tree) Seed(values []Hash) Hash {
	base := t.levels[0].Cap()
	t.levels = []*Ring[Hash]{NewRing[Hash](base)}
	t.counts = []uint64{0}
	t.size = 0
	for _, v := range values {
		t.size++
		t.pushLevel0(v)
	}
	return t.Root()
}

// pushLevel0 pushes an already-computed level-0 value and cascades
// checkpoints upward through every level whose k-group it completes.
func (t *Tree) pushLevel0(v Hash) Hash {
	t.levels[0].Push(v)
	t.counts[0]++

	j := 0
	for t.counts[j]%uint64(t.k) == 0 {
		if j+1 == len(t.levels) {
			t.levels = append(t.levels, NewRing[Hash](t.k))
			t.counts = append(t.counts, 0)
		}
		parent := t.levels[j].Back()
		t.levels[j+1].Push(parent)
		t.counts[j+1]++
		j++
	}

	return t.Root()
}

// Level0 returns the live level-0 entries oldest to newest, the set the
// transaction log checkpoints into its merkle_tree map on every commit.
func (t *Tree) Level0() []Hash {
	out := make([]Hash, t.levels[0].Len())
	t.levels[0].ForEach(func(i int, v Hash) { out[i] = v })
	return out
}

// Drop truncates the logical history to at most n leaves, returning the
// largest achievable new size n' <= n. n' may be less than n if the
// rings have already outrun the capacity needed to reconstruct exactly
// n. Drop is required to be monotone: calling it with n smaller than a
// previously accepted argument is a usage error.
func (t *Tree) Drop(n uint64) (uint64, error) {
	if t.hasDrop && n < t.dropped {
		return 0, fmt.Errorf("merkle: drop(%d) regresses past previous drop(%d)", n, t.dropped)
	}
	if n > t.size {
		n = t.size
	}

	target := n
	level := 0
	for {
		wantAtLevel := n / pow(uint64(t.k), level)
		drop := t.counts[level] - wantAtLevel
		if drop <= uint64(t.levels[level].Len()) {
			target = wantAtLevel * pow(uint64(t.k), level)
			break
		}
		if level+1 >= len(t.levels) {
			// Nothing reconstructs n; the whole tree resets.
			target = 0
			break
		}
		level++
	}

	for i := range t.levels {
		want := target / pow(uint64(t.k), i)
		drop := t.counts[i] - want
		t.levels[i].Pop(int(drop))
		t.counts[i] = want
	}
	t.size = target
	t.dropped = n
	t.hasDrop = true
	return target, nil
}

func pow(base uint64, exp int) uint64 {
	r := uint64(1)
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}
