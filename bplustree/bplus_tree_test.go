package bplus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func smallConfig() Config {
	return Config{MaxIdxNum: 4, MaxDataNum: 4, KeySize: 8, ValueSize: 8}
}

func newTestTree(t *testing.T, cfg Config, opts ...Option) *BPlusTree {
	t.Helper()
	tree, err := NewBPlusTree(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })
	return tree
}

type entry struct{ key, value []byte }

// scan follows the leaf chain from the head.
func scan(t *testing.T, tree *BPlusTree) []entry {
	t.Helper()
	var out []entry
	it := tree.First()
	defer it.Close()
	for ; it.Valid(); it.Next() {
		out = append(out, entry{it.Key(), it.Value()})
	}
	require.NoError(t, it.Err())
	return out
}

// nodeImage captures every live node's buffer and count.
func nodeImage(t *testing.T, tree *BPlusTree) map[NodeID]string {
	t.Helper()
	img := make(map[NodeID]string)
	for _, id := range tree.Store().IDs() {
		n, err := tree.Store().Get(id)
		require.NoError(t, err)
		img[id] = fmt.Sprintf("%d:%x", n.KeyCount(), n.Content())
	}
	return img
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{MaxIdxNum: 4, MaxDataNum: 4, KeySize: 0, ValueSize: 8},
		{MaxIdxNum: 4, MaxDataNum: 4, KeySize: 8, ValueSize: 0},
		{MaxIdxNum: 1, MaxDataNum: 4, KeySize: 8, ValueSize: 8},
		{MaxIdxNum: 8, MaxDataNum: 4, KeySize: 8, ValueSize: 8},
		{MaxIdxNum: 4, MaxDataNum: 4, KeySize: 8, ValueSize: 8, MaxNodes: -1},
	}
	for _, cfg := range bad {
		err := cfg.Validate()
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%+v: %v", cfg, err)
		_, err = NewBPlusTree(cfg)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	}
}

func TestNewTree(t *testing.T) {
	tree := newTestTree(t, smallConfig())

	assert.Equal(t, 2, tree.Store().Len())
	h, err := tree.Height()
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, scan(t, tree))
	require.NoError(t, tree.CheckInvariants())

	root, err := tree.rootNode()
	require.NoError(t, err)
	assert.Equal(t, tree.Head(), root.Child(0))
	assert.Equal(t, 0, root.KeyCount())
}

func TestInsertGrowsRoot(t *testing.T) {
	tree := newTestTree(t, smallConfig())
	firstRoot := tree.Root()

	for i := uint64(1); i <= 200; i++ {
		require.NoError(t, tree.Insert(u64(i), u64(i*10)))
		require.NoError(t, tree.CheckInvariants(), "after %d", i)
	}

	assert.NotEqual(t, firstRoot, tree.Root())
	h, err := tree.Height()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h, 4)
	assert.Equal(t, 200, tree.Len())

	got := scan(t, tree)
	require.Len(t, got, 200)
	for i, e := range got {
		assert.Equal(t, u64(uint64(i+1)), e.key)
		assert.Equal(t, u64(uint64(i+1)*10), e.value)
	}
}

func TestInsertRandomRoundTrip(t *testing.T) {
	for _, cfg := range []Config{
		smallConfig(),
		{MaxIdxNum: 2, MaxDataNum: 2, KeySize: 8, ValueSize: 8},
		{MaxIdxNum: 3, MaxDataNum: 5, KeySize: 8, ValueSize: 8},
		{MaxIdxNum: 16, MaxDataNum: 32, KeySize: 8, ValueSize: 8},
	} {
		tree := newTestTree(t, cfg)
		rng := rand.New(rand.NewSource(42))

		var want []entry
		for i := 0; i < 3000; i++ {
			k := u64(uint64(rng.Intn(500)))
			v := u64(uint64(i))
			require.NoError(t, tree.Insert(k, v))
			want = append(want, entry{k, v})
		}
		require.NoError(t, tree.CheckInvariants())

		// stable: equal keys keep insertion order
		sort.SliceStable(want, func(i, j int) bool { return bytes.Compare(want[i].key, want[j].key) < 0 })
		assert.Equal(t, want, scan(t, tree), "config %+v", cfg)
	}
}

func TestDuplicateStabilityAcrossSplits(t *testing.T) {
	tree := newTestTree(t, smallConfig())
	dup := u64(505)

	var want [][]byte
	for i := uint64(0); i < 100; i++ {
		require.NoError(t, tree.Insert(u64(i*10), u64(i)))
		require.NoError(t, tree.Insert(dup, u64(1000+i)))
		want = append(want, u64(1000+i))
	}
	require.NoError(t, tree.CheckInvariants())

	got, err := tree.SearchAll(dup)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	first, err := tree.Search(dup)
	require.NoError(t, err)
	assert.Equal(t, u64(1000), first)
}

func TestInsertSizeMismatch(t *testing.T) {
	tree := newTestTree(t, smallConfig())
	require.NoError(t, tree.Insert(u64(1), u64(1)))
	before := nodeImage(t, tree)

	err := tree.Insert([]byte("short"), u64(1))
	assert.True(t, errors.Is(err, ErrSizeMismatch), "got %v", err)
	err = tree.Insert(u64(2), []byte("long value!"))
	assert.True(t, errors.Is(err, ErrSizeMismatch))

	assert.Equal(t, before, nodeImage(t, tree))
	assert.Equal(t, 1, tree.Len())
}

func TestInsertAllocationFailureIsAtomic(t *testing.T) {
	tree := newTestTree(t, smallConfig())
	rng := rand.New(rand.NewSource(7))

	failures := 0
	for i := 0; i < 400; i++ {
		k, v := u64(uint64(rng.Intn(100))), u64(uint64(i))

		// allow at most one new node, fewer than a multi-level split needs
		for _, extra := range []int{0, 1} {
			before := nodeImage(t, tree)
			root, size := tree.Root(), tree.Len()

			tree.Store().SetLimit(tree.Store().Len() + extra)
			err := tree.Insert(k, v)
			if err == nil {
				break
			}
			failures++
			require.True(t, errors.Is(err, ErrAllocationFailure), "got %v", err)
			require.Equal(t, before, nodeImage(t, tree), "insert %d with %d spare nodes", i, extra)
			require.Equal(t, root, tree.Root())
			require.Equal(t, size, tree.Len())
		}
		tree.Store().SetLimit(0)
		if tree.Len() == i {
			require.NoError(t, tree.Insert(k, v))
		}
	}
	assert.Greater(t, failures, 0)
	require.NoError(t, tree.CheckInvariants())
	assert.Equal(t, 400, tree.Len())
}

func TestConfigNodeLimit(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxNodes = 3
	tree := newTestTree(t, cfg)

	var err error
	n := 0
	for ; n < 100; n++ {
		if err = tree.Insert(u64(uint64(n)), u64(0)); err != nil {
			break
		}
	}
	assert.True(t, errors.Is(err, ErrAllocationFailure))
	// the root and two leaves hold six entries before a third leaf is needed
	assert.Equal(t, 6, n)
	assert.Equal(t, 3, tree.Store().Len())
	require.NoError(t, tree.CheckInvariants())
}

func TestInsertBatch(t *testing.T) {
	tree := newTestTree(t, smallConfig())
	keys := [][]byte{u64(3), u64(1), u64(2)}
	vals := [][]byte{u64(30), u64(10), u64(20)}

	n, err := tree.InsertBatch(keys, vals)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = tree.InsertBatch([][]byte{u64(4), []byte("x")}, [][]byte{u64(40), u64(0)})
	assert.Equal(t, 1, n)
	assert.True(t, errors.Is(err, ErrSizeMismatch))

	_, err = tree.InsertBatch(keys, vals[:1])
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Equal(t, 4, tree.Len())
}

func TestCustomCompare(t *testing.T) {
	desc := func(a, b []byte) int { return bytes.Compare(b, a) }
	tree := newTestTree(t, smallConfig(), WithCompare(desc))
	for i := uint64(0); i < 50; i++ {
		require.NoError(t, tree.Insert(u64(i), u64(i)))
	}
	require.NoError(t, tree.CheckInvariants())

	got := scan(t, tree)
	require.Len(t, got, 50)
	assert.Equal(t, u64(49), got[0].key)
	assert.Equal(t, u64(0), got[49].key)
}

func TestSharedNodeStore(t *testing.T) {
	store := NewNodeStore()
	a := newTestTree(t, smallConfig(), WithNodeStore(store))
	b, err := NewBPlusTree(smallConfig(), WithNodeStore(store))
	require.NoError(t, err)

	for i := uint64(0); i < 20; i++ {
		require.NoError(t, a.Insert(u64(i), u64(i)))
		require.NoError(t, b.Insert(u64(100+i), u64(i)))
	}
	require.NoError(t, a.CheckInvariants())
	require.NoError(t, b.CheckInvariants())
	assert.Len(t, scan(t, a), 20)
	assert.Len(t, scan(t, b), 20)
}
