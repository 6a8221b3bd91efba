package bplus

import (
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertLeaf(t *testing.T, l *LeafNode, key, value string) NodeID {
	t.Helper()
	sib, err := l.Insert([]byte(key), []byte(value))
	require.NoError(t, err)
	return sib
}

func TestLeafInsert(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(6, 3, 1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, leaf.Content(), LeafContentLen(6, 1, 1))
	assert.Nil(t, leaf.MaxKey())

	steps := []struct{ key, value, want string }{
		{"1", "1", "11"},
		{"3", "5", "1135"},
		{"2", "3", "112335"},
		{"2", "4", "11232435"},
		{"3", "6", "1123243536"},
		{"1", "2", "111223243536"},
	}
	for i, s := range steps {
		assert.Equal(t, NilNode, insertLeaf(t, leaf, s.key, s.value))
		assert.Equal(t, i+1, leaf.KeyCount())
		assert.Equal(t, s.want, string(leaf.Content()[:len(s.want)]))
	}
	assert.True(t, leaf.NeedsSplit())
	assert.Equal(t, []byte("3"), leaf.MaxKey())
	assert.Equal(t, NilNode, leaf.Next())
}

func TestLeafInsertIntKeys(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(6, 3, 4, 4, nil)
	require.NoError(t, err)

	enc := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	for _, kv := range [][2]uint32{{1, 1}, {3, 5}, {2, 3}, {2, 4}, {3, 6}, {1, 2}} {
		sib, err := leaf.Insert(enc(kv[0]), enc(kv[1]))
		require.NoError(t, err)
		assert.Equal(t, NilNode, sib)
	}

	// little endian keys still compare bytewise here: values below 256
	want := []uint32{1, 1, 1, 2, 2, 3, 2, 4, 3, 5, 3, 6}
	for i, w := range want {
		assert.Equal(t, w, binary.LittleEndian.Uint32(leaf.Content()[i*4:]), "word %d", i)
	}
}

func TestLeafSplit(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(4, 2, 1, 1, nil)
	require.NoError(t, err)
	for _, k := range []string{"1", "2", "3", "4"} {
		insertLeaf(t, leaf, k, k)
	}

	sibID := insertLeaf(t, leaf, "5", "5")
	require.NotEqual(t, NilNode, sibID)
	n, err := store.Get(sibID)
	require.NoError(t, err)
	sib := n.(*LeafNode)

	assert.Equal(t, 2, leaf.KeyCount())
	assert.Equal(t, 3, sib.KeyCount())
	assert.Equal(t, "1122", string(leaf.items()))
	assert.Equal(t, "334455", string(sib.items()))
	assert.Equal(t, sibID, leaf.Next())
	assert.Equal(t, NilNode, sib.Next())
	assert.Equal(t, 4, sib.MaxKeyNum())
	assert.Equal(t, 2, sib.MinKeyNum())

	// the upper half of the old buffer is cleared
	assert.Equal(t, make([]byte, 4), leaf.Content()[4:8])
}

func TestLeafSplitKeepsChain(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(2, 1, 1, 1, nil)
	require.NoError(t, err)
	insertLeaf(t, leaf, "1", "a")
	insertLeaf(t, leaf, "5", "b")

	right := insertLeaf(t, leaf, "7", "c")
	require.NotEqual(t, NilNode, right)
	assert.Equal(t, NilNode, insertLeaf(t, leaf, "3", "d"))
	middle := insertLeaf(t, leaf, "2", "e")
	require.NotEqual(t, NilNode, middle)

	// leaf -> middle -> right
	assert.Equal(t, middle, leaf.Next())
	n, err := store.Get(middle)
	require.NoError(t, err)
	assert.Equal(t, right, n.(*LeafNode).Next())
}

func TestLeafSplitTargetHalf(t *testing.T) {
	cases := []struct {
		name    string
		fill    []string
		key     string
		wantOld string
		wantNew string
	}{
		// beyond the old half's max goes right
		{"greater", []string{"1", "2", "3", "4"}, "3", "1122", "333344"},
		// equal to the old half's max but not the new half's min stays left
		{"equal-left", []string{"1", "1", "2", "3"}, "1", "111111", "2233"},
		// a duplicate run across the split point continues on the right
		{"equal-run", []string{"1", "2", "2", "2"}, "2", "1122", "222222"},
		{"smaller", []string{"2", "4", "6", "8"}, "1", "112244", "6688"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewNodeStore()
			leaf, err := store.NewLeafNode(4, 2, 1, 1, nil)
			require.NoError(t, err)
			for _, k := range tc.fill {
				insertLeaf(t, leaf, k, k)
			}
			sibID, err := leaf.Insert([]byte(tc.key), []byte(tc.key))
			require.NoError(t, err)
			n, err := store.Get(sibID)
			require.NoError(t, err)

			assert.Equal(t, tc.wantOld, string(leaf.items()))
			assert.Equal(t, tc.wantNew, string(n.(*LeafNode).items()))
		})
	}
}

func TestLeafDuplicateOrder(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(8, 4, 1, 1, nil)
	require.NoError(t, err)
	for _, kv := range []string{"5a", "1x", "5b", "9y", "5c"} {
		insertLeaf(t, leaf, kv[:1], kv[1:])
	}
	assert.Equal(t, "1x5a5b5c9y", string(leaf.items()))
}

func TestLeafSplitAllocationFailure(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(2, 1, 1, 1, nil)
	require.NoError(t, err)
	insertLeaf(t, leaf, "1", "1")
	insertLeaf(t, leaf, "2", "2")

	store.SetLimit(1)
	before := append([]byte(nil), leaf.Content()...)

	sib, err := leaf.Insert([]byte("3"), []byte("3"))
	assert.True(t, errors.Is(err, ErrAllocationFailure), "got %v", err)
	assert.Equal(t, NilNode, sib)
	assert.Equal(t, before, leaf.Content())
	assert.Equal(t, 2, leaf.KeyCount())
	assert.Equal(t, 1, store.Len())
}

func TestLeafSizeMismatch(t *testing.T) {
	store := NewNodeStore()
	leaf, err := store.NewLeafNode(4, 2, 2, 2, nil)
	require.NoError(t, err)

	_, err = leaf.Insert([]byte("1"), []byte("11"))
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	_, err = leaf.Insert([]byte("11"), []byte("111"))
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Equal(t, 0, leaf.KeyCount())
}
