package bplus

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHead builds an inner node whose leading child is an empty leaf.
func newHead(t *testing.T, store *NodeStore, innerMax, leafMax, keySize int) (*InnerNode, *LeafNode) {
	t.Helper()
	head, err := store.NewInnerNode(innerMax, keySize, nil)
	require.NoError(t, err)
	data, err := store.NewLeafNode(leafMax, leafMax/2, keySize, keySize, nil)
	require.NoError(t, err)
	head.setChild(0, data.ID())
	return head, data
}

func insertInner(t *testing.T, n *InnerNode, kv string) NodeID {
	t.Helper()
	sib, err := n.Insert([]byte(kv), []byte(kv))
	require.NoError(t, err)
	return sib
}

func TestInnerInsert(t *testing.T) {
	store := NewNodeStore()
	head, data := newHead(t, store, 4, 4, 2)
	assert.Len(t, head.Content(), InnerContentLen(4, 2))

	assert.Equal(t, NilNode, insertInner(t, head, "55"))
	assert.Equal(t, data.ID(), head.Child(0))
	assert.Equal(t, "55", string(head.Separator(0)))
	assert.Equal(t, "5555", string(data.items()))

	// beyond every separator: the last one is widened first
	assert.Equal(t, NilNode, insertInner(t, head, "88"))
	assert.Equal(t, "88", string(head.Separator(0)))
	assert.Equal(t, "55558888", string(data.items()))

	assert.Equal(t, NilNode, insertInner(t, head, "11"))
	assert.Equal(t, "88", string(head.Separator(0)))
	assert.Equal(t, "111155558888", string(data.items()))

	assert.Equal(t, NilNode, insertInner(t, head, "22"))
	assert.Equal(t, "1111222255558888", string(data.items()))

	// the leaf splits and the inner node absorbs the new child
	assert.Equal(t, NilNode, insertInner(t, head, "33"))
	require.Equal(t, 2, head.KeyCount())
	assert.Equal(t, data.ID(), head.Child(0))
	assert.Equal(t, "22", string(head.Separator(0)))
	splitID := head.Child(1)
	n, err := store.Get(splitID)
	require.NoError(t, err)
	split := n.(*LeafNode)
	assert.Equal(t, "88", string(head.Separator(1)))
	assert.Equal(t, 2, data.KeyCount())
	assert.Equal(t, 3, split.KeyCount())
	assert.Equal(t, "11112222", string(data.items()))
	assert.Equal(t, "333355558888", string(split.items()))

	assert.Equal(t, NilNode, insertInner(t, head, "12"))
	assert.Equal(t, 2, head.KeyCount())
	assert.Equal(t, "22", string(head.Separator(0)))
	assert.Equal(t, splitID, head.Child(1))
	assert.Equal(t, 3, data.KeyCount())
	assert.Equal(t, 3, split.KeyCount())
	assert.Equal(t, "88", string(head.Separator(1)))
	assert.Equal(t, "111112122222", string(data.items()))
	assert.Equal(t, "333355558888", string(split.items()))
}

func TestInnerSplitPropagates(t *testing.T) {
	store := NewNodeStore()
	head, _ := newHead(t, store, 2, 2, 1)

	var sib NodeID
	for _, k := range []string{"1", "2", "3", "4", "5"} {
		sib = insertInner(t, head, k)
		if sib != NilNode {
			break
		}
	}
	require.NotEqual(t, NilNode, sib, "a full inner node must eventually split")

	n, err := store.Get(sib)
	require.NoError(t, err)
	right := n.(*InnerNode)

	assert.Equal(t, 1, head.KeyCount())
	assert.Equal(t, 2, right.KeyCount())
	// separators equal the max of the child they cover
	for _, in := range []*InnerNode{head, right} {
		for i := 0; i < in.KeyCount(); i++ {
			c, err := store.Get(in.Child(i))
			require.NoError(t, err)
			assert.Equal(t, c.MaxKey(), in.Separator(i))
		}
	}
	assert.True(t, string(head.MaxKey()) <= string(right.minKey()))
}

func TestInnerSplitDirect(t *testing.T) {
	store := NewNodeStore()
	n, err := store.NewInnerNode(4, 1, nil)
	require.NoError(t, err)
	for i, k := range "abcd" {
		n.setChild(i, NodeID(10+i))
		n.keyAt(i)[0] = byte(k)
	}
	n.keyNum = 4

	right, err := n.split()
	require.NoError(t, err)
	assert.Equal(t, 2, n.KeyCount())
	assert.Equal(t, 2, right.KeyCount())
	assert.Equal(t, []byte("b"), n.MaxKey())
	assert.Equal(t, []byte("d"), right.MaxKey())
	assert.Equal(t, []NodeID{10, 11}, n.Children())
	assert.Equal(t, []NodeID{12, 13}, right.Children())
}

func TestInnerDuplicateRunAcrossChildren(t *testing.T) {
	store := NewNodeStore()
	head, _ := newHead(t, store, 8, 2, 1)

	// 1 then many 5s: the run of 5s spans several leaves
	_, err := head.Insert([]byte("1"), []byte("a"))
	require.NoError(t, err)
	vals := "bcdefg"
	for _, v := range vals {
		_, err := head.Insert([]byte("5"), []byte{byte(v)})
		require.NoError(t, err)
	}

	var got []byte
	for i := 0; i < head.KeyCount(); i++ {
		c, err := store.Get(head.Child(i))
		require.NoError(t, err)
		l := c.(*LeafNode)
		for j := 0; j < l.KeyCount(); j++ {
			got = append(got, l.valueAt(j)...)
		}
	}
	assert.Equal(t, "a"+vals, string(got))
}

func TestInnerRoutesDuplicateIntoNextChild(t *testing.T) {
	store := NewNodeStore()
	head, first := newHead(t, store, 4, 4, 1)
	for _, kv := range []string{"5a", "5b", "5c", "7d", "6e"} {
		_, err := head.Insert([]byte(kv[:1]), []byte(kv[1:]))
		require.NoError(t, err)
	}
	require.Equal(t, 2, head.KeyCount())
	assert.Equal(t, "5a5b", string(first.items()))

	// separator 0 is 5, but the run of 5s continues in child 1
	_, err := head.Insert([]byte("5"), []byte("f"))
	require.NoError(t, err)
	assert.Equal(t, "5a5b", string(first.items()))
	c, err := store.Get(head.Child(1))
	require.NoError(t, err)
	assert.Equal(t, "5c5f6e7d", string(c.(*LeafNode).items()))
}

func TestInnerAllocationFailureRollsBack(t *testing.T) {
	store := NewNodeStore()
	head, data := newHead(t, store, 4, 2, 1)
	insertInner(t, head, "1")
	insertInner(t, head, "2")

	store.SetLimit(store.Len())
	headBefore := append([]byte(nil), head.Content()...)
	dataBefore := append([]byte(nil), data.Content()...)

	// widening the separator to 9 happens before the leaf fails to split
	_, err := head.Insert([]byte("9"), []byte("9"))
	assert.True(t, errors.Is(err, ErrAllocationFailure), "got %v", err)
	assert.Equal(t, headBefore, head.Content())
	assert.Equal(t, dataBefore, data.Content())
	assert.Equal(t, 1, head.KeyCount())
	assert.Equal(t, 2, data.KeyCount())
}

func TestInnerAdoptRollsBack(t *testing.T) {
	store := NewNodeStore()
	head, data := newHead(t, store, 4, 2, 1)
	before := append([]byte(nil), head.Content()...)

	// the child rejects the value, so the adopted separator is dropped again
	_, err := head.Insert([]byte("1"), []byte("toolong"))
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Equal(t, 0, head.KeyCount())
	assert.Equal(t, before, head.Content())
	assert.Equal(t, 0, data.KeyCount())
}

func TestInnerWithoutChild(t *testing.T) {
	store := NewNodeStore()
	head, err := store.NewInnerNode(4, 1, nil)
	require.NoError(t, err)
	_, err = head.Insert([]byte("1"), []byte("1"))
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.Equal(t, 0, head.KeyCount())
}
