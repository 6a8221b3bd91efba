package bplus

import "github.com/cockroachdb/errors"

// CheckInvariants walks the whole tree and reports the first structural
// violation found. All returned errors match ErrInvariantViolation.
func (t *BPlusTree) CheckInvariants() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := &checker{tree: t, leafDepth: -1}
	if err := c.node(t.root, 0, true, 1); err != nil {
		return err
	}
	if err := c.chain(); err != nil {
		return err
	}
	if c.entries != t.size {
		return invariantf("tree holds %d entries, counted %d", t.size, c.entries)
	}
	return nil
}

type checker struct {
	tree      *BPlusTree
	leafDepth int
	leaves    []NodeID
	entries   int
	last      []byte // last key seen in order
}

func (c *checker) node(id NodeID, depth int, isRoot bool, siblings int) error {
	n, err := c.tree.store.Get(id)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "node %d", id), ErrInvariantViolation)
	}
	h := n.header()
	if h.keyNum > h.maxKeyNum {
		return invariantf("node %d holds %d items, capacity %d", id, h.keyNum, h.maxKeyNum)
	}
	// a node that went through a split keeps at least half of its capacity
	if !isRoot && siblings > 1 && h.keyNum < h.maxKeyNum/2 {
		return invariantf("node %d holds %d items, below %d", id, h.keyNum, h.maxKeyNum/2)
	}

	switch node := n.(type) {
	case *LeafNode:
		return c.leaf(node, depth)
	case *InnerNode:
		return c.inner(node, depth, isRoot)
	}
	return invariantf("node %d has unknown type %s", id, n.Type())
}

func (c *checker) leaf(l *LeafNode, depth int) error {
	if c.leafDepth == -1 {
		c.leafDepth = depth
	} else if c.leafDepth != depth {
		return invariantf("leaf %d at depth %d, expected %d", l.id, depth, c.leafDepth)
	}
	for i := 0; i < l.keyNum; i++ {
		k := l.keyAt(i)
		if c.last != nil && l.cmp(c.last, k) > 0 {
			return invariantf("leaf %d: key %x at %d sorts before preceding key %x", l.id, k, i, c.last)
		}
		c.last = k
	}
	c.leaves = append(c.leaves, l.id)
	c.entries += l.keyNum
	return nil
}

func (c *checker) inner(n *InnerNode, depth int, isRoot bool) error {
	if n.keyNum == 0 {
		if !isRoot {
			return invariantf("inner %d has no separators", n.id)
		}
		child, err := c.tree.store.Get(n.childAt(0))
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "root %d leading child", n.id), ErrInvariantViolation)
		}
		if child.KeyCount() != 0 {
			return invariantf("root %d has no separator but child %d holds %d items", n.id, child.ID(), child.KeyCount())
		}
		return c.node(child.ID(), depth+1, false, 1)
	}

	for i := 0; i < n.keyNum; i++ {
		if i > 0 && n.cmp(n.keyAt(i-1), n.keyAt(i)) > 0 {
			return invariantf("inner %d: separator %d out of order", n.id, i)
		}
		if err := c.node(n.childAt(i), depth+1, false, n.keyNum); err != nil {
			return err
		}
		child, _ := c.tree.store.Get(n.childAt(i))
		if mk := child.MaxKey(); mk == nil || !n.equal(mk, n.keyAt(i)) {
			return invariantf("inner %d: separator %d is %x, child %d max is %x",
				n.id, i, n.keyAt(i), child.ID(), mk)
		}
	}
	return nil
}

// chain follows next links from the head and compares them with the leaves
// met in order.
func (c *checker) chain() error {
	id := c.tree.head
	for i, want := range c.leaves {
		if id != want {
			return invariantf("leaf chain position %d is %d, in-order leaf is %d", i, id, want)
		}
		l, err := c.tree.leaf(id)
		if err != nil {
			return errors.Mark(err, ErrInvariantViolation)
		}
		id = l.Next()
	}
	if id != NilNode {
		return invariantf("leaf chain continues past last leaf into %d", id)
	}
	return nil
}
