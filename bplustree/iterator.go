package bplus

// Iterator provides a forward-only range scan over the leaf chain. It holds
// the tree's read lock until Close.
type Iterator struct {
	tree  *BPlusTree
	leaf  *LeafNode
	index int
	valid bool
	err   error
	done  bool
}

// SeekGE positions the iterator at the first key >= target.
func (t *BPlusTree) SeekGE(target []byte) *Iterator {
	t.mu.RLock()
	it := &Iterator{tree: t}

	leaf, err := t.findLeaf(target)
	if err != nil {
		it.err = err
		return it
	}
	_, i := SearchFirst(leaf.items(), leaf.itemSize(), target, 0, leaf.compare)
	it.leaf = leaf
	it.index = i
	it.valid = true
	it.settle()
	return it
}

// First positions the iterator at the smallest key.
func (t *BPlusTree) First() *Iterator {
	t.mu.RLock()
	it := &Iterator{tree: t}

	leaf, err := t.leaf(t.head)
	if err != nil {
		it.err = err
		return it
	}
	it.leaf = leaf
	it.valid = true
	it.settle()
	return it
}

// settle skips forward past exhausted or empty leaves.
func (it *Iterator) settle() {
	for it.valid && it.index >= it.leaf.keyNum {
		next := it.leaf.Next()
		if next == NilNode {
			it.valid = false
			return
		}
		leaf, err := it.tree.leaf(next)
		if err != nil {
			it.err = err
			it.valid = false
			return
		}
		it.leaf = leaf
		it.index = 0
	}
}

func (it *Iterator) Valid() bool { return it.valid }

// Next advances the iterator. Returns false when exhausted.
func (it *Iterator) Next() bool {
	if !it.valid {
		return false
	}
	it.index++
	it.settle()
	return it.valid
}

// Key returns the current key.
func (it *Iterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return it.leaf.Key(it.index)
}

// Value returns the current value.
func (it *Iterator) Value() []byte {
	if !it.valid {
		return nil
	}
	return it.leaf.Value(it.index)
}

// Err reports a failure to follow the leaf chain.
func (it *Iterator) Err() error { return it.err }

// Close releases the tree's read lock.
func (it *Iterator) Close() {
	if it.done {
		return
	}
	it.done = true
	it.valid = false
	it.tree.mu.RUnlock()
}
