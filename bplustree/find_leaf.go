package bplus

import "github.com/cockroachdb/errors"

// FindLeaf returns the leaf holding the first entry >= key, or the last
// leaf when key is beyond every entry.
func (t *BPlusTree) FindLeaf(key []byte) (*LeafNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.findLeaf(key)
}

func (t *BPlusTree) findLeaf(key []byte) (*LeafNode, error) {
	id := t.root
	for {
		n, err := t.store.Get(id)
		if err != nil {
			return nil, errors.Wrap(err, "FindLeaf")
		}
		switch node := n.(type) {
		case *LeafNode:
			return node, nil
		case *InnerNode:
			idx := 0
			if node.keyNum > 0 {
				// first separator >= key: earlier children all end below key
				_, idx = SearchFirst(node.items(), node.stride(), key, RefSize, node.compare)
				if idx >= node.keyNum {
					idx = node.keyNum - 1
				}
			}
			id = node.childAt(idx)
		default:
			return nil, invariantf("FindLeaf: node %d has unknown type %s", id, n.Type())
		}
	}
}

// leaf fetches a leaf by id.
func (t *BPlusTree) leaf(id NodeID) (*LeafNode, error) {
	n, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	l, ok := n.(*LeafNode)
	if !ok {
		return nil, invariantf("node %d is %s, want leaf", id, n.Type())
	}
	return l, nil
}
