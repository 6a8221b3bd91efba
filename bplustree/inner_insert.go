package bplus

import (
	"bytes"

	"github.com/cockroachdb/errors"
)

// Insert descends into the covering child and absorbs a split coming back
// up. A non-nil id is this node's own new right sibling.
//
// Every node that will split on the way down reserves its sibling before
// recursing, and separator edits made on the way down are undone when the
// recursion fails, so an error leaves the subtree exactly as it was.
func (n *InnerNode) Insert(key, value []byte) (NodeID, error) {
	if len(key) != n.keySize {
		return NilNode, errors.Wrapf(ErrSizeMismatch, "inner %d: key %d/%d", n.id, len(key), n.keySize)
	}

	adopted := false
	if n.keyNum == 0 {
		if n.childAt(0) == NilNode {
			return NilNode, invariantf("inner node %d has no child", n.id)
		}
		copy(n.keyAt(0), key)
		n.keyNum = 1
		adopted = true
	}

	idx, widen := n.route(key)
	var prevSep []byte
	if widen {
		prevSep = bytes.Clone(n.keyAt(idx))
		copy(n.keyAt(idx), key)
	}
	undo := func() {
		if widen {
			copy(n.keyAt(idx), prevSep)
		}
		if adopted {
			clear(n.keyAt(0))
			n.keyNum = 0
		}
	}

	child, err := n.store.Get(n.childAt(idx))
	if err != nil {
		undo()
		return NilNode, errors.Wrapf(err, "inner %d slot %d", n.id, idx)
	}

	var reserved *InnerNode
	if n.full() && child.wouldSplit(key) {
		reserved, err = n.store.NewInnerNode(n.maxKeyNum, n.keySize, n.compare)
		if err != nil {
			undo()
			return NilNode, errors.Wrapf(err, "reserve sibling for inner %d", n.id)
		}
	}
	release := func() {
		if reserved != nil {
			_ = n.store.Free(reserved.id)
		}
	}

	sibID, err := child.Insert(key, value)
	if err != nil {
		release()
		undo()
		return NilNode, err
	}
	if sibID == NilNode {
		release()
		return NilNode, nil
	}

	sib, err := n.store.Get(sibID)
	if err != nil {
		release()
		return NilNode, invariantf("inner %d: split child %d returned unknown sibling %d", n.id, child.ID(), sibID)
	}
	return n.addSplitChild(idx, child, sib, reserved)
}
