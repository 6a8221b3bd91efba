package bplus

import (
	"github.com/cockroachdb/errors"

	"bpindex/log"
)

// Insert adds key/value to the tree. Duplicate keys are kept in insertion
// order. On any error the tree is unchanged.
func (t *BPlusTree) Insert(key []byte, value []byte) error {
	if len(key) != t.cfg.KeySize || len(value) != t.cfg.ValueSize {
		return errors.Wrapf(ErrSizeMismatch, "Insert: key %d/%d value %d/%d",
			len(key), t.cfg.KeySize, len(value), t.cfg.ValueSize)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.rootNode()
	if err != nil {
		return errors.Wrap(err, "Insert")
	}

	// the new root has to exist before anything below starts splitting
	var newRoot *InnerNode
	if root.wouldSplit(key) {
		if newRoot, err = t.newInner(); err != nil {
			return errors.Wrap(err, "Insert: grow root")
		}
	}

	sibID, err := root.Insert(key, value)
	if err != nil {
		if newRoot != nil {
			_ = t.store.Free(newRoot.id)
		}
		return errors.Wrap(err, "Insert")
	}
	t.size++

	if sibID == NilNode {
		if newRoot != nil {
			_ = t.store.Free(newRoot.id)
		}
		return nil
	}
	if newRoot == nil {
		return invariantf("Insert: root %d split without a reserved root", root.id)
	}
	return t.growRoot(newRoot, root, sibID)
}

// InsertBatch inserts pairs in order and stops at the first failure.
func (t *BPlusTree) InsertBatch(keys, values [][]byte) (int, error) {
	if len(keys) != len(values) {
		return 0, errors.Wrapf(ErrSizeMismatch, "InsertBatch: %d keys, %d values", len(keys), len(values))
	}
	for i := range keys {
		if err := t.Insert(keys[i], values[i]); err != nil {
			log.Warn(log.TreeModule, "batch insert stopped", "index", i, "err", err)
			return i, err
		}
	}
	return len(keys), nil
}
