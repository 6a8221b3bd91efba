package bplus

import "bpindex/log"

// growRoot puts the old root and its new sibling under newRoot, adding one
// level to the tree.
func (t *BPlusTree) growRoot(newRoot, oldRoot *InnerNode, sibID NodeID) error {
	sib, err := t.store.Get(sibID)
	if err != nil {
		return invariantf("growRoot: sibling %d of root %d: %v", sibID, oldRoot.id, err)
	}

	newRoot.setChild(0, oldRoot.id)
	copy(newRoot.keyAt(0), oldRoot.MaxKey())
	newRoot.setChild(1, sib.ID())
	copy(newRoot.keyAt(1), sib.MaxKey())
	newRoot.keyNum = 2
	t.root = newRoot.id

	h, _ := t.height()
	log.Debug(log.TreeModule, "root grown", "root", newRoot.id, "left", oldRoot.id, "right", sib.ID(), "height", h)
	return nil
}
