package bplus

// addSplitChild records that the child at slot idx split off sib. The new
// pair goes right after the child and both separators are refreshed from
// the halves. If this node is full it splits into reserved first and the
// pair lands in whichever half now holds the child.
func (n *InnerNode) addSplitChild(idx int, child, sib Node, reserved *InnerNode) (NodeID, error) {
	target, pos := n, idx
	if n.full() {
		if reserved == nil {
			return NilNode, invariantf("inner %d is full but no sibling was reserved", n.id)
		}
		n.splitInto(reserved)
		if idx >= n.keyNum {
			target, pos = reserved, idx-n.keyNum
		}
	} else if reserved != nil {
		_ = n.store.Free(reserved.id)
		reserved = nil
	}

	target.insertPairAfter(pos, child, sib)

	if reserved == nil {
		return NilNode, nil
	}
	return reserved.id, nil
}

func (n *InnerNode) insertPairAfter(pos int, child, sib Node) {
	s := n.stride()
	at := pos + 1
	copy(n.content[(at+1)*s:(n.keyNum+1)*s], n.content[at*s:n.keyNum*s])
	n.setChild(at, sib.ID())
	copy(n.keyAt(at), sib.MaxKey())
	copy(n.keyAt(pos), child.MaxKey())
	n.keyNum++
}
