package bplus

import "bpindex/log"

// split moves the upper half of the (child, separator) pairs into a newly
// allocated right sibling.
func (n *InnerNode) split() (*InnerNode, error) {
	dst, err := n.store.NewInnerNode(n.maxKeyNum, n.keySize, n.compare)
	if err != nil {
		return nil, err
	}
	n.splitInto(dst)
	return dst, nil
}

// splitInto performs the split into an already allocated empty node; the
// old node keeps count/2 pairs.
func (n *InnerNode) splitInto(dst *InnerNode) {
	s := n.stride()
	keep := n.keyNum / 2
	upper := n.content[keep*s : n.keyNum*s]
	copy(dst.content, upper)
	clear(upper)

	dst.keyNum = n.keyNum - keep
	n.keyNum = keep

	log.Debug(log.TreeModule, "inner split", "node", n.id, "sibling", dst.id, "kept", keep, "moved", dst.keyNum)
}
