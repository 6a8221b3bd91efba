package bplus

import (
	"github.com/cockroachdb/errors"

	"bpindex/log"
)

// split moves the upper half of a full leaf into a new right sibling. The
// sibling is allocated before anything moves, so a failed allocation leaves
// the leaf untouched.
func (l *LeafNode) split() (*LeafNode, error) {
	sib, err := l.store.NewLeafNode(l.maxKeyNum, l.minKeyNum, l.keySize, l.valueSize, l.compare)
	if err != nil {
		return nil, errors.Wrapf(err, "split leaf %d", l.id)
	}

	is := l.itemSize()
	keep := l.keyNum / 2
	upper := l.content[keep*is : l.keyNum*is]
	copy(sib.content, upper)
	clear(upper)

	sib.keyNum = l.keyNum - keep
	l.keyNum = keep

	sib.setNext(l.Next())
	l.setNext(sib.id)

	log.Debug(log.TreeModule, "leaf split", "node", l.id, "sibling", sib.id, "kept", keep, "moved", sib.keyNum)
	return sib, nil
}
