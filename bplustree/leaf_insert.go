package bplus

import "github.com/cockroachdb/errors"

// Insert places key/value after every existing equal key. When the leaf is
// full it splits first and the returned id names the new right sibling.
func (l *LeafNode) Insert(key, value []byte) (NodeID, error) {
	if len(key) != l.keySize || len(value) != l.valueSize {
		return NilNode, errors.Wrapf(ErrSizeMismatch,
			"leaf %d: key %d/%d value %d/%d", l.id, len(key), l.keySize, len(value), l.valueSize)
	}

	target := l
	var sibling *LeafNode
	if l.full() {
		var err error
		sibling, err = l.split()
		if err != nil {
			return NilNode, err
		}
		// compare against the max of what stayed behind
		c := l.cmp(key, l.keyAt(l.keyNum-1))
		if c > 0 || (c == 0 && l.equal(key, sibling.minKey())) {
			target = sibling
		}
	}

	target.insertAt(target.slotFor(key), key, value)

	if sibling == nil {
		return NilNode, nil
	}
	return sibling.id, nil
}

// slotFor returns the insert position behind the last key equal to key.
func (l *LeafNode) slotFor(key []byte) int {
	found, idx := SearchLast(l.items(), l.itemSize(), key, 0, l.compare)
	if found {
		return idx + 1
	}
	return idx
}

func (l *LeafNode) insertAt(pos int, key, value []byte) {
	is := l.itemSize()
	copy(l.content[(pos+1)*is:(l.keyNum+1)*is], l.content[pos*is:l.keyNum*is])
	copy(l.keyAt(pos), key)
	copy(l.valueAt(pos), value)
	l.keyNum++
}
