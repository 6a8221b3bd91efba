package bplus

import "bytes"

// InnerNode packs (child, separator) pairs: [c0][k0][c1][k1]...[cn].
// Separator k_i is the largest key stored under child c_i. The slot after
// the last separator is spare.
type InnerNode struct {
	nodeCommon
	keySize int
	content []byte
}

func (n *InnerNode) stride() int { return RefSize + n.keySize }

func (n *InnerNode) items() []byte { return n.content[:n.keyNum*n.stride()] }

func (n *InnerNode) keyAt(i int) []byte {
	off := i*n.stride() + RefSize
	return n.content[off : off+n.keySize]
}

func (n *InnerNode) childAt(i int) NodeID { return getRef(n.content[i*n.stride():]) }

func (n *InnerNode) setChild(i int, id NodeID) { putRef(n.content[i*n.stride():], id) }

func (n *InnerNode) KeySize() int    { return n.keySize }
func (n *InnerNode) Content() []byte { return n.content }

// Child returns the id of the i-th child.
func (n *InnerNode) Child(i int) NodeID { return n.childAt(i) }

// Separator returns a copy of the i-th separator key.
func (n *InnerNode) Separator(i int) []byte { return bytes.Clone(n.keyAt(i)) }

// Children lists the ids covered by a separator. A fresh root with no
// separator still reports its leading child.
func (n *InnerNode) Children() []NodeID {
	if n.keyNum == 0 {
		if c := n.childAt(0); c != NilNode {
			return []NodeID{c}
		}
		return nil
	}
	ids := make([]NodeID, n.keyNum)
	for i := range ids {
		ids[i] = n.childAt(i)
	}
	return ids
}

func (n *InnerNode) MaxKey() []byte {
	if n.keyNum == 0 {
		return nil
	}
	return bytes.Clone(n.keyAt(n.keyNum - 1))
}

func (n *InnerNode) minKey() []byte {
	child, err := n.store.Get(n.childAt(0))
	if err != nil {
		return nil
	}
	return child.minKey()
}

// route picks the child slot for key. widen reports that key is beyond
// every separator and the last separator has to grow to cover it.
func (n *InnerNode) route(key []byte) (idx int, widen bool) {
	if n.keyNum == 0 {
		return 0, false
	}
	found, idx := SearchLast(n.items(), n.stride(), key, RefSize, n.compare)
	if !found {
		if idx == n.keyNum {
			return n.keyNum - 1, true
		}
		return idx, false
	}
	// a run of equal keys may continue into the next child
	if idx+1 < n.keyNum {
		if next, err := n.store.Get(n.childAt(idx + 1)); err == nil {
			if m := next.minKey(); m != nil && n.equal(m, key) {
				return idx + 1, false
			}
		}
	}
	return idx, false
}

// wouldSplit reports whether inserting key would make this node split.
func (n *InnerNode) wouldSplit(key []byte) bool {
	if !n.full() {
		return false
	}
	idx, _ := n.route(key)
	child, err := n.store.Get(n.childAt(idx))
	if err != nil {
		return false
	}
	return child.wouldSplit(key)
}
