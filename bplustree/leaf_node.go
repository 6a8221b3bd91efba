package bplus

import "bytes"

// LeafNode packs count (key, value) items followed by the id of the next
// leaf: [k0][v0]...[k(n-1)][v(n-1)] ... [next].
type LeafNode struct {
	nodeCommon
	keySize   int
	valueSize int
	content   []byte
}

func (l *LeafNode) itemSize() int { return l.keySize + l.valueSize }

// items is the occupied prefix of the buffer.
func (l *LeafNode) items() []byte { return l.content[:l.keyNum*l.itemSize()] }

func (l *LeafNode) keyAt(i int) []byte {
	off := i * l.itemSize()
	return l.content[off : off+l.keySize]
}

func (l *LeafNode) valueAt(i int) []byte {
	off := i*l.itemSize() + l.keySize
	return l.content[off : off+l.valueSize]
}

func (l *LeafNode) nextSlot() []byte {
	off := l.maxKeyNum * l.itemSize()
	return l.content[off : off+RefSize]
}

// Next is the id of the leaf to the right, NilNode for the last leaf.
func (l *LeafNode) Next() NodeID { return getRef(l.nextSlot()) }

func (l *LeafNode) setNext(id NodeID) { putRef(l.nextSlot(), id) }

func (l *LeafNode) KeySize() int    { return l.keySize }
func (l *LeafNode) ValueSize() int  { return l.valueSize }
func (l *LeafNode) Content() []byte { return l.content }

// Key returns a copy of the i-th key.
func (l *LeafNode) Key(i int) []byte { return bytes.Clone(l.keyAt(i)) }

// Value returns a copy of the i-th value.
func (l *LeafNode) Value(i int) []byte { return bytes.Clone(l.valueAt(i)) }

func (l *LeafNode) NeedsSplit() bool { return l.full() }

func (l *LeafNode) wouldSplit([]byte) bool { return l.full() }

func (l *LeafNode) MaxKey() []byte {
	if l.keyNum == 0 {
		return nil
	}
	return bytes.Clone(l.keyAt(l.keyNum - 1))
}

func (l *LeafNode) minKey() []byte {
	if l.keyNum == 0 {
		return nil
	}
	return l.keyAt(0)
}
