// Structure of the B+ Tree
/*
Tree
 ├── Inner Node  [c0][k0][c1][k1]...[c(n-1)][k(n-1)][cn]
 │      └── Child Inner Nodes ...
 │             └── Leaf Nodes [k0][v0]...[k(n-1)][v(n-1)][next]


- every node owns one packed, fixed-stride byte buffer
- keys are non-decreasing left to right, duplicates keep insertion order
- inner separator k_i is the maximum key reachable through c_i
- child and sibling references are NodeIDs (8 bytes, little endian) into a NodeStore
- leaf nodes are linked with `next` for range scans
- all leaf nodes at same depth

*/
package bplus

import (
	"bytes"
	"encoding/binary"
	"sync"
)

type NodeType uint8

const (
	NodeInner NodeType = iota + 1
	NodeLeaf
)

func (t NodeType) String() string {
	switch t {
	case NodeInner:
		return "INNER"
	case NodeLeaf:
		return "LEAF"
	default:
		return "UNKNOWN"
	}
}

// RefSize is the width of a child or sibling reference inside a node buffer.
const RefSize = 8

// NodeID identifies a node inside its NodeStore. NilNode is the empty reference.
type NodeID uint64

const NilNode NodeID = 0

// CompareFunc orders two keys of equal length. nil means bytes.Compare.
type CompareFunc func(a, b []byte) int

func orDefault(cmp CompareFunc) CompareFunc {
	if cmp == nil {
		return bytes.Compare
	}
	return cmp
}

// Node is the surface shared by inner and leaf nodes.
type Node interface {
	ID() NodeID
	Type() NodeType

	// Insert adds key/value below this node. A non-nil id is the new right
	// sibling produced when this node had to split.
	Insert(key, value []byte) (NodeID, error)

	// MaxKey returns a copy of the largest key held, nil when empty.
	MaxKey() []byte
	KeyCount() int

	// Content is the raw packed buffer. It is a view for inspection only.
	Content() []byte

	header() *nodeCommon
	minKey() []byte
	wouldSplit(key []byte) bool
}

// nodeCommon is the header shared by both node kinds.
type nodeCommon struct {
	id        NodeID
	nodeType  NodeType
	store     *NodeStore
	compare   CompareFunc
	maxKeyNum int
	minKeyNum int
	keyNum    int
}

func (c *nodeCommon) ID() NodeID             { return c.id }
func (c *nodeCommon) Type() NodeType         { return c.nodeType }
func (c *nodeCommon) KeyCount() int          { return c.keyNum }
func (c *nodeCommon) MaxKeyNum() int         { return c.maxKeyNum }
func (c *nodeCommon) MinKeyNum() int         { return c.minKeyNum }
func (c *nodeCommon) header() *nodeCommon    { return c }
func (c *nodeCommon) full() bool             { return c.keyNum >= c.maxKeyNum }
func (c *nodeCommon) cmp(a, b []byte) int    { return c.compare(a, b) }
func (c *nodeCommon) equal(a, b []byte) bool { return c.compare(a, b) == 0 }

func getRef(buf []byte) NodeID {
	return NodeID(binary.LittleEndian.Uint64(buf[:RefSize]))
}

func putRef(buf []byte, id NodeID) {
	binary.LittleEndian.PutUint64(buf[:RefSize], uint64(id))
}

type BPlusTree struct {
	cfg   Config
	store *NodeStore
	root  NodeID      // root inner node
	head  NodeID      // leftmost leaf
	size  int         // entries inserted
	cmp   CompareFunc // key comparator (typically bytes.Compare)
	mu    sync.RWMutex
}
