package bplus

import (
	"github.com/cockroachdb/errors"

	"bpindex/log"
)

// Config fixes node capacities and item sizes for the lifetime of a tree.
type Config struct {
	MaxIdxNum  int // separators per inner node
	MaxDataNum int // items per leaf
	KeySize    int
	ValueSize  int
	MaxNodes   int // cap on live nodes, 0 means unlimited
}

func DefaultConfig() Config {
	return Config{
		MaxIdxNum:  32,
		MaxDataNum: 64,
		KeySize:    16,
		ValueSize:  16,
	}
}

func (c Config) Validate() error {
	switch {
	case c.KeySize <= 0 || c.ValueSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "key size %d and value size %d must be positive", c.KeySize, c.ValueSize)
	case c.MaxIdxNum < 2 || c.MaxDataNum < 2:
		return errors.Wrapf(ErrInvalidConfig, "capacities %d/%d must be at least 2", c.MaxIdxNum, c.MaxDataNum)
	case c.MaxDataNum < c.MaxIdxNum:
		return errors.Wrapf(ErrInvalidConfig, "leaf capacity %d below inner capacity %d", c.MaxDataNum, c.MaxIdxNum)
	case c.MaxNodes < 0:
		return errors.Wrapf(ErrInvalidConfig, "negative node limit %d", c.MaxNodes)
	}
	return nil
}

type Option func(*BPlusTree)

// WithCompare replaces the default byte-lexicographic key order.
func WithCompare(cmp CompareFunc) Option {
	return func(t *BPlusTree) { t.cmp = cmp }
}

// WithNodeStore makes the tree allocate from an existing store.
func WithNodeStore(s *NodeStore) Option {
	return func(t *BPlusTree) { t.store = s }
}

// NewBPlusTree creates a tree whose root is an inner node with a single,
// empty leaf as its leading child.
func NewBPlusTree(cfg Config, opts ...Option) (*BPlusTree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &BPlusTree{cfg: cfg}
	for _, opt := range opts {
		opt(t)
	}
	t.cmp = orDefault(t.cmp)
	if t.store == nil {
		t.store = NewNodeStore()
	}
	if cfg.MaxNodes > 0 {
		t.store.SetLimit(cfg.MaxNodes)
	}

	root, err := t.newInner()
	if err != nil {
		return nil, errors.Wrap(err, "NewBPlusTree: root")
	}
	leaf, err := t.newLeaf()
	if err != nil {
		_ = t.store.Free(root.id)
		return nil, errors.Wrap(err, "NewBPlusTree: first leaf")
	}
	root.setChild(0, leaf.id)
	t.root = root.id
	t.head = leaf.id

	log.Debug(log.TreeModule, "tree created", "root", t.root, "leaf", t.head,
		"maxIdx", cfg.MaxIdxNum, "maxData", cfg.MaxDataNum, "key", cfg.KeySize, "value", cfg.ValueSize)
	return t, nil
}

func (t *BPlusTree) newInner() (*InnerNode, error) {
	return t.store.NewInnerNode(t.cfg.MaxIdxNum, t.cfg.KeySize, t.cmp)
}

func (t *BPlusTree) newLeaf() (*LeafNode, error) {
	return t.store.NewLeafNode(t.cfg.MaxDataNum, t.cfg.MaxDataNum/2, t.cfg.KeySize, t.cfg.ValueSize, t.cmp)
}

func (t *BPlusTree) Config() Config    { return t.cfg }
func (t *BPlusTree) Store() *NodeStore { return t.store }

// Root is the id of the current root inner node.
func (t *BPlusTree) Root() NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Head is the id of the leftmost leaf.
func (t *BPlusTree) Head() NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.head
}

// Len is the number of stored entries.
func (t *BPlusTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Height counts levels from the root down to the leaves, both included.
func (t *BPlusTree) Height() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height()
}

func (t *BPlusTree) height() (int, error) {
	h := 0
	id := t.root
	for {
		n, err := t.store.Get(id)
		if err != nil {
			return 0, err
		}
		h++
		inner, ok := n.(*InnerNode)
		if !ok {
			return h, nil
		}
		id = inner.childAt(0)
	}
}

func (t *BPlusTree) rootNode() (*InnerNode, error) {
	n, err := t.store.Get(t.root)
	if err != nil {
		return nil, err
	}
	root, ok := n.(*InnerNode)
	if !ok {
		return nil, invariantf("root %d is a %s node", t.root, n.Type())
	}
	return root, nil
}

func (t *BPlusTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Close()
}
