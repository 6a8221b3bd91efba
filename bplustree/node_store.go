package bplus

import (
	"sync"

	"github.com/cockroachdb/errors"

	"bpindex/log"
)

// NodeStore owns every node of a tree. Buffers reference nodes by NodeID,
// so a node can be split or moved without leaving dangling siblings.
// Inner nodes own their children; leaf next links only point.
type NodeStore struct {
	nodes  map[NodeID]Node
	nextID NodeID
	limit  int // maximum live nodes, 0 means unlimited
	mu     sync.RWMutex
	closed bool
}

func NewNodeStore() *NodeStore {
	return &NodeStore{
		nodes:  make(map[NodeID]Node),
		nextID: 1,
	}
}

// SetLimit caps the number of live nodes. Allocations past the cap fail with
// ErrAllocationFailure.
func (s *NodeStore) SetLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
}

func (s *NodeStore) allocate(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.limit > 0 && len(s.nodes) >= s.limit {
		return errors.Wrapf(ErrAllocationFailure, "node limit %d reached", s.limit)
	}

	h := n.header()
	h.id = s.nextID
	s.nextID++
	s.nodes[h.id] = n
	log.Trace(log.StoreModule, "node allocated", "node", h.id, "type", h.nodeType)
	return nil
}

// restore registers a decoded node under its saved id.
func (s *NodeStore) restore(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	h := n.header()
	if h.id == NilNode {
		return invariantf("restoring node without id")
	}
	if _, ok := s.nodes[h.id]; ok {
		return invariantf("node %d restored twice", h.id)
	}
	h.store = s
	s.nodes[h.id] = n
	if h.id >= s.nextID {
		s.nextID = h.id + 1
	}
	return nil
}

// advance moves the id counter forward to at least next.
func (s *NodeStore) advance(next NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next > s.nextID {
		s.nextID = next
	}
}

func (s *NodeStore) Get(id NodeID) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	n, ok := s.nodes[id]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %d", id)
	}
	return n, nil
}

// Free releases a node. Only an unreachable node may be freed.
func (s *NodeStore) Free(id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.nodes[id]; !ok {
		return errors.Wrapf(ErrNodeNotFound, "free node %d", id)
	}
	delete(s.nodes, id)
	log.Trace(log.StoreModule, "node freed", "node", id)
	return nil
}

// Len returns the number of live nodes.
func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// NextID is the id the next allocation will receive.
func (s *NodeStore) NextID() NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// IDs lists live node ids in ascending order.
func (s *NodeStore) IDs() []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]NodeID, 0, len(s.nodes))
	for id := NodeID(1); id < s.nextID; id++ {
		if _, ok := s.nodes[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *NodeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.nodes = nil
	s.closed = true
	return nil
}
