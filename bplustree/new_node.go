package bplus

import "github.com/cockroachdb/errors"

// NewLeafNode creates an empty leaf with a zeroed buffer of
// maxCount*(keySize+valueSize) + RefSize bytes.
func (s *NodeStore) NewLeafNode(maxCount, minCount, keySize, valueSize int, cmp CompareFunc) (*LeafNode, error) {
	if maxCount < 2 || minCount < 0 || minCount > maxCount || keySize <= 0 || valueSize < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig,
			"leaf max=%d min=%d key=%d value=%d", maxCount, minCount, keySize, valueSize)
	}
	l := &LeafNode{
		nodeCommon: nodeCommon{
			nodeType:  NodeLeaf,
			store:     s,
			compare:   orDefault(cmp),
			maxKeyNum: maxCount,
			minKeyNum: minCount,
		},
		keySize:   keySize,
		valueSize: valueSize,
		content:   make([]byte, LeafContentLen(maxCount, keySize, valueSize)),
	}
	if err := s.allocate(l); err != nil {
		return nil, err
	}
	return l, nil
}

// NewInnerNode creates an empty inner node with a zeroed buffer of
// maxCount*(keySize+RefSize) + RefSize bytes.
func (s *NodeStore) NewInnerNode(maxCount, keySize int, cmp CompareFunc) (*InnerNode, error) {
	if maxCount < 2 || keySize <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "inner max=%d key=%d", maxCount, keySize)
	}
	n := &InnerNode{
		nodeCommon: nodeCommon{
			nodeType:  NodeInner,
			store:     s,
			compare:   orDefault(cmp),
			maxKeyNum: maxCount,
			minKeyNum: maxCount / 2,
		},
		keySize: keySize,
		content: make([]byte, InnerContentLen(maxCount, keySize)),
	}
	if err := s.allocate(n); err != nil {
		return nil, err
	}
	return n, nil
}

func LeafContentLen(maxCount, keySize, valueSize int) int {
	return maxCount*(keySize+valueSize) + RefSize
}

func InnerContentLen(maxCount, keySize int) int {
	return maxCount*(keySize+RefSize) + RefSize
}
