package bplus

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// Node page format (little endian):
//   - Header (32 bytes): type(1), reserved(3), count(4), max(4), min(4),
//     checksum(8), content length(4), key size(2), value size(2)
//   - Content: the packed node buffer, verbatim
//
// The checksum is xxhash64 over the content bytes.
const (
	nodeHeaderSize = 32
	metaSize       = 72
)

var metaMagic = [8]byte{'b', 'p', 'i', 'n', 'd', 'e', 'x', '1'}

// encodeNode serializes a node into a zero-padded page.
func encodeNode(n Node, pageSize int) ([]byte, error) {
	content := n.Content()
	if nodeHeaderSize+len(content) > pageSize {
		return nil, errors.Wrapf(ErrInvalidConfig,
			"node %d needs %d bytes, page holds %d", n.ID(), nodeHeaderSize+len(content), pageSize)
	}

	h := n.header()
	keySize, valueSize := 0, 0
	switch node := n.(type) {
	case *LeafNode:
		keySize, valueSize = node.keySize, node.valueSize
	case *InnerNode:
		keySize = node.keySize
	}

	page := make([]byte, pageSize)
	page[0] = byte(h.nodeType)
	binary.LittleEndian.PutUint32(page[4:], uint32(h.keyNum))
	binary.LittleEndian.PutUint32(page[8:], uint32(h.maxKeyNum))
	binary.LittleEndian.PutUint32(page[12:], uint32(h.minKeyNum))
	binary.LittleEndian.PutUint64(page[16:], xxhash.Sum64(content))
	binary.LittleEndian.PutUint32(page[24:], uint32(len(content)))
	binary.LittleEndian.PutUint16(page[28:], uint16(keySize))
	binary.LittleEndian.PutUint16(page[30:], uint16(valueSize))
	copy(page[nodeHeaderSize:], content)
	return page, nil
}

// decodeNode rebuilds a node from a page. A page whose type byte is zero
// was never written and decodes to nil.
func decodeNode(page []byte, id NodeID, cmp CompareFunc) (Node, error) {
	if len(page) < nodeHeaderSize {
		return nil, errors.Wrapf(ErrCorruptPage, "page %d: %d bytes", id, len(page))
	}
	nodeType := NodeType(page[0])
	if nodeType == 0 {
		return nil, nil
	}

	count := int(binary.LittleEndian.Uint32(page[4:]))
	maxNum := int(binary.LittleEndian.Uint32(page[8:]))
	minNum := int(binary.LittleEndian.Uint32(page[12:]))
	sum := binary.LittleEndian.Uint64(page[16:])
	contentLen := int(binary.LittleEndian.Uint32(page[24:]))
	keySize := int(binary.LittleEndian.Uint16(page[28:]))
	valueSize := int(binary.LittleEndian.Uint16(page[30:]))

	if nodeHeaderSize+contentLen > len(page) {
		return nil, errors.Wrapf(ErrCorruptPage, "page %d: content length %d", id, contentLen)
	}
	content := make([]byte, contentLen)
	copy(content, page[nodeHeaderSize:nodeHeaderSize+contentLen])
	if xxhash.Sum64(content) != sum {
		return nil, errors.Wrapf(ErrCorruptPage, "page %d: checksum mismatch", id)
	}
	if count > maxNum {
		return nil, errors.Wrapf(ErrCorruptPage, "page %d: count %d above capacity %d", id, count, maxNum)
	}

	common := nodeCommon{
		id:        id,
		nodeType:  nodeType,
		compare:   orDefault(cmp),
		maxKeyNum: maxNum,
		minKeyNum: minNum,
		keyNum:    count,
	}
	switch nodeType {
	case NodeLeaf:
		if contentLen != LeafContentLen(maxNum, keySize, valueSize) {
			return nil, errors.Wrapf(ErrCorruptPage, "page %d: leaf content length %d", id, contentLen)
		}
		return &LeafNode{nodeCommon: common, keySize: keySize, valueSize: valueSize, content: content}, nil
	case NodeInner:
		if contentLen != InnerContentLen(maxNum, keySize) {
			return nil, errors.Wrapf(ErrCorruptPage, "page %d: inner content length %d", id, contentLen)
		}
		return &InnerNode{nodeCommon: common, keySize: keySize, content: content}, nil
	}
	return nil, errors.Wrapf(ErrCorruptPage, "page %d: node type %d", id, nodeType)
}

// treeMeta is page 0 of a snapshot.
type treeMeta struct {
	pageSize int
	cfg      Config
	root     NodeID
	head     NodeID
	nextID   NodeID
	size     int
}

func encodeMeta(m treeMeta) []byte {
	page := make([]byte, m.pageSize)
	copy(page[0:8], metaMagic[:])
	binary.LittleEndian.PutUint32(page[8:], uint32(m.pageSize))
	binary.LittleEndian.PutUint32(page[12:], uint32(m.cfg.MaxIdxNum))
	binary.LittleEndian.PutUint32(page[16:], uint32(m.cfg.MaxDataNum))
	binary.LittleEndian.PutUint32(page[20:], uint32(m.cfg.KeySize))
	binary.LittleEndian.PutUint32(page[24:], uint32(m.cfg.ValueSize))
	binary.LittleEndian.PutUint32(page[28:], uint32(m.cfg.MaxNodes))
	binary.LittleEndian.PutUint64(page[32:], uint64(m.root))
	binary.LittleEndian.PutUint64(page[40:], uint64(m.head))
	binary.LittleEndian.PutUint64(page[48:], uint64(m.nextID))
	binary.LittleEndian.PutUint64(page[56:], uint64(m.size))
	binary.LittleEndian.PutUint64(page[64:], xxhash.Sum64(page[:64]))
	return page
}

func decodeMeta(page []byte) (treeMeta, error) {
	var m treeMeta
	if len(page) < metaSize {
		return m, errors.Wrapf(ErrCorruptPage, "meta page: %d bytes", len(page))
	}
	if [8]byte(page[0:8]) != metaMagic {
		return m, errors.Wrapf(ErrCorruptPage, "meta page: bad magic %q", page[0:8])
	}
	if xxhash.Sum64(page[:64]) != binary.LittleEndian.Uint64(page[64:]) {
		return m, errors.Wrap(ErrCorruptPage, "meta page: checksum mismatch")
	}
	m.pageSize = int(binary.LittleEndian.Uint32(page[8:]))
	m.cfg = Config{
		MaxIdxNum:  int(binary.LittleEndian.Uint32(page[12:])),
		MaxDataNum: int(binary.LittleEndian.Uint32(page[16:])),
		KeySize:    int(binary.LittleEndian.Uint32(page[20:])),
		ValueSize:  int(binary.LittleEndian.Uint32(page[24:])),
		MaxNodes:   int(binary.LittleEndian.Uint32(page[28:])),
	}
	m.root = NodeID(binary.LittleEndian.Uint64(page[32:]))
	m.head = NodeID(binary.LittleEndian.Uint64(page[40:]))
	m.nextID = NodeID(binary.LittleEndian.Uint64(page[48:]))
	m.size = int(binary.LittleEndian.Uint64(page[56:]))
	return m, nil
}
