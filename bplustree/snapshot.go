package bplus

import (
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"bpindex/log"
)

// PageStore is the page-level storage a snapshot is written to. Pagers and
// the buffer pool in storage_engine satisfy it.
type PageStore interface {
	ReadPage(pageID int64) ([]byte, error)
	WritePage(pageID int64, data []byte) error
	PageSize() int
	Sync() error
}

// Save writes the tree to ps: page 0 holds the meta record and node i is
// written to page i. Ids that are no longer live get a zero page.
func (t *BPlusTree) Save(ps PageStore) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pageSize := ps.PageSize()
	if pageSize < metaSize {
		return errors.Wrapf(ErrInvalidConfig, "Save: page size %d below %d", pageSize, metaSize)
	}

	next := t.store.NextID()
	meta := treeMeta{pageSize: pageSize, cfg: t.cfg, root: t.root, head: t.head, nextID: next, size: t.size}
	if err := ps.WritePage(0, encodeMeta(meta)); err != nil {
		return errors.Wrap(err, "Save: meta page")
	}

	written := 0
	for id := NodeID(1); id < next; id++ {
		page := make([]byte, pageSize)
		if n, err := t.store.Get(id); err == nil {
			if page, err = encodeNode(n, pageSize); err != nil {
				return errors.Wrap(err, "Save")
			}
			written++
		}
		if err := ps.WritePage(int64(id), page); err != nil {
			return errors.Wrapf(err, "Save: page %d", id)
		}
	}
	if err := ps.Sync(); err != nil {
		return errors.Wrap(err, "Save: sync")
	}

	log.Info(log.CodecModule, "snapshot saved", "nodes", written, "entries", t.size,
		"size", humanize.IBytes(uint64(int(next)*pageSize)))
	return nil
}

// Load rebuilds a tree saved with Save. Every page checksum is verified and
// the rebuilt tree must pass CheckInvariants.
func Load(ps PageStore, opts ...Option) (*BPlusTree, error) {
	page, err := ps.ReadPage(0)
	if err != nil {
		return nil, errors.Wrap(err, "Load: meta page")
	}
	meta, err := decodeMeta(page)
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	if meta.pageSize != ps.PageSize() {
		return nil, errors.Wrapf(ErrCorruptPage, "Load: saved with page size %d, store uses %d", meta.pageSize, ps.PageSize())
	}
	if err := meta.cfg.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "Load"), ErrCorruptPage)
	}

	t := &BPlusTree{cfg: meta.cfg}
	for _, opt := range opts {
		opt(t)
	}
	t.cmp = orDefault(t.cmp)
	if t.store == nil {
		t.store = NewNodeStore()
	}

	for id := NodeID(1); id < meta.nextID; id++ {
		page, err := ps.ReadPage(int64(id))
		if err != nil {
			return nil, errors.Wrapf(err, "Load: page %d", id)
		}
		n, err := decodeNode(page, id, t.cmp)
		if err != nil {
			return nil, errors.Wrap(err, "Load")
		}
		if n == nil {
			continue
		}
		if err := t.store.restore(n); err != nil {
			return nil, errors.Wrap(err, "Load")
		}
	}
	t.store.advance(meta.nextID)
	if meta.cfg.MaxNodes > 0 {
		t.store.SetLimit(meta.cfg.MaxNodes)
	}
	t.root, t.head, t.size = meta.root, meta.head, meta.size

	if err := t.CheckInvariants(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "Load"), ErrCorruptPage)
	}
	log.Info(log.CodecModule, "snapshot loaded", "nodes", t.store.Len(), "entries", t.size, "root", t.root)
	return t, nil
}
