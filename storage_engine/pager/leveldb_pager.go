package pager

import (
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"bpindex/log"
)

// LevelDBPager keeps each page as one LevelDB record keyed by "p" followed
// by the big endian page id, so pages iterate in id order.
type LevelDBPager struct {
	db       *leveldb.DB
	pageSize int
	nextPage int64
	mu       sync.Mutex
}

var pagePrefix = []byte("p")

// NewLevelDBPager opens or creates a LevelDB database at path. If path is
// empty the database lives in memory.
func NewLevelDBPager(path string, pageSize int) (*LevelDBPager, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at %q", path)
	}

	p := &LevelDBPager{db: db, pageSize: pageSize, nextPage: 1}

	// the highest stored id decides where allocation resumes
	iter := db.NewIterator(util.BytesPrefix(pagePrefix), nil)
	if iter.Last() {
		if id := decodePageKey(iter.Key()); id >= p.nextPage {
			p.nextPage = id + 1
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "scan leveldb pages")
	}

	log.Debug(log.PagerModule, "leveldb pager opened", "path", path, "pageSize", pageSize, "pages", p.nextPage)
	return p, nil
}

func pageKey(pageID int64) []byte {
	key := make([]byte, len(pagePrefix)+8)
	copy(key, pagePrefix)
	binary.BigEndian.PutUint64(key[len(pagePrefix):], uint64(pageID))
	return key
}

func decodePageKey(key []byte) int64 {
	if len(key) != len(pagePrefix)+8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(key[len(pagePrefix):]))
}

func (p *LevelDBPager) ReadPage(pageID int64) ([]byte, error) {
	data, err := p.db.Get(pageKey(pageID), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d", pageID)
	}
	if err == leveldb.ErrClosed {
		return nil, ErrPagerClosed
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read page %d", pageID)
	}
	return data, nil
}

func (p *LevelDBPager) WritePage(pageID int64, data []byte) error {
	if len(data) != p.pageSize {
		return errors.Wrapf(ErrPageSize, "write page %d: %d bytes, page size %d", pageID, len(data), p.pageSize)
	}
	if err := p.put(pageID, data); err != nil {
		return err
	}

	p.mu.Lock()
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}
	p.mu.Unlock()
	return nil
}

func (p *LevelDBPager) put(pageID int64, data []byte) error {
	err := p.db.Put(pageKey(pageID), data, nil)
	if err == leveldb.ErrClosed {
		return ErrPagerClosed
	}
	return errors.Wrapf(err, "write page %d", pageID)
}

func (p *LevelDBPager) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextPage
	if err := p.put(id, make([]byte, p.pageSize)); err != nil {
		return 0, err
	}
	p.nextPage++
	return id, nil
}

func (p *LevelDBPager) DeallocatePage(pageID int64) error {
	err := p.db.Delete(pageKey(pageID), nil)
	if err == leveldb.ErrClosed {
		return ErrPagerClosed
	}
	return errors.Wrapf(err, "deallocate page %d", pageID)
}

// Sync forces pending writes down with an empty synced batch.
func (p *LevelDBPager) Sync() error {
	err := p.db.Write(new(leveldb.Batch), &opt.WriteOptions{Sync: true})
	if err == leveldb.ErrClosed {
		return ErrPagerClosed
	}
	return errors.Wrap(err, "sync leveldb")
}

func (p *LevelDBPager) Close() error {
	err := p.db.Close()
	if err == leveldb.ErrClosed {
		return nil
	}
	return err
}

func (p *LevelDBPager) PageSize() int { return p.pageSize }

func (p *LevelDBPager) TotalPages() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextPage
}
