package bufferpool

import (
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"

	"bpindex/log"
	"bpindex/storage_engine/page"
	"bpindex/storage_engine/pager"
)

/*
This file is the main file of the bufferpool
Frames work on an LRU basis and hold the pager for writing dirty pages back.
A frame that leaves the pool clean is handed to a ristretto cache; on a frame
miss the cache is tried before the pager.

Pages are identified by pageID, the same id the pager uses
*/

var (
	ErrAllPinned   = errors.New("all pages are pinned, cannot evict")
	ErrNotResident = errors.New("page not in buffer pool")
)

// NewBufferPool creates a pool of capacity frames over p. The clean cache
// holds up to cleanPages further pages.
func NewBufferPool(capacity, cleanPages int, p pager.Pager) (*BufferPool, error) {
	if capacity <= 0 {
		return nil, errors.Newf("buffer pool capacity %d must be positive", capacity)
	}
	if cleanPages <= 0 {
		cleanPages = capacity
	}
	cache, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters:        int64(cleanPages) * 10,
		MaxCost:            int64(cleanPages) * int64(p.PageSize()),
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create clean page cache")
	}
	return &BufferPool{
		pages:       make(map[int64]*page.Page, capacity),
		capacity:    capacity,
		pager:       p,
		clean:       cache,
		accessOrder: make([]int64, 0, capacity),
	}, nil
}

// FetchPage retrieves a page from the buffer pool, loading it if necessary
// Returns the page with pin count incremented
func (bp *BufferPool) FetchPage(pageID int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, err := bp.fetch(pageID)
	if err != nil {
		return nil, err
	}
	pg.Lock()
	pg.PinCount++
	pg.Unlock()
	return pg, nil
}

// fetch returns the resident frame for pageID, loading it into a frame first
// Assumes lock is already held
func (bp *BufferPool) fetch(pageID int64) (*page.Page, error) {
	if pg, exists := bp.pages[pageID]; exists {
		bp.hits++
		log.Trace(log.PoolModule, "frame hit", "page", pageID)
		bp.updateAccessOrder(pageID)
		return pg, nil
	}

	var data []byte
	if cached, ok := bp.clean.Get(pageID); ok {
		bp.hits++
		log.Trace(log.PoolModule, "clean cache hit", "page", pageID)
		data = append([]byte(nil), cached...)
	} else {
		bp.misses++
		log.Trace(log.PoolModule, "miss, reading from pager", "page", pageID)
		read, err := bp.pager.ReadPage(pageID)
		if err != nil {
			return nil, errors.Wrapf(err, "read page %d", pageID)
		}
		data = read
	}

	pg := page.New(pageID, data)
	if err := bp.addPage(pg); err != nil {
		return nil, errors.Wrap(err, "add page to buffer pool")
	}
	return pg, nil
}

// NewPage allocates a page through the pager and pins a blank, dirty frame
// for it.
func (bp *BufferPool) NewPage() (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pageID, err := bp.pager.AllocatePage()
	if err != nil {
		return nil, errors.Wrap(err, "allocate page")
	}

	pg := page.New(pageID, make([]byte, bp.pager.PageSize()))
	pg.IsDirty = true
	pg.PinCount = 1
	if err := bp.addPage(pg); err != nil {
		return nil, errors.Wrap(err, "add new page to buffer pool")
	}
	return pg, nil
}

// UnpinPage decrements the pin count for a page
func (bp *BufferPool) UnpinPage(pageID int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrNotResident, "unpin page %d", pageID)
	}

	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount > 0 {
		pg.PinCount--
	}
	if isDirty {
		pg.IsDirty = true
	}
	return nil
}

// FlushPage writes a specific page to the pager if dirty
func (bp *BufferPool) FlushPage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrNotResident, "flush page %d", pageID)
	}

	pg.Lock()
	defer pg.Unlock()
	return bp.writeBack(pg)
}

// FlushAllPages writes all dirty pages to the pager
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushAll()
}

func (bp *BufferPool) flushAll() error {
	flushed := 0
	for _, pg := range bp.pages {
		pg.Lock()
		wasDirty := pg.IsDirty
		err := bp.writeBack(pg)
		pg.Unlock()
		if err != nil {
			return err
		}
		if wasDirty {
			flushed++
		}
	}
	log.Debug(log.PoolModule, "flushed all pages", "frames", len(bp.pages), "written", flushed)
	return nil
}

// writeBack assumes the page lock is held
func (bp *BufferPool) writeBack(pg *page.Page) error {
	if !pg.IsDirty {
		return nil
	}
	if err := bp.pager.WritePage(pg.ID, pg.Data); err != nil {
		return errors.Wrapf(err, "flush page %d", pg.ID)
	}
	pg.IsDirty = false
	return nil
}

// addPage adds a page to the buffer pool, evicting if necessary
// Assumes lock is already held
func (bp *BufferPool) addPage(pg *page.Page) error {
	if _, exists := bp.pages[pg.ID]; exists {
		bp.updateAccessOrder(pg.ID)
		return nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLRU(); err != nil {
			return errors.Wrap(err, "evict page")
		}
	}

	bp.pages[pg.ID] = pg
	bp.updateAccessOrder(pg.ID)
	// the frame is now the authoritative copy
	bp.clean.Del(pg.ID)
	return nil
}

// evictLRU evicts the least recently used unpinned page, writing it back
// first when dirty. Assumes lock is already held
func (bp *BufferPool) evictLRU() error {
	for i := 0; i < len(bp.accessOrder); i++ {
		pageID := bp.accessOrder[i]
		pg, exists := bp.pages[pageID]
		if !exists {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			i--
			continue
		}

		pg.Lock()
		if pg.PinCount > 0 {
			pg.Unlock()
			continue
		}
		log.Trace(log.PoolModule, "evict", "page", pageID, "dirty", pg.IsDirty)
		if err := bp.writeBack(pg); err != nil {
			pg.Unlock()
			return err
		}
		bp.clean.Set(pageID, pg.Data, int64(len(pg.Data)))
		bp.clean.Wait()
		pg.Unlock()

		delete(bp.pages, pageID)
		bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
		return nil
	}
	return ErrAllPinned
}

// updateAccessOrder moves a page to the end of access order (most recently used)
// Assumes lock is already held
func (bp *BufferPool) updateAccessOrder(pageID int64) {
	for i, id := range bp.accessOrder {
		if id == pageID {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			break
		}
	}
	bp.accessOrder = append(bp.accessOrder, pageID)
}

// DeletePage drops a page from the pool and deallocates it in the pager
func (bp *BufferPool) DeletePage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if pg, exists := bp.pages[pageID]; exists {
		pg.Lock()
		pinned := pg.PinCount > 0
		pg.Unlock()
		if pinned {
			return errors.Newf("cannot delete pinned page %d", pageID)
		}
		delete(bp.pages, pageID)
		for i, id := range bp.accessOrder {
			if id == pageID {
				bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
				break
			}
		}
	}
	bp.clean.Del(pageID)
	return bp.pager.DeallocatePage(pageID)
}
