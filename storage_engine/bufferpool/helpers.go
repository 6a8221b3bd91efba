package bufferpool

import (
	"github.com/cockroachdb/errors"

	"bpindex/storage_engine/page"
)

/*
This file holds helper functions for the bufferpool, including the plain
page-level surface (ReadPage, WritePage, PageSize, Sync) used when a tree
snapshot is saved through the pool.
*/

// GetStats returns current buffer pool statistics
func (bp *BufferPool) GetStats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		TotalPages: len(bp.pages),
		Capacity:   bp.capacity,
		Hits:       bp.hits,
		Misses:     bp.misses,
	}
	if total := bp.hits + bp.misses; total > 0 {
		stats.HitRate = float64(bp.hits) / float64(total)
	}
	if m := bp.clean.Metrics; m != nil {
		stats.CacheRatio = m.Ratio()
		if added, evicted := m.CostAdded(), m.CostEvicted(); added > evicted {
			stats.CachedBytes = added - evicted
		}
	}

	for _, pg := range bp.pages {
		pg.RLock()
		if pg.PinCount > 0 {
			stats.PinnedPages++
		}
		if pg.IsDirty {
			stats.DirtyPages++
		}
		pg.RUnlock()
	}
	return stats
}

// Reset flushes every dirty page and empties the pool
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if err := bp.flushAll(); err != nil {
		return errors.Wrap(err, "flush during reset")
	}
	bp.pages = make(map[int64]*page.Page, bp.capacity)
	bp.accessOrder = make([]int64, 0, bp.capacity)
	bp.clean.Clear()
	return nil
}

// Size returns the current number of pages in the buffer pool
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum number of frames
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// GetPage returns a resident page without loading it
// Returns nil if page is not in buffer pool
func (bp *BufferPool) GetPage(pageID int64) *page.Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.pages[pageID]
}

// MarkDirty marks a page as dirty (modified)
func (bp *BufferPool) MarkDirty(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrNotResident, "mark page %d dirty", pageID)
	}
	pg.Lock()
	pg.IsDirty = true
	pg.Unlock()
	return nil
}

// ReadPage returns a copy of a page's bytes.
func (bp *BufferPool) ReadPage(pageID int64) ([]byte, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, err := bp.fetch(pageID)
	if err != nil {
		return nil, err
	}
	pg.RLock()
	defer pg.RUnlock()
	return append([]byte(nil), pg.Data...), nil
}

// WritePage replaces a page's bytes and leaves the frame dirty. The pager
// sees the write on flush or eviction.
func (bp *BufferPool) WritePage(pageID int64, data []byte) error {
	if len(data) != bp.pager.PageSize() {
		return errors.Newf("write page %d: %d bytes, page size %d", pageID, len(data), bp.pager.PageSize())
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		pg = page.New(pageID, make([]byte, len(data)))
		if err := bp.addPage(pg); err != nil {
			return errors.Wrap(err, "add page to buffer pool")
		}
	} else {
		bp.updateAccessOrder(pageID)
	}

	pg.Lock()
	copy(pg.Data, data)
	pg.IsDirty = true
	pg.Unlock()
	return nil
}

func (bp *BufferPool) PageSize() int {
	return bp.pager.PageSize()
}

// Sync flushes every dirty frame and syncs the pager.
func (bp *BufferPool) Sync() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if err := bp.flushAll(); err != nil {
		return err
	}
	return bp.pager.Sync()
}

// Close flushes, closes the clean cache and the pager.
func (bp *BufferPool) Close() error {
	if err := bp.Sync(); err != nil {
		return err
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.clean.Close()
	return bp.pager.Close()
}
