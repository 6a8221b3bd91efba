package bufferpool

import (
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"bpindex/storage_engine/page"
	"bpindex/storage_engine/pager"
)

// ############################################# BUFFER POOL #############################################

// BufferPool caches pages in front of a Pager. Pinned and dirty pages stay
// in frames with LRU order; a frame evicted clean moves to a ristretto cache
// so a later fetch can skip the pager.
type BufferPool struct {
	pages       map[int64]*page.Page // pageID -> Page
	capacity    int
	pager       pager.Pager
	clean       *ristretto.Cache[int64, []byte]
	accessOrder []int64 // LRU tracking: most recently used at end
	hits        uint64
	misses      uint64
	mu          sync.Mutex
}

// BufferPoolStats is a snapshot of pool counters.
type BufferPoolStats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
	Hits        uint64 // served from frames or the clean cache
	Misses      uint64 // read from the pager
	HitRate     float64
	CacheRatio  float64 // ristretto hit ratio
	CachedBytes uint64  // cost held by the clean cache
}
