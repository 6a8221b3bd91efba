package pager

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// DefaultPageSize is used when a pager is created with a page size of 0.
const DefaultPageSize = 4096

var (
	ErrPageNotFound = errors.New("page not found")
	ErrPagerClosed  = errors.New("pager is closed")
	ErrPageSize     = errors.New("page size mismatch")
)

// Pager stores fixed-size pages addressed by id. Page 0 is reserved for
// metadata; AllocatePage hands out ids from 1.
type Pager interface {
	ReadPage(pageID int64) ([]byte, error)
	WritePage(pageID int64, data []byte) error
	AllocatePage() (int64, error)
	DeallocatePage(pageID int64) error
	Sync() error
	Close() error
	PageSize() int
	TotalPages() int64
}

type InMemoryPager struct {
	pages    map[int64][]byte
	nextPage int64
	pageSize int
	mu       sync.RWMutex
	closed   bool
}

func NewInMemoryPager(pageSize int) *InMemoryPager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &InMemoryPager{
		pages:    make(map[int64][]byte),
		nextPage: 1,
		pageSize: pageSize,
	}
}

func (p *InMemoryPager) ReadPage(pageID int64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPagerClosed
	}
	data, ok := p.pages[pageID]
	if !ok {
		return nil, errors.Wrapf(ErrPageNotFound, "page %d", pageID)
	}
	return append([]byte(nil), data...), nil
}

func (p *InMemoryPager) WritePage(pageID int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPagerClosed
	}
	if len(data) != p.pageSize {
		return errors.Wrapf(ErrPageSize, "write page %d: %d bytes, page size %d", pageID, len(data), p.pageSize)
	}
	p.pages[pageID] = append([]byte(nil), data...)
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}
	return nil
}

func (p *InMemoryPager) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrPagerClosed
	}
	id := p.nextPage
	p.nextPage++
	p.pages[id] = make([]byte, p.pageSize)
	return id, nil
}

func (p *InMemoryPager) DeallocatePage(pageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPagerClosed
	}
	delete(p.pages, pageID)
	return nil
}

func (p *InMemoryPager) Sync() error { return nil }

func (p *InMemoryPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *InMemoryPager) PageSize() int { return p.pageSize }

func (p *InMemoryPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage
}
