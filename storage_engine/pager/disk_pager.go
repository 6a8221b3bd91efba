package pager

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"bpindex/log"
)

// OnDiskPager implements the Pager interface for a single page file
type OnDiskPager struct {
	file     *os.File
	filePath string
	pageSize int
	nextPage int64 // Next available page ID
	mu       sync.RWMutex
}

// NewOnDiskPager opens or creates a page file. A pageSize of 0 selects
// DefaultPageSize.
func NewOnDiskPager(path string, pageSize int) (*OnDiskPager, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open page file %s", path)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "stat page file")
	}
	if stat.Size()%int64(pageSize) != 0 {
		file.Close()
		return nil, errors.Wrapf(ErrPageSize, "%s is %d bytes, not a multiple of %d", path, stat.Size(), pageSize)
	}

	// page 0 is reserved for metadata
	nextPageID := stat.Size() / int64(pageSize)
	if nextPageID == 0 {
		nextPageID = 1
	}

	log.Debug(log.PagerModule, "page file opened", "path", path, "pageSize", pageSize, "pages", nextPageID)
	return &OnDiskPager{
		file:     file,
		filePath: path,
		pageSize: pageSize,
		nextPage: nextPageID,
	}, nil
}

// ReadPage reads one page. A short read at the end of the file is padded
// with zeros.
func (p *OnDiskPager) ReadPage(pageID int64) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.file == nil {
		return nil, ErrPagerClosed
	}

	page := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(page, pageID*int64(p.pageSize))
	if err != nil && n == 0 {
		return nil, errors.Mark(errors.Wrapf(err, "read page %d", pageID), ErrPageNotFound)
	}
	return page, nil
}

func (p *OnDiskPager) WritePage(pageID int64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	if len(data) != p.pageSize {
		return errors.Wrapf(ErrPageSize, "write page %d: %d bytes, page size %d", pageID, len(data), p.pageSize)
	}

	if _, err := p.file.WriteAt(data, pageID*int64(p.pageSize)); err != nil {
		return errors.Wrapf(err, "write page %d", pageID)
	}
	if pageID >= p.nextPage {
		p.nextPage = pageID + 1
	}
	return nil
}

// AllocatePage zero-fills the next page and returns its ID
func (p *OnDiskPager) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return 0, ErrPagerClosed
	}

	pageID := p.nextPage
	if _, err := p.file.WriteAt(make([]byte, p.pageSize), pageID*int64(p.pageSize)); err != nil {
		return 0, errors.Wrapf(err, "allocate page %d", pageID)
	}
	p.nextPage++
	return pageID, nil
}

// DeallocatePage zeroes the page. Space is not reclaimed.
func (p *OnDiskPager) DeallocatePage(pageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	if pageID <= 0 || pageID >= p.nextPage {
		return errors.Wrapf(ErrPageNotFound, "deallocate page %d", pageID)
	}
	if _, err := p.file.WriteAt(make([]byte, p.pageSize), pageID*int64(p.pageSize)); err != nil {
		return errors.Wrapf(err, "deallocate page %d", pageID)
	}
	return nil
}

// Sync flushes all pending writes to disk
func (p *OnDiskPager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrPagerClosed
	}
	return p.file.Sync()
}

// Close syncs and closes the page file
func (p *OnDiskPager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil // Already closed
	}

	if err := p.file.Sync(); err != nil {
		p.file.Close()
		p.file = nil
		return errors.Wrap(err, "sync before close")
	}

	err := p.file.Close()
	p.file = nil
	return err
}

func (p *OnDiskPager) PageSize() int { return p.pageSize }

func (p *OnDiskPager) TotalPages() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextPage // if next is 20, pages 0..19 exist
}

func (p *OnDiskPager) Path() string { return p.filePath }
