package page

import "sync"

/*
Page is the unit the buffer pool caches. It is format-agnostic: B+tree
node pages and the snapshot meta page both travel through it as raw bytes,
the encoding lives in bplustree/node_codec.go.
*/

type Page struct {
	ID       int64
	Data     []byte
	IsDirty  bool
	PinCount int32
	mu       sync.RWMutex
}

func New(id int64, data []byte) *Page {
	return &Page{ID: id, Data: data}
}

func (p *Page) Lock() {
	p.mu.Lock()
}

func (p *Page) Unlock() {
	p.mu.Unlock()
}

func (p *Page) RLock() {
	p.mu.RLock()
}

func (p *Page) RUnlock() {
	p.mu.RUnlock()
}
