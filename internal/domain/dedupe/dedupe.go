// Package dedupe tracks keys that already have work pending so repeated
// requests for the same key can be coalesced.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records pending keys.
type Deduper interface {
	// SeenAndRecord reports whether key is already pending and records it
	// if it is not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key so the next request for it is accepted again.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of pending keys.
	Size() int64
}

// inMemoryDeduper keeps keys in insertion order. When bounded and full the
// oldest key is evicted, which at worst lets one duplicate through.
type inMemoryDeduper struct {
	mu      sync.Mutex
	maxSize int
	keys    map[string]*list.Element
	order   *list.List
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		keys:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keys[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.keys, oldest.Value.(string))
	}
	d.keys[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.keys[key]; ok {
		d.order.Remove(e)
		delete(d.keys, key)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
