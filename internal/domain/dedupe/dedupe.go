// Package dedupe tracks content digests of accepted uploads so an identical
// file is archived only once.
package dedupe

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// Deduper records seen upload digests.
type Deduper interface {
	// SeenAndRecord atomically checks if digest was seen and records it if not.
	// Returns true if digest was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, digest string) bool

	// Unrecord forgets a digest recorded for an upload that was then rejected.
	Unrecord(ctx context.Context, digest string)

	// Reset forgets every digest.
	Reset(ctx context.Context)

	Size() int64
}

// Digest returns the hex SHA-256 of an upload body.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// inMemoryDeduper keeps digests in a map. In bounded mode an insertion list
// evicts the oldest digest once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, digest string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[digest]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[digest] = d.order.PushFront(digest)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[digest]; exists {
		d.order.Remove(el)
		delete(d.seen, digest)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(d.seen)
	d.order.Init()
	d.size.Store(0)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	tail := d.order.Back()
	if tail == nil {
		return
	}
	d.order.Remove(tail)
	delete(d.seen, tail.Value.(string))
	d.size.Add(-1)
}

// Size returns the current number of recorded digests.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
