package blobstore

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/owlite/resource"
)

// CachingStore is a read-through BlobStore that keeps recently opened blobs
// in memory, evicting the least recently used ones beyond capacity bytes.
//
// Put and Delete invalidate the cached entry before reaching the inner store.
type CachingStore struct {
	inner    BlobStore
	rc       *resource.Controller
	capacity int64

	mu    sync.Mutex
	size  int64
	items map[string]*list.Element
	lru   *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	name string
	data []byte
}

// NewCachingStore wraps inner with a cache of capacity bytes. A non-nil rc
// accounts cached bytes against its memory budget; blobs that do not fit
// are served without being cached.
func NewCachingStore(inner BlobStore, capacity int64, rc *resource.Controller) *CachingStore {
	return &CachingStore{
		inner:    inner,
		rc:       rc,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Open returns the cached blob, loading it from the inner store on a miss.
func (c *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := c.get(name); ok {
		return &memoryBlob{data: data}, nil
	}

	data, err := Get(ctx, c.inner, name)
	if err != nil {
		return nil, err
	}
	c.set(name, data)
	return &memoryBlob{data: data}, nil
}

// Put writes through to the inner store.
func (c *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	c.invalidate(name)
	return c.inner.Put(ctx, name, data)
}

// Delete removes name from the cache and the inner store.
func (c *CachingStore) Delete(ctx context.Context, name string) error {
	c.invalidate(name)
	return c.inner.Delete(ctx, name)
}

// List is served by the inner store.
func (c *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

// Stats returns the hit and miss counters.
func (c *CachingStore) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the number of cached bytes.
func (c *CachingStore) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *CachingStore) get(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.hits.Add(1)
		c.lru.MoveToFront(el)
		return el.Value.(*cacheEntry).data, true
	}
	c.misses.Add(1)
	return nil, false
}

func (c *CachingStore) set(name string, data []byte) {
	n := int64(len(data))
	if n > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.remove(el)
	}
	// Evict first so released memory is available to the controller.
	for c.size+n > c.capacity {
		el := c.lru.Back()
		if el == nil {
			break
		}
		c.remove(el)
	}
	if err := c.rc.ReserveMemory(n); err != nil {
		return
	}

	c.items[name] = c.lru.PushFront(&cacheEntry{name: name, data: data})
	c.size += n
}

func (c *CachingStore) invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.remove(el)
	}
}

func (c *CachingStore) remove(el *list.Element) {
	c.lru.Remove(el)
	e := el.Value.(*cacheEntry)
	delete(c.items, e.name)
	n := int64(len(e.data))
	c.size -= n
	c.rc.ReleaseMemory(n)
}
