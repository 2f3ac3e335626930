package utils

import (
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of entries a FileCache keeps
const DefaultCacheSize = 256

// CacheItem represents a cached item with metadata for invalidation
type CacheItem[T any] struct {
	Value   T
	ModTime time.Time
	Size    int64
}

// FileCache is a bounded LRU cache whose entries are tied to a file on disk
// and dropped once that file changes
type FileCache[V any] struct {
	items *lru.Cache[string, *CacheItem[V]]
}

// NewFileCache creates a cache holding at most size entries
func NewFileCache[V any](size int) (*FileCache[V], error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	items, err := lru.New[string, *CacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &FileCache[V]{items: items}, nil
}

// Get returns the value cached for path if the file is unchanged since it was stored
func (c *FileCache[V]) Get(path string) (V, bool) {
	var zero V
	item, ok := c.items.Get(path)
	if !ok {
		return zero, false
	}

	stat, err := os.Stat(path)
	if err == nil && stat.ModTime().Equal(item.ModTime) && stat.Size() == item.Size {
		return item.Value, true
	}

	c.items.Remove(path)
	return zero, false
}

// Set stores value for path along with the file's current size and mtime
func (c *FileCache[V]) Set(path string, value V) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	c.items.Add(path, &CacheItem[V]{Value: value, ModTime: stat.ModTime(), Size: stat.Size()})
	return nil
}

// Delete removes the entry for path
func (c *FileCache[V]) Delete(path string) {
	c.items.Remove(path)
}

// Clear removes all entries
func (c *FileCache[V]) Clear() {
	c.items.Purge()
}

// Len returns the number of cached entries
func (c *FileCache[V]) Len() int {
	return c.items.Len()
}
