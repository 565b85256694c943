// Package cache provides LRU caching with disk persistence. The star-name
// oracle uses it to carry resolved export lists across runs, so repeated
// scans of an unchanged tree skip interpreter launches.
package cache

import (
	"container/list"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Entry is one cache entry with metadata.
type Entry struct {
	Key        string    `msgpack:"key"`
	Names      []string  `msgpack:"names"`
	CreatedAt  time.Time `msgpack:"created_at"`
	AccessedAt time.Time `msgpack:"accessed_at"`
}

// LRUCache is an in-memory LRU cache of string lists with optional disk
// persistence. Safe for concurrent use.
type LRUCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element // element value is *Entry
	lru     *list.List               // most recently used at front
	maxSize int
}

// Options configures the LRU cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int
}

// New creates a new LRU cache with the given options.
func New(opts Options) *LRUCache {
	return &LRUCache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: opts.MaxSize,
	}
}

// Get retrieves a value by key. Returns ErrKeyNotFound when absent.
func (c *LRUCache) Get(key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, found := c.items[key]
	if !found {
		return nil, ErrKeyNotFound
	}
	entry := elem.Value.(*Entry)
	entry.AccessedAt = time.Now()
	c.lru.MoveToFront(elem)
	return entry.Names, nil
}

// Set stores a key-value pair, evicting the least recently used entry when
// the cache is full.
func (c *LRUCache) Set(key string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if elem, exists := c.items[key]; exists {
		entry := elem.Value.(*Entry)
		entry.Names = names
		entry.AccessedAt = now
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&Entry{
		Key:        key,
		Names:      names,
		CreatedAt:  now,
		AccessedAt: now,
	})
	c.items[key] = elem

	for c.maxSize > 0 && c.lru.Len() > c.maxSize {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.lru.Remove(back)
		delete(c.items, back.Value.(*Entry).Key)
	}
}

// Delete removes a key from the cache.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.items[key]; found {
		c.lru.Remove(elem)
		delete(c.items, key)
	}
}

// Len returns the number of entries in the cache.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Save persists the cache to a writer using msgpack, most recently used
// entries first.
func (c *LRUCache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, c.lru.Len())
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		entries = append(entries, *elem.Value.(*Entry))
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load restores the cache from a reader, replacing current contents.
func (c *LRUCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru = list.New()
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		c.items[entry.Key] = c.lru.PushFront(&entry)
	}
	return nil
}

// PersistToFile saves the cache to a file, creating parent directories.
func PersistToFile(c *LRUCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFromFile loads the cache from a file. A missing file is not an error.
func LoadFromFile(c *LRUCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
