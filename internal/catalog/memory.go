package catalog

import (
	"fmt"
	"sync"

	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/util/timeutil"
)

// MemoryCatalog is an in-memory implementation of the Catalog interface.
// The mutex guards the mutators used by tests and tooling; a compilation
// holds the catalog as an immutable snapshot and only reads.
type MemoryCatalog struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	indexes     map[string][]*Index              // collection -> indexes
	pathStats   map[string]map[string]*PathStats // collection -> path -> stats
}

// NewMemoryCatalog creates a new in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		collections: make(map[string]*Collection),
		indexes:     make(map[string][]*Index),
		pathStats:   make(map[string]map[string]*PathStats),
	}
}

// CreateCollection registers a collection with its document count.
func (c *MemoryCatalog) CreateCollection(name string, stats CollectionStats) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.collections[name]; exists {
		return nil, fmt.Errorf("collection %q already exists", name)
	}
	coll := &Collection{
		Name:      name,
		Stats:     stats,
		CreatedAt: timeutil.Now(),
	}
	c.collections[name] = coll
	return coll, nil
}

// CreateIndex registers an index on an existing collection.
func (c *MemoryCatalog) CreateIndex(index *Index) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.collections[index.Collection]; !exists {
		return nil, fmt.Errorf("collection %q does not exist", index.Collection)
	}
	for _, existing := range c.indexes[index.Collection] {
		if existing.Name == index.Name {
			return nil, fmt.Errorf("index %q already exists on collection %q", index.Name, index.Collection)
		}
	}
	if len(index.KeyPattern) == 0 {
		return nil, fmt.Errorf("index %q has an empty key pattern", index.Name)
	}
	for _, k := range index.KeyPattern {
		if k.Path.IsMultikey() && !index.Multikey {
			return nil, fmt.Errorf("index %q has a traversing key path %s but is not marked multikey",
				index.Name, k.Path)
		}
	}
	index.CreatedAt = timeutil.Now()
	c.indexes[index.Collection] = append(c.indexes[index.Collection], index)
	return index, nil
}

// SetPathStats installs value-distribution statistics for a path.
func (c *MemoryCatalog) SetPathStats(collection string, path paths.Path, stats *PathStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.collections[collection]; !exists {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	byPath, ok := c.pathStats[collection]
	if !ok {
		byPath = make(map[string]*PathStats)
		c.pathStats[collection] = byPath
	}
	if stats.LastAnalyzed.IsZero() {
		stats.LastAnalyzed = timeutil.Now()
	}
	byPath[path.String()] = stats
	return nil
}

// GetCollection returns a collection's metadata.
func (c *MemoryCatalog) GetCollection(name string) (*Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	coll, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	return coll, nil
}

// ListIndexes returns the indexes defined on a collection.
func (c *MemoryCatalog) ListIndexes(collection string) ([]*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.collections[collection]; !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	out := make([]*Index, len(c.indexes[collection]))
	copy(out, c.indexes[collection])
	return out, nil
}

// GetPathStats returns statistics for a path, or nil when none were
// collected.
func (c *MemoryCatalog) GetPathStats(collection string, path paths.Path) (*PathStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.collections[collection]; !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	return c.pathStats[collection][path.String()], nil
}
