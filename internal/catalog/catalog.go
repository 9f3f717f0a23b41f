// Package catalog manages collection metadata: collections, indexes and
// value-distribution statistics. The optimizer consumes it as a read-only
// snapshot taken once at the start of a compilation; mutators exist for
// tests and tooling, never for the compilation path.
package catalog

import (
	"time"

	"github.com/dshills/CorvusDB/internal/query/paths"
)

// Catalog is the read-only metadata surface consumed during query
// compilation.
type Catalog interface {
	// GetCollection returns a collection's metadata.
	GetCollection(name string) (*Collection, error)
	// ListIndexes returns the indexes defined on a collection.
	ListIndexes(collection string) ([]*Index, error)
	// GetPathStats returns value-distribution statistics for a path in a
	// collection, or nil if none were collected. A nil result is not an
	// error; estimation falls back to heuristics.
	GetPathStats(collection string, path paths.Path) (*PathStats, error)
}

// Collection represents a collection with its metadata.
type Collection struct {
	Name      string
	Stats     CollectionStats
	CreatedAt time.Time
}

// CollectionStats holds collection-level statistics.
type CollectionStats struct {
	DocCount     int64
	AvgDocSize   int
	LastAnalyzed time.Time
}

// SortOrder represents an index key's sort order.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (s SortOrder) String() string {
	if s == Descending {
		return "desc"
	}
	return "asc"
}

// IndexKey is one component of an index key pattern.
type IndexKey struct {
	Path  paths.Path
	Order SortOrder
}

// Index represents an index on a collection.
type Index struct {
	Name       string
	Collection string
	KeyPattern []IndexKey
	// Multikey marks indexes over array-traversing paths; such indexes
	// carry one entry per array element.
	Multikey  bool
	Unique    bool
	CreatedAt time.Time
}
