package catalog

import (
	"testing"

	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/value"
)

func TestMemoryCatalogCollections(t *testing.T) {
	cat := NewMemoryCatalog()

	_, err := cat.CreateCollection("orders", CollectionStats{DocCount: 1000})
	if err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	// Duplicate creation fails.
	if _, err := cat.CreateCollection("orders", CollectionStats{}); err == nil {
		t.Error("expected error creating duplicate collection")
	}

	coll, err := cat.GetCollection("orders")
	if err != nil {
		t.Fatalf("Failed to get collection: %v", err)
	}
	if coll.Stats.DocCount != 1000 {
		t.Errorf("expected doc count 1000, got %d", coll.Stats.DocCount)
	}

	if _, err := cat.GetCollection("missing"); err == nil {
		t.Error("expected error for missing collection")
	}
}

func TestMemoryCatalogIndexes(t *testing.T) {
	cat := NewMemoryCatalog()
	if _, err := cat.CreateCollection("orders", CollectionStats{DocCount: 1000}); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	idx := &Index{
		Name:       "idx_orders_customer",
		Collection: "orders",
		KeyPattern: []IndexKey{{Path: paths.Get("customer"), Order: Ascending}},
	}
	if _, err := cat.CreateIndex(idx); err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}

	// Duplicate index name fails.
	if _, err := cat.CreateIndex(&Index{
		Name:       "idx_orders_customer",
		Collection: "orders",
		KeyPattern: []IndexKey{{Path: paths.Get("customer")}},
	}); err == nil {
		t.Error("expected error creating duplicate index")
	}

	// Traversing key path requires the multikey flag.
	if _, err := cat.CreateIndex(&Index{
		Name:       "idx_orders_tags",
		Collection: "orders",
		KeyPattern: []IndexKey{{Path: paths.Get("tags").Traversed()}},
	}); err == nil {
		t.Error("expected error for traversing path without multikey flag")
	}
	if _, err := cat.CreateIndex(&Index{
		Name:       "idx_orders_tags",
		Collection: "orders",
		KeyPattern: []IndexKey{{Path: paths.Get("tags").Traversed()}},
		Multikey:   true,
	}); err != nil {
		t.Errorf("unexpected error for multikey index: %v", err)
	}

	indexes, err := cat.ListIndexes("orders")
	if err != nil {
		t.Fatalf("Failed to list indexes: %v", err)
	}
	if len(indexes) != 2 {
		t.Errorf("expected 2 indexes, got %d", len(indexes))
	}
}

func TestMemoryCatalogPathStats(t *testing.T) {
	cat := NewMemoryCatalog()
	if _, err := cat.CreateCollection("orders", CollectionStats{DocCount: 1000}); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	p := paths.Get("qty")
	stats := &PathStats{
		DocCount:      1000,
		DistinctCount: 100,
		MinValue:      value.NewInt(0),
		MaxValue:      value.NewInt(99),
		Histogram: &Histogram{
			Type: EquiHeightHistogram,
			Buckets: []HistogramBucket{
				{LowerBound: value.NewInt(0), UpperBound: value.NewInt(49), Frequency: 500, DistinctCount: 50},
				{LowerBound: value.NewInt(50), UpperBound: value.NewInt(99), Frequency: 500, DistinctCount: 50},
			},
		},
	}
	if err := cat.SetPathStats("orders", p, stats); err != nil {
		t.Fatalf("Failed to set path stats: %v", err)
	}

	got, err := cat.GetPathStats("orders", paths.Get("qty"))
	if err != nil {
		t.Fatalf("Failed to get path stats: %v", err)
	}
	if got == nil || got.DistinctCount != 100 {
		t.Errorf("unexpected stats: %+v", got)
	}
	if got.Histogram.TotalFrequency() != 1000 {
		t.Errorf("expected total frequency 1000, got %d", got.Histogram.TotalFrequency())
	}

	// Missing stats is a nil result, not an error.
	missing, err := cat.GetPathStats("orders", paths.Get("nope"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil stats for uncollected path")
	}
}
