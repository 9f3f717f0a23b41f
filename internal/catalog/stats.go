package catalog

import (
	"time"

	"github.com/dshills/CorvusDB/internal/query/value"
)

// PathStats holds value-distribution statistics for one field path within
// a collection.
type PathStats struct {
	DocCount      int64 // documents with a value at the path
	DistinctCount int64
	NullCount     int64
	MinValue      value.Value
	MaxValue      value.Value
	Histogram     *Histogram
	LastAnalyzed  time.Time
}

// Histogram represents the distribution of values at a path.
type Histogram struct {
	Type    HistogramType
	Buckets []HistogramBucket
}

// HistogramType represents the type of histogram.
type HistogramType int

const (
	// EquiHeightHistogram has buckets with equal numbers of values.
	EquiHeightHistogram HistogramType = iota
	// EquiWidthHistogram has buckets with equal value ranges.
	EquiWidthHistogram
)

// HistogramBucket represents a single bucket in a histogram. Bucket
// ranges are [LowerBound, UpperBound], with adjacent buckets meeting at
// their shared boundary.
type HistogramBucket struct {
	LowerBound    value.Value
	UpperBound    value.Value
	Frequency     int64
	DistinctCount int64
}

// TotalFrequency returns the number of values the histogram covers.
func (h *Histogram) TotalFrequency() int64 {
	var total int64
	for _, b := range h.Buckets {
		total += b.Frequency
	}
	return total
}
