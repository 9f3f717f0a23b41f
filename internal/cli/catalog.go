package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/errors"
	"github.com/dshills/CorvusDB/internal/query/paths"
	"github.com/dshills/CorvusDB/internal/query/value"
	"github.com/dshills/CorvusDB/internal/util/timeutil"
)

// catalogFile is the YAML shape of a catalog description.
type catalogFile struct {
	Collections []collectionSpec `yaml:"collections"`
}

type collectionSpec struct {
	Name         string         `yaml:"name"`
	DocCount     int64          `yaml:"doc_count"`
	AvgDocSize   int            `yaml:"avg_doc_size"`
	LastAnalyzed string         `yaml:"last_analyzed"`
	Indexes      []indexSpec    `yaml:"indexes"`
	PathStats    []pathStatSpec `yaml:"path_stats"`
}

type indexSpec struct {
	Name     string         `yaml:"name"`
	Keys     []indexKeySpec `yaml:"keys"`
	Multikey bool           `yaml:"multikey"`
	Unique   bool           `yaml:"unique"`
}

type indexKeySpec struct {
	Path  string `yaml:"path"`
	Order string `yaml:"order"`
}

type pathStatSpec struct {
	Path          string       `yaml:"path"`
	DocCount      int64        `yaml:"doc_count"`
	DistinctCount int64        `yaml:"distinct_count"`
	NullCount     int64        `yaml:"null_count"`
	Buckets       []bucketSpec `yaml:"buckets"`
}

type bucketSpec struct {
	Lower     any   `yaml:"lower"`
	Upper     any   `yaml:"upper"`
	Frequency int64 `yaml:"frequency"`
	Distinct  int64 `yaml:"distinct"`
}

// LoadCatalog reads a YAML catalog description into an in-memory catalog.
func LoadCatalog(path string) (*catalog.MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	cat := catalog.NewMemoryCatalog()
	for _, coll := range file.Collections {
		stats := catalog.CollectionStats{
			DocCount:   coll.DocCount,
			AvgDocSize: coll.AvgDocSize,
		}
		if coll.LastAnalyzed != "" {
			analyzed, err := timeutil.ParseTimestamp(coll.LastAnalyzed)
			if err != nil {
				return nil, errors.InvalidParameterf("collection %s: %v", coll.Name, err)
			}
			stats.LastAnalyzed = analyzed
		}
		if _, err := cat.CreateCollection(coll.Name, stats); err != nil {
			return nil, err
		}
		for _, idx := range coll.Indexes {
			index, err := buildIndex(coll.Name, idx)
			if err != nil {
				return nil, err
			}
			if _, err := cat.CreateIndex(index); err != nil {
				return nil, err
			}
		}
		for _, stat := range coll.PathStats {
			p, err := paths.Parse(stat.Path)
			if err != nil {
				return nil, fmt.Errorf("collection %s: %w", coll.Name, err)
			}
			ps, err := buildPathStats(stat)
			if err != nil {
				return nil, fmt.Errorf("collection %s, path %s: %w", coll.Name, stat.Path, err)
			}
			if err := cat.SetPathStats(coll.Name, p, ps); err != nil {
				return nil, err
			}
		}
	}
	return cat, nil
}

func buildIndex(collection string, spec indexSpec) (*catalog.Index, error) {
	keys := make([]catalog.IndexKey, len(spec.Keys))
	for i, k := range spec.Keys {
		p, err := paths.Parse(k.Path)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", spec.Name, err)
		}
		order := catalog.Ascending
		switch k.Order {
		case "", "asc":
		case "desc":
			order = catalog.Descending
		default:
			return nil, fmt.Errorf("index %s: unknown sort order %q", spec.Name, k.Order)
		}
		keys[i] = catalog.IndexKey{Path: p, Order: order}
	}
	return &catalog.Index{
		Name:       spec.Name,
		Collection: collection,
		KeyPattern: keys,
		Multikey:   spec.Multikey,
		Unique:     spec.Unique,
	}, nil
}

func buildPathStats(spec pathStatSpec) (*catalog.PathStats, error) {
	ps := &catalog.PathStats{
		DocCount:      spec.DocCount,
		DistinctCount: spec.DistinctCount,
		NullCount:     spec.NullCount,
	}
	if len(spec.Buckets) == 0 {
		return ps, nil
	}
	buckets := make([]catalog.HistogramBucket, len(spec.Buckets))
	for i, b := range spec.Buckets {
		lower, err := yamlValue(b.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := yamlValue(b.Upper)
		if err != nil {
			return nil, err
		}
		buckets[i] = catalog.HistogramBucket{
			LowerBound:    lower,
			UpperBound:    upper,
			Frequency:     b.Frequency,
			DistinctCount: b.Distinct,
		}
	}
	ps.Histogram = &catalog.Histogram{
		Type:    catalog.EquiHeightHistogram,
		Buckets: buckets,
	}
	return ps, nil
}

// yamlValue converts a scalar from the YAML decoder into a typed value.
func yamlValue(raw any) (value.Value, error) {
	switch v := raw.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.NewBool(v), nil
	case int:
		return value.NewInt(int64(v)), nil
	case int64:
		return value.NewInt(v), nil
	case float64:
		return value.NewFloat(v), nil
	case string:
		return value.NewString(v), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported literal %v (%T)", raw, raw)
	}
}
