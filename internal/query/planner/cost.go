package planner

import (
	"math"

	"github.com/dshills/CorvusDB/internal/catalog"
	"github.com/dshills/CorvusDB/internal/query/ce"
)

// CostParams defines system-wide cost parameters for optimization
// decisions.
type CostParams struct {
	SequentialPageCost float64 // Cost of sequential page read (baseline: 1.0)
	RandomPageCost     float64 // Cost of random page read (typically 4.0)
	CPUTupleCost       float64 // Cost of processing one document (typically 0.01)
	CPUIndexTupleCost  float64 // Cost of processing one index entry (typically 0.005)
	CPUOperatorCost    float64 // Cost of one operator evaluation (typically 0.0025)
}

// DefaultCostParams returns standard cost parameters based on PostgreSQL
// defaults.
func DefaultCostParams() *CostParams {
	return &CostParams{
		SequentialPageCost: 1.0,
		RandomPageCost:     4.0,
		CPUTupleCost:       0.01,
		CPUIndexTupleCost:  0.005,
		CPUOperatorCost:    0.0025,
	}
}

// Cost represents the cost of a physical plan.
type Cost struct {
	StartupCost float64 // Cost before the first document
	TotalCost   float64 // Total execution cost
	CPUCost     float64
	IOCost      float64
}

// Add combines a node's own cost with its children's.
func (c Cost) Add(other Cost) Cost {
	return Cost{
		StartupCost: c.StartupCost + other.StartupCost,
		TotalCost:   c.TotalCost + other.TotalCost,
		CPUCost:     c.CPUCost + other.CPUCost,
		IOCost:      c.IOCost + other.IOCost,
	}
}

// costModel assigns costs to physical nodes from CE row estimates.
type costModel struct {
	params *CostParams
}

func newCostModel(params *CostParams) *costModel {
	if params == nil {
		params = DefaultCostParams()
	}
	return &costModel{params: params}
}

// Documents per data page and entries per index page, used to turn row
// counts into page counts.
const (
	docsPerPage         = 100.0
	indexEntriesPerPage = 200.0
	heapFetchClustering = 0.1
)

// collectionScanCost is the cost of reading every document sequentially.
func (m *costModel) collectionScanCost(collCard ce.Cardinality) Cost {
	pages := math.Max(1, float64(collCard)/docsPerPage)
	ioCost := pages * m.params.SequentialPageCost
	cpuCost := float64(collCard) * m.params.CPUTupleCost
	return Cost{
		TotalCost: ioCost + cpuCost,
		CPUCost:   cpuCost,
		IOCost:    ioCost,
	}
}

// indexScanCost is the cost of seeking the index and fetching the
// matching documents.
func (m *costModel) indexScanCost(collCard, matching ce.Cardinality, index *catalog.Index) Cost {
	rows := math.Max(0, float64(matching))

	// B+ tree descent to the first matching key.
	height := math.Max(1, math.Log(math.Max(2, float64(collCard)))/math.Log(indexEntriesPerPage))
	startup := height * m.params.RandomPageCost

	indexPages := math.Max(1, rows/indexEntriesPerPage)
	indexIO := indexPages * m.params.RandomPageCost

	// Document fetches benefit from clustering; not every row is a new
	// page.
	heapPages := math.Max(1, rows*heapFetchClustering)
	heapIO := heapPages * m.params.RandomPageCost

	cpu := rows * (m.params.CPUIndexTupleCost + m.params.CPUTupleCost)

	return Cost{
		StartupCost: startup,
		TotalCost:   startup + indexIO + heapIO + cpu,
		CPUCost:     cpu,
		IOCost:      indexIO + heapIO,
	}
}

// filterCost charges one operator evaluation per input document per
// predicate term.
func (m *costModel) filterCost(inputRows ce.Cardinality, terms int) Cost {
	if terms < 1 {
		terms = 1
	}
	cpu := float64(inputRows) * m.params.CPUOperatorCost * float64(terms)
	return Cost{TotalCost: cpu, CPUCost: cpu}
}

func (m *costModel) projectCost(inputRows ce.Cardinality) Cost {
	cpu := float64(inputRows) * m.params.CPUOperatorCost
	return Cost{TotalCost: cpu, CPUCost: cpu}
}

// sortCost is n log n comparisons; the whole input must arrive before the
// first output document, so the comparison cost is also startup cost.
func (m *costModel) sortCost(inputRows ce.Cardinality) Cost {
	n := math.Max(2, float64(inputRows))
	cpu := n * math.Log2(n) * m.params.CPUOperatorCost
	return Cost{
		StartupCost: cpu,
		TotalCost:   cpu + n*m.params.CPUTupleCost,
		CPUCost:     cpu + n*m.params.CPUTupleCost,
	}
}

func (m *costModel) limitSkipCost(outputRows ce.Cardinality) Cost {
	cpu := float64(outputRows) * m.params.CPUTupleCost
	return Cost{TotalCost: cpu, CPUCost: cpu}
}

func (m *costModel) mergeCost(outputRows ce.Cardinality) Cost {
	cpu := float64(outputRows) * m.params.CPUTupleCost
	return Cost{TotalCost: cpu, CPUCost: cpu}
}

func (m *costModel) unwindCost(outputRows ce.Cardinality) Cost {
	cpu := float64(outputRows) * m.params.CPUTupleCost
	return Cost{TotalCost: cpu, CPUCost: cpu}
}

// groupCost hashes every input document and emits groups only after the
// input is exhausted.
func (m *costModel) groupCost(inputRows ce.Cardinality) Cost {
	cpu := float64(inputRows) * m.params.CPUTupleCost * 2
	return Cost{
		StartupCost: cpu,
		TotalCost:   cpu,
		CPUCost:     cpu,
	}
}
