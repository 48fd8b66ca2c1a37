package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/coder/hnsw"
)

// VectorHit is one nearest-neighbor result.
type VectorHit struct {
	// Code is the transaction code.
	Code string
	// Distance is the cosine distance to the query vector.
	Distance float32
	// Similarity is 1 - distance, clamped to [0,1].
	Similarity float64
}

// VectorIndex answers nearest-neighbor queries over catalog embeddings using
// a pure Go HNSW graph. Deprecated entries are never added.
type VectorIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	idMap   map[string]uint64 // code -> internal key
	keyMap  map[uint64]string // internal key -> code
	modules map[string]string // code -> module, for category filtering
	nextKey uint64
}

// NewVectorIndex creates an empty index for vectors of the given dimension.
func NewVectorIndex(dimensions int) *VectorIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &VectorIndex{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
		modules:    make(map[string]string),
	}
}

// Add inserts entry embeddings. Existing codes are replaced via lazy deletion
// (the old node stays in the graph but no longer resolves to a code).
func (v *VectorIndex) Add(_ context.Context, entries []*Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors length mismatch: %d vs %d", len(entries), len(vectors))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for i, e := range entries {
		if e.Deprecated {
			continue
		}
		vec := vectors[i]
		if len(vec) != v.dimensions {
			return fmt.Errorf("vector for %q has %d dimensions, index expects %d",
				e.Code, len(vec), v.dimensions)
		}

		code := strings.ToUpper(e.Code)
		if existingKey, exists := v.idMap[code]; exists {
			delete(v.keyMap, existingKey)
			delete(v.idMap, code)
		}

		key := v.nextKey
		v.nextKey++

		normalized := normalizeVector(vec)
		v.graph.Add(hnsw.MakeNode(key, normalized))
		v.idMap[code] = key
		v.keyMap[key] = code
		v.modules[code] = e.Module
	}
	return nil
}

// Search returns the k nearest entries by ascending distance, with
// similarity = 1 - distance clamped to [0,1]. module filters results when
// non-empty.
func (v *VectorIndex) Search(_ context.Context, vector []float32, k int, module string) ([]VectorHit, error) {
	if len(vector) != v.dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, index expects %d",
			len(vector), v.dimensions)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.graph.Len() == 0 {
		return []VectorHit{}, nil
	}

	query := normalizeVector(vector)

	// Over-fetch when filtering so the filter does not starve results.
	fetch := k
	if module != "" {
		fetch = k * 4
	}

	nodes := v.graph.Search(query, fetch)

	hits := make([]VectorHit, 0, k)
	for _, node := range nodes {
		code, exists := v.keyMap[node.Key]
		if !exists {
			continue // lazily deleted
		}
		if module != "" && !strings.EqualFold(v.modules[code], module) {
			continue
		}

		distance := v.graph.Distance(query, node.Value)
		similarity := 1.0 - float64(distance)
		if similarity < 0 {
			similarity = 0
		}
		if similarity > 1 {
			similarity = 1
		}

		hits = append(hits, VectorHit{
			Code:       code,
			Distance:   distance,
			Similarity: similarity,
		})
		if len(hits) >= k {
			break
		}
	}
	return hits, nil
}

// Count returns the number of live vectors.
func (v *VectorIndex) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.idMap)
}

// normalizeVector returns a unit-length copy for cosine distance.
func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
