// Package memory is an in-process vector index using brute-force cosine distance.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"stylefinder/internal/embedding"
	"stylefinder/internal/vectorstore"
)

// Index keeps documents and their vectors in memory.
type Index struct {
	embedder embedding.Embedder

	mu      sync.RWMutex
	docs    []vectorstore.Document
	vectors [][]float64
	byID    map[string]int
}

// NewIndex creates an empty index that embeds with embedder.
func NewIndex(embedder embedding.Embedder) *Index {
	return &Index{embedder: embedder, byID: make(map[string]int)}
}

// Len returns the number of indexed documents.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Upsert embeds docs and stores them. A document whose ID is already
// indexed is replaced in place. A batch with mixed dimensions is rejected
// whole.
func (s *Index) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	vectors := make([][]float64, len(docs))
	for i, d := range docs {
		v, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return err
		}
		vectors[i] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dim := -1
	if len(s.vectors) > 0 {
		dim = len(s.vectors[0])
	}
	for _, v := range vectors {
		if dim < 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, d := range docs {
		if j, ok := s.byID[d.ID]; ok {
			s.docs[j] = d
			s.vectors[j] = vectors[i]
			continue
		}
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Query returns the limit closest documents to text, by ascending cosine
// distance. Equal distances keep indexing order.
func (s *Index) Query(ctx context.Context, text string, limit int, include vectorstore.Include) ([]vectorstore.Hit, error) {
	if limit <= 0 {
		return nil, vectorstore.ErrInvalidLimit
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dist := make([]float64, len(s.vectors))
	order := make([]int, len(s.vectors))
	for i, v := range s.vectors {
		dist[i] = math.Max(0, 1-cosine(q, v))
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })
	if limit > len(order) {
		limit = len(order)
	}

	hits := make([]vectorstore.Hit, 0, limit)
	for _, j := range order[:limit] {
		h := vectorstore.Hit{ID: s.docs[j].ID}
		if include.Documents {
			h.Document = s.docs[j].Text
		}
		if include.Metadatas {
			h.Metadata = s.docs[j].Metadata
		}
		if include.Distances {
			h.Distance = vectorstore.Distance(dist[j])
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// cosine is 0 when either vector is zero.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
