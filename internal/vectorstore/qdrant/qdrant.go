// Package qdrant is a minimal REST client to a Qdrant collection.
// It assumes cosine distance and creates the collection on first upsert.
package qdrant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"stylefinder/internal/embedding"
	"stylefinder/internal/vectorstore"
)

const (
	payloadDocument = "document"
	payloadDocID    = "doc_id"
)

// Config holds the collection's connection details.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index stores documents as Qdrant points. Point IDs are derived from the
// document ID, so re-indexing overwrites instead of duplicating.
type Index struct {
	url        string
	apiKey     string
	collection string
	embedder   embedding.Embedder
	client     *http.Client

	initMu sync.Mutex
	ready  bool
}

// NewIndex creates an Index that embeds text with embedder.
func NewIndex(cfg Config, embedder embedding.Embedder) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection for vectors of the given dimension. Qdrant
// answers 200 when an identical collection already exists.
func (s *Index) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

// Upsert embeds docs and writes them as points.
func (s *Index) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]map[string]any, len(docs))
	for i, d := range docs {
		v, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return err
		}
		if err := s.ensureCollection(ctx, len(v)); err != nil {
			return err
		}
		payload := make(map[string]any, len(d.Metadata)+2)
		for k, val := range d.Metadata {
			payload[k] = val
		}
		payload[payloadDocument] = d.Text
		payload[payloadDocID] = d.ID
		points[i] = map[string]any{
			"id":      PointID(d.ID),
			"vector":  v,
			"payload": payload,
		}
	}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Query embeds text and searches the collection. Qdrant reports cosine
// similarity, so the distance is 1 - score.
func (s *Index) Query(ctx context.Context, text string, limit int, include vectorstore.Include) ([]vectorstore.Hit, error) {
	if limit <= 0 {
		return nil, vectorstore.ErrInvalidLimit
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":       v,
		"limit":        limit,
		"with_payload": true,
	}
	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		h := vectorstore.Hit{}
		if id, ok := r.Payload[payloadDocID].(string); ok {
			h.ID = id
		}
		if include.Documents {
			if doc, ok := r.Payload[payloadDocument].(string); ok {
				h.Document = doc
			}
		}
		if include.Metadatas {
			meta := make(map[string]any, len(r.Payload))
			for k, val := range r.Payload {
				if k != payloadDocument && k != payloadDocID {
					meta[k] = val
				}
			}
			h.Metadata = meta
		}
		if include.Distances {
			h.Distance = vectorstore.Distance(1 - r.Score)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// PointID maps a document ID onto the UUID Qdrant requires for string keys.
func PointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

func (s *Index) ensureCollection(ctx context.Context, dimension int) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.Init(ctx, dimension); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *Index) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Index) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
