package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stylefinder/internal/logging"
	"stylefinder/internal/models"
	"stylefinder/internal/vectorstore"
)

const (
	// MaxTerms is the number of expanded terms actually searched.
	MaxTerms = 5
	// DefaultNumResults applies when a request leaves num_results unset.
	DefaultNumResults = 20
	// missingDistance is recorded for hits reported without a distance.
	missingDistance = 1.0
)

// TermExpander turns a query into search phrases. *expander.Expander implements it.
type TermExpander interface {
	Expand(ctx context.Context, query string) []string
}

// PhraseSearcher runs one nearest-neighbor search. *vectorstore.Client implements it.
type PhraseSearcher interface {
	Search(ctx context.Context, phrase string, n int, include vectorstore.Include) ([]vectorstore.Hit, error)
}

// SearchOptions tunes the SearchService. Zero values select the defaults.
type SearchOptions struct {
	DefaultResults int
	Concurrency    int
}

// SearchService answers free-text product searches by fanning the query out
// over its expanded terms and merging the per-term results.
type SearchService struct {
	expander       TermExpander
	searcher       PhraseSearcher
	publisher      EventPublisher
	validate       *validator.Validate
	defaultResults int
	concurrency    int
}

// NewSearchService creates a new SearchService. publisher may be nil.
func NewSearchService(expander TermExpander, searcher PhraseSearcher, publisher EventPublisher, opts SearchOptions) *SearchService {
	if opts.DefaultResults <= 0 {
		opts.DefaultResults = DefaultNumResults
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = MaxTerms
	}
	return &SearchService{
		expander:       expander,
		searcher:       searcher,
		publisher:      publisher,
		validate:       models.NewValidator(),
		defaultResults: opts.DefaultResults,
		concurrency:    opts.Concurrency,
	}
}

type termResult struct {
	hits   []vectorstore.Hit
	failed bool
}

// Search returns at most req.NumResults products ordered by ascending
// distance. A product found by several terms keeps the distance of the
// earliest term, in generation order, that returned it; it is not the
// smallest distance across terms. Failed terms are skipped, so the result
// is empty rather than an error when every term fails.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) ([]models.SearchCandidate, error) {
	if req.NumResults == 0 {
		req.NumResults = s.defaultResults
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidRequest, models.ValidationMessages(err))
	}

	terms := searchTerms(s.expander.Expand(ctx, req.Query))
	results := make([]termResult, len(terms))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, term := range terms {
		g.Go(func() error {
			hits, err := s.searcher.Search(ctx, term, req.NumResults, vectorstore.IncludeAll)
			if err != nil {
				logging.Warn().Err(err).Str("term", term).Msg("term search failed, skipping")
				results[i].failed = true
				return nil
			}
			results[i].hits = hits
			return nil
		})
	}
	_ = g.Wait()

	merged, failed := merge(terms, results)
	sort.SliceStable(merged, func(a, b int) bool { return merged[a].Distance < merged[b].Distance })
	if len(merged) > req.NumResults {
		merged = merged[:req.NumResults]
	}

	logging.Debug().
		Str("query", req.Query).
		Int("terms", len(terms)).
		Int("failed_terms", failed).
		Int("results", len(merged)).
		Msg("search merged")

	publish(s.publisher, "search.performed", func(p EventPublisher) error {
		return p.PublishSearchPerformed(models.SearchEvent{
			EventID:     uuid.New().String(),
			Query:       req.Query,
			Terms:       terms,
			FailedTerms: failed,
			ResultCount: len(merged),
			OccurredAt:  time.Now().UTC(),
		})
	})
	return merged, nil
}

// searchTerms trims and dedupes phrases, keeps their order and caps them at MaxTerms.
func searchTerms(phrases []string) []string {
	terms := make([]string, 0, MaxTerms)
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		terms = append(terms, p)
		if len(terms) == MaxTerms {
			break
		}
	}
	return terms
}

// merge walks terms in generation order and keeps the first hit per product.
func merge(terms []string, results []termResult) ([]models.SearchCandidate, int) {
	merged := make([]models.SearchCandidate, 0)
	seen := make(map[int64]struct{})
	failed := 0
	for i, term := range terms {
		if results[i].failed {
			failed++
			continue
		}
		for _, hit := range results[i].hits {
			id, ok := productID(hit.Metadata[vectorstore.MetaProductID])
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, candidateFromHit(id, term, hit))
		}
	}
	return merged, failed
}

func candidateFromHit(id int64, term string, hit vectorstore.Hit) models.SearchCandidate {
	meta := hit.Metadata
	c := models.SearchCandidate{
		ProductID:           id,
		Name:                metaString(meta, vectorstore.MetaName),
		Distance:            missingDistance,
		SourceTerm:          term,
		DisplayImageRef:     metaString(meta, vectorstore.MetaImg),
		ExtractedGarmentRef: metaString(meta, vectorstore.MetaExtractImages),
		MainCategory:        metaString(meta, vectorstore.MetaMainCategory),
		Subcategory:         metaString(meta, vectorstore.MetaSubcategory),
		Seller:              metaString(meta, vectorstore.MetaSeller),
		Price:               metaDecimal(meta, vectorstore.MetaPrice),
		Discount:            metaDecimal(meta, vectorstore.MetaDiscount),
	}
	if c.Name == "" {
		c.Name = hit.Document
	}
	if hit.Distance != nil {
		c.Distance = *hit.Distance
	}
	return c
}

// productID accepts the numeric shapes metadata takes after a JSON round
// trip. Zero, negative, fractional and unparsable identifiers are rejected.
func productID(v any) (int64, bool) {
	var id int64
	switch t := v.(type) {
	case int64:
		id = t
	case int:
		id = int64(t)
	case int32:
		id = int64(t)
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt64 {
			return 0, false
		}
		id = int64(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}

func metaString(meta map[string]any, key string) string {
	switch t := meta[key].(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func metaDecimal(meta map[string]any, key string) decimal.Decimal {
	switch t := meta[key].(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case int64:
		return decimal.NewFromInt(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(t)
		if err == nil {
			return d
		}
	case decimal.Decimal:
		return t
	}
	return decimal.Zero
}
