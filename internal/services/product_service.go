package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"stylefinder/internal/catalog"
	"stylefinder/internal/logging"
	"stylefinder/internal/models"
	"stylefinder/internal/repositories"
)

// CatalogLoader produces a filtered catalog snapshot. *catalog.Adapter implements it.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// CatalogIndexer writes products into the vector index. *vectorstore.Indexer implements it.
type CatalogIndexer interface {
	Index(ctx context.Context, products []models.Product) (int, error)
	Prepare(products []models.Product) error
}

// ProductService handles business logic related to the product catalog.
type ProductService struct {
	repo     repositories.ProductRepository
	loader   CatalogLoader
	indexer  CatalogIndexer
	validate *validator.Validate

	mu   sync.Mutex
	snap *catalog.Snapshot
}

// NewProductService creates a new ProductService. indexer may be nil when
// the caller never indexes.
func NewProductService(repo repositories.ProductRepository, loader CatalogLoader, indexer CatalogIndexer) *ProductService {
	return &ProductService{
		repo:     repo,
		loader:   loader,
		indexer:  indexer,
		validate: models.NewValidator(),
	}
}

// Catalog returns the snapshot, loading it on first use.
func (s *ProductService) Catalog(ctx context.Context) (*catalog.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		return s.snap, nil
	}
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.snap = snap
	return snap, nil
}

// GetProductByID retrieves a single catalog product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	snap, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Products {
		if snap.Products[i].ProductID == id {
			p := snap.Products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product with ID %d not found", id)
}

// IndexCatalog embeds every catalog product into the vector index.
func (s *ProductService) IndexCatalog(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, errors.New("no indexer configured")
	}
	snap, err := s.Catalog(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.indexer.Index(ctx, snap.Products)
	if err != nil {
		return n, fmt.Errorf("failed to index catalog: %w", err)
	}
	logging.Info().Int("indexed", n).Msg("catalog indexed")
	return n, nil
}

// PrepareSearch readies the index for queries. An in-process index is
// filled from the catalog; a persistent one only needs the embedder fitted.
func (s *ProductService) PrepareSearch(ctx context.Context, fill bool) error {
	if fill {
		_, err := s.IndexCatalog(ctx)
		return err
	}
	if s.indexer == nil {
		return nil
	}
	snap, err := s.Catalog(ctx)
	if err != nil {
		return err
	}
	return s.indexer.Prepare(snap.Products)
}

// ImportProducts validates and stores products. It stops at the first
// invalid or rejected product and reports how many were stored before it.
func (s *ProductService) ImportProducts(ctx context.Context, products []models.Product) (int, error) {
	stored := 0
	for i := range products {
		p := &products[i]
		if p.Rating == 0 {
			p.Rating = models.DefaultRating
		}
		if _, err := models.ParseMainCategory(string(p.MainCategory)); err != nil {
			return stored, err
		}
		if _, err := models.ParseTargetAudience(string(p.TargetAudience)); err != nil {
			return stored, err
		}
		if err := s.validate.Struct(p); err != nil {
			return stored, fmt.Errorf("%w: product %d: %v", models.ErrInvalidRequest, p.ProductID, models.ValidationMessages(err))
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return stored, err
		}
		stored++
	}

	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()

	logging.Info().Int("imported", stored).Msg("products imported")
	return stored, nil
}
