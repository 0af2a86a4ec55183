package repositories

import (
	"context"
	"fmt"
	"sync"

	"stylefinder/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Rows keep their insertion order.
type MockProductRepository struct {
	rows    []ProductRow
	ids     map[int64]struct{}
	columns []string
	mu      sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository
// exposing every catalog column.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		ids:     make(map[int64]struct{}),
		columns: append([]string(nil), allColumns...),
	}
}

// WithoutColumns hides the given columns, simulating a catalog whose table
// lacks them. Their values read back as NULL.
func (r *MockProductRepository) WithoutColumns(columns ...string) *MockProductRepository {
	r.mu.Lock()
	defer r.mu.Unlock()

	hidden := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		hidden[c] = struct{}{}
	}
	kept := r.columns[:0]
	for _, c := range r.columns {
		if _, ok := hidden[c]; !ok {
			kept = append(kept, c)
		}
	}
	r.columns = kept
	return r
}

// AddRow appends a raw row, allowing NULL columns and duplicate keys.
func (r *MockProductRepository) AddRow(row ProductRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
}

// GetAll returns all rows in insertion order.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]ProductRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	present := make(map[string]bool, len(r.columns))
	for _, c := range r.columns {
		present[c] = true
	}
	rows := make([]ProductRow, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, maskRow(row, present))
	}
	return rows, nil
}

// Columns lists the visible columns.
func (r *MockProductRepository) Columns(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.columns...), nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[product.ProductID]; ok {
		return fmt.Errorf("product with ID %d already exists", product.ProductID)
	}
	r.ids[product.ProductID] = struct{}{}
	r.rows = append(r.rows, RowFromProduct(*product))
	return nil
}

func maskRow(row ProductRow, present map[string]bool) ProductRow {
	if !present[models.ColumnName] {
		row.Name.Valid = false
	}
	if !present[models.ColumnMainCategory] {
		row.MainCategory.Valid = false
	}
	if !present[models.ColumnSubcategory] {
		row.Subcategory.Valid = false
	}
	if !present[models.ColumnTargetAudience] {
		row.TargetAudience.Valid = false
	}
	if !present[models.ColumnSeller] {
		row.Seller.Valid = false
	}
	if !present[models.ColumnPrice] {
		row.Price.Valid = false
	}
	if !present[models.ColumnDiscount] {
		row.Discount.Valid = false
	}
	if !present[models.ColumnQuantity] {
		row.Quantity.Valid = false
	}
	if !present[models.ColumnDate] {
		row.Date.Valid = false
	}
	if !present[models.ColumnRating] {
		row.Rating.Valid = false
	}
	if !present[models.ColumnImg] {
		row.Img.Valid = false
	}
	if !present[models.ColumnExtractImages] {
		row.ExtractImages.Valid = false
	}
	return row
}
