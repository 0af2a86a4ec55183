// Package catalog turns raw catalog rows into typed, available products.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"stylefinder/internal/logging"
	"stylefinder/internal/models"
	"stylefinder/internal/repositories"
)

// RequiredColumns are the columns without which no product can be built.
var RequiredColumns = []string{
	models.ColumnProductID,
	models.ColumnName,
	models.ColumnMainCategory,
	models.ColumnTargetAudience,
	models.ColumnExtractImages,
}

// Snapshot is one consistent read of the catalog.
type Snapshot struct {
	Products []models.Product
	columns  map[string]struct{}
}

// NewSnapshot builds a snapshot from already typed products. columns lists
// the catalog columns the products were read from.
func NewSnapshot(products []models.Product, columns []string) *Snapshot {
	s := &Snapshot{Products: products, columns: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		s.columns[c] = struct{}{}
	}
	return s
}

// HasColumn reports whether the snapshot was read from a catalog carrying column.
func (s *Snapshot) HasColumn(column string) bool {
	_, ok := s.columns[column]
	return ok
}

// MissingColumns returns the columns of want the snapshot lacks, in order.
func (s *Snapshot) MissingColumns(want ...string) []string {
	var missing []string
	for _, c := range want {
		if !s.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Adapter reads the catalog and filters it down to usable products.
type Adapter struct {
	repo     repositories.ProductRepository
	assets   AssetChecker
	validate *validator.Validate
}

// NewAdapter creates a new Adapter. A nil assets checker disables the
// availability filter.
func NewAdapter(repo repositories.ProductRepository, assets AssetChecker) *Adapter {
	return &Adapter{
		repo:     repo,
		assets:   assets,
		validate: models.NewValidator(),
	}
}

// Load reads every catalog row and keeps the ones that form a valid,
// available product. Rows keep their catalog order; for a duplicated
// product_id the first row wins.
func (a *Adapter) Load(ctx context.Context) (*Snapshot, error) {
	columns, err := a.repo.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog columns: %w", err)
	}
	snap := NewSnapshot(nil, columns)
	if missing := snap.MissingColumns(RequiredColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, strings.Join(missing, ", "))
	}

	rows, err := a.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	seen := make(map[int64]struct{}, len(rows))
	var dropped, unavailable, duplicates int
	for i, row := range rows {
		p, err := a.convert(row, snap)
		if err != nil {
			dropped++
			logging.Debug().Int("row", i).Err(err).Msg("dropping catalog row")
			continue
		}
		if _, ok := seen[p.ProductID]; ok {
			duplicates++
			logging.Warn().Int64("product_id", p.ProductID).Msg("duplicate product_id in catalog, keeping first row")
			continue
		}
		if a.assets != nil && !a.assets.Exists(p.ExtractedGarmentRef) {
			unavailable++
			continue
		}
		seen[p.ProductID] = struct{}{}
		snap.Products = append(snap.Products, p)
	}

	logging.Info().
		Int("rows", len(rows)).
		Int("products", len(snap.Products)).
		Int("dropped", dropped).
		Int("unavailable", unavailable).
		Int("duplicates", duplicates).
		Msg("catalog loaded")
	return snap, nil
}

// convert types one row. A column the catalog has but the row leaves NULL
// rejects the row; a column the catalog lacks yields the zero value.
func (a *Adapter) convert(row repositories.ProductRow, snap *Snapshot) (models.Product, error) {
	var p models.Product
	has := snap.HasColumn

	null := func(column string, valid bool) error {
		if has(column) && !valid {
			return fmt.Errorf("%s is null", column)
		}
		return nil
	}
	for _, check := range []struct {
		column string
		valid  bool
	}{
		{models.ColumnProductID, row.ProductID.Valid},
		{models.ColumnName, row.Name.Valid},
		{models.ColumnMainCategory, row.MainCategory.Valid},
		{models.ColumnSubcategory, row.Subcategory.Valid},
		{models.ColumnTargetAudience, row.TargetAudience.Valid},
		{models.ColumnSeller, row.Seller.Valid},
		{models.ColumnPrice, row.Price.Valid},
		{models.ColumnDiscount, row.Discount.Valid},
		{models.ColumnQuantity, row.Quantity.Valid},
		{models.ColumnDate, row.Date.Valid},
		{models.ColumnImg, row.Img.Valid},
		{models.ColumnExtractImages, row.ExtractImages.Valid},
	} {
		if err := null(check.column, check.valid); err != nil {
			return p, err
		}
	}

	category, err := models.ParseMainCategory(nullString(row.MainCategory))
	if err != nil {
		return p, err
	}
	audience, err := models.ParseTargetAudience(nullString(row.TargetAudience))
	if err != nil {
		return p, err
	}

	p = models.Product{
		Name:                strings.TrimSpace(nullString(row.Name)),
		MainCategory:        category,
		Subcategory:         nullString(row.Subcategory),
		TargetAudience:      audience,
		Seller:              nullString(row.Seller),
		Rating:              models.DefaultRating,
		DisplayImageRef:     nullString(row.Img),
		ExtractedGarmentRef: nullString(row.ExtractImages),
	}
	if row.ProductID.Valid {
		p.ProductID = row.ProductID.Int64
	}
	if row.Price.Valid {
		p.Price = row.Price.Decimal
	}
	if row.Discount.Valid {
		p.Discount = row.Discount.Decimal
	}
	if row.Quantity.Valid {
		p.Quantity = int(row.Quantity.Int64)
	}
	if row.Date.Valid {
		p.Date = row.Date.Time
	}
	if row.Rating.Valid {
		p.Rating = row.Rating.Float64
	}

	if err := a.validate.Struct(p); err != nil && !onlyMissingOptional(err, snap) {
		return p, err
	}
	if p.Price.IsNegative() {
		return p, fmt.Errorf("negative price %s", p.Price)
	}
	if p.Discount.IsNegative() || p.Discount.GreaterThan(maxDiscount) {
		return p, fmt.Errorf("discount %s out of range", p.Discount)
	}
	return p, nil
}

// onlyMissingOptional reports whether every validation failure is a
// `required` tag on a column the catalog does not carry at all.
func onlyMissingOptional(err error, snap *Snapshot) bool {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, e := range errs {
		column, known := fieldColumns[e.StructField()]
		if !known || e.Tag() != "required" || snap.HasColumn(column) {
			return false
		}
	}
	return true
}

// nullString reads s, ignoring whatever a NULL leaves behind.
func nullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

var maxDiscount = decimal.NewFromInt(100)

var fieldColumns = map[string]string{
	"Subcategory": models.ColumnSubcategory,
	"Seller":      models.ColumnSeller,
	"Date":        models.ColumnDate,
}
