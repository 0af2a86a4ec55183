package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stylefinder/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all catalog rows. Columns missing from the table are left NULL.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]ProductRow, error) {
	columns, err := r.Columns(ctx)
	if err != nil {
		return nil, err
	}
	// rowid keeps sqlite rows in insertion order; other stores fall back to the key.
	order := models.ColumnProductID
	if r.db.Dialector.Name() == "sqlite" {
		order = "rowid"
	}
	var rows []ProductRow
	err = r.db.WithContext(ctx).
		Table(models.Product{}.TableName()).
		Select(columns).
		Order(order).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return rows, nil
}

// Columns lists the known product columns present on the products table.
func (r *GORMProductRepository) Columns(ctx context.Context) ([]string, error) {
	migrator := r.db.WithContext(ctx).Migrator()
	table := models.Product{}.TableName()
	if !migrator.HasTable(table) {
		return nil, fmt.Errorf("table %s not found", table)
	}
	var present []string
	for _, column := range allColumns {
		if migrator.HasColumn(table, column) {
			present = append(present, column)
		}
	}
	return present, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product %d: %w", product.ProductID, err)
	}
	return nil
}

// Migrate creates the products table, or adds the columns it lacks.
func (r *GORMProductRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate products: %w", err)
	}
	return nil
}

var allColumns = []string{
	models.ColumnProductID,
	models.ColumnName,
	models.ColumnMainCategory,
	models.ColumnSubcategory,
	models.ColumnTargetAudience,
	models.ColumnSeller,
	models.ColumnPrice,
	models.ColumnDiscount,
	models.ColumnQuantity,
	models.ColumnDate,
	models.ColumnRating,
	models.ColumnImg,
	models.ColumnExtractImages,
}
