package repositories

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"stylefinder/internal/models"
)

// ProductRow is one raw catalog row. Every column may be NULL; turning rows
// into typed products is the catalog adapter's job.
type ProductRow struct {
	ProductID      sql.NullInt64       `gorm:"column:product_id"`
	Name           sql.NullString      `gorm:"column:name"`
	MainCategory   sql.NullString      `gorm:"column:main_category"`
	Subcategory    sql.NullString      `gorm:"column:subcategory"`
	TargetAudience sql.NullString      `gorm:"column:target_audience"`
	Seller         sql.NullString      `gorm:"column:seller"`
	Price          decimal.NullDecimal `gorm:"column:price"`
	Discount       decimal.NullDecimal `gorm:"column:discount"`
	Quantity       sql.NullInt64       `gorm:"column:quantity"`
	Date           sql.NullTime        `gorm:"column:date"`
	Rating         sql.NullFloat64     `gorm:"column:rating"`
	Img            sql.NullString      `gorm:"column:img"`
	ExtractImages  sql.NullString      `gorm:"column:extract_images"`
}

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	// GetAll returns every row of the catalog in storage order.
	GetAll(ctx context.Context) ([]ProductRow, error)
	// Columns lists the columns the catalog table actually has.
	Columns(ctx context.Context) ([]string, error)
	Create(ctx context.Context, product *models.Product) error
}

// RowFromProduct converts a typed product into a fully populated row.
func RowFromProduct(p models.Product) ProductRow {
	return ProductRow{
		ProductID:      sql.NullInt64{Int64: p.ProductID, Valid: true},
		Name:           sql.NullString{String: p.Name, Valid: true},
		MainCategory:   sql.NullString{String: string(p.MainCategory), Valid: true},
		Subcategory:    sql.NullString{String: p.Subcategory, Valid: true},
		TargetAudience: sql.NullString{String: string(p.TargetAudience), Valid: true},
		Seller:         sql.NullString{String: p.Seller, Valid: true},
		Price:          decimal.NullDecimal{Decimal: p.Price, Valid: true},
		Discount:       decimal.NullDecimal{Decimal: p.Discount, Valid: true},
		Quantity:       sql.NullInt64{Int64: int64(p.Quantity), Valid: true},
		Date:           sql.NullTime{Time: p.Date, Valid: true},
		Rating:         sql.NullFloat64{Float64: p.Rating, Valid: p.Rating != 0},
		Img:            sql.NullString{String: p.DisplayImageRef, Valid: p.DisplayImageRef != ""},
		ExtractImages:  sql.NullString{String: p.ExtractedGarmentRef, Valid: p.ExtractedGarmentRef != ""},
	}
}
