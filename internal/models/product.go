package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRating is assigned to catalog rows that carry no rating.
const DefaultRating = 4.2

// Product represents a catalog entry of the fashion store.
type Product struct {
	ProductID           int64           `json:"product_id" gorm:"primaryKey;column:product_id;autoIncrement:false" validate:"required,gt=0"`
	Name                string          `json:"name" gorm:"column:name" validate:"required,max=500"`
	MainCategory        MainCategory    `json:"main_category" gorm:"column:main_category;type:varchar(32)" validate:"required"`
	Subcategory         string          `json:"subcategory" gorm:"column:subcategory" validate:"required"`
	TargetAudience      TargetAudience  `json:"target_audience" gorm:"column:target_audience;type:varchar(16)" validate:"required"`
	Seller              string          `json:"seller" gorm:"column:seller" validate:"required"`
	Price               decimal.Decimal `json:"price" gorm:"column:price;type:decimal(10,2)"`
	Discount            decimal.Decimal `json:"discount" gorm:"column:discount;type:decimal(5,2)"`
	Quantity            int             `json:"quantity" gorm:"column:quantity" validate:"gte=0"`
	Date                time.Time       `json:"date" gorm:"column:date" validate:"required"`
	Rating              float64         `json:"rating" gorm:"column:rating" validate:"gte=0,lte=5"`
	DisplayImageRef     string          `json:"img" gorm:"column:img"`
	ExtractedGarmentRef string          `json:"extract_images" gorm:"column:extract_images"`
}

// TableName pins the table the catalog is stored in.
func (Product) TableName() string { return "products" }

// Column names of the products table.
const (
	ColumnProductID      = "product_id"
	ColumnName           = "name"
	ColumnMainCategory   = "main_category"
	ColumnSubcategory    = "subcategory"
	ColumnTargetAudience = "target_audience"
	ColumnSeller         = "seller"
	ColumnPrice          = "price"
	ColumnDiscount       = "discount"
	ColumnQuantity       = "quantity"
	ColumnDate           = "date"
	ColumnRating         = "rating"
	ColumnImg            = "img"
	ColumnExtractImages  = "extract_images"
)
