package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendRecord aggregates the sales of one (category, audience, name) group
// inside the recent window and its prior-year counterpart.
type TrendRecord struct {
	MainCategory        MainCategory   `json:"main_category"`
	TargetAudience      TargetAudience `json:"target_audience"`
	Name                string         `json:"name"`
	QuantitySum         int            `json:"quantity_sum"`
	QuantitySumLastYear int            `json:"quantity_sum_last_year"`
	LastQuantity        int            `json:"last_month_quantity"`
	LastDate            time.Time      `json:"last_month_date"`
	HasSpike            bool           `json:"has_spike"`
	Weight              int            `json:"weight"`
	WeightedSpike       int            `json:"weighted_spike"`
}

// TrendProduct is the display projection of a ranked product.
type TrendProduct struct {
	Name                string          `json:"name"`
	ProductID           int64           `json:"product_id"`
	Price               decimal.Decimal `json:"price"`
	MainCategory        MainCategory    `json:"main_category"`
	Subcategory         string          `json:"subcategory"`
	DisplayImageRef     string          `json:"img"`
	ExtractedGarmentRef string          `json:"extract_images"`
	Seller              string          `json:"seller,omitempty"`
	Discount            decimal.Decimal `json:"discount"`
	Trend               *TrendRecord    `json:"trend,omitempty"`
}

// TrendResult holds both ranked lists for one (category, audience) pair.
type TrendResult struct {
	SeasonalTopProducts  []TrendProduct `json:"seasonal_top_products"`
	FashionTrendProducts []TrendProduct `json:"fashion_trend_products"`
}

// TrendRequest selects the group a trend ranking is computed for.
type TrendRequest struct {
	MainCategory   string `json:"main_category" validate:"required,main_category"`
	TargetAudience string `json:"target_audience" validate:"required,target_audience"`
}

// NewTrendProduct projects a catalog row onto its display fields.
func NewTrendProduct(p Product) TrendProduct {
	return TrendProduct{
		Name:                p.Name,
		ProductID:           p.ProductID,
		Price:               p.Price,
		MainCategory:        p.MainCategory,
		Subcategory:         p.Subcategory,
		DisplayImageRef:     p.DisplayImageRef,
		ExtractedGarmentRef: p.ExtractedGarmentRef,
		Seller:              p.Seller,
		Discount:            p.Discount,
	}
}
