package models

import "github.com/shopspring/decimal"

// SearchCandidate is one product returned by a semantic search. Distance is
// the value reported by the term that first discovered the product.
type SearchCandidate struct {
	ProductID           int64           `json:"product_id"`
	Name                string          `json:"name"`
	Distance            float64         `json:"distance"`
	SourceTerm          string          `json:"source_term"`
	DisplayImageRef     string          `json:"img"`
	ExtractedGarmentRef string          `json:"extract_images"`
	MainCategory        string          `json:"main_category"`
	Subcategory         string          `json:"subcategory"`
	Seller              string          `json:"seller"`
	Price               decimal.Decimal `json:"price"`
	Discount            decimal.Decimal `json:"discount"`
}

// SearchRequest is the input of a semantic product search.
type SearchRequest struct {
	Query      string `json:"query" validate:"required"`
	NumResults int    `json:"num_results" validate:"gte=1"`
}
