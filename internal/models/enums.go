package models

import "strings"

// MainCategory is the top-level garment classification of a product.
type MainCategory string

const (
	TopWear     MainCategory = "Top Wear"
	BottomWear  MainCategory = "Bottom Wear"
	WesternWear MainCategory = "Western Wear"
	SportsWear  MainCategory = "Sports Wear"
)

// MainCategories lists every valid main category in catalog order.
var MainCategories = []MainCategory{TopWear, BottomWear, WesternWear, SportsWear}

// Valid reports whether c is one of the known main categories.
func (c MainCategory) Valid() bool {
	for _, known := range MainCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c MainCategory) String() string { return string(c) }

// ParseMainCategory converts s into a MainCategory. Surrounding whitespace is
// ignored, the comparison itself is exact.
func ParseMainCategory(s string) (MainCategory, error) {
	c := MainCategory(strings.TrimSpace(s))
	if !c.Valid() {
		return "", &ValidationError{Field: ColumnMainCategory, Value: s, Reason: "Invalid main_category"}
	}
	return c, nil
}

// TargetAudience is the wearer segment a product is intended for.
type TargetAudience string

const (
	Male   TargetAudience = "Male"
	Female TargetAudience = "Female"
	Unisex TargetAudience = "Unisex"
)

// TargetAudiences lists every valid audience.
var TargetAudiences = []TargetAudience{Male, Female, Unisex}

// Valid reports whether a is one of the known audiences.
func (a TargetAudience) Valid() bool {
	for _, known := range TargetAudiences {
		if a == known {
			return true
		}
	}
	return false
}

func (a TargetAudience) String() string { return string(a) }

// ParseTargetAudience converts s into a TargetAudience.
func ParseTargetAudience(s string) (TargetAudience, error) {
	a := TargetAudience(strings.TrimSpace(s))
	if !a.Valid() {
		return "", &ValidationError{Field: ColumnTargetAudience, Value: s, Reason: "Invalid target_audience"}
	}
	return a, nil
}
