package domain

import (
	"fmt"
	"strings"
)

// Category is one of the fixed interview question types.
type Category string

const (
	CategoryDesign      Category = "design"
	CategoryImprovement Category = "improvement"
	CategoryRCA         Category = "rca"
	CategoryGuesstimate Category = "guesstimate"
)

var categories = []Category{
	CategoryDesign,
	CategoryImprovement,
	CategoryRCA,
	CategoryGuesstimate,
}

// Categories returns the closed category set in canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory normalizes a stored question type into a Category.
// Older records used a leading capital ("Design"), newer ones lowercase;
// matching is case-insensitive so both spellings resolve the same way.
// Surrounding whitespace is not stripped.
func ParseCategory(s string) (Category, error) {
	normalized := Category(strings.ToLower(s))
	for _, c := range categories {
		if c == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the display spelling with a leading capital ("Rca", "Design").
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// AvgScoreField returns the flattened stats field name for the category.
func (c Category) AvgScoreField() string {
	return "avg_score_" + string(c)
}

func (c Category) String() string {
	return string(c)
}
