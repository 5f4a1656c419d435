package domain

import "strings"

// RandomCategory asks for a question drawn from every category.
const RandomCategory = "random"

// IsRandomCategory reports whether s selects across all categories. An empty
// value behaves like "random".
func IsRandomCategory(s string) bool {
	return s == "" || strings.EqualFold(s, RandomCategory)
}

// Question is one prompt from the interview question bank.
type Question struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Text     string   `json:"question_text"`
	Tags     []string `json:"tags,omitempty"`
}
