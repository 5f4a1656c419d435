// Package question holds the interview question bank.
package question

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// Registry provides access to the loaded questions
type Registry struct {
	loader     *Loader
	mu         sync.RWMutex
	questions  map[string]*domain.Question
	byCategory map[domain.Category][]*domain.Question

	// intn picks an index in [0, n); swapped out in tests
	intn func(n int) int
}

// NewRegistry creates a new question registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:     loader,
		questions:  make(map[string]*domain.Question),
		byCategory: make(map[domain.Category][]*domain.Question),
		intn:       rand.IntN,
	}
}

// Open loads the bank from dir, or the built-in bank when dir is empty
func Open(dir string) (*Registry, error) {
	fsys := Embedded()
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	r := NewRegistry(NewLoader(fsys))
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads all bank files into memory
func (r *Registry) Load() error {
	questions, err := r.loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("load question bank: %w", domain.ErrNoQuestions)
	}

	byID := make(map[string]*domain.Question, len(questions))
	byCategory := make(map[domain.Category][]*domain.Question)
	for _, q := range questions {
		byID[q.ID] = q
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	r.mu.Lock()
	r.questions = byID
	r.byCategory = byCategory
	r.mu.Unlock()

	slog.Debug("question bank loaded", "questions", len(byID))
	return nil
}

// Get returns a question by ID
func (r *Registry) Get(id string) (*domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, id)
	}
	return q, nil
}

// List returns the questions of a category in bank order. An empty
// category lists every question, grouped by category.
func (r *Registry) List(category domain.Category) []*domain.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if category != "" {
		return append([]*domain.Question(nil), r.byCategory[category]...)
	}

	out := make([]*domain.Question, 0, len(r.questions))
	for _, c := range domain.Categories() {
		out = append(out, r.byCategory[c]...)
	}
	return out
}

// Pick returns a random question from category, or from the whole bank when
// category is empty.
func (r *Registry) Pick(category domain.Category) (*domain.Question, error) {
	candidates := r.List(category)
	if len(candidates) == 0 {
		if category == "" {
			return nil, domain.ErrNoQuestions
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNoQuestions, category)
	}
	return candidates[r.intn(len(candidates))], nil
}

// Counts returns the number of questions per category
func (r *Registry) Counts() map[domain.Category]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.Category]int, len(r.byCategory))
	for _, c := range domain.Categories() {
		counts[c] = len(r.byCategory[c])
	}
	return counts
}
