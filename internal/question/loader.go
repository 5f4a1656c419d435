package question

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed bank/*.yaml
var bankFS embed.FS

// Embedded returns the question bank compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(bankFS, "bank")
	if err != nil {
		panic(err)
	}
	return sub
}

// BankFile represents the YAML structure of one category file
type BankFile struct {
	Category  string `yaml:"category"`
	Questions []struct {
		ID   string   `yaml:"id"`
		Text string   `yaml:"text"`
		Tags []string `yaml:"tags"`
	} `yaml:"questions"`
}

// Loader reads question bank files from a filesystem
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys. Every *.yaml file at its root is
// one category.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadFile loads the questions of a single bank file
func (l *Loader) LoadFile(name string) ([]*domain.Question, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}

	var file BankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bank file %s: %w", name, err)
	}

	category, err := domain.ParseCategory(file.Category)
	if err != nil {
		return nil, fmt.Errorf("bank file %s: %w", name, err)
	}

	questions := make([]*domain.Question, 0, len(file.Questions))
	for i, q := range file.Questions {
		if q.ID == "" || strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("bank file %s: question %d needs an id and text", name, i)
		}
		questions = append(questions, &domain.Question{
			ID:       q.ID,
			Category: category,
			Text:     strings.TrimSpace(q.Text),
			Tags:     q.Tags,
		})
	}
	return questions, nil
}

// LoadAll loads every bank file, rejecting duplicate question ids
func (l *Loader) LoadAll() ([]*domain.Question, error) {
	names, err := fs.Glob(l.fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list bank files: %w", err)
	}
	sort.Strings(names)

	seen := make(map[string]string)
	var all []*domain.Question
	for _, name := range names {
		questions, err := l.LoadFile(name)
		if err != nil {
			return nil, err
		}
		for _, q := range questions {
			if prev, dup := seen[q.ID]; dup {
				return nil, fmt.Errorf("duplicate question id %q in %s and %s", q.ID, prev, path.Base(name))
			}
			seen[q.ID] = path.Base(name)
		}
		all = append(all, questions...)
	}
	return all, nil
}
