package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"design", CategoryDesign, false},
		{"Design", CategoryDesign, false},
		{"improvement", CategoryImprovement, false},
		{"Improvement", CategoryImprovement, false},
		{"rca", CategoryRCA, false},
		{"RCA", CategoryRCA, false},
		{"Rca", CategoryRCA, false},
		{"guesstimate", CategoryGuesstimate, false},
		{"Guesstimate", CategoryGuesstimate, false},
		{" guesstimate ", "", true},
		{"design\n", "", true},
		{"strategy", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCategory) {
					t.Errorf("ParseCategory(%q) error = %v; want ErrUnknownCategory", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCategories_FixedOrder(t *testing.T) {
	got := Categories()
	want := []Category{CategoryDesign, CategoryImprovement, CategoryRCA, CategoryGuesstimate}
	if len(got) != len(want) {
		t.Fatalf("Categories() len = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q; want %q", i, got[i], want[i])
		}
	}

	// Mutating the returned slice must not affect the package set
	got[0] = "mutated"
	if Categories()[0] != CategoryDesign {
		t.Error("Categories() returned shared backing array")
	}
}

func TestCategory_Label(t *testing.T) {
	if got := CategoryRCA.Label(); got != "Rca" {
		t.Errorf("Label() = %q; want Rca", got)
	}
	if got := CategoryDesign.Label(); got != "Design" {
		t.Errorf("Label() = %q; want Design", got)
	}
	if got := Category("").Label(); got != "" {
		t.Errorf("Label() = %q; want empty", got)
	}
}

func TestCategory_Valid(t *testing.T) {
	if !CategoryGuesstimate.Valid() {
		t.Error("guesstimate should be valid")
	}
	if Category("Design").Valid() {
		t.Error("unnormalized spelling should not be valid")
	}
}
