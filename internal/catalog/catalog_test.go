package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testConcepts() []Concept {
	return []Concept{
		{ID: "variables", Title: "Variables", Summary: "Named storage for values.", SampleQuestion: "What is a variable?"},
		{ID: "loops", Title: "Loops", Summary: "Repeat code until a condition is met.", SampleQuestion: "When do loops stop?"},
		{ID: "functions", Title: "Functions", Summary: "Reusable named blocks of code.", SampleQuestion: "Why use functions?"},
	}
}

func TestLookupByID(t *testing.T) {
	cat := New(testConcepts())

	c, err := cat.Lookup("loops")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if c.Title != "Loops" {
		t.Errorf("Expected title 'Loops', got %q", c.Title)
	}
}

func TestLookupByTitle(t *testing.T) {
	cat := New(testConcepts())

	c, err := cat.Lookup("Functions")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if c.ID != "functions" {
		t.Errorf("Expected id 'functions', got %q", c.ID)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	cat := New(testConcepts())

	for _, query := range []string{"VARIABLES", "Variables", "vArIaBlEs", "  variables  "} {
		c, err := cat.Lookup(query)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", query, err)
		}
		if c.ID != "variables" {
			t.Errorf("Lookup(%q): expected 'variables', got %q", query, c.ID)
		}
	}
}

func TestLookupIDWinsOverTitle(t *testing.T) {
	// A concept whose id collides with another concept's title: the id
	// match is applied first.
	cat := New([]Concept{
		{ID: "loops", Title: "Iteration"},
		{ID: "iteration", Title: "Loops"},
	})

	c, err := cat.Lookup("loops")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if c.Title != "Iteration" {
		t.Errorf("Expected id match to win, got title %q", c.Title)
	}
}

func TestLookupNotFound(t *testing.T) {
	cat := New(testConcepts())

	_, err := cat.Lookup("recursion")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// No partial matching inside the catalog contract.
	_, err = cat.Lookup("loop")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for partial match, got %v", err)
	}
}

func TestEmptyCatalog(t *testing.T) {
	cat := Empty()

	if cat.Len() != 0 {
		t.Errorf("Expected empty catalog, got %d concepts", cat.Len())
	}
	if _, err := cat.Lookup("anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if titles := cat.Titles(); len(titles) != 0 {
		t.Errorf("Expected no titles, got %v", titles)
	}
}

func TestTitlesPreserveOrder(t *testing.T) {
	cat := New(testConcepts())

	want := []string{"Variables", "Loops", "Functions"}
	if diff := cmp.Diff(want, cat.Titles()); diff != "" {
		t.Errorf("Titles mismatch (-want +got):\n%s", diff)
	}
}

func TestConceptsReturnsCopy(t *testing.T) {
	cat := New(testConcepts())

	got := cat.Concepts()
	got[0].Title = "Mutated"

	c, err := cat.Lookup("variables")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if c.Title != "Variables" {
		t.Errorf("Catalog was mutated through Concepts(): %q", c.Title)
	}
}

func TestParse(t *testing.T) {
	data := `[
		{"id": "variables", "title": "Variables", "summary": "Named storage.", "sample_question": "What is a variable?"},
		{"id": "loops", "title": "Loops", "summary": "Repetition.", "sample_question": "Why loop?"}
	]`

	cat, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("Expected 2 concepts, got %d", cat.Len())
	}
	c, err := cat.Lookup("loops")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if c.SampleQuestion != "Why loop?" {
		t.Errorf("Unexpected sample question %q", c.SampleQuestion)
	}
}

func TestParseRejectsMissingID(t *testing.T) {
	if _, err := Parse([]byte(`[{"title": "No ID"}]`)); err == nil {
		t.Error("Expected error for concept without id")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("Expected error for malformed document")
	}
}

func TestLoadMissingFileDegradesToEmpty(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
	if cat == nil || cat.Len() != 0 {
		t.Error("Expected a usable empty catalog alongside the error")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	data := `[{"id": "variables", "title": "Variables", "summary": "s", "sample_question": "q"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Expected 1 concept, got %d", cat.Len())
	}
}
