// Package catalog holds the tutoring content: an immutable, ordered
// collection of concepts loaded once per process and shared read-only by
// every persona and session.
package catalog

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a concept cannot be resolved by id or title.
var ErrNotFound = errors.New("concept not found")

// Concept is a single unit of tutoring content.
type Concept struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	SampleQuestion string `json:"sample_question"`
}

// Catalog is an immutable ordered collection of concepts. Ordering is
// insertion order from the source document and only matters for
// deterministic iteration. A nil or empty catalog is valid: every lookup
// fails with ErrNotFound.
type Catalog struct {
	concepts []Concept
	byID     map[string]int
	byTitle  map[string]int
}

// New builds a catalog from an ordered concept slice. Later duplicates of an
// id or title do not shadow earlier entries.
func New(concepts []Concept) *Catalog {
	c := &Catalog{
		concepts: make([]Concept, len(concepts)),
		byID:     make(map[string]int, len(concepts)),
		byTitle:  make(map[string]int, len(concepts)),
	}
	copy(c.concepts, concepts)
	for i, concept := range c.concepts {
		id := strings.ToLower(concept.ID)
		if _, exists := c.byID[id]; !exists {
			c.byID[id] = i
		}
		title := strings.ToLower(concept.Title)
		if _, exists := c.byTitle[title]; !exists {
			c.byTitle[title] = i
		}
	}
	return c
}

// Empty returns a catalog with no concepts. Used when content loading fails
// and the session degrades to "no content available".
func Empty() *Catalog {
	return New(nil)
}

// Lookup resolves a concept by exact id match first, then exact title match,
// both case-insensitive. No fuzzy matching happens here; partial matching is
// a persona-level convenience layered on top of this contract.
func (c *Catalog) Lookup(nameOrID string) (Concept, error) {
	key := strings.ToLower(strings.TrimSpace(nameOrID))
	if key == "" {
		return Concept{}, ErrNotFound
	}
	if i, ok := c.byID[key]; ok {
		return c.concepts[i], nil
	}
	if i, ok := c.byTitle[key]; ok {
		return c.concepts[i], nil
	}
	return Concept{}, ErrNotFound
}

// Titles returns all concept titles in catalog order, for building
// "available concepts" prompts.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.concepts))
	for i, concept := range c.concepts {
		titles[i] = concept.Title
	}
	return titles
}

// Concepts returns a copy of the concept list in catalog order.
func (c *Catalog) Concepts() []Concept {
	out := make([]Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// Len returns the number of concepts in the catalog.
func (c *Catalog) Len() int {
	return len(c.concepts)
}
