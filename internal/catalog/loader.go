package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parse decodes a content document: a JSON array of concept objects.
// Concepts missing an id are rejected so the mastery store always has a
// stable key to aggregate under.
func Parse(data []byte) (*Catalog, error) {
	var concepts []Concept
	if err := json.Unmarshal(data, &concepts); err != nil {
		return nil, fmt.Errorf("failed to parse content document: %w", err)
	}
	for i, c := range concepts {
		if c.ID == "" {
			return nil, fmt.Errorf("concept at index %d has no id", i)
		}
	}
	return New(concepts), nil
}

// Load reads and parses a content document from disk. On any failure it
// returns an empty catalog together with the error, so callers can log and
// continue with degraded "no content available" behavior instead of
// crashing the session.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), fmt.Errorf("failed to read content document: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return Empty(), err
	}
	return cat, nil
}
