package devseed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Database is one seeded database and its documents. Each document must be
// a JSON object carrying an "_id" string.
type Database struct {
	Name string            `json:"name"`
	Docs []json.RawMessage `json:"docs"`
}

// Load reads a seed file holding a JSON array of Database entries.
func Load(path string) ([]Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks seed entries.
func Parse(data []byte) ([]Database, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []Database
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: decode: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("devseed: entry %d missing name", i)
		}
		for j, doc := range e.Docs {
			if _, err := DocID(doc); err != nil {
				return nil, fmt.Errorf("devseed: %s doc %d: %w", e.Name, j, err)
			}
		}
	}
	return entries, nil
}

// DocID returns the "_id" of a seeded document.
func DocID(doc json.RawMessage) (string, error) {
	var head struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}
	if strings.TrimSpace(head.ID) == "" {
		return "", fmt.Errorf("document missing _id")
	}
	return head.ID, nil
}
