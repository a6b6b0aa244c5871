// Package famous holds the catalog of identities revealed to non-spy players
// and the random draw that avoids repeating identities within a room.
package famous

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/aaronzipp/famous-spy/internal/models"
)

//go:embed famous.json
var catalogJSON []byte

// ErrEmptyCatalog is returned when a catalog is built without entries
var ErrEmptyCatalog = errors.New("famous catalog is empty")

// Catalog is an immutable list of famous entries. It is safe for concurrent use.
type Catalog struct {
	entries []models.Famous
	byID    map[string]models.Famous
	intn    func(int) int
}

// Load builds the catalog shipped with the binary
func Load() (*Catalog, error) {
	var entries []models.Famous
	if err := json.Unmarshal(catalogJSON, &entries); err != nil {
		return nil, fmt.Errorf("parsing famous catalog: %w", err)
	}
	return New(entries, nil)
}

// New builds a catalog from entries. intn returns a uniform int in [0, n);
// nil uses math/rand/v2.
func New(entries []models.Famous, intn func(int) int) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	if intn == nil {
		intn = rand.IntN
	}
	byID := make(map[string]models.Famous, len(entries))
	for _, f := range entries {
		if _, dup := byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate famous id %q", f.ID)
		}
		byID[f.ID] = f
	}
	return &Catalog{
		entries: append([]models.Famous(nil), entries...),
		byID:    byID,
		intn:    intn,
	}, nil
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Get returns the entry with the given ID
func (c *Catalog) Get(id string) (models.Famous, bool) {
	f, ok := c.byID[id]
	return f, ok
}

// Draw returns an entry not in exclude, or any entry once all are excluded
func (c *Catalog) Draw(exclude map[string]struct{}) models.Famous {
	return Pick(c.entries, exclude, c.intn)
}

// Pick filters exclude out of pool and draws uniformly from what remains,
// falling back to the whole pool when nothing remains. pool must not be empty.
func Pick(pool []models.Famous, exclude map[string]struct{}, intn func(int) int) models.Famous {
	candidates := make([]models.Famous, 0, len(pool))
	for _, f := range pool {
		if _, used := exclude[f.ID]; !used {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}
	return candidates[intn(len(candidates))]
}
