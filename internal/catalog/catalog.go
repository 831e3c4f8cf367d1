package catalog

import (
	"sync"

	"github.com/posterme/backend/internal/models"
)

// Catalog holds the current merged persona list for the running service. The
// list is replaced wholesale on every reconciliation so stale overrides never
// linger; discovery results are appended additively between reconciliations.
type Catalog struct {
	mu       sync.RWMutex
	personas []models.Persona
}

func New(initial []models.Persona) *Catalog {
	c := &Catalog{}
	c.Replace(initial)
	return c
}

// Replace swaps in a freshly reconciled catalog (last-fetch-wins).
func (c *Catalog) Replace(personas []models.Persona) {
	next := make([]models.Persona, len(personas))
	copy(next, personas)
	c.mu.Lock()
	c.personas = next
	c.mu.Unlock()
}

// Append adds freshly discovered personas onto the current list without
// re-running reconciliation. It does not re-sort or re-filter; ids already
// present are skipped.
func (c *Catalog) Append(personas ...models.Persona) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{}, len(c.personas))
	for _, p := range c.personas {
		seen[p.ID] = struct{}{}
	}
	for _, p := range personas {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if p.CoverURL == "" {
			p.CoverURL = PlaceholderCover(p.ID)
		}
		seen[p.ID] = struct{}{}
		c.personas = append(c.personas, p)
	}
}

// Personas returns a snapshot copy of the current catalog.
func (c *Catalog) Personas() []models.Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]models.Persona, len(c.personas))
	copy(snapshot, c.personas)
	return snapshot
}

// Get looks up a persona by id in the current catalog.
func (c *Catalog) Get(id string) (models.Persona, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.personas {
		if p.ID == id {
			return p, true
		}
	}
	return models.Persona{}, false
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.personas)
}
