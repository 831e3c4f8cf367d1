package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/posterme/backend/internal/catalog"
	"github.com/posterme/backend/internal/models"
)

// PersonaSuggester proposes new personas for a theme.
type PersonaSuggester interface {
	SuggestPersonas(ctx context.Context, theme string, count int) ([]models.Persona, error)
}

// DiscoveryService appends freshly suggested personas onto the live catalog.
// This is an additive update, not a reconciliation: the new entries land at
// the end of the current list and the next full refresh folds them in
// properly.
type DiscoveryService struct {
	log       *slog.Logger
	suggester PersonaSuggester
	personas  PersonaStore
	catalog   *catalog.Catalog
	count     int
}

func NewDiscoveryService(log *slog.Logger, suggester PersonaSuggester, personas PersonaStore, cat *catalog.Catalog, count int) *DiscoveryService {
	if count <= 0 {
		count = 3
	}
	return &DiscoveryService{log: log, suggester: suggester, personas: personas, catalog: cat, count: count}
}

// Discover asks the suggester for new personas, persists them, and appends
// them to the current catalog.
func (s *DiscoveryService) Discover(ctx context.Context, theme string) ([]models.Persona, error) {
	if theme == "" {
		return nil, fmt.Errorf("theme is required")
	}
	suggestions, err := s.suggester.SuggestPersonas(ctx, theme, s.count)
	if err != nil {
		return nil, fmt.Errorf("suggest personas: %w", err)
	}

	for _, p := range suggestions {
		override := models.PersonaOverride{
			ID:       p.ID,
			Name:     &p.Name,
			Category: &p.Category,
			Prompt:   &p.Prompt,
			Visible:  &p.Visible,
		}
		if err := s.personas.Upsert(ctx, override); err != nil {
			s.log.Error("failed to persist discovered persona", "id", p.ID, "err", err)
		}
	}

	s.catalog.Append(suggestions...)
	return suggestions, nil
}
