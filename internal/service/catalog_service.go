package service

import (
	"context"
	"log/slog"

	"github.com/posterme/backend/internal/catalog"
	"github.com/posterme/backend/internal/models"
)

// PersonaStore is the remote persona override store.
type PersonaStore interface {
	ListOverrides(ctx context.Context) ([]models.PersonaOverride, error)
	Upsert(ctx context.Context, override models.PersonaOverride) error
	Delete(ctx context.Context, id string) error
}

// CatalogService keeps the in-memory catalog reconciled against the persona
// store.
type CatalogService struct {
	log      *slog.Logger
	personas PersonaStore
	catalog  *catalog.Catalog
}

func NewCatalogService(log *slog.Logger, personas PersonaStore, cat *catalog.Catalog) *CatalogService {
	return &CatalogService{log: log, personas: personas, catalog: cat}
}

// Refresh fetches the override list and replaces the catalog wholesale with
// the reconciled result. A fetch failure is a silent degrade: the previously
// held catalog stays in effect.
func (s *CatalogService) Refresh(ctx context.Context) {
	overrides, err := s.personas.ListOverrides(ctx)
	if err != nil {
		s.log.Warn("persona override fetch failed, keeping current catalog", "err", err)
		return
	}
	s.catalog.Replace(catalog.Reconcile(catalog.Default(), overrides))
	s.log.Info("catalog reconciled", "personas", s.catalog.Len(), "overrides", len(overrides))
}

// Personas returns the current merged catalog.
func (s *CatalogService) Personas() []models.Persona {
	return s.catalog.Personas()
}

// Upsert writes an override and re-reconciles so admin edits take effect
// immediately.
func (s *CatalogService) Upsert(ctx context.Context, override models.PersonaOverride) error {
	if err := s.personas.Upsert(ctx, override); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// Delete removes an override row and re-reconciles; a hidden static persona
// becomes visible again once its hiding override is gone.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.personas.Delete(ctx, id); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}
