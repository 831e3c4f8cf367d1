package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterme/backend/internal/catalog"
	"github.com/posterme/backend/internal/models"
)

type fakePersonaStore struct {
	mu        sync.Mutex
	overrides map[string]models.PersonaOverride
	listErr   error
}

func newFakePersonaStore() *fakePersonaStore {
	return &fakePersonaStore{overrides: make(map[string]models.PersonaOverride)}
}

func (f *fakePersonaStore) ListOverrides(ctx context.Context) ([]models.PersonaOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.PersonaOverride, 0, len(f.overrides))
	for _, o := range f.overrides {
		out = append(out, o)
	}
	return out, nil
}

// Upsert merges field-by-field like the SQL repository: absent fields keep
// the stored value instead of clobbering it.
func (f *fakePersonaStore) Upsert(ctx context.Context, override models.PersonaOverride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.overrides[override.ID]
	stored.ID = override.ID
	if override.Name != nil && *override.Name != "" {
		stored.Name = override.Name
	}
	if override.Category != nil {
		stored.Category = override.Category
	}
	if override.CoverURL != nil {
		stored.CoverURL = override.CoverURL
	}
	if override.Prompt != nil {
		stored.Prompt = override.Prompt
	}
	if override.DisplayOrder != nil {
		stored.DisplayOrder = override.DisplayOrder
	}
	if override.Visible != nil {
		stored.Visible = override.Visible
	}
	f.overrides[override.ID] = stored
	return nil
}

func (f *fakePersonaStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.overrides, id)
	return nil
}

func falsePtr() *bool {
	v := false
	return &v
}

func TestCatalogServiceRefreshReconciles(t *testing.T) {
	store := newFakePersonaStore()
	cat := catalog.New(nil)
	svc := NewCatalogService(testLogger(), store, cat)

	svc.Refresh(context.Background())

	assert.Equal(t, len(catalog.Default()), cat.Len())
}

func TestCatalogServiceRefreshKeepsCatalogOnFetchFailure(t *testing.T) {
	store := newFakePersonaStore()
	cat := catalog.New(nil)
	svc := NewCatalogService(testLogger(), store, cat)
	svc.Refresh(context.Background())
	require.NotZero(t, cat.Len())

	store.mu.Lock()
	store.listErr = errors.New("db down")
	store.mu.Unlock()
	svc.Refresh(context.Background())

	assert.Equal(t, len(catalog.Default()), cat.Len())
}

func TestCatalogServiceUpsertTakesEffectImmediately(t *testing.T) {
	store := newFakePersonaStore()
	cat := catalog.New(nil)
	svc := NewCatalogService(testLogger(), store, cat)
	svc.Refresh(context.Background())

	err := svc.Upsert(context.Background(), models.PersonaOverride{
		ID:      "noir-detective",
		Visible: falsePtr(),
	})

	require.NoError(t, err)
	_, ok := cat.Get("noir-detective")
	assert.False(t, ok)
}

func TestCatalogServiceHideThenUnhideKeepsStaticFields(t *testing.T) {
	store := newFakePersonaStore()
	cat := catalog.New(nil)
	svc := NewCatalogService(testLogger(), store, cat)
	svc.Refresh(context.Background())

	before, ok := cat.Get("noir-detective")
	require.True(t, ok)

	require.NoError(t, svc.Upsert(context.Background(), models.PersonaOverride{
		ID:      "noir-detective",
		Visible: falsePtr(),
	}))
	truthy := true
	require.NoError(t, svc.Upsert(context.Background(), models.PersonaOverride{
		ID:      "noir-detective",
		Visible: &truthy,
	}))

	after, ok := cat.Get("noir-detective")
	require.True(t, ok)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Category, after.Category)
	assert.Equal(t, before.Prompt, after.Prompt)
	assert.Equal(t, before.DisplayOrder, after.DisplayOrder)
}

func TestCatalogServiceDeleteRestoresHiddenStatic(t *testing.T) {
	store := newFakePersonaStore()
	cat := catalog.New(nil)
	svc := NewCatalogService(testLogger(), store, cat)
	require.NoError(t, svc.Upsert(context.Background(), models.PersonaOverride{
		ID:      "noir-detective",
		Visible: falsePtr(),
	}))

	require.NoError(t, svc.Delete(context.Background(), "noir-detective"))

	_, ok := cat.Get("noir-detective")
	assert.True(t, ok)
}

type fakeSuggester struct {
	personas []models.Persona
	err      error
}

func (f *fakeSuggester) SuggestPersonas(ctx context.Context, theme string, count int) ([]models.Persona, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.personas, nil
}

func TestDiscoveryAppendsAndPersists(t *testing.T) {
	store := newFakePersonaStore()
	cat := catalog.New(catalog.Default())
	suggester := &fakeSuggester{personas: []models.Persona{
		{ID: "pirate-captain", Name: "Pirate Captain", Category: models.CategoryOther, Prompt: "p", Visible: true},
	}}
	svc := NewDiscoveryService(testLogger(), suggester, store, cat, 3)

	got, err := svc.Discover(context.Background(), "pirates")

	require.NoError(t, err)
	require.Len(t, got, 1)
	_, ok := cat.Get("pirate-captain")
	assert.True(t, ok)
	store.mu.Lock()
	_, persisted := store.overrides["pirate-captain"]
	store.mu.Unlock()
	assert.True(t, persisted)
}

func TestDiscoveryRequiresTheme(t *testing.T) {
	svc := NewDiscoveryService(testLogger(), &fakeSuggester{}, newFakePersonaStore(), catalog.New(nil), 3)
	_, err := svc.Discover(context.Background(), "")
	assert.Error(t, err)
}

func TestDiscoverySuggesterFailure(t *testing.T) {
	suggester := &fakeSuggester{err: errors.New("quota exceeded")}
	cat := catalog.New(nil)
	svc := NewDiscoveryService(testLogger(), suggester, newFakePersonaStore(), cat, 3)

	_, err := svc.Discover(context.Background(), "pirates")

	assert.Error(t, err)
	assert.Zero(t, cat.Len())
}
