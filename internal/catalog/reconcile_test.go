package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterme/backend/internal/models"
)

func strPtr(s string) *string                   { return &s }
func intPtr(i int) *int                         { return &i }
func boolPtr(b bool) *bool                      { return &b }
func catPtr(c models.Category) *models.Category { return &c }

func staticPersona(id, name string, order int) models.Persona {
	return models.Persona{
		ID:           id,
		Name:         name,
		Category:     models.CategoryMovie,
		Prompt:       "prompt for " + id,
		DisplayOrder: order,
	}
}

func TestReconcileEmptyDynamic(t *testing.T) {
	static := []models.Persona{
		staticPersona("b", "Beta", 2),
		staticPersona("a", "Alpha", 1),
	}

	got := Reconcile(static, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	for _, p := range got {
		assert.True(t, p.Visible)
		assert.NotEmpty(t, p.CoverURL)
	}
}

func TestReconcileOverrideWins(t *testing.T) {
	static := []models.Persona{staticPersona("a", "Alpha", 1)}
	dynamic := []models.PersonaOverride{{
		ID:     "a",
		Name:   strPtr("Alpha Remix"),
		Prompt: strPtr("new prompt"),
	}}

	got := Reconcile(static, dynamic)

	require.Len(t, got, 1)
	assert.Equal(t, "Alpha Remix", got[0].Name)
	assert.Equal(t, "new prompt", got[0].Prompt)
	// Absent fields keep the static values.
	assert.Equal(t, models.CategoryMovie, got[0].Category)
	assert.Equal(t, 1, got[0].DisplayOrder)
}

func TestReconcileVisibilityOnlyOverrideKeepsFields(t *testing.T) {
	static := []models.Persona{staticPersona("a", "Alpha", 1)}
	dynamic := []models.PersonaOverride{{ID: "a", Visible: boolPtr(true)}}

	got := Reconcile(static, dynamic)

	require.Len(t, got, 1)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, models.CategoryMovie, got[0].Category)
	assert.Equal(t, "prompt for a", got[0].Prompt)
	assert.Equal(t, 1, got[0].DisplayOrder)
}

func TestReconcileHidesExplicitlyInvisible(t *testing.T) {
	static := []models.Persona{
		staticPersona("a", "Alpha", OrderLast),
		staticPersona("b", "Beta", 1),
	}
	dynamic := []models.PersonaOverride{{ID: "a", Visible: boolPtr(false)}}

	got := Reconcile(static, dynamic)

	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestReconcileHideAllYieldsEmpty(t *testing.T) {
	static := []models.Persona{staticPersona("a", "Alpha", OrderLast)}
	dynamic := []models.PersonaOverride{{ID: "a", Visible: boolPtr(false)}}

	got := Reconcile(static, dynamic)
	assert.Empty(t, got)
}

func TestReconcileInsertsUnknownIDs(t *testing.T) {
	dynamic := []models.PersonaOverride{
		{ID: "a", Name: strPtr("Late"), DisplayOrder: intPtr(2)},
		{ID: "b", Name: strPtr("Early"), DisplayOrder: intPtr(1)},
	}

	got := Reconcile(nil, dynamic)

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	// Inserted records default to visible and the catch-all category.
	assert.Equal(t, models.CategoryOther, got[0].Category)
	assert.True(t, got[0].Visible)
}

func TestReconcileOrdering(t *testing.T) {
	static := []models.Persona{
		staticPersona("zed", "zed", 5),
		staticPersona("apple", "apple", 5),
		staticPersona("Mid", "Mid", 5),
		staticPersona("first", "first", 1),
		staticPersona("unordered", "unordered", 0),
	}

	got := Reconcile(static, nil)

	require.Len(t, got, 5)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	// Order ascending, ties broken case-insensitively by name; missing order
	// sorts last.
	assert.Equal(t, []string{"first", "apple", "Mid", "zed", "unordered"}, ids)
	assert.Equal(t, OrderLast, got[4].DisplayOrder)
}

func TestReconcileNegativeOrderSortsLast(t *testing.T) {
	static := []models.Persona{staticPersona("a", "Alpha", 1)}
	dynamic := []models.PersonaOverride{
		{ID: "b", Name: strPtr("Beta"), DisplayOrder: intPtr(-1)},
	}

	got := Reconcile(static, dynamic)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, OrderLast, got[1].DisplayOrder)
}

func TestReconcileCategoryOverride(t *testing.T) {
	static := []models.Persona{staticPersona("a", "Alpha", 1)}
	dynamic := []models.PersonaOverride{{ID: "a", Category: catPtr(models.CategorySeries)}}

	got := Reconcile(static, dynamic)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategorySeries, got[0].Category)
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	static := []models.Persona{staticPersona("a", "Alpha", 1)}
	dynamic := []models.PersonaOverride{{ID: "a", Name: strPtr("Changed")}}

	Reconcile(static, dynamic)

	assert.Equal(t, "Alpha", static[0].Name)
	assert.False(t, static[0].Visible)
}

func TestReconcileSkipsEmptyOverrideID(t *testing.T) {
	dynamic := []models.PersonaOverride{{ID: "", Name: strPtr("Ghost")}}
	got := Reconcile(nil, dynamic)
	assert.Empty(t, got)
}

func TestPlaceholderCover(t *testing.T) {
	assert.Equal(t, "/covers/noir-detective.png", PlaceholderCover("noir-detective"))
}

func TestDefaultCatalogReconciles(t *testing.T) {
	got := Reconcile(Default(), nil)
	require.Len(t, got, len(Default()))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DisplayOrder, got[i].DisplayOrder)
	}
}
