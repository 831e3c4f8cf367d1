package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterme/backend/internal/models"
)

func TestCatalogReplaceSwapsWholesale(t *testing.T) {
	c := New([]models.Persona{staticPersona("a", "Alpha", 1)})
	require.Equal(t, 1, c.Len())

	c.Replace([]models.Persona{
		staticPersona("b", "Beta", 1),
		staticPersona("c", "Gamma", 2),
	})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCatalogAppendSkipsDuplicates(t *testing.T) {
	c := New([]models.Persona{staticPersona("a", "Alpha", 1)})

	c.Append(
		staticPersona("a", "Alpha Again", 5),
		staticPersona("b", "Beta", 2),
	)

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", got.Name)
}

func TestCatalogAppendFillsPlaceholderCover(t *testing.T) {
	c := New(nil)
	c.Append(staticPersona("new-face", "New Face", 1))

	got, ok := c.Get("new-face")
	require.True(t, ok)
	assert.Equal(t, PlaceholderCover("new-face"), got.CoverURL)
}

func TestCatalogPersonasReturnsSnapshot(t *testing.T) {
	c := New([]models.Persona{staticPersona("a", "Alpha", 1)})

	snapshot := c.Personas()
	snapshot[0].Name = "Mutated"

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", got.Name)
}

func TestCatalogGetUnknown(t *testing.T) {
	c := New(nil)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}
