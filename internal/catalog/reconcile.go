package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/posterme/backend/internal/models"
)

// OrderLast is the sort sentinel for personas without an explicit display
// order. A stored order of -1 is treated the same way.
const OrderLast = 999

// Reconcile merges the static compiled-in persona list with dynamically
// fetched override records into a single ordered, deduplicated,
// visibility-filtered catalog. Overrides replace static entries with the same
// id field-by-field (present fields win); unknown ids are inserted as new
// personas. Entries whose visibility was explicitly set to false are dropped.
// The result is sorted by display order ascending, ties broken by
// case-insensitive name, so equal orders still produce a deterministic
// sequence.
//
// Reconcile is pure: it never mutates its inputs and has no side effects. The
// caller replaces the previously held catalog wholesale with the result.
func Reconcile(static []models.Persona, dynamic []models.PersonaOverride) []models.Persona {
	byID := make(map[string]models.Persona, len(static)+len(dynamic))
	ids := make([]string, 0, len(static)+len(dynamic))

	for _, p := range static {
		p.Visible = true
		if p.DisplayOrder <= 0 || p.DisplayOrder == OrderLast {
			p.DisplayOrder = OrderLast
		}
		if _, exists := byID[p.ID]; !exists {
			ids = append(ids, p.ID)
		}
		byID[p.ID] = p
	}

	for _, o := range dynamic {
		if o.ID == "" {
			continue
		}
		base, exists := byID[o.ID]
		if !exists {
			base = models.Persona{ID: o.ID, Category: models.CategoryOther, DisplayOrder: OrderLast, Visible: true}
			ids = append(ids, o.ID)
		}
		byID[o.ID] = applyOverride(base, o)
	}

	merged := make([]models.Persona, 0, len(ids))
	for _, id := range ids {
		p := byID[id]
		if !p.Visible {
			continue
		}
		if p.CoverURL == "" {
			p.CoverURL = PlaceholderCover(p.ID)
		}
		merged = append(merged, p)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		oi, oj := merged[i].DisplayOrder, merged[j].DisplayOrder
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(merged[i].Name) < strings.ToLower(merged[j].Name)
	})

	return merged
}

// applyOverride shallow-merges the override into the base persona. Only
// fields the override actually carries win; absent fields keep the base
// value.
func applyOverride(base models.Persona, o models.PersonaOverride) models.Persona {
	if o.Name != nil {
		base.Name = *o.Name
	}
	if o.Category != nil {
		base.Category = *o.Category
	}
	if o.CoverURL != nil {
		base.CoverURL = *o.CoverURL
	}
	if o.Prompt != nil {
		base.Prompt = *o.Prompt
	}
	if o.DisplayOrder != nil {
		order := *o.DisplayOrder
		if order < 0 {
			order = OrderLast
		}
		base.DisplayOrder = order
	}
	if o.Visible != nil {
		base.Visible = *o.Visible
	}
	return base
}

// PlaceholderCover derives a deterministic preview path for personas without
// an uploaded cover image.
func PlaceholderCover(id string) string {
	return fmt.Sprintf("/covers/%s.png", id)
}
