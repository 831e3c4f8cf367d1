package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/posterme/backend/internal/models"
)

type PersonaRepository struct {
	db *sql.DB
}

func NewPersonaRepository(db *sql.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

// ListOverrides returns every stored persona record as an override. NULL (and
// empty-string name) columns scan to nil pointers so the reconciler can tell
// "absent" from an explicit value.
func (r *PersonaRepository) ListOverrides(ctx context.Context) ([]models.PersonaOverride, error) {
	const query = `
SELECT id, name, category, cover_url, prompt, display_order, is_visible
FROM personas
ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	var overrides []models.PersonaOverride
	for rows.Next() {
		var o models.PersonaOverride
		var name, category, cover, prompt sql.NullString
		var order sql.NullInt64
		var visible sql.NullBool
		if err := rows.Scan(&o.ID, &name, &category, &cover, &prompt, &order, &visible); err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		if name.Valid && name.String != "" {
			o.Name = &name.String
		}
		if category.Valid && category.String != "" {
			cat := models.Category(category.String)
			o.Category = &cat
		}
		if cover.Valid {
			o.CoverURL = &cover.String
		}
		if prompt.Valid {
			o.Prompt = &prompt.String
		}
		if order.Valid {
			v := int(order.Int64)
			o.DisplayOrder = &v
		}
		if visible.Valid {
			o.Visible = &visible.Bool
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// Upsert inserts or updates a persona record. Only the fields the override
// carries are written on update.
func (r *PersonaRepository) Upsert(ctx context.Context, o models.PersonaOverride) error {
	if o.ID == "" {
		return fmt.Errorf("persona id is required")
	}
	var name, category, cover, prompt any
	if o.Name != nil && *o.Name != "" {
		name = *o.Name
	}
	if o.Category != nil {
		category = string(*o.Category)
	}
	if o.CoverURL != nil {
		cover = *o.CoverURL
	}
	if o.Prompt != nil {
		prompt = *o.Prompt
	}
	var order any
	if o.DisplayOrder != nil {
		order = *o.DisplayOrder
	}
	var visible any
	if o.Visible != nil {
		if *o.Visible {
			visible = 1
		} else {
			visible = 0
		}
	}

	const query = `
INSERT INTO personas (id, name, category, cover_url, prompt, display_order, is_visible)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    name = COALESCE(VALUES(name), name),
    category = COALESCE(VALUES(category), category),
    cover_url = COALESCE(VALUES(cover_url), cover_url),
    prompt = COALESCE(VALUES(prompt), prompt),
    display_order = COALESCE(VALUES(display_order), display_order),
    is_visible = COALESCE(VALUES(is_visible), is_visible),
    updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, o.ID, name, category, cover, prompt, order, visible); err != nil {
		return fmt.Errorf("upsert persona: %w", err)
	}
	return nil
}

func (r *PersonaRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM personas WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete persona: %w", err)
	}
	return nil
}
