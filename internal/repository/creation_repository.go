package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/posterme/backend/internal/models"
)

type CreationRepository struct {
	db *sql.DB
}

func NewCreationRepository(db *sql.DB) *CreationRepository {
	return &CreationRepository{db: db}
}

func (r *CreationRepository) Create(ctx context.Context, creation *models.Creation) error {
	const query = `
INSERT INTO creations (user_id, persona_id, image_url, face_description)
VALUES (?, ?, ?, NULLIF(?, ''))`
	res, err := r.db.ExecContext(ctx, query, creation.UserID, creation.PersonaID, creation.ImageURL, creation.FaceDescription)
	if err != nil {
		return fmt.Errorf("insert creation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("creation last insert id: %w", err)
	}
	creation.ID = id
	return nil
}

func (r *CreationRepository) ListByUser(ctx context.Context, userID int64) ([]models.Creation, error) {
	const query = `
SELECT id, user_id, persona_id, image_url, COALESCE(face_description, ''), created_at
FROM creations
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list creations: %w", err)
	}
	defer rows.Close()

	var creations []models.Creation
	for rows.Next() {
		var c models.Creation
		if err := rows.Scan(&c.ID, &c.UserID, &c.PersonaID, &c.ImageURL, &c.FaceDescription, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan creation: %w", err)
		}
		creations = append(creations, c)
	}
	return creations, rows.Err()
}

// LatestFaceDescription returns the most recent cached face description for
// the user, or empty if none has been stored yet.
func (r *CreationRepository) LatestFaceDescription(ctx context.Context, userID int64) (string, error) {
	const query = `
SELECT face_description FROM creations
WHERE user_id = ? AND face_description IS NOT NULL
ORDER BY created_at DESC, id DESC
LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, userID)
	var description string
	if err := row.Scan(&description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("scan face description: %w", err)
	}
	return description, nil
}
