package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/posterme/backend/internal/models"
)

type PromoRepository struct {
	db *sql.DB
}

func NewPromoRepository(db *sql.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

func (r *PromoRepository) DB() *sql.DB {
	return r.db
}

func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const query = `SELECT id, code, max_uses, uses, created_at FROM promo_codes WHERE code = ?`
	return r.scanPromo(r.db.QueryRowContext(ctx, query, code))
}

func (r *PromoRepository) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	const query = `SELECT id, code, max_uses, uses, created_at FROM promo_codes WHERE id = ?`
	return r.scanPromo(r.db.QueryRowContext(ctx, query, id))
}

func (r *PromoRepository) scanPromo(row *sql.Row) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := row.Scan(&promo.ID, &promo.Code, &promo.MaxUses, &promo.Uses, &promo.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan promo: %w", err)
	}
	return &promo, nil
}

func (r *PromoRepository) List(ctx context.Context) ([]models.PromoCode, error) {
	const query = `SELECT id, code, max_uses, uses, created_at FROM promo_codes ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promos: %w", err)
	}
	defer rows.Close()

	var promos []models.PromoCode
	for rows.Next() {
		var promo models.PromoCode
		if err := rows.Scan(&promo.ID, &promo.Code, &promo.MaxUses, &promo.Uses, &promo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan promo: %w", err)
		}
		promos = append(promos, promo)
	}
	return promos, rows.Err()
}

func (r *PromoRepository) Create(ctx context.Context, code string, maxUses int) (*models.PromoCode, error) {
	const query = `INSERT INTO promo_codes (code, max_uses) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, code, maxUses)
	if err != nil {
		return nil, fmt.Errorf("create promo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("promo last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PromoRepository) Update(ctx context.Context, id int64, code string, maxUses, uses int) (*models.PromoCode, error) {
	const query = `UPDATE promo_codes SET code = ?, max_uses = ?, uses = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, code, maxUses, uses, id); err != nil {
		return nil, fmt.Errorf("update promo: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PromoRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM promo_codes WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete promo: %w", err)
	}
	return nil
}
