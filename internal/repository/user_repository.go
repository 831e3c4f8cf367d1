package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/posterme/backend/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DB() *sql.DB {
	return r.db
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `
SELECT id, email, COALESCE(display_name, ''), password_hash, credits, is_unlimited, created_at, updated_at
FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `
SELECT id, email, COALESCE(display_name, ''), password_hash, credits, is_unlimited, created_at, updated_at
FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var unlimited int
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Credits, &unlimited, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsUnlimited = unlimited != 0
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
INSERT INTO users (email, display_name, password_hash, credits, is_unlimited)
VALUES (?, NULLIF(?, ''), ?, ?, ?)`
	unlimited := 0
	if user.IsUnlimited {
		unlimited = 1
	}
	res, err := r.db.ExecContext(ctx, query, user.Email, user.DisplayName, user.PasswordHash, user.Credits, unlimited)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	user.ID = id
	return user, nil
}

// GetBalance reads the authoritative credit state for one user. A missing row
// reads as a zero balance rather than an error.
func (r *UserRepository) GetBalance(ctx context.Context, userID int64) (models.Balance, error) {
	const query = `SELECT credits, is_unlimited FROM users WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	var bal models.Balance
	var unlimited int
	if err := row.Scan(&bal.Credits, &unlimited); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Balance{}, nil
		}
		return models.Balance{}, fmt.Errorf("scan balance: %w", err)
	}
	bal.IsUnlimited = unlimited != 0
	return bal, nil
}

// ConsumeCredit atomically deducts one credit. The conditional update makes
// concurrent consumers race on the same row: with one credit left, exactly
// one caller sees true. Unlimited identities short-circuit before the update;
// the driver reports changed rows, not matched rows, so an update that
// leaves the row byte-identical would read as a denial.
func (r *UserRepository) ConsumeCredit(ctx context.Context, userID int64) (bool, error) {
	var unlimited int
	row := r.db.QueryRowContext(ctx, `SELECT is_unlimited FROM users WHERE id = ?`, userID)
	if err := row.Scan(&unlimited); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check unlimited: %w", err)
	}
	if unlimited != 0 {
		return true, nil
	}

	const query = `
UPDATE users SET credits = credits - 1, updated_at = NOW()
WHERE id = ? AND credits >= 1 AND is_unlimited = 0`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume rows affected: %w", err)
	}
	return affected > 0, nil
}

// AddCredits adjusts the balance by delta, clamped at zero. Used for payment
// grants, promo bonuses, and refunds.
func (r *UserRepository) AddCredits(ctx context.Context, userID int64, delta int) error {
	const query = `UPDATE users SET credits = GREATEST(credits + ?, 0), updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, delta, userID); err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

func (r *UserRepository) SetUnlimited(ctx context.Context, userID int64, unlimited bool) error {
	value := 0
	if unlimited {
		value = 1
	}
	const query = `UPDATE users SET is_unlimited = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, value, userID); err != nil {
		return fmt.Errorf("set unlimited: %w", err)
	}
	return nil
}
