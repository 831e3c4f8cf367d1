package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/posterme/backend/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	const query = `
INSERT INTO payments (user_id, plan_id, provider, provider_order_id, currency, amount, status, raw_payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, payment.UserID, payment.PlanID, payment.Provider, payment.ProviderOrder, payment.Currency, payment.Amount, payment.Status, payment.RawPayload)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	payment.ID = id
	return nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status string, payload string) error {
	const query = `UPDATE payments SET status = ?, raw_payload = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, status, payload, paymentID); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// MarkPaid flips a payment to paid and reports whether this call made the
// transition. The conditional WHERE makes the transition atomic, so a webhook
// racing a client-side verify settles the same order exactly once.
func (r *PaymentRepository) MarkPaid(ctx context.Context, paymentID int64, payload string) (bool, error) {
	const query = `UPDATE payments SET status = 'paid', raw_payload = ?, updated_at = NOW() WHERE id = ? AND status <> 'paid'`
	res, err := r.db.ExecContext(ctx, query, payload, paymentID)
	if err != nil {
		return false, fmt.Errorf("mark payment paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PaymentRepository) FindByProviderOrder(ctx context.Context, provider, orderID string) (*models.Payment, error) {
	const query = `
SELECT id, user_id, plan_id, provider, provider_order_id, currency, amount, status, raw_payload, created_at, COALESCE(updated_at, created_at) as updated_at
FROM payments WHERE provider = ? AND provider_order_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, provider, orderID)
	var p models.Payment
	var planID sql.NullInt64
	if err := row.Scan(&p.ID, &p.UserID, &planID, &p.Provider, &p.ProviderOrder, &p.Currency, &p.Amount, &p.Status, &p.RawPayload, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	if planID.Valid {
		p.PlanID = &planID.Int64
	}
	return &p, nil
}
