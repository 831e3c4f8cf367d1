package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/repository"
)

var ErrPromoInvalid = errors.New("promo code invalid")
var ErrPromoAlreadyRedeemed = errors.New("promo code already redeemed")
var ErrPromoExhausted = errors.New("promo code exhausted")

// PromoService redeems bonus-credit codes. Redemption runs in a transaction
// with the code row locked so a code's use count can never exceed max_uses
// under concurrent redeems.
type PromoService struct {
	promos  *repository.PromoRepository
	credits *CreditService
}

func NewPromoService(promos *repository.PromoRepository, credits *CreditService) *PromoService {
	return &PromoService{promos: promos, credits: credits}
}

func (s *PromoService) Redeem(ctx context.Context, userID int64, code string, bonus int) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	promo, err := s.promos.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("get promo: %w", err)
	}
	if promo == nil {
		return ErrPromoInvalid
	}

	tx, err := s.promos.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var uses, maxUses int
	row := tx.QueryRowContext(ctx, `SELECT uses, max_uses FROM promo_codes WHERE id = ? FOR UPDATE`, promo.ID)
	if err := row.Scan(&uses, &maxUses); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPromoInvalid
		}
		return fmt.Errorf("lock promo: %w", err)
	}
	if uses >= maxUses {
		return ErrPromoExhausted
	}

	row = tx.QueryRowContext(ctx, `SELECT 1 FROM promo_redemptions WHERE user_id = ? AND promo_code_id = ?`, userID, promo.ID)
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check redemption: %w", err)
		}
	} else {
		return ErrPromoAlreadyRedeemed
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO promo_redemptions (user_id, promo_code_id) VALUES (?, ?)`, userID, promo.ID); err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE promo_codes SET uses = uses + 1 WHERE id = ?`, promo.ID); err != nil {
		return fmt.Errorf("increment promo uses: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET credits = credits + ?, updated_at = NOW() WHERE id = ?`, bonus, userID); err != nil {
		return fmt.Errorf("add promo credits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit promo tx: %w", err)
	}

	// Refresh the session mirror after the out-of-band grant.
	_, _ = s.credits.Balance(ctx, userID)
	return nil
}

func (s *PromoService) List(ctx context.Context) ([]models.PromoCode, error) {
	return s.promos.List(ctx)
}

func (s *PromoService) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	return s.promos.GetByID(ctx, id)
}

func (s *PromoService) Create(ctx context.Context, code string, maxUses int) (*models.PromoCode, error) {
	return s.promos.Create(ctx, code, maxUses)
}

func (s *PromoService) Update(ctx context.Context, id int64, code string, maxUses, uses int) (*models.PromoCode, error) {
	return s.promos.Update(ctx, id, code, maxUses, uses)
}

func (s *PromoService) Delete(ctx context.Context, id int64) error {
	return s.promos.Delete(ctx, id)
}
