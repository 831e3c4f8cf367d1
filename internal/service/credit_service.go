package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/session"
)

var ErrUnauthenticated = errors.New("sign-in required")
var ErrInsufficientCredits = errors.New("insufficient credits, top-up required")

// CreditStore is the authoritative ledger. ConsumeCredit must be atomic per
// identity: with one credit remaining, concurrent calls see exactly one true.
type CreditStore interface {
	GetBalance(ctx context.Context, userID int64) (models.Balance, error)
	ConsumeCredit(ctx context.Context, userID int64) (bool, error)
	AddCredits(ctx context.Context, userID int64, delta int) error
}

// CreditService gates generation behind the unit-cost credit protocol. The
// remote store owns the balance; the session store only mirrors it for
// display.
type CreditService struct {
	store    CreditStore
	sessions *session.Store
	log      *slog.Logger
}

func NewCreditService(store CreditStore, sessions *session.Store, log *slog.Logger) *CreditService {
	return &CreditService{store: store, sessions: sessions, log: log}
}

// Balance reads the authoritative balance and overwrites the session mirror.
// Guests have no identity and read as zero without a store call.
func (s *CreditService) Balance(ctx context.Context, userID int64) (models.Balance, error) {
	if userID == 0 {
		return models.Balance{}, nil
	}
	bal, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return models.Balance{}, err
	}
	s.sessions.SetBalance(session.UserKey(userID), bal.Credits, bal.IsUnlimited)
	return bal, nil
}

// HasSufficient re-fetches before evaluating; the mirror is never trusted for
// this gate because only the remote store can prevent over-consumption across
// devices.
func (s *CreditService) HasSufficient(ctx context.Context, userID int64) (bool, error) {
	bal, err := s.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return bal.IsUnlimited || bal.Credits > 0, nil
}

// Consume performs the unit-cost debit. The returned debited flag tells the
// caller whether a remote deduction actually happened, so only confirmed
// debits are ever refunded. Both a transport failure and an explicit server
// "no funds" re-fetch truth and surface ErrInsufficientCredits; the
// optimistic mirror decrement is rolled back by that re-fetch.
func (s *CreditService) Consume(ctx context.Context, userID int64) (debited bool, err error) {
	if userID == 0 {
		return false, ErrUnauthenticated
	}
	key := session.UserKey(userID)
	if s.sessions.Get(key).Unlimited {
		return false, nil
	}

	s.sessions.ApplyDebit(key)

	ok, err := s.store.ConsumeCredit(ctx, userID)
	if err != nil {
		s.log.Warn("consume transport failure, refetching balance", "user", userID, "err", err)
		s.resync(ctx, userID)
		return false, ErrInsufficientCredits
	}
	if !ok {
		s.resync(ctx, userID)
		return false, ErrInsufficientCredits
	}
	return true, nil
}

// Refund is the compensating credit for a debited generation that produced no
// usable output. Callers invoke it at most once per failed attempt.
func (s *CreditService) Refund(ctx context.Context, userID int64) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	if err := s.store.AddCredits(ctx, userID, 1); err != nil {
		return err
	}
	s.resync(ctx, userID)
	return nil
}

// Grant adds purchased or bonus credits and refreshes the mirror.
func (s *CreditService) Grant(ctx context.Context, userID int64, credits int) error {
	if err := s.store.AddCredits(ctx, userID, credits); err != nil {
		return err
	}
	s.resync(ctx, userID)
	return nil
}

func (s *CreditService) resync(ctx context.Context, userID int64) {
	if _, err := s.Balance(ctx, userID); err != nil {
		s.log.Warn("balance resync failed", "user", userID, "err", err)
	}
}
