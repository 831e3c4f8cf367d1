package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/session"
)

// fakeCreditStore behaves like the database ledger: ConsumeCredit decrements
// atomically and reports false once the balance is exhausted.
type fakeCreditStore struct {
	mu           sync.Mutex
	credits      int
	unlimited    bool
	getErr       error
	consumeErr   error
	consumeCalls int
	addCalls     int
}

func (f *fakeCreditStore) GetBalance(ctx context.Context, userID int64) (models.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.Balance{}, f.getErr
	}
	return models.Balance{Credits: f.credits, IsUnlimited: f.unlimited}, nil
}

func (f *fakeCreditStore) ConsumeCredit(ctx context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumeCalls++
	if f.consumeErr != nil {
		return false, f.consumeErr
	}
	if f.unlimited {
		return true, nil
	}
	if f.credits < 1 {
		return false, nil
	}
	f.credits--
	return true, nil
}

func (f *fakeCreditStore) AddCredits(ctx context.Context, userID int64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	f.credits += delta
	if f.credits < 0 {
		f.credits = 0
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCreditFixture(store *fakeCreditStore) (*CreditService, *session.Store) {
	sessions := session.NewStore(0)
	return NewCreditService(store, sessions, testLogger()), sessions
}

func TestCreditBalanceGuestIsZero(t *testing.T) {
	store := &fakeCreditStore{credits: 5}
	svc, _ := newCreditFixture(store)

	bal, err := svc.Balance(context.Background(), 0)

	require.NoError(t, err)
	assert.Zero(t, bal.Credits)
	assert.False(t, bal.IsUnlimited)
}

func TestCreditBalanceUpdatesMirror(t *testing.T) {
	store := &fakeCreditStore{credits: 3}
	svc, sessions := newCreditFixture(store)

	bal, err := svc.Balance(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 3, bal.Credits)
	assert.Equal(t, 3, sessions.Get(session.UserKey(1)).Credits)
}

func TestCreditHasSufficientRefetches(t *testing.T) {
	store := &fakeCreditStore{credits: 2}
	svc, sessions := newCreditFixture(store)

	// The mirror claims credits exist, but the store is the authority.
	sessions.SetBalance(session.UserKey(1), 10, false)
	store.mu.Lock()
	store.credits = 0
	store.mu.Unlock()

	ok, err := svc.HasSufficient(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, sessions.Get(session.UserKey(1)).Credits)
}

func TestCreditConsumeGuest(t *testing.T) {
	svc, _ := newCreditFixture(&fakeCreditStore{credits: 5})

	debited, err := svc.Consume(context.Background(), 0)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, debited)
}

func TestCreditConsumeSuccess(t *testing.T) {
	store := &fakeCreditStore{credits: 2}
	svc, sessions := newCreditFixture(store)
	_, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)

	debited, err := svc.Consume(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, debited)
	assert.Equal(t, 1, store.credits)
	assert.Equal(t, 1, sessions.Get(session.UserKey(1)).Credits)
}

func TestCreditConsumeUnlimitedSkipsRemote(t *testing.T) {
	store := &fakeCreditStore{unlimited: true}
	svc, _ := newCreditFixture(store)
	_, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)

	debited, err := svc.Consume(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, debited)
	assert.Zero(t, store.consumeCalls)
}

func TestCreditConsumeUnlimitedWithStaleMirror(t *testing.T) {
	store := &fakeCreditStore{unlimited: true}
	svc, _ := newCreditFixture(store)

	// The mirror was never refreshed, so the local unlimited short-circuit
	// cannot apply; the remote consume must still report success without
	// touching credits.
	debited, err := svc.Consume(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, debited)
	assert.Equal(t, 1, store.consumeCalls)
	assert.Zero(t, store.credits)
}

func TestCreditConsumeServerDenies(t *testing.T) {
	store := &fakeCreditStore{credits: 0}
	svc, sessions := newCreditFixture(store)
	sessions.SetBalance(session.UserKey(1), 4, false)

	debited, err := svc.Consume(context.Background(), 1)

	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.False(t, debited)
	// The optimistic mirror decrement is rolled back by the resync.
	assert.Zero(t, sessions.Get(session.UserKey(1)).Credits)
}

func TestCreditConsumeTransportFailure(t *testing.T) {
	store := &fakeCreditStore{credits: 5, consumeErr: errors.New("network down")}
	svc, sessions := newCreditFixture(store)
	_, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)

	debited, err := svc.Consume(context.Background(), 1)

	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.False(t, debited)
	// Resync restored the authoritative value after the optimistic decrement.
	assert.Equal(t, 5, sessions.Get(session.UserKey(1)).Credits)
}

func TestCreditConsumeConcurrentLastCredit(t *testing.T) {
	store := &fakeCreditStore{credits: 1}
	svc, _ := newCreditFixture(store)
	_, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			debited, err := svc.Consume(context.Background(), 1)
			if err == nil && debited {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Zero(t, store.credits)
}

func TestCreditConsumeLastCreditBlocksNextAttempt(t *testing.T) {
	store := &fakeCreditStore{credits: 1}
	svc, sessions := newCreditFixture(store)

	debited, err := svc.Consume(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, debited)

	assert.Zero(t, store.credits)
	assert.Zero(t, sessions.Get(session.UserKey(1)).Credits)

	ok, err := svc.HasSufficient(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreditRefundRestoresBalance(t *testing.T) {
	store := &fakeCreditStore{credits: 3}
	svc, sessions := newCreditFixture(store)

	debited, err := svc.Consume(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, debited)

	require.NoError(t, svc.Refund(context.Background(), 1))

	assert.Equal(t, 3, store.credits)
	assert.Equal(t, 3, sessions.Get(session.UserKey(1)).Credits)
}

func TestCreditRefundGuest(t *testing.T) {
	svc, _ := newCreditFixture(&fakeCreditStore{})
	assert.ErrorIs(t, svc.Refund(context.Background(), 0), ErrUnauthenticated)
}

func TestCreditGrant(t *testing.T) {
	store := &fakeCreditStore{credits: 1}
	svc, sessions := newCreditFixture(store)

	require.NoError(t, svc.Grant(context.Background(), 1, 5))

	assert.Equal(t, 6, store.credits)
	assert.Equal(t, 6, sessions.Get(session.UserKey(1)).Credits)
}
