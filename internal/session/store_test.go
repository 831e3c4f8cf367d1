package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetUnknownKeyIsZero(t *testing.T) {
	s := NewStore(0)
	sess := s.Get("user:1")
	assert.Zero(t, sess.Credits)
	assert.False(t, sess.Unlimited)
}

func TestStoreSetBalanceClampsNegative(t *testing.T) {
	s := NewStore(0)
	s.SetBalance("user:1", -3, false)
	assert.Zero(t, s.Get("user:1").Credits)
}

func TestStoreApplyDebitNeverBelowZero(t *testing.T) {
	s := NewStore(0)
	s.SetBalance("user:1", 1, false)

	s.ApplyDebit("user:1")
	assert.Zero(t, s.Get("user:1").Credits)

	s.ApplyDebit("user:1")
	assert.Zero(t, s.Get("user:1").Credits)
}

func TestStoreSelectPersona(t *testing.T) {
	s := NewStore(0)
	s.SelectPersona("user:1", "noir-detective")
	assert.Equal(t, "noir-detective", s.Get("user:1").SelectedPersonaID)
}

func TestStoreRestoreFreshGuestState(t *testing.T) {
	s := NewStore(10 * time.Minute)
	s.StageGuest("guest-abc", GuestState{SelectedPersonaID: "noir-detective", SelfieURL: "https://cdn/selfie.jpg"})

	state, ok := s.Restore("guest-abc", UserKey(7))

	require.True(t, ok)
	assert.Equal(t, "noir-detective", state.SelectedPersonaID)
	assert.Equal(t, "https://cdn/selfie.jpg", state.SelfieURL)
	assert.Equal(t, "noir-detective", s.Get(UserKey(7)).SelectedPersonaID)
}

func TestStoreRestoreDropsStaleState(t *testing.T) {
	s := NewStore(10 * time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.StageGuest("guest-abc", GuestState{SelectedPersonaID: "noir-detective"})

	s.now = func() time.Time { return base.Add(10*time.Minute + time.Second) }
	_, ok := s.Restore("guest-abc", UserKey(7))

	assert.False(t, ok)
	assert.Empty(t, s.Get(UserKey(7)).SelectedPersonaID)
}

func TestStoreRestoreConsumesGuestEntry(t *testing.T) {
	s := NewStore(10 * time.Minute)
	s.StageGuest("guest-abc", GuestState{SelectedPersonaID: "noir-detective"})

	_, ok := s.Restore("guest-abc", UserKey(7))
	require.True(t, ok)

	_, ok = s.Restore("guest-abc", UserKey(8))
	assert.False(t, ok)
}

func TestStoreClearRemovesSession(t *testing.T) {
	s := NewStore(0)
	s.SetBalance("user:1", 5, false)
	s.SelectPersona("user:1", "noir-detective")

	s.Clear("user:1")

	sess := s.Get("user:1")
	assert.Zero(t, sess.Credits)
	assert.Empty(t, sess.SelectedPersonaID)
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user:42", UserKey(42))
}
