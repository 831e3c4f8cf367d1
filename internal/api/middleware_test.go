package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterme/backend/internal/auth"
	"github.com/posterme/backend/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityPassesGuestsThrough(t *testing.T) {
	tm := auth.NewTokenManager("secret", "posterme", time.Hour)
	h := identity(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Zero(t, userIDFrom(r))
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/personas", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentityExtractsUserID(t *testing.T) {
	tm := auth.NewTokenManager("secret", "posterme", time.Hour)
	token, err := tm.Generate(models.User{ID: 42, Email: "a@example.com"})
	require.NoError(t, err)

	h := identity(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, int64(42), userIDFrom(r))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/credits", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentityRejectsBadToken(t *testing.T) {
	tm := auth.NewTokenManager("secret", "posterme", time.Hour)
	h := identity(tm)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/credits", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserBlocksGuests(t *testing.T) {
	h := requireUser(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generations", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	h := basicAuth("admin", "pass")(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/plans", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/plans", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/plans", nil)
	req.SetBasicAuth("admin", "pass")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
