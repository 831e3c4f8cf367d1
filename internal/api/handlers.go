package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/service"
	"github.com/posterme/backend/internal/session"
)

const maxSelfieBytes = 10 << 20

type registerRequest struct {
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	Password       string `json:"password"`
	GuestSessionID string `json:"guest_session_id,omitempty"`
}

type loginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	GuestSessionID string `json:"guest_session_id,omitempty"`
}

type authResponse struct {
	Token    string              `json:"token"`
	User     *models.User        `json:"user"`
	Restored *session.GuestState `json:"restored,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	user, err := s.users.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		s.badRequest(w, err)
		return
	}
	s.finishAuth(w, r, user, req.GuestSessionID)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.internalError(w, err)
		return
	}
	s.finishAuth(w, r, user, req.GuestSessionID)
}

// finishAuth issues a token and carries any staged guest selection into the
// authenticated session. Stale guest state is discarded by the store.
func (s *Server) finishAuth(w http.ResponseWriter, r *http.Request, user *models.User, guestSessionID string) {
	token, err := s.tokens.Generate(*user)
	if err != nil {
		s.internalError(w, err)
		return
	}
	resp := authResponse{Token: token, User: user}
	if guestSessionID != "" {
		if state, ok := s.sessions.Restore(guestSessionID, session.UserKey(user.ID)); ok {
			resp.Restored = &state
		}
	}
	if _, err := s.credits.Balance(r.Context(), user.ID); err != nil {
		s.log.Warn("balance refresh after auth failed", "user_id", user.ID, "err", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(session.UserKey(userIDFrom(r)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Personas())
}

type discoverRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	if strings.TrimSpace(req.Theme) == "" {
		writeError(w, http.StatusBadRequest, "theme is required")
		return
	}
	personas, err := s.discovery.Discover(r.Context(), req.Theme)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, personas)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.credits.Balance(r.Context(), userIDFrom(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

type selectionRequest struct {
	PersonaID string `json:"persona_id"`
	SelfieURL string `json:"selfie_url,omitempty"`
}

// handleSelection records the caller's current persona pick. Guests stage it
// under their session header so a later sign-in can pick up where they left
// off.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	if req.PersonaID == "" {
		writeError(w, http.StatusBadRequest, "persona_id is required")
		return
	}
	if userID := userIDFrom(r); userID != 0 {
		s.sessions.SelectPersona(session.UserKey(userID), req.PersonaID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "selected"})
		return
	}
	guestKey := r.Header.Get("X-Session-ID")
	if guestKey == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header is required for guests")
		return
	}
	s.sessions.StageGuest(guestKey, session.GuestState{
		SelectedPersonaID: req.PersonaID,
		SelfieURL:         req.SelfieURL,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "staged"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxSelfieBytes); err != nil {
		s.badRequest(w, err)
		return
	}
	personaID := r.FormValue("persona_id")
	if personaID == "" {
		writeError(w, http.StatusBadRequest, "persona_id is required")
		return
	}
	file, header, err := r.FormFile("selfie")
	if err != nil {
		writeError(w, http.StatusBadRequest, "selfie file is required")
		return
	}
	defer file.Close()
	selfie, err := io.ReadAll(io.LimitReader(file, maxSelfieBytes))
	if err != nil {
		s.internalError(w, err)
		return
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}

	poster, err := s.generations.CreatePoster(r.Context(), userIDFrom(r), service.PosterInput{
		PersonaID: personaID,
		Selfie:    selfie,
		Mime:      mime,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGenerationInFlight):
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "in_flight"})
		case errors.Is(err, service.ErrInsufficientCredits):
			writeError(w, http.StatusPaymentRequired, "not enough credits")
		case errors.Is(err, service.ErrPersonaNotFound):
			writeError(w, http.StatusNotFound, "unknown persona")
		case errors.Is(err, service.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "sign in to generate posters")
		case errors.Is(err, service.ErrGenerationFailed):
			writeError(w, http.StatusBadGateway, "generation failed, credit refunded, please retry")
		default:
			s.internalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, poster)
}

func (s *Server) handleListCreations(w http.ResponseWriter, r *http.Request) {
	creations, err := s.generations.Creations(r.Context(), userIDFrom(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creations)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.payments.CreateOrder(r.Context(), userIDFrom(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleVerifyOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	paid, err := s.payments.VerifyOrder(r.Context(), userIDFrom(r), orderID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "paid": paid})
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeemPromo(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	err := s.promos.Redeem(r.Context(), userIDFrom(r), strings.TrimSpace(req.Code), s.cfg.PromoBonusCredits)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromoInvalid):
			writeError(w, http.StatusNotFound, "promo code not found")
		case errors.Is(err, service.ErrPromoAlreadyRedeemed):
			writeError(w, http.StatusConflict, "promo code already redeemed")
		case errors.Is(err, service.ErrPromoExhausted):
			writeError(w, http.StatusGone, "promo code exhausted")
		default:
			s.internalError(w, err)
		}
		return
	}
	bal, err := s.credits.Balance(r.Context(), userIDFrom(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (s *Server) handleCashfreeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.payments.HandleWebhook(r.Context(), payload); err != nil {
		s.log.Error("cashfree webhook failed", "err", err)
		writeError(w, http.StatusBadRequest, "webhook rejected")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func todayUTC() time.Time {
	return time.Now().UTC()
}
