package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/service"
)

func (s *Server) handleAdminListPersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Personas())
}

func (s *Server) handleAdminUpsertPersona(w http.ResponseWriter, r *http.Request) {
	var override models.PersonaOverride
	if err := json.NewDecoder(r.Body).Decode(&override); err != nil {
		s.badRequest(w, err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		override.ID = id
	}
	if override.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.catalog.Upsert(r.Context(), override); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": override.ID})
}

func (s *Server) handleAdminDeletePersona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var input service.CreatePlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.badRequest(w, err)
		return
	}
	plan, err := s.plans.Create(r.Context(), input)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var input service.UpdatePlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.badRequest(w, err)
		return
	}
	plan, err := s.plans.Update(r.Context(), id, input)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.plans.Delete(r.Context(), id); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := s.promos.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promos)
}

type promoRequest struct {
	Code    string `json:"code"`
	MaxUses int    `json:"max_uses"`
	Uses    int    `json:"uses"`
}

func (s *Server) handleCreatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	promo, err := s.promos.Create(r.Context(), req.Code, req.MaxUses)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, promo)
}

func (s *Server) handleUpdatePromo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	promo, err := s.promos.Update(r.Context(), id, req.Code, req.MaxUses, req.Uses)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promo)
}

func (s *Server) handleDeletePromo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.promos.Delete(r.Context(), id); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	count, err := s.dailyCounts.CountForDay(r.Context(), id, todayUTC())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":              user,
		"generations_today": count,
	})
}

// handleAdminRefund credits one generation back to a user. Support-desk only;
// the generation flow performs its own refunds.
func (s *Server) handleAdminRefund(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.credits.Refund(r.Context(), id); err != nil {
		s.internalError(w, err)
		return
	}
	bal, err := s.credits.Balance(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

type unlimitedRequest struct {
	Unlimited bool `json:"unlimited"`
}

func (s *Server) handleAdminSetUnlimited(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req unlimitedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.users.SetUnlimited(r.Context(), id, req.Unlimited); err != nil {
		s.internalError(w, err)
		return
	}
	bal, err := s.credits.Balance(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
