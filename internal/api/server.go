package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/posterme/backend/internal/auth"
	"github.com/posterme/backend/internal/config"
	"github.com/posterme/backend/internal/service"
	"github.com/posterme/backend/internal/session"
)

type Server struct {
	cfg         config.Config
	log         *slog.Logger
	router      *chi.Mux
	tokens      *auth.TokenManager
	sessions    *session.Store
	users       *service.UserService
	credits     *service.CreditService
	catalog     *service.CatalogService
	discovery   *service.DiscoveryService
	generations *service.GenerationService
	payments    *service.PaymentService
	plans       *service.PlanService
	promos      *service.PromoService
	dailyCounts DailyCounter
}

// DailyCounter reports how many posters a user generated on a given day.
type DailyCounter interface {
	CountForDay(ctx context.Context, userID int64, day time.Time) (int, error)
}

func NewServer(
	cfg config.Config,
	log *slog.Logger,
	tokens *auth.TokenManager,
	sessions *session.Store,
	users *service.UserService,
	credits *service.CreditService,
	catalogSvc *service.CatalogService,
	discovery *service.DiscoveryService,
	generations *service.GenerationService,
	payments *service.PaymentService,
	plans *service.PlanService,
	promos *service.PromoService,
	dailyCounts DailyCounter,
) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:         cfg,
		log:         log,
		router:      r,
		tokens:      tokens,
		sessions:    sessions,
		users:       users,
		credits:     credits,
		catalog:     catalogSvc,
		discovery:   discovery,
		generations: generations,
		payments:    payments,
		plans:       plans,
		promos:      promos,
		dailyCounts: dailyCounts,
	}

	r.Post("/webhook/cashfree", s.handleCashfreeWebhook)

	r.Route("/api", func(api chi.Router) {
		api.Use(identity(tokens))

		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)
		api.Get("/personas", s.handleListPersonas)
		api.Get("/credits", s.handleBalance)
		api.Post("/session/selection", s.handleSelection)

		api.Group(func(private chi.Router) {
			private.Use(requireUser)
			private.Post("/auth/logout", s.handleLogout)
			private.Post("/personas/discover", s.handleDiscover)
			private.Post("/generations", s.handleGenerate)
			private.Get("/creations", s.handleListCreations)
			private.Post("/payments/order", s.handleCreateOrder)
			private.Get("/payments/verify", s.handleVerifyOrder)
			private.Post("/promo/redeem", s.handleRedeemPromo)
		})
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(basicAuth(cfg.AdminUsername, cfg.AdminPassword))
		admin.Route("/personas", func(r chi.Router) {
			r.Get("/", s.handleAdminListPersonas)
			r.Post("/", s.handleAdminUpsertPersona)
			r.Put("/{id}", s.handleAdminUpsertPersona)
			r.Delete("/{id}", s.handleAdminDeletePersona)
		})
		admin.Route("/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Post("/", s.handleCreatePlan)
			r.Put("/{id}", s.handleUpdatePlan)
			r.Delete("/{id}", s.handleDeletePlan)
		})
		admin.Route("/promo-codes", func(r chi.Router) {
			r.Get("/", s.handleListPromos)
			r.Post("/", s.handleCreatePromo)
			r.Put("/{id}", s.handleUpdatePromo)
			r.Delete("/{id}", s.handleDeletePromo)
		})
		admin.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", s.handleAdminGetUser)
			r.Post("/refund", s.handleAdminRefund)
			r.Post("/unlimited", s.handleAdminSetUnlimited)
		})
	})

	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.cfg.ListenAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
