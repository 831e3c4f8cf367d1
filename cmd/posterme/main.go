package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/posterme/backend/internal/api"
	"github.com/posterme/backend/internal/auth"
	"github.com/posterme/backend/internal/catalog"
	"github.com/posterme/backend/internal/config"
	"github.com/posterme/backend/internal/database"
	"github.com/posterme/backend/internal/gemini"
	"github.com/posterme/backend/internal/payment"
	"github.com/posterme/backend/internal/repository"
	"github.com/posterme/backend/internal/service"
	"github.com/posterme/backend/internal/session"
	"github.com/posterme/backend/internal/storage"
	"github.com/posterme/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	geminiClient, err := gemini.NewClient(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("gemini client: %v", err)
	}

	cashfree := payment.NewClient(cfg.CashfreeBaseURL, cfg.CashfreeClientID, cfg.CashfreeClientSecret)

	userRepo := repository.NewUserRepository(db)
	personaRepo := repository.NewPersonaRepository(db)
	creationRepo := repository.NewCreationRepository(db)
	generationRepo := repository.NewGenerationRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	planRepo := repository.NewPlanRepository(db)

	uploader, err := storage.NewUploader(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
		Prefix:        cfg.S3Prefix,
	})
	if err != nil {
		log.Fatalf("storage uploader: %v", err)
	}

	sessions := session.NewStore(cfg.GuestRestoreTTL)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	personas := catalog.New(catalog.Default())

	userService := service.NewUserService(userRepo)
	creditService := service.NewCreditService(userRepo, sessions, logr)
	catalogService := service.NewCatalogService(logr, personaRepo, personas)
	discoveryService := service.NewDiscoveryService(logr, geminiClient, personaRepo, personas, cfg.DiscoveryCount)
	generationService := service.NewGenerationService(logr, personas, creditService, creationRepo, generationRepo, geminiClient, uploader, cfg.GenerationTimeout)
	planService := service.NewPlanService(cfg, planRepo)
	paymentService := service.NewPaymentService(cfg, logr, paymentRepo, creditService, planService, cashfree)
	promoService := service.NewPromoService(promoRepo, creditService)

	if err := planService.EnsureDefaultPlan(ctx); err != nil {
		log.Fatalf("ensure default plan: %v", err)
	}

	catalogService.Refresh(ctx)
	go refreshLoop(ctx, catalogService, cfg.CatalogRefreshInterval)

	server := api.NewServer(cfg, logr, tokens, sessions,
		userService, creditService, catalogService, discoveryService,
		generationService, paymentService, planService, promoService,
		generationRepo)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("api server stopped", "err", err)
	}
}

func refreshLoop(ctx context.Context, cat *service.CatalogService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cat.Refresh(ctx)
		}
	}
}
