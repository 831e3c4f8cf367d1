package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/posterme/backend/internal/catalog"
	"github.com/posterme/backend/internal/gemini"
	"github.com/posterme/backend/internal/models"
	"github.com/posterme/backend/internal/storage"
)

var ErrGenerationInFlight = errors.New("generation already in flight")
var ErrGenerationFailed = errors.New("generation failed")
var ErrPersonaNotFound = errors.New("persona not found")

// PosterGenerator is the generation collaborator.
type PosterGenerator interface {
	GeneratePoster(ctx context.Context, req gemini.PosterRequest) (*gemini.PosterResult, error)
}

type CreationStore interface {
	Create(ctx context.Context, creation *models.Creation) error
	ListByUser(ctx context.Context, userID int64) ([]models.Creation, error)
	LatestFaceDescription(ctx context.Context, userID int64) (string, error)
}

type GenerationLogStore interface {
	Log(ctx context.Context, userID int64, personaID, prompt string, status models.GenerationStatus) error
}

type Uploader interface {
	Upload(ctx context.Context, kind string, data []byte, contentType string) (string, error)
}

// GenerationService runs the debit-before-attempt workflow: gate on a fresh
// balance, consume one credit, call the generator under a timeout, and refund
// the one case where a confirmed debit delivered nothing usable.
type GenerationService struct {
	log       *slog.Logger
	catalog   *catalog.Catalog
	credits   *CreditService
	creations CreationStore
	logs      GenerationLogStore
	generator PosterGenerator
	uploader  Uploader
	timeout   time.Duration

	mu       sync.Mutex
	inflight map[int64]struct{}
}

type PosterInput struct {
	PersonaID string
	Selfie    []byte
	Mime      string
}

type Poster struct {
	Creation models.Creation `json:"creation"`
	ImageURL string          `json:"image_url"`
}

func NewGenerationService(log *slog.Logger, cat *catalog.Catalog, credits *CreditService, creations CreationStore, logs GenerationLogStore, generator PosterGenerator, uploader Uploader, timeout time.Duration) *GenerationService {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GenerationService{
		log:       log,
		catalog:   cat,
		credits:   credits,
		creations: creations,
		logs:      logs,
		generator: generator,
		uploader:  uploader,
		timeout:   timeout,
		inflight:  make(map[int64]struct{}),
	}
}

// CreatePoster executes one generation attempt for the user. At most one
// attempt runs per identity at a time; a second concurrent request returns
// ErrGenerationInFlight so the caller can drop it silently.
func (s *GenerationService) CreatePoster(ctx context.Context, userID int64, in PosterInput) (*Poster, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if !s.begin(userID) {
		return nil, ErrGenerationInFlight
	}
	defer s.end(userID)

	persona, ok := s.catalog.Get(in.PersonaID)
	if !ok {
		return nil, ErrPersonaNotFound
	}
	if len(in.Selfie) == 0 {
		return nil, fmt.Errorf("selfie image is required")
	}

	sufficient, err := s.credits.HasSufficient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance check: %w", err)
	}
	if !sufficient {
		// Blocked before any debit; the refund path must never run from here.
		return nil, ErrInsufficientCredits
	}

	debited, err := s.credits.Consume(ctx, userID)
	if err != nil {
		return nil, err
	}

	face, err := s.creations.LatestFaceDescription(ctx, userID)
	if err != nil {
		s.log.Warn("face description lookup failed", "user", userID, "err", err)
		face = ""
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.generator.GeneratePoster(genCtx, gemini.PosterRequest{
		Selfie:          in.Selfie,
		Mime:            in.Mime,
		Prompt:          persona.Prompt,
		FaceDescription: face,
	})
	if err != nil {
		return nil, s.fail(ctx, userID, persona, debited, err)
	}

	imageURL, err := s.uploader.Upload(ctx, storage.KindPoster, result.Image, result.Mime)
	if err != nil {
		// The debit bought nothing the user can see; treat like a failed
		// generation and compensate.
		return nil, s.fail(ctx, userID, persona, debited, err)
	}

	creation := models.Creation{
		UserID:          userID,
		PersonaID:       persona.ID,
		ImageURL:        imageURL,
		FaceDescription: result.FaceDescription,
	}
	if err := s.creations.Create(ctx, &creation); err != nil {
		s.log.Error("failed to save creation", "user", userID, "err", err)
	}
	if err := s.logs.Log(ctx, userID, persona.ID, persona.Prompt, models.GenerationSucceeded); err != nil {
		s.log.Error("failed to log generation", "user", userID, "err", err)
	}
	if _, err := s.credits.Balance(ctx, userID); err != nil {
		s.log.Warn("post-generation balance refresh failed", "user", userID, "err", err)
	}

	return &Poster{Creation: creation, ImageURL: imageURL}, nil
}

// fail records the failed attempt, refunds the single confirmed debit if one
// happened, and wraps the cause as a retryable generation failure.
func (s *GenerationService) fail(ctx context.Context, userID int64, persona models.Persona, debited bool, cause error) error {
	if err := s.logs.Log(ctx, userID, persona.ID, persona.Prompt, models.GenerationFailed); err != nil {
		s.log.Error("failed to log generation", "user", userID, "err", err)
	}
	if debited {
		if err := s.credits.Refund(ctx, userID); err != nil {
			// Operational concern, not a user-facing one: the user already
			// sees a generation failure.
			s.log.Error("refund failed after generation failure", "user", userID, "err", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrGenerationFailed, cause)
}

func (s *GenerationService) begin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return false
	}
	s.inflight[userID] = struct{}{}
	return true
}

func (s *GenerationService) end(userID int64) {
	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()
}

// Creations lists the user's saved posters.
func (s *GenerationService) Creations(ctx context.Context, userID int64) ([]models.Creation, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	creations, err := s.creations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list creations: %w", err)
	}
	return creations, nil
}
