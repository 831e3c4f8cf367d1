package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/posterme/backend/internal/config"
	"github.com/posterme/backend/internal/models"
)

// Client wraps the Gemini API for poster composition and persona discovery.
type Client struct {
	client     *genai.Client
	imageModel string
	textModel  string
	log        *slog.Logger
}

// PosterRequest carries one composition attempt: the user's selfie, the
// persona prompt, and an optional previously cached face description that
// lets the model skip re-analyzing the face.
type PosterRequest struct {
	Selfie          []byte
	Mime            string
	Prompt          string
	FaceDescription string
}

// PosterResult is a finished composite plus the face description the model
// produced, cached by the caller for later requests.
type PosterResult struct {
	Image           []byte
	Mime            string
	FaceDescription string
}

func NewClient(ctx context.Context, cfg config.Config, log *slog.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:     client,
		imageModel: cfg.GeminiImageModel,
		textModel:  cfg.GeminiTextModel,
		log:        log,
	}, nil
}

// GeneratePoster composes the selfie into the persona's poster style. Any
// response without an image part is a generation failure.
func (c *Client) GeneratePoster(ctx context.Context, req PosterRequest) (*PosterResult, error) {
	if len(req.Selfie) == 0 {
		return nil, fmt.Errorf("selfie image is required")
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("persona prompt is required")
	}
	mime := req.Mime
	if mime == "" {
		mime = "image/jpeg"
	}

	instruction := buildPosterInstruction(req.Prompt, req.FaceDescription)
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Selfie, mime),
		genai.NewPartFromText(instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	result := &PosterResult{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			result.Image = part.InlineData.Data
			result.Mime = part.InlineData.MIMEType
			continue
		}
		if part.Text != "" {
			result.FaceDescription = strings.TrimSpace(part.Text)
		}
	}
	if len(result.Image) == 0 {
		return nil, fmt.Errorf("gemini response contained no image")
	}
	if result.Mime == "" {
		result.Mime = "image/png"
	}
	return result, nil
}

// SuggestPersonas asks the text model for new persona ideas around a theme.
func (c *Client) SuggestPersonas(ctx context.Context, theme string, count int) ([]models.Persona, error) {
	if count <= 0 {
		count = 3
	}
	prompt := fmt.Sprintf(`Suggest %d new themed poster styles for the theme %q.
Respond with a JSON array only, no prose. Each element must have:
  "name": short display name,
  "category": one of "movie", "series", "youtube", "other",
  "prompt": a full natural-language instruction for compositing a person into a poster of that style.`, count, theme)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini suggest: %w", err)
	}

	raw := stripCodeFence(resp.Text())
	var suggestions []struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		Prompt   string `json:"prompt"`
	}
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w (body=%s)", err, truncate(raw))
	}

	personas := make([]models.Persona, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Name == "" || s.Prompt == "" {
			continue
		}
		category := models.Category(strings.ToLower(s.Category))
		switch category {
		case models.CategoryMovie, models.CategorySeries, models.CategoryYouTube:
		default:
			category = models.CategoryOther
		}
		personas = append(personas, models.Persona{
			ID:       uuid.NewString(),
			Name:     s.Name,
			Category: category,
			Prompt:   s.Prompt,
			Visible:  true,
		})
	}
	if len(personas) == 0 {
		return nil, fmt.Errorf("no usable suggestions in response")
	}
	return personas, nil
}

func buildPosterInstruction(prompt, faceDescription string) string {
	var b strings.Builder
	b.WriteString("Composite the person from the attached photo into the following poster style, keeping their facial likeness recognizable.\n\n")
	b.WriteString(prompt)
	if faceDescription != "" {
		b.WriteString("\n\nKnown face description from a previous session, reuse it instead of re-analyzing: ")
		b.WriteString(faceDescription)
	}
	b.WriteString("\n\nAfter the image, reply with one short paragraph of text describing the person's face for reuse in later sessions.")
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	const limit = 512
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
