package models

import "time"

type Category string

const (
	CategoryMovie   Category = "movie"
	CategorySeries  Category = "series"
	CategoryYouTube Category = "youtube"
	CategoryOther   Category = "other"
)

// Persona is a styling template driving poster generation. CoverURL may be
// empty, in which case a deterministic placeholder is derived from ID.
type Persona struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	CoverURL     string   `json:"cover_url,omitempty"`
	Prompt       string   `json:"prompt"`
	DisplayOrder int      `json:"display_order"`
	Visible      bool     `json:"is_visible"`
}

// PersonaOverride is a dynamically fetched persona record. Pointer fields
// distinguish "absent" from zero values so a shallow merge only applies the
// fields the record actually carries.
type PersonaOverride struct {
	ID           string    `json:"id"`
	Name         *string   `json:"name,omitempty"`
	Category     *Category `json:"category,omitempty"`
	CoverURL     *string   `json:"cover_url,omitempty"`
	Prompt       *string   `json:"prompt,omitempty"`
	DisplayOrder *int      `json:"display_order,omitempty"`
	Visible      *bool     `json:"is_visible,omitempty"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Credits      int       `json:"credits"`
	IsUnlimited  bool      `json:"is_unlimited"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Balance is the authoritative credit state for one identity.
type Balance struct {
	Credits     int  `json:"credits"`
	IsUnlimited bool `json:"is_unlimited"`
}

// Creation is a saved generated poster. FaceDescription caches the model's
// description of the user's face for reuse on later generations.
type Creation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	PersonaID       string    `json:"persona_id"`
	ImageURL        string    `json:"image_url"`
	FaceDescription string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationFailed    GenerationStatus = "failed"
)

type GenerationLog struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	PersonaID string           `json:"persona_id"`
	Prompt    string           `json:"prompt"`
	Status    GenerationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

type PromoCode struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	MaxUses   int       `json:"max_uses"`
	Uses      int       `json:"uses"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	PlanID        *int64    `json:"plan_id,omitempty"`
	Provider      string    `json:"provider"`
	ProviderOrder string    `json:"provider_order_id"`
	Currency      string    `json:"currency"`
	Amount        int       `json:"amount"`
	Status        string    `json:"status"`
	RawPayload    string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Plan is a purchasable credit package.
type Plan struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Currency        string    `json:"currency"`
	PriceMinorUnits int       `json:"price_minor_units"`
	Credits         int       `json:"credits"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
