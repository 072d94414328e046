// Package settings provides the per-user generation settings model and its
// validated partial-update semantics.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ReasoningEffort controls how much reasoning budget OpenAI-style models spend.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// IsValid checks if the reasoning effort is one of the allowed values.
func (e ReasoningEffort) IsValid() bool {
	return e == ReasoningEffortMinimal || e == ReasoningEffortLow ||
		e == ReasoningEffortMedium || e == ReasoningEffortHigh
}

// Verbosity controls response length preference on models that honor it.
type Verbosity string

const (
	VerbosityLow    Verbosity = "low"
	VerbosityMedium Verbosity = "medium"
	VerbosityHigh   Verbosity = "high"
)

// IsValid checks if the verbosity is one of the allowed values.
func (v Verbosity) IsValid() bool {
	return v == VerbosityLow || v == VerbosityMedium || v == VerbosityHigh
}

// ErrInvalidSettings indicates a rejected cross-field constraint. The stored
// settings are left untouched when an update fails with this error.
var ErrInvalidSettings = errors.New("invalid settings")

// GenerationSettings captures a user's provider/model selection and
// generation preferences.
type GenerationSettings struct {
	UserID uint

	Model           string
	MaxTokens       int
	Temperature     float32
	ThinkingEnabled bool
	ThinkingBudget  int
	SearchEnabled   bool
	ReasoningEffort ReasoningEffort
	Verbosity       Verbosity

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Defaults mirror the bot's original per-user defaults.
const (
	DefaultModel          = "gemini-2.5-flash"
	DefaultMaxTokens      = 8192
	DefaultTemperature    = 0.7
	DefaultThinkingBudget = 2048
)

// DefaultSettings returns settings with safe defaults for a new user.
func DefaultSettings(userID uint) *GenerationSettings {
	return &GenerationSettings{
		UserID:          userID,
		Model:           DefaultModel,
		MaxTokens:       DefaultMaxTokens,
		Temperature:     DefaultTemperature,
		ThinkingEnabled: false,
		ThinkingBudget:  DefaultThinkingBudget,
		SearchEnabled:   false,
		ReasoningEffort: ReasoningEffortMedium,
		Verbosity:       VerbosityMedium,
	}
}

// UpdateRequest represents a partial settings update. Only non-nil fields
// are merged into the stored settings.
type UpdateRequest struct {
	Model           *string          `json:"model,omitempty"`
	MaxTokens       *int             `json:"max_tokens,omitempty"`
	Temperature     *float32         `json:"temperature,omitempty"`
	ThinkingEnabled *bool            `json:"thinking_enabled,omitempty"`
	ThinkingBudget  *int             `json:"thinking_budget,omitempty"`
	SearchEnabled   *bool            `json:"search_enabled,omitempty"`
	ReasoningEffort *ReasoningEffort `json:"reasoning_effort,omitempty"`
	Verbosity       *Verbosity       `json:"verbosity,omitempty"`
}

// Apply merges non-nil fields from the request into the settings.
func (s *GenerationSettings) Apply(req UpdateRequest) {
	if req.Model != nil {
		s.Model = *req.Model
	}
	if req.MaxTokens != nil {
		s.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		s.Temperature = *req.Temperature
	}
	if req.ThinkingEnabled != nil {
		s.ThinkingEnabled = *req.ThinkingEnabled
	}
	if req.ThinkingBudget != nil {
		s.ThinkingBudget = *req.ThinkingBudget
	}
	if req.SearchEnabled != nil {
		s.SearchEnabled = *req.SearchEnabled
	}
	if req.ReasoningEffort != nil {
		s.ReasoningEffort = *req.ReasoningEffort
	}
	if req.Verbosity != nil {
		s.Verbosity = *req.Verbosity
	}
}

// Validate enforces cross-field constraints. The thinking budget must leave
// room for the answer itself, so it has to stay below max tokens.
func (s *GenerationSettings) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidSettings)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidSettings, s.MaxTokens)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0, 2]", ErrInvalidSettings, s.Temperature)
	}
	if s.ThinkingBudget < 0 {
		return fmt.Errorf("%w: thinking budget must not be negative, got %d", ErrInvalidSettings, s.ThinkingBudget)
	}
	if s.ThinkingBudget >= s.MaxTokens {
		return fmt.Errorf("%w: thinking budget %d must be below max tokens %d", ErrInvalidSettings, s.ThinkingBudget, s.MaxTokens)
	}
	if !s.ReasoningEffort.IsValid() {
		return fmt.Errorf("%w: unknown reasoning effort %q", ErrInvalidSettings, s.ReasoningEffort)
	}
	if !s.Verbosity.IsValid() {
		return fmt.Errorf("%w: unknown verbosity %q", ErrInvalidSettings, s.Verbosity)
	}
	return nil
}

// Repository defines storage operations for generation settings.
type Repository interface {
	FindByUserID(ctx context.Context, userID uint) (*GenerationSettings, error)
	Upsert(ctx context.Context, settings *GenerationSettings) (*GenerationSettings, error)
	Update(ctx context.Context, settings *GenerationSettings) error
}
