// Package provider defines the vendor-agnostic LLM client contract, the
// capability metadata per model, and the registry that resolves a model
// identifier to the client serving it.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
)

// ErrorKind is the three-way failure taxonomy every vendor client maps its
// raw errors into. Raw vendor error bodies are logged, never surfaced.
type ErrorKind string

const (
	// ErrorKindUnavailable covers network failures, timeouts and 5xx
	// responses. Retryable by the caller.
	ErrorKindUnavailable ErrorKind = "unavailable"
	// ErrorKindRejected covers 4xx-equivalent failures (bad auth, invalid
	// request). Not retryable.
	ErrorKindRejected ErrorKind = "rejected"
	// ErrorKindRateLimited covers 429 responses. Retryable after backoff.
	ErrorKindRateLimited ErrorKind = "rate_limited"
)

// Error is a normalized provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a normalized provider failure.
func NewError(kind ErrorKind, providerName string, err error) *Error {
	return &Error{Kind: kind, Provider: providerName, Err: err}
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Kind, true
	}
	return "", false
}

// Substitution records a setting the client or registry silently replaced
// to satisfy provider constraints. Substitutions are response metadata, not
// errors.
type Substitution struct {
	Setting   string `json:"setting"`
	Requested string `json:"requested"`
	Applied   string `json:"applied"`
	Reason    string `json:"reason"`
}

// TokenUsage is the provider-reported token accounting for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MediaBlob is one generated media artifact.
type MediaBlob struct {
	MimeType string
	Data     []byte
}

// GenerationResult is the normalized outcome of one provider call. Text and
// thinking stay separate fields; presentation formatting is a caller concern.
type GenerationResult struct {
	Text          string
	Thinking      string
	Media         []MediaBlob
	Usage         TokenUsage
	UsedSearch    bool
	UsedThinking  bool
	Substitutions []Substitution
}

// Client is the single-operation contract every vendor client implements.
// Implementations are stateless per invocation: no local state is retained
// between calls beyond the HTTP client itself.
type Client interface {
	Name() string
	Generate(ctx context.Context, messages []conversation.Message, gen settings.GenerationSettings) (*GenerationResult, error)
}
