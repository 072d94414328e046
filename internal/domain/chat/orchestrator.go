package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/domain/user"
	"github.com/pepperbot/pepper-server/internal/infrastructure/logger"
	"github.com/pepperbot/pepper-server/internal/infrastructure/metrics"
)

// State tracks a message's progress through the pipeline.
type State string

const (
	StateReceived         State = "received"
	StateSettingsResolved State = "settings_resolved"
	StateContextAssembled State = "context_assembled"
	StateProviderInvoked  State = "provider_invoked"
	StatePersisted        State = "persisted"
	StateResponded        State = "responded"
	StateFailed           State = "failed"
)

// FailureKind classifies terminal pipeline failures.
type FailureKind string

const (
	FailureConfiguration     FailureKind = "configuration_error"
	FailureStorage           FailureKind = "storage_error"
	FailureProvider          FailureKind = "provider_error"
	FailureConversationReset FailureKind = "conversation_reset"
)

// Failure is the terminal error of a pipeline run.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("chat pipeline failed (%s): %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// FailureKindOf extracts the failure kind from an error, if it carries one.
func FailureKindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// Request is a normalized inbound user message, transport-agnostic.
type Request struct {
	Identity        user.Identity
	Text            string
	Attachments     []conversation.Attachment
	NewConversation bool
	HistoryLimit    int
}

// Response carries the generated reply plus the metadata the transport
// renders alongside it.
type Response struct {
	ConversationID    string
	Text              string
	Thinking          string
	Media             []provider.MediaBlob
	Provider          string
	ProviderLabel     string
	Model             string
	UsedThinking      bool
	UsedSearch        bool
	Usage             provider.TokenUsage
	Substitutions     []provider.Substitution
	PersistenceFailed bool
}

// Orchestrator drives a user message through settings resolution, context
// assembly, provider invocation and persistence.
type Orchestrator struct {
	users    *user.Service
	store    *conversation.Service
	registry *provider.Registry

	retryBaseDelay   time.Duration
	retryMaxAttempts int
	historyLimit     int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator constructs an Orchestrator with required dependencies.
func NewOrchestrator(users *user.Service, store *conversation.Service, registry *provider.Registry, retryBaseDelay time.Duration, retryMaxAttempts int) *Orchestrator {
	if retryMaxAttempts < 1 {
		retryMaxAttempts = 1
	}
	return &Orchestrator{
		users:            users,
		store:            store,
		registry:         registry,
		retryBaseDelay:   retryBaseDelay,
		retryMaxAttempts: retryMaxAttempts,
		historyLimit:     200,
		sleep:            sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Handle runs the full pipeline for one inbound message.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Response, error) {
	log := logger.GetLogger().With().
		Int64("external_user_id", req.Identity.ExternalID).
		Str("state", string(StateReceived)).
		Logger()

	usr, err := o.users.EnsureUser(ctx, req.Identity)
	if err != nil {
		if errors.Is(err, user.ErrInvalidIdentity) {
			return nil, newFailure(FailureConfiguration, err)
		}
		return nil, newFailure(FailureStorage, err)
	}

	var conv *conversation.Conversation
	if req.NewConversation {
		conv, err = o.store.StartNewConversation(ctx, usr.ID)
	} else {
		conv, err = o.store.GetActiveConversation(ctx, usr.ID)
	}
	if err != nil {
		return nil, newFailure(FailureStorage, err)
	}

	gen, err := o.store.GetUserSettings(ctx, usr.ID)
	if err != nil {
		return nil, newFailure(FailureStorage, err)
	}

	client, caps, err := o.registry.Resolve(gen.Model)
	if err != nil {
		return nil, newFailure(FailureConfiguration, err)
	}

	normalized, subs := provider.NormalizeSettings(*gen, caps)
	for _, sub := range subs {
		metrics.RecordSubstitution(sub.Setting)
	}
	log = log.With().
		Str("conversation_id", conv.PublicID).
		Str("model", caps.Model).
		Str("provider", caps.Provider).
		Logger()
	log.Debug().Str("state", string(StateSettingsResolved)).Msg("settings resolved")

	limit := req.HistoryLimit
	if limit <= 0 {
		limit = o.historyLimit
	}
	stored, err := o.store.GetHistory(ctx, conv.ID, limit)
	if err != nil {
		return nil, newFailure(FailureStorage, err)
	}
	history := make([]conversation.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, *m)
	}

	input := conversation.Message{
		Role:        conversation.RoleUser,
		Content:     req.Text,
		Attachments: req.Attachments,
	}
	budget := AvailableBudget(caps.ContextBudgetTokens, normalized.MaxTokens)
	prompt := Assemble(history, input, req.Identity, budget)
	log.Debug().
		Str("state", string(StateContextAssembled)).
		Int("prompt_messages", len(prompt.Messages)).
		Int("trimmed", prompt.TrimmedCount).
		Int("estimated_tokens", prompt.EstimatedTokens).
		Msg("context assembled")

	result, err := o.generateWithRetry(ctx, client, caps, prompt.Messages, normalized)
	if err != nil {
		return nil, newFailure(FailureProvider, err)
	}
	log.Debug().Str("state", string(StateProviderInvoked)).Msg("provider responded")

	resp := &Response{
		ConversationID: conv.PublicID,
		Text:           result.Text,
		Thinking:       result.Thinking,
		Media:          result.Media,
		Provider:       caps.Provider,
		ProviderLabel:  caps.DisplayName,
		Model:          caps.Model,
		UsedThinking:   result.UsedThinking,
		UsedSearch:     result.UsedSearch,
		Usage:          result.Usage,
		Substitutions:  append(subs, result.Substitutions...),
	}

	userMsg := &conversation.Message{
		Role:        conversation.RoleUser,
		Content:     req.Text,
		Attachments: req.Attachments,
	}
	assistantMsg := &conversation.Message{
		Role:     conversation.RoleAssistant,
		Content:  result.Text,
		Provider: caps.Provider,
		Model:    caps.Model,
	}
	if err := o.store.AppendTurn(ctx, conv.ID, userMsg, assistantMsg); err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return nil, newFailure(FailureConversationReset, err)
		}
		// The reply was already generated, so return it unrecorded.
		metrics.PersistenceFailuresTotal.Inc()
		log.Error().Err(err).Msg("failed to persist generated turn")
		resp.PersistenceFailed = true
		return resp, nil
	}
	log.Debug().Str("state", string(StatePersisted)).Msg("turn persisted")

	log.Info().
		Str("state", string(StateResponded)).
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Bool("used_thinking", result.UsedThinking).
		Bool("used_search", result.UsedSearch).
		Msg("chat turn completed")
	return resp, nil
}

// generateWithRetry calls the provider, retrying rate-limited failures with
// capped exponential backoff. It fails fast instead of sleeping past the
// context deadline.
func (o *Orchestrator) generateWithRetry(ctx context.Context, client provider.Client, caps provider.Capabilities, messages []conversation.Message, gen settings.GenerationSettings) (*provider.GenerationResult, error) {
	log := logger.GetLogger()

	var lastErr error
	for attempt := 0; attempt < o.retryMaxAttempts; attempt++ {
		if attempt > 0 {
			delay := o.retryBaseDelay << (attempt - 1)
			if deadline, ok := ctx.Deadline(); ok && time.Now().Add(delay).After(deadline) {
				return nil, fmt.Errorf("rate limit backoff exceeds deadline: %w", lastErr)
			}
			if err := o.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("rate limit backoff interrupted: %w", lastErr)
			}
		}

		start := time.Now()
		result, err := client.Generate(ctx, messages, gen)
		metrics.RecordLLMDuration(caps.Model, client.Name(), time.Since(start).Seconds())
		if err == nil {
			metrics.RecordTokens(caps.Model, client.Name(), result.Usage.PromptTokens, result.Usage.CompletionTokens)
			return result, nil
		}

		lastErr = err
		kind, ok := provider.KindOf(err)
		if ok {
			metrics.RecordProviderError(client.Name(), string(kind))
		}
		if !ok || kind != provider.ErrorKindRateLimited {
			return nil, err
		}
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", o.retryMaxAttempts).
			Str("model", caps.Model).
			Msg("provider rate limited, backing off")
	}

	return nil, lastErr
}
