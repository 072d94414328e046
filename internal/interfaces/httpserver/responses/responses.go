package responses

import (
	"encoding/base64"

	"github.com/pepperbot/pepper-server/internal/domain/chat"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/utils/functional"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// MediaResponse carries one generated media artifact, base64-encoded.
type MediaResponse struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// SubstitutionResponse documents a setting replaced to satisfy provider
// constraints.
type SubstitutionResponse struct {
	Setting   string `json:"setting"`
	Requested string `json:"requested"`
	Applied   string `json:"applied"`
	Reason    string `json:"reason"`
}

// UsageResponse is the provider-reported token accounting.
type UsageResponse struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the generated reply plus rendering metadata.
type ChatResponse struct {
	ConversationID    string                 `json:"conversation_id"`
	Text              string                 `json:"text"`
	Thinking          string                 `json:"thinking,omitempty"`
	Media             []MediaResponse        `json:"media,omitempty"`
	Provider          string                 `json:"provider"`
	ProviderLabel     string                 `json:"provider_label"`
	Model             string                 `json:"model"`
	UsedThinking      bool                   `json:"used_thinking"`
	UsedSearch        bool                   `json:"used_search"`
	Usage             UsageResponse          `json:"usage"`
	Substitutions     []SubstitutionResponse `json:"substitutions,omitempty"`
	PersistenceFailed bool                   `json:"persistence_failed,omitempty"`
}

// NewChatResponse maps the pipeline result to the transport payload.
func NewChatResponse(result *chat.Response) ChatResponse {
	out := ChatResponse{
		ConversationID:    result.ConversationID,
		Text:              result.Text,
		Thinking:          result.Thinking,
		Provider:          result.Provider,
		ProviderLabel:     result.ProviderLabel,
		Model:             result.Model,
		UsedThinking:      result.UsedThinking,
		UsedSearch:        result.UsedSearch,
		PersistenceFailed: result.PersistenceFailed,
		Usage: UsageResponse{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}
	if len(result.Media) > 0 {
		out.Media = functional.Map(result.Media, func(blob provider.MediaBlob) MediaResponse {
			return MediaResponse{
				MimeType: blob.MimeType,
				Data:     base64.StdEncoding.EncodeToString(blob.Data),
			}
		})
	}
	if len(result.Substitutions) > 0 {
		out.Substitutions = functional.Map(result.Substitutions, func(sub provider.Substitution) SubstitutionResponse {
			return SubstitutionResponse(sub)
		})
	}
	return out
}

// SettingsResponse is the stored per-user generation settings.
type SettingsResponse struct {
	Model           string  `json:"model"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float32 `json:"temperature"`
	ThinkingEnabled bool    `json:"thinking_enabled"`
	ThinkingBudget  int     `json:"thinking_budget"`
	SearchEnabled   bool    `json:"search_enabled"`
	ReasoningEffort string  `json:"reasoning_effort"`
	Verbosity       string  `json:"verbosity"`
}

// NewSettingsResponse maps domain settings to the transport payload.
func NewSettingsResponse(gen *settings.GenerationSettings) SettingsResponse {
	return SettingsResponse{
		Model:           gen.Model,
		MaxTokens:       gen.MaxTokens,
		Temperature:     gen.Temperature,
		ThinkingEnabled: gen.ThinkingEnabled,
		ThinkingBudget:  gen.ThinkingBudget,
		SearchEnabled:   gen.SearchEnabled,
		ReasoningEffort: string(gen.ReasoningEffort),
		Verbosity:       string(gen.Verbosity),
	}
}

// ModelResponse describes one selectable model.
type ModelResponse struct {
	Model               string `json:"model"`
	Provider            string `json:"provider"`
	DisplayName         string `json:"display_name"`
	SupportsThinking    bool   `json:"supports_thinking"`
	SupportsSearch      bool   `json:"supports_search"`
	SupportsImageInput  bool   `json:"supports_image_input"`
	SupportsImageOutput bool   `json:"supports_image_output"`
	ContextBudgetTokens int    `json:"context_budget_tokens"`
}

// NewModelList maps registry capabilities to the transport payload.
func NewModelList(caps []provider.Capabilities) []ModelResponse {
	return functional.Map(caps, func(c provider.Capabilities) ModelResponse {
		return ModelResponse{
			Model:               c.Model,
			Provider:            c.Provider,
			DisplayName:         c.DisplayName,
			SupportsThinking:    c.SupportsThinking,
			SupportsSearch:      c.SupportsSearch,
			SupportsImageInput:  c.SupportsImageInput,
			SupportsImageOutput: c.SupportsImageOutput,
			ContextBudgetTokens: c.ContextBudgetTokens,
		}
	})
}

// ConversationResponse identifies a conversation.
type ConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Active         bool   `json:"active"`
}
