package requests

import "github.com/pepperbot/pepper-server/internal/domain/settings"

// UpdateSettingsRequest is a partial settings update; absent fields keep
// their stored values.
type UpdateSettingsRequest struct {
	Model           *string  `json:"model,omitempty"`
	MaxTokens       *int     `json:"max_tokens,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`
	ThinkingEnabled *bool    `json:"thinking_enabled,omitempty"`
	ThinkingBudget  *int     `json:"thinking_budget,omitempty"`
	SearchEnabled   *bool    `json:"search_enabled,omitempty"`
	ReasoningEffort *string  `json:"reasoning_effort,omitempty"`
	Verbosity       *string  `json:"verbosity,omitempty"`
}

// ToDomain converts the transport payload into the domain update request.
func (r *UpdateSettingsRequest) ToDomain() settings.UpdateRequest {
	out := settings.UpdateRequest{
		Model:           r.Model,
		MaxTokens:       r.MaxTokens,
		Temperature:     r.Temperature,
		ThinkingEnabled: r.ThinkingEnabled,
		ThinkingBudget:  r.ThinkingBudget,
		SearchEnabled:   r.SearchEnabled,
	}
	if r.ReasoningEffort != nil {
		effort := settings.ReasoningEffort(*r.ReasoningEffort)
		out.ReasoningEffort = &effort
	}
	if r.Verbosity != nil {
		verbosity := settings.Verbosity(*r.Verbosity)
		out.Verbosity = &verbosity
	}
	return out
}
