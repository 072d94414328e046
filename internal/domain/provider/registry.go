package provider

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/pepperbot/pepper-server/internal/domain/settings"
)

// ErrUnknownModel is returned when a model identifier is not registered.
var ErrUnknownModel = errors.New("unknown model")

type registration struct {
	client Client
	caps   Capabilities
}

// Registry maps model identifiers (and their aliases) to the client capable
// of serving them. Registration is static at process start.
type Registry struct {
	models  map[string]registration
	aliases map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models:  make(map[string]registration),
		aliases: make(map[string]string),
	}
}

// Register binds a model spec to the client serving it. Later registrations
// of the same model id replace earlier ones.
func (r *Registry) Register(client Client, spec ModelSpec) {
	r.models[spec.Capabilities.Model] = registration{client: client, caps: spec.Capabilities}
	for _, alias := range spec.Aliases {
		r.aliases[alias] = spec.Capabilities.Model
	}
}

// Resolve returns the client and capabilities for a model identifier or
// alias. Fails with ErrUnknownModel for unregistered identifiers.
func (r *Registry) Resolve(modelID string) (Client, Capabilities, error) {
	canonical := modelID
	if target, ok := r.aliases[modelID]; ok {
		canonical = target
	}
	reg, ok := r.models[canonical]
	if !ok {
		return nil, Capabilities{}, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	return reg.client, reg.caps, nil
}

// Models lists the registered capabilities sorted by model id.
func (r *Registry) Models() []Capabilities {
	out := make([]Capabilities, 0, len(r.models))
	for _, reg := range r.models {
		out = append(out, reg.caps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// NormalizeSettings reconciles requested settings with the model's
// capability flags before a request is constructed. Unsupported options are
// silently disabled and each substitution is recorded for observability.
// Image-generation models additionally force-disable search and thinking.
func NormalizeSettings(gen settings.GenerationSettings, caps Capabilities) (settings.GenerationSettings, []Substitution) {
	var subs []Substitution

	if gen.ThinkingEnabled && (!caps.SupportsThinking || caps.SupportsImageOutput) {
		reason := "model does not support thinking"
		if caps.SupportsImageOutput {
			reason = "image-generation model disables thinking"
		}
		gen.ThinkingEnabled = false
		subs = append(subs, Substitution{
			Setting:   "thinking_enabled",
			Requested: "true",
			Applied:   "false",
			Reason:    reason,
		})
	}

	if gen.SearchEnabled && (!caps.SupportsSearch || caps.SupportsImageOutput) {
		reason := "model does not support web search"
		if caps.SupportsImageOutput {
			reason = "image-generation model disables search"
		}
		gen.SearchEnabled = false
		subs = append(subs, Substitution{
			Setting:   "search_enabled",
			Requested: "true",
			Applied:   "false",
			Reason:    reason,
		})
	}

	if gen.MaxTokens <= 0 {
		gen.MaxTokens = caps.DefaultMaxTokens
	}

	if caps.FixedTemperature != nil && gen.Temperature != *caps.FixedTemperature {
		subs = append(subs, Substitution{
			Setting:   "temperature",
			Requested: formatFloat(gen.Temperature),
			Applied:   formatFloat(*caps.FixedTemperature),
			Reason:    "model runs at a fixed temperature",
		})
		gen.Temperature = *caps.FixedTemperature
	}

	return gen, subs
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
