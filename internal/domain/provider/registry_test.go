package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
)

type stubClient struct {
	name string
}

func (c *stubClient) Name() string { return c.name }

func (c *stubClient) Generate(ctx context.Context, messages []conversation.Message, gen settings.GenerationSettings) (*GenerationResult, error) {
	return &GenerationResult{}, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	client := &stubClient{name: "stub"}
	for _, spec := range Catalog() {
		registry.Register(client, spec)
	}
	return registry
}

func TestResolveCanonicalAndAlias(t *testing.T) {
	registry := newTestRegistry(t)

	tests := []struct {
		id        string
		wantModel string
	}{
		{"gemini-2.5-flash", "gemini-2.5-flash"},
		{"flash", "gemini-2.5-flash"},
		{"pro", "gemini-2.5-pro"},
		{"claude-sonnet-4", "claude-sonnet-4-20250514"},
		{"o4-mini", "o4-mini-2025-04-16"},
		{"gpt-4o", "gpt-4o-2024-08-06"},
	}

	for _, tt := range tests {
		_, caps, err := registry.Resolve(tt.id)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", tt.id, err)
		}
		if caps.Model != tt.wantModel {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.id, caps.Model, tt.wantModel)
		}
	}
}

func TestResolveUnknownModel(t *testing.T) {
	registry := newTestRegistry(t)

	_, _, err := registry.Resolve("gpt-99-ultra")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestModelsSorted(t *testing.T) {
	registry := newTestRegistry(t)

	models := registry.Models()
	if len(models) != len(Catalog()) {
		t.Fatalf("expected %d models, got %d", len(Catalog()), len(models))
	}
	for i := 1; i < len(models); i++ {
		if models[i-1].Model >= models[i].Model {
			t.Fatalf("models not sorted: %q before %q", models[i-1].Model, models[i].Model)
		}
	}
}

func TestNormalizeSettingsFixedTemperature(t *testing.T) {
	registry := newTestRegistry(t)
	_, caps, err := registry.Resolve("o4-mini")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	gen := *settings.DefaultSettings(1)
	gen.Temperature = 0.7

	normalized, subs := NormalizeSettings(gen, caps)
	if normalized.Temperature != 1.0 {
		t.Fatalf("expected temperature forced to 1.0, got %v", normalized.Temperature)
	}
	if len(subs) != 1 {
		t.Fatalf("expected one substitution, got %d", len(subs))
	}
	if subs[0].Setting != "temperature" || subs[0].Requested != "0.7" || subs[0].Applied != "1" {
		t.Fatalf("unexpected substitution: %+v", subs[0])
	}
}

func TestNormalizeSettingsImageModelDisablesThinkingAndSearch(t *testing.T) {
	registry := newTestRegistry(t)
	_, caps, err := registry.Resolve("flash-image")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	gen := *settings.DefaultSettings(1)
	gen.ThinkingEnabled = true
	gen.SearchEnabled = true

	normalized, subs := NormalizeSettings(gen, caps)
	if normalized.ThinkingEnabled || normalized.SearchEnabled {
		t.Fatalf("expected thinking and search disabled, got thinking=%v search=%v",
			normalized.ThinkingEnabled, normalized.SearchEnabled)
	}
	if len(subs) != 2 {
		t.Fatalf("expected two substitutions, got %d", len(subs))
	}
}

func TestNormalizeSettingsUnsupportedThinkingIsNotAnError(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubClient{name: "openai"}, ModelSpec{
		Capabilities: Capabilities{
			Provider:            "openai",
			Model:               "gpt-3.5-turbo",
			DisplayName:         "GPT-3.5 Turbo",
			ContextBudgetTokens: 16000,
			DefaultMaxTokens:    4096,
		},
	})
	_, caps, err := registry.Resolve("gpt-3.5-turbo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	gen := *settings.DefaultSettings(1)
	gen.ThinkingEnabled = true

	normalized, subs := NormalizeSettings(gen, caps)
	if normalized.ThinkingEnabled {
		t.Fatal("expected thinking disabled on a model without thinking support")
	}
	found := false
	for _, sub := range subs {
		if sub.Setting == "thinking_enabled" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a recorded substitution for thinking_enabled")
	}
}

func TestNormalizeSettingsFillsDefaultMaxTokens(t *testing.T) {
	registry := newTestRegistry(t)
	_, caps, err := registry.Resolve("claude-sonnet-4")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	gen := *settings.DefaultSettings(1)
	gen.MaxTokens = 0

	normalized, _ := NormalizeSettings(gen, caps)
	if normalized.MaxTokens != caps.DefaultMaxTokens {
		t.Fatalf("expected max tokens %d, got %d", caps.DefaultMaxTokens, normalized.MaxTokens)
	}
}
