package settings

import (
	"errors"
	"testing"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	gen := DefaultSettings(1)
	if err := gen.Validate(); err != nil {
		t.Fatalf("default settings failed validation: %v", err)
	}
	if gen.Model != DefaultModel {
		t.Fatalf("expected default model %q, got %q", DefaultModel, gen.Model)
	}
}

func TestValidate(t *testing.T) {
	base := func() *GenerationSettings { return DefaultSettings(1) }

	tests := []struct {
		name    string
		mutate  func(*GenerationSettings)
		wantErr bool
	}{
		{"valid defaults", func(s *GenerationSettings) {}, false},
		{"empty model", func(s *GenerationSettings) { s.Model = "" }, true},
		{"zero max tokens", func(s *GenerationSettings) { s.MaxTokens = 0 }, true},
		{"negative max tokens", func(s *GenerationSettings) { s.MaxTokens = -1 }, true},
		{"temperature too high", func(s *GenerationSettings) { s.Temperature = 2.5 }, true},
		{"temperature negative", func(s *GenerationSettings) { s.Temperature = -0.1 }, true},
		{"temperature boundary", func(s *GenerationSettings) { s.Temperature = 2 }, false},
		{"negative thinking budget", func(s *GenerationSettings) { s.ThinkingBudget = -5 }, true},
		{"thinking budget above max tokens", func(s *GenerationSettings) {
			s.MaxTokens = 100
			s.ThinkingBudget = 150
		}, true},
		{"thinking budget equals max tokens", func(s *GenerationSettings) {
			s.MaxTokens = 100
			s.ThinkingBudget = 100
		}, true},
		{"thinking budget below max tokens", func(s *GenerationSettings) {
			s.MaxTokens = 100
			s.ThinkingBudget = 99
		}, false},
		{"unknown reasoning effort", func(s *GenerationSettings) { s.ReasoningEffort = "extreme" }, true},
		{"unknown verbosity", func(s *GenerationSettings) { s.Verbosity = "chatty" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := base()
			tt.mutate(gen)
			err := gen.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected validation error, got nil")
				}
				if !errors.Is(err, ErrInvalidSettings) {
					t.Fatalf("expected ErrInvalidSettings, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestApplyMergesOnlyProvidedFields(t *testing.T) {
	gen := DefaultSettings(1)
	model := "claude-sonnet-4-20250514"
	maxTokens := 4096
	thinking := true

	gen.Apply(UpdateRequest{
		Model:           &model,
		MaxTokens:       &maxTokens,
		ThinkingEnabled: &thinking,
	})

	if gen.Model != model {
		t.Fatalf("expected model %q, got %q", model, gen.Model)
	}
	if gen.MaxTokens != maxTokens {
		t.Fatalf("expected max tokens %d, got %d", maxTokens, gen.MaxTokens)
	}
	if !gen.ThinkingEnabled {
		t.Fatal("expected thinking enabled")
	}
	if gen.Temperature != DefaultTemperature {
		t.Fatalf("temperature changed unexpectedly: %v", gen.Temperature)
	}
	if gen.ThinkingBudget != DefaultThinkingBudget {
		t.Fatalf("thinking budget changed unexpectedly: %d", gen.ThinkingBudget)
	}
}
