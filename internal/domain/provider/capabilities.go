package provider

// Capabilities describes what a model supports and the budgets it runs
// under. The registry resolves these statically at process start.
type Capabilities struct {
	Provider            string
	Model               string
	DisplayName         string
	SupportsThinking    bool
	SupportsSearch      bool
	SupportsImageInput  bool
	SupportsImageOutput bool
	FixedTemperature    *float32
	ContextBudgetTokens int
	DefaultMaxTokens    int
}

// ModelSpec bundles a model's capabilities with the short aliases users can
// select it by.
type ModelSpec struct {
	Capabilities Capabilities
	Aliases      []string
}

func fixedTemp(v float32) *float32 { return &v }

// Catalog returns the static model catalog. Model ids, aliases and display
// names follow the bot's established selection menu.
func Catalog() []ModelSpec {
	return []ModelSpec{
		{
			Capabilities: Capabilities{
				Provider:            "gemini",
				Model:               "gemini-2.5-flash",
				DisplayName:         "Gemini 2.5 Flash",
				SupportsThinking:    true,
				SupportsSearch:      true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 1000000,
				DefaultMaxTokens:    8192,
			},
			Aliases: []string{"flash"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "gemini",
				Model:               "gemini-2.5-pro",
				DisplayName:         "Gemini 2.5 Pro",
				SupportsThinking:    true,
				SupportsSearch:      true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 1000000,
				DefaultMaxTokens:    8192,
			},
			Aliases: []string{"pro"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "gemini",
				Model:               "gemini-2.0-flash-preview-image-generation",
				DisplayName:         "Gemini 2.0 Flash (Image Gen)",
				SupportsImageInput:  true,
				SupportsImageOutput: true,
				ContextBudgetTokens: 32000,
				DefaultMaxTokens:    8192,
			},
			Aliases: []string{"flash-image"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "anthropic",
				Model:               "claude-sonnet-4-20250514",
				DisplayName:         "Claude Sonnet 4",
				SupportsThinking:    true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 200000,
				DefaultMaxTokens:    10000,
			},
			Aliases: []string{"claude-sonnet-4"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "anthropic",
				Model:               "claude-3-7-sonnet-20250219",
				DisplayName:         "Claude 3.7 Sonnet",
				SupportsThinking:    true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 200000,
				DefaultMaxTokens:    10000,
			},
			Aliases: []string{"claude-3.7-sonnet"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "anthropic",
				Model:               "claude-3-5-sonnet-20241022",
				DisplayName:         "Claude 3.5 Sonnet",
				SupportsThinking:    true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 200000,
				DefaultMaxTokens:    10000,
			},
			Aliases: []string{"claude-3.5-sonnet"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "openai",
				Model:               "o4-mini-2025-04-16",
				DisplayName:         "O4 Mini (Reasoning)",
				SupportsThinking:    true,
				SupportsImageInput:  true,
				FixedTemperature:    fixedTemp(1.0),
				ContextBudgetTokens: 200000,
				DefaultMaxTokens:    10000,
			},
			Aliases: []string{"o4-mini"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "openai",
				Model:               "gpt-4.1-2025-04-14",
				DisplayName:         "GPT-4.1",
				SupportsThinking:    true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 1000000,
				DefaultMaxTokens:    8192,
			},
			Aliases: []string{"gpt-4.1"},
		},
		{
			Capabilities: Capabilities{
				Provider:            "openai",
				Model:               "gpt-4o-2024-08-06",
				DisplayName:         "GPT-4o",
				SupportsThinking:    true,
				SupportsImageInput:  true,
				ContextBudgetTokens: 128000,
				DefaultMaxTokens:    8192,
			},
			Aliases: []string{"gpt-4o"},
		},
	}
}
