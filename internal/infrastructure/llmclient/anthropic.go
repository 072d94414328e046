package llmclient

import (
	"context"
	"strconv"

	"resty.dev/v3"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
)

const (
	anthropicProviderName = "anthropic"
	anthropicVersion      = "2023-06-01"

	// defaultThinkingBudget applies when thinking is on without an explicit
	// budget.
	defaultThinkingBudget = 5000
)

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

type anthropicContent struct {
	Type     string                `json:"type"`
	Text     string                `json:"text,omitempty"`
	Thinking string                `json:"thinking,omitempty"`
	Source   *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	Thinking    *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	StopReason string `json:"stop_reason"`
}

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func NewAnthropicClient(client *resty.Client, baseURL, apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  apiKey,
	}
}

func (c *AnthropicClient) Name() string {
	return anthropicProviderName
}

func (c *AnthropicClient) Generate(ctx context.Context, messages []conversation.Message, gen settings.GenerationSettings) (*provider.GenerationResult, error) {
	fitted := fitPayload(messages)

	reqMessages := make([]anthropicMessage, 0, len(fitted))
	for i := range fitted {
		reqMessages = append(reqMessages, toAnthropicMessage(&fitted[i]))
	}

	request := anthropicRequest{
		Model:       gen.Model,
		Messages:    reqMessages,
		MaxTokens:   gen.MaxTokens,
		Temperature: gen.Temperature,
	}

	var subs []provider.Substitution
	if gen.ThinkingEnabled {
		budget := gen.ThinkingBudget
		if budget <= 0 {
			budget = defaultThinkingBudget
		}
		request.Thinking = &anthropicThinking{
			Type:         "enabled",
			BudgetTokens: budget,
		}
		// The Messages API rejects thinking requests at any other sampling
		// temperature.
		if gen.Temperature != 1.0 {
			subs = append(subs, provider.Substitution{
				Setting:   "temperature",
				Requested: strconv.FormatFloat(float64(gen.Temperature), 'g', -1, 32),
				Applied:   "1",
				Reason:    "thinking requires temperature 1.0",
			})
			request.Temperature = 1.0
		}
	}

	var respBody anthropicResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(request).
		SetResult(&respBody).
		Post(c.baseURL + "/v1/messages")
	if err != nil {
		return nil, transportError(anthropicProviderName, err)
	}
	if resp.IsError() {
		return nil, responseError(anthropicProviderName, resp)
	}

	result := &provider.GenerationResult{
		Usage: provider.TokenUsage{
			PromptTokens:     respBody.Usage.InputTokens,
			CompletionTokens: respBody.Usage.OutputTokens,
			TotalTokens:      respBody.Usage.InputTokens + respBody.Usage.OutputTokens,
		},
		Substitutions: subs,
	}
	for _, block := range respBody.Content {
		switch block.Type {
		case "text":
			result.Text += block.Text
		case "thinking":
			result.Thinking += block.Thinking
			result.UsedThinking = true
		}
	}
	return result, nil
}

func toAnthropicMessage(msg *conversation.Message) anthropicMessage {
	out := anthropicMessage{Role: string(msg.Role)}
	// The API rejects empty text blocks, so skip the text part of an
	// attachment-only message.
	if msg.Content != "" || len(msg.Attachments) == 0 {
		out.Content = append(out.Content, anthropicContent{Type: "text", Text: msg.Content})
	}
	for _, att := range msg.Attachments {
		if mimeType, data, ok := parseDataURI(att.StorageRef); ok {
			out.Content = append(out.Content, anthropicContent{
				Type: "image",
				Source: &anthropicImageSource{
					Type:      "base64",
					MediaType: mimeType,
					Data:      data,
				},
			})
			continue
		}
		out.Content = append(out.Content, anthropicContent{
			Type: "image",
			Source: &anthropicImageSource{
				Type: "url",
				URL:  att.StorageRef,
			},
		})
	}
	return out
}
