package llmclient

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
)

const openAIProviderName = "openai"

// thinkingSystemPrompt is injected when thinking is requested on models
// without a native reasoning channel.
const thinkingSystemPrompt = "Think through your response step by step. Show your reasoning process clearly before providing the final answer."

// openAIRequest extends the standard chat completion request with the
// verbosity knob newer models accept.
type openAIRequest struct {
	openai.ChatCompletionRequest
	Verbosity string `json:"verbosity,omitempty"`
}

// OpenAIClient talks to OpenAI-compatible chat completion endpoints.
type OpenAIClient struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func NewOpenAIClient(client *resty.Client, baseURL, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  apiKey,
	}
}

func (c *OpenAIClient) Name() string {
	return openAIProviderName
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []conversation.Message, gen settings.GenerationSettings) (*provider.GenerationResult, error) {
	fitted := fitPayload(messages)

	reqMessages := make([]openai.ChatCompletionMessage, 0, len(fitted)+1)
	if gen.ThinkingEnabled {
		reqMessages = append(reqMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: thinkingSystemPrompt,
		})
	}
	for i := range fitted {
		reqMessages = append(reqMessages, toOpenAIMessage(&fitted[i]))
	}

	request := openAIRequest{
		ChatCompletionRequest: openai.ChatCompletionRequest{
			Model:               gen.Model,
			Messages:            reqMessages,
			MaxCompletionTokens: gen.MaxTokens,
			Temperature:         gen.Temperature,
		},
	}
	if gen.ReasoningEffort != "" {
		request.ReasoningEffort = string(gen.ReasoningEffort)
	}
	if gen.Verbosity != "" {
		request.Verbosity = string(gen.Verbosity)
	}

	var respBody openai.ChatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(c.apiKey).
		SetBody(request).
		SetResult(&respBody).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return nil, transportError(openAIProviderName, err)
	}
	if resp.IsError() {
		return nil, responseError(openAIProviderName, resp)
	}

	result := &provider.GenerationResult{
		Usage: provider.TokenUsage{
			PromptTokens:     respBody.Usage.PromptTokens,
			CompletionTokens: respBody.Usage.CompletionTokens,
			TotalTokens:      respBody.Usage.TotalTokens,
		},
	}
	if len(respBody.Choices) > 0 {
		result.Text = respBody.Choices[0].Message.Content
		result.Thinking = respBody.Choices[0].Message.ReasoningContent
	}
	result.UsedThinking = gen.ThinkingEnabled
	return result, nil
}

func toOpenAIMessage(msg *conversation.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{Role: string(msg.Role)}
	if len(msg.Attachments) == 0 {
		out.Content = msg.Content
		return out
	}

	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: msg.Content,
	}}
	for _, att := range msg.Attachments {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: att.StorageRef,
			},
		})
	}
	out.MultiContent = parts
	return out
}
