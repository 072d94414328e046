package llmclient

import (
	"context"
	"encoding/base64"
	"fmt"

	"resty.dev/v3"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/provider"
	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/infrastructure/logger"
)

const geminiProviderName = "gemini"

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	Thought    bool              `json:"thought,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	IncludeThoughts bool `json:"includeThoughts"`
	ThinkingBudget  int  `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	Temperature     float32               `json:"temperature"`
	MaxOutputTokens int                   `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiTool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	Tools            []geminiTool           `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		GroundingMetadata map[string]any `json:"groundingMetadata"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// GeminiClient talks to the Gemini generateContent API.
type GeminiClient struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func NewGeminiClient(client *resty.Client, baseURL, apiKey string) *GeminiClient {
	return &GeminiClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  apiKey,
	}
}

func (c *GeminiClient) Name() string {
	return geminiProviderName
}

func (c *GeminiClient) Generate(ctx context.Context, messages []conversation.Message, gen settings.GenerationSettings) (*provider.GenerationResult, error) {
	fitted := fitPayload(messages)

	contents := make([]geminiContent, 0, len(fitted))
	for i := range fitted {
		contents = append(contents, toGeminiContent(&fitted[i]))
	}

	request := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     gen.Temperature,
			MaxOutputTokens: gen.MaxTokens,
		},
	}
	if gen.ThinkingEnabled {
		budget := gen.ThinkingBudget
		if budget <= 0 {
			budget = settings.DefaultThinkingBudget
		}
		request.GenerationConfig.ThinkingConfig = &geminiThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  budget,
		}
	}
	if gen.SearchEnabled {
		request.Tools = []geminiTool{{}}
	}

	var respBody geminiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(request).
		SetResult(&respBody).
		Post(fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, gen.Model))
	if err != nil {
		return nil, transportError(geminiProviderName, err)
	}
	if resp.IsError() {
		return nil, responseError(geminiProviderName, resp)
	}

	result := &provider.GenerationResult{
		Usage: provider.TokenUsage{
			PromptTokens:     respBody.UsageMetadata.PromptTokenCount,
			CompletionTokens: respBody.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      respBody.UsageMetadata.TotalTokenCount,
		},
	}
	if len(respBody.Candidates) == 0 {
		return result, nil
	}

	candidate := respBody.Candidates[0]
	result.UsedSearch = gen.SearchEnabled && len(candidate.GroundingMetadata) > 0
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil {
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				log := logger.GetLogger()
				log.Warn().Err(err).Msg("discarding undecodable inline media part")
				continue
			}
			result.Media = append(result.Media, provider.MediaBlob{
				MimeType: part.InlineData.MimeType,
				Data:     data,
			})
			continue
		}
		if part.Thought {
			result.Thinking += part.Text
			result.UsedThinking = true
			continue
		}
		result.Text += part.Text
	}
	return result, nil
}

func toGeminiContent(msg *conversation.Message) geminiContent {
	role := string(msg.Role)
	if msg.Role == conversation.RoleAssistant {
		role = "model"
	}
	out := geminiContent{Role: role}
	if msg.Content != "" || len(msg.Attachments) == 0 {
		out.Parts = append(out.Parts, geminiPart{Text: msg.Content})
	}
	for _, att := range msg.Attachments {
		if mimeType, data, ok := parseDataURI(att.StorageRef); ok {
			out.Parts = append(out.Parts, geminiPart{
				InlineData: &geminiInlineData{MimeType: mimeType, Data: data},
			})
		}
	}
	return out
}
