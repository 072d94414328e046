package chat

import (
	"fmt"
	"unicode/utf8"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/user"
)

const (
	// DefaultContextBudget is used when the model context budget is unknown.
	DefaultContextBudget = 128000

	// TokenEstimateRatio estimates ~4 characters per token (conservative estimate).
	TokenEstimateRatio = 4

	// TokenEstimateRatioCJK estimates ~1.5 characters per token for CJK content.
	TokenEstimateRatioCJK = 1.5

	// SafetyMarginRatio reserves headroom for provider-side overhead.
	SafetyMarginRatio = 0.75

	// MessageOverheadTokens is per-message overhead for role and structure.
	MessageOverheadTokens = 10

	// ImageTokens is a fixed conservative estimate per attached image.
	ImageTokens = 850

	assistantAck = "I understand. I'll help you with your questions."
)

// Prompt is an assembled, provider-ready message sequence.
type Prompt struct {
	Messages        []conversation.Message
	TrimmedCount    int
	EstimatedTokens int
}

// primingPair builds the opening exchange for a brand-new conversation,
// introducing the user before their first message.
func primingPair(identity user.Identity) []conversation.Message {
	name := "a user"
	if identity.FirstName != nil && *identity.FirstName != "" {
		name = *identity.FirstName
	}
	context := fmt.Sprintf("You are chatting with %s", name)
	if identity.Username != nil && *identity.Username != "" {
		context += fmt.Sprintf(" (@%s)", *identity.Username)
	}
	context += ". Respond in a friendly and helpful manner."

	return []conversation.Message{
		{Role: conversation.RoleUser, Content: context},
		{Role: conversation.RoleAssistant, Content: assistantAck},
	}
}

// isCJK checks if a rune is a CJK character.
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Unified Ideographs Extension A
		(r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xAC00 && r <= 0xD7AF) // Hangul Syllables
}

// EstimateTokens provides a rough token estimate for text content.
// Content with a significant CJK share uses an adjusted ratio.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}

	runeCount := utf8.RuneCountInString(text)
	cjkCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		}
	}

	if runeCount > 0 && float64(cjkCount)/float64(runeCount) > 0.3 {
		cjkTokens := float64(cjkCount) / TokenEstimateRatioCJK
		otherTokens := float64(runeCount-cjkCount) / float64(TokenEstimateRatio)
		return int(cjkTokens + otherTokens)
	}

	return runeCount / TokenEstimateRatio
}

func estimateMessageTokens(msg *conversation.Message) int {
	tokens := MessageOverheadTokens
	tokens += EstimateTokens(msg.Content)
	tokens += len(msg.Attachments) * ImageTokens
	return tokens
}

func estimateMessagesTokens(messages []conversation.Message) int {
	total := 0
	for i := range messages {
		total += estimateMessageTokens(&messages[i])
	}
	return total
}

// AvailableBudget computes the token space left for messages after
// reserving completion headroom within the model's context budget.
func AvailableBudget(contextBudget, maxCompletionTokens int) int {
	if contextBudget <= 0 {
		contextBudget = DefaultContextBudget
	}
	available := int(float64(contextBudget)*SafetyMarginRatio) - maxCompletionTokens
	if available < 0 {
		available = 0
	}
	return available
}

// Assemble builds the provider prompt: prior history in order, the new
// input last, and a priming exchange at the front when the conversation
// has no history yet. Oldest messages are dropped first when the total
// estimate exceeds the budget; the new input is never dropped.
// Pure and deterministic for a given set of arguments.
func Assemble(history []conversation.Message, input conversation.Message, identity user.Identity, budget int) Prompt {
	var messages []conversation.Message
	if len(history) == 0 {
		messages = append(messages, primingPair(identity)...)
	} else {
		messages = append(messages, history...)
	}
	messages = append(messages, input)

	currentTokens := estimateMessagesTokens(messages)
	trimmed := 0
	for currentTokens > budget && len(messages) > 1 {
		currentTokens -= estimateMessageTokens(&messages[0])
		messages = messages[1:]
		trimmed++
	}

	return Prompt{
		Messages:        messages,
		TrimmedCount:    trimmed,
		EstimatedTokens: currentTokens,
	}
}
