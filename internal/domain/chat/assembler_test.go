package chat

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/domain/user"
)

func strPtr(s string) *string { return &s }

func makeHistory(n int) []conversation.Message {
	history := make([]conversation.Message, 0, n)
	for i := 0; i < n; i++ {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		history = append(history, conversation.Message{
			Sequence: i + 1,
			Role:     role,
			Content:  fmt.Sprintf("message %d %s", i+1, strings.Repeat("x", 400)),
		})
	}
	return history
}

func TestAssembleFirstTurnGetsPrimingPair(t *testing.T) {
	identity := user.Identity{
		ExternalID: 42,
		FirstName:  strPtr("Ada"),
		Username:   strPtr("ada_l"),
	}
	input := conversation.Message{Role: conversation.RoleUser, Content: "hello"}

	prompt := Assemble(nil, input, identity, 100000)
	if len(prompt.Messages) != 3 {
		t.Fatalf("expected 3 messages (priming pair + input), got %d", len(prompt.Messages))
	}
	if prompt.Messages[0].Role != conversation.RoleUser {
		t.Fatalf("priming context must be a user message, got %s", prompt.Messages[0].Role)
	}
	if !strings.Contains(prompt.Messages[0].Content, "Ada") || !strings.Contains(prompt.Messages[0].Content, "@ada_l") {
		t.Fatalf("priming context missing identity: %q", prompt.Messages[0].Content)
	}
	if prompt.Messages[1].Role != conversation.RoleAssistant {
		t.Fatalf("acknowledgement must be an assistant message, got %s", prompt.Messages[1].Role)
	}
	if prompt.Messages[2].Content != "hello" {
		t.Fatalf("input must come last, got %q", prompt.Messages[2].Content)
	}
}

func TestAssembleAnonymousIdentity(t *testing.T) {
	input := conversation.Message{Role: conversation.RoleUser, Content: "hi"}
	prompt := Assemble(nil, input, user.Identity{ExternalID: 1}, 100000)
	if !strings.Contains(prompt.Messages[0].Content, "a user") {
		t.Fatalf("expected anonymous fallback in priming context: %q", prompt.Messages[0].Content)
	}
}

func TestAssembleNoPrimingWithHistory(t *testing.T) {
	history := makeHistory(4)
	input := conversation.Message{Role: conversation.RoleUser, Content: "next"}

	prompt := Assemble(history, input, user.Identity{ExternalID: 1}, 100000)
	if len(prompt.Messages) != 5 {
		t.Fatalf("expected history + input = 5 messages, got %d", len(prompt.Messages))
	}
	if prompt.Messages[0].Content != history[0].Content {
		t.Fatal("history must lead when present")
	}
}

func TestAssembleDeterministic(t *testing.T) {
	history := makeHistory(10)
	input := conversation.Message{Role: conversation.RoleUser, Content: "question"}
	identity := user.Identity{ExternalID: 7}

	first := Assemble(history, input, identity, 600)
	second := Assemble(history, input, identity, 600)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Assemble is not deterministic for identical inputs")
	}
}

func TestAssembleTrimsOldestFirst(t *testing.T) {
	history := makeHistory(10)
	input := conversation.Message{Role: conversation.RoleUser, Content: "newest input"}

	// Each history message is ~110 tokens; budget for roughly 3 of them
	// plus the input.
	budget := 0
	for i := 7; i < 10; i++ {
		budget += estimateMessageTokens(&history[i])
	}
	budget += estimateMessageTokens(&input)

	prompt := Assemble(history, input, user.Identity{ExternalID: 1}, budget)
	if len(prompt.Messages) != 4 {
		t.Fatalf("expected newest 3 history messages + input, got %d messages", len(prompt.Messages))
	}
	for i, want := range []int{8, 9, 10} {
		if prompt.Messages[i].Sequence != want {
			t.Fatalf("position %d: expected sequence %d, got %d", i, want, prompt.Messages[i].Sequence)
		}
	}
	if prompt.Messages[3].Content != "newest input" {
		t.Fatalf("input must survive trimming, got %q", prompt.Messages[3].Content)
	}
	if prompt.TrimmedCount != 7 {
		t.Fatalf("expected 7 trimmed messages, got %d", prompt.TrimmedCount)
	}
}

func TestAssembleNeverDropsInput(t *testing.T) {
	history := makeHistory(5)
	input := conversation.Message{Role: conversation.RoleUser, Content: strings.Repeat("y", 4000)}

	prompt := Assemble(history, input, user.Identity{ExternalID: 1}, 1)
	if len(prompt.Messages) != 1 {
		t.Fatalf("expected only the input to survive a tiny budget, got %d messages", len(prompt.Messages))
	}
	if prompt.Messages[0].Content != input.Content {
		t.Fatal("surviving message must be the input")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("empty string should estimate 0 tokens, got %d", got)
	}
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Fatalf("400 ascii chars should estimate 100 tokens, got %d", got)
	}
	// CJK-heavy content uses a denser ratio.
	cjk := strings.Repeat("世界", 100)
	ascii := strings.Repeat("ab", 100)
	if EstimateTokens(cjk) <= EstimateTokens(ascii) {
		t.Fatal("CJK content should estimate more tokens than ascii of equal rune count")
	}
}

func TestAttachmentsCostFixedTokens(t *testing.T) {
	plain := conversation.Message{Role: conversation.RoleUser, Content: "look"}
	withImage := plain
	withImage.Attachments = []conversation.Attachment{{MimeType: "image/png", StorageRef: "data:image/png;base64,AAAA"}}

	diff := estimateMessageTokens(&withImage) - estimateMessageTokens(&plain)
	if diff != ImageTokens {
		t.Fatalf("expected image to add %d tokens, got %d", ImageTokens, diff)
	}
}
