package conversation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/infrastructure/metrics"
)

// Service is the conversation store facade. It exclusively owns read/write
// access to conversations, messages and user settings; other components go
// through it.
type Service struct {
	conversations Repository
	settings      settings.Repository
}

// NewService constructs a Service with required dependencies.
func NewService(conversations Repository, settingsRepo settings.Repository) *Service {
	return &Service{
		conversations: conversations,
		settings:      settingsRepo,
	}
}

// GetActiveConversation returns the user's active conversation, creating one
// lazily on first interaction.
func (s *Service) GetActiveConversation(ctx context.Context, userID uint) (*Conversation, error) {
	conv, err := s.conversations.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}
	return s.StartNewConversation(ctx, userID)
}

// StartNewConversation deactivates the prior active conversation (if any)
// and creates a fresh one. Calling it twice in a row still produces a new
// empty conversation each time; "fresh start" is never deduplicated.
func (s *Service) StartNewConversation(ctx context.Context, userID uint) (*Conversation, error) {
	conv, err := s.conversations.StartNew(ctx, userID, newPublicID())
	if err != nil {
		return nil, err
	}
	metrics.ConversationsCreatedTotal.Inc()
	return conv, nil
}

// AppendMessage appends a single message, assigning the next sequence
// position atomically.
func (s *Service) AppendMessage(ctx context.Context, conversationID uint, role Role, content string, attachments []Attachment, info *ProviderInfo) (*Message, error) {
	msg := &Message{
		Role:        role,
		Content:     content,
		Attachments: attachments,
	}
	if info != nil {
		msg.Provider = info.Provider
		msg.Model = info.Model
	}
	if err := s.conversations.AppendMessages(ctx, conversationID, []*Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

// AppendTurn persists the user's input and the assistant's reply as one
// logical transaction, so a crash never leaves an assistant-only turn.
func (s *Service) AppendTurn(ctx context.Context, conversationID uint, userMsg, assistantMsg *Message) error {
	if userMsg.Role != RoleUser || assistantMsg.Role != RoleAssistant {
		return fmt.Errorf("append turn requires a user message followed by an assistant message")
	}
	return s.conversations.AppendMessages(ctx, conversationID, []*Message{userMsg, assistantMsg})
}

// GetHistory returns the conversation's messages in ascending sequence
// order, bounded to the most recent limit messages when limit is positive.
func (s *Service) GetHistory(ctx context.Context, conversationID uint, limit int) ([]*Message, error) {
	return s.conversations.History(ctx, conversationID, limit)
}

// GetUserSettings retrieves the user's generation settings, persisting
// defaults on first access.
func (s *Service) GetUserSettings(ctx context.Context, userID uint) (*settings.GenerationSettings, error) {
	current, err := s.settings.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	return s.settings.Upsert(ctx, settings.DefaultSettings(userID))
}

// UpdateUserSettings merges only the provided fields and validates the
// cross-field constraints before persisting. On validation failure the
// stored settings are left unchanged.
func (s *Service) UpdateUserSettings(ctx context.Context, userID uint, req settings.UpdateRequest) (*settings.GenerationSettings, error) {
	current, err := s.GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Apply(req)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.settings.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func newPublicID() string {
	return "conv_" + uuid.NewString()
}
