// Package conversation provides the conversation store: ordered per-user
// message history with exactly one active conversation per user.
package conversation

import (
	"context"
	"errors"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrConversationNotFound is returned when an append targets a conversation
// that no longer exists or was deactivated by a concurrent new-conversation
// call. Callers treat it as a benign "context was reset" outcome.
var ErrConversationNotFound = errors.New("conversation not found or no longer active")

// Conversation represents one continuous context window for a user.
type Conversation struct {
	ID        uint
	PublicID  string
	UserID    uint
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attachment references stored media belonging to a message.
type Attachment struct {
	MimeType   string `json:"mime_type"`
	StorageRef string `json:"storage_ref"`
}

// ProviderInfo labels which provider/model produced an assistant message.
type ProviderInfo struct {
	Provider string
	Model    string
}

// Message is one immutable turn in a conversation. Sequence positions are
// assigned at append time and are strictly increasing with no gaps.
type Message struct {
	ID             uint
	ConversationID uint
	Sequence       int
	Role           Role
	Content        string
	Attachments    []Attachment
	Provider       string
	Model          string
	CreatedAt      time.Time
}

// Repository defines the transactional storage operations for conversations
// and their messages. Implementations must linearize concurrent appends to
// the same conversation so sequence positions never collide.
type Repository interface {
	FindActiveByUserID(ctx context.Context, userID uint) (*Conversation, error)
	FindByID(ctx context.Context, id uint) (*Conversation, error)

	// StartNew deactivates any active conversation of the user and creates a
	// fresh one, in a single transaction.
	StartNew(ctx context.Context, userID uint, publicID string) (*Conversation, error)

	// AppendMessages assigns the next sequence positions and inserts all
	// messages in one transaction. Fails with ErrConversationNotFound if the
	// conversation is missing or was deactivated concurrently.
	AppendMessages(ctx context.Context, conversationID uint, messages []*Message) error

	// History returns messages in ascending sequence order. A positive limit
	// bounds the result to the most recent limit messages.
	History(ctx context.Context, conversationID uint, limit int) ([]*Message, error)
}
