package dbschema

import (
	"time"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{}, Message{})
}

// Conversation is the database schema for the conversations table.
type Conversation struct {
	ID       uint   `gorm:"primaryKey"`
	PublicID string `gorm:"size:64;not null;uniqueIndex:ux_conversations_public_id"`
	UserID   uint   `gorm:"not null;index:ix_conversations_user_id"`
	Active   bool   `gorm:"not null;default:true;index:ix_conversations_user_active,where:active"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "pepper.conversations"
}

// EtoD converts entity (database schema) to domain model.
func (e *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        e.ID,
		PublicID:  e.PublicID,
		UserID:    e.UserID,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// NewSchemaConversation converts domain model to entity (database schema).
func NewSchemaConversation(d *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:        d.ID,
		PublicID:  d.PublicID,
		UserID:    d.UserID,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Message is the database schema for the messages table. The unique index
// on (conversation_id, sequence) is the last line of defense for ordering
// integrity; sequence assignment happens under a row lock on the parent
// conversation.
type Message struct {
	ID             uint                      `gorm:"primaryKey"`
	ConversationID uint                      `gorm:"not null;uniqueIndex:ux_messages_conversation_sequence,priority:1"`
	Sequence       int                       `gorm:"not null;uniqueIndex:ux_messages_conversation_sequence,priority:2"`
	Role           string                    `gorm:"size:16;not null"`
	Content        string                    `gorm:"type:text;not null"`
	Attachments    []conversation.Attachment `gorm:"type:jsonb;serializer:json"`
	Provider       string                    `gorm:"size:32"`
	Model          string                    `gorm:"size:128"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "pepper.messages"
}

// EtoD converts entity (database schema) to domain model.
func (e *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		Sequence:       e.Sequence,
		Role:           conversation.Role(e.Role),
		Content:        e.Content,
		Attachments:    e.Attachments,
		Provider:       e.Provider,
		Model:          e.Model,
		CreatedAt:      e.CreatedAt,
	}
}

// NewSchemaMessage converts domain model to entity (database schema).
func NewSchemaMessage(d *conversation.Message) *Message {
	return &Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		Sequence:       d.Sequence,
		Role:           string(d.Role),
		Content:        d.Content,
		Attachments:    d.Attachments,
		Provider:       d.Provider,
		Model:          d.Model,
		CreatedAt:      d.CreatedAt,
	}
}
