package conversationrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pepperbot/pepper-server/internal/domain/conversation"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/dbschema"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/transaction"
	"github.com/pepperbot/pepper-server/internal/utils/platformerrors"
)

// Repository handles conversation and message persistence. Appends to a
// conversation are linearized with a row lock on the conversation so
// sequence positions never collide.
type Repository struct {
	tx *transaction.Database
}

func NewRepository(tx *transaction.Database) *Repository {
	return &Repository{tx: tx}
}

func (r *Repository) FindActiveByUserID(ctx context.Context, userID uint) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := r.tx.GetTx(ctx).WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find active conversation",
			err,
			"8c4f2a61-0d9e-43b7-a852-7f1e6c3b0d95",
		)
	}
	return entity.EtoD(), nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := r.tx.GetTx(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, conversation.ErrConversationNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find conversation by id",
			err,
			"2e7b9d40-5a1c-48f6-b3e9-0c8d4f627a15",
		)
	}
	return entity.EtoD(), nil
}

// StartNew deactivates any active conversation of the user and creates a
// fresh one, in a single transaction. Always creates; a fresh start is
// never deduplicated against a just-created empty conversation.
func (r *Repository) StartNew(ctx context.Context, userID uint, publicID string) (*conversation.Conversation, error) {
	var created *dbschema.Conversation
	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		tx := r.tx.GetTx(ctx)
		if err := tx.Model(&dbschema.Conversation{}).
			Where("user_id = ? AND active = ?", userID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		created = &dbschema.Conversation{
			PublicID: publicID,
			UserID:   userID,
			Active:   true,
		}
		return tx.Create(created).Error
	})
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to start new conversation",
			err,
			"b1d5e8f3-7c20-4a69-9e14-6d3a0b52c7f8",
		)
	}
	return created.EtoD(), nil
}

// AppendMessages assigns the next sequence positions and inserts all
// messages atomically. The SELECT ... FOR UPDATE on the conversation row
// serializes concurrent appends and makes the active check race-free.
func (r *Repository) AppendMessages(ctx context.Context, conversationID uint, messages []*conversation.Message) error {
	if len(messages) == 0 {
		return nil
	}

	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		tx := r.tx.GetTx(ctx)

		var conv dbschema.Conversation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", conversationID).
			First(&conv).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return conversation.ErrConversationNotFound
			}
			return err
		}
		if !conv.Active {
			return conversation.ErrConversationNotFound
		}

		var maxSequence int
		if err := tx.Model(&dbschema.Message{}).
			Where("conversation_id = ?", conversationID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&maxSequence).Error; err != nil {
			return err
		}

		for i, msg := range messages {
			msg.ConversationID = conversationID
			msg.Sequence = maxSequence + i + 1
			entity := dbschema.NewSchemaMessage(msg)
			if err := tx.Create(entity).Error; err != nil {
				return err
			}
			msg.ID = entity.ID
			msg.CreatedAt = entity.CreatedAt
		}
		return nil
	})
	if err != nil {
		if err == conversation.ErrConversationNotFound {
			return err
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to append messages",
			err,
			"f0a2c6d8-3b91-4e57-8d26-1e9b5a40c3f7",
		)
	}
	return nil
}

// History returns messages in ascending sequence order. A positive limit
// bounds the result to the most recent limit messages.
func (r *Repository) History(ctx context.Context, conversationID uint, limit int) ([]*conversation.Message, error) {
	query := r.tx.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID)

	var entities []dbschema.Message
	if limit > 0 {
		// Fetch the newest limit rows, then restore ascending order.
		sub := query.Session(&gorm.Session{}).
			Model(&dbschema.Message{}).
			Order("sequence DESC").
			Limit(limit)
		if err := r.tx.GetTx(ctx).WithContext(ctx).
			Table("(?) AS recent", sub).
			Order("recent.sequence ASC").
			Find(&entities).Error; err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to load conversation history",
				err,
				"5d8e1f20-9c47-4b3a-a6e8-0f2d7c64b195",
			)
		}
	} else {
		if err := query.Order("sequence ASC").Find(&entities).Error; err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to load conversation history",
				err,
				"a7c3e9b1-2d50-46f8-9b04-8e6f1d32a5c9",
			)
		}
	}

	messages := make([]*conversation.Message, 0, len(entities))
	for i := range entities {
		messages = append(messages, entities[i].EtoD())
	}
	return messages, nil
}
