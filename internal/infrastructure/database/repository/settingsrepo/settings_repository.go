package settingsrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/dbschema"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/transaction"
	"github.com/pepperbot/pepper-server/internal/utils/platformerrors"
)

// Repository handles per-user generation settings persistence.
type Repository struct {
	tx *transaction.Database
}

func NewRepository(tx *transaction.Database) *Repository {
	return &Repository{tx: tx}
}

func (r *Repository) FindByUserID(ctx context.Context, userID uint) (*settings.GenerationSettings, error) {
	var entity dbschema.UserSettings
	err := r.tx.GetTx(ctx).WithContext(ctx).Where("user_id = ?", userID).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find user settings",
			err,
			"d4b8f1a6-0e72-49c5-8a31-5c9e2d60b7f4",
		)
	}
	return entity.EtoD(), nil
}

// Upsert inserts settings for the user or leaves existing rows untouched,
// returning the stored state either way.
func (r *Repository) Upsert(ctx context.Context, gen *settings.GenerationSettings) (*settings.GenerationSettings, error) {
	entity := dbschema.NewSchemaUserSettings(gen)
	err := r.tx.GetTx(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(entity).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert user settings",
			err,
			"92c6e4d0-7a15-48b3-bf28-0d1f5a83c6e9",
		)
	}
	return r.FindByUserID(ctx, gen.UserID)
}

// Update replaces the user's settings row in full.
func (r *Repository) Update(ctx context.Context, gen *settings.GenerationSettings) error {
	entity := dbschema.NewSchemaUserSettings(gen)
	err := r.tx.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.UserSettings{}).
		Where("user_id = ?", gen.UserID).
		Updates(map[string]interface{}{
			"model":            entity.Model,
			"max_tokens":       entity.MaxTokens,
			"temperature":      entity.Temperature,
			"thinking_enabled": entity.ThinkingEnabled,
			"thinking_budget":  entity.ThinkingBudget,
			"search_enabled":   entity.SearchEnabled,
			"reasoning_effort": entity.ReasoningEffort,
			"verbosity":        entity.Verbosity,
		}).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update user settings",
			err,
			"61f0d8c2-4e93-47a5-b1d7-8a25c3e90f64",
		)
	}
	return nil
}
