package userrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pepperbot/pepper-server/internal/domain/user"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/dbschema"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database/transaction"
	"github.com/pepperbot/pepper-server/internal/utils/platformerrors"
)

// Repository handles user persistence.
type Repository struct {
	tx *transaction.Database
}

func NewRepository(tx *transaction.Database) *Repository {
	return &Repository{tx: tx}
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID int64) (*user.User, error) {
	var entity dbschema.User
	err := r.tx.GetTx(ctx).WithContext(ctx).Where("external_id = ?", externalID).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find user by external id",
			err,
			"4b0e6a9c-2f31-47d8-b5c6-8e1a0d92f7a3",
		)
	}
	return entity.EtoD(), nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var entity dbschema.User
	err := r.tx.GetTx(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"user not found",
				err,
				"7d25c1e8-9a04-4b6f-8312-fc5e6b7a0d94",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find user by id",
			err,
			"0f8b3c52-6d17-4e9a-b0c4-21d7a5e8f936",
		)
	}
	return entity.EtoD(), nil
}

// Upsert inserts the user or refreshes the mutable identity attributes if
// the external id is already known.
func (r *Repository) Upsert(ctx context.Context, u *user.User) (*user.User, error) {
	entity := dbschema.NewSchemaUser(u)
	err := r.tx.GetTx(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "updated_at"}),
		}).
		Create(entity).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert user",
			err,
			"e6a9d0b4-1c83-45f7-92e5-3b6f8c04a1d7",
		)
	}
	return r.FindByExternalID(ctx, u.ExternalID)
}
