package dbschema

import (
	"time"

	"github.com/pepperbot/pepper-server/internal/domain/user"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(User{})
}

// User is the database schema for the users table.
type User struct {
	ID         uint    `gorm:"primaryKey"`
	ExternalID int64   `gorm:"not null;uniqueIndex:ux_users_external_id"`
	Username   *string `gorm:"size:255"`
	FirstName  *string `gorm:"size:255"`
	LastName   *string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "pepper.users"
}

// EtoD converts entity (database schema) to domain model.
func (e *User) EtoD() *user.User {
	return &user.User{
		ID:         e.ID,
		ExternalID: e.ExternalID,
		Username:   e.Username,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// NewSchemaUser converts domain model to entity (database schema).
func NewSchemaUser(d *user.User) *User {
	return &User{
		ID:         d.ID,
		ExternalID: d.ExternalID,
		Username:   d.Username,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
