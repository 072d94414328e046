package dbschema

import (
	"time"

	"github.com/pepperbot/pepper-server/internal/domain/settings"
	"github.com/pepperbot/pepper-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(UserSettings{})
}

// UserSettings is the database schema for the user_settings table.
type UserSettings struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:ux_user_settings_user_id"`

	Model           string  `gorm:"size:128;not null"`
	MaxTokens       int     `gorm:"not null"`
	Temperature     float32 `gorm:"not null"`
	ThinkingEnabled bool    `gorm:"not null;default:false"`
	ThinkingBudget  int     `gorm:"not null;default:0"`
	SearchEnabled   bool    `gorm:"not null;default:false"`
	ReasoningEffort string  `gorm:"size:16;not null;default:'medium'"`
	Verbosity       string  `gorm:"size:16;not null;default:'medium'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName specifies the table name for UserSettings.
func (UserSettings) TableName() string {
	return "pepper.user_settings"
}

// EtoD converts entity (database schema) to domain model.
func (e *UserSettings) EtoD() *settings.GenerationSettings {
	return &settings.GenerationSettings{
		UserID:          e.UserID,
		Model:           e.Model,
		MaxTokens:       e.MaxTokens,
		Temperature:     e.Temperature,
		ThinkingEnabled: e.ThinkingEnabled,
		ThinkingBudget:  e.ThinkingBudget,
		SearchEnabled:   e.SearchEnabled,
		ReasoningEffort: settings.ReasoningEffort(e.ReasoningEffort),
		Verbosity:       settings.Verbosity(e.Verbosity),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// NewSchemaUserSettings converts domain model to entity (database schema).
func NewSchemaUserSettings(d *settings.GenerationSettings) *UserSettings {
	return &UserSettings{
		UserID:          d.UserID,
		Model:           d.Model,
		MaxTokens:       d.MaxTokens,
		Temperature:     d.Temperature,
		ThinkingEnabled: d.ThinkingEnabled,
		ThinkingBudget:  d.ThinkingBudget,
		SearchEnabled:   d.SearchEnabled,
		ReasoningEffort: string(d.ReasoningEffort),
		Verbosity:       string(d.Verbosity),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
