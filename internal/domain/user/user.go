// Package user provides user domain models and behaviors.
package user

import (
	"context"
	"errors"
	"time"
)

// User models an end user of the bot, keyed by the opaque numeric id the
// chat transport assigns them.
type User struct {
	ID         uint
	ExternalID int64
	Username   *string
	FirstName  *string
	LastName   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Identity encapsulates the transport-provided identity attributes.
type Identity struct {
	ExternalID int64
	Username   *string
	FirstName  *string
	LastName   *string
}

// Repository defines storage operations for users.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID int64) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Upsert(ctx context.Context, user *User) (*User, error)
}

// ErrInvalidIdentity indicates a missing external id on the identity payload.
var ErrInvalidIdentity = errors.New("invalid identity: external id is required")

// Service persists and resolves users from transport identities.
type Service struct {
	repo Repository
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureUser persists the given identity and returns the internal user
// record, creating it on first interaction.
func (s *Service) EnsureUser(ctx context.Context, identity Identity) (*User, error) {
	if identity.ExternalID == 0 {
		return nil, ErrInvalidIdentity
	}

	return s.repo.Upsert(ctx, &User{
		ExternalID: identity.ExternalID,
		Username:   identity.Username,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
	})
}
