package repository

import (
	"context"

	"docvault/internal/model"
)

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateUsername if the
	// username is already taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByUsername returns the user with the exact username, or
	// sql.ErrNoRows if absent.
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}
