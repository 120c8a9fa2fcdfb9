// Package users declares the repository contract for administrator accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

// Repository stores administrator accounts.
type Repository interface {
	// Create inserts user and fills in its ID. A duplicate user name yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin looks up an account by user name, or common.ErrorNotFound.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
