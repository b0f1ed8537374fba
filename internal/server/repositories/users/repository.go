package users

import (
	"context"

	"github.com/dmitrijs2005/democracy365/internal/server/models"
)

// Repository is the read/insert surface of sandbox.users used by sign-in.
type Repository interface {
	// GetByEmail returns common.ErrNotFound when no user has the address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetCredentials returns common.ErrNotFound when the user does not exist.
	GetCredentials(ctx context.Context, userID int64) (*models.Credentials, error)
	// Create returns common.ErrDuplicateIdentity when the address is taken.
	Create(ctx context.Context, email string) error
}
