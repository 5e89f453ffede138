// Package users persists user identities. It is the storage half of the
// credential store: password policy and hashing live in package passwords.
package users

import (
	"context"

	"github.com/dmitrijs2005/testmart/internal/server/models"
)

// Repository is the persistence contract for user identities.
//
// Lookups return common.ErrorNotFound when nothing matches, Create returns
// common.ErrorAlreadyExists when the email is taken. The Lock* variants behave
// like their Find* counterparts but also hold the record until the
// surrounding transaction ends, so read-modify-write sequences on one user
// are serialized.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	LockByID(ctx context.Context, id string) (*models.User, error)
	LockByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
