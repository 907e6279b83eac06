// Package users is the credential store: user records keyed by a unique
// username, backed by PostgreSQL or SQLite.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists users.
//
// Lookups return common.ErrorNotFound when nothing matches. Create returns
// common.ErrConflict when the username is taken; the table's unique
// constraint decides that, so it also holds under concurrent inserts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}
