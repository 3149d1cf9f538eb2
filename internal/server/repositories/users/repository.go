// Package users persists registered accounts. Implementations exist for
// SQLite (default) and PostgreSQL; both report a taken username as
// common.ErrorAlreadyExists and a missing one as common.ErrorNotFound.
package users

import (
	"context"

	"github.com/dmitrijs2005/podmate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
