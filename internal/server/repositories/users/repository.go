package users

import (
	"context"

	"github.com/dmitrijs2005/ideforge/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
