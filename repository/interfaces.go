package repository

import (
	"context"

	"userRegistration/models"
)

// UserStore defines the operations available on the users table.
type UserStore interface {
	Add(ctx context.Context, username, email, password string) (bool, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	CountByUsername(ctx context.Context, username string) (int, error)
}

var _ UserStore = (*UserRepository)(nil)
