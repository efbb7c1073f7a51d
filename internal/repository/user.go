package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// UserRepository stores the singleton current user.
type UserRepository interface {
	Get(ctx context.Context) (*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context) error
}
