package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type UserRepository struct {
	coll *store.Collection[entity.User]
}

// NewUserRepository constructs a store-backed repository for the current user.
func NewUserRepository(c *Collections) repository.UserRepository {
	return &UserRepository{coll: c.Users}
}

func (r *UserRepository) Get(ctx context.Context) (*entity.User, error) {
	return r.coll.Get(ctx, entity.CurrentUserID)
}

// Save replaces the current user record as a whole.
func (r *UserRepository) Save(ctx context.Context, user *entity.User) error {
	record := *user
	record.ID = entity.CurrentUserID
	return r.coll.UpsertMany(ctx, []entity.User{record})
}

func (r *UserRepository) Delete(ctx context.Context) error {
	_, err := r.coll.RemoveMany(ctx, store.All)
	return err
}
