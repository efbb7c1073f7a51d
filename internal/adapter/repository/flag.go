package repository

import (
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

// NewFlagRepository exposes the store's key/value table.
func NewFlagRepository(s *store.Store) repository.FlagRepository {
	return store.NewFlags(s)
}
