package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// SubjectRepository stores remote and synthetic subjects.
type SubjectRepository interface {
	UpsertMany(ctx context.Context, subjects []entity.Subject) error
	InsertMany(ctx context.Context, subjects []entity.Subject) error
	GetByID(ctx context.Context, id int64) (*entity.Subject, error)
	ListByIDs(ctx context.Context, ids []int64) ([]entity.Subject, error)
	ListMissingKind(ctx context.Context) ([]entity.Subject, error)
	CountMissingKind(ctx context.Context) (int, error)
	// SetKinds writes the discriminator of each subject id in one transaction.
	SetKinds(ctx context.Context, kinds map[int64]entity.SubjectKind) (int, error)
	DeleteSynthetic(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
