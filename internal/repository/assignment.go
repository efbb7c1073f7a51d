package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// AssignmentRepository stores per-user SRS state.
type AssignmentRepository interface {
	UpsertMany(ctx context.Context, assignments []entity.Assignment) error
	GetByID(ctx context.Context, id int64) (*entity.Assignment, error)
	GetBySubjectID(ctx context.Context, subjectID int64) (*entity.Assignment, error)
	CountByStage(ctx context.Context, stage int) (int, error)
	// ResetStage moves every assignment at stage from to stage to.
	ResetStage(ctx context.Context, from, to int) (int, error)
	// Update applies mutate to the assignment with id. It returns entity.ErrNotFound when absent.
	Update(ctx context.Context, id int64, mutate func(*entity.Assignment) error) error
	Clear(ctx context.Context) error
}
