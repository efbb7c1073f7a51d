package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type AssignmentRepository struct {
	coll *store.Collection[entity.Assignment]
}

// NewAssignmentRepository constructs a store-backed assignment repository.
func NewAssignmentRepository(c *Collections) repository.AssignmentRepository {
	return &AssignmentRepository{coll: c.Assignments}
}

func (r *AssignmentRepository) UpsertMany(ctx context.Context, assignments []entity.Assignment) error {
	return r.coll.UpsertMany(ctx, assignments)
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*entity.Assignment, error) {
	return r.coll.Get(ctx, id)
}

func (r *AssignmentRepository) GetBySubjectID(ctx context.Context, subjectID int64) (*entity.Assignment, error) {
	return r.coll.FindOne(ctx, store.Eq("subject_id", subjectID))
}

func (r *AssignmentRepository) CountByStage(ctx context.Context, stage int) (int, error) {
	return r.coll.Count(ctx, store.Eq("srs_stage", stage))
}

func (r *AssignmentRepository) ResetStage(ctx context.Context, from, to int) (int, error) {
	return r.coll.UpdateMany(ctx, store.Eq("srs_stage", from), func(a *entity.Assignment) error {
		a.SRSStage = to
		return nil
	})
}

func (r *AssignmentRepository) Update(ctx context.Context, id int64, mutate func(*entity.Assignment) error) error {
	ok, err := r.coll.UpdateOne(ctx, store.Eq("id", id), mutate)
	if err != nil {
		return err
	}
	if !ok {
		return entity.ErrNotFound
	}
	return nil
}

func (r *AssignmentRepository) Clear(ctx context.Context) error {
	_, err := r.coll.RemoveMany(ctx, store.All)
	return err
}
