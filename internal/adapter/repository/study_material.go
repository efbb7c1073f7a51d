package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type StudyMaterialRepository struct {
	coll *store.Collection[entity.StudyMaterial]
}

// NewStudyMaterialRepository constructs a store-backed study material repository.
func NewStudyMaterialRepository(c *Collections) repository.StudyMaterialRepository {
	return &StudyMaterialRepository{coll: c.StudyMaterials}
}

func (r *StudyMaterialRepository) UpsertMany(ctx context.Context, materials []entity.StudyMaterial) error {
	return r.coll.UpsertMany(ctx, materials)
}

func (r *StudyMaterialRepository) ListBySubjectID(ctx context.Context, subjectID int64) ([]entity.StudyMaterial, error) {
	return r.coll.Find(store.Eq("subject_id", subjectID), store.FindOptions{}).All(ctx)
}

func (r *StudyMaterialRepository) Clear(ctx context.Context) error {
	_, err := r.coll.RemoveMany(ctx, store.All)
	return err
}
