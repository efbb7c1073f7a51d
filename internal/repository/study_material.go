package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// StudyMaterialRepository stores user notes attached to subjects.
type StudyMaterialRepository interface {
	UpsertMany(ctx context.Context, materials []entity.StudyMaterial) error
	ListBySubjectID(ctx context.Context, subjectID int64) ([]entity.StudyMaterial, error)
	Clear(ctx context.Context) error
}
