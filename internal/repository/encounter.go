package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// ListEncounterItemsQuery narrows encounter item scans. Zero values mean no restriction.
type ListEncounterItemsQuery struct {
	SubjectID int64
	Limit     int
}

// EncounterRepository stores finished sessions and their per-subject results.
type EncounterRepository interface {
	CreateEncounter(ctx context.Context, encounter *entity.Encounter) error
	CreateItems(ctx context.Context, items []entity.EncounterItem) error
	// ListEncounters returns every encounter ordered by start time ascending.
	ListEncounters(ctx context.Context) ([]entity.Encounter, error)
	// ListItems returns items newest first.
	ListItems(ctx context.Context, query ListEncounterItemsQuery) ([]entity.EncounterItem, error)
	ListUnsynced(ctx context.Context) ([]entity.EncounterItem, error)
	MarkSynced(ctx context.Context, ids []string) (int, error)
	CountDistinctSubjects(ctx context.Context) (int, error)
	// Subscribe signals whenever encounters or encounter items change.
	Subscribe() (<-chan struct{}, func())
}
