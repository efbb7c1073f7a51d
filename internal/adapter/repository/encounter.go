package repository

import (
	"context"
	"sync"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type EncounterRepository struct {
	store      *store.Store
	encounters *store.Collection[entity.Encounter]
	items      *store.Collection[entity.EncounterItem]
}

// NewEncounterRepository constructs a store-backed encounter repository.
func NewEncounterRepository(s *store.Store, c *Collections) repository.EncounterRepository {
	return &EncounterRepository{store: s, encounters: c.Encounters, items: c.EncounterItems}
}

func (r *EncounterRepository) CreateEncounter(ctx context.Context, encounter *entity.Encounter) error {
	return r.encounters.Insert(ctx, *encounter)
}

func (r *EncounterRepository) CreateItems(ctx context.Context, items []entity.EncounterItem) error {
	return r.items.InsertMany(ctx, items)
}

func (r *EncounterRepository) ListEncounters(ctx context.Context) ([]entity.Encounter, error) {
	return r.encounters.Find(store.All, store.FindOptions{
		Sort: []store.SortField{store.Asc("started_at")},
	}).All(ctx)
}

func (r *EncounterRepository) ListItems(ctx context.Context, query repository.ListEncounterItemsQuery) ([]entity.EncounterItem, error) {
	var filter store.Filter
	if query.SubjectID != 0 {
		filter = store.Eq("subject_id", query.SubjectID)
	}
	return r.items.Find(filter, store.FindOptions{
		Sort:  []store.SortField{store.Desc("created_at")},
		Limit: query.Limit,
	}).All(ctx)
}

func (r *EncounterRepository) ListUnsynced(ctx context.Context) ([]entity.EncounterItem, error) {
	return r.items.Find(store.Eq("synced", false), store.FindOptions{
		Sort: []store.SortField{store.Asc("created_at")},
	}).All(ctx)
}

func (r *EncounterRepository) MarkSynced(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.items.UpdateMany(ctx, store.And(store.In("id", ids), store.Eq("synced", false)), func(item *entity.EncounterItem) error {
		item.Synced = true
		return nil
	})
}

func (r *EncounterRepository) CountDistinctSubjects(ctx context.Context) (int, error) {
	values, err := r.items.Distinct(ctx, "subject_id", store.All)
	if err != nil {
		return 0, err
	}
	return len(values), nil
}

// Subscribe merges change signals of the encounters and encounter_items collections.
func (r *EncounterRepository) Subscribe() (<-chan struct{}, func()) {
	encounters, cancelEncounters := r.store.Subscribe(r.encounters.Name())
	items, cancelItems := r.store.Subscribe(r.items.Name())

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-encounters:
			case <-items:
			case <-done:
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			cancelEncounters()
			cancelItems()
		})
	}
}
