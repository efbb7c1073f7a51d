package repository

import (
	"context"

	"github.com/samber/lo"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type SubjectRepository struct {
	coll *store.Collection[entity.Subject]
}

// NewSubjectRepository constructs a store-backed subject repository.
func NewSubjectRepository(c *Collections) repository.SubjectRepository {
	return &SubjectRepository{coll: c.Subjects}
}

func (r *SubjectRepository) UpsertMany(ctx context.Context, subjects []entity.Subject) error {
	return r.coll.UpsertMany(ctx, subjects)
}

func (r *SubjectRepository) InsertMany(ctx context.Context, subjects []entity.Subject) error {
	return r.coll.InsertMany(ctx, subjects)
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*entity.Subject, error) {
	return r.coll.Get(ctx, id)
}

func (r *SubjectRepository) ListByIDs(ctx context.Context, ids []int64) ([]entity.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.coll.Find(store.In("id", lo.Uniq(ids)), store.FindOptions{}).All(ctx)
}

func (r *SubjectRepository) ListMissingKind(ctx context.Context) ([]entity.Subject, error) {
	return r.coll.Find(store.Eq("kind", nil), store.FindOptions{}).All(ctx)
}

func (r *SubjectRepository) CountMissingKind(ctx context.Context) (int, error) {
	return r.coll.Count(ctx, store.Eq("kind", nil))
}

func (r *SubjectRepository) SetKinds(ctx context.Context, kinds map[int64]entity.SubjectKind) (int, error) {
	if len(kinds) == 0 {
		return 0, nil
	}
	return r.coll.UpdateMany(ctx, store.In("id", lo.Keys(kinds)), func(s *entity.Subject) error {
		kind, ok := kinds[s.ID]
		if !ok || !kind.Valid() {
			return store.ErrSkip
		}
		s.Kind = kind
		return nil
	})
}

func (r *SubjectRepository) DeleteSynthetic(ctx context.Context) (int, error) {
	return r.coll.RemoveMany(ctx, store.Lt("id", 0))
}

func (r *SubjectRepository) Clear(ctx context.Context) error {
	_, err := r.coll.RemoveMany(ctx, store.All)
	return err
}
