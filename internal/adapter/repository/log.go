package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type LogRepository struct {
	coll *store.Collection[entity.LogEntry]
}

// NewLogRepository constructs the store-backed log sink.
func NewLogRepository(c *Collections) repository.LogRepository {
	return &LogRepository{coll: c.Logs}
}

func (r *LogRepository) Append(ctx context.Context, entries []entity.LogEntry) error {
	return r.coll.InsertMany(ctx, entries)
}

func (r *LogRepository) Trim(ctx context.Context, keep int) (int, error) {
	total, err := r.coll.Count(ctx, store.All)
	if err != nil {
		return 0, err
	}
	excess := total - keep
	if excess <= 0 {
		return 0, nil
	}
	oldest, err := r.coll.Find(store.All, store.FindOptions{
		Sort:  []store.SortField{store.Asc("created_at")},
		Limit: excess,
	}).All(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(oldest))
	for _, entry := range oldest {
		ids = append(ids, entry.ID)
	}
	return r.coll.RemoveMany(ctx, store.In("id", ids))
}

func (r *LogRepository) ListRecent(ctx context.Context, limit int) ([]entity.LogEntry, error) {
	return r.coll.Find(store.All, store.FindOptions{
		Sort:  []store.SortField{store.Desc("created_at")},
		Limit: limit,
	}).All(ctx)
}
