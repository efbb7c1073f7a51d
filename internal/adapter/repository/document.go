package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/repository"
	"github.com/eslsoft/kanaplay/pkg/filterexpr"
)

// documentCollection erases the element type of a store collection for ad hoc queries.
type documentCollection interface {
	parse(query *repository.ListDocumentsQuery) (store.Filter, store.FindOptions, error)
	find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]any, error)
	count(ctx context.Context, filter store.Filter) (int, error)
	watch(ctx context.Context, filter store.Filter, opts store.FindOptions) <-chan repository.DocumentSnapshot
}

type typedCollection[T any] struct {
	coll *store.Collection[T]
}

func (t typedCollection[T]) parse(query *repository.ListDocumentsQuery) (store.Filter, store.FindOptions, error) {
	var opts store.FindOptions
	if query == nil {
		return nil, opts, nil
	}

	var filter store.Filter
	if strings.TrimSpace(query.GetFilter()) != "" {
		f, err := t.coll.Where(query.GetFilter())
		if err != nil {
			return nil, opts, fmt.Errorf("parse filter: %w", err)
		}
		filter = f
	}

	terms, err := filterexpr.ParseOrder(query.GetOrderBy(), t.coll.Schema().Order)
	if err != nil {
		return nil, opts, fmt.Errorf("parse order_by: %w", err)
	}
	opts.Sort = lo.Map(terms, func(term filterexpr.OrderTerm, _ int) store.SortField {
		return store.SortField{Column: term.Column, Desc: term.Desc}
	})
	if query.PageSize > 0 {
		opts.Limit = int(query.PageSize)
		opts.Offset = int(query.Offset())
	}
	return filter, opts, nil
}

func (t typedCollection[T]) find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]any, error) {
	docs, err := t.coll.Find(filter, opts).All(ctx)
	if err != nil {
		return nil, err
	}
	return toAny(docs), nil
}

func (t typedCollection[T]) count(ctx context.Context, filter store.Filter) (int, error) {
	return t.coll.Count(ctx, filter)
}

func (t typedCollection[T]) watch(ctx context.Context, filter store.Filter, opts store.FindOptions) <-chan repository.DocumentSnapshot {
	out := make(chan repository.DocumentSnapshot)
	go func() {
		defer close(out)
		for snap := range t.coll.Watch(ctx, filter, opts) {
			select {
			case out <- repository.DocumentSnapshot{Documents: toAny(snap.Docs), Err: snap.Err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func toAny[T any](docs []T) []any {
	return lo.Map(docs, func(doc T, _ int) any { return doc })
}

type DocumentFinder struct {
	collections map[string]documentCollection
}

// NewDocumentFinder exposes every collection for ad hoc queries.
func NewDocumentFinder(c *Collections) repository.DocumentFinder {
	return &DocumentFinder{collections: map[string]documentCollection{
		c.Subjects.Name():       typedCollection[entity.Subject]{c.Subjects},
		c.Assignments.Name():    typedCollection[entity.Assignment]{c.Assignments},
		c.StudyMaterials.Name(): typedCollection[entity.StudyMaterial]{c.StudyMaterials},
		c.Users.Name():          typedCollection[entity.User]{c.Users},
		c.Encounters.Name():     typedCollection[entity.Encounter]{c.Encounters},
		c.EncounterItems.Name(): typedCollection[entity.EncounterItem]{c.EncounterItems},
		c.Logs.Name():           typedCollection[entity.LogEntry]{c.Logs},
	}}
}

func (f *DocumentFinder) Collections() []string {
	names := lo.Keys(f.collections)
	sort.Strings(names)
	return names
}

func (f *DocumentFinder) Find(ctx context.Context, collection string, query *repository.ListDocumentsQuery) ([]any, int, error) {
	coll, err := f.lookup(collection)
	if err != nil {
		return nil, 0, err
	}
	filter, opts, err := coll.parse(query)
	if err != nil {
		return nil, 0, err
	}
	total, err := coll.count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	docs, err := coll.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (f *DocumentFinder) Watch(ctx context.Context, collection string, query *repository.ListDocumentsQuery) (<-chan repository.DocumentSnapshot, error) {
	coll, err := f.lookup(collection)
	if err != nil {
		return nil, err
	}
	filter, opts, err := coll.parse(query)
	if err != nil {
		return nil, err
	}
	return coll.watch(ctx, filter, opts), nil
}

func (f *DocumentFinder) lookup(collection string) (documentCollection, error) {
	coll, ok := f.collections[strings.TrimSpace(strings.ToLower(collection))]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q (available: %s)", collection, strings.Join(f.Collections(), ", "))
	}
	return coll, nil
}
