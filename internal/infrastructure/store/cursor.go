package store

import (
	"context"
	"iter"
)

const eachPageSize = 256

// Cursor is a lazy, restartable query. Every consuming call re-runs the query.
type Cursor[T any] struct {
	coll   *Collection[T]
	filter Filter
	opts   FindOptions
}

// All loads every matching document.
func (cur *Cursor[T]) All(ctx context.Context) ([]T, error) {
	return cur.coll.findDocs(ctx, cur.coll.store.db, cur.filter, cur.opts)
}

// Count reports the number of matching documents, ignoring limit and offset.
func (cur *Cursor[T]) Count(ctx context.Context) (int, error) {
	return cur.coll.Count(ctx, cur.filter)
}

// Each streams matching documents page by page. No connection is held between pages,
// so the loop body may use the store.
func (cur *Cursor[T]) Each(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		offset := cur.opts.Offset
		remaining := cur.opts.Limit
		for {
			page := eachPageSize
			if cur.opts.Limit > 0 {
				if remaining <= 0 {
					return
				}
				page = min(page, remaining)
			}

			docs, err := cur.coll.findDocs(ctx, cur.coll.store.db, cur.filter, FindOptions{
				Sort:   cur.opts.Sort,
				Limit:  page,
				Offset: offset,
			})
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, doc := range docs {
				if !yield(doc, nil) {
					return
				}
			}
			if len(docs) < page {
				return
			}
			offset += len(docs)
			remaining -= len(docs)
		}
	}
}
