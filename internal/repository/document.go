package repository

import "context"

type ListDocumentsQuery struct {
	Pagination
	FilterOrder
}

// DocumentFinder runs ad hoc queries against any collection by name.
type DocumentFinder interface {
	Collections() []string
	Find(ctx context.Context, collection string, query *ListDocumentsQuery) ([]any, int, error)
	Watch(ctx context.Context, collection string, query *ListDocumentsQuery) (<-chan DocumentSnapshot, error)
}

// DocumentSnapshot is one evaluation of a watched query.
type DocumentSnapshot struct {
	Documents []any
	Err       error
}
