package repository

import "context"

// Pagination holds pagination parameters for listing documents.
type Pagination struct {
	PageNo   int32
	PageSize int32
}

func (p *Pagination) Offset() int32 {
	if p.PageNo < 1 {
		return 0
	}
	return (p.PageNo - 1) * p.PageSize
}

type FilterOrder struct {
	Filter  string
	OrderBy string
}

func (fo *FilterOrder) GetFilter() string { return fo.Filter }

func (fo *FilterOrder) GetOrderBy() string { return fo.OrderBy }

// Batcher groups several writes so observers are notified once per touched collection.
type Batcher interface {
	Batch(ctx context.Context, fn func(ctx context.Context) error) error
}
