package store

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/samber/lo"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database/types"
	"github.com/eslsoft/kanaplay/pkg/filterexpr"
)

const insertChunkSize = 100

// ErrSkip returned from a mutate callback leaves that document untouched.
var ErrSkip = errors.New("store: skip document")

// Spec maps documents of type T onto a table declared in the migrate package.
// Index returns the denormalised column values; columns it omits are written as NULL.
type Spec[T any] struct {
	Table *schema.Table
	ID    func(*T) any
	Index func(*T) map[string]any
}

// SortField orders results by an index column.
type SortField struct {
	Column string
	Desc   bool
}

func Asc(column string) SortField  { return SortField{Column: column} }
func Desc(column string) SortField { return SortField{Column: column, Desc: true} }

// FindOptions shapes a query. Zero Limit means unlimited.
type FindOptions struct {
	Sort   []SortField
	Limit  int
	Offset int
}

// UpdateOption configures UpdateOne.
type UpdateOption[T any] func(*updateConfig[T])

type updateConfig[T any] struct {
	upsert bool
	init   func() T
}

// Upsert makes UpdateOne insert a document when nothing matches.
// init seeds the new document before mutate runs; nil starts from the zero value.
func Upsert[T any](init func() T) UpdateOption[T] {
	return func(cfg *updateConfig[T]) {
		cfg.upsert = true
		cfg.init = init
	}
}

// Collection is a typed view over one table of the store.
type Collection[T any] struct {
	store   *Store
	name    string
	spec    Spec[T]
	columns []string
	known   map[string]*schema.Column
}

// NewCollection binds spec to s.
func NewCollection[T any](s *Store, spec Spec[T]) *Collection[T] {
	c := &Collection[T]{
		store: s,
		name:  spec.Table.Name,
		spec:  spec,
		known: make(map[string]*schema.Column, len(spec.Table.Columns)),
	}
	for _, col := range spec.Table.Columns {
		c.known[col.Name] = col
		if col.Name != idColumn && col.Name != dataColumn {
			c.columns = append(c.columns, col.Name)
		}
	}
	return c
}

// Name returns the collection (table) name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Schema derives filter and order rules from the table's columns.
// Columns ending in _at hold Unix milliseconds and are exposed as timestamps.
func (c *Collection[T]) Schema() filterexpr.ResourceSchema {
	filters := make(map[string]filterexpr.FilterField, len(c.known))
	orders := make(map[string]filterexpr.OrderField, len(c.known))
	for name, col := range c.known {
		if name == dataColumn {
			continue
		}
		kind := filterexpr.KindNumber
		switch {
		case col.Type == field.TypeString:
			kind = filterexpr.KindString
		case col.Type == field.TypeBool:
			kind = filterexpr.KindBool
		case strings.HasSuffix(name, "_at"):
			kind = filterexpr.KindTimestamp
		}
		filters[name] = filterexpr.FilterField{Column: name, Kind: kind, Nullable: col.Nullable}
		orders[name] = filterexpr.OrderField{Column: name}
	}
	return filterexpr.ResourceSchema{
		Filter: filters,
		Order: filterexpr.OrderSchema{
			DefaultKey:  idColumn,
			FallbackKey: idColumn,
			Fields:      orders,
		},
	}
}

// Where parses a CEL conjunction over the collection's index columns.
func (c *Collection[T]) Where(expr string) (Filter, error) {
	conds, err := filterexpr.Parse(expr, c.Schema().Filter)
	if err != nil {
		return nil, err
	}
	return FromConditions(conds)
}

// Find returns a lazy cursor; nothing runs until the cursor is consumed.
func (c *Collection[T]) Find(filter Filter, opts FindOptions) *Cursor[T] {
	return &Cursor[T]{coll: c, filter: filter, opts: opts}
}

// FindOne returns the first match in id order, or entity.ErrNotFound.
func (c *Collection[T]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	return c.findOne(ctx, c.store.db, filter)
}

// Get looks a document up by id.
func (c *Collection[T]) Get(ctx context.Context, id any) (*T, error) {
	return c.FindOne(ctx, Eq(idColumn, id))
}

// Count reports how many documents match filter.
func (c *Collection[T]) Count(ctx context.Context, filter Filter) (int, error) {
	b := sql.Dialect(c.store.dialect)
	sel := b.Select(sql.Count("*")).From(b.Table(c.name))
	if filter != nil {
		sel.Where(filter)
	}
	query, args := sel.Query()
	rows, err := c.store.query(ctx, c.store.db, query, args)
	if err != nil {
		return 0, storageError("count", c.name, err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, storageError("count", c.name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, storageError("count", c.name, err)
	}
	return count, nil
}

// Distinct returns the distinct values of an index column among matching documents.
func (c *Collection[T]) Distinct(ctx context.Context, column string, filter Filter) ([]any, error) {
	if err := c.checkColumn(column); err != nil {
		return nil, err
	}
	b := sql.Dialect(c.store.dialect)
	sel := b.Select(column).Distinct().From(b.Table(c.name)).OrderBy(sql.Asc(column))
	if filter != nil {
		sel.Where(filter)
	}
	query, args := sel.Query()
	rows, err := c.store.query(ctx, c.store.db, query, args)
	if err != nil {
		return nil, storageError("distinct", c.name, err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, storageError("distinct", c.name, err)
		}
		if raw, ok := v.([]byte); ok {
			v = string(raw)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("distinct", c.name, err)
	}
	return values, nil
}

// Insert adds a new document. An existing id is an error.
func (c *Collection[T]) Insert(ctx context.Context, doc T) error {
	return c.InsertMany(ctx, []T{doc})
}

// InsertMany adds documents in one transaction.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []T) error {
	return c.write(ctx, "insert", docs, false)
}

// UpsertMany replaces documents by id, inserting those that do not exist yet.
func (c *Collection[T]) UpsertMany(ctx context.Context, docs []T) error {
	return c.write(ctx, "upsert", docs, true)
}

func (c *Collection[T]) write(ctx context.Context, op string, docs []T, upsert bool) error {
	if len(docs) == 0 {
		return nil
	}
	err := c.store.withTx(ctx, func(q querier) error {
		for _, chunk := range lo.Chunk(docs, insertChunkSize) {
			query, args, err := c.insertQuery(chunk, upsert)
			if err != nil {
				return err
			}
			if _, err := c.store.exec(ctx, q, query, args); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageError(op, c.name, err)
	}
	c.store.notify(ctx, c.name)
	return nil
}

// UpdateOne loads the first matching document, applies mutate and writes it back.
// With opts.Upsert a missing document is created from init (or the zero value) and mutated.
// It reports whether anything was written.
func (c *Collection[T]) UpdateOne(ctx context.Context, filter Filter, mutate func(*T) error, opts ...UpdateOption[T]) (bool, error) {
	var cfg updateConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		written   bool
		mutateErr error
	)
	err := c.store.withTx(ctx, func(q querier) error {
		doc, err := c.findOne(ctx, q, filter)
		switch {
		case err == nil:
			id := c.spec.ID(doc)
			if mutateErr = mutate(doc); mutateErr != nil {
				return mutateErr
			}
			if err := c.updateDoc(ctx, q, id, doc); err != nil {
				return err
			}
		case errors.Is(err, entity.ErrNotFound) && cfg.upsert:
			var fresh T
			if cfg.init != nil {
				fresh = cfg.init()
			}
			if mutateErr = mutate(&fresh); mutateErr != nil {
				return mutateErr
			}
			query, args, err := c.insertQuery([]T{fresh}, false)
			if err != nil {
				return err
			}
			if _, err := c.store.exec(ctx, q, query, args); err != nil {
				return err
			}
		case errors.Is(err, entity.ErrNotFound):
			return nil
		default:
			return err
		}
		written = true
		return nil
	})
	switch {
	case errors.Is(mutateErr, ErrSkip):
		return false, nil
	case mutateErr != nil:
		return false, mutateErr
	case err != nil:
		return false, storageError("update", c.name, err)
	}
	if written {
		c.store.notify(ctx, c.name)
	}
	return written, nil
}

// UpdateMany applies mutate to every matching document in one transaction.
// Documents for which mutate returns ErrSkip are left as they are.
func (c *Collection[T]) UpdateMany(ctx context.Context, filter Filter, mutate func(*T) error) (int, error) {
	var (
		updated   int
		mutateErr error
	)
	err := c.store.withTx(ctx, func(q querier) error {
		docs, err := c.findDocs(ctx, q, filter, FindOptions{})
		if err != nil {
			return err
		}
		for i := range docs {
			doc := &docs[i]
			id := c.spec.ID(doc)
			if err := mutate(doc); err != nil {
				if errors.Is(err, ErrSkip) {
					continue
				}
				mutateErr = err
				return err
			}
			if err := c.updateDoc(ctx, q, id, doc); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if mutateErr != nil {
		return 0, mutateErr
	}
	if err != nil {
		return 0, storageError("update", c.name, err)
	}
	if updated > 0 {
		c.store.notify(ctx, c.name)
	}
	return updated, nil
}

// RemoveOne deletes the first matching document in id order.
func (c *Collection[T]) RemoveOne(ctx context.Context, filter Filter) (bool, error) {
	removed := false
	err := c.store.withTx(ctx, func(q querier) error {
		doc, err := c.findOne(ctx, q, filter)
		if errors.Is(err, entity.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		n, err := c.delete(ctx, q, Eq(idColumn, c.spec.ID(doc)))
		removed = n > 0
		return err
	})
	if err != nil {
		return false, storageError("remove", c.name, err)
	}
	if removed {
		c.store.notify(ctx, c.name)
	}
	return removed, nil
}

// RemoveMany deletes every matching document; a nil filter clears the collection.
func (c *Collection[T]) RemoveMany(ctx context.Context, filter Filter) (int, error) {
	var removed int
	err := c.store.withTx(ctx, func(q querier) error {
		n, err := c.delete(ctx, q, filter)
		removed = n
		return err
	})
	if err != nil {
		return 0, storageError("remove", c.name, err)
	}
	if removed > 0 {
		c.store.notify(ctx, c.name)
	}
	return removed, nil
}

// Snapshot is one evaluation of a live query.
type Snapshot[T any] struct {
	Docs []T
	Err  error
}

// Watch evaluates the query now and again after every change to the collection until ctx ends.
func (c *Collection[T]) Watch(ctx context.Context, filter Filter, opts FindOptions) <-chan Snapshot[T] {
	out := make(chan Snapshot[T], 1)
	changes, cancel := c.store.Subscribe(c.name)
	go func() {
		defer close(out)
		defer cancel()
		for {
			docs, err := c.Find(filter, opts).All(ctx)
			select {
			case out <- Snapshot[T]{Docs: docs, Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *Collection[T]) findOne(ctx context.Context, q querier, filter Filter) (*T, error) {
	docs, err := c.findDocs(ctx, q, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", c.name, entity.ErrNotFound)
	}
	return &docs[0], nil
}

func (c *Collection[T]) findDocs(ctx context.Context, q querier, filter Filter, opts FindOptions) ([]T, error) {
	sel, err := c.selector(filter, opts)
	if err != nil {
		return nil, err
	}
	query, args := sel.Query()
	rows, err := c.store.query(ctx, q, query, args)
	if err != nil {
		return nil, storageError("find", c.name, err)
	}
	docs, err := scanDocs[T](rows)
	if err != nil {
		return nil, storageError("find", c.name, err)
	}
	return docs, nil
}

func (c *Collection[T]) selector(filter Filter, opts FindOptions) (*sql.Selector, error) {
	b := sql.Dialect(c.store.dialect)
	sel := b.Select(dataColumn).From(b.Table(c.name))
	if filter != nil {
		sel.Where(filter)
	}

	byID := false
	for _, s := range opts.Sort {
		if err := c.checkColumn(s.Column); err != nil {
			return nil, err
		}
		if s.Column == idColumn {
			byID = true
		}
		if s.Desc {
			sel.OrderBy(sql.Desc(s.Column))
		} else {
			sel.OrderBy(sql.Asc(s.Column))
		}
	}
	if !byID {
		sel.OrderBy(sql.Asc(idColumn))
	}

	switch {
	case opts.Limit > 0:
		sel.Limit(opts.Limit)
	case opts.Offset > 0:
		sel.Limit(math.MaxInt32)
	}
	if opts.Offset > 0 {
		sel.Offset(opts.Offset)
	}
	return sel, nil
}

func (c *Collection[T]) checkColumn(column string) error {
	if _, ok := c.known[column]; !ok || column == dataColumn {
		return fmt.Errorf("%s: unknown column %q", c.name, column)
	}
	return nil
}

func (c *Collection[T]) insertColumns() []string {
	cols := make([]string, 0, len(c.columns)+2)
	cols = append(cols, idColumn)
	cols = append(cols, c.columns...)
	return append(cols, dataColumn)
}

// row returns values aligned with insertColumns.
func (c *Collection[T]) row(doc *T) ([]any, error) {
	data, err := types.NewJSON(*doc).Value()
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	var index map[string]any
	if c.spec.Index != nil {
		index = c.spec.Index(doc)
	}
	vals := make([]any, 0, len(c.columns)+2)
	vals = append(vals, normalizeValue(c.spec.ID(doc)))
	for _, col := range c.columns {
		vals = append(vals, normalizeValue(index[col]))
	}
	return append(vals, data), nil
}

func (c *Collection[T]) insertQuery(docs []T, upsert bool) (string, []any, error) {
	b := sql.Dialect(c.store.dialect)
	ins := b.Insert(c.name).Columns(c.insertColumns()...)
	for i := range docs {
		vals, err := c.row(&docs[i])
		if err != nil {
			return "", nil, err
		}
		ins.Values(vals...)
	}
	if upsert {
		ins.OnConflict(sql.ConflictColumns(idColumn), sql.ResolveWithNewValues())
	}
	query, args := ins.Query()
	return query, args, nil
}

func (c *Collection[T]) updateDoc(ctx context.Context, q querier, id any, doc *T) error {
	vals, err := c.row(doc)
	if err != nil {
		return err
	}
	b := sql.Dialect(c.store.dialect)
	upd := b.Update(c.name).Where(sql.EQ(idColumn, normalizeValue(id)))
	cols := c.insertColumns()
	for i, col := range cols {
		upd.Set(col, vals[i])
	}
	query, args := upd.Query()
	_, err = c.store.exec(ctx, q, query, args)
	return err
}

func (c *Collection[T]) delete(ctx context.Context, q querier, filter Filter) (int, error) {
	del := sql.Dialect(c.store.dialect).Delete(c.name)
	if filter != nil {
		del.Where(filter)
	}
	query, args := del.Query()
	res, err := c.store.exec(ctx, q, query, args)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanDocs[T any](rows *stdsql.Rows) ([]T, error) {
	defer rows.Close()
	var docs []T
	for rows.Next() {
		var data types.JSON[T]
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		if !data.Valid {
			continue
		}
		docs = append(docs, data.V)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
