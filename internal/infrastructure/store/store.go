package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database"
)

const (
	idColumn   = "id"
	dataColumn = "data"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is the durable, reactive document store backing every collection.
type Store struct {
	db      *sql.DB
	dialect string
	logger  logrus.FieldLogger

	// writeMu serialises write transactions.
	writeMu sync.Mutex

	subMu sync.Mutex
	subs  map[string]map[*subscription]struct{}
}

type subscription struct {
	ch chan struct{}
}

// Option customises a Store.
type Option func(*Store)

// WithLogger attaches a logger used for query tracing at debug level.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Store over an opened database.
func New(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:      db.SQL,
		dialect: db.Dialect,
		logger:  logrus.StandardLogger(),
		subs:    make(map[string]map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect reports the SQL dialect in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Subscribe returns a channel that receives a value whenever collection changes.
// Notifications coalesce: a slow reader sees at most one pending signal.
func (s *Store) Subscribe(collection string) (<-chan struct{}, func()) {
	sub := &subscription{ch: make(chan struct{}, 1)}

	s.subMu.Lock()
	set, ok := s.subs[collection]
	if !ok {
		set = make(map[*subscription]struct{})
		s.subs[collection] = set
	}
	set[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs[collection], sub)
			s.subMu.Unlock()
		})
	}
}

// Batch runs fn with a scope that defers change notifications until fn returns.
// Each touched collection is notified once. Writes that committed before a failure stay committed.
func (s *Store) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(batchKey{}).(*batchScope); ok {
		return fn(ctx)
	}

	scope := &batchScope{touched: make(map[string]struct{})}
	err := fn(context.WithValue(ctx, batchKey{}, scope))

	for _, name := range scope.collections() {
		s.broadcast(name)
	}
	return err
}

func (s *Store) notify(ctx context.Context, collection string) {
	if scope, ok := ctx.Value(batchKey{}).(*batchScope); ok {
		scope.touch(collection)
		return
	}
	s.broadcast(collection)
}

func (s *Store) broadcast(collection string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subs[collection] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q querier, query string, args []any) (sql.Result, error) {
	s.logger.WithField("query", query).Debug("store exec")
	return q.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args []any) (*sql.Rows, error) {
	s.logger.WithField("query", query).Debug("store query")
	return q.QueryContext(ctx, query, args...)
}

func storageError(op, collection string, err error) error {
	if errors.Is(err, entity.ErrStorage) {
		return err
	}
	return fmt.Errorf("%s %s: %w: %w", op, collection, entity.ErrStorage, err)
}

type batchKey struct{}

type batchScope struct {
	mu      sync.Mutex
	touched map[string]struct{}
}

func (b *batchScope) touch(name string) {
	b.mu.Lock()
	b.touched[name] = struct{}{}
	b.mu.Unlock()
}

func (b *batchScope) collections() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.touched))
	for name := range b.touched {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
