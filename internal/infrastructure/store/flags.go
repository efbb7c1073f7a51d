package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/eslsoft/kanaplay/internal/infrastructure/database/migrate"
)

const (
	flagKeyColumn   = "key"
	flagValueColumn = "value"
)

// Flags is the durable key/value table holding sync timestamps and the auth token.
type Flags struct {
	store *Store
	table string
}

// NewFlags binds the flags table of s.
func NewFlags(s *Store) *Flags {
	return &Flags{store: s, table: migrate.FlagsTable.Name}
}

// Get returns the value stored under key and whether it exists.
func (f *Flags) Get(ctx context.Context, key string) (string, bool, error) {
	b := sql.Dialect(f.store.dialect)
	query, args := b.Select(flagValueColumn).
		From(b.Table(f.table)).
		Where(sql.EQ(flagKeyColumn, key)).
		Limit(1).
		Query()
	rows, err := f.store.query(ctx, f.store.db, query, args)
	if err != nil {
		return "", false, storageError("get", f.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, storageError("get", f.table, err)
		}
		return "", false, nil
	}
	var value string
	if err := rows.Scan(&value); err != nil {
		return "", false, storageError("get", f.table, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (f *Flags) Set(ctx context.Context, key, value string) error {
	query, args := sql.Dialect(f.store.dialect).
		Insert(f.table).
		Columns(flagKeyColumn, flagValueColumn).
		Values(key, value).
		OnConflict(sql.ConflictColumns(flagKeyColumn), sql.ResolveWithNewValues()).
		Query()
	err := f.store.withTx(ctx, func(q querier) error {
		_, err := f.store.exec(ctx, q, query, args)
		return err
	})
	if err != nil {
		return storageError("set", f.table, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (f *Flags) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args := sql.Dialect(f.store.dialect).
		Delete(f.table).
		Where(In(flagKeyColumn, keys)).
		Query()
	err := f.store.withTx(ctx, func(q querier) error {
		_, err := f.store.exec(ctx, q, query, args)
		return err
	})
	if err != nil {
		return storageError("delete", f.table, err)
	}
	return nil
}

// GetTime parses an RFC 3339 timestamp stored under key.
func (f *Flags) GetTime(ctx context.Context, key string) (time.Time, bool, error) {
	raw, ok, err := f.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("flag %s: %w", key, errors.Join(errInvalidTimestamp, err))
	}
	return t, true, nil
}

// SetTime stores t under key as an RFC 3339 timestamp.
func (f *Flags) SetTime(ctx context.Context, key string, t time.Time) error {
	return f.Set(ctx, key, t.UTC().Format(time.RFC3339Nano))
}

var errInvalidTimestamp = errors.New("invalid timestamp")
