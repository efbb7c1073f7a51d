package repository

import (
	"context"
	"time"
)

// FlagRepository is the durable key/value storage for sync timestamps and the auth token.
type FlagRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	GetTime(ctx context.Context, key string) (time.Time, bool, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
