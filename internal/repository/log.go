package repository

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// LogRepository is the durable diagnostic log sink.
type LogRepository interface {
	Append(ctx context.Context, entries []entity.LogEntry) error
	// Trim evicts the oldest entries beyond keep.
	Trim(ctx context.Context, keep int) (int, error)
	ListRecent(ctx context.Context, limit int) ([]entity.LogEntry, error)
}
