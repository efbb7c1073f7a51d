package repository

import (
	"context"
	"time"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// Page is one page of a delta listing. An empty NextURL marks the last page.
type Page[T any] struct {
	Items   []T
	NextURL string
}

// RemoteSource is the remote learning platform as seen by the sync engine.
// Fetch* calls with an empty pageURL request the first page of items updated after after;
// a nil after requests the full dataset.
type RemoteSource interface {
	SetToken(token string)
	FetchUser(ctx context.Context) (*entity.User, error)
	FetchSubjects(ctx context.Context, after *time.Time, pageURL string) (*Page[entity.Subject], error)
	FetchAssignments(ctx context.Context, after *time.Time, pageURL string) (*Page[entity.Assignment], error)
	FetchStudyMaterials(ctx context.Context, after *time.Time, pageURL string) (*Page[entity.StudyMaterial], error)
	CreateReview(ctx context.Context, assignmentID int64, meaningIncorrect, readingIncorrect int) error
	StartAssignment(ctx context.Context, assignmentID int64) error
}

// Connectivity reports whether the remote can currently be reached.
type Connectivity interface {
	Online(ctx context.Context) bool
}
