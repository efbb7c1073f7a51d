package remote

import (
	"context"
	"time"

	"github.com/eslsoft/kanaplay/internal/adapter/mapping"
	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/wanikani"
	"github.com/eslsoft/kanaplay/internal/repository"
)

type WaniKaniSource struct {
	client *wanikani.Client
}

// NewWaniKaniSource adapts the API client to the sync engine's remote port.
func NewWaniKaniSource(client *wanikani.Client) repository.RemoteSource {
	return &WaniKaniSource{client: client}
}

func (s *WaniKaniSource) SetToken(token string) {
	s.client.SetToken(token)
}

func (s *WaniKaniSource) FetchUser(ctx context.Context) (*entity.User, error) {
	res, err := s.client.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	user := mapping.UserFromResource(*res)
	return &user, nil
}

func (s *WaniKaniSource) FetchSubjects(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[entity.Subject], error) {
	var (
		page *wanikani.Collection[wanikani.SubjectData]
		err  error
	)
	if pageURL == "" {
		page, err = s.client.GetSubjectsUpdatedAfter(ctx, after)
	} else {
		page, err = wanikani.Request[wanikani.SubjectData](ctx, s.client, pageURL)
	}
	if err != nil {
		return nil, err
	}
	return toPage(page, mapping.SubjectFromResource), nil
}

func (s *WaniKaniSource) FetchAssignments(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[entity.Assignment], error) {
	var (
		page *wanikani.Collection[wanikani.AssignmentData]
		err  error
	)
	if pageURL == "" {
		page, err = s.client.GetAssignmentsUpdatedAfter(ctx, after)
	} else {
		page, err = wanikani.Request[wanikani.AssignmentData](ctx, s.client, pageURL)
	}
	if err != nil {
		return nil, err
	}
	return toPage(page, mapping.AssignmentFromResource), nil
}

func (s *WaniKaniSource) FetchStudyMaterials(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[entity.StudyMaterial], error) {
	var (
		page *wanikani.Collection[wanikani.StudyMaterialData]
		err  error
	)
	if pageURL == "" {
		page, err = s.client.GetStudyMaterialsUpdatedAfter(ctx, after)
	} else {
		page, err = wanikani.Request[wanikani.StudyMaterialData](ctx, s.client, pageURL)
	}
	if err != nil {
		return nil, err
	}
	return toPage(page, mapping.StudyMaterialFromResource), nil
}

func (s *WaniKaniSource) CreateReview(ctx context.Context, assignmentID int64, meaningIncorrect, readingIncorrect int) error {
	return s.client.CreateReview(ctx, assignmentID, meaningIncorrect, readingIncorrect)
}

func (s *WaniKaniSource) StartAssignment(ctx context.Context, assignmentID int64) error {
	return s.client.StartAssignment(ctx, assignmentID)
}

func toPage[T, E any](page *wanikani.Collection[T], fn func(wanikani.Resource[T]) E) *repository.Page[E] {
	return &repository.Page[E]{
		Items:   mapping.Resources(page.Data, fn),
		NextURL: page.NextURL(),
	}
}
