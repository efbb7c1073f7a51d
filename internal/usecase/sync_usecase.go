package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/repository"
)

const tracerName = "github.com/eslsoft/kanaplay/internal/usecase"

const (
	defaultEntityInterval = 10 * time.Minute
	defaultPushBatchSize  = 45
	defaultPushBatchDelay = 60 * time.Second
)

// SyncUsecase keeps the local replica in step with the remote platform.
type SyncUsecase interface {
	SetToken(token string)
	HasToken() bool
	Sync(ctx context.Context, force bool) error
	SyncUser(ctx context.Context, force bool) error
	SyncSubjects(ctx context.Context, force bool) error
	SyncAssignments(ctx context.Context, force bool) error
	SyncStudyMaterials(ctx context.Context, force bool) error
	MigrateSubjects(ctx context.Context, force bool) (MigrationReport, error)
	MigrateAssignments(ctx context.Context, force bool) (MigrationReport, error)
	SyncEncounterItems(ctx context.Context) (PushReport, error)
	PopulateKana(ctx context.Context) (int, error)
	ClearData(ctx context.Context) error
	StartAssignment(ctx context.Context, assignmentID int64) error
	ApplyReviewOutcome(ctx context.Context, assignmentID int64, correct bool) error
}

// SyncRepositories groups the local collections touched by the sync engine.
type SyncRepositories struct {
	Users          repository.UserRepository
	Subjects       repository.SubjectRepository
	Assignments    repository.AssignmentRepository
	StudyMaterials repository.StudyMaterialRepository
	Encounters     repository.EncounterRepository
	Flags          repository.FlagRepository
	Batcher        repository.Batcher
}

// SyncSettings carries the gating interval and push-sync rate budget.
type SyncSettings struct {
	EntityInterval time.Duration
	PushBatchSize  int
	PushBatchDelay time.Duration
}

// NewSyncUsecase wires the sync engine with default clock and sleep behaviour.
func NewSyncUsecase(repos SyncRepositories, remote repository.RemoteSource, conn repository.Connectivity, settings SyncSettings, logger *logrus.Logger) SyncUsecase {
	if settings.EntityInterval <= 0 {
		settings.EntityInterval = defaultEntityInterval
	}
	if settings.PushBatchSize <= 0 {
		settings.PushBatchSize = defaultPushBatchSize
	}
	if settings.PushBatchDelay < 0 {
		settings.PushBatchDelay = defaultPushBatchDelay
	}
	return &syncUsecase{
		repos:    repos,
		remote:   remote,
		conn:     conn,
		gate:     NewGate(repos.Flags),
		settings: settings,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		clock:    time.Now,
		sleep:    sleepContext,
	}
}

type syncUsecase struct {
	repos    SyncRepositories
	remote   repository.RemoteSource
	conn     repository.Connectivity
	gate     *Gate
	settings SyncSettings
	logger   logrus.FieldLogger
	tracer   trace.Tracer
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	token string
}

func (u *syncUsecase) SetToken(token string) {
	token = strings.TrimSpace(token)
	u.mu.Lock()
	u.token = token
	u.mu.Unlock()
	u.remote.SetToken(token)
}

func (u *syncUsecase) HasToken() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.token != ""
}

// Sync runs every pull step in order. Offline or tokenless runs are skipped.
// Transient step failures are logged and the run continues; auth and storage
// failures stop the run and are returned.
func (u *syncUsecase) Sync(ctx context.Context, force bool) error {
	if !u.HasToken() {
		u.logger.Debug("sync skipped: no token")
		return nil
	}
	if u.conn != nil && !u.conn.Online(ctx) {
		u.logger.Info("sync skipped: offline")
		return nil
	}

	ctx, span := u.tracer.Start(ctx, "sync.cycle", trace.WithAttributes(attribute.Bool("sync.force", force)))
	defer span.End()

	steps := []struct {
		name string
		run  func(ctx context.Context, force bool) error
	}{
		{"user", u.SyncUser},
		{"migrate_subjects", func(ctx context.Context, force bool) error {
			_, err := u.MigrateSubjects(ctx, force)
			return err
		}},
		{"subjects", u.SyncSubjects},
		{"migrate_assignments", func(ctx context.Context, force bool) error {
			_, err := u.MigrateAssignments(ctx, force)
			return err
		}},
		{"assignments", u.SyncAssignments},
		{"study_materials", u.SyncStudyMaterials},
	}
	for _, step := range steps {
		err := step.run(ctx, force)
		if err == nil {
			continue
		}
		if isFatalSyncError(err) {
			u.logger.WithError(err).WithField("step", step.name).Error("sync aborted")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		u.logger.WithError(err).WithField("step", step.name).Warn("sync step failed")
	}
	return nil
}

func isFatalSyncError(err error) bool {
	return errors.Is(err, entity.ErrUnauthorized) || errors.Is(err, entity.ErrStorage) || errors.Is(err, entity.ErrNoToken)
}

func (u *syncUsecase) SyncUser(ctx context.Context, force bool) error {
	return u.gated(ctx, "user", KeyLastSyncUser, force, func(ctx context.Context, _ *time.Time) (int, error) {
		user, err := u.remote.FetchUser(ctx)
		if err != nil {
			return 0, err
		}
		if err := u.repos.Users.Save(ctx, user); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

func (u *syncUsecase) SyncSubjects(ctx context.Context, force bool) error {
	return u.gated(ctx, "subjects", KeyLastSyncSubjects, force, func(ctx context.Context, last *time.Time) (int, error) {
		return pullPages(ctx, last, u.remote.FetchSubjects, u.repos.Subjects.UpsertMany)
	})
}

func (u *syncUsecase) SyncAssignments(ctx context.Context, force bool) error {
	return u.gated(ctx, "assignments", KeyLastSyncAssignments, force, func(ctx context.Context, last *time.Time) (int, error) {
		return pullPages(ctx, last, u.remote.FetchAssignments, u.repos.Assignments.UpsertMany)
	})
}

func (u *syncUsecase) SyncStudyMaterials(ctx context.Context, force bool) error {
	return u.gated(ctx, "study_materials", KeyLastSyncMaterials, force, func(ctx context.Context, last *time.Time) (int, error) {
		return pullPages(ctx, last, u.remote.FetchStudyMaterials, u.repos.StudyMaterials.UpsertMany)
	})
}

// gated runs a pull step under the gate inside its own span.
func (u *syncUsecase) gated(ctx context.Context, name, key string, force bool, op func(ctx context.Context, last *time.Time) (int, error)) error {
	ctx, span := u.tracer.Start(ctx, "sync."+name)
	defer span.End()

	log := u.logger.WithField("entity", name)
	if sc := span.SpanContext(); sc.HasTraceID() {
		log = log.WithField("trace_id", sc.TraceID().String())
	}

	var applied int
	ran, err := u.gate.RunIfStale(ctx, key, u.settings.EntityInterval, force, func(ctx context.Context, last *time.Time) error {
		if last != nil {
			span.SetAttributes(attribute.String("sync.updated_after", last.UTC().Format(time.RFC3339)))
		}
		n, err := op(ctx, last)
		applied = n
		return err
	})
	span.SetAttributes(attribute.Bool("sync.ran", ran), attribute.Int("sync.applied", applied))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if ran {
		log.WithField("applied", applied).Info("sync step completed")
	} else {
		log.Debug("sync step skipped: interval not elapsed")
	}
	return nil
}

// pullPages applies a delta listing page by page until a page is empty or has no successor.
func pullPages[T any](
	ctx context.Context,
	after *time.Time,
	fetch func(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[T], error),
	apply func(ctx context.Context, items []T) error,
) (int, error) {
	total := 0
	pageURL := ""
	for {
		page, err := fetch(ctx, after, pageURL)
		if err != nil {
			return total, err
		}
		if len(page.Items) == 0 {
			return total, nil
		}
		if err := apply(ctx, page.Items); err != nil {
			return total, err
		}
		total += len(page.Items)
		if page.NextURL == "" {
			return total, nil
		}
		pageURL = page.NextURL
	}
}

// ClearData wipes every remote replica and forgets all gate timestamps.
func (u *syncUsecase) ClearData(ctx context.Context) error {
	return u.repos.Batcher.Batch(ctx, func(ctx context.Context) error {
		if err := u.repos.Subjects.Clear(ctx); err != nil {
			return err
		}
		if err := u.repos.Assignments.Clear(ctx); err != nil {
			return err
		}
		if err := u.repos.StudyMaterials.Clear(ctx); err != nil {
			return err
		}
		if err := u.repos.Users.Delete(ctx); err != nil {
			return err
		}
		return u.gate.Reset(ctx)
	})
}

// StartAssignment marks the assignment started locally, then confirms it remotely.
// The local sentinel stage survives a remote failure and is repaired by MigrateAssignments.
func (u *syncUsecase) StartAssignment(ctx context.Context, assignmentID int64) error {
	if err := u.repos.Assignments.Update(ctx, assignmentID, func(a *entity.Assignment) error {
		if a.SRSStage != entity.SRSStageLesson {
			return fmt.Errorf("assignment %d : %w", assignmentID, entity.ErrAlreadyStarted)
		}
		a.SRSStage = entity.SRSStageStartedLocally
		now := u.clock()
		a.StartedAt = &now
		return nil
	}); err != nil {
		return err
	}
	if err := u.remote.StartAssignment(ctx, assignmentID); err != nil {
		u.logger.WithError(err).WithField("assignment_id", assignmentID).Warn("remote start failed; local state kept")
		return err
	}
	return nil
}

// ApplyReviewOutcome bumps the local SRS stage ahead of the next pull.
func (u *syncUsecase) ApplyReviewOutcome(ctx context.Context, assignmentID int64, correct bool) error {
	return u.repos.Assignments.Update(ctx, assignmentID, func(a *entity.Assignment) error {
		a.ApplyOutcome(correct)
		return nil
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
