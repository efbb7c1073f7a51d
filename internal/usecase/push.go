package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// PushReport counts the outcome of one push-sync run.
type PushReport struct {
	Batches   int
	Submitted int
	// Dropped items were marked synced without a submission because their assignment is not yet available.
	Dropped int
	// Skipped items had no local assignment and stay queued.
	Skipped int
	// Failed items hit a remote error and stay queued.
	Failed int
}

// Pending returns how many items remain queued after the run.
func (r PushReport) Pending() int {
	return r.Skipped + r.Failed
}

// SyncEncounterItems submits every unsynced encounter item as a review, in batches separated
// by the configured delay. Per-item failures are counted and leave the item queued.
func (u *syncUsecase) SyncEncounterItems(ctx context.Context) (PushReport, error) {
	ctx, span := u.tracer.Start(ctx, "sync.encounter_items")
	defer span.End()

	var report PushReport
	items, err := u.repos.Encounters.ListUnsynced(ctx)
	if err != nil {
		span.RecordError(err)
		return report, err
	}
	if len(items) == 0 {
		return report, nil
	}

	batches := lo.Chunk(items, u.settings.PushBatchSize)
	for i, batch := range batches {
		if i > 0 {
			if err := u.sleep(ctx, u.settings.PushBatchDelay); err != nil {
				return report, err
			}
		}
		report.Batches++
		if err := u.pushBatch(ctx, batch, &report); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
	}

	span.SetAttributes(
		attribute.Int("push.batches", report.Batches),
		attribute.Int("push.submitted", report.Submitted),
		attribute.Int("push.dropped", report.Dropped),
		attribute.Int("push.pending", report.Pending()),
	)
	u.logger.WithField("batches", report.Batches).
		WithField("submitted", report.Submitted).
		WithField("dropped", report.Dropped).
		WithField("skipped", report.Skipped).
		WithField("failed", report.Failed).
		Info("push sync completed")
	return report, nil
}

// pushBatch processes items sequentially. Only storage and auth failures abort.
func (u *syncUsecase) pushBatch(ctx context.Context, batch []entity.EncounterItem, report *PushReport) error {
	for _, item := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := u.logger.WithField("item_id", item.ID).WithField("subject_id", item.SubjectID)

		assignment, err := u.resolveAssignment(ctx, item)
		if errors.Is(err, entity.ErrNotFound) {
			report.Skipped++
			log.Warn("no assignment for encounter item; left queued")
			continue
		}
		if err != nil {
			return err
		}

		if !assignment.IsAvailable(u.clock()) {
			if err := u.markSynced(ctx, item.ID); err != nil {
				return err
			}
			report.Dropped++
			log.WithField("available_at", assignment.AvailableAt).Info("assignment not yet available; item dropped")
			continue
		}

		meaning, reading := item.IncorrectCounts()
		if err := u.remote.CreateReview(ctx, assignment.ID, meaning, reading); err != nil {
			if errors.Is(err, entity.ErrUnauthorized) {
				return err
			}
			report.Failed++
			log.WithError(err).Warn("review submission failed; left queued")
			continue
		}
		if err := u.markSynced(ctx, item.ID); err != nil {
			return err
		}
		report.Submitted++
	}
	return nil
}

func (u *syncUsecase) resolveAssignment(ctx context.Context, item entity.EncounterItem) (*entity.Assignment, error) {
	if item.AssignmentID != nil {
		a, err := u.repos.Assignments.GetByID(ctx, *item.AssignmentID)
		if !errors.Is(err, entity.ErrNotFound) {
			return a, err
		}
	}
	return u.repos.Assignments.GetBySubjectID(ctx, item.SubjectID)
}

func (u *syncUsecase) markSynced(ctx context.Context, id string) error {
	if _, err := u.repos.Encounters.MarkSynced(ctx, []string{id}); err != nil {
		return fmt.Errorf("mark item %s synced: %w", id, err)
	}
	return nil
}
