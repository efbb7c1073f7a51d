package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/kanaplay/internal/entity"
)

func seedQueue(t *testing.T, f *syncFixture, n int) {
	t.Helper()
	var assignments []entity.Assignment
	var items []entity.EncounterItem
	for i := 1; i <= n; i++ {
		assignments = append(assignments, entity.Assignment{ID: int64(1000 + i), SubjectID: int64(i), SRSStage: 3})
		items = append(items, entity.EncounterItem{
			ID:             fmt.Sprintf("item-%d", i),
			SessionID:      "s1",
			SubjectID:      int64(i),
			MeaningCorrect: lo.ToPtr(true),
			CreatedAt:      f.clock.Now(),
		})
	}
	if err := f.assignments.UpsertMany(context.Background(), assignments); err != nil {
		t.Fatalf("seed assignments: %v", err)
	}
	if err := f.encounters.CreateItems(context.Background(), items); err != nil {
		t.Fatalf("seed items: %v", err)
	}
}

func TestSyncEncounterItems_BatchBoundary(t *testing.T) {
	tests := []struct {
		items       int
		wantBatches int
		wantDelays  int
	}{
		{items: 0, wantBatches: 0, wantDelays: 0},
		{items: 1, wantBatches: 1, wantDelays: 0},
		{items: 45, wantBatches: 1, wantDelays: 0},
		{items: 46, wantBatches: 2, wantDelays: 1},
		{items: 90, wantBatches: 2, wantDelays: 1},
		{items: 91, wantBatches: 3, wantDelays: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d items", tt.items), func(t *testing.T) {
			f := newSyncFixture()
			seedQueue(t, f, tt.items)

			report, err := f.uc.SyncEncounterItems(context.Background())
			if err != nil {
				t.Fatalf("push: %v", err)
			}
			if report.Batches != tt.wantBatches || len(f.sleeps) != tt.wantDelays {
				t.Fatalf("expected %d batches/%d delays, got %d/%d", tt.wantBatches, tt.wantDelays, report.Batches, len(f.sleeps))
			}
			for _, d := range f.sleeps {
				if d != time.Minute {
					t.Fatalf("expected configured delay, got %v", d)
				}
			}
			if report.Submitted != tt.items || f.remote.reviewCount() != tt.items {
				t.Fatalf("expected %d submitted, got report=%d remote=%d", tt.items, report.Submitted, f.remote.reviewCount())
			}
			left, _ := f.encounters.ListUnsynced(context.Background())
			if len(left) != 0 {
				t.Fatalf("expected queue drained, %d left", len(left))
			}
		})
	}
}

func TestSyncEncounterItems_FutureAssignmentDroppedWithoutSubmit(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	seedQueue(t, f, 1)
	future := f.clock.Now().Add(4 * time.Hour)
	_ = f.assignments.Update(ctx, 1001, func(a *entity.Assignment) error {
		a.AvailableAt = &future
		return nil
	})

	report, err := f.uc.SyncEncounterItems(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if report.Dropped != 1 || f.remote.reviewCount() != 0 {
		t.Fatalf("expected drop without submit, got %+v reviews=%d", report, f.remote.reviewCount())
	}
	if !f.encounters.item("item-1").Synced {
		t.Fatalf("dropped item must be marked synced")
	}
}

func TestSyncEncounterItems_FailureLeavesItemQueued(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	seedQueue(t, f, 3)
	f.remote.reviewErr[1002] = errTransient

	report, err := f.uc.SyncEncounterItems(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if report.Failed != 1 || report.Submitted != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if f.encounters.item("item-2").Synced {
		t.Fatalf("failed item must stay unsynced")
	}
	if !f.encounters.item("item-1").Synced || !f.encounters.item("item-3").Synced {
		t.Fatalf("other items in the batch should be synced")
	}
}

func TestSyncEncounterItems_MissingAssignmentSkipped(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	item := entity.EncounterItem{ID: "orphan", SessionID: "s1", SubjectID: 404, CreatedAt: f.clock.Now()}
	_ = f.encounters.CreateItems(ctx, []entity.EncounterItem{item})

	report, err := f.uc.SyncEncounterItems(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if report.Skipped != 1 || report.Pending() != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if f.encounters.item("orphan").Synced {
		t.Fatalf("orphan item must stay queued for retry")
	}
}

func TestSyncEncounterItems_PrefersAssignmentID(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	_ = f.assignments.UpsertMany(ctx, []entity.Assignment{{ID: 50, SubjectID: 9}, {ID: 51, SubjectID: 8}})
	item := entity.EncounterItem{ID: "a", SessionID: "s1", SubjectID: 9, AssignmentID: lo.ToPtr(int64(51)), CreatedAt: f.clock.Now()}
	_ = f.encounters.CreateItems(ctx, []entity.EncounterItem{item})

	if _, err := f.uc.SyncEncounterItems(ctx); err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(f.remote.reviews) != 1 || f.remote.reviews[0] != 51 {
		t.Fatalf("expected review for assignment 51, got %v", f.remote.reviews)
	}
}

func TestSyncEncounterItems_UnauthorizedAborts(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	seedQueue(t, f, 2)
	f.remote.reviewErr[1001] = entity.ErrUnauthorized

	_, err := f.uc.SyncEncounterItems(ctx)
	if !errors.Is(err, entity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if f.remote.reviewCount() != 0 {
		t.Fatalf("expected no submissions after auth failure")
	}
	left, _ := f.encounters.ListUnsynced(ctx)
	if len(left) != 2 {
		t.Fatalf("expected both items queued, got %d", len(left))
	}
}

func TestSyncEncounterItems_CancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newSyncFixture()
	seedQueue(t, f, 50)
	f.uc.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	report, err := f.uc.SyncEncounterItems(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if report.Batches != 1 || report.Submitted != 45 {
		t.Fatalf("expected first batch only, got %+v", report)
	}
}
