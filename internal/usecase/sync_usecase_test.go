package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eslsoft/kanaplay/internal/entity"
)

func subjectsRange(from, to int64) []entity.Subject {
	var out []entity.Subject
	for id := from; id <= to; id++ {
		out = append(out, entity.Subject{ID: id, Kind: entity.SubjectKindKanji, Level: 1})
	}
	return out
}

func TestSync_EndToEndFromEmptyStore(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.subjectPages = [][]entity.Subject{subjectsRange(1, 3), subjectsRange(4, 5)}
	f.remote.assignPages = [][]entity.Assignment{{{ID: 10, SubjectID: 1, SRSStage: 2}, {ID: 11, SubjectID: 2}}}
	f.remote.materialPages = [][]entity.StudyMaterial{{{ID: 20, SubjectID: 1, MeaningNote: "tree"}}}
	start := f.clock.Now()

	if err := f.uc.Sync(ctx, false); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if got := len(f.remote.callsFor("user")); got != 1 {
		t.Fatalf("expected 1 user fetch, got %d", got)
	}
	if f.users.user == nil || f.users.user.Username != "koichi" {
		t.Fatalf("expected user upserted, got %+v", f.users.user)
	}
	subjectCalls := f.remote.callsFor("subjects")
	if len(subjectCalls) != 2 {
		t.Fatalf("expected 2 subject pages fetched, got %d", len(subjectCalls))
	}
	for _, c := range subjectCalls {
		if c.after != nil {
			t.Fatalf("first sync must not use an after filter, got %v", c.after)
		}
	}
	if subjectCalls[1].pageURL != "page:1" {
		t.Fatalf("expected second page via next url, got %q", subjectCalls[1].pageURL)
	}
	if f.subjects.len() != 5 {
		t.Fatalf("expected 5 subjects, got %d", f.subjects.len())
	}
	if len(f.assignments.items) != 2 || len(f.materials.items) != 1 {
		t.Fatalf("expected assignments and materials stored, got %d/%d", len(f.assignments.items), len(f.materials.items))
	}
	for _, key := range []string{KeyLastSyncUser, KeyLastSyncSubjects, KeyLastSyncAssignments, KeyLastSyncMaterials} {
		ts, ok := f.flags.timeOf(key)
		if !ok || !ts.Equal(start) {
			t.Fatalf("expected %s = %v, got %v (ok=%v)", key, start, ts, ok)
		}
	}

	callsBefore := len(f.remote.calls)
	if err := f.uc.Sync(ctx, false); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(f.remote.calls) != callsBefore {
		t.Fatalf("expected no fetches on immediate resync, got %d new calls", len(f.remote.calls)-callsBefore)
	}
}

func TestSync_DeltaUsesLastRunAndForceBypassesGate(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.subjectPages = [][]entity.Subject{subjectsRange(1, 2)}
	first := f.clock.Now()
	if err := f.uc.SyncSubjects(ctx, false); err != nil {
		t.Fatalf("sync: %v", err)
	}

	f.clock.Advance(5 * time.Minute)
	if err := f.uc.SyncSubjects(ctx, false); err != nil {
		t.Fatalf("gated sync: %v", err)
	}
	if got := len(f.remote.callsFor("subjects")); got != 1 {
		t.Fatalf("expected gate to block at 5m, got %d calls", got)
	}

	if err := f.uc.SyncSubjects(ctx, true); err != nil {
		t.Fatalf("forced sync: %v", err)
	}
	calls := f.remote.callsFor("subjects")
	if len(calls) != 2 {
		t.Fatalf("expected forced fetch, got %d calls", len(calls))
	}
	if calls[1].after == nil || !calls[1].after.Equal(first) {
		t.Fatalf("expected delta after %v, got %v", first, calls[1].after)
	}
}

func TestSync_EmptyPageStopsPagination(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.subjectPages = [][]entity.Subject{{}, subjectsRange(1, 1)}

	if err := f.uc.SyncSubjects(ctx, false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got := len(f.remote.callsFor("subjects")); got != 1 {
		t.Fatalf("expected pagination to stop on empty page, got %d calls", got)
	}
	if _, ok := f.flags.timeOf(KeyLastSyncSubjects); !ok {
		t.Fatalf("empty delta still counts as a successful run")
	}
}

func TestSync_TransientStepFailureContinues(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.fetchErr["subjects"] = errTransient
	f.remote.assignPages = [][]entity.Assignment{{{ID: 1, SubjectID: 1}}}

	if err := f.uc.Sync(ctx, false); err != nil {
		t.Fatalf("transient failures must not surface, got %v", err)
	}
	if _, ok := f.flags.timeOf(KeyLastSyncSubjects); ok {
		t.Fatalf("failed step must not record a timestamp")
	}
	if _, ok := f.flags.timeOf(KeyLastSyncAssignments); !ok {
		t.Fatalf("later steps should still run")
	}
}

func TestSync_UnauthorizedAborts(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.userErr = fmt.Errorf("GET /user: %w", entity.ErrUnauthorized)

	err := f.uc.Sync(ctx, false)
	if !errors.Is(err, entity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := len(f.remote.callsFor("subjects")); got != 0 {
		t.Fatalf("expected no further steps after auth failure, got %d subject calls", got)
	}
}

func TestSync_SkipsWithoutTokenOrOffline(t *testing.T) {
	ctx := context.Background()

	f := newSyncFixture()
	f.uc.SetToken("  ")
	if err := f.uc.Sync(ctx, true); err != nil {
		t.Fatalf("tokenless sync: %v", err)
	}
	if len(f.remote.calls) != 0 {
		t.Fatalf("expected no remote calls without token")
	}

	f = newSyncFixture()
	f.uc.conn = fakeConn{offline: true}
	if err := f.uc.Sync(ctx, true); err != nil {
		t.Fatalf("offline sync: %v", err)
	}
	if len(f.remote.calls) != 0 {
		t.Fatalf("expected no remote calls while offline")
	}
}

func TestClearData_WipesReplicasAndGates(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.subjectPages = [][]entity.Subject{subjectsRange(1, 3)}
	if err := f.uc.Sync(ctx, false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	item := entity.EncounterItem{ID: "item-1", SessionID: "s1", SubjectID: 1, CreatedAt: f.clock.Now()}
	if err := f.encounters.CreateItems(ctx, []entity.EncounterItem{item}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := f.uc.ClearData(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if f.subjects.len() != 0 || f.users.user != nil {
		t.Fatalf("expected replicas cleared")
	}
	for _, key := range GateKeys {
		if _, ok := f.flags.timeOf(key); ok {
			t.Fatalf("expected gate %s reset", key)
		}
	}
	if len(f.encounters.items) == 0 {
		t.Fatalf("clear must keep local encounter history")
	}
}

func TestStartAssignment(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.assignments = newFakeAssignments(entity.Assignment{ID: 7, SubjectID: 3, SRSStage: entity.SRSStageLesson})
	f.uc.repos.Assignments = f.assignments

	if err := f.uc.StartAssignment(ctx, 7); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.assignments.stage(7); got != entity.SRSStageStartedLocally {
		t.Fatalf("expected sentinel stage, got %d", got)
	}
	if len(f.remote.started) != 1 || f.remote.started[0] != 7 {
		t.Fatalf("expected remote start for 7, got %v", f.remote.started)
	}

	if err := f.uc.StartAssignment(ctx, 7); !errors.Is(err, entity.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if err := f.uc.StartAssignment(ctx, 99); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartAssignment_RemoteFailureKeepsSentinel(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.assignments = newFakeAssignments(entity.Assignment{ID: 7, SubjectID: 3})
	f.uc.repos.Assignments = f.assignments
	f.remote.startErr = errTransient

	if err := f.uc.StartAssignment(ctx, 7); !errors.Is(err, errTransient) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if got := f.assignments.stage(7); got != entity.SRSStageStartedLocally {
		t.Fatalf("expected sentinel kept for migration, got %d", got)
	}
}

func TestApplyReviewOutcome(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.assignments = newFakeAssignments(
		entity.Assignment{ID: 1, SRSStage: 4},
		entity.Assignment{ID: 2, SRSStage: 1},
		entity.Assignment{ID: 3, SRSStage: 9},
	)
	f.uc.repos.Assignments = f.assignments

	cases := []struct {
		id      int64
		correct bool
		want    int
	}{
		{1, true, 5},
		{2, false, 1},
		{3, true, 9},
	}
	for _, c := range cases {
		if err := f.uc.ApplyReviewOutcome(ctx, c.id, c.correct); err != nil {
			t.Fatalf("apply %d: %v", c.id, err)
		}
		if got := f.assignments.stage(c.id); got != c.want {
			t.Fatalf("assignment %d: expected stage %d, got %d", c.id, c.want, got)
		}
	}
}
