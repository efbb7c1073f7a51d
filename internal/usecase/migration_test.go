package usecase

import (
	"context"
	"testing"

	"github.com/eslsoft/kanaplay/internal/entity"
)

func TestMigrateSubjects_BackfillsKindFromDocumentURL(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.subjects = newFakeSubjects(
		entity.Subject{ID: 1, DocumentURL: "https://www.wanikani.com/radicals/ground"},
		entity.Subject{ID: 2, DocumentURL: "https://www.wanikani.com/kanji/%E4%B8%80"},
		entity.Subject{ID: 3, DocumentURL: "https://www.wanikani.com/vocabulary/one"},
		entity.Subject{ID: 4, DocumentURL: "https://www.wanikani.com/unknown/x"},
		entity.Subject{ID: 5, Kind: entity.SubjectKindKanji},
	)
	f.uc.repos.Subjects = f.subjects

	report, err := f.uc.MigrateSubjects(ctx, false)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !report.Ran || report.Scanned != 4 || report.Repaired != 3 || report.Unresolved != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	want := map[int64]entity.SubjectKind{
		1: entity.SubjectKindRadical,
		2: entity.SubjectKindKanji,
		3: entity.SubjectKindVocabulary,
		4: entity.SubjectKindUnspecified,
	}
	for id, kind := range want {
		s, _ := f.subjects.GetByID(ctx, id)
		if s.Kind != kind {
			t.Fatalf("subject %d: expected kind %q, got %q", id, kind, s.Kind)
		}
	}
}

func TestMigrateSubjects_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.subjects = newFakeSubjects(
		entity.Subject{ID: 1, DocumentURL: "/kanji/x"},
		entity.Subject{ID: 2, DocumentURL: ""},
	)
	f.uc.repos.Subjects = f.subjects

	if _, err := f.uc.MigrateSubjects(ctx, true); err != nil {
		t.Fatalf("first run: %v", err)
	}
	afterFirst, _ := f.subjects.CountMissingKind(ctx)

	second, err := f.uc.MigrateSubjects(ctx, true)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	afterSecond, _ := f.subjects.CountMissingKind(ctx)
	if afterFirst != 1 || afterSecond != afterFirst {
		t.Fatalf("expected broken count stable at 1, got %d then %d", afterFirst, afterSecond)
	}
	if second.Repaired != 0 {
		t.Fatalf("second run should repair nothing, got %+v", second)
	}
}

func TestMigrateSubjects_NoBrokenRecordsIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.subjects = newFakeSubjects(subjectsRange(1, 3)...)
	f.uc.repos.Subjects = f.subjects

	report, err := f.uc.MigrateSubjects(ctx, false)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if report.Scanned != 0 || report.Repaired != 0 {
		t.Fatalf("expected no-op, got %+v", report)
	}
}

func TestMigrateAssignments_RepairsSentinel(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.assignments = newFakeAssignments(
		entity.Assignment{ID: 1, SRSStage: entity.SRSStageStartedLocally},
		entity.Assignment{ID: 2, SRSStage: entity.SRSStageStartedLocally},
		entity.Assignment{ID: 3, SRSStage: 5},
	)
	f.uc.repos.Assignments = f.assignments

	report, err := f.uc.MigrateAssignments(ctx, false)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if report.Repaired != 2 {
		t.Fatalf("expected 2 repaired, got %+v", report)
	}
	for _, id := range []int64{1, 2} {
		if got := f.assignments.stage(id); got != entity.SRSStageApprentice1 {
			t.Fatalf("assignment %d: expected stage 1, got %d", id, got)
		}
	}
	if got := f.assignments.stage(3); got != 5 {
		t.Fatalf("untouched assignment changed to %d", got)
	}

	again, err := f.uc.MigrateAssignments(ctx, true)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Scanned != 0 {
		t.Fatalf("expected empty broken set on second run, got %+v", again)
	}
}

func TestMigrations_FollowEntityGate(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	first, _ := f.uc.MigrateAssignments(ctx, false)
	second, _ := f.uc.MigrateAssignments(ctx, false)
	if !first.Ran || second.Ran {
		t.Fatalf("expected second run gated, got first=%v second=%v", first.Ran, second.Ran)
	}
	if _, ok := f.flags.timeOf(KeyLastMigrateAssignments); !ok {
		t.Fatalf("expected migration timestamp recorded")
	}
}
