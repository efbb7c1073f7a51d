package usecase

import (
	"context"
	"testing"

	"github.com/eslsoft/kanaplay/internal/entity"
)

func TestKanaSubjects(t *testing.T) {
	subjects := KanaSubjects()
	if len(subjects) != 92 {
		t.Fatalf("expected 92 kana, got %d", len(subjects))
	}
	seen := map[int64]bool{}
	for _, s := range subjects {
		if !entity.IsSyntheticID(s.ID) || !s.IsKana() {
			t.Fatalf("subject %d is not synthetic kana", s.ID)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate id %d", s.ID)
		}
		seen[s.ID] = true
	}

	first, katakana := subjects[0], subjects[46]
	if first.ID != -1 || first.Characters != "あ" || first.Kind != entity.SubjectKindHiragana {
		t.Fatalf("unexpected first hiragana %+v", first)
	}
	if katakana.ID != -1001 || katakana.Characters != "ア" || katakana.Kind != entity.SubjectKindKatakana {
		t.Fatalf("unexpected first katakana %+v", katakana)
	}
	if last := subjects[91]; last.Characters != "ン" || last.Readings[0].Reading != "n" {
		t.Fatalf("unexpected last katakana %+v", last)
	}
}

func TestPopulateKana_ReplacesSyntheticSubjects(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.subjects = newFakeSubjects(
		entity.Subject{ID: -1, Kind: entity.SubjectKindHiragana, Characters: "stale"},
		entity.Subject{ID: -5000, Kind: entity.SubjectKindHiragana},
		entity.Subject{ID: 42, Kind: entity.SubjectKindKanji},
	)
	f.uc.repos.Subjects = f.subjects

	n, err := f.uc.PopulateKana(ctx)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if n != 92 || f.subjects.len() != 93 {
		t.Fatalf("expected 92 kana plus 1 remote subject, got n=%d len=%d", n, f.subjects.len())
	}
	a, _ := f.subjects.GetByID(ctx, -1)
	if a.Characters != "あ" {
		t.Fatalf("expected regenerated kana, got %q", a.Characters)
	}
	if _, err := f.subjects.GetByID(ctx, 42); err != nil {
		t.Fatalf("remote subject must survive: %v", err)
	}

	if _, err := f.uc.PopulateKana(ctx); err != nil {
		t.Fatalf("second populate: %v", err)
	}
	if f.subjects.len() != 93 {
		t.Fatalf("expected stable count on rerun, got %d", f.subjects.len())
	}
}
