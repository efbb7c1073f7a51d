package cmd

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
)

func Test_initSchema(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "nested", "kanaplay.db"),
	}}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	report, err := initSchema(context.Background(), cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"subjects", "assignments", "study_materials", "users", "encounters", "encounter_items", "logs", "flags"} {
		if !slices.Contains(report.tables, want) {
			t.Fatalf("missing table %q in %v", want, report.tables)
		}
	}
	if report.hash == "" {
		t.Fatal("expected schema hash")
	}

	again, err := initSchema(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("second migration: %v", err)
	}
	if again.hash != report.hash {
		t.Fatalf("schema hash changed: %s -> %s", report.hash, again.hash)
	}
}

func Test_normalizeTables(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{" ", ""}, nil},
		{[]string{"Subjects", " encounter_items "}, []string{"subjects", "encounter_items"}},
	}
	for _, c := range cases {
		got := normalizeTables(c.in)
		if !slices.Equal(got, c.want) {
			t.Fatalf("%q -> got %q want %q", c.in, got, c.want)
		}
	}
}

func Test_progressStep(t *testing.T) {
	cases := []struct{ total, want int }{
		{0, 1000},
		{10, 1},
		{400, 20},
		{1_000_000, 1000},
	}
	for _, c := range cases {
		if got := progressStep(c.total); got != c.want {
			t.Fatalf("progressStep(%d) = %d want %d", c.total, got, c.want)
		}
	}
}

func Test_readHistory(t *testing.T) {
	in := `[{"subject_id": 440, "assignment_id": 7, "meaning_correct": true, "reading_correct": false},
	        {"subject_id": -3, "kana": true}]`
	got, err := readHistory(strings.NewReader(in), "-")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries got %d", len(got))
	}
	first := got[0]
	if first.SubjectID != 440 || first.AssignmentID == nil || *first.AssignmentID != 7 {
		t.Fatalf("bad first entry: %+v", first)
	}
	if first.MeaningCorrect == nil || !*first.MeaningCorrect || first.ReadingCorrect == nil || *first.ReadingCorrect {
		t.Fatalf("bad answers: %+v", first)
	}
	if want := (entity.HistoryEntry{SubjectID: -3, IsKana: true}); got[1] != want {
		t.Fatalf("bad kana entry: %+v", got[1])
	}

	if _, err := readHistory(strings.NewReader("{"), "-"); err == nil {
		t.Fatal("expected decode error")
	}
}
