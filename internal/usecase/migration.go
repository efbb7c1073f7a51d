package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// MigrationReport summarises one repair pass.
type MigrationReport struct {
	Ran        bool
	Scanned    int
	Repaired   int
	Unresolved int
}

// MigrateSubjects backfills the kind of subjects persisted without one, inferring it
// from the document URL. Subjects whose URL matches no known segment are logged and left as is.
func (u *syncUsecase) MigrateSubjects(ctx context.Context, force bool) (MigrationReport, error) {
	var report MigrationReport
	err := u.gatedMigration(ctx, "subjects", KeyLastMigrateSubjects, force, &report, func(ctx context.Context) error {
		broken, err := u.repos.Subjects.ListMissingKind(ctx)
		if err != nil {
			return err
		}
		report.Scanned = len(broken)

		kinds := make(map[int64]entity.SubjectKind, len(broken))
		for _, s := range broken {
			kind := entity.KindFromDocumentURL(s.DocumentURL)
			if kind == entity.SubjectKindUnspecified {
				report.Unresolved++
				u.logger.WithField("subject_id", s.ID).WithField("document_url", s.DocumentURL).
					Error("cannot infer subject kind")
				continue
			}
			kinds[s.ID] = kind
		}
		if len(kinds) == 0 {
			return nil
		}
		n, err := u.repos.Subjects.SetKinds(ctx, kinds)
		report.Repaired = n
		return err
	})
	return report, err
}

// MigrateAssignments resets assignments left at the locally-started sentinel to the first stage.
func (u *syncUsecase) MigrateAssignments(ctx context.Context, force bool) (MigrationReport, error) {
	var report MigrationReport
	err := u.gatedMigration(ctx, "assignments", KeyLastMigrateAssignments, force, &report, func(ctx context.Context) error {
		n, err := u.repos.Assignments.ResetStage(ctx, entity.SRSStageStartedLocally, entity.SRSStageApprentice1)
		report.Scanned = n
		report.Repaired = n
		return err
	})
	return report, err
}

func (u *syncUsecase) gatedMigration(ctx context.Context, name, key string, force bool, report *MigrationReport, op func(ctx context.Context) error) error {
	ctx, span := u.tracer.Start(ctx, "migrate."+name)
	defer span.End()

	ran, err := u.gate.RunIfStale(ctx, key, u.settings.EntityInterval, force, func(ctx context.Context, _ *time.Time) error {
		return op(ctx)
	})
	report.Ran = ran
	if err != nil {
		span.RecordError(err)
		return err
	}
	if ran {
		u.logger.WithField("migration", name).
			WithField("scanned", report.Scanned).
			WithField("repaired", report.Repaired).
			WithField("unresolved", report.Unresolved).
			Info("migration completed")
	}
	return nil
}
