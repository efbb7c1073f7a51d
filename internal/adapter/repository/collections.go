package repository

import (
	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database/migrate"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
)

// Collections holds the typed collections of the local store.
type Collections struct {
	Subjects       *store.Collection[entity.Subject]
	Assignments    *store.Collection[entity.Assignment]
	StudyMaterials *store.Collection[entity.StudyMaterial]
	Users          *store.Collection[entity.User]
	Encounters     *store.Collection[entity.Encounter]
	EncounterItems *store.Collection[entity.EncounterItem]
	Logs           *store.Collection[entity.LogEntry]
}

// NewCollections binds every collection to s.
func NewCollections(s *store.Store) *Collections {
	return &Collections{
		Subjects: store.NewCollection(s, store.Spec[entity.Subject]{
			Table: migrate.SubjectsTable,
			ID:    func(v *entity.Subject) any { return v.ID },
			Index: func(v *entity.Subject) map[string]any {
				var kind any
				if v.Kind != entity.SubjectKindUnspecified {
					kind = string(v.Kind)
				}
				return map[string]any{
					"kind":         kind,
					"level":        v.Level,
					"slug":         v.Slug,
					"document_url": v.DocumentURL,
				}
			},
		}),
		Assignments: store.NewCollection(s, store.Spec[entity.Assignment]{
			Table: migrate.AssignmentsTable,
			ID:    func(v *entity.Assignment) any { return v.ID },
			Index: func(v *entity.Assignment) map[string]any {
				return map[string]any{
					"subject_id":   v.SubjectID,
					"srs_stage":    v.SRSStage,
					"available_at": v.AvailableAt,
				}
			},
		}),
		StudyMaterials: store.NewCollection(s, store.Spec[entity.StudyMaterial]{
			Table: migrate.StudyMaterialsTable,
			ID:    func(v *entity.StudyMaterial) any { return v.ID },
			Index: func(v *entity.StudyMaterial) map[string]any {
				return map[string]any{"subject_id": v.SubjectID}
			},
		}),
		Users: store.NewCollection(s, store.Spec[entity.User]{
			Table: migrate.UsersTable,
			ID:    func(v *entity.User) any { return v.ID },
		}),
		Encounters: store.NewCollection(s, store.Spec[entity.Encounter]{
			Table: migrate.EncountersTable,
			ID:    func(v *entity.Encounter) any { return v.ID },
			Index: func(v *entity.Encounter) map[string]any {
				return map[string]any{
					"game_id":    v.GameID,
					"started_at": v.StartedAt,
					"ended_at":   v.EndedAt,
				}
			},
		}),
		EncounterItems: store.NewCollection(s, store.Spec[entity.EncounterItem]{
			Table: migrate.EncounterItemsTable,
			ID:    func(v *entity.EncounterItem) any { return v.ID },
			Index: func(v *entity.EncounterItem) map[string]any {
				var assignmentID any
				if v.AssignmentID != nil {
					assignmentID = *v.AssignmentID
				}
				return map[string]any{
					"session_id":    v.SessionID,
					"subject_id":    v.SubjectID,
					"assignment_id": assignmentID,
					"synced":        v.Synced,
					"created_at":    v.CreatedAt,
				}
			},
		}),
		Logs: store.NewCollection(s, store.Spec[entity.LogEntry]{
			Table: migrate.LogsTable,
			ID:    func(v *entity.LogEntry) any { return v.ID },
			Index: func(v *entity.LogEntry) map[string]any {
				return map[string]any{
					"level":      v.Level,
					"created_at": v.CreatedAt,
				}
			},
		}),
	}
}
