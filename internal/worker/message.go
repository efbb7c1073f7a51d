package worker

import (
	"context"

	"github.com/eslsoft/kanaplay/internal/usecase"
)

// Op names an operation the worker can run.
type Op int

const (
	OpSetToken Op = iota + 1
	OpHasToken
	OpSync
	OpSyncUser
	OpSyncSubjects
	OpSyncAssignments
	OpSyncStudyMaterials
	OpMigrateSubjects
	OpMigrateAssignments
	OpSyncEncounterItems
	OpPopulateKana
	OpClearData
	OpStartAssignment
	OpApplyReviewOutcome
)

var opNames = map[Op]string{
	OpSetToken:           "set_token",
	OpHasToken:           "has_token",
	OpSync:               "sync",
	OpSyncUser:           "sync_user",
	OpSyncSubjects:       "sync_subjects",
	OpSyncAssignments:    "sync_assignments",
	OpSyncStudyMaterials: "sync_study_materials",
	OpMigrateSubjects:    "migrate_subjects",
	OpMigrateAssignments: "migrate_assignments",
	OpSyncEncounterItems: "sync_encounter_items",
	OpPopulateKana:       "populate_kana",
	OpClearData:          "clear_data",
	OpStartAssignment:    "start_assignment",
	OpApplyReviewOutcome: "apply_review_outcome",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// inline reports whether the op is handled on the dispatch loop itself, so
// that it is ordered before every request sent after it.
func (o Op) inline() bool {
	return o == OpSetToken || o == OpHasToken
}

// Request is one message sent to the worker.
type Request struct {
	Op           Op
	Force        bool
	Token        string
	AssignmentID int64
	Correct      bool

	ctx   context.Context
	reply chan Result
}

// Result is the reply to a Request.
type Result struct {
	Err       error
	HasToken  bool
	Count     int
	Migration usecase.MigrationReport
	Push      usecase.PushReport
}
