package entity

import "time"

const (
	// SRSStageLesson marks an assignment whose lesson has not been started.
	SRSStageLesson = 0
	// SRSStageStartedLocally marks an assignment started on this device but not yet confirmed remotely.
	SRSStageStartedLocally = -1
	// SRSStageApprentice1 is the first retention stage.
	SRSStageApprentice1 = 1
	// SRSStageBurned is the final retention stage.
	SRSStageBurned = 9
)

// Assignment is the per-user learning state of a subject.
type Assignment struct {
	ID            int64       `json:"id"`
	SubjectID     int64       `json:"subject_id"`
	SubjectType   SubjectKind `json:"subject_type,omitempty"`
	SRSStage      int         `json:"srs_stage"`
	UnlockedAt    *time.Time  `json:"unlocked_at,omitempty"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	PassedAt      *time.Time  `json:"passed_at,omitempty"`
	BurnedAt      *time.Time  `json:"burned_at,omitempty"`
	AvailableAt   *time.Time  `json:"available_at,omitempty"`
	Hidden        bool        `json:"hidden"`
	DataUpdatedAt *time.Time  `json:"data_updated_at,omitempty"`
}

// IsAvailable reports whether the assignment can be reviewed at now.
// Assignments without an availability timestamp are treated as available.
func (a *Assignment) IsAvailable(now time.Time) bool {
	if a.AvailableAt == nil {
		return true
	}
	return !a.AvailableAt.After(now)
}

// ApplyOutcome moves the SRS stage one step up on success or one step down on failure,
// clamped to the retention stages.
func (a *Assignment) ApplyOutcome(correct bool) {
	stage := a.SRSStage
	if stage < SRSStageApprentice1 {
		stage = SRSStageApprentice1
	}
	if correct {
		stage++
	} else {
		stage--
	}
	if stage < SRSStageApprentice1 {
		stage = SRSStageApprentice1
	}
	if stage > SRSStageBurned {
		stage = SRSStageBurned
	}
	a.SRSStage = stage
}
