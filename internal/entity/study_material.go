package entity

import "time"

// StudyMaterial holds user-authored notes and synonyms for a subject.
type StudyMaterial struct {
	ID              int64      `json:"id"`
	SubjectID       int64      `json:"subject_id"`
	SubjectType     string     `json:"subject_type,omitempty"`
	MeaningNote     string     `json:"meaning_note,omitempty"`
	ReadingNote     string     `json:"reading_note,omitempty"`
	MeaningSynonyms []string   `json:"meaning_synonyms"`
	Hidden          bool       `json:"hidden"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	DataUpdatedAt   *time.Time `json:"data_updated_at,omitempty"`
}
