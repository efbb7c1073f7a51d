package wanikani

import "time"

// Resource is the envelope of every single-object response.
type Resource[T any] struct {
	ID            int64      `json:"id"`
	Object        string     `json:"object"`
	URL           string     `json:"url"`
	DataUpdatedAt *time.Time `json:"data_updated_at"`
	Data          T          `json:"data"`
}

// Pages carries the pagination cursor of a collection.
type Pages struct {
	NextURL     *string `json:"next_url"`
	PreviousURL *string `json:"previous_url"`
	PerPage     int     `json:"per_page"`
}

// Collection is one page of a paginated listing.
type Collection[T any] struct {
	Object        string        `json:"object"`
	URL           string        `json:"url"`
	Pages         Pages         `json:"pages"`
	TotalCount    int           `json:"total_count"`
	DataUpdatedAt *time.Time    `json:"data_updated_at"`
	Data          []Resource[T] `json:"data"`
}

// NextURL returns the continuation URL or "" on the last page.
func (c *Collection[T]) NextURL() string {
	if c == nil || c.Pages.NextURL == nil {
		return ""
	}
	return *c.Pages.NextURL
}

type Subscription struct {
	Active          bool       `json:"active"`
	Type            string     `json:"type"`
	MaxLevelGranted int        `json:"max_level_granted"`
	PeriodEndsAt    *time.Time `json:"period_ends_at"`
}

type UserData struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Level        int          `json:"level"`
	ProfileURL   string       `json:"profile_url"`
	StartedAt    *time.Time   `json:"started_at"`
	Subscription Subscription `json:"subscription"`
}

type Meaning struct {
	Meaning        string `json:"meaning"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
}

type Reading struct {
	Reading        string `json:"reading"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
	Type           string `json:"type,omitempty"`
}

type Asset struct {
	URL         string         `json:"url"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type SubjectData struct {
	CreatedAt              *time.Time `json:"created_at"`
	Level                  int        `json:"level"`
	Slug                   string     `json:"slug"`
	HiddenAt               *time.Time `json:"hidden_at"`
	DocumentURL            string     `json:"document_url"`
	Characters             *string    `json:"characters"`
	Meanings               []Meaning  `json:"meanings"`
	Readings               []Reading  `json:"readings,omitempty"`
	MeaningMnemonic        string     `json:"meaning_mnemonic"`
	ReadingMnemonic        string     `json:"reading_mnemonic,omitempty"`
	ComponentSubjectIDs    []int64    `json:"component_subject_ids,omitempty"`
	AmalgamationSubjectIDs []int64    `json:"amalgamation_subject_ids,omitempty"`
	LessonPosition         int        `json:"lesson_position"`
	CharacterImages        []Asset    `json:"character_images,omitempty"`
	PronunciationAudios    []Asset    `json:"pronunciation_audios,omitempty"`
}

type AssignmentData struct {
	SubjectID   int64      `json:"subject_id"`
	SubjectType string     `json:"subject_type"`
	SRSStage    int        `json:"srs_stage"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
	StartedAt   *time.Time `json:"started_at"`
	PassedAt    *time.Time `json:"passed_at"`
	BurnedAt    *time.Time `json:"burned_at"`
	AvailableAt *time.Time `json:"available_at"`
	Hidden      bool       `json:"hidden"`
}

type StudyMaterialData struct {
	SubjectID       int64      `json:"subject_id"`
	SubjectType     string     `json:"subject_type"`
	MeaningNote     *string    `json:"meaning_note"`
	ReadingNote     *string    `json:"reading_note"`
	MeaningSynonyms []string   `json:"meaning_synonyms"`
	Hidden          bool       `json:"hidden"`
	CreatedAt       *time.Time `json:"created_at"`
}

type reviewRequest struct {
	Review reviewPayload `json:"review"`
}

type reviewPayload struct {
	AssignmentID            int64 `json:"assignment_id"`
	IncorrectMeaningAnswers int   `json:"incorrect_meaning_answers"`
	IncorrectReadingAnswers int   `json:"incorrect_reading_answers"`
}

type startAssignmentRequest struct {
	Assignment startAssignmentPayload `json:"assignment"`
}

type startAssignmentPayload struct {
	StartedAt *time.Time `json:"started_at,omitempty"`
}
