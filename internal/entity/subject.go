package entity

import "time"

// Meaning is one accepted meaning of a subject.
type Meaning struct {
	Meaning        string `json:"meaning"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
}

// Reading is one accepted reading of a subject.
type Reading struct {
	Reading        string `json:"reading"`
	Type           string `json:"type,omitempty"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
}

// Asset is an image or audio resource attached to a subject.
type Asset struct {
	URL         string            `json:"url"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Subject is a learnable unit. Negative ids mark locally generated kana.
type Subject struct {
	ID                     int64       `json:"id"`
	Kind                   SubjectKind `json:"kind,omitempty"`
	Object                 string      `json:"object,omitempty"`
	URL                    string      `json:"url,omitempty"`
	DocumentURL            string      `json:"document_url,omitempty"`
	Level                  int         `json:"level"`
	Slug                   string      `json:"slug,omitempty"`
	Characters             string      `json:"characters,omitempty"`
	Meanings               []Meaning   `json:"meanings"`
	Readings               []Reading   `json:"readings"`
	MeaningMnemonic        string      `json:"meaning_mnemonic,omitempty"`
	ReadingMnemonic        string      `json:"reading_mnemonic,omitempty"`
	ComponentSubjectIDs    []int64     `json:"component_subject_ids,omitempty"`
	AmalgamationSubjectIDs []int64     `json:"amalgamation_subject_ids,omitempty"`
	CharacterImages        []Asset     `json:"character_images,omitempty"`
	PronunciationAudios    []Asset     `json:"pronunciation_audios,omitempty"`
	LessonPosition         int         `json:"lesson_position"`
	HiddenAt               *time.Time  `json:"hidden_at,omitempty"`
	DataUpdatedAt          *time.Time  `json:"data_updated_at,omitempty"`
}

// IsKana reports whether the subject is synthetic kana content.
func (s *Subject) IsKana() bool {
	return IsSyntheticID(s.ID) || s.Kind.IsKana()
}

// IsCorrupt reports whether the subject lacks its discriminator.
func (s *Subject) IsCorrupt() bool {
	return s.Kind == SubjectKindUnspecified
}

// PrimaryMeaning returns the first primary meaning, falling back to the first meaning.
func (s *Subject) PrimaryMeaning() string {
	for _, m := range s.Meanings {
		if m.Primary {
			return m.Meaning
		}
	}
	if len(s.Meanings) > 0 {
		return s.Meanings[0].Meaning
	}
	return ""
}

// Normalize ensures slices are non-nil before persistence.
func (s *Subject) Normalize() {
	if s.Meanings == nil {
		s.Meanings = []Meaning{}
	}
	if s.Readings == nil {
		s.Readings = []Reading{}
	}
}
