package entity

import "time"

// Encounter is one finished gameplay session. It is never mutated after creation.
type Encounter struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"max_score"`
}

// Duration returns the elapsed time of the session.
func (e *Encounter) Duration() time.Duration {
	if e.EndedAt.Before(e.StartedAt) {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// EncounterItem is the result for one subject inside an encounter.
// Synced is the only field mutated after creation.
type EncounterItem struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	SubjectID      int64     `json:"subject_id"`
	AssignmentID   *int64    `json:"assignment_id,omitempty"`
	MeaningCorrect *bool     `json:"meaning_correct,omitempty"`
	ReadingCorrect *bool     `json:"reading_correct,omitempty"`
	Synced         bool      `json:"synced"`
	CreatedAt      time.Time `json:"created_at"`
}

// Correct reports whether every answered dimension was correct.
func (i *EncounterItem) Correct() bool {
	if i.MeaningCorrect != nil && !*i.MeaningCorrect {
		return false
	}
	if i.ReadingCorrect != nil && !*i.ReadingCorrect {
		return false
	}
	return true
}

// IncorrectCounts returns the binary incorrect-answer signals submitted as a review.
func (i *EncounterItem) IncorrectCounts() (meaning, reading int) {
	if i.MeaningCorrect != nil && !*i.MeaningCorrect {
		meaning = 1
	}
	if i.ReadingCorrect != nil && !*i.ReadingCorrect {
		reading = 1
	}
	return meaning, reading
}

// HistoryEntry is one answered subject reported by a finished game.
type HistoryEntry struct {
	SubjectID      int64
	AssignmentID   *int64
	MeaningCorrect *bool
	ReadingCorrect *bool
	IsKana         bool
}

// GameStats aggregates all recorded encounters.
type GameStats struct {
	TotalGames         int
	TotalTime          time.Duration
	TotalUniqueResults int
	MostPlayed         string
	Recent             []RecentResult
}

// RecentResult joins an encounter item with its subject for the recency feed.
type RecentResult struct {
	Item    EncounterItem
	Subject *Subject
}

// ItemStats is the per-subject rollup of encounter items.
type ItemStats struct {
	SubjectID    int64
	ReviewCount  int
	CorrectCount int
	AverageScore int
	LastGameID   string
	LastPlayedAt time.Time
	GameCounts   map[string]int
}
