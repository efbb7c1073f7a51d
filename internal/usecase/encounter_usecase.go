package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/repository"
)

// RecentResultsLimit bounds the recency feed returned by GetStats.
const RecentResultsLimit = 100

// SaveEncounterInput describes a finished game.
type SaveEncounterInput struct {
	GameID   string
	Score    int
	MaxScore int
	Elapsed  time.Duration
	History  []entity.HistoryEntry
}

// StatsSnapshot is one evaluation of the live stats query.
type StatsSnapshot struct {
	Stats *entity.GameStats
	Err   error
}

// EncounterUsecase records finished games and derives statistics from the local store only.
type EncounterUsecase interface {
	SaveEncounter(ctx context.Context, input SaveEncounterInput) (*entity.Encounter, error)
	GetStats(ctx context.Context) (*entity.GameStats, error)
	GetItemStats(ctx context.Context, subjectID int64) (*entity.ItemStats, error)
	GetAllItemStats(ctx context.Context) (map[int64]*entity.ItemStats, error)
	WatchStats(ctx context.Context) <-chan StatsSnapshot
}

type encounterUsecase struct {
	encounters repository.EncounterRepository
	subjects   repository.SubjectRepository
	batcher    repository.Batcher
	logger     logrus.FieldLogger
	clock      func() time.Time
	newID      func() string
}

// NewEncounterUsecase creates a new EncounterUsecase.
func NewEncounterUsecase(encounters repository.EncounterRepository, subjects repository.SubjectRepository, batcher repository.Batcher, logger *logrus.Logger) EncounterUsecase {
	return &encounterUsecase{
		encounters: encounters,
		subjects:   subjects,
		batcher:    batcher,
		logger:     logger,
		clock:      time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

func (u *encounterUsecase) SaveEncounter(ctx context.Context, input SaveEncounterInput) (*entity.Encounter, error) {
	gameID := strings.TrimSpace(input.GameID)
	if gameID == "" {
		return nil, entity.ErrInvalidGame
	}
	if input.MaxScore < 0 || input.Score < 0 {
		return nil, entity.ErrInvalidScore
	}
	for _, h := range input.History {
		if h.SubjectID == 0 {
			return nil, entity.ErrInvalidSubjectID
		}
	}

	now := u.clock()
	elapsed := max(input.Elapsed, 0)
	encounter := &entity.Encounter{
		ID:        u.newID(),
		GameID:    gameID,
		StartedAt: now.Add(-elapsed),
		EndedAt:   now,
		Score:     input.Score,
		MaxScore:  input.MaxScore,
	}
	items := lo.Map(input.History, func(h entity.HistoryEntry, _ int) entity.EncounterItem {
		return entity.EncounterItem{
			ID:             u.newID(),
			SessionID:      encounter.ID,
			SubjectID:      h.SubjectID,
			AssignmentID:   h.AssignmentID,
			MeaningCorrect: h.MeaningCorrect,
			ReadingCorrect: h.ReadingCorrect,
			Synced:         h.IsKana || entity.IsSyntheticID(h.SubjectID),
			CreatedAt:      now,
		}
	})

	err := u.batcher.Batch(ctx, func(ctx context.Context) error {
		if err := u.encounters.CreateEncounter(ctx, encounter); err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return u.encounters.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, fmt.Errorf("save encounter: %w", err)
	}

	u.logger.WithField("game_id", gameID).
		WithField("encounter_id", encounter.ID).
		WithField("items", len(items)).
		WithField("queued", lo.CountBy(items, func(i entity.EncounterItem) bool { return !i.Synced })).
		Info("encounter saved")
	return encounter, nil
}

func (u *encounterUsecase) GetStats(ctx context.Context) (*entity.GameStats, error) {
	encounters, err := u.encounters.ListEncounters(ctx)
	if err != nil {
		return nil, err
	}
	unique, err := u.encounters.CountDistinctSubjects(ctx)
	if err != nil {
		return nil, err
	}
	recentItems, err := u.encounters.ListItems(ctx, repository.ListEncounterItemsQuery{Limit: RecentResultsLimit})
	if err != nil {
		return nil, err
	}
	subjects, err := u.subjects.ListByIDs(ctx, lo.Map(recentItems, func(i entity.EncounterItem, _ int) int64 { return i.SubjectID }))
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(subjects, func(s entity.Subject) int64 { return s.ID })

	stats := &entity.GameStats{
		TotalGames:         len(encounters),
		TotalUniqueResults: unique,
		MostPlayed:         mostPlayed(encounters),
		Recent:             make([]entity.RecentResult, 0, len(recentItems)),
	}
	for i := range encounters {
		stats.TotalTime += encounters[i].Duration()
	}
	for _, item := range recentItems {
		result := entity.RecentResult{Item: item}
		if s, ok := byID[item.SubjectID]; ok {
			result.Subject = &s
		}
		stats.Recent = append(stats.Recent, result)
	}
	return stats, nil
}

// mostPlayed returns the game with the most encounters. Ties go to the game
// that appears first in the given order.
func mostPlayed(encounters []entity.Encounter) string {
	byGame := lo.GroupBy(encounters, func(e entity.Encounter) string { return e.GameID })
	counts := lo.MapValues(byGame, func(group []entity.Encounter, _ string) int { return len(group) })
	best, bestCount := "", 0
	for _, e := range encounters {
		if c := counts[e.GameID]; c > bestCount {
			best, bestCount = e.GameID, c
		}
	}
	return best
}

func (u *encounterUsecase) GetItemStats(ctx context.Context, subjectID int64) (*entity.ItemStats, error) {
	if subjectID == 0 {
		return nil, entity.ErrInvalidSubjectID
	}
	items, err := u.encounters.ListItems(ctx, repository.ListEncounterItemsQuery{SubjectID: subjectID})
	if err != nil {
		return nil, err
	}
	games, err := u.gamesBySession(ctx)
	if err != nil {
		return nil, err
	}
	return rollupItems(subjectID, items, games), nil
}

func (u *encounterUsecase) GetAllItemStats(ctx context.Context) (map[int64]*entity.ItemStats, error) {
	items, err := u.encounters.ListItems(ctx, repository.ListEncounterItemsQuery{})
	if err != nil {
		return nil, err
	}
	games, err := u.gamesBySession(ctx)
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(items, func(i entity.EncounterItem) int64 { return i.SubjectID })
	return lo.MapValues(grouped, func(group []entity.EncounterItem, subjectID int64) *entity.ItemStats {
		return rollupItems(subjectID, group, games)
	}), nil
}

func (u *encounterUsecase) gamesBySession(ctx context.Context) (map[string]string, error) {
	encounters, err := u.encounters.ListEncounters(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Associate(encounters, func(e entity.Encounter) (string, string) { return e.ID, e.GameID }), nil
}

// rollupItems folds newest-first items of one subject into its stats.
func rollupItems(subjectID int64, items []entity.EncounterItem, games map[string]string) *entity.ItemStats {
	stats := &entity.ItemStats{SubjectID: subjectID, GameCounts: map[string]int{}}
	for _, item := range items {
		stats.ReviewCount++
		if item.Correct() {
			stats.CorrectCount++
		}
		game := games[item.SessionID]
		stats.GameCounts[game]++
		if stats.LastGameID == "" && stats.LastPlayedAt.IsZero() {
			stats.LastGameID = game
			stats.LastPlayedAt = item.CreatedAt
		}
	}
	if stats.ReviewCount > 0 {
		stats.AverageScore = int(math.Round(100 * float64(stats.CorrectCount) / float64(stats.ReviewCount)))
	}
	return stats
}

// WatchStats emits fresh stats immediately and after every change to encounter data.
// The channel closes when ctx is done.
func (u *encounterUsecase) WatchStats(ctx context.Context) <-chan StatsSnapshot {
	out := make(chan StatsSnapshot, 1)
	changes, cancel := u.encounters.Subscribe()
	go func() {
		defer close(out)
		defer cancel()
		for {
			stats, err := u.GetStats(ctx)
			select {
			case out <- StatsSnapshot{Stats: stats, Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
