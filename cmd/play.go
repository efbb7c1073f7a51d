/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/eslsoft/kanaplay/internal/app"
	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/usecase"
)

// historyEntry is the JSON shape a finished game reports for one answered subject.
type historyEntry struct {
	SubjectID      int64  `json:"subject_id"`
	AssignmentID   *int64 `json:"assignment_id,omitempty"`
	MeaningCorrect *bool  `json:"meaning_correct,omitempty"`
	ReadingCorrect *bool  `json:"reading_correct,omitempty"`
	Kana           bool   `json:"kana,omitempty"`
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a finished game from a JSON answer history",
	Long:  "Reads a JSON array of {subject_id, assignment_id, meaning_correct, reading_correct, kana} from --history (or - for stdin) and stores it as one encounter.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, _ := cmd.Flags().GetString("game")
		score, _ := cmd.Flags().GetInt("score")
		maxScore, _ := cmd.Flags().GetInt("max-score")
		elapsed, _ := cmd.Flags().GetDuration("elapsed")
		historyPath, _ := cmd.Flags().GetString("history")

		history, err := readHistory(cmd.InOrStdin(), historyPath)
		if err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			enc, err := c.Encounters.SaveEncounter(ctx, usecase.SaveEncounterInput{
				GameID:   gameID,
				Score:    score,
				MaxScore: maxScore,
				Elapsed:  elapsed,
				History:  history,
			})
			if err != nil {
				return fmt.Errorf("record encounter: %w", err)
			}
			cmd.Printf("recorded %s: %d answers, score %d/%d\n", enc.ID, len(history), enc.Score, enc.MaxScore)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show play statistics computed from local encounters",
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, _ := cmd.Flags().GetInt64("subject")
		watch, _ := cmd.Flags().GetBool("watch")
		recent, _ := cmd.Flags().GetInt("recent")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("subject") {
				stats, err := c.Encounters.GetItemStats(ctx, subjectID)
				if err != nil {
					return err
				}
				printItemStats(out, stats)
				return nil
			}
			if !watch {
				stats, err := c.Encounters.GetStats(ctx)
				if err != nil {
					return err
				}
				printGameStats(out, stats, recent)
				return nil
			}

			ctx, stop := signalContext(ctx)
			defer stop()
			for snap := range c.Encounters.WatchStats(ctx) {
				if snap.Err != nil {
					return snap.Err
				}
				fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
				printGameStats(out, snap.Stats, recent)
			}
			return nil
		})
	},
}

var assignmentCmd = &cobra.Command{
	Use:   "assignment",
	Short: "Change local assignment state",
}

var assignmentStartCmd = &cobra.Command{
	Use:   "start <assignment-id>",
	Short: "Start a lesson-stage assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid assignment id %q: %w", args[0], err)
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			if err := c.Sync.StartAssignment(ctx, id); err != nil {
				return fmt.Errorf("start assignment: %w", err)
			}
			cmd.Printf("assignment %d started\n", id)
			return nil
		})
	},
}

var assignmentReviewCmd = &cobra.Command{
	Use:   "review <assignment-id>",
	Short: "Apply a review outcome to the local SRS stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid assignment id %q: %w", args[0], err)
		}
		correct, _ := cmd.Flags().GetBool("correct")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			if err := c.Sync.ApplyReviewOutcome(ctx, id, correct); err != nil {
				return fmt.Errorf("apply review: %w", err)
			}
			cmd.Printf("assignment %d updated\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recordCmd, statsCmd, assignmentCmd)
	assignmentCmd.AddCommand(assignmentStartCmd, assignmentReviewCmd)

	recordCmd.Flags().String("game", "", "game identifier")
	recordCmd.Flags().Int("score", 0, "score reached")
	recordCmd.Flags().Int("max-score", 0, "maximum achievable score")
	recordCmd.Flags().Duration("elapsed", 0, "session length")
	recordCmd.Flags().String("history", "-", "answer history JSON file, - for stdin")
	cobra.CheckErr(recordCmd.MarkFlagRequired("game"))

	statsCmd.Flags().Int64("subject", 0, "show statistics for one subject id")
	statsCmd.Flags().Bool("watch", false, "print statistics again whenever encounters change")
	statsCmd.Flags().Int("recent", 10, "number of recent results to print")

	assignmentReviewCmd.Flags().Bool("correct", false, "the review was answered correctly")
}

func readHistory(stdin io.Reader, path string) ([]entity.HistoryEntry, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		defer f.Close()
		r = f
	}
	var raw []historyEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return lo.Map(raw, func(h historyEntry, _ int) entity.HistoryEntry {
		return entity.HistoryEntry{
			SubjectID:      h.SubjectID,
			AssignmentID:   h.AssignmentID,
			MeaningCorrect: h.MeaningCorrect,
			ReadingCorrect: h.ReadingCorrect,
			IsKana:         h.Kana,
		}
	}), nil
}

func printGameStats(w io.Writer, stats *entity.GameStats, recent int) {
	fmt.Fprintf(w, "games played:   %d\n", stats.TotalGames)
	fmt.Fprintf(w, "time played:    %s\n", stats.TotalTime.Round(time.Second))
	fmt.Fprintf(w, "unique results: %d\n", stats.TotalUniqueResults)
	if stats.MostPlayed != "" {
		fmt.Fprintf(w, "most played:    %s\n", stats.MostPlayed)
	}
	for _, r := range lo.Slice(stats.Recent, 0, recent) {
		label := strconv.FormatInt(r.Item.SubjectID, 10)
		if r.Subject != nil {
			label = r.Subject.Slug
		}
		mark := "ok"
		if !r.Item.Correct() {
			mark = "miss"
		}
		fmt.Fprintf(w, "  %-4s %s (%s)\n", mark, label, r.Item.CreatedAt.Format(time.DateTime))
	}
}

func printItemStats(w io.Writer, s *entity.ItemStats) {
	fmt.Fprintf(w, "subject %d: %d reviews, %d correct, average %d%%\n", s.SubjectID, s.ReviewCount, s.CorrectCount, s.AverageScore)
	if s.LastGameID != "" {
		fmt.Fprintf(w, "last played %s in %s\n", s.LastPlayedAt.Format(time.DateTime), s.LastGameID)
	}
	for game, n := range s.GameCounts {
		fmt.Fprintf(w, "  %s: %d\n", game, n)
	}
}
