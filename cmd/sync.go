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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eslsoft/kanaplay/internal/app"
	"github.com/eslsoft/kanaplay/internal/usecase"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull remote data and push recorded answers",
	Long:  "Runs one sync cycle: pull of user, subjects, assignments and study materials followed by push of unsynced encounter items. Without --force the cycle and each entity are skipped while their interval has not elapsed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		pullOnly, _ := cmd.Flags().GetBool("pull-only")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			if pullOnly {
				if err := c.Sync.Sync(ctx, force); err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				cmd.Println("pull sync finished")
				return nil
			}
			report, err := c.Manager.Cycle(ctx, force)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			if !report.Ran {
				cmd.Println("sync skipped: not signed in, offline or synced recently (use --force)")
				return nil
			}
			printPushReport(cmd.OutOrStdout(), report.Push)
			return nil
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Submit unsynced encounter items as reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			report, err := c.Sync.SyncEncounterItems(ctx)
			printPushReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Repair subjects without a kind and assignments stuck in the local started state",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			subjects, err := c.Sync.MigrateSubjects(ctx, force)
			if err != nil {
				return fmt.Errorf("migrate subjects: %w", err)
			}
			printMigrationReport(cmd.OutOrStdout(), "subjects", subjects)
			assignments, err := c.Sync.MigrateAssignments(ctx, force)
			if err != nil {
				return fmt.Errorf("migrate assignments: %w", err)
			}
			printMigrationReport(cmd.OutOrStdout(), "assignments", assignments)
			return nil
		})
	},
}

var kanaCmd = &cobra.Command{
	Use:   "kana",
	Short: "Rebuild the synthetic hiragana and katakana subjects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			n, err := c.Sync.PopulateKana(ctx)
			if err != nil {
				return fmt.Errorf("populate kana: %w", err)
			}
			cmd.Printf("inserted %d kana subjects\n", n)
			return nil
		})
	},
}

// daemonCmd keeps syncing on the configured cadence until interrupted.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run sync cycles periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			ctx, stop := signalContext(ctx)
			defer stop()

			c.Logger.WithField("interval", c.Config.Sync.CycleInterval).Info("sync daemon started")
			if err := c.Manager.Run(ctx); err != nil {
				return fmt.Errorf("sync daemon: %w", err)
			}
			c.Logger.Info("sync daemon stopped")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, pushCmd, migrateCmd, kanaCmd, daemonCmd)

	syncCmd.Flags().Bool("force", false, "ignore sync intervals")
	syncCmd.Flags().Bool("pull-only", false, "skip pushing encounter items")
	migrateCmd.Flags().Bool("force", false, "ignore the migration interval")
}

func printPushReport(w io.Writer, r usecase.PushReport) {
	fmt.Fprintf(w, "push: %d batches, %d submitted, %d dropped, %d pending (%d skipped, %d failed)\n",
		r.Batches, r.Submitted, r.Dropped, r.Pending(), r.Skipped, r.Failed)
}

func printMigrationReport(w io.Writer, name string, r usecase.MigrationReport) {
	if !r.Ran {
		fmt.Fprintf(w, "%s: migration not due\n", name)
		return
	}
	fmt.Fprintf(w, "%s: scanned %d, repaired %d, unresolved %d\n", name, r.Scanned, r.Repaired, r.Unresolved)
}
