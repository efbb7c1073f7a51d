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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eslsoft/kanaplay/internal/app"
	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database"
	"github.com/eslsoft/kanaplay/internal/infrastructure/logging"
	"github.com/eslsoft/kanaplay/internal/usecase/backup"
)

// dbInitCmd creates the local store schema and optionally seeds the kana subjects.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Initialize the local store",
	Long:  "Runs the schema migration for every local collection. Use --with-kana to also insert the hiragana and katakana subjects. go-sqlite3 requires a CGO_ENABLED=1 build.",
	RunE: func(cmd *cobra.Command, args []string) error {
		withKana, _ := cmd.Flags().GetBool("with-kana")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := logging.NewLogger(cfg)
		if err != nil {
			return err
		}

		report, err := initSchema(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		cmd.Printf("schema %s ready: %v\n", report.hash, report.tables)

		if !withKana {
			return nil
		}
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

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().Bool("with-kana", false, "insert the synthetic kana subjects after migrating")
}

type schemaReport struct {
	tables []string
	hash   string
}

// initSchema opens the configured store, migrates it and reports the resulting tables.
func initSchema(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*schemaReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, cleanup, err := database.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer cleanup()

	if err := db.Migrate(ctx); err != nil {
		return nil, err
	}
	service, err := backup.NewService(db)
	if err != nil {
		return nil, err
	}
	logger.WithField("tables", len(service.TableNames())).Info("local store migrated")
	return &schemaReport{tables: service.TableNames(), hash: service.SchemaHash()}, nil
}
