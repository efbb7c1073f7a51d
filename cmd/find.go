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

	"github.com/spf13/cobra"

	"github.com/eslsoft/kanaplay/internal/app"
	"github.com/eslsoft/kanaplay/internal/repository"
)

var findCmd = &cobra.Command{
	Use:   "find <collection>",
	Short: "Query a local collection with a filter expression",
	Long: `Runs an ad hoc query against one local collection and prints the matching documents as JSON lines.

Example:
  kanaplay find assignments --filter 'srs_stage == 0' --order-by 'available_at desc' --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		limit, _ := cmd.Flags().GetInt32("limit")
		page, _ := cmd.Flags().GetInt32("page")
		watch, _ := cmd.Flags().GetBool("watch")

		query := &repository.ListDocumentsQuery{
			Pagination:  repository.Pagination{PageNo: page, PageSize: limit},
			FilterOrder: repository.FilterOrder{Filter: filter, OrderBy: orderBy},
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			out := cmd.OutOrStdout()
			if !watch {
				docs, total, err := c.Documents.Find(ctx, args[0], query)
				if err != nil {
					return err
				}
				if err := printDocuments(out, docs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d documents\n", len(docs), total)
				return nil
			}

			ctx, stop := signalContext(ctx)
			defer stop()
			snapshots, err := c.Documents.Watch(ctx, args[0], query)
			if err != nil {
				return err
			}
			for snap := range snapshots {
				if snap.Err != nil {
					return snap.Err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "--- %d documents\n", len(snap.Documents))
				if err := printDocuments(out, snap.Documents); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the queryable local collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			for _, name := range c.Documents.Collections() {
				cmd.Println(name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(findCmd, collectionsCmd)

	findCmd.Flags().String("filter", "", "CEL filter expression over indexed fields")
	findCmd.Flags().String("order-by", "", "comma separated fields, each optionally followed by asc or desc")
	findCmd.Flags().Int32("limit", 50, "page size, 0 for no limit")
	findCmd.Flags().Int32("page", 1, "page number starting at 1")
	findCmd.Flags().Bool("watch", false, "print the result again whenever the collection changes")
}

func printDocuments(w io.Writer, docs []any) error {
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}
	return nil
}
