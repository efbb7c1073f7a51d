package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func tablesFromConfig(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

// normalizeTables lowercases, trims and dedupes table names, dropping blanks.
func normalizeTables(values []string) []string {
	names := lo.Uniq(lo.FilterMap(values, func(v string, _ int) (string, bool) {
		name := strings.ToLower(strings.TrimSpace(v))
		return name, name != ""
	}))
	if len(names) == 0 {
		return nil
	}
	return names
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// tableProgress prints backup progress per table, at most about twenty lines per table.
type tableProgress struct {
	out   io.Writer
	verb  string
	table string
	total int
	done  int
	shown int
}

func newTableProgress(out io.Writer, verb string) *tableProgress {
	return &tableProgress{out: out, verb: verb}
}

func (p *tableProgress) StartTable(table string, total int) {
	p.table, p.total, p.done, p.shown = table, max(total, 0), 0, 0
	fmt.Fprintf(p.out, "%s %s (%d rows)\n", p.verb, table, p.total)
}

func (p *tableProgress) Increment(table string, delta int) {
	if delta <= 0 || table != p.table {
		return
	}
	p.done += delta
	if p.done-p.shown >= progressStep(p.total) {
		fmt.Fprintf(p.out, "  %s %d/%d\n", table, p.done, p.total)
		p.shown = p.done
	}
}

func (p *tableProgress) FinishTable(table string) {
	if table != p.table {
		return
	}
	fmt.Fprintf(p.out, "  %s done: %d rows\n", table, p.done)
	p.table = ""
}

// progressStep returns how many rows pass between progress lines.
func progressStep(total int) int {
	if total <= 0 {
		return 1000
	}
	return min(max(total/20, 1), 1000)
}
