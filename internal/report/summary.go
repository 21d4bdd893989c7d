package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/panbanda/devpulse/internal/aggregate"
	"github.com/panbanda/devpulse/internal/traversal"
)

// Summary is a terminal-facing rendering of one run's results: a
// processing-totals table plus a per-developer leaderboard, adapted from
// the teacher's internal/output.Table/Report pair (render-by-format,
// colored headings) narrowed to the one report shape devpulse's CLI prints
// after a run — the JSON document itself goes through Writer, not this.
type Summary struct {
	RepositoryName string
	Processing     traversal.Processing
	Developers     map[string]aggregate.DeveloperRecord
	FailedRepos    []string
}

// RenderText prints the summary as plain (or ANSI-colored) text, mirroring
// the teacher's Table.RenderText/Section.RenderText heading-then-table
// layout.
func (s Summary) RenderText(w io.Writer, colored bool) error {
	heading(w, colored, fmt.Sprintf("devpulse: %s", s.RepositoryName))
	fmt.Fprintf(w, "commits: %d   lines added: %d   lines removed: %d\n\n",
		s.Processing.TotalCommits, s.Processing.TotalLinesAdded, s.Processing.TotalLinesRemoved)

	if len(s.FailedRepos) > 0 {
		warn(w, colored, fmt.Sprintf("failed repositories: %s", strings.Join(s.FailedRepos, ", ")))
		fmt.Fprintln(w)
	}

	renderDeveloperTable(w, s.Developers)
	return nil
}

func heading(w io.Writer, colored bool, text string) {
	if colored {
		color.New(color.Bold, color.FgCyan).Fprintln(w, text)
	} else {
		fmt.Fprintln(w, text)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(text)))
	fmt.Fprintln(w)
}

func warn(w io.Writer, colored bool, text string) {
	if colored {
		color.Yellow(text)
		return
	}
	fmt.Fprintln(w, "WARNING: "+text)
}

// renderDeveloperTable renders one row per developer, sorted by total
// lines changed (added+deleted) descending so the most active developer
// leads, matching the teacher's habit of tables ordered by the metric
// they're about rather than by key.
func renderDeveloperTable(w io.Writer, devs map[string]aggregate.DeveloperRecord) {
	type row struct {
		email string
		rec   aggregate.DeveloperRecord
	}
	rows := make([]row, 0, len(devs))
	for email, rec := range devs {
		rows = append(rows, row{email, rec})
	}
	sort.Slice(rows, func(i, j int) bool {
		ti := rows[i].rec.Summary.TotalLinesAdded + rows[i].rec.Summary.TotalLinesDeleted
		tj := rows[j].rec.Summary.TotalLinesAdded + rows[j].rec.Summary.TotalLinesDeleted
		return ti > tj
	})

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
		}),
	)
	table.Header([]string{"Developer", "Lines +/-", "Hours", "Span (days)", "Pattern"})
	for _, r := range rows {
		table.Append([]string{
			r.email,
			fmt.Sprintf("+%d/-%d", r.rec.Summary.TotalLinesAdded, r.rec.Summary.TotalLinesDeleted),
			fmt.Sprintf("%.1f", r.rec.Summary.TotalEstimatedHours),
			fmt.Sprintf("%d", r.rec.Summary.SpanDays),
			r.rec.Summary.WorkPatternType,
		})
	}
	table.Render()
	fmt.Fprintln(w)
}
