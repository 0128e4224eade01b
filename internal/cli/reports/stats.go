// Package reports renders read-only views over the task collection.
package reports

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/stats"
)

const barWidth = 20

type StatsCmd struct {
	Group string `arg:"" optional:"" help:"Series ID to report on. Reports on everything when omitted."`
	JSON  bool   `help:"Print the report as JSON."`
}

type overview struct {
	Summary stats.Summary       `json:"summary"`
	Series  []stats.GroupReport `json:"series"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	analyzer := stats.NewAnalyzer(ctx.Store)
	now := ctx.Now()

	if c.Group != "" {
		report, err := analyzer.AnalyzeGroup(c.Group, now)
		if err != nil {
			return err
		}
		if c.JSON {
			return c.encode(ctx, report)
		}
		printGroup(ctx, report)
		return nil
	}

	summary, err := analyzer.AnalyzeAll(now)
	if err != nil {
		return err
	}
	groups, err := groupIDs(ctx)
	if err != nil {
		return err
	}
	out := overview{Summary: summary}
	for _, id := range groups {
		report, err := analyzer.AnalyzeGroup(id, now)
		if err != nil {
			return err
		}
		out.Series = append(out.Series, report)
	}

	if c.JSON {
		return c.encode(ctx, out)
	}
	printSummary(ctx, summary)
	for _, report := range out.Series {
		ctx.Println()
		printGroup(ctx, report)
	}
	return nil
}

func (c *StatsCmd) encode(ctx *cli.Context, v interface{}) error {
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func groupIDs(ctx *cli.Context) ([]string, error) {
	tasks, err := ctx.Store.ListTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	seen := make(map[string]bool)
	var ids []string
	for _, t := range tasks {
		if id := t.GroupID(); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func printSummary(ctx *cli.Context, s stats.Summary) {
	ctx.Println(cli.HeaderStyle.Render("Summary"))
	ctx.Printf("  Tasks:          %d (%d pending, %d completed, %d not done)\n", s.Total, s.Pending, s.Completed, s.NotDone)
	ctx.Printf("  Completion:     %.0f%%\n", s.CompletionRate*100)
	ctx.Printf("  Points:         %s\n", cli.Points(s.Points))
	ctx.Printf("  Postponements:  %d (%s points)\n", s.Postponements, cli.Points(s.Penalties))
	ctx.Printf("  Streak:         %d day(s)\n", s.Streak)
}

func printGroup(ctx *cli.Context, r stats.GroupReport) {
	title := r.Title
	if title == "" {
		title = r.GroupID
	}
	ctx.Printf("%s %s\n", cli.HeaderStyle.Render(title), cli.MutedStyle.Render("("+cli.ShortID(r.GroupID)+")"))
	if r.Rule != "" {
		ctx.Printf("  Repeats:        %s\n", r.Rule)
	}
	ctx.Printf("  Completed:      %d of %d, %s points\n", r.Summary.Completed, r.Summary.Total, cli.Points(r.Summary.Points))
	ctx.Printf("  Avg interval:   %s\n", r.AverageInterval)
	ctx.Printf("  Last done:      %s\n", agoOrUndefined(r.TimeSinceLast))
	ctx.Printf("  Next due:       %s\n", r.TimeUntilNext)
	if r.Progress != nil {
		ctx.Printf("  Progress:       %s\n", progressBar(r.Progress.Ratio, r.Progress.Overdue))
	}
	if r.Summary.Streak > 0 {
		ctx.Printf("  Streak:         %d day(s)\n", r.Summary.Streak)
	}
}

func agoOrUndefined(s string) string {
	if s == stats.Undefined {
		return s
	}
	return s + " ago"
}

func progressBar(ratio float64, overdue bool) string {
	filled := int(ratio * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	label := fmt.Sprintf("%s %3.0f%%", bar, ratio*100)
	if overdue {
		return cli.DangerStyle.Render(label)
	}
	return label
}
