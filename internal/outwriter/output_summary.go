package outwriter

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// maxLeaderRows bounds the frames-led table of the run summary.
const maxLeaderRows = 10

// PrintRunSummary writes the summary of a completed render. JSON output
// produces a single object, every other mode a short report.
func PrintRunSummary(w io.Writer, summary schema.RunSummary, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, summary)
	}
	return printRunSummaryText(w, summary, cfg)
}

func printRunSummaryText(w io.Writer, s schema.RunSummary, cfg *contract.Config) error {
	title := "Render summary"
	if cfg.UseEmojis {
		title = "🏁 " + title
	}
	lines := []string{
		title,
		fmt.Sprintf("  Frames:          %s", humanize.Comma(int64(s.Frames))),
		fmt.Sprintf("  Entities:        %d (top %d shown)", s.Entities, s.TopN),
		fmt.Sprintf("  Swaps:           %s", humanize.Comma(int64(s.Swaps))),
		fmt.Sprintf("  Enters / Exits:  %d / %d", s.Enters, s.Exits),
		fmt.Sprintf("  Leader changes:  %d", s.LeaderChanges),
		fmt.Sprintf("  Milestones:      %d", s.MilestoneEvents),
		fmt.Sprintf("  Final leader:    %s", s.FinalLeader),
	}
	if s.Gaps > 0 || s.Warnings > 0 {
		lines = append(lines, fmt.Sprintf("  Gaps / Warnings: %d / %d", s.Gaps, s.Warnings))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(s.FramesLed) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Leader", "Frames", "Share"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})
	fmtFloat, _ := createFormatters(cfg.Precision)
	for _, id := range topLeaders(s.FramesLed, maxLeaderRows) {
		share := 0.0
		if s.Frames > 0 {
			share = 100 * float64(s.FramesLed[id]) / float64(s.Frames)
		}
		if err := table.Append([]string{id, strconv.Itoa(s.FramesLed[id]), fmtFloat(share) + "%"}); err != nil {
			return err
		}
	}
	return table.Render()
}

// topLeaders returns the entities that led the most frames, ties by name.
func topLeaders(led map[string]int, limit int) []string {
	ids := slices.Collect(maps.Keys(led))
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(led[b], led[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// PrintDatasetInfo writes the inspection report of a dataset.
func PrintDatasetInfo(w io.Writer, info schema.DatasetInfo, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, info)
	}
	return printDatasetInfoText(w, info, cfg)
}

func printDatasetInfoText(w io.Writer, info schema.DatasetInfo, cfg *contract.Config) error {
	title := "Dataset " + info.Path
	if cfg.UseEmojis {
		title = "📊 " + title
	}
	lines := []string{
		title,
		fmt.Sprintf("  Entities:   %d", len(info.Entities)),
		fmt.Sprintf("  Timestamps: %d (%s to %s)", info.Timestamps,
			schema.FormatTimestamp(info.Start), schema.FormatTimestamp(info.End)),
		fmt.Sprintf("  Points:     %s", humanize.Comma(int64(info.Points))),
		fmt.Sprintf("  Frames:     %s", humanize.Comma(int64(info.Frames))),
		fmt.Sprintf("  Milestones: %d", len(info.Milestones)),
		fmt.Sprintf("  Gaps:       %d", len(info.Gaps)),
	}
	for _, g := range info.Gaps {
		lines = append(lines, fmt.Sprintf("  Gap %s-%s: %s",
			schema.FormatTimestamp(g.Start), schema.FormatTimestamp(g.End), g.Reason))
	}
	for _, warning := range info.Warnings {
		lines = append(lines, "  Warning: "+warning)
	}
	for _, p := range info.AssetProblems {
		lines = append(lines, fmt.Sprintf("  Asset %s: %s (%s)", p.EntityID, p.Reason, p.Path))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(info.FinalStanding) == 0 {
		return nil
	}

	divisor := cfg.Divisor
	if divisor <= 0 {
		divisor = 1
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Entity", "Final Value"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})
	labelWidth := getMaxLabelWidth(cfg)
	for i, s := range info.FinalStanding {
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncateLabel(s.EntityID, labelWidth),
			schema.FormatCompact(s.Value/divisor, cfg.Precision),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
