package brief

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/trogers1052/fox-valley-engine/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders the brief and its decision table as the daily export
func Markdown(b *models.Brief, decisions []models.DecisionRow) string {
	var sb strings.Builder

	if len(b.NarrativeLines) > 0 {
		fmt.Fprintf(&sb, "# %s\n\n", b.NarrativeLines[0])
		for _, line := range b.NarrativeLines[1:] {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}

	if len(b.TopBuys) > 0 {
		sb.WriteString("\n## Top Buys\n\n")
		sb.WriteString("| Ticker | Screen | Allocation | Est. Buy | Stop |\n")
		sb.WriteString("|---|---|---:|---:|---:|\n")
		for _, row := range b.TopBuys {
			fmt.Fprintf(&sb, "| %s | %s | %s%% | %s | %s |\n",
				row.Ticker, row.ScreenGroup.Label(), row.SuggestedAllocationPct.StringFixed(1),
				FormatUSD(row.EstimatedBuyAmount), row.SuggestedStopPct)
		}
	}

	sb.WriteString("\n## Decisions\n\n")
	if len(decisions) == 0 {
		sb.WriteString("No screen candidates.\n")
		return sb.String()
	}
	sb.WriteString("| Ticker | Screen | Rank | Held | Gain/Loss | Score | Action | Stop | Allocation | Change |\n")
	sb.WriteString("|---|---|---:|---|---:|---:|---|---:|---:|---|\n")
	for _, row := range decisions {
		rank := "-"
		if row.Rank != nil {
			rank = fmt.Sprintf("%d", *row.Rank)
		}
		heldMark := "no"
		if row.Held {
			heldMark = "yes"
		}
		change := string(row.Change)
		if change == "" {
			change = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %d | %s | %s | %s%% | %s |\n",
			row.Ticker, row.ScreenGroup.Label(), rank, heldMark, FormatPct(row.GainLossPct),
			row.Score, row.Action, row.SuggestedStopPct, row.SuggestedAllocationPct.StringFixed(1), change)
	}
	return sb.String()
}

// HTML converts brief markdown to HTML with GitHub flavored extensions
func HTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render brief html: %w", err)
	}
	return buf.String(), nil
}
