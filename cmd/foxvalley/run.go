package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/trogers1052/fox-valley-engine/internal/brief"
	"github.com/trogers1052/fox-valley-engine/internal/config"
	"github.com/trogers1052/fox-valley-engine/internal/journal"
	"github.com/trogers1052/fox-valley-engine/internal/logger"
	"github.com/trogers1052/fox-valley-engine/internal/normalize"
	"github.com/trogers1052/fox-valley-engine/internal/pipeline"
	"github.com/trogers1052/fox-valley-engine/internal/tables"
)

type runCmd struct {
	portfolio string
	cash      string
	label     string
	format    string
	pretty    bool
	journal   string
	rules     string
	logLevel  string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "evaluate CSV exports once and print the tactical brief" }
func (*runCmd) Usage() string {
	return `foxvalley run -portfolio <positions.csv> [-cash n] [-format text|markdown|html|json] [-pretty] <screen.csv>...

  Screen files must name their group and date, e.g. zacks_growth1_2026-03-02.csv.
  Files with the newest date form the current snapshot; files with the date
  before it form the previous snapshot the differ compares against.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "broker positions CSV export")
	f.StringVar(&c.cash, "cash", "", "cash value overriding the detected cash positions")
	f.StringVar(&c.label, "label", "", "brief label (defaults to the snapshot date)")
	f.StringVar(&c.format, "format", "text", "output format: text, markdown, html or json")
	f.BoolVar(&c.pretty, "pretty", false, "render markdown output for the terminal")
	f.StringVar(&c.journal, "journal", "", "append journal rows to this CSV file")
	f.StringVar(&c.rules, "rules", os.Getenv("ENGINE_RULES_FILE"), "TOML file overriding the engine rules")
	f.StringVar(&c.logLevel, "log-level", "warn", "log level for diagnostics")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	log := logger.New(logger.Config{Level: c.logLevel, Pretty: true, Output: os.Stderr})

	rules, err := config.LoadRules(c.rules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	in, err := c.input(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	if c.pretty && c.format == "text" {
		c.format = "markdown"
	}

	res := pipeline.New(rules).Run(in)
	logFindings(log, res)

	if c.journal != "" {
		at := time.Now().UTC()
		entries := journal.FromDecisions(res.Decisions, at)
		entries = append(entries, journal.FromDeltas(res.Deltas, at)...)
		entries = append(entries, journal.FullExits(res.FullExits, nil, at)...)
		if err := journal.AppendFile(c.journal, entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	if err := c.render(os.Stdout, res); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *runCmd) input(screenPaths []string) (pipeline.Input, error) {
	in := pipeline.Input{Label: c.label}

	if c.portfolio == "" {
		return in, fmt.Errorf("-portfolio is required")
	}
	portfolio, err := tables.ReadCSVFile(c.portfolio)
	if err != nil {
		return in, err
	}
	in.Portfolio = portfolio

	if c.cash != "" {
		cash, err := normalize.ParseNumber(c.cash)
		if err != nil || !cash.Valid {
			return in, fmt.Errorf("invalid -cash value %q", c.cash)
		}
		in.CashOverride = cash
	}

	screens, err := loadScreens(screenPaths)
	if err != nil {
		return in, err
	}
	in.Screens, in.PreviousScreens = splitSnapshots(screens)
	return in, nil
}

// loadScreens reads screen exports, taking group and date from each file name
func loadScreens(paths []string) ([]pipeline.ScreenTable, error) {
	screens := make([]pipeline.ScreenTable, 0, len(paths))
	for _, p := range paths {
		group, err := tables.ScreenGroupFromName(p)
		if err != nil {
			return nil, err
		}
		date, err := tables.SnapshotDate(p)
		if err != nil {
			return nil, err
		}
		table, err := tables.ReadCSVFile(p)
		if err != nil {
			return nil, err
		}
		screens = append(screens, pipeline.ScreenTable{Group: group, Date: date, Table: table})
	}
	return screens, nil
}

// splitSnapshots returns the tables of the newest date and of the date
// before it. Older tables are ignored
func splitSnapshots(screens []pipeline.ScreenTable) (current, previous []pipeline.ScreenTable) {
	var dates []time.Time
	seen := make(map[time.Time]bool)
	for _, s := range screens {
		if !seen[s.Date] {
			seen[s.Date] = true
			dates = append(dates, s.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	for _, s := range screens {
		switch {
		case s.Date.Equal(dates[0]):
			current = append(current, s)
		case len(dates) > 1 && s.Date.Equal(dates[1]):
			previous = append(previous, s)
		}
	}
	return current, previous
}

func logFindings(log zerolog.Logger, res *pipeline.Result) {
	for _, cond := range res.Conditions {
		log.Warn().Str("kind", cond.Kind).Str("table", cond.Table).Msg(cond.Message)
	}
	for _, d := range res.Diagnostics {
		log.Debug().Str("table", d.Table).Int("row", d.Row).Str("field", d.Field).Msg(d.Message)
	}
}

func (c *runCmd) render(w io.Writer, res *pipeline.Result) error {
	switch c.format {
	case "text":
		_, err := io.WriteString(w, strings.Join(res.Brief.NarrativeLines, "\n")+"\n")
		return err
	case "markdown":
		md := brief.Markdown(res.Brief, res.Decisions)
		if c.pretty {
			out, err := glamour.Render(md, "dark")
			if err != nil {
				return fmt.Errorf("failed to render markdown: %w", err)
			}
			md = out
		}
		_, err := io.WriteString(w, md)
		return err
	case "html":
		page, err := brief.HTML(brief.Markdown(res.Brief, res.Decisions))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return fmt.Errorf("unknown format %q", c.format)
}
