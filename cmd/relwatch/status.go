package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"relwatch/internal/config"
	"relwatch/internal/history"
	"relwatch/internal/log"
	"relwatch/internal/update"
)

const maxErrorWidth = 60

type statusOutput struct {
	Repository string         `json:"repository"`
	StatePath  string         `json:"state_path"`
	Version    string         `json:"version,omitempty"`
	Known      bool           `json:"known"`
	StateError string         `json:"state_error,omitempty"`
	History    []historyEntry `json:"history,omitempty"`
}

type historyEntry struct {
	CheckedAt time.Time `json:"checked_at"`
	Outcome   string    `json:"outcome"`
	Previous  string    `json:"previous"`
	Latest    string    `json:"latest,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func newStatusCmd(c *cli) *cobra.Command {
	var (
		asJSON bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored version and recent checks",
		Long: `Status prints the last version recorded in the state file and, when a
history database is configured, the most recent check cycles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := collectStatus(cmd, c.settings, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(st); err != nil {
					return fmt.Errorf("encode status: %w", err)
				}
				return nil
			}
			printStatus(out, st, c.settings.HistoryPath != "")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of history rows to show")
	return cmd
}

func collectStatus(cmd *cobra.Command, s config.Settings, limit int) (statusOutput, error) {
	ctx := cmd.Context()
	store := update.NewFileStore(s.StatePath)
	st := statusOutput{
		Repository: s.Repository(),
		StatePath:  store.Path(),
	}

	v, found, err := store.Load(ctx)
	switch {
	case err != nil:
		st.StateError = err.Error()
	case found:
		st.Version = v.String()
		st.Known = true
	}

	if s.HistoryPath == "" {
		return st, nil
	}
	// Do not create an empty database just to report it is empty.
	if _, err := os.Stat(s.HistoryPath); errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	ledger, err := history.Open(ctx, s.HistoryPath)
	if err != nil {
		return st, err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			log.Warn("failed to close history", log.Err(err))
		}
	}()

	entries, err := ledger.Recent(ctx, limit)
	if err != nil {
		return st, err
	}
	for _, e := range entries {
		st.History = append(st.History, historyEntry{
			CheckedAt: e.CheckedAt,
			Outcome:   string(e.Outcome),
			Previous:  e.Previous,
			Latest:    e.Latest,
			Error:     e.Error,
		})
	}
	return st, nil
}

func printStatus(w io.Writer, st statusOutput, historyEnabled bool) {
	printField(w, "repository", styleValue.Render(st.Repository))
	printField(w, "state", styleDim.Render(st.StatePath))

	if st.StateError != "" {
		printField(w, "version", styleError.Render("unreadable"))
		printDetail(w, st.StateError)
	} else {
		v, _ := update.ParseVersion(st.Version)
		printField(w, "version", renderVersion(v, st.Known))
	}

	if !historyEnabled {
		return
	}
	_, _ = fmt.Fprintln(w)
	if len(st.History) == 0 {
		_, _ = fmt.Fprintln(w, styleDim.Render("no checks recorded yet"))
		return
	}
	_, _ = fmt.Fprintln(w, styleApp.Render("recent checks"))
	for _, e := range st.History {
		line := fmt.Sprintf("  %-16s %s",
			humanize.Time(e.CheckedAt),
			outcomeStyle(update.Outcome(e.Outcome)).Render(fmt.Sprintf("%-9s", e.Outcome)),
		)
		switch {
		case e.Error != "":
			line += " " + styleDim.Render(ansi.Truncate(e.Error, maxErrorWidth, "…"))
		case e.Outcome == string(update.OutcomeUpdated):
			line += fmt.Sprintf(" %s → %s", e.Previous, styleVersion.Render(e.Latest))
		default:
			line += " " + e.Latest
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
