package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"relwatch/internal/log"
	"relwatch/internal/update"
)

type checkOutput struct {
	CheckedAt time.Time `json:"checked_at"`
	Outcome   string    `json:"outcome"`
	Previous  string    `json:"previous"`
	Latest    string    `json:"latest,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func newCheckCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one check cycle now",
		Long: `Check fetches the latest release once, without the startup delay,
updates the stored version and prints what happened. It exits non-zero
when the release could not be fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch, err := buildChecker(cmd.Context(), c.settings)
			if err != nil {
				return err
			}
			defer func() {
				if err := ch.Close(); err != nil {
					log.Warn("failed to close history", log.Err(err))
				}
			}()

			result := ch.scheduler.CheckNow(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeCheckJSON(out, result); err != nil {
					return err
				}
			} else {
				printCycle(out, c.settings.Repository(), result)
			}

			if result.Outcome == update.OutcomeFailed {
				return result.Err
			}
			return result.PersistErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func toCheckOutput(r update.CycleResult) checkOutput {
	out := checkOutput{
		CheckedAt: r.CheckedAt,
		Outcome:   string(r.Outcome),
		Previous:  r.Previous.String(),
	}
	if r.Outcome != update.OutcomeFailed {
		out.Latest = r.Latest.String()
	}
	if r.Release != nil {
		out.Tag = r.Release.TagName
		out.URL = r.Release.HTMLURL
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func writeCheckJSON(w io.Writer, r update.CycleResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toCheckOutput(r)); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func printCycle(w io.Writer, repository string, r update.CycleResult) {
	printField(w, "repository", styleValue.Render(repository))
	printField(w, "outcome", outcomeStyle(r.Outcome).Render(string(r.Outcome)))

	switch r.Outcome {
	case update.OutcomeFailed:
		printField(w, "stored", styleVersion.Render(r.Previous.String()))
		if r.Err != nil {
			printField(w, "error", "")
			printDetail(w, r.Err.Error())
		}
		return
	case update.OutcomeUpdated:
		printField(w, "previous", styleVersion.Render(r.Previous.String()))
	}
	printField(w, "latest", styleVersion.Render(r.Latest.String()))
	if r.Release != nil && r.Release.HTMLURL != "" {
		printField(w, "url", styleDim.Render(r.Release.HTMLURL))
	}
	if r.PersistErr != nil {
		printField(w, "warning", styleWarn.Render("version not saved"))
		printDetail(w, r.PersistErr.Error())
	}
}
