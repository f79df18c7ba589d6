package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"relwatch/internal/events"
	"relwatch/internal/log"
	"relwatch/internal/update"
)

func newRunCmd(c *cli) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll for new releases until interrupted",
		Long: `Run starts the update checker in the foreground. After the startup
delay it checks once, then once per poll interval, until SIGINT or SIGTERM.
Each newer release is printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []update.SchedulerOption
			if now {
				opts = append(opts, update.WithStartupDelay(0))
			}
			ch, err := buildChecker(cmd.Context(), c.settings, opts...)
			if err != nil {
				return err
			}
			defer func() {
				if err := ch.Close(); err != nil {
					log.Warn("failed to close history", log.Err(err))
				}
			}()

			out := cmd.OutOrStdout()
			ch.bus.Subscribe(events.TypeUpdateAvailable, func(e events.Event) {
				printUpdateBanner(out, e)
			})

			_, _ = fmt.Fprintf(out, "%s watching %s every %s\n",
				styleApp.Render("relwatch"),
				styleValue.Render(c.settings.Repository()),
				c.settings.Interval,
			)

			err = ch.scheduler.Run(cmd.Context())
			if cmd.Context().Err() != nil {
				// Shutdown by signal is a clean exit.
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "Skip the startup delay and check immediately")
	return cmd
}

func printUpdateBanner(w io.Writer, e events.Event) {
	body := fmt.Sprintf("Update available: %s  (was v%v.%v.%v)",
		styleVersion.Render(fmt.Sprintf("v%v.%v.%v", e.Data["new_major"], e.Data["new_minor"], e.Data["new_revision"])),
		e.Data["old_major"], e.Data["old_minor"], e.Data["old_revision"],
	)
	if url, _ := e.Data["url"].(string); url != "" {
		body += "\n" + styleDim.Render(url)
	}
	_, _ = fmt.Fprintln(w, styleBanner.Render(body))
}
