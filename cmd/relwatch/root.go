package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"relwatch/internal/config"
	apperrors "relwatch/internal/errors"
	"relwatch/internal/log"
)

// cli holds global flag values and the settings resolved for one invocation.
type cli struct {
	configPath string
	verbose    bool
	noColor    bool

	settings config.Settings
}

// flagKeys maps override flags to the configuration keys they replace.
var flagKeys = map[string]string{
	"owner":   config.KeyReleaseOwner,
	"repo":    config.KeyReleaseRepo,
	"api-url": config.KeyReleaseAPIURL,
	"state":   config.KeyStatePath,
	"history": config.KeyHistoryPath,
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "relwatch",
		Short: "Watch a GitHub repository for new releases",
		Long: `relwatch polls a repository's latest release, remembers the newest
version it has seen and reports when a newer one is published.

The first successful check records a baseline; only later, strictly newer
releases are reported.

Quick Start:
  relwatch check --owner acme --repo widget   One check right now
  relwatch run                                Poll until interrupted
  relwatch status                             Show stored version and history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Config file (default: nearest .relwatch/config.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&c.noColor, "no-color", false, "Disable color output")
	pf.String("owner", "", "Repository owner")
	pf.String("repo", "", "Repository name")
	pf.String("api-url", "", "Releases API root")
	pf.String("state", "", "File storing the last seen version")
	pf.String("history", "", "SQLite check history (empty disables)")

	root.AddCommand(
		newRunCmd(c),
		newCheckCmd(c),
		newStatusCmd(c),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command, cancelling its context on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer log.Close()

	return newRootCmd().ExecuteContext(ctx)
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.noColor || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if cmd.Name() == "version" {
		return nil
	}

	var opts []config.Option
	if c.configPath != "" {
		opts = append(opts, config.WithProjectConfig(c.configPath))
	}
	if err := config.Initialize(opts...); err != nil {
		return apperrors.New(apperrors.CodeConfigurationError, "initialize configuration", err)
	}
	if err := config.ApplyOverrides(flagOverrides(cmd)); err != nil {
		return apperrors.New(apperrors.CodeConfigurationError, "apply flag overrides", err)
	}

	s, err := config.Load()
	if err != nil {
		return err
	}
	c.settings = s

	if err := log.Configure(log.Options{
		Level:   log.ParseLevel(s.LogLevel),
		JSON:    s.LogJSON,
		Output:  cmd.ErrOrStderr(),
		Verbose: c.verbose,
		File:    s.LogFile,
	}); err != nil {
		return apperrors.New(apperrors.CodeConfigurationError, "configure logging", err)
	}

	log.Debug("configuration loaded",
		"repository", s.Repository(),
		"state", s.StatePath,
		"history", s.HistoryPath,
	)
	return nil
}

// flagOverrides returns the override flags the user actually set.
func flagOverrides(cmd *cobra.Command) map[string]any {
	out := map[string]any{}
	for flag, key := range flagKeys {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if v, err := cmd.Flags().GetString(flag); err == nil {
			out[key] = v
		}
	}
	return out
}
