// Package cli wires the client library into a cobra command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/prode/internal/app"
	"github.com/okian/prode/internal/config"
	"github.com/okian/prode/pkg/logger"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	ConfigFile string
}

// NewRootCommand creates the root command for the prode CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "prode",
		Short:         "prode - F1 prediction game client",
		Long:          "Command-line client for the prode F1 prediction game: submit predictions, inspect scored compositions and trigger score recomputation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to YAML config file")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewPredictCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewRecomputeCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewHydrateCommand(opts))

	return cmd
}

// startSession loads configuration and starts a wired client session. The
// caller owns the returned session's lifecycle.
func startSession(cmd *cobra.Command, opts *RootOptions) (*app.Session, *config.Config, error) {
	if opts.ConfigFile != "" {
		if err := os.Setenv("PRODE_CONFIG", opts.ConfigFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, nil, err
	}

	sess := app.New(
		app.WithBaseURL(cfg.BaseURL),
		app.WithStorePath(cfg.StorePath),
		app.WithHTTPTimeout(cfg.HTTPTimeout()),
		app.WithSeasonYear(cfg.SeasonYear),
		app.WithLockWindow(cfg.LockWindow()),
		app.WithPollInterval(cfg.PollInterval()),
		app.WithLogger(logger.Get()),
		app.WithSessionExpiredFunc(func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "session expired, please log in again")
		}),
	)
	if err := sess.Start(cmd.Context()); err != nil {
		return nil, nil, err
	}
	return sess, cfg, nil
}
