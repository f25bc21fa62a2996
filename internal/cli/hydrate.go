package cli

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/okian/prode/internal/hydrate"
)

// HydrateOptions holds flags for the hydrate command.
type HydrateOptions struct {
	*RootOptions
	Workers int
}

// NewHydrateCommand creates the hydrate command: a bounded-concurrency sweep
// that reports which sessions already have official results.
func NewHydrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HydrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hydrate <session-id>...",
		Short: "Check which sessions have official results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("session id must be a number: %q", arg)
				}
				ids = append(ids, id)
			}
			return runHydrate(cmd, opts, ids)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent fetches (default from config)")

	return cmd
}

func runHydrate(cmd *cobra.Command, opts *HydrateOptions, ids []int) error {
	sess, cfg, err := startSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Stop()

	workers := cfg.HydrateWorkers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	h := sess.NewHydrator(workers, cfg.TopN)
	h.Run(cmd.Context(), ids, func(st hydrate.Status) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case st.Err != nil:
			fmt.Fprintf(out, "session %d: unknown (%v)\n", st.SessionID, st.Err)
		case st.HasResults:
			fmt.Fprintf(out, "session %d: results available\n", st.SessionID)
		default:
			fmt.Fprintf(out, "session %d: no results yet\n", st.SessionID)
		}
	})
	return nil
}
