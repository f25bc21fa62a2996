package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/prode/internal/scorecache"
)

// NewWatchCommand creates the watch command. It blocks and prints the cached
// season score whenever it changes, including changes written by another
// process sharing the store file.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow score changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := startSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer sess.Stop()

			out := cmd.OutOrStdout()
			printSnap := func(snap scorecache.Snapshot) {
				if !snap.Valid {
					fmt.Fprintln(out, "score: pending")
					return
				}
				fmt.Fprintf(out, "score: %s (%d)\n",
					strconv.FormatFloat(snap.Score, 'f', -1, 64), snap.Year)
			}

			printSnap(sess.Cache().Current())
			cancel := sess.Cache().Subscribe(printSnap)
			defer cancel()

			if err := sess.WatchExternalScore(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}
