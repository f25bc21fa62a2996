package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity and cached season score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := startSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer sess.Stop()

			claims, ok := sess.Tokens().Claims()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:  %s (id %d)\n", claims.Username, claims.UserID)
			fmt.Fprintf(out, "role:  %s\n", claims.Role)

			score := "pending"
			if snap := sess.Cache().Current(); snap.Valid {
				score = fmt.Sprintf("%s (%d)", strconv.FormatFloat(snap.Score, 'f', -1, 64), snap.Year)
			}
			fmt.Fprintf(out, "score: %s\n", score)
			return nil
		},
	}
}
