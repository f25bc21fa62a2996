package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/prode/internal/domain/prediction"
)

// RecomputeOptions holds flags for the recompute command.
type RecomputeOptions struct {
	*RootOptions
	Kind string
}

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecomputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recompute <session-id>",
		Short: "Trigger server-side score recomputation (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("session id must be a number: %q", args[0])
			}
			kind := prediction.Kind(opts.Kind)
			if kind != prediction.KindSession && kind != prediction.KindRace {
				return fmt.Errorf("kind must be %q or %q", prediction.KindSession, prediction.KindRace)
			}
			return runRecompute(cmd, opts, kind, sessionID)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", string(prediction.KindRace), "prediction kind to rescore (session|race)")

	return cmd
}

func runRecompute(cmd *cobra.Command, opts *RecomputeOptions, kind prediction.Kind, sessionID int) error {
	sess, _, err := startSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Stop()

	claims, ok := sess.Tokens().Claims()
	if !ok {
		return errors.New("not logged in, run `prode login` first")
	}
	if !claims.Admin() {
		return errors.New("recompute needs an admin credential")
	}

	msg, err := sess.Recompute(cmd.Context(), kind, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)

	if snap := sess.Cache().Current(); snap.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "your season score: %s\n",
			strconv.FormatFloat(snap.Score, 'f', -1, 64))
	}
	return nil
}
