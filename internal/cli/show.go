package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/prode/internal/render"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show your prediction next to the actual results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("session id must be a number: %q", args[0])
			}
			return runShow(cmd, rootOpts, sessionID)
		},
	}
}

func runShow(cmd *cobra.Command, rootOpts *RootOptions, sessionID int) error {
	sess, cfg, err := startSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Stop()

	claims, ok := sess.Tokens().Claims()
	if !ok {
		return errors.New("not logged in, run `prode login` first")
	}

	ctx := cmd.Context()
	event, err := sess.API().FetchSession(ctx, sessionID)
	if err != nil {
		return err
	}
	pred, err := sess.API().FetchExisting(ctx, claims.UserID, sessionID)
	if err != nil {
		return err
	}
	if pred == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "no prediction for session %d\n", sessionID)
		return nil
	}
	roster, err := sess.API().FetchDrivers(ctx)
	if err != nil {
		return err
	}
	limit := cfg.TopN
	if n := pred.Kind.PickCount(); n > limit {
		limit = n
	}
	results, err := sess.API().FetchTopResults(ctx, sessionID, limit)
	if err != nil {
		return err
	}

	return render.Composition(cmd.OutOrStdout(), event, pred, roster, results)
}
