package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/prode/internal/domain/prediction"
	"github.com/okian/prode/internal/form"
)

// PredictOptions holds flags shared by the predict subcommands.
type PredictOptions struct {
	*RootOptions
	Picks []int
	VSC   bool
	SC    bool
	DNF   int
}

// NewPredictCommand creates the predict command and its variant subcommands.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Submit a prediction for a session",
	}
	cmd.AddCommand(newPredictVariant(rootOpts, prediction.KindSession))
	cmd.AddCommand(newPredictVariant(rootOpts, prediction.KindRace))
	return cmd
}

func newPredictVariant(rootOpts *RootOptions, kind prediction.Kind) *cobra.Command {
	opts := &PredictOptions{RootOptions: rootOpts}
	picks := kind.PickCount()

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <session-id>", kind),
		Short: fmt.Sprintf("Submit the %d-pick %s prediction", picks, kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("session id must be a number: %q", args[0])
			}
			return runPredict(cmd, opts, kind, sessionID)
		},
	}

	opts.Picks = make([]int, picks)
	for i := range opts.Picks {
		cmd.Flags().IntVar(&opts.Picks[i], fmt.Sprintf("p%d", i+1), 0,
			fmt.Sprintf("driver id predicted at position %d", i+1))
		_ = cmd.MarkFlagRequired(fmt.Sprintf("p%d", i+1))
	}
	if kind == prediction.KindRace {
		cmd.Flags().BoolVar(&opts.VSC, "vsc", false, "predict a virtual safety car")
		cmd.Flags().BoolVar(&opts.SC, "sc", false, "predict a safety car")
		cmd.Flags().IntVar(&opts.DNF, "dnf", 0, "predicted number of DNFs")
	}

	return cmd
}

func runPredict(cmd *cobra.Command, opts *PredictOptions, kind prediction.Kind, sessionID int) error {
	sess, _, err := startSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Stop()

	if _, ok := sess.Tokens().Claims(); !ok {
		return errors.New("not logged in, run `prode login` first")
	}

	// Flag values the form would silently refuse are rejected up front:
	// Submit no-ops on an incomplete form and this command must not
	// report success for a prediction that never left the process.
	for i, driverID := range opts.Picks {
		if driverID <= 0 {
			return fmt.Errorf("--p%d needs a driver id, got %d", i+1, driverID)
		}
	}
	if kind == prediction.KindRace && opts.DNF < 0 {
		return fmt.Errorf("--dnf must be non-negative, got %d", opts.DNF)
	}

	ctx := cmd.Context()
	event, err := sess.API().FetchSession(ctx, sessionID)
	if err != nil {
		return err
	}

	f, w := sess.NewForm(event)
	if f.Kind() != kind {
		return fmt.Errorf("session %d takes a %s prediction, not %s", sessionID, f.Kind(), kind)
	}
	if err := f.Load(ctx); err != nil {
		return err
	}
	if w.Check(ctx) {
		return fmt.Errorf("session %d starts within the lock window, submissions are closed", sessionID)
	}

	for i, driverID := range opts.Picks {
		if err := f.SetPick(i+1, driverID); err != nil {
			return err
		}
	}
	if kind == prediction.KindRace {
		if err := f.SetVirtualSafetyCar(opts.VSC); err != nil {
			return err
		}
		if err := f.SetSafetyCar(opts.SC); err != nil {
			return err
		}
		if err := f.SetDNFCount(opts.DNF); err != nil {
			return err
		}
	}

	var submitErr error
	f.Submit(ctx,
		func(p *prediction.Prediction) {
			fmt.Fprintf(cmd.OutOrStdout(), "prediction saved for session %d\n", p.SessionID)
		},
		func(err error) { submitErr = err },
	)
	if submitErr != nil {
		return submitErr
	}
	if f.State() != form.StateSubmitted {
		return fmt.Errorf("prediction for session %d was not submitted", sessionID)
	}
	return nil
}
