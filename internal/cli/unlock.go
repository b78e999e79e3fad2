package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/countdown"
	"github.com/spf13/cobra"
)

// errInactive is returned when the code prompt goes unanswered.
var errInactive = errors.New("no code entered, leaving the gate")

type codeResult struct {
	code string
	err  error
}

func newUnlockCmd(a *app) *cobra.Command {
	var (
		featureName string
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Enter an access code for the local device",
		Long: "Prompts for an access code until the device is unlocked or locked out.\n" +
			"During a lockout a VIP code may still be entered; a wrong one is not counted.\n" +
			"With --wait the command shows the lockout countdown and prompts again\nonce it ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, err := goGate.ParseFeature(featureName)
			if err != nil {
				return err
			}

			rt, err := openRuntime(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			return a.runUnlock(a.deviceContext(cmd.Context()), rt.engine, feature, wait, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&featureName, "feature", string(goGate.FeatureProtected), "Feature being unlocked (PROFILE or PROMPT_GEN)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait out a lockout and prompt again")
	return cmd
}

func (a *app) runUnlock(ctx context.Context, engine *goGate.Engine, feature goGate.Feature, wait bool, out io.Writer) error {
	gate := a.cfg.Gate

	for {
		st, err := engine.State(ctx)
		if err != nil {
			return err
		}
		if st.Unlocked {
			fmt.Fprintln(out, "Device already unlocked.")
			return nil
		}

		prompt := fmt.Sprintf("Access code (%d attempts left): ", gate.MaxAttempts-st.Attempts)
		if st.Locked {
			fmt.Fprintf(out, "SECURITY LOCKOUT: try again in %s.\n", countdown.Format(st.Remaining))
			prompt = "VIP code (Enter to skip): "
		}

		code, err := a.promptWithTimeout(ctx, prompt, gate.InactivityTimeout)
		if err != nil {
			return err
		}

		res, err := engine.Submit(ctx, feature, code)
		if err != nil {
			return err
		}

		switch res.Status {
		case goGate.SubmitUnlocked:
			fmt.Fprintln(out, "Access granted.")
			return nil
		case goGate.SubmitDenied:
			fmt.Fprintln(out, "Access Denied: Invalid Security Code.")
			continue
		case goGate.SubmitOverrideDenied:
			fmt.Fprintln(out, "Invalid VIP Key.")
		case goGate.SubmitLockedOut:
			fmt.Fprintf(out, "SECURITY LOCKOUT: Too many failed attempts. Locked for %s.\n", countdown.Format(res.Remaining))
		case goGate.SubmitEmpty:
			if !st.Locked {
				fmt.Fprintln(out, "Please enter the code.")
				continue
			}
		}

		if !wait {
			return nil
		}
		if err := a.waitOutLockout(ctx, engine, out); err != nil {
			return err
		}
	}
}

// promptWithTimeout reads one code, giving up after d without input.
func (a *app) promptWithTimeout(ctx context.Context, prompt string, d time.Duration) (string, error) {
	results := make(chan codeResult, 1)
	// On timeout the reader stays blocked on the terminal. The buffered
	// channel lets it finish without a receiver, and the command exits right
	// after errInactive anyway.
	go func() {
		code, err := a.readCode(prompt)
		results <- codeResult{code: code, err: err}
	}()

	idle := make(chan struct{})
	stop := countdown.Inactivity(ctx, d, func() { close(idle) })
	defer stop()

	select {
	case r := <-results:
		return r.code, r.err
	case <-idle:
		return "", errInactive
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *app) waitOutLockout(ctx context.Context, engine *goGate.Engine, out io.Writer) error {
	var last goGate.State
	for st := range countdown.Watch(ctx, engine, a.cfg.Gate.CountdownInterval) {
		last = st
		if st.Locked {
			fmt.Fprintf(out, "\rLocked: %s ", countdown.Format(st.Remaining))
		}
	}
	fmt.Fprintln(out)
	if err := ctx.Err(); err != nil {
		return err
	}
	if last.Locked {
		// Watch stopped on a read error; surface it.
		_, err := engine.State(ctx)
		return err
	}
	return nil
}
