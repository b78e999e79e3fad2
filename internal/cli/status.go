package cli

import (
	"encoding/json"
	"fmt"

	"github.com/MrEthical07/goGate/countdown"
	"github.com/MrEthical07/goGate/middleware"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the gate state of the local device",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := a.deviceContext(cmd.Context())
			st, err := rt.engine.State(ctx)
			if err != nil {
				return err
			}
			quota, err := rt.engine.CheckQuota(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(middleware.NewStateResponse(st))
			}

			fmt.Fprintf(out, "State:    %s\n", st.Phase())
			fmt.Fprintf(out, "Attempts: %d/%d\n", st.Attempts, a.cfg.Gate.MaxAttempts)
			if st.Locked {
				fmt.Fprintf(out, "Lockout:  %s remaining\n", countdown.Format(st.Remaining))
			}
			if quota.Unlimited {
				fmt.Fprintln(out, "Prompts:  unlimited")
			} else {
				fmt.Fprintf(out, "Prompts:  %d/%d used\n", quota.Used, quota.Limit)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the state as JSON")
	return cmd
}
