package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget all gate state of the local device",
		Long:  "Removes attempts, any lockout, the unlocked flag, and the usage count.\nThe device starts over as if it had never used the gate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.Forget(a.deviceContext(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Gate state cleared.")
			return nil
		},
	}
}
