package cli

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goGate/verifier"
	"github.com/spf13/cobra"
)

func newEncodeCmd(*app) *cobra.Command {
	return &cobra.Command{
		Use:         "encode <code>",
		Short:       "Print the stored form of an access code",
		Long:        "Prints the obfuscated form of code as it would appear in the accepted-code\nlist. Codes must be Latin-1.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, ok := verifier.Obfuscate(args[0])
			if !ok {
				return errors.New("code contains characters outside Latin-1")
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}
