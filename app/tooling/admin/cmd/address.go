package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
)

var addressCmd = &cobra.Command{
	Use:   "address <privatekey>",
	Short: "Print the addresses a private key controls",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "v2:", address.MakeV2(args[0]))
		fmt.Fprintln(cmd.OutOrStdout(), "v1:", address.MakeV1(args[0]))
	},
}

var allowV1 bool

var verifyCmd = &cobra.Command{
	Use:   "verify <privatekey> <address>",
	Short: "Check that a private key owns an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !address.Verify(args[0], args[1], allowV1) {
			return fmt.Errorf("private key does not own %s", args[1])
		}

		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&allowV1, "legacy", false, "Accept legacy addresses.")
}
