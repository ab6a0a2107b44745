package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sweepCmd approves every pending verification whose review time has passed
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Approve all verifications that are due for review",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := a.Services.Verification.Sweep(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "approved %d verification(s)\n", n)
		return err
	},
}

// approveCmd approves one student regardless of the review time
var approveCmd = &cobra.Command{
	Use:   "approve <user-id>",
	Short: "Approve a submitted verification now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		changed, err := a.Services.Verification.Approve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s was already approved\n", args[0])
		}
		return nil
	},
}
