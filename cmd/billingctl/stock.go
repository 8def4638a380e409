package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Check the cached item quantities against the stock ledger",
}

var stockVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report items whose quantity disagrees with the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := svc.ledger.Verify(cmd.Context())
		if len(found) > 0 {
			if perr := printJSON(cmd, found); perr != nil {
				return perr
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "stock ledger is consistent")
		return nil
	},
}

var stockRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reset every item quantity to its ledger balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixed, err := svc.ledger.Rebuild(cmd.Context(), actor)
		if err != nil {
			return err
		}
		return printJSON(cmd, fixed)
	},
}

func init() {
	rootCmd.AddCommand(stockCmd)
	stockCmd.AddCommand(stockVerifyCmd, stockRebuildCmd)
}
