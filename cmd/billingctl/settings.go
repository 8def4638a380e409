package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or change engine settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := svc.settings.All(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return printJSON(cmd, rows)
		}
		for _, row := range rows {
			if row.Key == args[0] {
				fmt.Fprintln(cmd.OutOrStdout(), row.Value)
				return nil
			}
		}
		return fmt.Errorf("unknown setting %q", args[0])
	},
}

var settingsSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Validate and store a setting",
	Example: `  billingctl settings set default_tax_rate 0.075`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := svc.settings.Set(cmd.Context(), args[0], args[1], actor); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}
