package main

import (
	"os"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Export or import the item catalog as CSV",
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every item as CSV",
	Example: `  billingctl catalog export --out items.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		w, done, err := output(cmd, path)
		if err != nil {
			return err
		}
		if err := svc.catalog.Export(cmd.Context(), w); err != nil {
			_ = done()
			return err
		}
		return done()
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Create or update items from CSV; quantity changes go through the stock ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := svc.catalog.Import(cmd.Context(), f, actor)
		if err != nil {
			return err
		}
		svc.log.WithField("file", args[0]).Info("catalog imported")
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogExportCmd, catalogImportCmd)

	catalogExportCmd.Flags().String("out", "", "Output file (default: stdout)")
}
