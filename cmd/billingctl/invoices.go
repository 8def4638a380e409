package main

import (
	"errors"
	"fmt"

	"go-pos-billing/internal/document"

	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Invoice maintenance",
}

var materializeCmd = &cobra.Command{
	Use:   "materialize-overdue",
	Short: "Store Overdue on every unpaid invoice past its due date",
	Long: `Status is always derived on read, so this only matters to consumers that
read the invoices table directly. Run it from cron once a day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := svc.billing.MaterializeOverdue(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", n)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Print an invoice as a plain-text receipt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := svc.billing.GetByNumber(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := svc.documents.Compose(cmd.Context(), inv.ID)
		if err != nil {
			return err
		}
		return document.PlainText(cmd.OutOrStdout(), doc)
	},
}

var voidCmd = &cobra.Command{
	Use:     "void <number>",
	Short:   "Void an invoice and return its stock",
	Example: `  billingctl invoices void INV-1001 --reason "duplicate sale"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			return errors.New("--reason is required")
		}
		inv, err := svc.billing.GetByNumber(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		voided, err := svc.billing.Void(cmd.Context(), inv.ID, actor, reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", voided.Number, voided.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(materializeCmd, showCmd, voidCmd)

	voidCmd.Flags().String("reason", "", "Why the invoice is being voided")
}
