package main

import (
	"fmt"
	"time"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/reports"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a report as JSON or write it as an Excel workbook",
	Long: `Windowed reports take --from and --to (YYYY-MM-DD, inclusive). A missing
--to is today and a missing --from is the first day of that month.

With --xlsx the report is written as a workbook instead of JSON.`,
	Example: `  billingctl report sales --from 2026-01-01 --to 2026-03-31
  billingctl report outstanding --xlsx outstanding.xlsx`,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.PersistentFlags().String("from", "", "First day of the period (YYYY-MM-DD)")
	reportCmd.PersistentFlags().String("to", "", "Last day of the period (YYYY-MM-DD)")
	reportCmd.PersistentFlags().String("xlsx", "", "Write an Excel workbook to this file")

	reportCmd.AddCommand(
		windowed("sales", "Sales by day or month", func(cmd *cobra.Command, p reports.Period) (any, []reports.Table, error) {
			res, err := svc.reports.Sales(cmd.Context(), p)
			if err != nil {
				return nil, nil, err
			}
			return res, []reports.Table{res.Table()}, nil
		}),
		windowed("customers", "Sales by customer", func(cmd *cobra.Command, p reports.Period) (any, []reports.Table, error) {
			res, err := svc.reports.CustomerSales(cmd.Context(), p)
			if err != nil {
				return nil, nil, err
			}
			return res, []reports.Table{res.Table()}, nil
		}),
		windowed("tax", "Tax collected by rate", func(cmd *cobra.Command, p reports.Period) (any, []reports.Table, error) {
			res, err := svc.reports.Tax(cmd.Context(), p)
			if err != nil {
				return nil, nil, err
			}
			return res, []reports.Table{res.Table()}, nil
		}),
		windowed("collection", "Payments received by method", func(cmd *cobra.Command, p reports.Period) (any, []reports.Table, error) {
			res, err := svc.reports.Collection(cmd.Context(), p)
			if err != nil {
				return nil, nil, err
			}
			return res, []reports.Table{res.Table(), svc.reports.PaymentsTable(cmd.Context(), p)}, nil
		}),
		windowed("movement", "Opening, in, out and closing stock per item", func(cmd *cobra.Command, p reports.Period) (any, []reports.Table, error) {
			rows, err := database.Collect(svc.reports.Movement(cmd.Context(), p))
			if err != nil {
				return nil, nil, err
			}
			return rows, []reports.Table{svc.reports.MovementTable(cmd.Context(), p)}, nil
		}),
		current("outstanding", "Money owed, aged into current, overdue and critical", func(cmd *cobra.Command) (any, []reports.Table, error) {
			summary, err := svc.reports.OutstandingSummary(cmd.Context())
			if err != nil {
				return nil, nil, err
			}
			rows, err := database.Collect(svc.reports.Outstanding(cmd.Context()))
			if err != nil {
				return nil, nil, err
			}
			return map[string]any{"summary": summary, "invoices": rows}, []reports.Table{svc.reports.OutstandingTable(cmd.Context())}, nil
		}),
		current("valuation", "Stock on hand at unit price", func(cmd *cobra.Command) (any, []reports.Table, error) {
			totals, err := svc.reports.ValuationTotals(cmd.Context())
			if err != nil {
				return nil, nil, err
			}
			return totals, []reports.Table{svc.reports.ValuationTable(cmd.Context())}, nil
		}),
	)
}

type windowedFunc func(cmd *cobra.Command, p reports.Period) (any, []reports.Table, error)

type currentFunc func(cmd *cobra.Command) (any, []reports.Table, error)

func windowed(use, short string, run windowedFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := periodFlags(cmd)
			if err != nil {
				return err
			}
			v, tables, err := run(cmd, p)
			if err != nil {
				return err
			}
			return emit(cmd, use, v, tables)
		},
	}
}

func current(use, short string, run currentFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, tables, err := run(cmd)
			if err != nil {
				return err
			}
			return emit(cmd, use, v, tables)
		},
	}
}

func periodFlags(cmd *cobra.Command) (reports.Period, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	to := svc.reports.Today()
	if toStr != "" {
		t, err := models.ParseDate(toStr)
		if err != nil {
			return reports.Period{}, fmt.Errorf("invalid --to date. Use YYYY-MM-DD: %w", err)
		}
		to = t
	}
	from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	if fromStr != "" {
		f, err := models.ParseDate(fromStr)
		if err != nil {
			return reports.Period{}, fmt.Errorf("invalid --from date. Use YYYY-MM-DD: %w", err)
		}
		from = f
	}
	return reports.NewPeriod(from, to)
}

func emit(cmd *cobra.Command, name string, v any, tables []reports.Table) error {
	path, _ := cmd.Flags().GetString("xlsx")
	if path == "" {
		return printJSON(cmd, v)
	}
	w, done, err := output(cmd, path)
	if err != nil {
		return err
	}
	if err := reports.WriteXLSX(w, tables...); err != nil {
		_ = done()
		return err
	}
	svc.log.WithFields(logrus.Fields{"report": name, "file": path}).Info("workbook written")
	return done()
}
