package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/document"
	"go-pos-billing/internal/reports"
	"go-pos-billing/internal/settings"
	"go-pos-billing/internal/stockledger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// services is built once per invocation by the root command.
type services struct {
	log       *logrus.Logger
	store     *database.Store
	settings  *settings.Service
	catalog   *catalog.Service
	ledger    *stockledger.Ledger
	billing   *billing.Engine
	reports   *reports.Service
	documents *document.Composer
}

var (
	svc   *services
	actor string
)

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Operator tools for the inventory and billing store",
	Long: `billingctl opens the same database as the server (DB_DRIVER, DB_PATH,
DB_DSN from the environment or .env) and runs maintenance and reporting
tasks against it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logg := config.NewLogger(cfg)
		logg.SetOutput(os.Stderr)
		for _, w := range cfg.Warnings() {
			logg.Warn(w)
		}

		store, err := database.Open(cmd.Context(), database.OptionsFromConfig(cfg), logg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		cfgSvc := settings.New(store, logg)
		engine := billing.New(store, cfgSvc, logg)
		svc = &services{
			log:       logg,
			store:     store,
			settings:  cfgSvc,
			catalog:   catalog.New(store, cfgSvc, logg),
			ledger:    stockledger.New(store, logg),
			billing:   engine,
			reports:   reports.New(store, cfgSvc, logg),
			documents: document.New(store, cfgSvc, engine, logg),
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		return svc.store.Close()
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "billingctl", "Name recorded as the author of every change")
}

// printJSON writes v indented to stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output opens path for writing, or returns stdout when path is empty or "-".
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
