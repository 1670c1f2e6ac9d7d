// Package main provides the healthradar CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/healthradar/cli"
	"github.com/richinex/healthradar/config"
)

var (
	// Global flags
	provider   string
	configPath string
	maxIter    int
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "healthradar",
		Short: "Answer public health questions from surveillance data",
		Long: `Answers natural-language questions about air quality, hospital capacity,
influenza activity and FDA recalls by letting a language model call a fixed set
of read-only queries against the surveillance store.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider ("+strings.Join(config.SupportedProviders(), ", ")+")")
	rootCmd.PersistentFlags().IntVarP(&maxIter, "max-iter", "m", 0, "Maximum reasoning iterations (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a healthradar.yaml config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(operationsCmd())
	rootCmd.AddCommand(initDBCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider:   provider,
		ConfigPath: configPath,
		MaxIter:    maxIter,
		Verbose:    verbose,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP service (POST /chat, GET /health, GET /metrics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Serve(cmd.Context(), options())
		},
	}
}

func askCmd() *cobra.Command {
	var scope cli.AskOptions

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print its sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(cmd.Context(), args[0], scope, options())
		},
	}

	cmd.Flags().StringVar(&scope.ZipCode, "zip", "", "ZIP code to scope the question to")
	cmd.Flags().IntVar(&scope.LookbackDays, "days", 0, "Lookback window in days")

	return cmd
}

func operationsCmd() *cobra.Command {
	var verboseOps bool

	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the retrieval operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.ListOperations(verboseOps)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verboseOps, "verbose", "V", false, "Show operation parameters")

	return cmd
}

func initDBCmd() *cobra.Command {
	var path string
	var demo bool

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create a SQLite surveillance store for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.InitDB(cmd.Context(), path, demo)
		},
	}

	cmd.Flags().StringVar(&path, "sqlite", ".healthradar/health.db", "SQLite database path")
	cmd.Flags().BoolVar(&demo, "demo", false, "Seed demo data ending today")

	return cmd
}
