package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"SignalEngine/internal/di"
	"SignalEngine/pkg/config"
)

var (
	configPath     string
	envPath        string
	analyzeTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "signal-engine",
	Short: "Crypto market signal engine",
	Long: `signal-engine fetches market data for crypto assets, classifies the
market regime, runs a set of technical strategies and serves the fused
analysis over HTTP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			log.Printf("warning: could not load %s: %v", envPath, err)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the refresher and the ticker stream",
	RunE:  runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL",
	Short: "Compute one analysis and print it as JSON",
	Example: `  signal-engine analyze BTC
  signal-engine analyze eth --config config/config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file loaded before the config")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Second, "deadline for the analysis")

	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	// One-shot runs neither stream nor publish.
	cfg.Providers.Stream = false
	cfg.Refresh.Enabled = false
	cfg.Kafka.Enabled = false

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()
	a, err := app.Analyze(ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
