package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/appolinair2355/damebot/internal/config"
	"github.com/appolinair2355/damebot/internal/engine"
	"github.com/appolinair2355/damebot/internal/gateway"
	"github.com/appolinair2355/damebot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "damebot",
	Short: "damebot - Dame (Q) prediction bot for Telegram card game channels",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot (transport polling + prediction engine + health server)",
	RunE:  runGateway,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Write the default config file and create the data directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show learner state and prediction statistics from persisted data",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(runCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token not set; run 'damebot onboard' or set BOT_TOKEN")
	}
	cfg.Telegram.Enabled = true

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gw, err := gateway.New(cfg, log)
	if err != nil {
		return err
	}
	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Data:   %s\n", cfg.DataDir)
	fmt.Println("Set telegram.token (or BOT_TOKEN) plus the source and prediction channel IDs, then run 'damebot run'.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.New(cfg.DataDir, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	eng := engine.New(engine.Options{
		PointsThreshold:     cfg.Engine.PointsThreshold,
		AbsenceThreshold:    cfg.Engine.AbsenceThreshold,
		HistoryWindow:       cfg.Engine.HistoryWindow,
		VerifyWindow:        cfg.Engine.VerifyWindow,
		SourceChannelID:     cfg.Engine.SourceChannelID,
		PredictionChannelID: cfg.Engine.PredictionChannelID,
	}, st, zap.NewNop())

	inter := eng.InterStatusSnapshot()
	stats := eng.StatsSnapshot()

	fmt.Printf("Source channel:     %d\n", eng.SourceChannel())
	fmt.Printf("Prediction channel: %d\n", eng.PredictionChannel())
	fmt.Printf("INTER active:       %v (%d entries, %d rules)\n", inter.Active, inter.Entries, len(inter.Rules))
	fmt.Println()
	fmt.Println(stats.Summary())
	return nil
}
