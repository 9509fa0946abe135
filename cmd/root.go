package cmd

import (
	"fmt"
	"os"

	"DanceDeck/config"
	"DanceDeck/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dancedeck",
	Short: "DanceDeck is a beat-synced loop practice engine for dance videos.",
	// 不带子命令时直接启动服务
	RunE: runServer,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, then starts the logger. quiet
// keeps log lines off stdout while a terminal UI owns the screen.
func loadConfig(quiet bool) *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
		Quiet:      quiet,
	})
	return cfg
}
