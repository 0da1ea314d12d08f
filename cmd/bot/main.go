// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/bot"
	"github.com/rovshanmuradov/token-sniper/internal/config"
	"github.com/rovshanmuradov/token-sniper/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (json, yaml or toml)")
	dashboard := flag.Bool("dashboard", false, "show the terminal dashboard instead of console logs")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	logCfg.Development = cfg.Log.Development
	if cfg.DebugLogging {
		logCfg.Level = "debug"
	}
	if cfg.Log.MaxSizeMB > 0 {
		logCfg.MaxSizeMB = cfg.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups > 0 {
		logCfg.MaxBackups = cfg.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays > 0 {
		logCfg.MaxAgeDays = cfg.Log.MaxAgeDays
	}

	opts := bot.Options{Dashboard: *dashboard}
	if *dashboard {
		// The dashboard owns the terminal: no console output.
		logCfg.Console = false
		opts.LogTail = logger.NewLogBuffer(logger.DefaultBufferSize)
		logCfg.Tail = opts.LogTail
	}

	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	runner, err := bot.NewRunner(cfg, log, opts)
	if err != nil {
		log.Fatal("💥 Failed to initialize bot", zap.Error(err))
	}

	if err := runner.Run(context.Background()); err != nil {
		log.Error("Bot execution error", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}
