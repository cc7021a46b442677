package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/app"
	"github.com/kapu/video-qa-client/internal/config"
	"github.com/kapu/video-qa-client/internal/terminal"
	"github.com/kapu/video-qa-client/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the REPL; logs go to the configured file or stderr
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	container, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble client", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer container.Close()

	session, err := container.NewSession()
	if err != nil {
		logger.Error("Failed to start session", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Video Q&A terminal client started", zap.String("session", session.ID()))

	if err := terminal.New(session, os.Stdin, os.Stdout, logger).Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Terminal client stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Video Q&A terminal client stopped")
}
