package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/app"
	"github.com/kapu/interview-teleprompter-go/internal/config"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

func main() {
	envFile := flag.StringP("env-file", "e", "", "env file to load before the environment")
	profileName := flag.StringP("profile", "p", "", "built-in candidate profile (startup, academic)")
	profileFile := flag.String("profile-file", "", "load the candidate profile from a YAML file")
	port := flag.Int("port", 0, "HTTP port")
	noCapture := flag.Bool("no-capture", false, "disable the microphone loop; typed questions only")
	flag.Parse()

	// Flags win over the environment and the env file.
	if *profileName != "" {
		os.Setenv("TELEPROMPTER_PROFILE", *profileName)
	}
	if *profileFile != "" {
		os.Setenv("TELEPROMPTER_PROFILE_FILE", *profileFile)
	}
	if *port != 0 {
		os.Setenv("SERVER_PORT", strconv.Itoa(*port))
	}
	if *noCapture {
		os.Setenv("CAPTURE_ENABLED", "false")
	}

	cfg, err := config.LoadFrom(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Interview teleprompter starting...",
		zap.String("profile", cfg.Profile.Name),
		zap.String("addr", cfg.Addr()),
		zap.Bool("capture", cfg.Capture.Enabled),
		zap.String("log_level", cfg.Logging.Level),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- container.Start(ctx)
	}()

	logger.Info("Teleprompter started, waiting for signals...")

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("Teleprompter error", zap.Error(err))
		}
	}

	logger.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
