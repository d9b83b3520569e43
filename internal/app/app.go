package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/a-marczewski/upcheck/internal/checker"
	"github.com/a-marczewski/upcheck/internal/config"
	"github.com/a-marczewski/upcheck/internal/descriptor"
	"github.com/a-marczewski/upcheck/internal/history"
	"github.com/a-marczewski/upcheck/internal/logging"
	"go.uber.org/zap"
)

// App bundles the wired-up components behind the CLI commands.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	History *history.Store
	Checker *checker.Checker
}

// NewApp loads configuration, initializes the logger and history store, and
// wires a Checker whose completed outcome is appended to the history.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := history.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open history database", zap.Error(err))
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	format, err := descriptor.ParseFormat(cfg.Format)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := descriptor.NewClient(cfg.FetchTimeout())
	chk := checker.New(checker.Config{
		DescriptorURL: cfg.DescriptorURL,
		Format:        format,
		LocalVersion:  cfg.LocalVersion,
		AppName:       cfg.AppName,
		DownloadURL:   cfg.DownloadURL,
		Permission:    cfg.Permission,
		MessageHeader: cfg.MessageHeader,
	}, client, logger, func(out checker.Outcome, checkErr error) {
		rec := history.Record{
			CheckedAt:       time.Now(),
			LocalVersion:    cfg.LocalVersion,
			RemoteVersion:   out.RemoteVersion,
			UpdateAvailable: out.State == checker.StateUpdateAvailable,
		}
		if checkErr != nil {
			rec.Error = checkErr.Error()
		}
		if err := store.Append(rec); err != nil {
			logger.Warn("Failed to record check outcome", zap.Error(err))
		}
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		History: store,
		Checker: chk,
	}, nil
}

// Close gracefully shuts down the application resources.
func (a *App) Close() {
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.Error("Failed to close history database", zap.Error(err))
		}
	}
	if a.Logger != nil {
		if err := a.Logger.Sync(); err != nil {
			// Syncing stderr is not supported on every platform; only surface
			// unexpected failures.
			if !strings.Contains(err.Error(), "invalid argument") &&
				!strings.Contains(err.Error(), "inappropriate ioctl for device") {
				fmt.Fprintf(os.Stderr, "Error syncing logger: %v\n", err)
			}
		}
	}
}

// ContextWithLogger returns a new context carrying the application's logger.
func (a *App) ContextWithLogger(ctx context.Context) context.Context {
	return logging.ContextWithLogger(ctx, a.Logger)
}
