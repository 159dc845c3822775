// Package app wires configuration, storage, clients and services into the
// shared application core used by cmd/carteira-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dfarias/carteira/internal/clients/awesomefx"
	"github.com/dfarias/carteira/internal/clients/brapi"
	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/services/portfolio"
	"github.com/dfarias/carteira/internal/storage"
	"github.com/dfarias/carteira/internal/storage/memory"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.RecordStore
	Market      interfaces.MarketDataClient
	FX          interfaces.ExchangeRateClient
	Portfolio   interfaces.PortfolioService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, CARTEIRA_CONFIG, then binary
	// dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("CARTEIRA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "carteira.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/carteira.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	// Initialize storage; a failed persistent backend degrades to the
	// in-memory store so the API stays usable for the session.
	store, err := storage.NewRecordStore(logger, config)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("driver", config.Storage.Driver).
			Msg("storage initialization failed, falling back to in-memory store")
		store = memory.NewStore(logger)
	}

	// Initialize API clients
	marketClient := brapi.NewClient(config.Clients.Brapi.Token,
		brapi.WithBaseURL(config.Clients.Brapi.BaseURL),
		brapi.WithLogger(logger),
		brapi.WithRateLimit(config.Clients.Brapi.RateLimit),
		brapi.WithTimeout(config.Clients.Brapi.GetTimeout()),
	)

	fxClient := awesomefx.NewClient(
		awesomefx.WithBaseURL(config.Clients.FX.BaseURL),
		awesomefx.WithLogger(logger),
		awesomefx.WithTimeout(config.Clients.FX.GetTimeout()),
	)

	portfolioService := portfolio.NewService(store, marketClient, fxClient, logger,
		portfolio.WithStrictSell(config.Engine.StrictSell),
	)

	logger.Info().
		Str("environment", config.Environment).
		Str("storage", config.Storage.Driver).
		Dur("startup", time.Since(startupStart)).
		Msg("application initialized")

	return &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Market:      marketClient,
		FX:          fxClient,
		Portfolio:   portfolioService,
		StartupTime: time.Now(),
	}, nil
}

// Close releases storage resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
