package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/guildtracker/internal/api"
	"github.com/mcoot/guildtracker/internal/dependencies/clock"
	"github.com/mcoot/guildtracker/internal/gameclient"
	"github.com/mcoot/guildtracker/internal/services/auth"
	"github.com/mcoot/guildtracker/internal/services/roster"
	"github.com/mcoot/guildtracker/internal/services/tracker"
	"github.com/mcoot/guildtracker/internal/services/world"
	"github.com/mcoot/guildtracker/internal/storage"
	"github.com/mcoot/guildtracker/internal/storage/csvfile"
	"github.com/mcoot/guildtracker/internal/storage/memory"
	redisstorage "github.com/mcoot/guildtracker/internal/storage/redis"
	"github.com/mcoot/guildtracker/internal/storage/sqlstore"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeCSV      = "csv"
	StorageTypeRedis    = "redis"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// StorageTypes lists the accepted StorageType values
var StorageTypes = []string{StorageTypeMemory, StorageTypeCSV, StorageTypeRedis, StorageTypeSQLite, StorageTypePostgres}

// App contains the wired components of the tracker CLI
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Client *gameclient.Client

	// Services
	RosterService  *roster.Service
	TrackerService *tracker.Service

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the history backend
	// If empty, defaults to "csv"
	StorageType string
	// DataPath is the CSV file or SQLite database path
	DataPath string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresDSN is the connection string (required if StorageType is "postgres")
	PostgresDSN string
	// GameClient configures the game service client
	// If BaseURL is empty, gameclient.DefaultConfig() is used
	GameClient gameclient.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	clientCfg := cfg.GameClient
	if clientCfg.BaseURL == "" {
		clientCfg = gameclient.DefaultConfig()
	}
	client := gameclient.New(clientCfg, logger)

	app := newWithDependencies(store, clock.New(), client, logger)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

// newStorage creates the history backend named by cfg.StorageType
func newStorage(ctx context.Context, cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeCSV
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeCSV:
		if cfg.DataPath == "" {
			return nil, nil, errors.New("DataPath required when StorageType is csv")
		}
		store, err := csvfile.New(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case StorageTypeSQLite:
		if cfg.DataPath == "" {
			return nil, nil, errors.New("DataPath required when StorageType is sqlite")
		}
		store, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case StorageTypePostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, errors.New("PostgresDSN required when StorageType is postgres")
		}
		store, err := sqlstore.Open(ctx, sqlstore.DialectPostgres, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be one of %v", storageType, StorageTypes)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, client *gameclient.Client, logger *slog.Logger) *App {
	return &App{
		Storage:        store,
		Clock:          clk,
		Client:         client,
		RosterService:  roster.New(client, logger),
		TrackerService: tracker.New(store, clk, logger),
	}
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// StubApp contains the wired components of the game service emulator
type StubApp struct {
	World       *world.World
	Clock       clock.Clock
	AuthService *auth.Service
	Handler     http.Handler
}

// StubConfig holds configuration for the emulator factory
type StubConfig struct {
	// WorldPath is the YAML world file to serve
	WorldPath string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// NewStub loads the world file and wires the emulator
func NewStub(cfg StubConfig) (*StubApp, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.WorldPath == "" {
		return nil, errors.New("WorldPath required")
	}
	w, err := world.Load(cfg.WorldPath, logger)
	if err != nil {
		return nil, err
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newStubWithDependencies(w, clock.New(), authCfg, logger), nil
}

// newStubWithDependencies creates a StubApp with the given dependencies (useful for testing)
func newStubWithDependencies(w *world.World, clk clock.Clock, authCfg auth.Config, logger *slog.Logger) *StubApp {
	authService := auth.New(w, clk, authCfg, logger)

	return &StubApp{
		World:       w,
		Clock:       clk,
		AuthService: authService,
		Handler: api.NewRouter(api.RouterConfig{
			Logger:      logger,
			AuthService: authService,
			Executor:    w,
		}),
	}
}
