package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/guildtracker/internal/factory"
	"github.com/mcoot/guildtracker/internal/gameclient"
	redisstorage "github.com/mcoot/guildtracker/internal/storage/redis"
	"github.com/mcoot/guildtracker/internal/telemetry"
)

var (
	cfg    *Config
	logger *slog.Logger
	client *gameclient.Client
	app    *factory.App

	// cleanups run after the command finishes, whatever its outcome
	cleanups []func(context.Context) error
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()
	flags := DefaultConfig()
	flags.EnvFile = getEnvOrDefault(EnvEnvFile, flags.EnvFile)

	rootCmd := &cobra.Command{
		Use:   "guildtracker",
		Short: "Fetch and track guild member levels",
		Long: `guildtracker logs in to the game service, reads the guild roster of the
account's first character and prints every member's name and level as JSON.

It can also record the roster once a day and report who progressed the most
and least over recent days, and where each member is headed next week.

Credentials are read from SF_USERNAME and SF_PASSWORD, which may be set in
a .env file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(flags, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			cfg = resolved

			logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

			shutdown, err := telemetry.Setup(cmd.Context(), "guildtracker", os.Getenv(telemetry.EndpointEnv), logger)
			if err != nil {
				return err
			}
			cleanups = append(cleanups, shutdown)

			client = gameclient.New(cfg.gameClientConfig(), logger)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ServerURL, "server", flags.ServerURL, "Game service URL (env: "+EnvServer+")")
	pf.StringVar(&flags.StorageType, "storage", flags.StorageType, "History backend: memory, csv, redis, sqlite, postgres (env: "+EnvStorage+")")
	pf.StringVar(&flags.DataPath, "data", flags.DataPath, "CSV or SQLite history path (env: "+EnvData+")")
	pf.StringVar(&flags.RedisURL, "redis-url", flags.RedisURL, "Redis URL (env: "+EnvRedisURL+")")
	pf.StringVar(&flags.PostgresDSN, "postgres-dsn", flags.PostgresDSN, "Postgres connection string (env: "+EnvPostgresDSN+")")
	pf.StringVar(&flags.ConfigFile, "config", flags.ConfigFile, "YAML config file")
	pf.StringVar(&flags.EnvFile, "env-file", flags.EnvFile, "dotenv file to load (env: "+EnvEnvFile+")")
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text, json")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", flags.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newTrackCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newProjectCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// resolveConfig layers defaults, environment, config file and flags,
// each overriding the one before
func resolveConfig(flags *Config, changed func(string) bool) (*Config, error) {
	if err := loadEnvFile(flags.EnvFile, changed("env-file")); err != nil {
		return nil, err
	}

	c := DefaultConfig()
	c.applyEnv()

	if flags.ConfigFile != "" {
		if err := c.loadFile(flags.ConfigFile); err != nil {
			return nil, err
		}
	}

	override := func(name string, dst *string, val string) {
		if changed(name) {
			*dst = val
		}
	}
	override("server", &c.ServerURL, flags.ServerURL)
	override("storage", &c.StorageType, flags.StorageType)
	override("data", &c.DataPath, flags.DataPath)
	override("redis-url", &c.RedisURL, flags.RedisURL)
	override("postgres-dsn", &c.PostgresDSN, flags.PostgresDSN)

	c.ConfigFile = flags.ConfigFile
	c.EnvFile = flags.EnvFile
	c.Output = flags.Output
	c.Verbose = flags.Verbose

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newLogger writes text logs to w; stdout is kept for command output
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *Config) gameClientConfig() gameclient.Config {
	clientCfg := gameclient.DefaultConfig()
	clientCfg.BaseURL = c.ServerURL
	return clientCfg
}

func (c *Config) factoryConfig() factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: c.StorageType,
		DataPath:    c.DataPath,
		PostgresDSN: c.PostgresDSN,
		GameClient:  c.gameClientConfig(),
	}
	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// openApp wires the history backend on first use
func openApp(ctx context.Context) (*factory.App, error) {
	if app != nil {
		return app, nil
	}

	a, err := factory.New(ctx, cfg.factoryConfig())
	if err != nil {
		return nil, err
	}
	app = a
	cleanups = append(cleanups, func(context.Context) error {
		err := app.Close()
		app = nil
		return err
	})
	return app, nil
}

// run executes the command tree and then releases everything it opened
func run(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)

	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		errs = append(errs, cleanups[i](context.WithoutCancel(ctx)))
	}
	cleanups = nil

	if cerr := errors.Join(errs...); cerr != nil && logger != nil {
		logger.Warn("cleanup failed", slog.String("error", cerr.Error()))
	}
	return err
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, NewRootCmd())
	stop()
	if err != nil {
		os.Exit(1)
	}
}
