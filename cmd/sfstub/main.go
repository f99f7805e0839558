package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/guildtracker/internal/api"
	"github.com/mcoot/guildtracker/internal/factory"
	"github.com/mcoot/guildtracker/internal/services/auth"
	"github.com/mcoot/guildtracker/internal/telemetry"
)

var (
	worldPath       string
	host            string
	port            int
	sessionDuration time.Duration
	cleanInterval   time.Duration
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cmd := &cobra.Command{
		Use:   "sfstub",
		Short: "Serve a game service emulator from a world file",
		Long: `sfstub serves the account login, command and health endpoints of the game
service from a YAML world file, for local runs and tests of guildtracker.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), logger)
		},
	}

	defaultPort, err := portFromEnv("SFSTUB_PORT", 8080)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cmd.Flags().StringVar(&worldPath, "world", getEnvOrDefault("SFSTUB_WORLD", "world.yaml"), "World file (env: SFSTUB_WORLD)")
	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("SFSTUB_HOST", ""), "Listen host (env: SFSTUB_HOST)")
	cmd.Flags().IntVar(&port, "port", defaultPort, "Listen port (env: SFSTUB_PORT)")
	cmd.Flags().DurationVar(&sessionDuration, "session-duration", auth.DefaultConfig().SessionDuration, "Session lifetime")
	cmd.Flags().DurationVar(&cleanInterval, "clean-interval", 10*time.Minute, "How often expired sessions are dropped")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, logger *slog.Logger) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	if cleanInterval <= 0 {
		return fmt.Errorf("clean interval must be positive, got %s", cleanInterval)
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, "sfstub", os.Getenv(telemetry.EndpointEnv), logger)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.WithoutCancel(ctx)) }()

	stub, err := factory.NewStub(factory.StubConfig{
		WorldPath:  worldPath,
		AuthConfig: auth.Config{SessionDuration: sessionDuration},
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create emulator", slog.String("error", err.Error()))
		return err
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = host
	serverConfig.Port = port
	server := api.NewServer(stub.Handler, serverConfig, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		ticker := time.NewTicker(cleanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := stub.AuthService.CleanExpiredSessions(); n > 0 {
					logger.Info("expired sessions removed", slog.Int("count", n))
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		return server.Shutdown(context.WithoutCancel(ctx))
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// portFromEnv reads a TCP port from key, or returns defaultPort when unset
func portFromEnv(key string, defaultPort int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(val)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s=%q is not a port number between 1 and 65535", key, val)
	}
	return port, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
