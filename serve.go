package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolsnest/internal/cache"
	"toolsnest/internal/config"
	"toolsnest/internal/gateway"
	"toolsnest/internal/repositories"
	"toolsnest/internal/server"
	"toolsnest/internal/services"
	"toolsnest/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	var accessLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), accessLog)
		},
	}
	cmd.Flags().BoolVar(&accessLog, "access-log", true, "log every request")
	return cmd
}

// openStore connects the configured document store. Failure here is a hard
// startup error.
func openStore(ctx context.Context, cfg *config.Config) (repositories.DocumentStore, error) {
	store, err := repositories.Open(ctx, cfg.StoreConfig())
	if err != nil {
		slog.Error("document store connection failed", "driver", cfg.StoreDriver, "error", err)
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	slog.Info("document store connected", "driver", cfg.StoreDriver)
	return store, nil
}

// buildDeps wires the optional collaborators. Cache and broker failures only
// disable the feature.
func buildDeps(cfg *config.Config, store repositories.DocumentStore) (server.Deps, func()) {
	deps := server.Deps{
		Store:    store,
		Tokens:   services.NewTokenService(cfg.AccessTokenSecret, cfg.TokenTTL),
		Gateway:  gateway.NewStripe(cfg.StripeSecretKey),
		Currency: cfg.PaymentCurrency,
		CacheTTL: cfg.CacheTTL,
	}
	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY is not set, payment intents will fail")
	}

	var closers []func()
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(cfg.RedisAddr, "toolsnest:")
		if err != nil {
			slog.Warn("product cache disabled", "error", err)
		} else {
			deps.Cache = client
			closers = append(closers, func() { _ = client.Close() })
		}
	}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			slog.Warn("payment events disabled", "error", err)
		} else {
			deps.Publisher = mq
			closers = append(closers, func() { _ = mq.Close() })
		}
	}

	return deps, func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}

func runServe(ctx context.Context, accessLog bool) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("error closing document store", "error", err)
		}
	}()

	deps, closeDeps := buildDeps(cfg, store)
	defer closeDeps()
	deps.AccessLog = accessLog

	app := server.NewApp(deps)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("app listening", "port", cfg.Port)
		listenErr <- app.Listen(cfg.ListenAddr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server gracefully stopped")
	return nil
}
