package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"toolsnest/internal/config"
	"toolsnest/internal/services"
	"toolsnest/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Consume payment events and repair orders left unpaid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context())
		},
	}
}

// reconcileHandler adapts the reconcile service to broker deliveries.
// Malformed events are dropped rather than requeued forever.
func reconcileHandler(ctx context.Context, svc *services.ReconcileService) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		outcome, err := svc.HandleMessage(ctx, msg.Body)
		if errors.Is(err, services.ErrMalformedEvent) {
			slog.Warn("dropping malformed payment event", "delivery_tag", msg.DeliveryTag, "error", err)
			return nil
		}
		if err != nil {
			return err
		}
		slog.Info("payment event reconciled", "delivery_tag", msg.DeliveryTag, "outcome", outcome)
		return nil
	}
}

func runReconcile(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for reconcile")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- mq.Consume(reconcileHandler(ctx, services.NewReconcileService(store)))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-done:
		_ = mq.Close()
		return err
	case <-quit:
		slog.Info("stopping reconciler")
		cancel()
		if err := mq.Close(); err != nil {
			slog.Warn("error closing RabbitMQ client", "error", err)
		}
		return <-done
	}
}
