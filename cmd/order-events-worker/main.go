package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/brail/marketplace/internal/config"
	"github.com/brail/marketplace/internal/pkg/events"
	"github.com/brail/marketplace/internal/pkg/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.InitLogger("order-events-worker", cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("order events worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, "order-events-worker", cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	return consume(ctx, cfg)
}

// consume runs the workers until ctx is done.
func consume(ctx context.Context, cfg *config.Config) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := events.DeclareQueue(ch, cfg.OrderEventsQueue); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare queue %s: %w", cfg.OrderEventsQueue, err)
	}
	_ = ch.Close()

	tracker := events.NewOrderTracker()
	handle := func(ctx context.Context, event events.OrderEvent) error {
		tracker.Record(event)
		slog.InfoContext(ctx, "order event",
			"type", event.Type,
			"order_id", event.OrderID,
			"status", event.Status,
			"previous_status", event.PreviousStatus,
		)
		return nil
	}

	var (
		wg      sync.WaitGroup
		workers []*events.Worker
	)
	for i := 1; i <= cfg.WorkerCount; i++ {
		w, err := events.NewWorker(i, conn, cfg.OrderEventsQueue, handle)
		if err != nil {
			slog.Error("failed to start worker", "worker", i, "error", err)
			continue
		}
		workers = append(workers, w)
		wg.Add(1)
		go w.Start(&wg)
	}
	if len(workers) == 0 {
		return errors.New("no worker could start")
	}
	slog.Info("order events worker running", "workers", len(workers), "queue", cfg.OrderEventsQueue)

	<-ctx.Done()
	slog.Info("shutting down workers")
	for _, w := range workers {
		w.Stop()
	}
	wg.Wait()
	tracker.LogSummary()
	return nil
}
