/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the hotel front-desk billing server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, frontdesk.yaml, FRONTDESK_* env, flags)
  2. Build the logger
  3. Open the store (SQLite file or in-memory)
  4. Wire metrics and, if configured, the Kafka event producer
  5. Seed a demo scenario into an empty store
  6. Start the reconciliation sweep and the HTTP server

COMMAND-LINE FLAGS:
  -config  Config file (default: ./frontdesk.yaml if present)
  -port    HTTP server port, overrides http.port
  -db      SQLite database path, overrides db.path
           Use ":memory:" for an in-memory SQLite database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep, flush events, close the database
  4. Exit

EXAMPLES:
  ./server -db="./data/hotel.db"
  FRONTDESK_KAFKA_BROKERS=localhost:9092 ./server

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/frontdesk/api"
	"github.com/warp/frontdesk/billing"
	"github.com/warp/frontdesk/billing/store"
	"github.com/warp/frontdesk/config"
	"github.com/warp/frontdesk/events"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/logger"
	"github.com/warp/frontdesk/metrics"
	"github.com/warp/frontdesk/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "frontdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configFile := flag.String("config", "", "Config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides http.port)")
	dbPath := flag.String("db", "", "SQLite database path (overrides db.path)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Store
	var txStore billing.TxStore
	if cfg.DB.Path == "" {
		txStore = store.NewMemory()
		log.Info("using in-memory store")
	} else {
		sq, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer sq.Close()
		txStore = sq
		log.Info("using sqlite store", zap.String("path", cfg.DB.Path))
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []frontdesk.Option{
		frontdesk.WithLogger(log),
		frontdesk.WithRecorder(metrics.New(registry)),
	}

	// Events
	if cfg.Kafka.Enabled() {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("failed to connect to kafka: %w", err)
		}
		defer producer.Close()
		opts = append(opts, frontdesk.WithPublisher(producer))
		log.Info("publishing events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	svc := frontdesk.NewService(txStore, opts...)

	if cfg.Seed.Demo {
		if err := seed(svc, txStore, cfg.Seed.Scenario, log); err != nil {
			return err
		}
	}

	// Reconciliation sweep
	scheduler := frontdesk.NewReconciliationScheduler(svc, log)
	scheduler.CheckInterval = cfg.Reconcile.Interval
	scheduler.Enabled = cfg.Reconcile.Interval > 0
	scheduler.Start()
	defer scheduler.Stop()

	// Router
	handler := api.NewHandler(svc, log, cfg.Auth.DefaultUser)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// seed loads the demo scenario when the store has no operators yet, so a
// persistent database is never wiped on restart.
func seed(svc *frontdesk.Service, s billing.Store, scenario string, log *zap.Logger) error {
	ctx := frontdesk.WithActor(context.Background(), frontdesk.SystemActor)
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect store: %w", err)
	}
	if len(users) > 0 {
		log.Info("store already populated, skipping demo seed")
		return nil
	}
	if err := svc.LoadScenario(ctx, scenario); err != nil {
		return fmt.Errorf("failed to seed scenario %s: %w", scenario, err)
	}
	log.Info("demo scenario loaded", zap.String("scenario", scenario))
	return nil
}
