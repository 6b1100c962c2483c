package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetlease/internal/amqp"
	"fleetlease/internal/cli"
	"fleetlease/internal/fleet"
	apphttp "fleetlease/internal/http"
	"fleetlease/internal/store"
	"fleetlease/internal/store/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	seed := cfg.GeneratorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	data := fleet.NewSeeded(seed, time.Now())

	var (
		registrar store.Registrar
		payments  store.PaymentRecorder
		snapshots store.SnapshotReader
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		defer repo.Close()
		if err := repo.SeedIfEmpty(context.Background(), data); err != nil {
			logger.Error("Failed to seed SQLite database", "error", err)
			os.Exit(1)
		}
		registrar, payments, snapshots = repo, repo, repo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		st := memory.New(data)
		registrar, payments, snapshots = st, st, st
		logger.Info("Initialized memory backend", "seed", seed,
			"vehicles", len(data.Vehicles),
			"lessees", len(data.Lessees),
			"payments", len(data.Payments))
	}

	// The event bus is optional: without it mutations still work, only the
	// reminder worker stays blind.
	var publisher apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, registrar, payments, snapshots, publisher)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fleetlease server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
