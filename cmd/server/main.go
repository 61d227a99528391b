// The server binary is the long-lived surface: the JSON API and websocket
// feed, the vision worker pool, and the cron-scheduled re-ingestion loop.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blaze-intelligence/platform/internal/api"
	"github.com/blaze-intelligence/platform/internal/orchestrator"
	"github.com/blaze-intelligence/platform/internal/services"
	"github.com/blaze-intelligence/platform/internal/vision"
	"github.com/blaze-intelligence/platform/pkg/config"
	"github.com/blaze-intelligence/platform/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}
	log := logger.InitLogger("", cfg.IsDevelopment())

	orch, err := orchestrator.New(cfg, log, os.Stdout)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize orchestrator")
	}

	hub := api.NewHub(log)
	go hub.Run()

	server := &api.Server{
		Config: cfg,
		Store:  orch.Store(),
		Cache:  orch.Cache(),
		Hub:    hub,
		Logger: log,
	}

	// Scheduled re-ingestion. Runs use fixtures unless LIVE_FETCH=1.
	interval, err := time.ParseDuration(cfg.IngestInterval)
	if err != nil {
		log.WithError(err).Warn("Invalid INGEST_INTERVAL, defaulting to 2h")
		interval = 2 * time.Hour
	}
	scheduler := services.NewScheduler(interval, func(ctx context.Context) error {
		report, err := orch.Run(ctx, orchestrator.Options{Live: cfg.LiveFetch == "1"})
		if err != nil {
			return err
		}
		server.BroadcastReadiness()
		hub.Broadcast("run_completed", report)
		return nil
	}, log)
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	server.Scheduler = scheduler

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Vision pool: separate worker processes when a binary is configured,
	// in-process goroutines otherwise.
	var launcher vision.Launcher = &vision.InProcessLauncher{
		ModelPath: cfg.VisionModelPath,
		Logger:    log,
	}
	if cfg.VisionWorkerBinary != "" {
		launcher = &vision.ProcessLauncher{
			Binary:    cfg.VisionWorkerBinary,
			BasePort:  cfg.VisionBasePort,
			ModelPath: cfg.VisionModelPath,
			Logger:    log,
		}
	}
	dispatcher, err := vision.NewDispatcher(ctx, cfg.VisionWorkers, launcher, log)
	if err != nil {
		log.WithError(err).Warn("Vision pool unavailable")
	} else {
		server.Dispatcher = dispatcher
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}
	go func() {
		log.WithField("port", cfg.Port).Info("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	scheduler.Stop()
	if dispatcher != nil {
		dispatcher.Shutdown(shutdownCtx)
	}
	log.Info("Server stopped")
}
