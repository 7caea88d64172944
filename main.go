package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/alerting"
	"github.com/resqhub/quakewatch-be/internal/api"
	"github.com/resqhub/quakewatch-be/internal/config"
	"github.com/resqhub/quakewatch-be/internal/database"
	"github.com/resqhub/quakewatch-be/internal/ingest"
	"github.com/resqhub/quakewatch-be/internal/logger"
	"github.com/resqhub/quakewatch-be/internal/monitoring"
	"github.com/resqhub/quakewatch-be/internal/observability"
	"github.com/resqhub/quakewatch-be/internal/services"
	"github.com/resqhub/quakewatch-be/internal/usgs"
	"github.com/resqhub/quakewatch-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	metrics := observability.NewMetrics()

	// Set up WebSocket Hub
	hub := websocket.NewHub(metrics)
	go hub.Run()

	// Set up services
	alertService := services.NewAlertService(db)
	preferenceService := services.NewPreferenceService(db)
	safetyService := services.NewSafetyGuideService(db)
	activityService := services.NewActivityService(db)

	// Set up the ingestion pipeline
	feedClient := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout)
	dispatcher := alerting.NewDispatcher(preferenceService, activityService, hub)
	pipeline := ingest.NewPipeline(feedClient, alertService, hub, dispatcher, activityService, metrics)

	// Set up and run the built-in feed poller
	var poller *monitoring.Poller
	if cfg.PollEnabled {
		poller, err = monitoring.NewPoller(pipeline, cfg.PollSchedule, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize poller")
		}
		go poller.Run()
	}

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(hub, cfg.StatsInterval)
	go statUpdater.Run()

	// Set up router
	router := api.NewRouter(hub, pipeline, alertService, preferenceService, safetyService, activityService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()
	if poller != nil {
		poller.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
