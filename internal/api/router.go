package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/resqhub/quakewatch-be/internal/api/handlers"
	"github.com/resqhub/quakewatch-be/internal/services"
	"github.com/resqhub/quakewatch-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	runner handlers.CycleRunner,
	alertService services.AlertServiceProvider,
	preferenceService services.PreferenceServiceProvider,
	safetyService services.SafetyGuideServiceProvider,
	activityService services.ActivityServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS per the upstream contract: any origin, the dashboard client's
	// standard headers.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize handlers
	ingestHandler := handlers.NewIngestHandler(runner)
	alertHandler := handlers.NewAlertHandler(alertService)
	preferenceHandler := handlers.NewPreferenceHandler(preferenceService)
	safetyHandler := handlers.NewSafetyHandler(safetyService)
	activityHandler := handlers.NewActivityHandler(activityService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connection endpoint
		r.Get("/ws", wsHandler.Serve)

		// External schedulers vary in the method they send, so the trigger
		// accepts any of them.
		r.HandleFunc("/ingest/run", ingestHandler.Run)

		r.Get("/alerts", alertHandler.GetRecent)
		r.Get("/safety-guides", safetyHandler.GetAll)
		r.Get("/activity", activityHandler.GetRecent)

		r.Route("/preferences/{userID}", func(r chi.Router) {
			r.Get("/", preferenceHandler.Get)
			r.Put("/", preferenceHandler.Upsert)
		})
	})

	return r
}
