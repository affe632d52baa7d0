// Package router wires the HTTP surface: dashboard API, auth, the chatbot
// webhook, and operational endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicops/clinic-crm/internal/clinic"
	httpmiddleware "github.com/clinicops/clinic-crm/internal/http/middleware"
	"github.com/clinicops/clinic-crm/internal/ingest"
	"github.com/clinicops/clinic-crm/internal/records"
	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	RecordsHandler     *records.Handler
	ClinicHandler      *clinic.Handler
	IngestHandler      *ingest.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ClinicHandler != nil {
		r.Post("/api/auth/login", cfg.ClinicHandler.Login)
		r.Post("/api/auth/signup", cfg.ClinicHandler.Signup)
		r.Get("/api/clinic-config/{clinicID}", cfg.ClinicHandler.Config)
	}

	if cfg.RecordsHandler != nil {
		r.Route("/api/patients", func(api chi.Router) {
			api.Use(withClinicID)
			api.Get("/", cfg.RecordsHandler.List)
			api.Post("/", cfg.RecordsHandler.Create)
			api.Get("/export", cfg.RecordsHandler.Export)
			api.Put("/{id}", cfg.RecordsHandler.Update)
			api.Delete("/{id}", cfg.RecordsHandler.Delete)
		})
	}

	if cfg.IngestHandler != nil {
		r.Post("/webhooks/whatsapp/appointments", cfg.IngestHandler.Accept)
	}

	return r
}
