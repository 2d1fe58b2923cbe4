// Package handler implements the HTTP handlers for the ELD Logbook API.
// All handlers are methods on Server. They are split into domain-specific
// files (health.go, trip.go, log.go) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id int64) (domain.Trip, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Delete(ctx context.Context, id int64) error
	RoutePoints(ctx context.Context, id int64) ([]domain.Coordinates, error)
}

// LogServicer defines the activity-log operations the log handlers depend on.
type LogServicer interface {
	Generate(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error)
	ListByTrip(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips   TripServicer
	logs    LogServicer
	logger  *slog.Logger
	openAPI []byte
}

// NewServer constructs the Server with all its dependencies.
// openAPI is the document served at /openapi.yaml; nil disables the route.
func NewServer(trips TripServicer, logs LogServicer, logger *slog.Logger, openAPI []byte) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{trips: trips, logs: logs, logger: logger, openAPI: openAPI}
}

// Routes returns a router serving every API endpoint. Cross-cutting
// middleware (request IDs, logging, CORS) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)

		r.Route("/{tripId}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Delete("/", s.DeleteTrip)
			r.Get("/route", s.GetTripRoute)

			r.Post("/logs", s.GenerateLogs)
			r.Get("/logs", s.ListLogs)
			r.Get("/logs/export", s.ExportLogs)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", r.Method+" is not allowed here"))
	})
	return r
}
