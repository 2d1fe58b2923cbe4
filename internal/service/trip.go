// Package service contains the business logic for the ELD Logbook API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/eld-logbook/internal/domain"
	"github.com/pkordes/eld-logbook/internal/hos"
	"github.com/pkordes/eld-logbook/internal/repo"
	"github.com/pkordes/eld-logbook/internal/routing"
)

// Router measures the driving route through locations in order.
// *routing.Client satisfies it.
type Router interface {
	Route(ctx context.Context, locations ...string) (domain.Route, error)
}

// TripService implements business logic for Trip operations.
type TripService struct {
	repo   repo.TripRepo
	router Router // nil disables routing
	rules  hos.Rules
	logger *slog.Logger
}

// NewTripService constructs a TripService backed by the provided TripRepo.
// router may be nil, in which case trips are stored without route data.
func NewTripService(r repo.TripRepo, router Router, logger *slog.Logger) *TripService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripService{repo: r, router: router, rules: hos.DefaultRules(), logger: logger}
}

// Create validates a new trip, routes it when a router is configured, and
// persists it. A routing failure aborts creation.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.CurrentLocation = strings.TrimSpace(trip.CurrentLocation)
	trip.PickupLocation = strings.TrimSpace(trip.PickupLocation)
	trip.DropoffLocation = strings.TrimSpace(trip.DropoffLocation)

	if err := s.validate(trip); err != nil {
		return domain.Trip{}, err
	}

	// Route data is only ever derived, never accepted from the caller.
	trip.Distance, trip.EstimatedDuration, trip.FuelStops, trip.RouteGeometry = nil, nil, 0, ""

	if s.router != nil {
		route, err := s.router.Route(ctx, trip.CurrentLocation, trip.PickupLocation, trip.DropoffLocation)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: route: %w", err)
		}
		miles, hours := route.Miles(), route.Hours()
		trip.Distance = &miles
		trip.EstimatedDuration = &hours
		trip.FuelStops = route.FuelStops()
		trip.RouteGeometry = route.Geometry
	}

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	s.logger.InfoContext(ctx, "trip created",
		"trip_id", created.ID,
		"routed", created.Distance != nil,
		"fuel_stops", created.FuelStops,
	)
	return created, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return t, nil
}

// ListPaged returns one page of trips and the total count.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	return trips, total, nil
}

// Delete removes a trip and its logs.
func (s *TripService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// RoutePoints returns the decoded route geometry of a trip. Unrouted trips
// have no points.
func (s *TripService) RoutePoints(ctx context.Context, id int64) ([]domain.Coordinates, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.RoutePoints: %w", err)
	}
	pts, err := routing.DecodeGeometry(t.RouteGeometry)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.RoutePoints: %w", err)
	}
	return pts, nil
}

func (s *TripService) validate(t domain.Trip) error {
	switch {
	case t.CurrentLocation == "":
		return fmt.Errorf("%w: current location is required", domain.ErrValidation)
	case t.PickupLocation == "":
		return fmt.Errorf("%w: pickup location is required", domain.ErrValidation)
	case t.DropoffLocation == "":
		return fmt.Errorf("%w: dropoff location is required", domain.ErrValidation)
	}
	return s.rules.ValidateCycleHours(t.CurrentCycleUsed)
}
