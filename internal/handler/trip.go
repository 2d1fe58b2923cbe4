package handler

import (
	"net/http"

	"github.com/pkordes/eld-logbook/internal/domain"
)

const tripNotFound = "trip not found"

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.CurrentCycleUsed == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("current_cycle_used is required"))
		return
	}

	trip, err := s.trips.Create(r.Context(), req.toDomain())
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	p, err := paginationParams(r)
	if err != nil {
		writeParamError(w, err)
		return
	}

	trips, total, err := s.trips.ListPaged(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}

	data := make([]TripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripListResponse{
		Data:       data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := tripIDParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// DeleteTrip handles DELETE /trips/{tripId}. The trip's logs go with it.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := tripIDParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}

	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTripRoute handles GET /trips/{tripId}/route.
// An unrouted trip answers with an empty point list.
func (s *Server) GetTripRoute(w http.ResponseWriter, r *http.Request) {
	id, err := tripIDParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}

	coords, err := s.trips.RoutePoints(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, RouteResponse{TripID: id, Points: routePoints(coords)})
}

func routePoints(coords []domain.Coordinates) []RoutePoint {
	out := make([]RoutePoint, len(coords))
	for i, c := range coords {
		out[i] = RoutePoint{Lat: c.Lat, Lon: c.Lon}
	}
	return out
}
