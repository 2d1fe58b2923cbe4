package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// TripRequest is the body of POST /trips. Route fields are computed by the
// server and are not accepted from the client.
type TripRequest struct {
	CurrentLocation  string   `json:"current_location"`
	PickupLocation   string   `json:"pickup_location"`
	DropoffLocation  string   `json:"dropoff_location"`
	CurrentCycleUsed *float64 `json:"current_cycle_used"`
}

// TripResponse is the JSON shape of a trip.
type TripResponse struct {
	ID                int64     `json:"id"`
	CurrentLocation   string    `json:"current_location"`
	PickupLocation    string    `json:"pickup_location"`
	DropoffLocation   string    `json:"dropoff_location"`
	CurrentCycleUsed  float64   `json:"current_cycle_used"`
	Distance          *float64  `json:"distance"`
	EstimatedDuration *float64  `json:"estimated_duration"`
	FuelStops         int       `json:"fuel_stops"`
	CreatedAt         time.Time `json:"created_at"`
}

// Pagination describes the current page of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TripListResponse is the body of GET /trips.
type TripListResponse struct {
	Data       []TripResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// RoutePoint is one decoded vertex of a trip's route.
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteResponse is the body of GET /trips/{tripId}/route.
type RouteResponse struct {
	TripID int64        `json:"trip_id"`
	Points []RoutePoint `json:"points"`
}

// SegmentResponse is the JSON shape of one activity log segment.
type SegmentResponse struct {
	ID           int64     `json:"id"`
	Trip         int64     `json:"trip"`
	RunID        uuid.UUID `json:"run_id"`
	Seq          int       `json:"seq"`
	Day          int       `json:"day"`
	ActivityType string    `json:"activity_type"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Location     *string   `json:"location"`
	Hours        float64   `json:"hours"`
}

func (req TripRequest) toDomain() domain.Trip {
	t := domain.Trip{
		CurrentLocation: req.CurrentLocation,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	}
	if req.CurrentCycleUsed != nil {
		t.CurrentCycleUsed = *req.CurrentCycleUsed
	}
	return t
}

func tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:                t.ID,
		CurrentLocation:   t.CurrentLocation,
		PickupLocation:    t.PickupLocation,
		DropoffLocation:   t.DropoffLocation,
		CurrentCycleUsed:  t.CurrentCycleUsed,
		Distance:          t.Distance,
		EstimatedDuration: t.EstimatedDuration,
		FuelStops:         t.FuelStops,
		CreatedAt:         t.CreatedAt,
	}
}

func segmentToResponse(s domain.ActivitySegment) SegmentResponse {
	return SegmentResponse{
		ID:           s.ID,
		Trip:         s.TripID,
		RunID:        s.RunID,
		Seq:          s.Seq,
		Day:          s.Day,
		ActivityType: string(s.ActivityType),
		StartTime:    s.StartTime.UTC(),
		EndTime:      s.EndTime.UTC(),
		Location:     s.Location,
		Hours:        s.Hours,
	}
}

func segmentsToResponse(segs []domain.ActivitySegment) []SegmentResponse {
	out := make([]SegmentResponse, len(segs))
	for i, s := range segs {
		out[i] = segmentToResponse(s)
	}
	return out
}
