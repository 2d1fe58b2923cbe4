package handler

import "net/http"

// GenerateLogs handles POST /trips/{tripId}/logs.
// Each call appends a new run; earlier runs are kept.
func (s *Server) GenerateLogs(w http.ResponseWriter, r *http.Request) {
	id, err := tripIDParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}

	segs, err := s.logs.Generate(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, segmentsToResponse(segs))
}

// ListLogs handles GET /trips/{tripId}/logs.
func (s *Server) ListLogs(w http.ResponseWriter, r *http.Request) {
	id, err := tripIDParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}

	segs, err := s.logs.ListByTrip(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, segmentsToResponse(segs))
}
