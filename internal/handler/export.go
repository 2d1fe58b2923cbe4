package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkordes/eld-logbook/internal/domain"
	"github.com/pkordes/eld-logbook/internal/export"
)

// ExportLogs handles GET /trips/{tripId}/logs/export?format=csv|pdf|json.
// The file is rendered into memory first so a rendering failure still
// produces a proper error response instead of a truncated download.
func (s *Server) ExportLogs(w http.ResponseWriter, r *http.Request) {
	id, err := tripIDParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}
	raw, err := formatParam(r)
	if err != nil {
		writeParamError(w, err)
		return
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}

	segs, err := s.logs.ListByTrip(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, format, id, segs); err != nil {
		s.writeError(w, r, fmt.Errorf("handler.ExportLogs: %w", err), tripNotFound)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(id)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func render(buf *bytes.Buffer, format export.Format, tripID int64, segs []domain.ActivitySegment) error {
	switch format {
	case export.PDF:
		return export.WritePDF(buf, fmt.Sprintf("Trip %d ELD Log", tripID), segs)
	case export.JSON:
		return json.NewEncoder(buf).Encode(segmentsToResponse(segs))
	default:
		return export.WriteCSV(buf, segs)
	}
}
