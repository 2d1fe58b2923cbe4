// Package export renders a trip's activity log as a downloadable document.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// Format is a supported export encoding.
type Format string

const (
	CSV  Format = "csv"
	PDF  Format = "pdf"
	JSON Format = "json"
)

// ParseFormat validates a ?format= value. The empty string selects CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, PDF, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format must be one of csv, pdf, json", domain.ErrValidation)
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case JSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename is the attachment name for a trip's export.
func (f Format) Filename(tripID int64) string {
	return fmt.Sprintf("trip_%d_eld_logs.%s", tripID, f)
}

// TimeLayout formats segment timestamps in exported tables.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the column row shared by the CSV and PDF renderers.
var Header = []string{"Day", "Activity Type", "Start Time", "End Time", "Hours"}

// Row returns the table cells for one segment. Times are rendered in UTC.
func Row(s domain.ActivitySegment) []string {
	return []string{
		strconv.Itoa(s.Day),
		string(s.ActivityType),
		s.StartTime.UTC().Format(TimeLayout),
		s.EndTime.UTC().Format(TimeLayout),
		strconv.FormatFloat(s.Hours, 'f', -1, 64),
	}
}

// WriteCSV writes the header and one row per segment.
func WriteCSV(w io.Writer, segments []domain.ActivitySegment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	for _, s := range segments {
		if err := cw.Write(Row(s)); err != nil {
			return fmt.Errorf("export.WriteCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	return nil
}
