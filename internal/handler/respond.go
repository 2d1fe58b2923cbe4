package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // the client may have gone away
}

// errBodyTooLarge is returned by decodeJSON when MaxBytesReader trips.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON decodes a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", err.Error()))
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
}
