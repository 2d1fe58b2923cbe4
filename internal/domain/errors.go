package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing location, cycle hours out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUpstream is returned when an external collaborator (the routing
// provider) fails or answers with something unusable.
// Handlers should map this to HTTP 502 Bad Gateway.
var ErrUpstream = errors.New("upstream error")
