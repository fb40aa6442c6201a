package common

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrPersistence     = errors.New("persistence failure")
	ErrTransport       = errors.New("transport failure")
	ErrAlreadyInFlight = errors.New("already in flight")
)

// FailureKind names the class of an ingestion error for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrAlreadyInFlight):
		return "in_flight"
	}
	return "unknown"
}
