package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Geocoder converts a free-text query into coordinates. It is the only
// component of the resolution pipeline that costs money.
//
// Implementations make a single attempt per call and report failures as
// *GeocodeError so callers can tell "no result" apart from "call failed".
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Geo, error)
}

// ErrorKind classifies geocoding failures.
type ErrorKind int

const (
	// ErrorKindNetwork covers transport failures, timeouts and upstream 5xx.
	ErrorKindNetwork ErrorKind = iota
	// ErrorKindNotFound means the provider answered but had no match.
	ErrorKindNotFound
	// ErrorKindRateLimited means the provider throttled the request.
	ErrorKindRateLimited
	// ErrorKindInvalidKey means the credentials were rejected.
	ErrorKindInvalidKey
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNetwork:
		return "network"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindRateLimited:
		return "rate_limited"
	case ErrorKindInvalidKey:
		return "invalid_key"
	default:
		return "unknown"
	}
}

// GeocodeError is returned by Geocoder implementations.
type GeocodeError struct {
	Kind  ErrorKind
	Query string
	Err   error
}

// NewGeocodeError builds a GeocodeError of the given kind.
func NewGeocodeError(kind ErrorKind, query string, err error) *GeocodeError {
	return &GeocodeError{Kind: kind, Query: query, Err: err}
}

func (e *GeocodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocode %q: %s: %v", e.Query, e.Kind, e.Err)
	}
	return fmt.Sprintf("geocode %q: %s", e.Query, e.Kind)
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind of err. Errors that are not a *GeocodeError
// (context cancellation, programming errors) are reported as network failures.
func KindOf(err error) ErrorKind {
	var geoErr *GeocodeError
	if errors.As(err, &geoErr) {
		return geoErr.Kind
	}
	return ErrorKindNetwork
}

// IsNotFound reports whether err is a "no result" answer from the provider.
func IsNotFound(err error) bool {
	var geoErr *GeocodeError
	return errors.As(err, &geoErr) && geoErr.Kind == ErrorKindNotFound
}

// IsPermanent reports whether retrying the same query later in the session
// would give the same answer. NotFound and InvalidKey are permanent; network
// failures and throttling are not.
func IsPermanent(err error) bool {
	var geoErr *GeocodeError
	if !errors.As(err, &geoErr) {
		return false
	}
	return geoErr.Kind == ErrorKindNotFound || geoErr.Kind == ErrorKindInvalidKey
}

// KindForStatus classifies a non-200 provider HTTP status.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return ErrorKindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorKindInvalidKey
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return ErrorKindNotFound
	default:
		return ErrorKindNetwork
	}
}
