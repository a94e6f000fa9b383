package osm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoResults is returned when an upstream service answered successfully
// but had nothing for the query.
var ErrNoResults = errors.New("osm: no results")

// APIError represents a failure to obtain a usable answer from an upstream
// service: transport errors, timeouts, non-2xx statuses and server-side
// query aborts. It carries guidance to help users recover.
type APIError struct {
	Service     string // The API service name (e.g., "Nominatim", "Overpass")
	StatusCode  int    // HTTP status code, 0 when no response was received
	Message     string // Error message
	Recoverable bool   // Whether the error can be recovered from
	Guidance    string // Guidance for users on how to recover
	Err         error  // Underlying cause, if any
}

// Error implements the error interface and provides a formatted error message.
func (e *APIError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s API error (%d): %s. %s", e.Service, e.StatusCode, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// DecodeError reports a 2xx response whose body did not have the expected shape.
type DecodeError struct {
	Service string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s returned malformed data: %v", e.Service, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Common error guidance messages
const (
	GuidanceNominatimRateLimit = "Please try again in a few seconds."
	GuidanceNominatimTimeout   = "Check your internet connection and try again, or use a shorter address."
	GuidanceOverpassTimeout    = "Consider reducing the search radius."
	GuidanceOverpassRateLimit  = "The Overpass API is currently experiencing high load. Please try again in a minute."
	GuidanceOverpassMemory     = "The query requires too much memory. Try reducing the search radius."

	GuidanceGeneral      = "Please try again later or modify your request parameters."
	GuidanceNetworkError = "Check your internet connection and try again."
)

// NewAPIError creates a new APIError with appropriate guidance based on status code.
func NewAPIError(service string, statusCode int, message, guidance string) *APIError {
	if guidance == "" {
		switch statusCode {
		case 0:
			guidance = GuidanceNetworkError
		case http.StatusTooManyRequests:
			guidance = "Rate limit exceeded. Please try again in a few moments."
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			guidance = "The request timed out. Try reducing the search area or simplifying the query."
		case http.StatusBadRequest:
			guidance = "The request was invalid. Check your parameters and try again."
		case http.StatusInternalServerError:
			guidance = "The server encountered an error. This is likely temporary, please try again later."
		case http.StatusServiceUnavailable:
			guidance = "The service is temporarily unavailable. Please try again later."
		default:
			guidance = GuidanceGeneral
		}
	}

	return &APIError{
		Service:     service,
		StatusCode:  statusCode,
		Message:     message,
		Recoverable: statusCode != http.StatusBadRequest,
		Guidance:    guidance,
	}
}
