// Package http holds header and field names shared by the HTTP layers.
package http

// Canonical header names.
const (
	// HeaderRequestID carries request correlation in both directions.
	HeaderRequestID = "X-Request-ID"

	// HeaderCSRFToken is where scripts send the CSRF token.
	HeaderCSRFToken = "X-CSRFToken"
)

// Canonical form and JSON field names.
const (
	// FormFieldCSRFToken is the hidden form field holding the CSRF token.
	FormFieldCSRFToken = "csrfmiddlewaretoken"

	// JSONKeyRequestID is the JSON key for request correlation.
	JSONKeyRequestID = "requestId"
)
