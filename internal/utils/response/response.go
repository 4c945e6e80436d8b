// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Consistent response shapes also make life easier for API consumers:
// errors always live under "error", and form errors always live under
// "fields", keyed by the same names the request body uses.
package response

import (
	"encoding/json"
	"net/http"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope.
//
// A success wraps its payload in "data":
//
//	{ "status": "ok", "data": { "id": "...", "reg_no": "R100", ... } }
//
// A general failure carries one message the client shows as a notice:
//
//	{ "status": "error", "error": "request body is empty" }
//
// A form failure carries one message per field, so the client can render
// each one next to its input:
//
//	{ "status": "error", "fields": { "email": "Email is required" } }
//
// omitempty drops the keys that do not apply, so each shape above is
// exactly what goes over the wire.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string            `json:"status"`           // "ok" or "error"
	Error  string            `json:"error,omitempty"`  // human-readable notice
	Fields map[string]string `json:"fields,omitempty"` // field name -> message
	Data   any               `json:"data,omitempty"`   // success payload
}

// Status string constants. Use these instead of raw string literals so
// a typo is caught by the compiler rather than silently sending "eroor".
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Parameters:
//
//	w      the http.ResponseWriter provided to every handler
//	status HTTP status code (e.g. http.StatusCreated = 201)
//	data   any Go value; it is JSON-encoded and written to the body
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	// Tell the client the body is JSON, not HTML or plain text.
	w.Header().Set("Content-Type", "application/json")

	// Write the status line before any body bytes.
	w.WriteHeader(status)

	// Stream straight into w; Encode appends a trailing newline, which
	// keeps curl output readable.
	return json.NewEncoder(w).Encode(data)
}

// OK wraps a success payload.
//
//	response.WriteJSON(w, http.StatusCreated, response.OK(student))
func OK(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// ─────────────────────────────────────────────────────────────────────────────
// GeneralError wraps any Go error into the standard shape. Use it for
// failures the client can only show as a generic notice (decode errors,
// a submission already in flight).
//
// Example usage:
//
//	response.WriteJSON(w, http.StatusBadRequest,
//	    response.GeneralError(err))
//
// ─────────────────────────────────────────────────────────────────────────────
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(), // .Error() returns the error message string
	}
}

// Message is GeneralError for a ready-made user-facing message, such as
// the alert shown when the store cannot be reached. Internal error text
// never reaches the client through this path.
func Message(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

// ─────────────────────────────────────────────────────────────────────────────
// FieldErrors reports errors the client renders next to individual fields.
//
// The map comes straight from the registration validator or from the
// duplicate and capacity checks, so the keys are the request's JSON names:
//
//	{ "status": "error", "fields": { "reg_no": "This registration number is already taken" } }
//
// ─────────────────────────────────────────────────────────────────────────────
func FieldErrors(fields map[string]string) Response {
	return Response{Status: StatusError, Fields: fields}
}
