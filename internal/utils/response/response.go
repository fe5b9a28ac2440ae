// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Success responses may use any JSON shape. Error responses always use the
// Response envelope so API consumers know what failures look like.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Response is the standard envelope returned for error cases:
//
//	{ "status": "error", "error": "field name is required" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Header() must be set before WriteHeader(); once the status line is
// written, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// NoContent writes a 204 with an empty body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Message builds an error Response from a fixed message.
func Message(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

// fieldPath drops the root struct name from a validator namespace, so
// "NewStudent.address.city" becomes "address.city".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// ValidationError converts validator.FieldError values into a single
// human-readable Response:
//
//	{ "status": "error", "error": "field name is required, field age is required" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", fieldPath(e)))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", fieldPath(e)))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// FieldErrors converts a domain validation error into a Response.
func FieldErrors(err *types.ValidationError) Response {
	return Response{Status: StatusError, Error: err.Error()}
}
