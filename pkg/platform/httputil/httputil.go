// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "xup/pkg/domain-errors"
)

// MaxBodyBytes caps request bodies decoded by DecodeJSON.
const MaxBodyBytes = 1 << 20

const genericInternalMessage = "an unexpected error occurred"

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to a status and a {error, message} body.
// Internal errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)

	body := map[string]string{"error": string(code)}
	if status >= http.StatusInternalServerError {
		body["message"] = genericInternalMessage
	} else {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["message"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidInput,
		dErrors.CodeInvariantViolation, dErrors.CodeInvalidCredential:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a bounded JSON body into dst. Unknown fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid json payload")
	}
	return nil
}
