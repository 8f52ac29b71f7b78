// Package httpapi exposes the HTTP surface of the campus fulfillment core.
package httpapi

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/mensahq/mensa/errs"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// WriteError maps a core error to its HTTP status and writes the payload.
func WriteError(w http.ResponseWriter, err error) {
	code := errs.CodeOf(err)
	status := statusFor(code)
	message := string(code)
	if message == "" {
		message = "internal_error"
	}
	WriteJSONError(w, status, message, err.Error())
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.CodeInvalid:
		return http.StatusBadRequest
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeOutOfStock, errs.CodeInvalidState:
		return http.StatusConflict
	case errs.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case errs.CodePermission:
		return http.StatusForbidden
	case errs.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
