package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/podmate/internal/common"
)

// statusFor maps a service error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrNoSession),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidAPIKey), errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text shown to the user. Internal failures are not
// described.
func messageFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "Something went wrong. Please try again."
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": messageFor(err)})
}
