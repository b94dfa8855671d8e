package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrNoAdapter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, contracts.ErrDataUnavailable), errors.Is(err, contracts.ErrLeverageExceeded):
		return http.StatusUnprocessableEntity
	case contracts.Classify(err) == "unavailable":
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respondTaxonomyError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), map[string]string{
		"error": err.Error(),
		"kind":  contracts.Classify(err),
	})
}
