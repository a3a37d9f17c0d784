package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validation  *appErrors.ValidationError
		campaign    *appErrors.ErrCampaignNotFound
		job         *appErrors.ErrJobNotFound
		config      *appErrors.ConfigError
		transitions *appErrors.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &campaign), errors.As(err, &job):
		return http.StatusNotFound
	case service.IsZeroInput(err), errors.As(err, &transitions):
		return http.StatusUnprocessableEntity
	case errors.As(err, &config):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}
