// Package apiutil holds the JSON plumbing shared by the HTTP services.
package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/models"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// StatusFor maps an error to an HTTP status code. Errors matching one of
// conflicts become 409.
func StatusFor(err error, conflicts ...error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	}
	for _, c := range conflicts {
		if errors.Is(err, c) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// WriteError writes {"error": ...} with the mapped status
func WriteError(w http.ResponseWriter, err error, conflicts ...error) {
	status := StatusFor(err, conflicts...)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON decodes the request body into v, rejecting unknown fields
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}
