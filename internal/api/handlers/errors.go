package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/response"
	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

// statusFor maps a facade error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, companion.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotAuthenticated),
		errors.Is(err, backend.ErrUnauthorized),
		errors.Is(err, backend.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, collection.ErrDuplicateCard):
		return http.StatusConflict
	case errors.Is(err, companion.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pokemontcg.ErrMissingImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, companion.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status it maps to. AppError messages
// are shown to the user as is.
func writeError(w http.ResponseWriter, err error) {
	response.Error(w, statusFor(err), err)
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
