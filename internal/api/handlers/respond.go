package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/state"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeStateError maps container errors onto HTTP responses.
func writeStateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	case errors.Is(err, state.ErrGuestNotFound),
		errors.Is(err, state.ErrRoomNotFound),
		errors.Is(err, state.ErrInventoryItemNotFound),
		errors.Is(err, state.ErrTaskNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update state")
	}
}
