package handlers

import (
	"net/http"

	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/statesync"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// StateResponse is the full planner snapshot.
type StateResponse struct {
	State    models.AppState  `json:"state"`
	Revision uint64           `json:"revision"`
	Unsaved  bool             `json:"unsaved"`
	Sync     statesync.Status `json:"sync"`
}

// GetState returns the whole application state.
func GetState(c *state.Container, sync *statesync.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, st := c.Snapshot()
		writeJSON(w, http.StatusOK, StateResponse{
			State:    snap,
			Revision: st.Revision,
			Unsaved:  st.Unsaved,
			Sync:     sync.Status(),
		})
	}
}

// SyncNow persists the state immediately.
func SyncNow(sync *statesync.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := sync.SyncNow(r.Context())
		st := sync.Status()
		if err != nil {
			writeJSON(w, http.StatusBadGateway, st)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// SyncStatus reports whether there are unsaved changes and the last outcome.
func SyncStatus(sync *statesync.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sync.Status())
	}
}
