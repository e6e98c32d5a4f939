// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"net/http"

	"github.com/anniversary-planner/backend/internal/session"
	"github.com/anniversary-planner/backend/internal/statesync"
	"github.com/anniversary-planner/backend/internal/storage"
	"github.com/anniversary-planner/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"dbConnected"`
	Unsaved     bool   `json:"unsaved"`
	LastError   string `json:"lastSyncError,omitempty"`
	Clients     int    `json:"wsClients"`
	Sessions    int    `json:"sessions"`
}

// HealthCheck reports database reachability and sync health. A failing sync
// only degrades the status; the process keeps serving.
func HealthCheck(db *storage.DB, sync *statesync.Manager, hub *websocket.Hub, sessions *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil
		st := sync.Status()

		response := HealthResponse{
			Status:      "healthy",
			DBConnected: dbConnected,
			Unsaved:     st.Unsaved,
			LastError:   st.LastError,
			Clients:     hub.ClientCount(),
			Sessions:    sessions.Count(),
		}
		code := http.StatusOK
		if !dbConnected {
			response.Status = "degraded"
			code = http.StatusServiceUnavailable
		} else if st.LastError != "" {
			response.Status = "degraded"
		}
		writeJSON(w, code, response)
	}
}
