package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

func stripParam(q url.Values, name string) *url.URL {
	q.Del(name)
	return &url.URL{RawQuery: q.Encode()}
}

// ListGuests returns the master guest list.
func ListGuests(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guests := c.Guests()
		if guests == nil {
			guests = []models.Guest{}
		}
		writeJSON(w, http.StatusOK, guests)
	}
}

// CreateGuest adds a guest; the id is assigned when omitted.
func CreateGuest(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var g models.Guest
		if !decodeJSON(w, r, &g) {
			return
		}
		created, err := c.AddGuest(g)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// canAccessGuest writes a 403 unless the caller may see the guest in the path.
func canAccessGuest(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if !middleware.SessionFrom(r.Context()).CanView(id) {
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrForbidden, "You can only access your own invitation")
		return id, false
	}
	return id, true
}

// GetGuest returns one guest to the planner or to that guest.
func GetGuest(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := canAccessGuest(w, r)
		if !ok {
			return
		}
		g, err := c.Guest(id)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// UpdateGuest applies a partial update.
func UpdateGuest(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch state.GuestPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		g, err := c.UpdateGuest(mux.Vars(r)["id"], patch)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// SubmitRSVP records an invitation answer from the planner or that guest.
func SubmitRSVP(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := canAccessGuest(w, r)
		if !ok {
			return
		}
		var sub state.RSVPSubmission
		if !decodeJSON(w, r, &sub) {
			return
		}
		g, err := c.SubmitRSVP(id, sub)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}
