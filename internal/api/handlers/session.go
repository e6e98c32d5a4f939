package handlers

import (
	"errors"
	"net/http"

	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/session"
	"github.com/anniversary-planner/backend/internal/state"
)

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Role      session.Role `json:"role"`
	GuestID   string       `json:"guestId,omitempty"`
	GuestName string       `json:"guestName,omitempty"`
}

func sessionResponse(c *state.Container, s session.Session) SessionResponse {
	out := SessionResponse{Role: s.Role, GuestID: s.GuestID}
	if s.IsGuest() {
		if g, err := c.Guest(s.GuestID); err == nil {
			out.GuestName = g.Name
		}
	}
	return out
}

// Login exchanges an access code or guest id for a session cookie.
func Login(sessions *middleware.Sessions, c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		s, err := sessions.Gate.Login(req.Code, c.Guests())
		switch {
		case errors.Is(err, session.ErrEmptyRoster):
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "There are no guests to preview yet")
			return
		case err != nil:
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid access code")
			return
		}

		// Literal guest ids must exist on the roster.
		s = sessions.Gate.Revalidate(s, c.Guests())
		if s.Role == session.RoleUnauthenticated {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Unknown guest")
			return
		}

		sessions.Begin(w, r, s)
		writeJSON(w, http.StatusOK, sessionResponse(c, s))
	}
}

// Logout ends the caller's session.
func Logout(sessions *middleware.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.End(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetSession returns the caller's current session.
func GetSession(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionResponse(c, middleware.SessionFrom(r.Context())))
	}
}

// MagicLink signs a guest in from a link carrying ?guestId= and redirects to
// the same location without the parameter. Unknown ids just redirect.
func MagicLink(sessions *middleware.Sessions, c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, cleaned, ok := sessions.Gate.FromDeepLink(r.URL, c.Guests())
		if !ok {
			cleaned = stripParam(r.URL.Query(), session.DeepLinkParam)
		} else {
			sessions.Begin(w, r, s)
		}

		target := "/"
		if cleaned != nil && cleaned.RawQuery != "" {
			target = "/?" + cleaned.RawQuery
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
