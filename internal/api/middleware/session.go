package middleware

import (
	"context"
	"net/http"

	"github.com/anniversary-planner/backend/internal/session"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// SessionCookie is the cookie carrying a browser's session token.
const SessionCookie = "planner_session"

type sessionKey struct{}

type sessionValue struct {
	token   string
	session session.Session
}

// Sessions resolves the session of every request from its cookie.
type Sessions struct {
	Gate     *session.Gate
	Registry *session.Registry
	Roster   func() []models.Guest
}

// Middleware attaches the caller's session to the request context. A guest
// session whose record has disappeared is downgraded on the spot.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}

		current := s.Registry.Get(token)
		if current.Role == session.RoleGuest {
			if checked := s.Gate.Revalidate(current, s.Roster()); checked != current {
				s.Registry.Set(token, checked)
				current = checked
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sessionValue{token: token, session: current})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Begin stores sess under a fresh token and sets the cookie. An existing
// token for the request is discarded first.
func (s *Sessions) Begin(w http.ResponseWriter, r *http.Request, sess session.Session) {
	if old := SessionToken(r.Context()); old != "" {
		s.Registry.End(old)
	}
	token := s.Registry.Start(sess)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// End forgets the request's session and clears the cookie.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) {
	if token := SessionToken(r.Context()); token != "" {
		s.Registry.End(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFrom returns the session attached by Middleware.
func SessionFrom(ctx context.Context) session.Session {
	if v, ok := ctx.Value(sessionKey{}).(sessionValue); ok {
		return v.session
	}
	return session.Unauthenticated
}

// SessionToken returns the cookie token of the request, if any.
func SessionToken(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(sessionValue); ok {
		return v.token
	}
	return ""
}

// RequirePlanner rejects requests that do not come from the planner.
func RequirePlanner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := SessionFrom(r.Context())
		switch {
		case s.IsPlanner():
			next(w, r)
		case s.Role == session.RoleUnauthenticated:
			WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Log in to continue")
		default:
			WriteError(w, http.StatusForbidden, ErrForbidden, "Planner access required")
		}
	}
}

// RequireSession rejects unauthenticated requests.
func RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()).Role == session.RoleUnauthenticated {
			WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Log in to continue")
			return
		}
		next(w, r)
	}
}
