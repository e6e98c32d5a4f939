// Package session resolves who is looking at the planner: nobody, the planner,
// or one specific guest.
package session

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

// Role is the access level of a session.
type Role string

// Role constants
const (
	RoleUnauthenticated Role = "unauthenticated"
	RolePlanner         Role = "planner"
	RoleGuest           Role = "guest"
)

// DeepLinkParam is the query parameter carrying a guest id in a magic link.
const DeepLinkParam = "guestId"

var guestIDPattern = regexp.MustCompile(`^guest-\d+$`)

// Errors returned by Gate.Login.
var (
	ErrInvalidCode = errors.New("invalid access code")
	ErrEmptyRoster = errors.New("no guests to preview")
)

// Session is the resolved viewer of one client.
type Session struct {
	Role    Role   `json:"role"`
	GuestID string `json:"guestId,omitempty"`
}

// Unauthenticated is the zero session.
var Unauthenticated = Session{Role: RoleUnauthenticated}

// IsPlanner reports whether the session has full access.
func (s Session) IsPlanner() bool { return s.Role == RolePlanner }

// IsGuest reports whether the session is bound to a guest record.
func (s Session) IsGuest() bool { return s.Role == RoleGuest && s.GuestID != "" }

// CanView reports whether the session may see the given guest record.
func (s Session) CanView(guestID string) bool {
	return s.IsPlanner() || (s.IsGuest() && s.GuestID == guestID)
}

// Gate compares client-supplied codes against the two static access codes.
// The comparison is a plain string match; it is not a security boundary.
type Gate struct {
	plannerCode string
	guestCode   string
}

// NewGate creates a gate for the given planner and guest-preview codes.
func NewGate(plannerCode, guestCode string) *Gate {
	return &Gate{
		plannerCode: normalize(plannerCode),
		guestCode:   normalize(guestCode),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Login resolves an access code or a literal guest id to a session.
func (g *Gate) Login(input string, roster []models.Guest) (Session, error) {
	code := normalize(input)
	switch {
	case code == "":
		return Unauthenticated, ErrInvalidCode
	case g.plannerCode != "" && code == g.plannerCode:
		return Session{Role: RolePlanner}, nil
	case g.guestCode != "" && code == g.guestCode:
		if len(roster) == 0 {
			return Unauthenticated, ErrEmptyRoster
		}
		return Session{Role: RoleGuest, GuestID: roster[0].ID}, nil
	case guestIDPattern.MatchString(code):
		return Session{Role: RoleGuest, GuestID: code}, nil
	}
	return Unauthenticated, ErrInvalidCode
}

// FromDeepLink authenticates a guest from a magic link. When the link carries
// a guest id present in the roster it returns the guest session and the link
// with the parameter removed. Otherwise ok is false and nothing changes.
func (g *Gate) FromDeepLink(u *url.URL, roster []models.Guest) (s Session, cleaned *url.URL, ok bool) {
	if u == nil {
		return Unauthenticated, u, false
	}
	q := u.Query()
	id := strings.TrimSpace(q.Get(DeepLinkParam))
	if id == "" || !contains(roster, id) {
		return Unauthenticated, u, false
	}

	q.Del(DeepLinkParam)
	out := *u
	out.RawQuery = q.Encode()
	return Session{Role: RoleGuest, GuestID: id}, &out, true
}

// Revalidate forces a guest session whose record no longer exists back to
// unauthenticated. Other sessions are returned unchanged.
func (g *Gate) Revalidate(s Session, roster []models.Guest) Session {
	if s.Role != RoleGuest {
		return s
	}
	if s.GuestID == "" || !contains(roster, s.GuestID) {
		return Unauthenticated
	}
	return s
}

// Logout ends any session.
func (g *Gate) Logout(Session) Session {
	return Unauthenticated
}

func contains(roster []models.Guest, id string) bool {
	for i := range roster {
		if roster[i].ID == id {
			return true
		}
	}
	return false
}
