package session

import (
	"errors"
	"net/url"
	"testing"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

var roster = []models.Guest{
	{ID: "guest-1", Name: "Asha"},
	{ID: "guest-2", Name: "Ravi"},
}

func TestLogin(t *testing.T) {
	gate := NewGate("Silver25", "welcome")
	tests := []struct {
		name    string
		input   string
		roster  []models.Guest
		want    Session
		wantErr error
	}{
		{"planner code", "silver25", roster, Session{Role: RolePlanner}, nil},
		{"planner code trimmed and cased", "  SILVER25 ", roster, Session{Role: RolePlanner}, nil},
		{"guest preview binds first guest", "Welcome", roster, Session{Role: RoleGuest, GuestID: "guest-1"}, nil},
		{"guest preview without roster", "welcome", nil, Unauthenticated, ErrEmptyRoster},
		{"literal guest id", "guest-2", roster, Session{Role: RoleGuest, GuestID: "guest-2"}, nil},
		{"literal guest id any case", "Guest-17", roster, Session{Role: RoleGuest, GuestID: "guest-17"}, nil},
		{"malformed guest id", "guest-x", roster, Unauthenticated, ErrInvalidCode},
		{"wrong code", "nope", roster, Unauthenticated, ErrInvalidCode},
		{"empty", "   ", roster, Unauthenticated, ErrInvalidCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.Login(tt.input, tt.roster)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err: want=%v got=%v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Fatalf("session: want=%+v got=%+v", tt.want, got)
			}
		})
	}
}

func TestFromDeepLink(t *testing.T) {
	gate := NewGate("p", "g")

	u, _ := url.Parse("https://party.example/rsvp?guestId=guest-2&lang=en")
	s, cleaned, ok := gate.FromDeepLink(u, roster)
	if !ok {
		t.Fatalf("FromDeepLink: expected ok")
	}
	if s != (Session{Role: RoleGuest, GuestID: "guest-2"}) {
		t.Fatalf("session: got=%+v", s)
	}
	if cleaned.Query().Has(DeepLinkParam) {
		t.Fatalf("cleaned url still carries %s: %s", DeepLinkParam, cleaned)
	}
	if cleaned.Query().Get("lang") != "en" || cleaned.Path != "/rsvp" {
		t.Fatalf("cleaned url lost other parts: %s", cleaned)
	}
	if !u.Query().Has(DeepLinkParam) {
		t.Fatalf("original url must not be modified")
	}

	missing, _ := url.Parse("https://party.example/?guestId=guest-99")
	s, same, ok := gate.FromDeepLink(missing, roster)
	if ok || s != Unauthenticated || same != missing {
		t.Fatalf("absent guest: want no change got ok=%v session=%+v url=%s", ok, s, same)
	}
}

func TestRevalidate(t *testing.T) {
	gate := NewGate("p", "g")
	if got := gate.Revalidate(Session{Role: RoleGuest, GuestID: "guest-1"}, roster); !got.IsGuest() {
		t.Fatalf("existing guest: want guest session got=%+v", got)
	}
	if got := gate.Revalidate(Session{Role: RoleGuest, GuestID: "guest-9"}, roster); got != Unauthenticated {
		t.Fatalf("removed guest: want unauthenticated got=%+v", got)
	}
	if got := gate.Revalidate(Session{Role: RolePlanner}, nil); !got.IsPlanner() {
		t.Fatalf("planner: want unchanged got=%+v", got)
	}
	if got := gate.Logout(Session{Role: RolePlanner}); got != Unauthenticated {
		t.Fatalf("logout: want unauthenticated got=%+v", got)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	token := r.Start(Session{Role: RolePlanner})
	if got := r.Get(token); !got.IsPlanner() {
		t.Fatalf("Get: want planner got=%+v", got)
	}
	r.Set(token, Unauthenticated)
	if r.Count() != 0 {
		t.Fatalf("Count after reset: want=0 got=%d", r.Count())
	}
	if got := r.Get("unknown"); got != Unauthenticated {
		t.Fatalf("unknown token: got=%+v", got)
	}
}
