package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/anniversary-planner/backend/internal/api/handlers"
	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/media"
	"github.com/anniversary-planner/backend/internal/session"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/statesync"
	"github.com/anniversary-planner/backend/internal/storage"
	"github.com/anniversary-planner/backend/internal/storage/models"
	"github.com/anniversary-planner/backend/internal/suggest"
	"github.com/anniversary-planner/backend/internal/websocket"
)

type testServer struct {
	handler   http.Handler
	container *state.Container
	store     *storage.MemoryStore
	uploads   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	dir := t.TempDir()

	db, err := storage.OpenDB(context.Background(), filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	objects, err := media.NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	container := state.New(models.AppState{
		Guests: []models.Guest{
			{ID: "guest-1", Name: "Asha", Status: models.RSVPConfirmed},
			{ID: "guest-2", Name: "Ravi", Status: models.RSVPPending},
		},
	})
	store := storage.NewMemoryStore()
	hub := websocket.NewHub(log)
	manager := statesync.NewManager(container, store, log, statesync.Options{
		Origin: "test",
		Events: websocket.NewEventBroadcaster(hub, log),
	})

	handler := NewRouter(Deps{
		Log:       log,
		DB:        db,
		Hub:       hub,
		Container: container,
		Sync:      manager,
		Sessions: &middleware.Sessions{
			Gate:     session.NewGate("silver25", "welcome"),
			Registry: session.NewRegistry(),
			Roster:   container.Guests,
		},
		Objects:   objects,
		Uploads:   storage.NewUploadRepository(db),
		Suggest:   suggest.New(suggest.Options{}, log),
		UploadDir: objects.Dir(),
	})
	return &testServer{handler: handler, container: container, store: store, uploads: objects.Dir()}
}

func (s *testServer) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d)", rec.Code)
	return nil
}

func (s *testServer) login(t *testing.T, code string) *http.Cookie {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/session/login", `{"code":"`+code+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %q: want=200 got=%d body=%s", code, rec.Code, rec.Body)
	}
	return sessionCookie(t, rec)
}

func TestLoginRejectsUnknownCodes(t *testing.T) {
	s := newTestServer(t)
	for _, code := range []string{"nope", "guest-9"} {
		rec := s.do(http.MethodPost, "/api/session/login", `{"code":"`+code+`"}`, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login %q: want=401 got=%d", code, rec.Code)
		}
	}
}

func TestPlannerRoutesAreGated(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(http.MethodGet, "/api/guests", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want=401 got=%d", rec.Code)
	}
	guest := s.login(t, "guest-2")
	if rec := s.do(http.MethodGet, "/api/guests", "", guest); rec.Code != http.StatusForbidden {
		t.Fatalf("guest: want=403 got=%d", rec.Code)
	}
	planner := s.login(t, "silver25")
	rec := s.do(http.MethodGet, "/api/guests", "", planner)
	if rec.Code != http.StatusOK {
		t.Fatalf("planner: want=200 got=%d", rec.Code)
	}
	var guests []models.Guest
	if err := json.NewDecoder(rec.Body).Decode(&guests); err != nil || len(guests) != 2 {
		t.Fatalf("guests: got=%v err=%v", guests, err)
	}
}

func TestGuestSeesOnlyOwnRecord(t *testing.T) {
	s := newTestServer(t)
	guest := s.login(t, "guest-2")

	if rec := s.do(http.MethodGet, "/api/guests/guest-1", "", guest); rec.Code != http.StatusForbidden {
		t.Fatalf("other guest: want=403 got=%d", rec.Code)
	}
	rec := s.do(http.MethodGet, "/api/guests/guest-2", "", guest)
	if rec.Code != http.StatusOK {
		t.Fatalf("own record: want=200 got=%d", rec.Code)
	}
	var g models.Guest
	if err := json.NewDecoder(rec.Body).Decode(&g); err != nil || g.Name != "Ravi" {
		t.Fatalf("own record: got=%+v err=%v", g, err)
	}
}

func TestMagicLinkStartsGuestSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/magic?guestId=guest-2&lang=en", "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("magic: want=302 got=%d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?lang=en" {
		t.Fatalf("redirect: want=/?lang=en got=%q", loc)
	}
	cookie := sessionCookie(t, rec)

	rec = s.do(http.MethodGet, "/api/session", "", cookie)
	var got session.Session
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if got.Role != session.RoleGuest || got.GuestID != "guest-2" {
		t.Fatalf("session: got=%+v", got)
	}

	rec = s.do(http.MethodGet, "/magic?guestId=guest-99", "", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("unknown guest: got=%d %q", rec.Code, rec.Header().Get("Location"))
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			t.Fatalf("unknown guest must not get a session")
		}
	}
}

func TestGuestSubmitsRSVP(t *testing.T) {
	s := newTestServer(t)
	guest := s.login(t, "guest-2")

	body := `{"status":"Confirmed","familyMembers":[{"name":"Kiran","age":6}]}`
	if rec := s.do(http.MethodPut, "/api/guests/guest-1/rsvp", body, guest); rec.Code != http.StatusForbidden {
		t.Fatalf("rsvp for someone else: want=403 got=%d", rec.Code)
	}
	rec := s.do(http.MethodPut, "/api/guests/guest-2/rsvp", body, guest)
	if rec.Code != http.StatusOK {
		t.Fatalf("rsvp: want=200 got=%d body=%s", rec.Code, rec.Body)
	}

	b := s.container.Breakdown()
	if b.Adults != 2 || b.Kids != 1 {
		t.Fatalf("headline after rsvp: want 2/1 got=%d/%d", b.Adults, b.Kids)
	}
	if !s.container.Unsaved() {
		t.Fatalf("rsvp must mark the state unsaved")
	}
}

func TestSyncNowPersists(t *testing.T) {
	s := newTestServer(t)
	planner := s.login(t, "silver25")

	if rec := s.do(http.MethodPost, "/api/tasks", `{"title":"Order cake"}`, planner); rec.Code != http.StatusCreated {
		t.Fatalf("create task: want=201 got=%d body=%s", rec.Code, rec.Body)
	}
	rec := s.do(http.MethodPost, "/api/sync", "", planner)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync: want=200 got=%d", rec.Code)
	}
	var st statesync.Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil || st.Unsaved || st.LastSync == nil {
		t.Fatalf("sync status: got=%+v err=%v", st, err)
	}

	snap, err := s.store.Get(context.Background(), statesync.DefaultKey)
	if err != nil || snap == nil {
		t.Fatalf("store: snap=%v err=%v", snap, err)
	}
	var persisted models.AppState
	if err := json.Unmarshal(snap.Value, &persisted); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(persisted.Tasks) != 1 || persisted.Tasks[0].Title != "Order cake" {
		t.Fatalf("persisted tasks: got=%+v", persisted.Tasks)
	}
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)
	planner := s.login(t, "silver25")

	rec := s.do(http.MethodGet, "/api/upload?filename=a.jpg", "", planner)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: want=405 got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("405 body: got=%s", rec.Body)
	}
	if rec := s.do(http.MethodPost, "/api/upload", "data", planner); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing filename: want=400 got=%d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/upload?filename=a.jpg", "", planner); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body: want=400 got=%d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/upload?filename=a.jpg", "data", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want=401 got=%d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/upload?filename=menu%20card.jpg", "jpegbytes", planner)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: want=200 got=%d body=%s", rec.Code, rec.Body)
	}
	var obj media.Object
	if err := json.NewDecoder(rec.Body).Decode(&obj); err != nil {
		t.Fatalf("decode object: %v", err)
	}
	if !strings.HasPrefix(obj.URL, "/uploads/") || obj.Size != int64(len("jpegbytes")) {
		t.Fatalf("object: got=%+v", obj)
	}

	served := s.do(http.MethodGet, obj.URL, "", nil)
	if served.Code != http.StatusOK || served.Body.String() != "jpegbytes" {
		t.Fatalf("serve upload: got=%d %q", served.Code, served.Body)
	}

	rec = s.do(http.MethodGet, "/api/uploads", "", planner)
	var list []storage.Upload
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 1 || list[0].Key != obj.Key {
		t.Fatalf("uploads: got=%+v err=%v", list, err)
	}
}

func TestHealthReportsSessions(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "silver25")
	s.login(t, "guest-1")

	rec := s.do(http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: want=200 got=%d body=%s", rec.Code, rec.Body)
	}
	var body handlers.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || !body.DBConnected || body.Sessions != 2 {
		t.Fatalf("health: got=%+v", body)
	}
}
