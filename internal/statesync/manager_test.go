package statesync

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

const testKey = "test/state"

func newManager(store storage.Store, origin string) (*Manager, *state.Container) {
	c := state.New(models.AppState{})
	m := NewManager(c, store, zerolog.Nop(), Options{Key: testKey, Origin: origin, Interval: time.Hour})
	return m, c
}

func put(t *testing.T, store storage.Store, raw string) {
	t.Helper()
	if err := store.Set(context.Background(), testKey, []byte(raw), "someone"); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"missing key", ""},
		{"garbage", "{not json"},
		{"empty roster", `{"guests":[],"tasks":[{"id":"t","title":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			if tt.value != "" {
				put(t, store, tt.value)
			}
			m, c := newManager(store, "a")
			if got := m.Load(context.Background()); got != SourceDefault {
				t.Fatalf("source: want=%q got=%q", SourceDefault, got)
			}
			if len(c.Guests()) == 0 {
				t.Fatalf("default dataset must have guests")
			}
			if !c.Unsaved() {
				t.Fatalf("default dataset is not persisted yet and must be unsaved")
			}
		})
	}
}

func TestLoadFromStore(t *testing.T) {
	store := storage.NewMemoryStore()
	put(t, store, `{"guests":[{"id":"guest-5","name":"Zoya","status":"Confirmed"}]}`)

	m, c := newManager(store, "a")
	if got := m.Load(context.Background()); got != SourceStore {
		t.Fatalf("source: want=%q got=%q", SourceStore, got)
	}
	snap, st := c.Snapshot()
	if len(snap.Guests) != 1 || snap.Guests[0].Name != "Zoya" {
		t.Fatalf("guests: got=%+v", snap.Guests)
	}
	if st.Unsaved {
		t.Fatalf("state read from the store must not be unsaved")
	}
	if snap.Budget.Adults != 1 {
		t.Fatalf("aggregates must be derived on load, adults=%d", snap.Budget.Adults)
	}
}

func TestSyncNowPersistsAndClearsUnsaved(t *testing.T) {
	store := storage.NewMemoryStore()
	m, c := newManager(store, "a")
	m.Load(context.Background())
	if _, err := c.AddTask(models.Task{Title: "Send invites"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := m.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if c.Unsaved() {
		t.Fatalf("successful sync must clear unsaved")
	}

	snap, err := store.Get(context.Background(), testKey)
	if err != nil || snap == nil {
		t.Fatalf("Get: %v", err)
	}
	var persisted models.AppState
	if err := json.Unmarshal(snap.Value, &persisted); err != nil {
		t.Fatalf("persisted value does not parse: %v", err)
	}
	want, _ := c.Snapshot()
	if len(persisted.Guests) != len(want.Guests) || len(persisted.Tasks) != len(want.Tasks) {
		t.Fatalf("persisted: guests=%d tasks=%d want %d/%d",
			len(persisted.Guests), len(persisted.Tasks), len(want.Guests), len(want.Tasks))
	}
	if snap.Origin != "a" {
		t.Fatalf("origin: want=a got=%q", snap.Origin)
	}
	if st := m.Status(); st.LastSync == nil || st.LastError != "" {
		t.Fatalf("status: got=%+v", st)
	}
}

type failingStore struct{ storage.Store }

func (failingStore) Set(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}

func TestSyncNowFailureKeepsStateUnsaved(t *testing.T) {
	m, c := newManager(failingStore{storage.NewMemoryStore()}, "a")
	m.Load(context.Background())
	before := len(c.Guests())

	if err := m.SyncNow(context.Background()); err == nil {
		t.Fatalf("want error from failing store")
	}
	if !c.Unsaved() {
		t.Fatalf("failed sync must leave the state unsaved")
	}
	if len(c.Guests()) != before {
		t.Fatalf("failed sync must not touch the state")
	}
	if _, err := c.AddTask(models.Task{Title: "still editable"}); err != nil {
		t.Fatalf("edits after a failed sync: %v", err)
	}
	if st := m.Status(); st.LastError == "" {
		t.Fatalf("status must carry the last error")
	}
}

func TestExternalChangeReplacesState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	a, ca := newManager(store, "ctx-a")
	b, cb := newManager(store, "ctx-b")
	a.Load(ctx)
	b.Load(ctx)
	for _, m := range []*Manager{a, b} {
		if err := m.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	defer a.Stop(ctx)
	defer b.Stop(ctx)

	// b has a local edit that a's write will overwrite.
	if _, err := cb.AddTask(models.Task{Title: "only in b"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := ca.AddGuest(models.Guest{Name: "From A", Status: models.RSVPConfirmed}); err != nil {
		t.Fatalf("AddGuest: %v", err)
	}
	if err := a.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}

	snapA, _ := ca.Snapshot()
	snapB, stB := cb.Snapshot()
	if len(snapB.Guests) != len(snapA.Guests) {
		t.Fatalf("b guests: want=%d got=%d", len(snapA.Guests), len(snapB.Guests))
	}
	for _, task := range snapB.Tasks {
		if task.Title == "only in b" {
			t.Fatalf("full replace must discard b's unsynced task")
		}
	}
	if stB.Unsaved {
		t.Fatalf("replaced state mirrors the store and must not be unsaved")
	}
	if snapB.Budget.Adults != snapA.Budget.Adults {
		t.Fatalf("b aggregates: want adults=%d got=%d", snapA.Budget.Adults, snapB.Budget.Adults)
	}

	// A manager ignores its own writes.
	revA := ca.Status().Revision
	if err := a.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if ca.Status().Revision != revA {
		t.Fatalf("own write must not reload the state")
	}
}

func TestStopPersistsUnsavedChanges(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m, _ := newManager(store, "a")
	m.Load(ctx)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if snap, _ := store.Get(ctx, testKey); snap == nil {
		t.Fatalf("Stop must flush unsaved state")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a, ca := newManager(store, "a")
	a.Load(ctx)

	if _, err := ca.SubmitRSVP("guest-3", state.RSVPSubmission{
		Status:            models.RSVPConfirmed,
		DietaryPreference: models.DietNonVeg,
		MealPlan:          models.MealPlan{models.EventHighTea: models.DietVeg},
		FamilyMembers: []models.FamilyMember{
			{Name: "Ishaan", Age: 7, Relation: "son"},
			{Name: "Meera", Age: 34, DietaryPreference: models.DietVeg,
				MealPlan: models.MealPlan{models.EventGalaDinner: models.DietNonVeg}},
		},
		Allergies: "peanuts",
	}); err != nil {
		t.Fatalf("SubmitRSVP: %v", err)
	}
	if _, err := ca.AddInventoryItem(models.InventoryItem{Label: "Beer", Category: "Bar", CurrentQuantity: 6, Unit: "cases"}); err != nil {
		t.Fatalf("AddInventoryItem: %v", err)
	}
	if _, err := ca.AddTask(models.Task{Title: "Book DJ", Owner: models.OwnerPlanner, DueDate: "2026-11-01"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	rate := 2100.0
	if _, err := ca.UpdateBudgetRates(models.BudgetRates{AdultPlateRate: &rate}); err != nil {
		t.Fatalf("UpdateBudgetRates: %v", err)
	}
	if err := a.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}

	b, cb := newManager(store, "b")
	if got := b.Load(ctx); got != SourceStore {
		t.Fatalf("source: want=%q got=%q", SourceStore, got)
	}
	want, _ := ca.Snapshot()
	got, _ := cb.Snapshot()
	if !reflect.DeepEqual(got.Guests, want.Guests) {
		t.Fatalf("guests:\nwant=%+v\ngot=%+v", want.Guests, got.Guests)
	}
	if !reflect.DeepEqual(got.Budget, want.Budget) {
		t.Fatalf("budget:\nwant=%+v\ngot=%+v", want.Budget, got.Budget)
	}
	if !reflect.DeepEqual(got.Tasks, want.Tasks) {
		t.Fatalf("tasks:\nwant=%+v\ngot=%+v", want.Tasks, got.Tasks)
	}
}

// interleavingStore lets another context write just before the first Set.
type interleavingStore struct {
	*storage.MemoryStore
	once    sync.Once
	foreign []byte
}

func (s *interleavingStore) Set(ctx context.Context, key string, value []byte, origin string) error {
	s.once.Do(func() {
		_ = s.MemoryStore.Set(ctx, key, s.foreign, "ctx-b")
	})
	return s.MemoryStore.Set(ctx, key, value, origin)
}

func TestReplaceDuringPersistKeepsStateUnsaved(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{
		MemoryStore: storage.NewMemoryStore(),
		foreign:     []byte(`{"guests":[{"id":"guest-99","name":"Remote","status":"Confirmed"}]}`),
	}
	m, c := newManager(store, "ctx-a")
	m.Load(ctx)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(ctx)

	if err := m.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	guests := c.Guests()
	if len(guests) != 1 || guests[0].ID != "guest-99" {
		t.Fatalf("memory: want the foreign snapshot got=%+v", guests)
	}
	if !c.Unsaved() {
		t.Fatalf("store holds the older local snapshot, memory must stay unsaved")
	}

	if err := m.SyncNow(ctx); err != nil {
		t.Fatalf("second SyncNow: %v", err)
	}
	if c.Unsaved() {
		t.Fatalf("second sync must converge")
	}
	snap, err := store.Get(ctx, testKey)
	if err != nil || snap == nil {
		t.Fatalf("Get: snap=%v err=%v", snap, err)
	}
	var persisted models.AppState
	if err := json.Unmarshal(snap.Value, &persisted); err != nil {
		t.Fatalf("persisted value does not parse: %v", err)
	}
	if len(persisted.Guests) != 1 || persisted.Guests[0].ID != "guest-99" {
		t.Fatalf("store: want memory's roster got=%+v", persisted.Guests)
	}
}

type notice struct{ level, title string }

type recordingEvents struct {
	mu       sync.Mutex
	notices  []notice
	replaced int
}

func (r *recordingEvents) BroadcastStateReplaced(string, uint64) {
	r.mu.Lock()
	r.replaced++
	r.mu.Unlock()
}

func (r *recordingEvents) BroadcastSyncCompleted(string, uint64, time.Time) {}
func (r *recordingEvents) BroadcastSyncFailed(string, uint64, time.Time, error) {}

func (r *recordingEvents) BroadcastNotification(level, title, _ string) {
	r.mu.Lock()
	r.notices = append(r.notices, notice{level, title})
	r.mu.Unlock()
}

func (r *recordingEvents) snapshot() (int, []notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaced, append([]notice(nil), r.notices...)
}

func TestDiscardedEditsAreAnnounced(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	events := &recordingEvents{}

	a, ca := newManager(store, "ctx-a")
	cb := state.New(models.AppState{})
	b := NewManager(cb, store, zerolog.Nop(), Options{Key: testKey, Origin: "ctx-b", Interval: time.Hour, Events: events})
	a.Load(ctx)
	b.Load(ctx)
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop(ctx)

	// b still holds its unsaved default dataset.
	if err := a.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	replaced, notices := events.snapshot()
	if replaced != 1 || len(notices) != 1 || notices[0].level != "warning" {
		t.Fatalf("after discarding edits: replaced=%d notices=%+v", replaced, notices)
	}

	// b is clean now, so the next replace is silent.
	if _, err := ca.AddTask(models.Task{Title: "Print menus"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if err := a.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	replaced, notices = events.snapshot()
	if replaced != 2 || len(notices) != 1 {
		t.Fatalf("clean replace: replaced=%d notices=%+v", replaced, notices)
	}
}
