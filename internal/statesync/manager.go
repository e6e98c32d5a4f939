// Package statesync persists the application state of this context to a
// shared store and reloads it when another context writes.
package statesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/anniversary-planner/backend/internal/seed"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// DefaultInterval is how often the whole state is persisted.
const DefaultInterval = 5 * time.Minute

// DefaultKey is the storage key shared by every context.
const DefaultKey = "anniversary-planner/state"

// Source says where the state loaded at startup came from.
type Source string

// Load sources
const (
	SourceStore   Source = "store"
	SourceDefault Source = "default"
)

var errEmptyRoster = errors.New("snapshot has no guests")

// Broadcaster receives sync outcomes. The websocket event broadcaster
// satisfies it.
type Broadcaster interface {
	BroadcastStateReplaced(origin string, revision uint64)
	BroadcastSyncCompleted(key string, revision uint64, at time.Time)
	BroadcastSyncFailed(key string, revision uint64, at time.Time, err error)
	BroadcastNotification(level, title, message string)
}

// Options configures a Manager.
type Options struct {
	Key      string
	Origin   string
	Interval time.Duration
	Events   Broadcaster
}

// Status is the sync bookkeeping exposed to the planner.
type Status struct {
	Key       string     `json:"key"`
	Origin    string     `json:"origin"`
	Unsaved   bool       `json:"unsaved"`
	Revision  uint64     `json:"revision"`
	Interval  string     `json:"interval"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
	LastError string     `json:"lastError,omitempty"`
	NextSync  *time.Time `json:"nextSync,omitempty"`
}

// Manager ties one state container to one storage key.
type Manager struct {
	container *state.Container
	store     storage.Store
	key       string
	origin    string
	interval  time.Duration
	events    Broadcaster
	log       zerolog.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc

	// persist serializes SyncNow so two writes never interleave.
	persist sync.Mutex

	mu        sync.RWMutex
	lastSync  time.Time
	lastError error
}

// NewManager creates a manager. Origin identifies this context in the store;
// it must differ between contexts sharing a key.
func NewManager(container *state.Container, store storage.Store, log zerolog.Logger, opts Options) *Manager {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Manager{
		container: container,
		store:     store,
		key:       opts.Key,
		origin:    opts.Origin,
		interval:  opts.Interval,
		events:    opts.Events,
		log:       log.With().Str("component", "statesync").Str("key", opts.Key).Logger(),
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Origin returns the identity this manager writes under.
func (m *Manager) Origin() string { return m.origin }

// Load reads the persisted snapshot into the container. A missing key, a
// snapshot that does not parse, an empty roster or a store failure all fall
// back to the bundled dataset, which is then marked unsaved.
func (m *Manager) Load(ctx context.Context) Source {
	s, err := m.read(ctx)
	if err == nil {
		m.container.Replace(s)
		m.log.Info().Int("guests", len(s.Guests)).Msg("loaded state from store")
		return SourceStore
	}

	m.log.Warn().Err(err).Msg("using bundled default dataset")
	def := seed.MustDefault()
	_ = m.container.Update(state.KindReplaced, func(s *models.AppState) error {
		*s = def
		return nil
	})
	return SourceDefault
}

func (m *Manager) read(ctx context.Context) (models.AppState, error) {
	snap, err := m.store.Get(ctx, m.key)
	if err != nil {
		return models.AppState{}, fmt.Errorf("reading snapshot: %w", err)
	}
	if snap == nil {
		return models.AppState{}, fmt.Errorf("no snapshot stored under %s", m.key)
	}
	var s models.AppState
	if err := json.Unmarshal(snap.Value, &s); err != nil {
		return models.AppState{}, fmt.Errorf("parsing snapshot: %w", err)
	}
	if len(s.Guests) == 0 {
		return models.AppState{}, errEmptyRoster
	}
	return s, nil
}

// SyncNow serializes the current state and writes it to the store. On
// success the unsaved flag is cleared unless the state changed meanwhile, in
// which case it stays set so the next sync writes memory back. On failure the
// state stays in memory and unsaved.
func (m *Manager) SyncNow(ctx context.Context) error {
	m.persist.Lock()
	defer m.persist.Unlock()

	snap, st := m.container.Snapshot()
	now := time.Now().UTC()

	data, err := json.Marshal(snap)
	if err == nil {
		err = m.store.Set(ctx, m.key, data, m.origin)
	}
	if err != nil {
		err = fmt.Errorf("persisting state: %w", err)
		m.mu.Lock()
		m.lastError = err
		m.mu.Unlock()
		m.log.Error().Err(err).Uint64("revision", st.Revision).Msg("sync failed")
		if m.events != nil {
			m.events.BroadcastSyncFailed(m.key, st.Revision, now, err)
		}
		return err
	}

	if !m.container.MarkSaved(st.Revision) {
		m.log.Debug().Uint64("revision", st.Revision).Msg("state changed during persist, still unsaved")
	}
	m.mu.Lock()
	m.lastSync = now
	m.lastError = nil
	m.mu.Unlock()
	m.log.Debug().Uint64("revision", st.Revision).Int("bytes", len(data)).Msg("state persisted")
	if m.events != nil {
		m.events.BroadcastSyncCompleted(m.key, st.Revision, now)
	}
	return nil
}

// Start begins watching the key for foreign writes and schedules the
// periodic persist.
func (m *Manager) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	if err := m.store.Watch(watchCtx, m.key, m.onExternalChange); err != nil {
		cancel()
		return fmt.Errorf("watching %s: %w", m.key, err)
	}

	id, err := m.cron.AddFunc("@every "+m.interval.String(), func() {
		_ = m.SyncNow(context.Background())
	})
	if err != nil {
		cancel()
		return fmt.Errorf("scheduling sync: %w", err)
	}

	m.mu.Lock()
	m.cancel = cancel
	m.entryID = id
	m.mu.Unlock()

	m.cron.Start()
	m.log.Info().Str("origin", m.origin).Dur("interval", m.interval).Msg("sync manager started")
	return nil
}

// Stop cancels the timer and the watch, then persists once more if there
// are unsaved changes.
func (m *Manager) Stop(ctx context.Context) error {
	<-m.cron.Stop().Done()

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	if m.container.Unsaved() {
		return m.SyncNow(ctx)
	}
	m.log.Info().Msg("sync manager stopped")
	return nil
}

// onExternalChange replaces the whole state with the snapshot another
// context wrote. Local unsaved edits are discarded.
func (m *Manager) onExternalChange(n storage.Notification) {
	if n.Origin == m.origin {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := m.store.Get(ctx, m.key)
	if err != nil || snap == nil {
		m.log.Warn().Err(err).Str("from", n.Origin).Msg("reading external snapshot failed")
		return
	}
	var s models.AppState
	if err := json.Unmarshal(snap.Value, &s); err != nil {
		m.log.Warn().Err(err).Str("from", n.Origin).Msg("external snapshot does not parse, keeping local state")
		return
	}

	discarded := m.container.Unsaved()
	if discarded {
		m.log.Warn().Str("from", n.Origin).Msg("discarding unsaved local changes for external snapshot")
	}
	m.container.Replace(s)
	st := m.container.Status()
	m.log.Info().Str("from", n.Origin).Int64("store_revision", n.Revision).Msg("state replaced by external change")
	if m.events != nil {
		m.events.BroadcastStateReplaced(n.Origin, st.Revision)
		if discarded {
			m.events.BroadcastNotification("warning", "Changes discarded",
				"Another planner saved first. Your unsaved edits were replaced with the shared copy.")
		}
	}
}

// Status returns the current sync bookkeeping.
func (m *Manager) Status() Status {
	st := m.container.Status()
	out := Status{
		Key:      m.key,
		Origin:   m.origin,
		Unsaved:  st.Unsaved,
		Revision: st.Revision,
		Interval: m.interval.String(),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.lastSync.IsZero() {
		t := m.lastSync
		out.LastSync = &t
	}
	if m.lastError != nil {
		out.LastError = m.lastError.Error()
	}
	if m.entryID != 0 {
		if next := m.cron.Entry(m.entryID).Next; !next.IsZero() {
			out.NextSync = &next
		}
	}
	return out
}
