package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Contexts sharing one MemoryStore see
// each other's writes; watchers are called synchronously after the write.
type MemoryStore struct {
	mu       sync.Mutex
	closed   bool
	records  map[string]Snapshot
	watchers map[int]memoryWatcher
	nextID   int
}

type memoryWatcher struct {
	ctx context.Context
	key string
	fn  func(Notification)
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]Snapshot),
		watchers: make(map[int]memoryWatcher),
	}
}

// Get returns a copy of the snapshot under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return &rec, nil
}

// Set overwrites key and notifies every live watcher of it.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, origin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	rec := m.records[key]
	rec.Key = key
	rec.Value = append([]byte(nil), value...)
	rec.Origin = origin
	rec.Revision++
	rec.UpdatedAt = time.Now().UTC()
	m.records[key] = rec

	var fns []func(Notification)
	for id, w := range m.watchers {
		if w.ctx.Err() != nil {
			delete(m.watchers, id)
			continue
		}
		if w.key == key {
			fns = append(fns, w.fn)
		}
	}
	m.mu.Unlock()

	n := Notification{Key: key, Origin: origin, Revision: rec.Revision}
	for _, fn := range fns {
		fn(n)
	}
	return nil
}

// Watch registers fn until ctx is done.
func (m *MemoryStore) Watch(ctx context.Context, key string, fn func(Notification)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.nextID++
	m.watchers[m.nextID] = memoryWatcher{ctx: ctx, key: key, fn: fn}
	return nil
}

// Close drops all records and watchers.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = map[string]Snapshot{}
	m.watchers = map[int]memoryWatcher{}
	return nil
}
