package storage

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store closed")

// Snapshot is the serialized application state stored under one key.
type Snapshot struct {
	Key       string
	Value     []byte
	Origin    string
	Revision  int64
	UpdatedAt time.Time
}

// Notification reports that a key was written, and by which context.
type Notification struct {
	Key      string `json:"key"`
	Origin   string `json:"origin"`
	Revision int64  `json:"revision"`
}

// Store is the key-value collaborator the sync manager persists to. Every
// implementation must be safe for use by several contexts at once; the last
// Set on a key wins.
type Store interface {
	// Get returns the snapshot for key, or nil when the key was never written.
	Get(ctx context.Context, key string) (*Snapshot, error)

	// Set overwrites key with value on behalf of origin and notifies watchers.
	Set(ctx context.Context, key string, value []byte, origin string) error

	// Watch calls fn for every write to key until ctx is done. It returns
	// once the watch is established.
	Watch(ctx context.Context, key string, fn func(Notification)) error

	// Close releases the store's connections.
	Close() error
}

// BaseRepository provides common functionality for the SQLite repositories.
type BaseRepository struct {
	db *DB
}

// NewBaseRepository creates a new base repository with the given database connection.
func NewBaseRepository(db *DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection.
func (r *BaseRepository) DB() *DB {
	return r.db
}

// Now returns the current time in UTC for database timestamps.
func (r *BaseRepository) Now() time.Time {
	return time.Now().UTC()
}
