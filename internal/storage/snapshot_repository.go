package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often the SQLite store checks for foreign writes.
const DefaultPollInterval = 2 * time.Second

// SnapshotRepository stores state snapshots in the state_snapshots table.
// Other processes sharing the database file are detected by polling the
// row's revision.
type SnapshotRepository struct {
	BaseRepository
	log          zerolog.Logger
	pollInterval time.Duration
}

// NewSnapshotRepository creates a SQLite-backed Store.
func NewSnapshotRepository(db *DB, log zerolog.Logger, pollInterval time.Duration) *SnapshotRepository {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &SnapshotRepository{
		BaseRepository: NewBaseRepository(db),
		log:            log.With().Str("component", "snapshot_repository").Logger(),
		pollInterval:   pollInterval,
	}
}

// Get retrieves the snapshot stored under key.
func (r *SnapshotRepository) Get(ctx context.Context, key string) (*Snapshot, error) {
	s := &Snapshot{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT key, value, origin, revision, updated_at
		FROM state_snapshots WHERE key = ?
	`, key).Scan(&s.Key, &s.Value, &s.Origin, &s.Revision, &s.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return s, nil
}

// Set overwrites the snapshot under key and bumps its revision.
func (r *SnapshotRepository) Set(ctx context.Context, key string, value []byte, origin string) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO state_snapshots (key, value, origin, revision, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			origin = excluded.origin,
			revision = state_snapshots.revision + 1,
			updated_at = excluded.updated_at
	`, key, value, origin, r.Now())
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// revision returns the current revision and origin of key; zero when absent.
func (r *SnapshotRepository) revision(ctx context.Context, key string) (int64, string, error) {
	var rev int64
	var origin string
	err := r.DB().QueryRowContext(ctx,
		"SELECT revision, origin FROM state_snapshots WHERE key = ?", key,
	).Scan(&rev, &origin)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	return rev, origin, err
}

// Watch polls the revision of key and reports every change seen after the
// watch started.
func (r *SnapshotRepository) Watch(ctx context.Context, key string, fn func(Notification)) error {
	last, _, err := r.revision(ctx, key)
	if err != nil {
		return fmt.Errorf("reading snapshot revision: %w", err)
	}

	go func() {
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rev, origin, err := r.revision(ctx, key)
				if err != nil {
					if ctx.Err() == nil {
						r.log.Warn().Err(err).Str("key", key).Msg("polling snapshot revision failed")
					}
					continue
				}
				if rev == last {
					continue
				}
				last = rev
				fn(Notification{Key: key, Origin: origin, Revision: rev})
			}
		}
	}()
	return nil
}

// Close closes the database.
func (r *SnapshotRepository) Close() error {
	return r.DB().Close()
}
