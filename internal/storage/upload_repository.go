package storage

import (
	"context"
	"fmt"
	"time"
)

// Upload is the record of one stored file.
type Upload struct {
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UploadRepository handles database operations for upload records.
type UploadRepository struct {
	BaseRepository
}

// NewUploadRepository creates a new upload repository.
func NewUploadRepository(db *DB) *UploadRepository {
	return &UploadRepository{BaseRepository: NewBaseRepository(db)}
}

// Create records an upload.
func (r *UploadRepository) Create(ctx context.Context, u *Upload) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.Now()
	}
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO uploads (key, filename, content_type, size, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.Key, u.Filename, u.ContentType, u.Size, u.URL, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting upload: %w", err)
	}
	return nil
}

// List returns uploads, newest first.
func (r *UploadRepository) List(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB().QueryContext(ctx, `
		SELECT key, filename, content_type, size, url, created_at
		FROM uploads ORDER BY created_at DESC, key LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	out := []Upload{}
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.Key, &u.Filename, &u.ContentType, &u.Size, &u.URL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
