package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore writes objects to a Google Cloud Storage bucket.
type GCSStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// ClientOptions turns a credentials value into client options. A value
// starting with "{" is inline JSON, anything else a file path.
func ClientOptions(credentials string) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	creds := strings.TrimSpace(credentials)
	switch {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

// NewGCSStore creates a storage client for bucket. publicBaseURL, when set,
// replaces https://storage.googleapis.com/<bucket> in returned URLs.
func NewGCSStore(ctx context.Context, bucket, publicBaseURL string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing GCS bucket name")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, publicBaseURL: publicBaseURL}, nil
}

// Put streams r into the bucket.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return Object{URL: s.publicURL(key), Key: key, Size: n, ContentType: contentType}, nil
}

func (s *GCSStore) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, strings.TrimLeft(key, "/"))
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
