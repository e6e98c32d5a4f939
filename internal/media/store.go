// Package media stores uploaded files in an object store and hands back a
// public URL.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object describes a stored file.
type Object struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// ObjectStore writes objects under a key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename reduces a client-supplied name to a safe base name.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "file"
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return base
}

// NewKey returns a unique object key for filename, grouped by upload month.
func NewKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s-%s", now.UTC().Format("2006-01"), uuid.NewString(), SanitizeFilename(filename))
}

// ContentTypeFor picks a content type from the declared header, then the
// file extension.
func ContentTypeFor(declared, filename string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
