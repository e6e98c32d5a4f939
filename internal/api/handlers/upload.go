package handlers

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/anniversary-planner/backend/internal/media"
	"github.com/anniversary-planner/backend/internal/storage"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 20 << 20

// uploadError is the {error} body the upload endpoint answers with.
type uploadError struct {
	Error string `json:"error"`
}

// UploadRecorder keeps a record of stored uploads.
type UploadRecorder interface {
	Create(ctx context.Context, u *storage.Upload) error
}

// Upload stores the raw request body under ?filename= and returns the
// object descriptor. Only POST is accepted.
func Upload(store media.ObjectStore, records UploadRecorder, log zerolog.Logger) http.HandlerFunc {
	return upload(store, records, log, MaxUploadBytes)
}

func upload(store media.ObjectStore, records UploadRecorder, log zerolog.Logger, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, uploadError{Error: "Method not allowed"})
			return
		}

		filename := strings.TrimSpace(r.URL.Query().Get("filename"))
		if filename == "" {
			writeJSON(w, http.StatusBadRequest, uploadError{Error: "Missing filename"})
			return
		}

		body := bufio.NewReader(http.MaxBytesReader(w, r.Body, limit))
		if _, err := body.Peek(1); err != nil {
			if err == io.EOF {
				writeJSON(w, http.StatusBadRequest, uploadError{Error: "Empty file"})
			} else {
				writeJSON(w, http.StatusBadRequest, uploadError{Error: "Unreadable request body"})
			}
			return
		}

		key := media.NewKey(filename, time.Now())
		contentType := media.ContentTypeFor(r.Header.Get("Content-Type"), filename)
		obj, err := store.Put(r.Context(), key, contentType, body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, uploadError{Error: "File too large"})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("filename", filename).Msg("upload failed")
			writeJSON(w, http.StatusInternalServerError, uploadError{Error: "Upload failed"})
			return
		}

		if records != nil {
			rec := &storage.Upload{
				Key:         obj.Key,
				Filename:    filename,
				ContentType: obj.ContentType,
				Size:        obj.Size,
				URL:         obj.URL,
			}
			if err := records.Create(r.Context(), rec); err != nil {
				log.Warn().Err(err).Str("key", obj.Key).Msg("recording upload failed")
			}
		}
		writeJSON(w, http.StatusOK, obj)
	}
}

// ListUploads returns recorded uploads, newest first.
func ListUploads(repo *storage.UploadRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := repo.List(r.Context(), 200)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, uploadError{Error: "Failed to list uploads"})
			return
		}
		writeJSON(w, http.StatusOK, uploads)
	}
}
