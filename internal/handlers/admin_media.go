package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"undangan/internal/models"
	"undangan/internal/storage"
)

// maxUploadSize is the maximum allowed file upload size (50 MB).
const maxUploadSize = 50 << 20

// Media groups the media upload handlers. Uploaded files are referenced
// from file trees by URL and served by redirect.
type Media struct {
	store   MediaStore
	backend storage.Backend
}

// NewMedia creates a new Media handler group.
func NewMedia(store MediaStore, backend storage.Backend) *Media {
	return &Media{store: store, backend: backend}
}

// Upload handles a multipart upload in the "file" field. Only images and
// videos are accepted, checked by extension and by sniffing the content.
func (m *Media) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 50 MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 50 MB.")
		return
	}

	// Detect content type by sniffing the first 512 bytes.
	sniff := make([]byte, 512)
	n, err := file.Read(sniff)
	if err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Failed to read file.")
		return
	}
	contentType := http.DetectContentType(sniff[:n])

	ext, msg := validateUpload(header.Filename, contentType)
	if msg != "" {
		slog.Warn("upload refused", "filename", header.Filename, "content_type", contentType, "reason", msg)
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		serverError(w, "rewind upload failed", err)
		return
	}

	key, err := storage.NewKey(ext)
	if err != nil {
		serverError(w, "generate media key failed", err)
		return
	}

	ctx := r.Context()
	url, err := m.backend.Put(ctx, key, contentType, file, header.Size)
	if err != nil {
		serverError(w, "store upload failed", err, "backend", m.backend.Name(), "key", key)
		return
	}

	created, err := m.store.Create(ctx, &models.Media{
		Filename:     key,
		OriginalName: header.Filename,
		ContentType:  contentType,
		SizeBytes:    header.Size,
		Backend:      m.backend.Name(),
		Key:          key,
		URL:          url,
	})
	if err != nil {
		if derr := m.backend.Delete(ctx, key); derr != nil {
			slog.Warn("orphaned upload", "backend", m.backend.Name(), "key", key, "error", derr)
		}
		serverError(w, "media db insert failed", err, "key", key)
		return
	}

	slog.Info("media uploaded", "key", key, "kind", created.Kind(), "backend", created.Backend, "size", created.HumanSize())
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"url":     created.URL,
		"kind":    created.Kind(),
		"media":   created,
	})
}

// List returns uploaded media, newest first. ?limit and ?offset page
// through the library; ?kind=image or ?kind=video narrows it.
func (m *Media) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, 200)
	offset := queryInt(r, "offset", 0, 0, 1<<30)

	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != models.MediaImage && kind != models.MediaVideo {
		writeError(w, http.StatusBadRequest, "Kind must be image or video.")
		return
	}

	items, total, err := m.store.List(r.Context(), kind, limit, offset)
	if err != nil {
		serverError(w, "list media failed", err)
		return
	}
	if items == nil {
		items = []models.Media{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": items, "total": total})
}

// Delete removes a media record and its stored object. Trees that still
// point at the URL will redirect to a missing object.
func (m *Media) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	// Delete from DB first (returns the row for object cleanup).
	deleted, err := m.store.Delete(r.Context(), id)
	if err != nil {
		serverError(w, "delete media failed", err, "media_id", id)
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "Media not found")
		return
	}

	if deleted.Backend != m.backend.Name() {
		slog.Warn("media stored on another backend, object kept", "media_id", id, "backend", deleted.Backend)
	} else if err := m.backend.Delete(r.Context(), deleted.Key); err != nil {
		slog.Error("delete media object failed", "error", err, "key", deleted.Key)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// queryInt reads an integer query parameter clamped to [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return min(max(v, lo), hi)
}
