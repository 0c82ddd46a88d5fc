package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"undangan/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// uploadRequest builds a multipart upload with one "file" part.
func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/admin/media", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestMediaUpload(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Media.Upload(rec, uploadRequest(t, "Logo.PNG", pngHeader))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	url, _ := body["url"].(string)
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q", url)
	}
	if body["kind"] != models.MediaImage {
		t.Errorf("kind = %v", body["kind"])
	}

	if len(env.MediaDB.items) != 1 {
		t.Fatalf("media records = %d", len(env.MediaDB.items))
	}
	m := env.MediaDB.items[0]
	if m.OriginalName != "Logo.PNG" || m.ContentType != "image/png" || m.Backend != "local" || m.URL != url {
		t.Errorf("record = %+v", m)
	}
	if got := env.Backend.objects[m.Key]; !bytes.Equal(got, pngHeader) {
		t.Errorf("stored object = %q, want the uploaded bytes", got)
	}
}

func TestMediaUploadRejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  string
	}{
		{"double extension", "shell.php.png", pngHeader, errDoubleExtension},
		{"script disguised as image", "photo.png", []byte("<?php system($_GET['c']); ?>"), "File content type does not match its extension."},
		{"html", "index.html", []byte("<html></html>"), "File type .html is not allowed."},
		{"no extension", "photo", pngHeader, "File has no extension."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := httptest.NewRecorder()
			env.Media.Upload(rec, uploadRequest(t, tt.filename, tt.data))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeBody(t, rec)["error"]; got != tt.wantErr {
				t.Errorf("error = %v, want %q", got, tt.wantErr)
			}
			if len(env.Backend.objects) != 0 || len(env.MediaDB.items) != 0 {
				t.Error("refused upload was stored")
			}
		})
	}
}

func TestMediaUploadMissingFile(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "x")
	mw.Close()
	r := httptest.NewRequest(http.MethodPost, "/admin/media", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	env.Media.Upload(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMediaList(t *testing.T) {
	env := newTestEnv(t)
	for _, ct := range []string{"image/png", "image/jpeg", "video/mp4"} {
		env.MediaDB.Create(t.Context(), &models.Media{Filename: "f", ContentType: ct, Backend: "local"})
	}

	tests := []struct {
		query     string
		want      int
		wantTotal float64
	}{
		{"", 3, 3},
		{"?limit=2", 2, 3},
		{"?limit=2&offset=2", 1, 3},
		{"?offset=10", 0, 3},
		{"?limit=0", 1, 3},
		{"?limit=abc", 3, 3},
		{"?kind=image", 2, 2},
		{"?kind=video&limit=1", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Media.List(rec, httptest.NewRequest(http.MethodGet, "/admin/media"+tt.query, nil))
			body := decodeBody(t, rec)
			items, ok := body["media"].([]any)
			if !ok || len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
			if body["total"] != tt.wantTotal {
				t.Errorf("total = %v, want %v", body["total"], tt.wantTotal)
			}
		})
	}

	rec := httptest.NewRecorder()
	env.Media.List(rec, httptest.NewRequest(http.MethodGet, "/admin/media?kind=audio", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: status = %d, want 400", rec.Code)
	}
}

func TestMediaDelete(t *testing.T) {
	env := newTestEnv(t)
	local, _ := env.MediaDB.Create(t.Context(), &models.Media{Backend: "local", Key: "a.png"})
	remote, _ := env.MediaDB.Create(t.Context(), &models.Media{Backend: "s3", Key: "b.png"})
	env.Backend.objects["a.png"] = pngHeader

	del := func(id string) int {
		r := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", id)
		rec := httptest.NewRecorder()
		env.Media.Delete(rec, r)
		return rec.Code
	}

	if code := del(local.ID.String()); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if _, ok := env.Backend.objects["a.png"]; ok {
		t.Error("object not deleted from the backend")
	}

	if code := del(remote.ID.String()); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(env.Backend.deleted) != 1 {
		t.Errorf("deleted keys = %v, objects on other backends must be kept", env.Backend.deleted)
	}

	if code := del(uuid.NewString()); code != http.StatusNotFound {
		t.Errorf("unknown: status = %d", code)
	}
}
