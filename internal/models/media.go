package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media kinds accepted by the upload endpoint.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Media is an uploaded image or video. The bytes live in the storage
// backend; URL is what gets pasted into a file node's content so the
// asset server redirects to it.
type Media struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Backend      string    `json:"backend"`
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Kind is MediaImage or MediaVideo, or "" for anything else.
func (m *Media) Kind() string {
	major, _, _ := strings.Cut(m.ContentType, "/")
	switch major {
	case MediaImage, MediaVideo:
		return major
	}
	return ""
}

// HumanSize formats SizeBytes for logs and the media library listing.
func (m *Media) HumanSize() string {
	switch n := float64(m.SizeBytes); {
	case m.SizeBytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", n/(1<<20))
	case m.SizeBytes >= 1<<10:
		return fmt.Sprintf("%.0f KB", n/(1<<10))
	}
	return fmt.Sprintf("%d B", m.SizeBytes)
}
